package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/zjrosen/signup/internal/registration"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	json   bool
}

// NewFormatter creates a new formatter. asJSON selects JSON over text.
func NewFormatter(writer io.Writer, asJSON bool) *Formatter {
	return &Formatter{
		writer: writer,
		json:   asJSON,
	}
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatAvailability prints uniqueness answers.
func (f *Formatter) FormatAvailability(results []AvailabilityDTO) error {
	if f.json {
		return f.encode(results)
	}
	for _, r := range results {
		var status string
		switch {
		case r.Error != "":
			status = "error: " + r.Error
		case r.Available:
			status = "available"
		default:
			status = "taken"
		}
		if _, err := fmt.Fprintf(f.writer, "%-8s %s: %s\n", r.Field, r.Value, status); err != nil {
			return err
		}
	}
	return nil
}

// FormatSessions prints stored sessions.
func (f *Formatter) FormatSessions(sessions []SessionDTO) error {
	if f.json {
		return f.encode(sessions)
	}
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(f.writer, "No stored sessions.")
		return err
	}
	tw := tabwriter.NewWriter(f.writer, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "EMAIL\tBASE URL\tTOKEN\tCREATED\tEXPIRES")
	for _, s := range sessions {
		expires := "session"
		if s.ExpiresAt != nil {
			expires = s.ExpiresAt.Format(time.RFC3339)
		}
		if s.Expired {
			expires += " (expired)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Email, s.BaseURL, s.Token, s.CreatedAt.Format(time.RFC3339), expires)
	}
	return tw.Flush()
}

// FormatCreateResult prints the outcome of a registration.
func (f *Formatter) FormatCreateResult(r CreateResultDTO) error {
	if f.json {
		return f.encode(r)
	}
	var b strings.Builder
	switch {
	case r.OK:
		fmt.Fprintf(&b, "Account %s created and signed in.\nContinue at %s\n", r.Username, r.NextURL)
	case len(r.Errors) > 0:
		b.WriteString("The registration has problems:\n")
		for _, field := range sortedFields(r.Errors) {
			fmt.Fprintf(&b, "  %s: %s\n", registration.Field(field).Label(), r.Errors[field])
		}
	default:
		fmt.Fprintf(&b, "%s\n", r.Message)
	}
	_, err := io.WriteString(f.writer, b.String())
	return err
}

// sortedFields orders error keys by their position on the form.
func sortedFields(errs map[string]string) []string {
	order := make(map[string]int)
	for i, f := range registration.Fields() {
		order[string(f)] = i
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return order[keys[i]] < order[keys[j]] })
	return keys
}
