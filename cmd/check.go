package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/signup/internal/api"
	"github.com/zjrosen/signup/internal/log"
	"github.com/zjrosen/signup/internal/presentation"
	"github.com/zjrosen/signup/internal/registration"
)

var (
	checkUsername string
	checkEmail    string
	checkJSON     bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a username or email is available",
	Long: `Ask the backend whether a username and/or email is still free.

Both checks run at the same time. Values that fail the form's own rules are
reported without asking the backend.

Examples:
  signup check --username ada_lovelace
  signup check -n ada_lovelace -e ada@example.com --json`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkUsername, "username", "n", "", "username to check")
	checkCmd.Flags().StringVarP(&checkEmail, "email", "e", "", "email to check")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print JSON")
	rootCmd.AddCommand(checkCmd)
}

// query is one field to check.
type query struct {
	field registration.Field
	value string
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cleanupLog, err := setupLogging("signup-check")
	if err != nil {
		return err
	}
	defer cleanupLog()

	var queries []query
	if cmd.Flags().Changed("username") {
		queries = append(queries, query{registration.Username, checkUsername})
	}
	if cmd.Flags().Changed("email") {
		queries = append(queries, query{registration.Email, checkEmail})
	}
	if len(queries) == 0 {
		return errors.New("nothing to check: pass --username and/or --email")
	}

	svc, err := newServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	results := checkAvailability(cmd.Context(), svc.checker, queries)
	return presentation.NewFormatter(cmd.OutOrStdout(), checkJSON).FormatAvailability(results)
}

// checkAvailability validates each value the way the form does and asks
// checker about the ones that pass, concurrently. Results keep the order of
// queries. A failed request is reported in its result, not returned.
func checkAvailability(ctx context.Context, checker api.UniquenessChecker, queries []query) []presentation.AvailabilityDTO {
	results := make([]presentation.AvailabilityDTO, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		results[i] = presentation.AvailabilityDTO{Field: string(q.field), Value: q.value}

		d := registration.ReduceAll(registration.NewDraft(),
			registration.Changed{Field: q.field, Value: q.value},
			registration.Settled{Field: q.field},
		)
		if fs := d.Field(q.field); fs.HasErrors {
			results[i].Error = fs.Message
			continue
		}

		g.Go(func() error {
			unique, err := checker.CheckUnique(gctx, q.field, q.value)
			if err != nil {
				log.ErrorErr(log.CatAPI, "Availability check failed", err, "field", string(q.field))
				results[i].Error = api.Message(err)
				return nil
			}
			results[i].Available = unique
			return nil
		})
	}
	_ = g.Wait()
	return results
}
