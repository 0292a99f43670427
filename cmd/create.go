package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/zjrosen/signup/internal/log"
	"github.com/zjrosen/signup/internal/presentation"
	"github.com/zjrosen/signup/internal/registration"
)

// errRegistrationFailed makes the command exit non-zero after its output was printed.
var errRegistrationFailed = errors.New("registration failed")

var (
	createUsername  string
	createFirstName string
	createLastName  string
	createEmail     string
	createPassword  string
	createAgree     bool
	createJSON      bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Register an account without the form",
	Long: `Register an account from flags.

The values go through the same rules as the form, including the username and
email availability checks. When everything passes the account is created,
signed in, and the plan selection URL is printed.

Examples:
  signup create --username ada_lovelace --first-name Ada --last-name Lovelace \
    --email ada@example.com --password analytical-engine --agree-terms`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createUsername, "username", "", "username (5 to 50 characters, no spaces)")
	createCmd.Flags().StringVar(&createFirstName, "first-name", "", "first name")
	createCmd.Flags().StringVar(&createLastName, "last-name", "", "last name")
	createCmd.Flags().StringVar(&createEmail, "email", "", "email address")
	createCmd.Flags().StringVar(&createPassword, "password", "", "password (10 to 50 characters)")
	createCmd.Flags().BoolVar(&createAgree, "agree-terms", false, "agree to the Terms of Service")
	createCmd.Flags().BoolVar(&createJSON, "json", false, "print JSON")
	rootCmd.AddCommand(createCmd)
}

// draftFromFlags fills a draft the way typing into the form would, then
// settles every field.
func draftFromFlags() registration.Draft {
	values := map[registration.Field]string{
		registration.Username:        createUsername,
		registration.FirstName:       createFirstName,
		registration.LastName:        createLastName,
		registration.Email:           createEmail,
		registration.Password:        createPassword,
		registration.ConfirmPassword: createPassword,
	}
	d := registration.NewDraft()
	for _, f := range registration.TextFields() {
		d = registration.Reduce(d, registration.Changed{Field: f, Value: values[f]})
	}
	for _, f := range registration.TextFields() {
		d = registration.Reduce(d, registration.Settled{Field: f, NoRequest: !f.Unique()})
	}
	if createAgree {
		d = registration.Reduce(d, registration.ToggleTerms{})
	}
	return d
}

func runCreate(cmd *cobra.Command, _ []string) error {
	cleanupLog, err := setupLogging("signup-create")
	if err != nil {
		return err
	}
	defer cleanupLog()

	out := presentation.NewFormatter(cmd.OutOrStdout(), createJSON)
	d := draftFromFlags()

	svc, err := newServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	// Answer the uniqueness requests the settled fields asked for.
	var queries []query
	for _, f := range []registration.Field{registration.Username, registration.Email} {
		if d.Field(f).CheckCount > 0 {
			queries = append(queries, query{f, d.Value(f)})
		}
	}
	for i, r := range checkAvailability(cmd.Context(), svc.checker, queries) {
		if r.Error != "" {
			continue
		}
		f := queries[i].field
		d = registration.Reduce(d, registration.UniqueResult{
			Field:  f,
			Value:  queries[i].value,
			Token:  d.Field(f).CheckCount,
			Unique: r.Available,
		})
	}

	d = registration.Reduce(d, registration.Submit{})
	if d.SubmitCount == 0 {
		log.Info(log.CatForm, "Registration rejected by validation", "errors", len(d.Errors()))
		if err := out.FormatCreateResult(presentation.FromDraftErrors(d)); err != nil {
			return err
		}
		return errRegistrationFailed
	}

	acct := d.Payload()
	res, err := svc.orchestrator.Submit(cmd.Context(), acct)
	if err != nil {
		if ferr := out.FormatCreateResult(presentation.FromSubmitError(acct, err)); ferr != nil {
			return ferr
		}
		return errRegistrationFailed
	}
	return out.FormatCreateResult(presentation.FromResult(acct, res))
}
