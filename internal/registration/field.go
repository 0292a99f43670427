// Package registration holds the sign-up form's state and the pure rules that
// drive it.
//
// The state is a Draft value. It never changes in place; Reduce takes a Draft
// and an Action and returns the next Draft. Everything here is free of I/O so
// the rules can be exercised directly, with property tests, and from both the
// terminal form and the non-interactive create command.
package registration

import "strings"

// Field names a form field.
type Field string

const (
	Username        Field = "username"
	FirstName       Field = "firstName"
	LastName        Field = "lastName"
	Email           Field = "email"
	Password        Field = "password"
	ConfirmPassword Field = "confirmPassword"
	AgreeToTerms    Field = "agreeToTerms"
)

var allFields = []Field{Username, FirstName, LastName, Email, Password, ConfirmPassword, AgreeToTerms}

// Fields returns every field in display order.
func Fields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// TextFields returns the fields that hold typed text, in display order.
func TextFields() []Field {
	return allFields[:len(allFields)-1]
}

// Label returns the human label of the field.
func (f Field) Label() string {
	switch f {
	case Username:
		return "Username"
	case FirstName:
		return "First name"
	case LastName:
		return "Last name"
	case Email:
		return "Email"
	case Password:
		return "Password"
	case ConfirmPassword:
		return "Confirm password"
	case AgreeToTerms:
		return "Agree to terms"
	}
	return string(f)
}

// Secret reports whether the field's value should be masked on screen.
func (f Field) Secret() bool {
	return f == Password || f == ConfirmPassword
}

// Debounced reports whether the field has rules that run after the user
// stops typing.
func (f Field) Debounced() bool {
	return len(settledRules[f]) > 0
}

// Unique reports whether the backend must confirm the value is not taken.
func (f Field) Unique() bool {
	return f == Username || f == Email
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	for _, known := range allFields {
		if f == known {
			return true
		}
	}
	return false
}

// FieldState is the per-field record of a Draft.
type FieldState struct {
	Value     string
	HasErrors bool
	Message   string

	// IsUnique is set by a uniqueness result for the current Value.
	IsUnique bool
	// Checked is true once a uniqueness result arrived for the current Value.
	Checked bool
	// CheckCount counts settled validations that passed and asked for a
	// uniqueness request. It tags requests so stale results can be dropped.
	CheckCount int
}

// Taken reports whether the backend said the current value is already used.
func (s FieldState) Taken() bool {
	return s.Checked && !s.IsUnique
}

// Draft is the whole form state.
type Draft struct {
	username        FieldState
	firstName       FieldState
	lastName        FieldState
	email           FieldState
	password        FieldState
	confirmPassword FieldState
	agreeToTerms    FieldState

	// SubmitCount increments once per submit that found the draft valid.
	SubmitCount int
}

// NewDraft returns an empty draft, as on a fresh form mount.
func NewDraft() Draft {
	return Draft{}
}

// Field returns the state of f. Unknown fields yield the zero state.
func (d Draft) Field(f Field) FieldState {
	if ref := d.ref(f); ref != nil {
		return *ref
	}
	return FieldState{}
}

// Value is shorthand for d.Field(f).Value.
func (d Draft) Value(f Field) string {
	return d.Field(f).Value
}

// AgreedToTerms reports whether the terms box is checked.
func (d Draft) AgreedToTerms() bool {
	return d.agreeToTerms.Value == termsChecked
}

// Valid reports whether no field carries an error and terms are agreed.
func (d Draft) Valid() bool {
	for _, f := range allFields {
		if d.Field(f).HasErrors {
			return false
		}
	}
	return d.AgreedToTerms()
}

// Errors returns the message of every field that has an error, in display order.
func (d Draft) Errors() map[Field]string {
	out := make(map[Field]string)
	for _, f := range allFields {
		if s := d.Field(f); s.HasErrors {
			out[f] = s.Message
		}
	}
	return out
}

// ref returns a pointer into d for f. Callers must hold d by pointer for the
// write to stick.
func (d *Draft) ref(f Field) *FieldState {
	switch f {
	case Username:
		return &d.username
	case FirstName:
		return &d.firstName
	case LastName:
		return &d.lastName
	case Email:
		return &d.email
	case Password:
		return &d.password
	case ConfirmPassword:
		return &d.confirmPassword
	case AgreeToTerms:
		return &d.agreeToTerms
	}
	return nil
}

// Account is the normalized create-account payload.
type Account struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Payload returns the normalized account: username lower-cased and trimmed,
// everything else trimmed.
func (d Draft) Payload() Account {
	return Account{
		Username:  strings.ToLower(strings.TrimSpace(d.username.Value)),
		FirstName: strings.TrimSpace(d.firstName.Value),
		LastName:  strings.TrimSpace(d.lastName.Value),
		Email:     strings.TrimSpace(d.email.Value),
		Password:  strings.TrimSpace(d.password.Value),
	}
}
