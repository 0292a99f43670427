package registration

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

// Field limits.
const (
	UsernameMinLength = 5
	UsernameMaxLength = 50
	PasswordMinLength = 10
	PasswordMaxLength = 50
)

// Validation messages.
const (
	MsgUsernameRequired = "Username is required."
	MsgUsernameTooLong  = "Username cannot exceed 50 characters."
	MsgUsernameTooShort = "Username must contain at least 5 characters."
	MsgUsernameSpaces   = "Username cannot contain spaces."
	MsgUsernameTaken    = "That username is already taken"

	MsgFirstNameRequired = "First name is required."
	MsgLastNameRequired  = "Last name is required."

	MsgEmailInvalid = "You must provide a valid email address."
	MsgEmailTaken   = "That email is already taken"

	MsgPasswordRequired = "Password is required."
	MsgPasswordTooLong  = "Password cannot exceed 50 characters."
	MsgPasswordTooShort = "Password must contain at least 10 characters."

	MsgPasswordMismatch = "Must match above password."

	MsgTermsRequired = "Please agree to our Terms."
)

const termsChecked = "true"

// rule fails when its predicate returns true. password is the current
// password so confirmPassword can compare against it.
type rule struct {
	message string
	fails   func(value, password string) bool
}

// immediateRules run on every change, after errors are reset.
var immediateRules = map[Field][]rule{
	Username: {
		{MsgUsernameRequired, func(v, _ string) bool { return v == "" }},
		{MsgUsernameTooLong, func(v, _ string) bool { return Length(v) > UsernameMaxLength }},
	},
	FirstName: {
		{MsgFirstNameRequired, func(v, _ string) bool { return blank(v) }},
	},
	LastName: {
		{MsgLastNameRequired, func(v, _ string) bool { return blank(v) }},
	},
	Password: {
		{MsgPasswordRequired, func(v, _ string) bool { return blank(v) }},
		{MsgPasswordTooLong, func(v, _ string) bool { return Length(strings.TrimSpace(v)) > PasswordMaxLength }},
	},
}

// settledRules run after the debounce window. They only add errors.
var settledRules = map[Field][]rule{
	Username: {
		{MsgUsernameTooShort, func(v, _ string) bool { return Length(v) < UsernameMinLength }},
		{MsgUsernameSpaces, func(v, _ string) bool { return HasWhitespace(v) }},
	},
	Email: {
		{MsgEmailInvalid, func(v, _ string) bool { return !ValidEmail(v) }},
	},
	Password: {
		{MsgPasswordTooShort, func(v, _ string) bool { return Length(strings.TrimSpace(v)) < PasswordMinLength }},
	},
	ConfirmPassword: {
		{MsgPasswordMismatch, func(v, password string) bool { return v == "" || v != password }},
	},
}

// Length counts user-perceived characters.
func Length(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// HasWhitespace reports whether s contains any Unicode white space,
// including the byte order mark.
func HasWhitespace(s string) bool {
	return strings.IndexFunc(s, isSpace) >= 0
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// ValidEmail reports whether s is something@something with no white space
// anywhere.
func ValidEmail(s string) bool {
	if len(s) < 3 || HasWhitespace(s) {
		return false
	}
	// '@' is a single byte, so it cannot sit inside a multi-byte rune.
	return strings.Contains(s[1:len(s)-1], "@")
}

// blank reports whether v is empty once surrounding white space is trimmed,
// which is what the payload sends.
func blank(v string) bool {
	return strings.TrimSpace(v) == ""
}

// ImmediateError returns the message of the last immediate rule value fails
// for field f, or "" when it passes.
func ImmediateError(f Field, value string) string {
	return lastFailure(immediateRules[f], value, "")
}

// SettledError returns the message of the last settled rule value fails for
// field f, or "" when it passes. password is only read for ConfirmPassword.
func SettledError(f Field, value, password string) string {
	return lastFailure(settledRules[f], value, password)
}

func lastFailure(rules []rule, value, password string) string {
	msg := ""
	for _, r := range rules {
		if r.fails(value, password) {
			msg = r.message
		}
	}
	return msg
}

// TakenMessage returns the error shown when the backend reports f as taken.
func TakenMessage(f Field) string {
	switch f {
	case Username:
		return MsgUsernameTaken
	case Email:
		return MsgEmailTaken
	}
	return ""
}
