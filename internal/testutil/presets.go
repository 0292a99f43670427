package testutil

import "github.com/zjrosen/signup/internal/registration"

// Standard fixtures.
const (
	TakenUsername = "charles_babbage"
	TakenEmail    = "charles@example.com"
)

// WithStandardAccounts registers the taken fixtures.
func WithStandardAccounts() BackendOption {
	return WithAccount(TakenUsername, TakenEmail, "difference-engine")
}

// NewAccount returns a valid, not yet registered account.
func NewAccount() registration.Account {
	return registration.Account{
		Username:  "ada_lovelace",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "analytical-engine",
	}
}
