package presentation

import (
	"time"

	"github.com/zjrosen/signup/internal/enroll"
	"github.com/zjrosen/signup/internal/registration"
	"github.com/zjrosen/signup/internal/session"
)

// AvailabilityDTO is one uniqueness answer of the check command.
type AvailabilityDTO struct {
	Field     string `json:"field"`
	Value     string `json:"value"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// SessionDTO is a stored session with its token masked.
type SessionDTO struct {
	GUID      string     `json:"guid"`
	BaseURL   string     `json:"base_url"`
	Email     string     `json:"email"`
	Cookie    string     `json:"cookie"`
	Token     string     `json:"token"`
	NextRoute string     `json:"next_route"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Expired   bool       `json:"expired"`
}

// FromSession converts a session for output. now decides Expired.
func FromSession(s session.Session, now time.Time) SessionDTO {
	dto := SessionDTO{
		GUID:      s.GUID,
		BaseURL:   s.BaseURL,
		Email:     s.Email,
		Cookie:    s.CookieName,
		Token:     s.MaskedToken(),
		NextRoute: s.NextRoute,
		CreatedAt: s.CreatedAt,
		Expired:   s.Expired(now),
	}
	if !s.ExpiresAt.IsZero() {
		exp := s.ExpiresAt
		dto.ExpiresAt = &exp
	}
	return dto
}

// FromSessions converts a list of sessions. The result is never nil.
func FromSessions(list []session.Session, now time.Time) []SessionDTO {
	out := make([]SessionDTO, 0, len(list))
	for _, s := range list {
		out = append(out, FromSession(s, now))
	}
	return out
}

// CreateResultDTO is the outcome of the create command.
type CreateResultDTO struct {
	OK       bool              `json:"ok"`
	Username string            `json:"username,omitempty"`
	Email    string            `json:"email,omitempty"`
	NextURL  string            `json:"next_url,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// FromDraftErrors reports the field errors of a draft that failed validation.
func FromDraftErrors(d registration.Draft) CreateResultDTO {
	errs := make(map[string]string)
	for f, msg := range d.Errors() {
		errs[string(f)] = msg
	}
	return CreateResultDTO{Errors: errs}
}

// FromResult reports a successful registration.
func FromResult(acct registration.Account, res enroll.Result) CreateResultDTO {
	return CreateResultDTO{
		OK:       true,
		Username: acct.Username,
		Email:    acct.Email,
		NextURL:  res.NextURL,
	}
}

// FromSubmitError reports a registration that failed after validation.
func FromSubmitError(acct registration.Account, err error) CreateResultDTO {
	return CreateResultDTO{
		Username: acct.Username,
		Email:    acct.Email,
		Message:  enroll.UserMessage(err),
	}
}
