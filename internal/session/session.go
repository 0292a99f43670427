// Package session signs a freshly created account in through the backend's
// credentials provider and keeps the resulting session cookie.
package session

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSessionCookie    = errors.New("no session cookie in sign-in response")
	ErrNoCSRFToken        = errors.New("csrf endpoint returned no token")
	ErrNotFound           = errors.New("session not found")
)

// Session is a signed-in browser-equivalent session.
type Session struct {
	GUID       string
	BaseURL    string
	Email      string
	CookieName string
	Token      string
	// ExpiresAt is zero for cookies that live until the browser closes.
	ExpiresAt time.Time
	NextRoute string
	CreatedAt time.Time
}

// Expired reports whether the cookie has passed its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// MaskedToken returns the token with everything but its last four characters hidden.
func (s Session) MaskedToken() string {
	const visible = 4
	if len(s.Token) <= visible {
		return "****"
	}
	return "****" + s.Token[len(s.Token)-visible:]
}

// Store persists sessions.
type Store interface {
	Save(ctx context.Context, s Session) error
	// Latest returns the newest session for baseURL or ErrNotFound.
	Latest(ctx context.Context, baseURL string) (Session, error)
	// List returns up to limit sessions, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Session, error)
	// DeleteAll removes every session and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)
	Close() error
}
