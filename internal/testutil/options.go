package testutil

import (
	"strings"
	"time"
)

// BackendOption configures a Backend before it starts.
type BackendOption func(*Backend)

// WithTakenUsername marks usernames as already registered.
func WithTakenUsername(names ...string) BackendOption {
	return func(b *Backend) {
		for _, n := range names {
			b.usernames[strings.ToLower(n)] = true
		}
	}
}

// WithTakenEmail marks emails as already registered.
func WithTakenEmail(emails ...string) BackendOption {
	return func(b *Backend) {
		for _, e := range emails {
			b.emails[strings.ToLower(e)] = true
		}
	}
}

// WithAccount registers an account that can sign in.
func WithAccount(username, email, password string) BackendOption {
	return func(b *Backend) {
		b.usernames[strings.ToLower(username)] = true
		b.emails[strings.ToLower(email)] = true
		b.passwords[strings.ToLower(email)] = password
	}
}

// WithCreateFailure makes createAccount answer status with message. An empty
// message sends no body.
func WithCreateFailure(status int, message string) BackendOption {
	return func(b *Backend) { b.createFail = &failure{status: status, message: message} }
}

// WithCheckFailure makes both uniqueness endpoints fail.
func WithCheckFailure(status int) BackendOption {
	return func(b *Backend) { b.checkFail = &failure{status: status, message: "unavailable"} }
}

// WithCheckDelay slows uniqueness answers down.
func WithCheckDelay(d time.Duration) BackendOption {
	return func(b *Backend) { b.checkDelay = d }
}

// WithSessionCookie changes the session cookie name and max age.
func WithSessionCookie(name string, maxAge int) BackendOption {
	return func(b *Backend) {
		b.cookieName = name
		b.maxAge = maxAge
	}
}

// WithoutSessionCookie signs in without setting a cookie.
func WithoutSessionCookie() BackendOption {
	return func(b *Backend) { b.noCookie = true }
}
