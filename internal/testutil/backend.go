// Package testutil provides an in-process fake of the registration backend.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/signup/internal/registration"
)

// Routes served by the fake.
const (
	CheckUsernamePath = "/api/auth/checkUsername"
	CheckEmailPath    = "/api/auth/checkEmail"
	CreateAccountPath = "/api/auth/createAccount"
	CSRFPath          = "/api/auth/csrf"
	SignInPath        = "/api/auth/callback/credentials"

	csrfCookie = "next-auth.csrf-token"
)

// Request is a recorded call.
type Request struct {
	Method    string
	Path      string
	RequestID string
}

type failure struct {
	status  int
	message string
}

// Backend is a fake registration backend on an httptest server.
type Backend struct {
	t   *testing.T
	srv *httptest.Server

	mu         sync.Mutex
	usernames  map[string]bool
	emails     map[string]bool
	passwords  map[string]string
	created    []registration.Account
	createFail *failure
	checkFail  *failure
	checkDelay time.Duration
	cookieName string
	maxAge     int
	noCookie   bool
	requests   []Request
}

// NewBackend starts a fake backend. It is closed when the test ends.
func NewBackend(t *testing.T, opts ...BackendOption) *Backend {
	t.Helper()
	b := &Backend{
		t:          t,
		usernames:  make(map[string]bool),
		emails:     make(map[string]bool),
		passwords:  make(map[string]string),
		cookieName: "next-auth.session-token",
		maxAge:     30 * 24 * 60 * 60,
	}
	for _, opt := range opts {
		opt(b)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+CheckUsernamePath, b.checkUnique("username", b.usernames))
	mux.HandleFunc("POST "+CheckEmailPath, b.checkUnique("email", b.emails))
	mux.HandleFunc("POST "+CreateAccountPath, b.createAccount)
	mux.HandleFunc("GET "+CSRFPath, b.csrf)
	mux.HandleFunc("POST "+SignInPath, b.signIn)

	b.srv = httptest.NewServer(b.record(mux))
	t.Cleanup(b.srv.Close)
	return b
}

// URL is the base URL of the fake.
func (b *Backend) URL() string {
	return b.srv.URL
}

// Requests returns every recorded request in arrival order.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// Count returns how many requests hit path.
func (b *Backend) Count(path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

// Created returns the accounts created so far.
func (b *Backend) Created() []registration.Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]registration.Account, len(b.created))
	copy(out, b.created)
	return out
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			RequestID: r.Header.Get("X-Request-ID"),
		})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) checkUnique(key string, taken map[string]bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad body"})
			return
		}

		b.mu.Lock()
		delay, fail := b.checkDelay, b.checkFail
		isTaken := taken[strings.ToLower(body[key])]
		b.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if fail != nil {
			writeJSON(w, fail.status, map[string]string{"message": fail.message})
			return
		}
		writeJSON(w, http.StatusOK, !isTaken)
	}
}

func (b *Backend) createAccount(w http.ResponseWriter, r *http.Request) {
	var acct registration.Account
	if err := json.NewDecoder(r.Body).Decode(&acct); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.createFail != nil {
		if b.createFail.message == "" {
			w.WriteHeader(b.createFail.status)
			return
		}
		writeJSON(w, b.createFail.status, map[string]string{"message": b.createFail.message})
		return
	}
	if b.usernames[acct.Username] || b.emails[strings.ToLower(acct.Email)] {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "An account with those details already exists."})
		return
	}

	b.usernames[acct.Username] = true
	b.emails[strings.ToLower(acct.Email)] = true
	b.passwords[strings.ToLower(acct.Email)] = acct.Password
	b.created = append(b.created, acct)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Account created"})
}

func (b *Backend) csrf(w http.ResponseWriter, _ *http.Request) {
	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: csrfCookie, Value: token, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

func (b *Backend) signIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad form"})
		return
	}
	if r.Header.Get("X-Auth-Return-Redirect") != "1" || r.PostForm.Get("json") != "true" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	cookie, err := r.Cookie(csrfCookie)
	if err != nil || cookie.Value != r.PostForm.Get("csrfToken") {
		writeJSON(w, http.StatusOK, map[string]string{"url": b.srv.URL + "/api/auth/error?error=MissingCSRF"})
		return
	}

	email := strings.ToLower(r.PostForm.Get("email"))
	b.mu.Lock()
	password, ok := b.passwords[email]
	name, maxAge, noCookie := b.cookieName, b.maxAge, b.noCookie
	b.mu.Unlock()

	if !ok || password != r.PostForm.Get("password") {
		writeJSON(w, http.StatusOK, map[string]string{"url": b.srv.URL + "/api/auth/signin?error=CredentialsSignin"})
		return
	}

	if !noCookie {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "session-" + uuid.NewString(),
			Path:     "/",
			MaxAge:   maxAge,
			HttpOnly: true,
		})
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": r.PostForm.Get("callbackUrl")})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
