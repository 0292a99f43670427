package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"

	"github.com/zjrosen/signup/internal/api"
	"github.com/zjrosen/signup/internal/log"
	"github.com/zjrosen/signup/internal/tracing"
)

// Route defaults of the credentials provider.
const (
	DefaultCSRFPath   = "/api/auth/csrf"
	DefaultSignInPath = "/api/auth/callback/credentials"
	DefaultNextRoute  = "/register/select-plan"
)

// returnRedirectHeader asks the backend to answer with JSON {url} instead of a 302.
const returnRedirectHeader = "X-Auth-Return-Redirect"

// CookieNames are the session cookie names the backend may set, in lookup order.
var CookieNames = []string{
	"__Secure-authjs.session-token",
	"authjs.session-token",
	"__Secure-next-auth.session-token",
	"next-auth.session-token",
}

// Config holds the sign-in routes.
type Config struct {
	CSRFPath   string `mapstructure:"csrf_path"`
	SignInPath string `mapstructure:"signin_path"`
	NextRoute  string `mapstructure:"next_route"`
}

// DefaultConfig returns the provider's standard routes.
func DefaultConfig() Config {
	return Config{
		CSRFPath:   DefaultCSRFPath,
		SignInPath: DefaultSignInPath,
		NextRoute:  DefaultNextRoute,
	}
}

// Credentials are the normalized email and password of the new account.
type Credentials struct {
	Email    string
	Password string
}

// Authenticator performs the credentials sign-in handshake.
type Authenticator struct {
	cfg       Config
	base      *url.URL
	transport http.RoundTripper
	timeout   time.Duration
	tracer    trace.Tracer
	newID     func() string
	now       func() time.Time
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithHTTPClient reuses the transport and timeout of h. Its cookie jar and
// redirect policy are not used.
func WithHTTPClient(h *http.Client) Option {
	return func(a *Authenticator) {
		a.transport = h.Transport
		a.timeout = h.Timeout
	}
}

// WithTracer records session.csrf and session.signin spans.
func WithTracer(t trace.Tracer) Option {
	return func(a *Authenticator) { a.tracer = t }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// NewAuthenticator returns an authenticator against baseURL.
func NewAuthenticator(baseURL string, cfg Config, opts ...Option) (*Authenticator, error) {
	def := DefaultConfig()
	if cfg.CSRFPath == "" {
		cfg.CSRFPath = def.CSRFPath
	}
	if cfg.SignInPath == "" {
		cfg.SignInPath = def.SignInPath
	}
	if cfg.NextRoute == "" {
		cfg.NextRoute = def.NextRoute
	}

	base, err := api.ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	a := &Authenticator{
		cfg:     cfg,
		base:    base,
		timeout: api.DefaultTimeout,
		tracer:  tracing.Noop(),
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// NextURL is where the browser goes after a successful sign-in.
func (a *Authenticator) NextURL() string {
	return api.Join(a.base, a.cfg.NextRoute)
}

// SignIn exchanges creds for a session. Each call uses a fresh cookie jar.
func (a *Authenticator) SignIn(ctx context.Context, creds Credentials) (Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return Session{}, fmt.Errorf("create cookie jar: %w", err)
	}
	client := &http.Client{
		Transport: a.transport,
		Timeout:   a.timeout,
		Jar:       jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	csrf, err := a.fetchCSRF(ctx, client)
	if err != nil {
		return Session{}, err
	}

	cookies, err := a.callback(ctx, client, creds, csrf)
	if err != nil {
		return Session{}, err
	}

	cookie := findSessionCookie(cookies, jar.Cookies(a.base))
	if cookie == nil {
		log.Warn(log.CatSession, "Sign-in succeeded without a session cookie", "email", creds.Email)
		return Session{}, ErrNoSessionCookie
	}

	now := a.now()
	s := Session{
		GUID:       uuid.NewString(),
		BaseURL:    a.base.String(),
		Email:      creds.Email,
		CookieName: cookie.Name,
		Token:      cookie.Value,
		NextRoute:  a.cfg.NextRoute,
		CreatedAt:  now,
	}
	switch {
	case cookie.MaxAge > 0:
		s.ExpiresAt = now.Add(time.Duration(cookie.MaxAge) * time.Second)
	case !cookie.Expires.IsZero():
		s.ExpiresAt = cookie.Expires
	}

	log.Info(log.CatSession, "Signed in", "email", creds.Email, "cookie", cookie.Name)
	return s, nil
}

func (a *Authenticator) fetchCSRF(ctx context.Context, client *http.Client) (token string, err error) {
	ctx, span := tracing.Start(ctx, a.tracer, tracing.SpanCSRF)
	defer func() { tracing.End(span, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api.Join(a.base, a.cfg.CSRFPath), nil)
	if err != nil {
		return "", fmt.Errorf("create csrf request: %w", err)
	}
	a.tag(req, span)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get csrf token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int(tracing.AttrHTTPStatus, resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return "", &api.Error{Status: resp.StatusCode, Message: api.DefaultErrorMessage, Path: a.cfg.CSRFPath}
	}

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		return "", fmt.Errorf("decode csrf token: %w", err)
	}
	if body.CSRFToken == "" {
		return "", ErrNoCSRFToken
	}
	return body.CSRFToken, nil
}

func (a *Authenticator) callback(ctx context.Context, client *http.Client, creds Credentials, csrf string) (cookies []*http.Cookie, err error) {
	ctx, span := tracing.Start(ctx, a.tracer, tracing.SpanSignIn)
	defer func() { tracing.End(span, err) }()

	form := url.Values{
		"email":       {creds.Email},
		"password":    {creds.Password},
		"csrfToken":   {csrf},
		"callbackUrl": {a.NextURL()},
		"json":        {"true"},
		"redirect":    {"false"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, api.Join(a.base, a.cfg.SignInPath), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create sign-in request: %w", err)
	}
	a.tag(req, span)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(returnRedirectHeader, "1")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post sign-in: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int(tracing.AttrHTTPStatus, resp.StatusCode))

	var target string
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidCredentials
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		target = resp.Header.Get("Location")
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode sign-in response: %w", err)
		}
		target = body.URL
	default:
		return nil, &api.Error{Status: resp.StatusCode, Message: api.DefaultErrorMessage, Path: a.cfg.SignInPath}
	}

	if code := errorCode(target); code != "" {
		log.Warn(log.CatSession, "Sign-in rejected", "email", creds.Email, "code", code)
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, code)
	}
	return resp.Cookies(), nil
}

func (a *Authenticator) tag(req *http.Request, span trace.Span) {
	id := a.newID()
	req.Header.Set(api.RequestIDHeader, id)
	span.SetAttributes(attribute.String(tracing.AttrRequestID, id))
}

// errorCode returns the error query parameter of a sign-in result URL.
func errorCode(target string) string {
	if target == "" {
		return ""
	}
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return u.Query().Get("error")
}

// findSessionCookie prefers the callback's Set-Cookie headers, which carry the
// expiry, over the jar, which only keeps name and value.
func findSessionCookie(fromResponse, fromJar []*http.Cookie) *http.Cookie {
	for _, set := range [][]*http.Cookie{fromResponse, fromJar} {
		for _, name := range CookieNames {
			for _, c := range set {
				if c.Name == name && c.Value != "" {
					return c
				}
			}
		}
	}
	return nil
}
