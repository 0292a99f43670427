// Package api is the HTTP client for the registration endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/signup/internal/log"
	"github.com/zjrosen/signup/internal/registration"
	"github.com/zjrosen/signup/internal/tracing"
)

// Endpoint defaults.
const (
	DefaultBaseURL           = "http://localhost:3000"
	DefaultTimeout           = 10 * time.Second
	DefaultCheckUsernamePath = "/api/auth/checkUsername"
	DefaultCheckEmailPath    = "/api/auth/checkEmail"
	DefaultCreateAccountPath = "/api/auth/createAccount"
)

// RequestIDHeader tags every request for correlation with backend logs.
const RequestIDHeader = "X-Request-ID"

// maxBody caps how much of a response body is read.
const maxBody = 1 << 20

// Config holds the backend location and endpoint paths.
type Config struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	CheckUsernamePath string        `mapstructure:"check_username_path"`
	CheckEmailPath    string        `mapstructure:"check_email_path"`
	CreateAccountPath string        `mapstructure:"create_account_path"`
}

// DefaultConfig returns the paths the backend serves by default.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		Timeout:           DefaultTimeout,
		CheckUsernamePath: DefaultCheckUsernamePath,
		CheckEmailPath:    DefaultCheckEmailPath,
		CreateAccountPath: DefaultCreateAccountPath,
	}
}

// CreateAccountRequest is the create-account body.
type CreateAccountRequest = registration.Account

// CreateAccountResponse is the decoded success body. Message is optional.
type CreateAccountResponse struct {
	Message string `json:"message,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
}

// Client calls the registration endpoints.
type Client struct {
	cfg    Config
	base   *url.URL
	http   *http.Client
	tracer trace.Tracer
	newID  func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTracer records a span per request.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithRequestID overrides the X-Request-ID generator.
func WithRequestID(fn func() string) Option {
	return func(c *Client) { c.newID = fn }
}

// NewClient validates cfg and returns a client for it. Empty paths fall back
// to the defaults.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	def := DefaultConfig()
	if cfg.CheckUsernamePath == "" {
		cfg.CheckUsernamePath = def.CheckUsernamePath
	}
	if cfg.CheckEmailPath == "" {
		cfg.CheckEmailPath = def.CheckEmailPath
	}
	if cfg.CreateAccountPath == "" {
		cfg.CreateAccountPath = def.CreateAccountPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	base, err := ParseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    cfg,
		base:   base,
		http:   &http.Client{Timeout: cfg.Timeout},
		tracer: tracing.Noop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ParseBaseURL accepts absolute http(s) URLs without query or fragment.
func ParseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(raw), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: missing host", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("base url %q: must not carry a query or fragment", raw)
	}
	return u, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Resolve joins path onto the base URL.
func (c *Client) Resolve(path string) string {
	return Join(c.base, path)
}

// HTTPClient returns the underlying client so related flows share transport settings.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Join appends path to base, keeping any base path prefix.
func Join(base *url.URL, path string) string {
	u := *base
	u.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String()
}

// CheckUsername reports whether username is still free.
func (c *Client) CheckUsername(ctx context.Context, username string) (bool, error) {
	return c.checkUnique(ctx, tracing.SpanCheckUsername, c.cfg.CheckUsernamePath, registration.Username,
		map[string]string{"username": username})
}

// CheckEmail reports whether email is still free.
func (c *Client) CheckEmail(ctx context.Context, email string) (bool, error) {
	return c.checkUnique(ctx, tracing.SpanCheckEmail, c.cfg.CheckEmailPath, registration.Email,
		map[string]string{"email": email})
}

// CheckUnique dispatches to CheckUsername or CheckEmail.
func (c *Client) CheckUnique(ctx context.Context, f registration.Field, value string) (bool, error) {
	switch f {
	case registration.Username:
		return c.CheckUsername(ctx, value)
	case registration.Email:
		return c.CheckEmail(ctx, value)
	}
	return false, fmt.Errorf("field %q has no uniqueness check", f)
}

func (c *Client) checkUnique(ctx context.Context, spanName, path string, f registration.Field, body any) (unique bool, err error) {
	ctx, span := tracing.Start(ctx, c.tracer, spanName, attribute.String(tracing.AttrField, string(f)))
	defer func() {
		span.SetAttributes(attribute.Bool(tracing.AttrUnique, unique))
		tracing.End(span, err)
	}()

	data, err := c.post(ctx, span, path, body)
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(data, &unique); err != nil {
		return false, fmt.Errorf("%s: %w: %s", path, ErrUnexpectedResponse, snippet(data))
	}
	log.Debug(log.CatAPI, "Uniqueness checked", "field", string(f), "unique", unique)
	return unique, nil
}

// CreateAccount posts the normalized account.
func (c *Client) CreateAccount(ctx context.Context, req CreateAccountRequest) (resp CreateAccountResponse, err error) {
	ctx, span := tracing.Start(ctx, c.tracer, tracing.SpanCreateAccount)
	defer func() { tracing.End(span, err) }()

	data, err := c.post(ctx, span, c.cfg.CreateAccountPath, req)
	if err != nil {
		return CreateAccountResponse{}, err
	}

	if len(bytes.TrimSpace(data)) > 0 {
		// Non-object bodies leave resp empty.
		_ = json.Unmarshal(data, &resp)
	}
	log.Info(log.CatAPI, "Account created", "username", req.Username)
	return resp, nil
}

// post sends body as JSON and returns the 2xx response body.
func (c *Client) post(ctx context.Context, span trace.Span, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s body: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Resolve(path), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", path, err)
	}
	requestID := c.newID()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	span.SetAttributes(
		attribute.String(tracing.AttrHTTPPath, path),
		attribute.String(tracing.AttrRequestID, requestID),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		log.ErrorErr(log.CatAPI, "Request failed", err, "path", path, "request_id", requestID)
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int(tracing.AttrHTTPStatus, resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		apiErr := &Error{Status: resp.StatusCode, Message: eb.Message, Path: path}
		if apiErr.Message == "" {
			apiErr.Message = DefaultErrorMessage
		}
		log.Warn(log.CatAPI, "Backend rejected request", "path", path, "status", resp.StatusCode,
			"request_id", requestID, "message", apiErr.Message)
		return nil, apiErr
	}
	return data, nil
}

func snippet(b []byte) string {
	const limit = 64
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}
