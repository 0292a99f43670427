// Package config provides configuration types and defaults for signup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/zjrosen/signup/internal/api"
	"github.com/zjrosen/signup/internal/log"
	"github.com/zjrosen/signup/internal/session"
	"github.com/zjrosen/signup/internal/tracing"
)

// Config holds all configuration options for signup.
type Config struct {
	API            api.Config           `mapstructure:"api"`
	Auth           session.Config       `mapstructure:"auth"`
	Form           FormConfig           `mapstructure:"form"`
	SessionStorage SessionStorageConfig `mapstructure:"session_storage"`
	Tracing        tracing.Config       `mapstructure:"tracing"`
	Theme          ThemeConfig          `mapstructure:"theme"`
}

// FormConfig holds form timing options.
type FormConfig struct {
	// Debounce is how long a field must stay unchanged before its settled
	// rules and uniqueness check run.
	Debounce time.Duration `mapstructure:"debounce"`

	// UniquenessCacheTTL is how long a uniqueness answer is reused. 0 disables the cache.
	UniquenessCacheTTL time.Duration `mapstructure:"uniqueness_cache_ttl"`
}

// SessionStorageConfig holds local session persistence options.
type SessionStorageConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Path is the SQLite file. Default: ~/.config/signup/sessions.db
	Path string `mapstructure:"path"`
}

// ThemeConfig holds the accent colors of the form.
type ThemeConfig struct {
	Highlight string `mapstructure:"highlight"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

// Limits of the form timing options.
const (
	DefaultDebounce           = 800 * time.Millisecond
	DefaultUniquenessCacheTTL = 30 * time.Second
	MaxDebounce               = 10 * time.Second
)

// EnvPrefix prefixes environment overrides, e.g. SIGNUP_API_BASE_URL.
const EnvPrefix = "SIGNUP"

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Dir returns ~/.config/signup or an empty string when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "signup")
}

// DefaultTracesFilePath returns ~/.config/signup/traces/traces.jsonl.
func DefaultTracesFilePath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// DefaultSessionsPath returns ~/.config/signup/sessions.db.
func DefaultSessionsPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "sessions.db")
}

// SessionsPath returns the configured session database path or the default.
func (c Config) SessionsPath() string {
	if c.SessionStorage.Path != "" {
		return expandHome(c.SessionStorage.Path)
	}
	return DefaultSessionsPath()
}

// TracingConfig returns the tracing options with defaults applied.
func (c Config) TracingConfig() tracing.Config {
	t := c.Tracing
	if t.FilePath == "" {
		t.FilePath = DefaultTracesFilePath()
	}
	t.FilePath = expandHome(t.FilePath)
	if t.ServiceName == "" {
		t.ServiceName = tracing.DefaultServiceName
	}
	return t
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tr := tracing.DefaultConfig()
	tr.FilePath = "" // Derived from the config dir at runtime
	return Config{
		API:  api.DefaultConfig(),
		Auth: session.DefaultConfig(),
		Form: FormConfig{
			Debounce:           DefaultDebounce,
			UniquenessCacheTTL: DefaultUniquenessCacheTTL,
		},
		SessionStorage: SessionStorageConfig{
			Enabled: true,
		},
		Tracing: tr,
		Theme: ThemeConfig{
			Highlight: "#54A0FF",
			Error:     "#FF8787",
			Success:   "#73F59F",
		},
	}
}

// Validate checks every section and returns the first problem found.
func Validate(cfg Config) error {
	if err := ValidateAPI(cfg.API); err != nil {
		return err
	}
	if err := ValidateAuth(cfg.Auth); err != nil {
		return err
	}
	if err := ValidateForm(cfg.Form); err != nil {
		return err
	}
	if err := ValidateSessionStorage(cfg.SessionStorage); err != nil {
		return err
	}
	if err := ValidateTracing(cfg.Tracing); err != nil {
		return err
	}
	return ValidateTheme(cfg.Theme)
}

// ValidateAPI checks the backend URL, timeout and endpoint paths.
func ValidateAPI(a api.Config) error {
	if _, err := api.ParseBaseURL(a.BaseURL); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if a.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative, got %s", a.Timeout)
	}
	for key, path := range map[string]string{
		"api.check_username_path": a.CheckUsernamePath,
		"api.check_email_path":    a.CheckEmailPath,
		"api.create_account_path": a.CreateAccountPath,
	} {
		if err := validatePath(key, path); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAuth checks the sign-in routes.
func ValidateAuth(a session.Config) error {
	for key, path := range map[string]string{
		"auth.csrf_path":   a.CSRFPath,
		"auth.signin_path": a.SignInPath,
		"auth.next_route":  a.NextRoute,
	} {
		if err := validatePath(key, path); err != nil {
			return err
		}
	}
	return nil
}

func validatePath(key, path string) error {
	if path != "" && !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%s must start with \"/\", got %q", key, path)
	}
	return nil
}

// ValidateForm checks the debounce window and cache TTL.
func ValidateForm(f FormConfig) error {
	if f.Debounce < 0 || f.Debounce > MaxDebounce {
		return fmt.Errorf("form.debounce must be between 0s and %s, got %s", MaxDebounce, f.Debounce)
	}
	if f.UniquenessCacheTTL < 0 {
		return fmt.Errorf("form.uniqueness_cache_ttl must not be negative, got %s", f.UniquenessCacheTTL)
	}
	return nil
}

// ValidateSessionStorage checks the session database path.
func ValidateSessionStorage(s SessionStorageConfig) error {
	p := expandHome(s.Path)
	if p != "" && !filepath.IsAbs(p) {
		return fmt.Errorf("session_storage.path must be an absolute path, got %q", s.Path)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	switch t.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}

	if t.Enabled && t.Exporter == "otlp" && t.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// ValidateTheme checks that colors are hex values.
func ValidateTheme(t ThemeConfig) error {
	for key, color := range map[string]string{
		"theme.highlight": t.Highlight,
		"theme.error":     t.Error,
		"theme.success":   t.Success,
	} {
		if color != "" && !hexColor.MatchString(color) {
			return fmt.Errorf("%s must be a hex color like \"#54A0FF\", got %q", key, color)
		}
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# signup configuration

# Registration backend
api:
  base_url: http://localhost:3000
  timeout: 10s
  # check_username_path: /api/auth/checkUsername
  # check_email_path: /api/auth/checkEmail
  # create_account_path: /api/auth/createAccount

# Credentials sign-in after the account is created
auth:
  csrf_path: /api/auth/csrf
  signin_path: /api/auth/callback/credentials
  next_route: /register/select-plan   # Where step 2 of registration lives

form:
  debounce: 800ms              # Wait after the last keystroke before checking a field
  uniqueness_cache_ttl: 30s    # Reuse username/email answers; 0s disables the cache

# Remember signed-in sessions so later registration steps can pick them up
session_storage:
  enabled: true
  # path: ~/.config/signup/sessions.db

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/signup/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)

theme:
  highlight: "#54A0FF"
  error: "#FF8787"
  success: "#73F59F"
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
