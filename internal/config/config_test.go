package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, "http://localhost:3000", cfg.API.BaseURL)
	require.Equal(t, 10*time.Second, cfg.API.Timeout)
	require.Equal(t, "/api/auth/checkUsername", cfg.API.CheckUsernamePath)
	require.Equal(t, "/api/auth/checkEmail", cfg.API.CheckEmailPath)
	require.Equal(t, "/api/auth/createAccount", cfg.API.CreateAccountPath)
	require.Equal(t, "/api/auth/csrf", cfg.Auth.CSRFPath)
	require.Equal(t, "/api/auth/callback/credentials", cfg.Auth.SignInPath)
	require.Equal(t, "/register/select-plan", cfg.Auth.NextRoute)
	require.Equal(t, 800*time.Millisecond, cfg.Form.Debounce)
	require.Equal(t, 30*time.Second, cfg.Form.UniquenessCacheTTL)
	require.True(t, cfg.SessionStorage.Enabled)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, "file", cfg.Tracing.Exporter)
	require.NoError(t, Validate(cfg))
}

func TestValidate_Errors(t *testing.T) {
	for name, tc := range map[string]struct {
		mutate func(*Config)
		want   string
	}{
		"base url scheme":   {func(c *Config) { c.API.BaseURL = "localhost:3000" }, "api.base_url"},
		"negative timeout":  {func(c *Config) { c.API.Timeout = -time.Second }, "api.timeout"},
		"relative api path": {func(c *Config) { c.API.CheckEmailPath = "api/auth/checkEmail" }, "api.check_email_path"},
		"relative route":    {func(c *Config) { c.Auth.NextRoute = "register" }, "auth.next_route"},
		"negative debounce": {func(c *Config) { c.Form.Debounce = -time.Millisecond }, "form.debounce"},
		"huge debounce":     {func(c *Config) { c.Form.Debounce = time.Minute }, "form.debounce"},
		"negative ttl":      {func(c *Config) { c.Form.UniquenessCacheTTL = -time.Second }, "form.uniqueness_cache_ttl"},
		"relative db path":  {func(c *Config) { c.SessionStorage.Path = "sessions.db" }, "session_storage.path"},
		"sample rate":       {func(c *Config) { c.Tracing.SampleRate = 1.5 }, "tracing.sample_rate"},
		"exporter":          {func(c *Config) { c.Tracing.Exporter = "zipkin" }, "tracing.exporter"},
		"otlp endpoint": {func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "otlp"
			c.Tracing.OTLPEndpoint = ""
		}, "tracing.otlp_endpoint"},
		"theme color": {func(c *Config) { c.Theme.Error = "red" }, "theme.error"},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_AllowsZeroCacheTTL(t *testing.T) {
	cfg := Defaults()
	cfg.Form.UniquenessCacheTTL = 0
	require.NoError(t, Validate(cfg))
}

func TestValidateSessionStorage_HomeRelative(t *testing.T) {
	require.NoError(t, ValidateSessionStorage(SessionStorageConfig{Path: "~/signup/sessions.db"}))
}

func TestSessionsPath(t *testing.T) {
	cfg := Defaults()
	require.Equal(t, DefaultSessionsPath(), cfg.SessionsPath())

	cfg.SessionStorage.Path = "/tmp/s.db"
	require.Equal(t, "/tmp/s.db", cfg.SessionsPath())
}

func TestTracingConfig_FillsFilePath(t *testing.T) {
	cfg := Defaults()
	tc := cfg.TracingConfig()
	require.Equal(t, DefaultTracesFilePath(), tc.FilePath)
	require.Equal(t, "signup", tc.ServiceName)
}

// TestDefaultConfigTemplate_MatchesDefaults loads the template through viper
// and checks it decodes to Defaults().
func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(DefaultConfigTemplate())))

	cfg := Defaults()
	require.NoError(t, v.Unmarshal(&cfg))
	require.Equal(t, Defaults(), cfg)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".signup", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}
