package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/signup/internal/app"
	"github.com/zjrosen/signup/internal/config"
	"github.com/zjrosen/signup/internal/log"
	"github.com/zjrosen/signup/internal/ui/signupform"
	"github.com/zjrosen/signup/internal/ui/styles"
	"github.com/zjrosen/signup/internal/watcher"
)

func init() {
	// Query the background colour before Bubble Tea owns stdin so the OSC 11
	// reply cannot land in a text input.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

// localConfigPath is where a default config is written when none is found.
const localConfigPath = ".signup/config.yaml"

// envKeyReplacer maps form.debounce to SIGNUP_FORM_DEBOUNCE.
var envKeyReplacer = strings.NewReplacer(".", "_")

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account from the terminal",
	Long: `An account registration form for the terminal.

Fill in the form, agree to the terms and press Continue. The account is
created, signed in, and you are pointed at the plan selection page.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/signup/config.yaml)")
	rootCmd.PersistentFlags().StringP("base-url", "u", "",
		"registration backend base URL")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log and show warnings under the form")

	_ = viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("base-url"))
}

// setDefaults registers every default with v so env overrides work for keys
// the config file leaves out.
func setDefaults(v *viper.Viper) {
	d := config.Defaults()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.check_username_path", d.API.CheckUsernamePath)
	v.SetDefault("api.check_email_path", d.API.CheckEmailPath)
	v.SetDefault("api.create_account_path", d.API.CreateAccountPath)
	v.SetDefault("auth.csrf_path", d.Auth.CSRFPath)
	v.SetDefault("auth.signin_path", d.Auth.SignInPath)
	v.SetDefault("auth.next_route", d.Auth.NextRoute)
	v.SetDefault("form.debounce", d.Form.Debounce)
	v.SetDefault("form.uniqueness_cache_ttl", d.Form.UniquenessCacheTTL)
	v.SetDefault("session_storage.enabled", d.SessionStorage.Enabled)
	v.SetDefault("session_storage.path", d.SessionStorage.Path)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("theme.highlight", d.Theme.Highlight)
	v.SetDefault("theme.error", d.Theme.Error)
	v.SetDefault("theme.success", d.Theme.Success)
}

func initConfig() {
	setDefaults(viper.GetViper())
	viper.SetEnvPrefix("SIGNUP")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .signup/config.yaml (current directory)
		// 2. ~/.config/signup/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			if dir := config.Dir(); dir != "" {
				viper.AddConfigPath(dir)
			}
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if writeErr := config.WriteDefaultConfig(localConfigPath); writeErr == nil {
				viper.SetConfigFile(localConfigPath)
				_ = viper.ReadInConfig()
			}
			// If the write fails, carry on with defaults.
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// configPath returns the file the running config came from, or the local
// default when none was loaded.
func configPath() string {
	if p := viper.ConfigFileUsed(); p != "" {
		return p
	}
	return localConfigPath
}

// reloadConfig re-reads the config file and validates it.
func reloadConfig() (config.Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		return config.Config{}, fmt.Errorf("reading %s: %w", configPath(), err)
	}
	var next config.Config
	if err := viper.Unmarshal(&next); err != nil {
		return config.Config{}, fmt.Errorf("decoding %s: %w", configPath(), err)
	}
	if err := config.Validate(next); err != nil {
		return config.Config{}, err
	}
	cfg = next
	return next, nil
}

// setupLogging turns on the debug log when --debug or SIGNUP_DEBUG is set.
// The returned cleanup is never nil.
func setupLogging(prefix string) (func(), error) {
	if os.Getenv("SIGNUP_DEBUG") == "" && !debugFlag {
		return func() {}, nil
	}
	logPath := os.Getenv("SIGNUP_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.InitWithTeaLog(logPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, "signup starting", "version", version, "config", configPath(), "logPath", logPath)
	return cleanup, nil
}

func runApp(cmd *cobra.Command, _ []string) error {
	cleanupLog, err := setupLogging("signup")
	if err != nil {
		return err
	}
	defer cleanupLog()

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	styles.ApplyTheme(cfg.Theme.Highlight, cfg.Theme.Error, cfg.Theme.Success)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	svc, err := newServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	appCfg := app.Config{
		Form: signupform.Config{
			Checker:   svc.checker,
			Submitter: svc.orchestrator,
			Debounce:  cfg.Form.Debounce,
			Context:   ctx,
		},
		Progress: svc.orchestrator.Broker(),
		Reload:   reloadConfig,
		Cache:    svc.checker,
		Debug:    debugFlag || os.Getenv("SIGNUP_DEBUG") != "",
	}

	if path := viper.ConfigFileUsed(); path != "" {
		w, err := watcher.New(watcher.DefaultConfig(filepath.Clean(path)))
		if err != nil {
			log.ErrorErr(log.CatConfig, "Config watcher unavailable", err, "path", path)
		} else {
			if err := w.Start(); err != nil {
				log.ErrorErr(log.CatConfig, "Config watcher failed to start", err, "path", path)
			} else {
				appCfg.ConfigChanges = w.Broker()
			}
			defer w.Stop()
		}
	}

	zone.NewGlobal()
	model := app.New(appCfg)
	defer model.Close()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running program: %w", err)
	}

	if m, ok := final.(app.Model); ok && m.Done() {
		res := m.Result()
		fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s.\nContinue at %s\n", res.Session.Email, res.NextURL)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
