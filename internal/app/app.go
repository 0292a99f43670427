// Package app contains the root application model.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/signup/internal/config"
	"github.com/zjrosen/signup/internal/enroll"
	"github.com/zjrosen/signup/internal/keys"
	"github.com/zjrosen/signup/internal/log"
	"github.com/zjrosen/signup/internal/pubsub"
	"github.com/zjrosen/signup/internal/ui/signupform"
	"github.com/zjrosen/signup/internal/ui/styles"
	"github.com/zjrosen/signup/internal/ui/terms"
	"github.com/zjrosen/signup/internal/ui/toaster"
	"github.com/zjrosen/signup/internal/watcher"
)

// TTLSetter takes a reloaded uniqueness cache TTL.
type TTLSetter interface {
	SetTTL(ttl time.Duration)
}

// Config wires the application.
type Config struct {
	Form signupform.Config

	// Progress reports submit steps. Optional.
	Progress *pubsub.Broker[enroll.Progress]
	// ConfigChanges announces edits of the config file. Optional.
	ConfigChanges *pubsub.Broker[watcher.Change]
	// Reload re-reads the config after a change.
	Reload func() (config.Config, error)
	// Cache receives the reloaded cache TTL. Optional.
	Cache TTLSetter

	// Debug shows the latest warning or error line under the form.
	Debug bool
}

// Model is the root application state.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	form      signupform.Model
	terms     terms.Model
	showTerms bool
	toaster   toaster.Model
	keys      keys.FormKeyMap

	width  int
	height int

	done   bool
	result enroll.Result

	reload           func() (config.Config, error)
	cache            TTLSetter
	progressListener *pubsub.ContinuousListener[enroll.Progress]
	configListener   *pubsub.ContinuousListener[watcher.Change]

	debugMode   bool
	logListener *log.LogListener
	lastLog     string
}

// New creates the application model. Close must be called after the program
// exits.
func New(cfg Config) Model {
	parent := cfg.Form.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	cfg.Form.Context = ctx

	m := Model{
		ctx:       ctx,
		cancel:    cancel,
		form:      signupform.New(cfg.Form),
		terms:     terms.New(),
		toaster:   toaster.New(),
		keys:      keys.DefaultFormKeyMap(),
		reload:    cfg.Reload,
		cache:     cfg.Cache,
		debugMode: cfg.Debug,
	}
	if cfg.Progress != nil {
		m.progressListener = pubsub.NewContinuousListener(ctx, cfg.Progress)
	}
	if cfg.ConfigChanges != nil {
		m.configListener = pubsub.NewContinuousListener(ctx, cfg.ConfigChanges)
	}
	if cfg.Debug {
		m.logListener = log.NewListener(ctx)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.form.Init()}
	if m.progressListener != nil {
		cmds = append(cmds, m.progressListener.Listen())
	}
	if m.configListener != nil {
		cmds = append(cmds, m.configListener.Listen())
	}
	if m.logListener != nil {
		cmds = append(cmds, m.logListener.Listen())
	}
	return tea.Batch(cmds...)
}

// Done reports whether registration finished.
func (m Model) Done() bool {
	return m.done
}

// Result returns the submit result once Done is true.
func (m Model) Result() enroll.Result {
	return m.result
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.form = m.form.SetWidth(msg.Width)
		m.terms = m.terms.SetSize(msg.Width, msg.Height)
		m.toaster = m.toaster.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			log.Info(log.CatUI, "Quit before finishing registration")
			m.cancel()
			return m, tea.Quit
		}
		if m.showTerms {
			var cmd tea.Cmd
			m.terms, cmd = m.terms.Update(msg)
			return m, cmd
		}

	case tea.MouseMsg:
		if m.showTerms {
			var cmd tea.Cmd
			m.terms, cmd = m.terms.Update(msg)
			return m, cmd
		}

	case signupform.OpenTermsMsg:
		m.showTerms = true
		m.terms = m.terms.SetSize(m.width, m.height)
		return m, nil

	case terms.CloseMsg:
		m.showTerms = false
		return m, nil

	case terms.AgreeMsg:
		m.showTerms = false
		m.form = m.form.AgreeToTerms()
		return m, nil

	case signupform.SubmittedMsg:
		m.form, _ = m.form.Update(msg)
		if msg.Err != nil {
			var cmd tea.Cmd
			m.toaster, cmd = m.toaster.ShowCmd(enroll.UserMessage(msg.Err), toaster.StyleError)
			return m, cmd
		}
		m.done = true
		m.result = msg.Result
		m.cancel()
		return m, tea.Quit

	case pubsub.Event[enroll.Progress]:
		m.form = m.form.SetStep(msg.Payload.Step)
		return m, m.progressListener.Listen()

	case pubsub.Event[watcher.Change]:
		var cmd tea.Cmd
		m, cmd = m.applyReload()
		return m, tea.Batch(cmd, m.configListener.Listen())

	case log.LogEvent:
		if msg.Payload.Level >= log.LevelWarn {
			m.lastLog = msg.Payload.Line
		}
		return m, m.logListener.Listen()

	case toaster.DismissMsg:
		m.toaster = m.toaster.Update(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

// applyReload re-reads the config and applies the settings that can change
// while the form is open: debounce window, cache TTL and theme.
func (m Model) applyReload() (Model, tea.Cmd) {
	if m.reload == nil {
		return m, nil
	}
	cfg, err := m.reload()
	if err != nil {
		log.ErrorErr(log.CatConfig, "Config reload failed", err)
		var cmd tea.Cmd
		m.toaster, cmd = m.toaster.ShowCmd("Config not reloaded: "+err.Error(), toaster.StyleWarn)
		return m, cmd
	}

	m.form = m.form.SetDebounce(cfg.Form.Debounce)
	if m.cache != nil {
		m.cache.SetTTL(cfg.Form.UniquenessCacheTTL)
	}
	styles.ApplyTheme(cfg.Theme.Highlight, cfg.Theme.Error, cfg.Theme.Success)
	log.Info(log.CatConfig, "Config reloaded", "debounce", cfg.Form.Debounce.String(), "cache_ttl", cfg.Form.UniquenessCacheTTL.String())

	var cmd tea.Cmd
	m.toaster, cmd = m.toaster.ShowCmd("Config reloaded", toaster.StyleInfo)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.done {
		return m.doneView()
	}

	view := m.form.View()
	if m.debugMode && m.lastLog != "" {
		view += "\n" + styles.ErrorTextStyle.Render(styles.TruncateString(m.lastLog, max(m.width, 20)))
	}

	if m.height > 0 {
		view = lipgloss.NewStyle().Height(m.height).Render(view)
	}
	if m.showTerms {
		view = m.terms.Overlay(view, m.width, m.height)
	}
	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}
	return zone.Scan(view)
}

func (m Model) doneView() string {
	var b strings.Builder
	b.WriteString(styles.SuccessTextStyle.Render("✓ Account created"))
	if email := m.result.Session.Email; email != "" {
		b.WriteString(styles.HintStyle.Render(fmt.Sprintf(" and signed in as %s", email)))
	}
	b.WriteString("\n")
	b.WriteString(styles.HintStyle.Render("Next: choose a plan at " + m.result.NextURL))
	b.WriteString("\n")
	return b.String()
}

// Close releases listeners held by the application.
func (m *Model) Close() {
	m.cancel()
}
