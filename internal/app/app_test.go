package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/signup/internal/config"
	"github.com/zjrosen/signup/internal/enroll"
	"github.com/zjrosen/signup/internal/log"
	"github.com/zjrosen/signup/internal/pubsub"
	"github.com/zjrosen/signup/internal/registration"
	"github.com/zjrosen/signup/internal/session"
	"github.com/zjrosen/signup/internal/ui/signupform"
	"github.com/zjrosen/signup/internal/ui/terms"
	"github.com/zjrosen/signup/internal/ui/toaster"
	"github.com/zjrosen/signup/internal/watcher"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
	zone.NewGlobal()
}

const nextURL = "http://localhost:3000/register/select-plan"

type uniqueAll struct{}

func (uniqueAll) CheckUnique(context.Context, registration.Field, string) (bool, error) {
	return true, nil
}

type fakeSubmitter struct {
	mu  sync.Mutex
	got []registration.Account
	err error
}

func (f *fakeSubmitter) Submit(_ context.Context, acct registration.Account) (enroll.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, acct)
	if f.err != nil {
		return enroll.Result{}, f.err
	}
	return enroll.Result{
		Session: session.Session{Email: acct.Email},
		NextURL: nextURL,
	}, nil
}

type ttlSpy struct {
	ttls []time.Duration
}

func (s *ttlSpy) SetTTL(ttl time.Duration) {
	s.ttls = append(s.ttls, ttl)
}

func createTestModel(t *testing.T, cfg Config) Model {
	t.Helper()
	if cfg.Form.Checker == nil {
		cfg.Form.Checker = uniqueAll{}
	}
	if cfg.Form.Submitter == nil {
		cfg.Form.Submitter = &fakeSubmitter{}
	}
	if cfg.Form.Debounce == 0 {
		cfg.Form.Debounce = time.Millisecond
	}
	m := New(cfg)
	t.Cleanup(m.Close)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// fillForm types a valid registration, checks the terms box and leaves focus
// on the terms line.
func fillForm(t *testing.T, m Model) Model {
	t.Helper()
	values := []string{"ada_lovelace", "Ada", "Lovelace", "ada@example.com", "analytical-engine", "analytical-engine"}
	for _, v := range values {
		m, _ = update(t, m, keyRunes(v))
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
	m, _ = update(t, m, keyRunes(" "))
	require.True(t, m.form.Draft().AgreedToTerms())
	return m
}

func TestApp_WindowSizeMsg(t *testing.T) {
	m := createTestModel(t, Config{})

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 50})

	assert.Equal(t, 120, m.width)
	assert.Equal(t, 50, m.height)
}

func TestApp_ViewShowsForm(t *testing.T) {
	m := createTestModel(t, Config{})

	view := m.View()
	assert.Contains(t, view, signupform.Title)
	assert.Contains(t, view, "Username")
	assert.False(t, m.showTerms)
	assert.NotContains(t, view, "agree and close", "terms overlay help is not rendered")
}

func TestApp_CtrlCQuits(t *testing.T) {
	m := createTestModel(t, Config{})

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApp_TermsOverlayOpensAndCloses(t *testing.T) {
	m := createTestModel(t, Config{})

	m, _ = update(t, m, signupform.OpenTermsMsg{})
	require.True(t, m.showTerms)
	assert.Contains(t, m.View(), "agree and close")

	// Keys go to the overlay while it is open.
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	require.Equal(t, terms.CloseMsg{}, cmd())
	assert.Empty(t, m.form.Draft().Value(registration.Username))

	m, _ = update(t, m, terms.CloseMsg{})
	assert.False(t, m.showTerms)
	assert.False(t, m.form.Draft().AgreedToTerms())
}

func TestApp_TermsAgreeChecksBox(t *testing.T) {
	m := createTestModel(t, Config{})
	m, _ = update(t, m, signupform.OpenTermsMsg{})

	m, cmd := update(t, m, keyRunes("a"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.False(t, m.showTerms)
	assert.True(t, m.form.Draft().AgreedToTerms())
}

func TestApp_SubmitFailureShowsToast(t *testing.T) {
	m := createTestModel(t, Config{})

	err := &enroll.StepError{Step: enroll.StepSignIn, Err: errors.New("callback rejected")}
	m, cmd := update(t, m, signupform.SubmittedMsg{Err: err})

	assert.NotNil(t, cmd, "toast dismissal is scheduled")
	assert.False(t, m.Done())
	assert.True(t, m.toaster.Visible())
	assert.Equal(t, enroll.MsgSignInFailed, m.toaster.Message())
}

func TestApp_SubmitSuccessFinishes(t *testing.T) {
	m := createTestModel(t, Config{})

	res := enroll.Result{Session: session.Session{Email: "ada@example.com"}, NextURL: nextURL}
	m, cmd := update(t, m, signupform.SubmittedMsg{Result: res})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.Done())
	assert.Equal(t, res, m.Result())

	view := m.View()
	assert.Contains(t, view, "Account created")
	assert.Contains(t, view, "ada@example.com")
	assert.Contains(t, view, nextURL)
}

func TestApp_ProgressEventUpdatesStep(t *testing.T) {
	broker := pubsub.NewBroker[enroll.Progress]()
	t.Cleanup(broker.Close)
	m := createTestModel(t, Config{Progress: broker})
	m = fillForm(t, m)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	require.True(t, m.form.Loading())
	assert.Equal(t, enroll.StepCreateAccount, m.form.Step())

	m, cmd = update(t, m, pubsub.Event[enroll.Progress]{Type: pubsub.ProgressEvent, Payload: enroll.Progress{Step: enroll.StepSignIn}})
	assert.NotNil(t, cmd, "listener is re-armed")
	assert.Equal(t, enroll.StepSignIn, m.form.Step())
	assert.Contains(t, m.View(), enroll.StepSignIn.Label())
}

func TestApp_ConfigReloadApplies(t *testing.T) {
	changes := pubsub.NewBroker[watcher.Change]()
	t.Cleanup(changes.Close)
	spy := &ttlSpy{}
	reloaded := config.Defaults()
	reloaded.Form.Debounce = 900 * time.Millisecond
	reloaded.Form.UniquenessCacheTTL = time.Minute

	m := createTestModel(t, Config{
		ConfigChanges: changes,
		Cache:         spy,
		Reload:        func() (config.Config, error) { return reloaded, nil },
	})

	m, cmd := update(t, m, pubsub.Event[watcher.Change]{Type: pubsub.ReloadedEvent, Payload: watcher.Change{Path: "config.yaml"}})

	assert.NotNil(t, cmd)
	assert.Equal(t, 900*time.Millisecond, m.form.Debounce())
	assert.Equal(t, []time.Duration{time.Minute}, spy.ttls)
	assert.Equal(t, "Config reloaded", m.toaster.Message())
}

func TestApp_ConfigReloadFailureKeepsSettings(t *testing.T) {
	changes := pubsub.NewBroker[watcher.Change]()
	t.Cleanup(changes.Close)
	spy := &ttlSpy{}

	m := createTestModel(t, Config{
		ConfigChanges: changes,
		Cache:         spy,
		Reload:        func() (config.Config, error) { return config.Config{}, errors.New("form.debounce: must be positive") },
	})

	m, _ = update(t, m, pubsub.Event[watcher.Change]{Type: pubsub.ReloadedEvent})

	assert.Equal(t, time.Millisecond, m.form.Debounce())
	assert.Empty(t, spy.ttls)
	assert.True(t, m.toaster.Visible())
	assert.Contains(t, m.toaster.Message(), "must be positive")
}

func TestApp_ToastDismiss(t *testing.T) {
	m := createTestModel(t, Config{})
	m, _ = update(t, m, signupform.SubmittedMsg{Err: errors.New("boom")})
	require.True(t, m.toaster.Visible())

	m, _ = update(t, m, toaster.DismissMsg{Seq: 1})
	assert.False(t, m.toaster.Visible())
}

func TestApp_FullRegistration(t *testing.T) {
	submitter := &fakeSubmitter{}
	m := New(Config{Form: signupform.Config{Checker: uniqueAll{}, Submitter: submitter, Debounce: time.Millisecond}})
	t.Cleanup(m.Close)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 40))
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return strings.Contains(string(b), signupform.Title)
	}, teatest.WithDuration(3*time.Second))

	for _, v := range []string{"ada_lovelace", "Ada", "Lovelace", "ada@example.com", "analytical-engine", "analytical-engine"} {
		tm.Type(v)
		tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	}
	tm.Type(" ")
	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlS})

	final := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second)).(Model)
	require.True(t, final.Done())
	assert.Equal(t, nextURL, final.Result().NextURL)

	submitter.mu.Lock()
	defer submitter.mu.Unlock()
	require.Len(t, submitter.got, 1)
	assert.Equal(t, "ada_lovelace", submitter.got[0].Username)

	out, err := io.ReadAll(tm.FinalOutput(t))
	require.NoError(t, err)
	assert.Contains(t, string(out), nextURL)
}

func TestApp_DebugLineShowsLatestWarning(t *testing.T) {
	m := createTestModel(t, Config{Debug: true})

	m, _ = update(t, m, log.LogEvent{Type: pubsub.LoggedEvent, Payload: log.Entry{Level: log.LevelWarn, Line: "WARN [api] Uniqueness check failed"}})
	m, _ = update(t, m, log.LogEvent{Type: pubsub.LoggedEvent, Payload: log.Entry{Level: log.LevelInfo, Line: "INFO [form] Settled"}})

	view := m.View()
	assert.Contains(t, view, "Uniqueness check failed")
	assert.NotContains(t, view, "Settled")
}
