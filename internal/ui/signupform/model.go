// Package signupform is the "Create your account" form: one text input per
// field, the terms checkbox and the Continue button.
//
// All form state lives in a registration.Draft. Keystrokes become Changed
// actions, debounce ticks become Settled actions, and uniqueness answers come
// back as UniqueResult actions. Network work runs in tea.Cmds; their replies
// are tagged so stale ones are dropped.
package signupform

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/signup/internal/api"
	"github.com/zjrosen/signup/internal/enroll"
	"github.com/zjrosen/signup/internal/keys"
	"github.com/zjrosen/signup/internal/log"
	"github.com/zjrosen/signup/internal/registration"
	"github.com/zjrosen/signup/internal/ui/styles"
)

// Submitter runs the submit flow for a valid draft.
type Submitter interface {
	Submit(ctx context.Context, acct registration.Account) (enroll.Result, error)
}

// Config wires the form to its collaborators.
type Config struct {
	// Checker answers uniqueness questions for username and email.
	Checker api.UniquenessChecker
	// Submitter runs create-account and sign-in.
	Submitter Submitter
	// Debounce is the quiet period before settled rules run.
	Debounce time.Duration
	// Context bounds every command the form starts. Defaults to Background.
	Context context.Context
}

// OpenTermsMsg asks the parent to show the terms overlay.
type OpenTermsMsg struct{}

// SubmittedMsg carries the outcome of the submit flow.
type SubmittedMsg struct {
	Result enroll.Result
	Err    error
}

// numTextFields is len(registration.TextFields()).
const numTextFields = 6

// Focus positions after the text inputs.
const (
	focusTerms    = numTextFields
	focusContinue = numTextFields + 1
	focusCount    = numTextFields + 2
)

// Zone IDs for mouse hit testing.
const (
	zoneTerms    = "signup-terms"
	zoneContinue = "signup-continue"
)

func fieldZone(f registration.Field) string {
	return "signup-field-" + string(f)
}

var placeholders = map[registration.Field]string{
	registration.Username:        "at least 5 characters, no spaces",
	registration.FirstName:       "Ada",
	registration.LastName:        "Lovelace",
	registration.Email:           "you@example.com",
	registration.Password:        "at least 10 characters",
	registration.ConfirmPassword: "type it again",
}

// Model is the form state.
type Model struct {
	ctx       context.Context
	checker   api.UniquenessChecker
	submitter Submitter
	debounce  time.Duration

	draft  registration.Draft
	fields []registration.Field
	inputs []textinput.Model
	// seq is the debounce sequence per text field.
	seq   [numTextFields]int
	focus int

	loading bool
	step    enroll.Step
	spinner spinner.Model

	keys  keys.FormKeyMap
	help  help.Model
	width int
}

// New creates the form with focus on the username input.
func New(cfg Config) Model {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	fields := registration.TextFields()
	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholders[f]
		ti.PlaceholderStyle = ti.PlaceholderStyle.Foreground(styles.TextPlaceholderColor)
		ti.Cursor.Style = ti.Cursor.Style.Foreground(styles.AccentColor)
		if f.Secret() {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		ti.Width = 36
		inputs[i] = ti
	}
	inputs[0].Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	return Model{
		ctx:       ctx,
		checker:   cfg.Checker,
		submitter: cfg.Submitter,
		debounce:  cfg.Debounce,
		draft:     registration.NewDraft(),
		fields:    fields,
		inputs:    inputs,
		spinner:   sp,
		keys:      keys.DefaultFormKeyMap(),
		help:      help.New(),
	}
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Draft returns the current form state.
func (m Model) Draft() registration.Draft {
	return m.draft
}

// Loading reports whether a submission is in flight.
func (m Model) Loading() bool {
	return m.loading
}

// Step returns the submit step in progress, or "" when idle.
func (m Model) Step() enroll.Step {
	return m.step
}

// Focused returns the field under focus, or "" when the terms box or the
// button has it.
func (m Model) Focused() registration.Field {
	if m.focus < numTextFields {
		return m.fields[m.focus]
	}
	if m.focus == focusTerms {
		return registration.AgreeToTerms
	}
	return ""
}

// Debounce returns the current debounce window.
func (m Model) Debounce() time.Duration {
	return m.debounce
}

// SetDebounce changes the debounce window for ticks scheduled from now on.
func (m Model) SetDebounce(d time.Duration) Model {
	m.debounce = d
	return m
}

// SetStep records the submit step reported by the orchestrator.
func (m Model) SetStep(s enroll.Step) Model {
	if m.loading {
		m.step = s
	}
	return m
}

// SetWidth fits the inputs to a screen width.
func (m Model) SetWidth(width int) Model {
	m.width = width
	w := max(min(m.panelWidth()-labelColumn()-6, 40), 10)
	for i := range m.inputs {
		m.inputs[i].Width = w
	}
	return m
}

// AgreeToTerms checks the terms box if it is not checked yet.
func (m Model) AgreeToTerms() Model {
	if !m.draft.AgreedToTerms() {
		m.draft = registration.Reduce(m.draft, registration.ToggleTerms{})
	}
	return m
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.SetWidth(msg.Width), nil

	case settleMsg:
		return m.settle(msg)

	case uniqueCheckedMsg:
		return m.applyUnique(msg), nil

	case SubmittedMsg:
		m.loading = false
		m.step = ""
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focus < numTextFields {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Save):
		return m.submit()
	case key.Matches(msg, m.keys.Next):
		return m.moveFocus(1), nil
	case key.Matches(msg, m.keys.Prev):
		return m.moveFocus(-1), nil
	}

	switch m.focus {
	case focusTerms:
		switch {
		case key.Matches(msg, m.keys.Toggle):
			m.draft = registration.Reduce(m.draft, registration.ToggleTerms{})
			return m, nil
		case key.Matches(msg, m.keys.Terms):
			return m, openTerms
		}
		return m, nil

	case focusContinue:
		switch {
		case key.Matches(msg, m.keys.Submit):
			return m.submit()
		case key.Matches(msg, m.keys.Terms):
			return m, openTerms
		}
		return m, nil
	}

	// Text input focus. Ctrl+T still opens the terms; "?" is typed.
	if msg.Type == tea.KeyCtrlT {
		return m, openTerms
	}
	if msg.Type == tea.KeyEnter {
		return m.moveFocus(1), nil
	}
	return m.typeInto(msg)
}

func openTerms() tea.Msg { return OpenTermsMsg{} }

// typeInto forwards a key to the focused input and turns a value change into
// a Changed action plus a debounce tick.
func (m Model) typeInto(msg tea.Msg) (Model, tea.Cmd) {
	i := m.focus
	before := m.inputs[i].Value()

	var cmd tea.Cmd
	m.inputs[i], cmd = m.inputs[i].Update(msg)

	after := m.inputs[i].Value()
	if after == before {
		return m, cmd
	}
	f := m.fields[i]
	m.draft = registration.Reduce(m.draft, registration.Changed{Field: f, Value: after})
	return m, tea.Batch(cmd, m.scheduleSettle(i))
}

func (m Model) moveFocus(delta int) Model {
	return m.focusAt((m.focus + delta + focusCount) % focusCount)
}

func (m Model) focusAt(pos int) Model {
	if m.focus < numTextFields {
		m.inputs[m.focus].Blur()
	}
	m.focus = pos
	if pos < numTextFields {
		m.inputs[pos].Focus()
	}
	return m
}

// submit runs the Submit action. A valid draft starts the submit flow; an
// invalid one moves focus to the first field with an error.
func (m Model) submit() (Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}

	before := m.draft.SubmitCount
	m.draft = registration.Reduce(m.draft, registration.Submit{})
	if m.draft.SubmitCount == before {
		log.Debug(log.CatForm, "Submit blocked by validation", "errors", len(m.draft.Errors()))
		for pos, f := range registration.Fields() {
			if m.draft.Field(f).HasErrors {
				return m.focusAt(pos), nil
			}
		}
		return m, nil
	}

	m.loading = true
	m.step = enroll.StepCreateAccount
	log.Info(log.CatForm, "Submitting registration", "username", m.draft.Payload().Username)
	return m, tea.Batch(m.spinner.Tick, m.submitCmd(m.draft.Payload()))
}

func (m Model) submitCmd(acct registration.Account) tea.Cmd {
	if m.submitter == nil {
		return nil
	}
	ctx, submitter := m.ctx, m.submitter
	return func() tea.Msg {
		res, err := submitter.Submit(ctx, acct)
		return SubmittedMsg{Result: res, Err: err}
	}
}

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	for i, f := range m.fields {
		if z := zone.Get(fieldZone(f)); z != nil && z.InBounds(msg) {
			return m.focusAt(i), nil
		}
	}
	if z := zone.Get(zoneTerms); z != nil && z.InBounds(msg) {
		m = m.focusAt(focusTerms)
		m.draft = registration.Reduce(m.draft, registration.ToggleTerms{})
		return m, nil
	}
	if z := zone.Get(zoneContinue); z != nil && z.InBounds(msg) {
		m = m.focusAt(focusContinue)
		return m.submit()
	}
	return m, nil
}
