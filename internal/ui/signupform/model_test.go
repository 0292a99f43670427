package signupform

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/signup/internal/enroll"
	"github.com/zjrosen/signup/internal/registration"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
	zone.NewGlobal()
}

type stubChecker struct {
	taken map[string]bool
	err   error
	calls []string
}

func (s *stubChecker) CheckUnique(_ context.Context, f registration.Field, value string) (bool, error) {
	s.calls = append(s.calls, string(f)+":"+value)
	if s.err != nil {
		return false, s.err
	}
	return !s.taken[value], nil
}

type stubSubmitter struct {
	got    []registration.Account
	result enroll.Result
	err    error
}

func (s *stubSubmitter) Submit(_ context.Context, acct registration.Account) (enroll.Result, error) {
	s.got = append(s.got, acct)
	return s.result, s.err
}

func newForm(t *testing.T) (Model, *stubChecker, *stubSubmitter) {
	t.Helper()
	checker := &stubChecker{taken: map[string]bool{"charles_babbage": true, "charles@example.com": true}}
	submitter := &stubSubmitter{result: enroll.Result{NextURL: "http://localhost:3000/register/select-plan"}}
	m := New(Config{Checker: checker, Submitter: submitter, Debounce: time.Millisecond})
	return m.SetWidth(80), checker, submitter
}

func typeText(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func fill(m Model, f registration.Field, value string) Model {
	m = m.focusAt(m.indexOf(f))
	return typeText(m, value)
}

// settleNow delivers the latest debounce tick for f and, when it starts a
// uniqueness request, runs it and delivers the reply.
func settleNow(t *testing.T, m Model, f registration.Field) Model {
	t.Helper()
	m, cmd := m.Update(settleMsg{field: f, seq: m.seq[m.indexOf(f)]})
	if cmd != nil {
		m, _ = m.Update(cmd())
	}
	return m
}

func fillValid(t *testing.T, m Model) Model {
	t.Helper()
	m = fill(m, registration.Username, "ada_lovelace")
	m = fill(m, registration.FirstName, "Ada")
	m = fill(m, registration.LastName, "Lovelace")
	m = fill(m, registration.Email, "ada@example.com")
	m = fill(m, registration.Password, "analytical-engine")
	m = fill(m, registration.ConfirmPassword, "analytical-engine")
	return m
}

func TestNumTextFields(t *testing.T) {
	require.Len(t, registration.TextFields(), numTextFields)
}

func TestNew_FocusesUsername(t *testing.T) {
	m, _, _ := newForm(t)
	require.Equal(t, registration.Username, m.Focused())
	require.True(t, m.inputs[0].Focused())
	require.False(t, m.Loading())
}

func TestTyping_RunsImmediateRules(t *testing.T) {
	m, _, _ := newForm(t)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(strings.Repeat("a", 51))})
	require.NotNil(t, cmd)
	require.Equal(t, registration.MsgUsernameTooLong, m.Draft().Field(registration.Username).Message)
	require.Equal(t, 1, m.seq[0])
}

func TestTyping_QuestionMarkIsText(t *testing.T) {
	m, _, _ := newForm(t)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	require.Equal(t, "?", m.Draft().Value(registration.Username))
	require.Equal(t, registration.Username, m.Focused())
}

func TestScheduleSettle_NoTickForEmptyValue(t *testing.T) {
	m, _, _ := newForm(t)
	m = typeText(m, "a")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	require.Empty(t, m.Draft().Value(registration.Username))
	require.Equal(t, registration.MsgUsernameRequired, m.Draft().Field(registration.Username).Message)

	cmd := m.scheduleSettle(0)
	require.Nil(t, cmd)
}

func TestScheduleSettle_NoTickForUndebouncedField(t *testing.T) {
	m, _, _ := newForm(t)
	m = fill(m, registration.FirstName, "Ada")
	require.Nil(t, m.scheduleSettle(m.indexOf(registration.FirstName)))
}

func TestSettle_StaleTickDropped(t *testing.T) {
	m, checker, _ := newForm(t)
	m = typeText(m, "ada")
	stale := m.seq[0]
	m = typeText(m, "_lovelace")

	m, cmd := m.Update(settleMsg{field: registration.Username, seq: stale})
	require.Nil(t, cmd)
	require.Zero(t, m.Draft().Field(registration.Username).CheckCount)
	require.Empty(t, checker.calls)
}

func TestSettle_UniqueUsername(t *testing.T) {
	m, checker, _ := newForm(t)
	m = typeText(m, "ada_lovelace")

	m = settleNow(t, m, registration.Username)

	fs := m.Draft().Field(registration.Username)
	require.Equal(t, 1, fs.CheckCount)
	require.True(t, fs.IsUnique)
	require.Equal(t, []string{"username:ada_lovelace"}, checker.calls)
	require.Contains(t, m.View(), "✓")
}

func TestSettle_TakenUsernameShowsError(t *testing.T) {
	m, _, _ := newForm(t)
	m = typeText(m, "charles_babbage")

	m = settleNow(t, m, registration.Username)

	require.Equal(t, registration.MsgUsernameTaken, m.Draft().Field(registration.Username).Message)
	require.Contains(t, m.View(), registration.MsgUsernameTaken)
}

func TestSettle_InvalidMakesNoRequest(t *testing.T) {
	m, checker, _ := newForm(t)
	m = typeText(m, "ada lovelace")

	m = settleNow(t, m, registration.Username)

	require.Equal(t, registration.MsgUsernameSpaces, m.Draft().Field(registration.Username).Message)
	require.Empty(t, checker.calls)
}

func TestSettle_TakenEmail(t *testing.T) {
	m, _, _ := newForm(t)
	m = fill(m, registration.Email, "charles@example.com")

	m = settleNow(t, m, registration.Email)

	require.Equal(t, registration.MsgEmailTaken, m.Draft().Field(registration.Email).Message)
}

func TestApplyUnique_OlderReplyDropped(t *testing.T) {
	m, _, _ := newForm(t)
	m = typeText(m, "ada_lovelace")

	m, first := m.Update(settleMsg{field: registration.Username, seq: m.seq[0]})
	m, second := m.Update(settleMsg{field: registration.Username, seq: m.seq[0]})
	require.NotNil(t, first)
	require.NotNil(t, second)
	require.Equal(t, 2, m.Draft().Field(registration.Username).CheckCount)

	older := first().(uniqueCheckedMsg)
	older.unique = false
	m, _ = m.Update(older)
	require.False(t, m.Draft().Field(registration.Username).HasErrors)

	m, _ = m.Update(second())
	require.True(t, m.Draft().Field(registration.Username).IsUnique)
}

func TestApplyUnique_CheckerErrorLeavesField(t *testing.T) {
	m, checker, _ := newForm(t)
	checker.err = errors.New("connection refused")
	m = typeText(m, "ada_lovelace")

	m = settleNow(t, m, registration.Username)

	fs := m.Draft().Field(registration.Username)
	require.False(t, fs.HasErrors)
	require.False(t, fs.Checked)
}

func TestSettle_NoRequestWhileLoading(t *testing.T) {
	m, checker, _ := newForm(t)
	m = typeText(m, "ada_lovelace")
	m.loading = true

	m = settleNow(t, m, registration.Username)

	require.Zero(t, m.Draft().Field(registration.Username).CheckCount)
	require.Empty(t, checker.calls)
}

func TestFocus_CyclesThroughTermsAndContinue(t *testing.T) {
	m, _, _ := newForm(t)
	for i := 0; i < numTextFields; i++ {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	require.Equal(t, registration.AgreeToTerms, m.Focused())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, focusContinue, m.focus)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, registration.Username, m.Focused(), "focus wraps")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, focusContinue, m.focus)
}

func TestEnter_AdvancesFromInput(t *testing.T) {
	m, _, _ := newForm(t)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, registration.FirstName, m.Focused())
}

func TestTerms_ToggleAndOpen(t *testing.T) {
	m, _, _ := newForm(t)
	m = m.focusAt(focusTerms)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	require.True(t, m.Draft().AgreedToTerms())
	require.Contains(t, m.View(), "[x] I agree")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, m.Draft().AgreedToTerms())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	require.NotNil(t, cmd)
	require.IsType(t, OpenTermsMsg{}, cmd())
}

func TestCtrlT_OpensTermsFromInput(t *testing.T) {
	m, _, _ := newForm(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	require.NotNil(t, cmd)
	require.IsType(t, OpenTermsMsg{}, cmd())
}

func TestSubmit_InvalidFocusesFirstError(t *testing.T) {
	m, _, submitter := newForm(t)
	m = fill(m, registration.Username, "ada_lovelace")
	m = m.focusAt(focusContinue)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.Nil(t, cmd)
	require.False(t, m.Loading())
	require.Equal(t, registration.FirstName, m.Focused())
	require.Empty(t, submitter.got)
	require.Contains(t, m.View(), registration.MsgFirstNameRequired)
}

func TestSubmit_WithoutTerms(t *testing.T) {
	m, _, _ := newForm(t)
	m = fillValid(t, m)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

	require.False(t, m.Loading())
	require.Equal(t, registration.AgreeToTerms, m.Focused())
	require.Contains(t, m.View(), registration.MsgTermsRequired)
}

func TestSubmit_ValidStartsLoading(t *testing.T) {
	m, _, submitter := newForm(t)
	m = fillValid(t, m).AgreeToTerms()

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.True(t, m.Loading())
	require.Equal(t, enroll.StepCreateAccount, m.Step())
	require.Contains(t, m.View(), "Creating your account...")

	var submitted *SubmittedMsg
	for _, c := range cmd().(tea.BatchMsg) {
		if c == nil {
			continue
		}
		if msg, ok := c().(SubmittedMsg); ok {
			submitted = &msg
		}
	}
	require.NotNil(t, submitted)
	require.Equal(t, []registration.Account{{
		Username:  "ada_lovelace",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "analytical-engine",
	}}, submitter.got)

	m, _ = m.Update(*submitted)
	require.False(t, m.Loading())
	require.Empty(t, m.Step())
}

func TestSubmit_IgnoredWhileLoading(t *testing.T) {
	m, _, _ := newForm(t)
	m = fillValid(t, m).AgreeToTerms()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	count := m.Draft().SubmitCount

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Nil(t, cmd)
	require.Equal(t, count, m.Draft().SubmitCount)
}

func TestSetStep_OnlyWhileLoading(t *testing.T) {
	m, _, _ := newForm(t)
	require.Empty(t, m.SetStep(enroll.StepSignIn).Step())

	m.loading = true
	m = m.SetStep(enroll.StepSignIn)
	require.Contains(t, m.View(), "Signing you in...")
}

func TestSetDebounce(t *testing.T) {
	m, _, _ := newForm(t)
	require.Equal(t, 300*time.Millisecond, m.SetDebounce(300*time.Millisecond).Debounce())
}

func TestView_FitsWidth(t *testing.T) {
	m, _, _ := newForm(t)
	m = m.SetWidth(50)
	m = typeText(m, strings.Repeat("x", 60))
	m = settleNow(t, m, registration.Username)

	view := m.View()
	require.Contains(t, view, "Create your account")
	require.Contains(t, view, StepLabel)
	for _, line := range strings.Split(zone.Scan(view), "\n") {
		require.LessOrEqual(t, lipgloss.Width(line), 50, "line %q", line)
	}
}

func TestView_MasksPasswords(t *testing.T) {
	m, _, _ := newForm(t)
	m = fill(m, registration.Password, "analytical-engine")
	require.NotContains(t, zone.Scan(m.View()), "analytical-engine")
}

func TestMouse_ClickContinueSubmits(t *testing.T) {
	m, _, _ := newForm(t)
	m = fillValid(t, m).AgreeToTerms()
	zone.Scan(m.View())

	var z *zone.ZoneInfo
	require.Eventually(t, func() bool {
		z = zone.Get(zoneContinue)
		return z != nil && !z.IsZero()
	}, time.Second, 10*time.Millisecond)

	m, cmd := m.Update(tea.MouseMsg{X: z.StartX, Y: z.StartY, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	require.NotNil(t, cmd)
	require.True(t, m.Loading())
}
