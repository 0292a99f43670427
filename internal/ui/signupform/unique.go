package signupform

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/signup/internal/log"
	"github.com/zjrosen/signup/internal/registration"
)

// uniqueCheckedMsg is the reply to a uniqueness request issued under token.
type uniqueCheckedMsg struct {
	field  registration.Field
	value  string
	token  int
	unique bool
	err    error
}

func (m Model) checkUnique(f registration.Field, value string, token int) tea.Cmd {
	if m.checker == nil {
		return nil
	}
	ctx, checker := m.ctx, m.checker
	return func() tea.Msg {
		unique, err := checker.CheckUnique(ctx, f, value)
		return uniqueCheckedMsg{field: f, value: value, token: token, unique: unique, err: err}
	}
}

// applyUnique folds a uniqueness reply into the draft. Failed requests are
// logged and leave the field as it was.
func (m Model) applyUnique(msg uniqueCheckedMsg) Model {
	if msg.err != nil {
		log.ErrorErr(log.CatAPI, "Uniqueness check failed", msg.err, "field", string(msg.field))
		return m
	}
	fs := m.draft.Field(msg.field)
	if msg.token != fs.CheckCount || msg.value != fs.Value {
		log.Debug(log.CatForm, "Dropped stale uniqueness result", "field", string(msg.field), "token", msg.token, "current", fs.CheckCount)
	}
	m.draft = registration.Reduce(m.draft, registration.UniqueResult{
		Field:  msg.field,
		Value:  msg.value,
		Token:  msg.token,
		Unique: msg.unique,
	})
	return m
}
