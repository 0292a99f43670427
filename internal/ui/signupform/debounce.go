package signupform

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/signup/internal/log"
	"github.com/zjrosen/signup/internal/registration"
)

// settleMsg fires once a field has been quiet for the debounce window.
type settleMsg struct {
	field registration.Field
	seq   int
}

// scheduleSettle bumps the sequence of input i and schedules a tick for it.
// Any tick already in flight for the field becomes stale. Empty values and
// fields without settled rules get no tick.
func (m *Model) scheduleSettle(i int) tea.Cmd {
	m.seq[i]++
	f := m.fields[i]
	if !f.Debounced() || m.inputs[i].Value() == "" {
		return nil
	}
	seq := m.seq[i]
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return settleMsg{field: f, seq: seq}
	})
}

// settle runs the field's settled rules when msg is the latest tick, and
// starts a uniqueness check when they pass.
func (m Model) settle(msg settleMsg) (Model, tea.Cmd) {
	i := m.indexOf(msg.field)
	if i < 0 || m.seq[i] != msg.seq {
		return m, nil
	}

	before := m.draft.Field(msg.field).CheckCount
	m.draft = registration.Reduce(m.draft, registration.Settled{
		Field:     msg.field,
		NoRequest: m.loading,
	})
	fs := m.draft.Field(msg.field)
	if fs.CheckCount == before {
		if fs.HasErrors {
			log.Debug(log.CatForm, "Settled with error", "field", string(msg.field), "message", fs.Message)
		}
		return m, nil
	}
	return m, m.checkUnique(msg.field, fs.Value, fs.CheckCount)
}

func (m Model) indexOf(f registration.Field) int {
	for i, known := range m.fields {
		if known == f {
			return i
		}
	}
	return -1
}
