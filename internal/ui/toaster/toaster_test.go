package toaster

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New()

	assert.False(t, m.Visible())
	assert.Empty(t, m.View())
}

func TestShow_ReplacesExisting(t *testing.T) {
	m := New().
		Show("First", StyleSuccess).
		Show("Second", StyleError)

	assert.True(t, m.Visible())
	assert.Contains(t, m.View(), "Second")
	assert.NotContains(t, m.View(), "First")
}

func TestView_Icons(t *testing.T) {
	for style, icon := range map[Style]string{
		StyleSuccess: "✅",
		StyleError:   "❌",
		StyleInfo:    "ℹ️",
		StyleWarn:    "⚠️",
	} {
		view := New().Show("message", style).View()
		assert.Contains(t, view, icon)
		assert.Contains(t, view, "╭")
	}
}

func TestView_WrapsLongMessage(t *testing.T) {
	msg := strings.Repeat("word ", 30)
	view := New().SetSize(40, 20).Show(msg, StyleError).View()

	lines := strings.Split(view, "\n")
	require.Greater(t, len(lines), 3, "long message must wrap onto several lines")
}

func TestUpdate_DismissMatchingSeq(t *testing.T) {
	m, cmd := New().ShowCmd("Account created", StyleSuccess)
	require.NotNil(t, cmd)

	m = m.Update(DismissMsg{Seq: m.seq})
	assert.False(t, m.Visible())
}

func TestUpdate_StaleDismissIgnored(t *testing.T) {
	m, _ := New().ShowCmd("first", StyleSuccess)
	stale := m.seq
	m, _ = m.ShowCmd("second", StyleError)

	m = m.Update(DismissMsg{Seq: stale})
	assert.True(t, m.Visible())
	assert.Equal(t, "second", m.Message())
}

func TestOverlay_NotVisibleReturnsBackground(t *testing.T) {
	bg := "Background\nContent"
	assert.Equal(t, bg, New().Overlay(bg, 20, 10))
}

func TestOverlay_VisiblePlacesAtBottom(t *testing.T) {
	m := New().Show("Toast", StyleSuccess)
	bg := strings.TrimSuffix(strings.Repeat(strings.Repeat(".", 20)+"\n", 10), "\n")

	lines := strings.Split(m.Overlay(bg, 20, 10), "\n")

	require.Len(t, lines, 10)
	assert.Contains(t, lines[7], "Toast")
	assert.Equal(t, strings.Repeat(".", 20), lines[9])
}

func TestHide_ImmutableModel(t *testing.T) {
	m1 := New().Show("Hello", StyleSuccess)
	m2 := m1.Hide()

	assert.True(t, m1.Visible())
	assert.False(t, m2.Visible())
}
