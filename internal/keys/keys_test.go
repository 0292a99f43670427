package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/require"
)

func TestFormKeyMap_KeyAssignments(t *testing.T) {
	k := DefaultFormKeyMap()

	tests := []struct {
		name     string
		binding  key.Binding
		expected []string
	}{
		{"Next uses tab, ctrl+n and down", k.Next, []string{"tab", "ctrl+n", "down"}},
		{"Prev uses shift+tab, ctrl+p and up", k.Prev, []string{"shift+tab", "ctrl+p", "up"}},
		{"Toggle uses space and enter", k.Toggle, []string{" ", "enter"}},
		{"Submit uses enter", k.Submit, []string{"enter"}},
		{"Save uses ctrl+s", k.Save, []string{"ctrl+s"}},
		{"Terms uses ? and ctrl+t", k.Terms, []string{"?", "ctrl+t"}},
		{"Quit uses ctrl+c", k.Quit, []string{"ctrl+c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.binding.Keys())
		})
	}
}

// Bindings that stay live inside a text input must not be printable.
func TestFormKeyMap_InputSafeBindings(t *testing.T) {
	k := DefaultFormKeyMap()
	for _, b := range []key.Binding{k.Next, k.Prev, k.Save, k.Quit} {
		for _, s := range b.Keys() {
			require.Greater(t, len(s), 1, "binding %q is a printable key", s)
		}
	}
}

func TestFormKeyMap_HelpTextDefined(t *testing.T) {
	k := DefaultFormKeyMap()
	for _, group := range k.FullHelp() {
		for _, b := range group {
			require.NotEmpty(t, b.Help().Key)
			require.NotEmpty(t, b.Help().Desc)
		}
	}
	require.Len(t, k.ShortHelp(), 4)
}

func TestTermsKeyMap_KeyAssignments(t *testing.T) {
	k := DefaultTermsKeyMap()
	require.Equal(t, []string{"esc", "q"}, k.Close.Keys())
	require.Equal(t, []string{"a"}, k.Agree.Keys())
	require.Equal(t, []string{"ctrl+d", "pgdown"}, k.PageDown.Keys())
	require.Len(t, k.FullHelp(), 2)
}
