// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// FormKeyMap defines the keybindings of the registration form.
type FormKeyMap struct {
	// Navigation
	Next key.Binding
	Prev key.Binding

	// Actions
	Toggle key.Binding
	Submit key.Binding
	Save   key.Binding
	Terms  key.Binding

	// General
	Quit key.Binding
}

// DefaultFormKeyMap returns the default form keybindings. Toggle, Submit
// and Terms only apply when focus is off the text inputs.
func DefaultFormKeyMap() FormKeyMap {
	return FormKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "ctrl+n", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "ctrl+p", "up"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "agree to terms"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "continue"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "submit"),
		),
		Terms: key.NewBinding(
			key.WithKeys("?", "ctrl+t"),
			key.WithHelp("ctrl+t", "read terms"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k FormKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Save, k.Terms, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k FormKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev},                      // Navigation
		{k.Toggle, k.Submit, k.Save, k.Terms}, // Actions
		{k.Quit},                              // General
	}
}

// TermsKeyMap defines the keybindings of the terms overlay.
type TermsKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Agree    key.Binding
	Close    key.Binding
}

// DefaultTermsKeyMap returns the keybindings for the terms overlay.
func DefaultTermsKeyMap() TermsKeyMap {
	return TermsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("ctrl+u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("ctrl+d", "page down"),
		),
		Agree: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "agree and close"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc", "close"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k TermsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Agree, k.Close}
}

// FullHelp returns keybindings for the full help view.
func (k TermsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Agree, k.Close},
	}
}
