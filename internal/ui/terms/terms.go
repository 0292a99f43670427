// Package terms renders the terms of service in a scrollable overlay.
package terms

import (
	_ "embed"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/zjrosen/signup/internal/keys"
	"github.com/zjrosen/signup/internal/log"
	"github.com/zjrosen/signup/internal/ui/overlay"
	"github.com/zjrosen/signup/internal/ui/styles"
)

//go:embed terms.md
var document string

// Title is shown in the overlay border.
const Title = "Terms of Service"

// noMarginStyle removes glamour's document margins so the text fills the panel.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// CloseMsg is sent when the overlay is dismissed without agreeing.
type CloseMsg struct{}

// AgreeMsg is sent when the user agrees from inside the overlay.
type AgreeMsg struct{}

// Model is the terms overlay.
type Model struct {
	viewport viewport.Model
	keys     keys.TermsKeyMap
	help     help.Model
	width    int
	height   int
	rendered string
}

// New creates a terms overlay. Call SetSize before View.
func New() Model {
	return Model{
		viewport: viewport.New(0, 0),
		keys:     keys.DefaultTermsKeyMap(),
		help:     help.New(),
	}
}

// Document returns the raw markdown of the terms.
func Document() string {
	return document
}

// SetSize fits the overlay into a width x height screen and re-renders the
// document for the new wrap width.
func (m Model) SetSize(width, height int) Model {
	m.width = min(width-4, 80)
	m.height = max(height-4, 6)

	// Two border columns and one space of padding on each side.
	wrap := max(m.width-4, 20)
	m.viewport.Width = wrap
	// Top and bottom border plus the help line.
	m.viewport.Height = max(m.height-3, 3)
	m.rendered = render(wrap)
	m.viewport.SetContent(m.rendered)
	return m
}

func render(width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.ErrorErr(log.CatUI, "Creating terms renderer failed", err)
		return document
	}
	out, err := r.Render(document)
	if err != nil {
		log.ErrorErr(log.CatUI, "Rendering terms failed", err)
		return document
	}
	return strings.TrimRight(out, "\n")
}

// Update handles keys while the overlay is open.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Close):
			return m, func() tea.Msg { return CloseMsg{} }
		case key.Matches(msg, m.keys.Agree):
			return m, func() tea.Msg { return AgreeMsg{} }
		case key.Matches(msg, m.keys.Up):
			m.viewport.ScrollUp(1)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.viewport.ScrollDown(1)
			return m, nil
		case key.Matches(msg, m.keys.PageUp):
			m.viewport.HalfPageUp()
			return m, nil
		case key.Matches(msg, m.keys.PageDown):
			m.viewport.HalfPageDown()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// AtBottom reports whether the whole document has been scrolled through.
func (m Model) AtBottom() bool {
	return m.viewport.AtBottom()
}

// View renders the overlay box.
func (m Model) View() string {
	body := m.viewport.View() + "\n" + m.help.View(m.keys)
	return styles.RenderPanel(body, Title, m.width, styles.AccentColor)
}

// Overlay renders the terms box over bg.
func (m Model) Overlay(bg string, width, height int) string {
	return overlay.Place(overlay.Config{
		Width:    width,
		Height:   height,
		Position: overlay.Center,
	}, m.View(), bg)
}
