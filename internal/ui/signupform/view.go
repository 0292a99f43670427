package signupform

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/signup/internal/registration"
	"github.com/zjrosen/signup/internal/ui/styles"
)

const (
	// Title is the heading of step 1.
	Title = "Create your account"
	// StepLabel places the form in the registration flow.
	StepLabel    = "Step 1 of 3"
	termsLabel   = "I agree to the Terms of Service"
	continueText = "Continue"
	maxPanel     = 76
)

func labelColumn() int {
	labels := make([]string, 0, numTextFields)
	for _, f := range registration.TextFields() {
		labels = append(labels, f.Label())
	}
	return styles.LabelWidth(labels...) + 2
}

func (m Model) panelWidth() int {
	if m.width <= 0 {
		return maxPanel
	}
	return max(min(m.width, maxPanel), 30)
}

// View renders the form.
func (m Model) View() string {
	width := m.panelWidth()
	inner := width - 4
	pad := lipgloss.NewStyle().Padding(0, 1)

	var b strings.Builder
	b.WriteString(styles.HintStyle.Render(StepLabel))
	b.WriteString("\n\n")

	for i, f := range m.fields {
		b.WriteString(zone.Mark(fieldZone(f), m.renderField(i, inner)))
		b.WriteString("\n")
	}

	b.WriteString(zone.Mark(zoneTerms, m.renderTerms()))
	b.WriteString("\n")
	b.WriteString(m.errorLine(registration.AgreeToTerms, inner, 4))
	b.WriteString("\n")
	b.WriteString(m.renderContinue())
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	return styles.RenderPanel(pad.Render(b.String()), Title, width, styles.BorderDefaultColor)
}

func (m Model) renderField(i, width int) string {
	f := m.fields[i]
	col := labelColumn()

	label := styles.LabelStyle.Render(styles.PadLabel(f.Label(), col))
	if m.focus == i {
		label = styles.LabelFocusStyle.Render(styles.PadLabel(f.Label(), col))
	}

	line := label + m.inputs[i].View()
	if mark := m.uniqueMark(f); mark != "" {
		line += " " + mark
	}
	return line + "\n" + m.errorLine(f, width, col)
}

// uniqueMark shows the result of the last uniqueness check for the value.
func (m Model) uniqueMark(f registration.Field) string {
	if !f.Unique() {
		return ""
	}
	fs := m.draft.Field(f)
	if fs.Checked && fs.IsUnique && !fs.HasErrors {
		return styles.SuccessTextStyle.Render("✓")
	}
	return ""
}

// errorLine renders the field message indented by indent, cut to width.
// Fields without an error render an empty line.
func (m Model) errorLine(f registration.Field, width, indent int) string {
	fs := m.draft.Field(f)
	if !fs.HasErrors || fs.Message == "" {
		return ""
	}
	msg := styles.TruncateString(fs.Message, max(width-indent, 1))
	return strings.Repeat(" ", indent) + styles.ErrorTextStyle.Render(msg)
}

func (m Model) renderTerms() string {
	box := "[ ]"
	if m.draft.AgreedToTerms() {
		box = "[x]"
	}
	style := styles.LabelStyle
	if m.focus == focusTerms {
		style = styles.LabelFocusStyle
	}
	line := style.Render(box + " " + termsLabel)
	if m.focus == focusTerms {
		line += "  " + styles.HintStyle.Render("? to read")
	}
	return line
}

func (m Model) renderContinue() string {
	if m.loading {
		label := continueText
		if m.step != "" {
			label = m.step.Label()
		}
		return styles.DisabledButtonStyle.Render(continueText) + "  " +
			m.spinner.View() + " " + styles.HintStyle.Render(label+"...")
	}
	style := styles.PrimaryButtonStyle
	if m.focus == focusContinue {
		style = styles.PrimaryButtonFocusedStyle
	}
	return zone.Mark(zoneContinue, style.Render(continueText))
}
