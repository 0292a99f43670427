// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#2D3436", Dark: "#CCCCCC"} // Field values, headings
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"} // Hints, help text, footers
	TextPlaceholderColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#777777"} // Input placeholders

	// Semantic color names - Border
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"} // Unfocused borders

	// Semantic color names - Status
	AccentColor        = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"} // Focus, cursor, active field
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"} // Unique marks, done screen
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"} // Warnings
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"} // Field errors

	// Button colors
	ButtonTextColor           = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}
	ButtonPrimaryBgColor      = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#1A5276"}
	ButtonPrimaryFocusBgColor = lipgloss.AdaptiveColor{Light: "#3498DB", Dark: "#3498DB"}
	ButtonDisabledBgColor     = lipgloss.AdaptiveColor{Light: "#B2BEC3", Dark: "#2D2D2D"}

	// Toast notification colors
	ToastBorderSuccessColor = StatusSuccessColor
	ToastBorderErrorColor   = StatusErrorColor
	ToastBorderInfoColor    = AccentColor
	ToastBorderWarnColor    = StatusWarningColor

	// Loading spinner color
	SpinnerColor = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#FFF"}
)

// Styles built from the colors above. Rebuild runs again after ApplyTheme.
var (
	TitleStyle       lipgloss.Style
	LabelStyle       lipgloss.Style
	LabelFocusStyle  lipgloss.Style
	ErrorTextStyle   lipgloss.Style
	SuccessTextStyle lipgloss.Style
	HintStyle        lipgloss.Style
	SpinnerStyle     lipgloss.Style

	PrimaryButtonStyle        lipgloss.Style
	PrimaryButtonFocusedStyle lipgloss.Style
	DisabledButtonStyle       lipgloss.Style
)

func init() {
	Rebuild()
}

// Rebuild recomputes the derived styles from the current colors.
func Rebuild() {
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)
	LabelStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
	LabelFocusStyle = lipgloss.NewStyle().Bold(true).Foreground(AccentColor)
	ErrorTextStyle = lipgloss.NewStyle().Foreground(StatusErrorColor)
	SuccessTextStyle = lipgloss.NewStyle().Foreground(StatusSuccessColor)
	HintStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
	SpinnerStyle = lipgloss.NewStyle().Foreground(SpinnerColor)

	base := lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(ButtonTextColor)
	PrimaryButtonStyle = base.Background(ButtonPrimaryBgColor)
	PrimaryButtonFocusedStyle = base.
		Background(ButtonPrimaryFocusBgColor).
		Underline(true).
		UnderlineSpaces(true)
	DisabledButtonStyle = base.Bold(false).Background(ButtonDisabledBgColor)
}

// ApplyTheme applies custom theme colors from configuration.
// Empty strings are ignored, keeping the default values.
//   - highlight: AccentColor (focus, cursor, active field)
//   - errorColor: StatusErrorColor (field errors, error toasts)
//   - success: StatusSuccessColor (unique marks, success toasts)
func ApplyTheme(highlight, errorColor, success string) {
	if highlight != "" {
		AccentColor = lipgloss.AdaptiveColor{Light: highlight, Dark: highlight}
		ToastBorderInfoColor = AccentColor
	}
	if errorColor != "" {
		StatusErrorColor = lipgloss.AdaptiveColor{Light: errorColor, Dark: errorColor}
		ToastBorderErrorColor = StatusErrorColor
	}
	if success != "" {
		StatusSuccessColor = lipgloss.AdaptiveColor{Light: success, Dark: success}
		ToastBorderSuccessColor = StatusSuccessColor
	}
	Rebuild()
}
