// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#1F1F1F", Dark: "#CCCCCC"}
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"}
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#696969"} // hints, footers, counts

	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#B8B8B8", Dark: "#696969"}
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#2E86DE", Dark: "#54A0FF"}
	BorderDropColor    = lipgloss.AdaptiveColor{Light: "#E67E22", Dark: "#FF9F43"} // pane under a dragged item

	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#D4A017", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	// Pane accents
	UnclassifiedColor = lipgloss.AdaptiveColor{Light: "#2E86DE", Dark: "#54A0FF"}
	GroupColor        = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	ExcludedColor     = lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#FF8787"}

	SelectionIndicatorColor = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}
	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)

	// Rows
	RowStyle         = lipgloss.NewStyle().Foreground(TextPrimaryColor)
	RowSelectedStyle = lipgloss.NewStyle().Foreground(TextPrimaryColor).Bold(true).Reverse(true)
	RowGrabbedStyle  = lipgloss.NewStyle().Foreground(BorderDropColor).Bold(true).Italic(true)
	GroupHeaderStyle = lipgloss.NewStyle().Foreground(GroupColor).Bold(true)
	MemberStyle      = lipgloss.NewStyle().Foreground(TextSecondaryColor)
	TagStyle         = lipgloss.NewStyle().Foreground(TextMutedColor).Italic(true)
	HintStyle        = lipgloss.NewStyle().Foreground(TextMutedColor)

	baseButtonStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true)

	ButtonTextColor           = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}
	ButtonPrimaryBgColor      = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#1A5276"}
	ButtonPrimaryFocusBgColor = lipgloss.AdaptiveColor{Light: "#3498DB", Dark: "#3498DB"}
	ButtonSecondaryBgColor    = lipgloss.AdaptiveColor{Light: "#2D3436", Dark: "#2D3436"}
	ButtonSecondaryFocusColor = lipgloss.AdaptiveColor{Light: "#636E72", Dark: "#636E72"}
	ButtonDangerBgColor       = lipgloss.AdaptiveColor{Light: "#922B21", Dark: "#922B21"}
	ButtonDangerFocusBgColor  = lipgloss.AdaptiveColor{Light: "#E74C3C", Dark: "#E74C3C"}

	PrimaryButtonStyle          = baseButtonStyle.Foreground(ButtonTextColor).Background(ButtonPrimaryBgColor)
	PrimaryButtonFocusedStyle   = baseButtonStyle.Foreground(ButtonTextColor).Background(ButtonPrimaryFocusBgColor).Underline(true)
	SecondaryButtonStyle        = baseButtonStyle.Foreground(ButtonTextColor).Background(ButtonSecondaryBgColor)
	SecondaryButtonFocusedStyle = baseButtonStyle.Foreground(ButtonTextColor).Background(ButtonSecondaryFocusColor).Underline(true)
	DangerButtonStyle           = baseButtonStyle.Foreground(ButtonTextColor).Background(ButtonDangerBgColor)
	DangerButtonFocusedStyle    = baseButtonStyle.Foreground(ButtonTextColor).Background(ButtonDangerFocusBgColor).Underline(true)

	OverlayTitleColor  = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#C9C9C9"}
	OverlayBorderColor = lipgloss.AdaptiveColor{Light: "#B8B8B8", Dark: "#8C8C8C"}

	ToastBorderSuccessColor = StatusSuccessColor
	ToastBorderErrorColor   = StatusErrorColor
	ToastBorderInfoColor    = BorderFocusColor
	ToastBorderWarnColor    = StatusWarningColor

	StatusBarStyle = lipgloss.NewStyle().Foreground(TextSecondaryColor).Padding(0, 1)
	DirtyStyle     = lipgloss.NewStyle().Foreground(StatusWarningColor).Bold(true)
	CleanStyle     = lipgloss.NewStyle().Foreground(StatusSuccessColor)

	ErrorStyle = lipgloss.NewStyle().Foreground(StatusErrorColor).Bold(true).Padding(1, 2)

	// Pending-changes view
	DiffAddedStyle   = lipgloss.NewStyle().Foreground(StatusSuccessColor)
	DiffRemovedStyle = lipgloss.NewStyle().Foreground(StatusErrorColor)
)
