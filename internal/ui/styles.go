package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette shared by the CLI boxes and the console.
var (
	PrimaryColor = lipgloss.Color("#7D56F4")
	SuccessColor = lipgloss.Color("#43BF6D")
	ErrorColor   = lipgloss.Color("#FF5555")
	WarningColor = lipgloss.Color("#FFA500")
	MutedColor   = lipgloss.Color("#626262")
	TextColor    = lipgloss.Color("#FFFFFF")
)

const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(TextColor).Bold(true).PaddingLeft(2)
	subtitleStyle  = lipgloss.NewStyle().Foreground(MutedColor).PaddingLeft(2)
	keyStyle       = lipgloss.NewStyle().Foreground(MutedColor)
	valueStyle     = lipgloss.NewStyle().Foreground(TextColor)
	noteStyle      = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)
	mutedBoldStyle = lipgloss.NewStyle().Foreground(MutedColor).Bold(true)
	dividerStyle   = lipgloss.NewStyle().Foreground(PrimaryColor)

	stepDoneStyle    = lipgloss.NewStyle().Foreground(SuccessColor)
	stepRunningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	stepIdleStyle    = lipgloss.NewStyle().Foreground(MutedColor)
	stepFailedStyle  = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
)

// Controller line styles, one per result type.
var (
	FrameOkStyle      = lipgloss.NewStyle().Foreground(SuccessColor)
	FrameNgStyle      = lipgloss.NewStyle().Foreground(ErrorColor)
	FrameInfoStyle    = lipgloss.NewStyle().Foreground(PrimaryColor)
	FrameCommentStyle = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)
	FrameEchoStyle    = lipgloss.NewStyle().Foreground(TextColor).Bold(true)
	FrameTimeoutStyle = lipgloss.NewStyle().Foreground(WarningColor)
	FrameRomStyle     = lipgloss.NewStyle().Foreground(WarningColor)
)

// GetTerminalWidth returns the stdout width clamped to the supported range.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth
	}
	return clampWidth(width)
}

func clampWidth(width int) int {
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// frame draws a bordered box that fills width.
func frame(border lipgloss.Border, color lipgloss.Color, width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(border).
		BorderForeground(color).
		Width(clampWidth(width) - 2)
}

// nested is the inner box used for troubleshooting tips and captured lines.
func nested(width, indent int) lipgloss.Style {
	inner := clampWidth(width) - indent - 8
	if inner < 40 {
		inner = 40
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(inner).
		Padding(0, 1).
		MarginLeft(indent)
}
