package console

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/symbrkrs/emcbridge/internal/ui"
)

const (
	// AppName is shown in the console header
	AppName = "EMC CONSOLE"

	// chromeHeight is the number of rows used around the scrollback:
	// header with its border, status line, prompt and help
	chromeHeight = 6
)

var (
	headerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.Border{Bottom: "─"}).
			BorderForeground(ui.PrimaryColor).
			BorderBottom(true).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(ui.TextColor).
			Bold(true)

	subtleStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(ui.ErrorColor).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor)

	pickerTitleStyle = lipgloss.NewStyle().
				Foreground(ui.TextColor).
				Background(ui.PrimaryColor).
				Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor).
			Bold(true)
)
