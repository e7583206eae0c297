package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultType selects how a result box is drawn.
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

type resultLook struct {
	marker string
	label  string
	color  lipgloss.Color
}

var resultLooks = map[ResultType]resultLook{
	ResultSuccess: {"✓", "SUCCESS", SuccessColor},
	ResultFailure: {"✗", "FAILED", ErrorColor},
	ResultWarning: {"⚠", "WARNING", WarningColor},
}

// Result is the closing box of a command.
type Result struct {
	Type            ResultType
	Title           string
	Details         map[string]string // shown sorted by key
	Error           error
	Troubleshooting []string
	Width           int
}

// NewSuccessResult creates a success box.
func NewSuccessResult(title string, details map[string]string) *Result {
	return &Result{Type: ResultSuccess, Title: title, Details: details, Width: GetTerminalWidth()}
}

// NewFailureResult creates a failure box with troubleshooting tips.
func NewFailureResult(title string, err error, troubleshooting []string) *Result {
	return &Result{Type: ResultFailure, Title: title, Error: err, Troubleshooting: troubleshooting, Width: GetTerminalWidth()}
}

// NewWarningResult creates a warning box.
func NewWarningResult(title string, details map[string]string) *Result {
	return &Result{Type: ResultWarning, Title: title, Details: details, Width: GetTerminalWidth()}
}

func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// Render draws the box.
func (r *Result) Render() string {
	look, ok := resultLooks[r.Type]
	if !ok {
		look = resultLooks[ResultSuccess]
	}

	heading := lipgloss.NewStyle().Foreground(look.color).Bold(true).
		Render(fmt.Sprintf("   %s  %s  ─  %s", look.marker, look.label, r.Title))
	lines := []string{"", heading, ""}

	if r.Error != nil {
		lines = append(lines, lipgloss.NewStyle().Foreground(ErrorColor).Render("   Error: "+r.Error.Error()), "")
	}
	if len(r.Details) > 0 {
		lines = append(lines, renderDetails(r.Details)...)
		lines = append(lines, "")
	}
	if len(r.Troubleshooting) > 0 {
		lines = append(lines, renderTips(r.Troubleshooting, r.Width), "")
	}

	return frame(lipgloss.DoubleBorder(), look.color, r.Width).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

func renderDetails(details map[string]string) []string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, keyStyle.Width(15).Render("   "+k+":")+" "+valueStyle.Render(details[k]))
	}
	return lines
}

func renderTips(tips []string, width int) string {
	lines := []string{mutedBoldStyle.Render("Troubleshooting:"), ""}
	for _, tip := range tips {
		lines = append(lines, keyStyle.Render("  • "+tip))
	}
	return nested(width, 3).Render(strings.Join(lines, "\n"))
}
