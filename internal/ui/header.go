package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header is the banner printed before a bridge operation: what runs and
// against which bridge.
type Header struct {
	Title   string
	Command string
	Params  map[string]string
	Width   int
}

func NewHeader(title, command string, params map[string]string) *Header {
	return &Header{Title: title, Command: command, Params: params, Width: GetTerminalWidth()}
}

func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

func (h *Header) Render() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(strings.ToUpper(h.Title)),
		subtitleStyle.Render(h.Command),
	)

	if len(h.Params) > 0 {
		keys := make([]string, 0, len(h.Params))
		for k := range h.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		lines := []string{content, dividerStyle.Render(strings.Repeat("─", clampWidth(h.Width)-6))}
		for _, k := range keys {
			lines = append(lines, subtitleStyle.Render(k+":")+" "+valueStyle.Render(h.Params[k]))
		}
		content = strings.Join(lines, "\n")
	}

	return frame(lipgloss.RoundedBorder(), PrimaryColor, h.Width).Render(content)
}
