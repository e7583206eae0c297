package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConfirmPhrase must be typed to approve an operation that can leave the
// controller in a bad state.
const ConfirmPhrase = "I AGREE"

const disclaimer = "DISCLAIMER: This software is provided as-is, without warranty of any kind. " +
	"The authors accept no responsibility for any damage to your hardware. " +
	"Only use it on hardware you own."

// ConfirmDangerousOperation shows the warnings on stdout and reads the
// answer from stdin.
func ConfirmDangerousOperation(title string, warnings []string, note string) bool {
	return confirm(os.Stdin, os.Stdout, title, warnings, note)
}

func confirm(in io.Reader, out io.Writer, title string, warnings []string, note string) bool {
	width := GetTerminalWidth()

	lines := []string{"", lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("   ⚠  WARNING  ─  " + title), ""}
	for _, w := range warnings {
		lines = append(lines, valueStyle.Render("   • "+w))
	}
	lines = append(lines, "")
	if note != "" {
		lines = append(lines, noteStyle.Width(width-12).PaddingLeft(3).Render(note), "")
	}
	box := frame(lipgloss.DoubleBorder(), WarningColor, width).Padding(0, 2).Render(strings.Join(lines, "\n"))

	prompt := lipgloss.NewStyle().Foreground(WarningColor).Bold(true).
		Render(fmt.Sprintf("To proceed, type %q and press Enter: ", ConfirmPhrase))
	_, _ = fmt.Fprintf(out, "%s\n\n%s", box, prompt)

	answer, err := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)
	if err != nil && answer == "" {
		return false
	}
	if strings.TrimSpace(answer) == ConfirmPhrase {
		return true
	}
	_, _ = fmt.Fprintf(out, "%s\n\n", keyStyle.Render("  Operation cancelled."))
	return false
}

// UnlockConfirmation guards the unlock command.
func UnlockConfirmation() bool {
	return ConfirmDangerousOperation("EMC UNLOCK", []string{
		"This overwrites controller RAM through an out-of-bounds write",
		"The controller will be reset if the attempt fails",
		"Do not power cycle the console while the unlock runs",
	}, disclaimer)
}

// RomConfirmation guards entering boot ROM mode.
func RomConfirmation() bool {
	return ConfirmDangerousOperation("BOOT ROM MODE", []string{
		"The controller will be reset into its boot ROM",
		"The console stops answering commands until ROM mode is left",
	}, "")
}
