package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus is the state of one step of a bridge operation.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepFailed
	StepSkipped
)

// StepCallback reports progress from inside an Operation. An empty name
// keeps the configured step name.
type StepCallback func(stepNumber int, name string, status StepStatus, message string)

// Step is one line of the step list.
type Step struct {
	Number  int
	Name    string
	Status  StepStatus
	Message string // e.g. the firmware version once it is known
}

// Progress tracks the steps of an operation and draws them with a bar.
type Progress struct {
	Steps   []Step
	Current int
	Percent float64 // done or skipped steps over all steps
	bar     progress.Model
}

// NewProgress creates a tracker for the named steps.
func NewProgress(names ...string) *Progress {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Number: i + 1, Name: name}
	}
	return &Progress{
		Steps: steps,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// SetWidth sizes the bar for the terminal.
func (p *Progress) SetWidth(width int) *Progress {
	p.bar.Width = min(max(width-20, 20), 50)
	return p
}

// Update records a step's new status. Out of range steps are ignored.
func (p *Progress) Update(n int, status StepStatus, message string) {
	if n < 1 || n > len(p.Steps) {
		return
	}
	p.Steps[n-1].Status = status
	p.Steps[n-1].Message = message

	if status == StepRunning {
		p.Current = n
		return
	}
	done := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete || s.Status == StepSkipped {
			done++
		}
	}
	p.Percent = float64(done) / float64(len(p.Steps))
}

// Render draws the bar followed by the step list.
func (p *Progress) Render() string {
	bar := fmt.Sprintf("  %s  %3.0f%%  [%d/%d]", p.bar.ViewAs(p.Percent), p.Percent*100, p.Current, len(p.Steps))
	lines := []string{bar, ""}
	for _, s := range p.Steps {
		lines = append(lines, p.renderStep(s))
	}
	return strings.Join(lines, "\n")
}

func (p *Progress) renderStep(s Step) string {
	var marker string
	var style lipgloss.Style
	switch s.Status {
	case StepComplete:
		marker, style = "✓", stepDoneStyle
	case StepRunning:
		marker, style = "●", stepRunningStyle
	case StepFailed:
		marker, style = "✗", stepFailedStyle
	case StepSkipped:
		marker, style = "⊘", stepIdleStyle
	default:
		marker, style = "·", stepIdleStyle
	}

	pad := max(45-lipgloss.Width(s.Name), 1)
	line := fmt.Sprintf("  [%d/%d] %s%s%s", s.Number, len(p.Steps), style.Render(s.Name), strings.Repeat(" ", pad), style.Render(marker))
	if s.Message != "" {
		line += "  " + noteStyle.Render("("+s.Message+")")
	}
	return line
}
