package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/symbrkrs/emcbridge/internal/protocol"
)

var defaultTroubleshooting = []string{
	"Check that the bridge is still running",
	"Check the controller has not reset unexpectedly",
	"Run with --verbose for the controller output",
}

// RunnerConfig describes a multi-step bridge operation.
type RunnerConfig struct {
	Title     string            // e.g. "Unlock"
	Command   string            // e.g. "emcbridge-cli unlock"
	Params    map[string]string // shown in the header
	StepNames []string
	Verbose   bool // print captured controller lines at the end
	Output    io.Writer

	// Troubleshooting is shown on failures that carry no hints of their own
	Troubleshooting []string
}

// Runner prints a header, then each step as it settles, then a result box.
type Runner struct {
	config   RunnerConfig
	out      io.Writer
	width    int
	header   *Header
	progress *Progress
	frames   []protocol.Result
}

func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Troubleshooting == nil {
		config.Troubleshooting = defaultTroubleshooting
	}
	width := GetTerminalWidth()
	return &Runner{
		config:   config,
		out:      config.Output,
		width:    width,
		header:   NewHeader(config.Title, config.Command, config.Params).SetWidth(width),
		progress: NewProgress(config.StepNames...).SetWidth(width),
	}
}

// Operation is the work a Runner wraps. It reports progress through onStep
// and returns the details to show on success.
type Operation func(ctx context.Context, onStep StepCallback) (map[string]string, error)

// Run prints the header, runs op and prints the outcome. It returns op's error.
func (r *Runner) Run(ctx context.Context, op Operation) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.header.Render())

	start := time.Now()
	details, err := op(ctx, r.onStep)
	elapsed := time.Since(start).Round(time.Millisecond)

	_, _ = fmt.Fprintln(r.out)
	var result *Result
	if err != nil {
		tips := r.config.Troubleshooting
		var fe *FrameError
		if errors.As(err, &fe) && len(fe.Hints()) > 0 {
			tips = fe.Hints()
		}
		result = NewFailureResult(fmt.Sprintf("%s failed after %s", r.config.Title, elapsed), err, tips)
	} else {
		if details == nil {
			details = map[string]string{}
		}
		details["Duration"] = elapsed.String()
		result = NewSuccessResult(r.config.Title+" complete", details)
	}
	_, _ = fmt.Fprintln(r.out, result.SetWidth(r.width).Render())

	if r.config.Verbose && len(r.frames) > 0 {
		_, _ = fmt.Fprintln(r.out)
		_, _ = fmt.Fprintln(r.out, NewFrameLog(r.frames).SetWidth(r.width).Render())
	}
	return err
}

// AddFrame records a controller line for verbose output. It is safe to
// pass as a client's frame callback.
func (r *Runner) AddFrame(f protocol.Result) {
	r.frames = append(r.frames, f)
}

func (r *Runner) Frames() []protocol.Result {
	return r.frames
}

func (r *Runner) onStep(n int, name string, status StepStatus, message string) {
	if n < 1 || n > len(r.progress.Steps) {
		return
	}
	if name != "" {
		r.progress.Steps[n-1].Name = name
	}
	r.progress.Update(n, status, message)

	line := r.progress.renderStep(r.progress.Steps[n-1])
	if status == StepRunning {
		// overwritten when the step settles
		_, _ = fmt.Fprint(r.out, line+"\r")
		return
	}
	_, _ = fmt.Fprintln(r.out, line)
}

// PrintPleaseWait announces a long operation, e.g. ("Unlocking controller",
// "up to 30 seconds").
func PrintPleaseWait(w io.Writer, message, hint string) {
	style := lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true).PaddingLeft(2)
	line := style.Render("⏳ " + message)
	if hint != "" {
		line += " " + noteStyle.Render("("+hint+")")
	}
	_, _ = fmt.Fprintf(w, "\n%s%s\n\n", line, style.UnsetPaddingLeft().Render("..."))
}
