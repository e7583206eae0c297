package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/symbrkrs/emcbridge/internal/protocol"
)

// Printer writes styled boxes and controller lines for one-shot commands.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter returns a Printer on w, or on stdout when w is nil.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

func (p *Printer) println(s string) {
	_, _ = fmt.Fprintln(p.out, s)
}

func (p *Printer) PrintSuccess(title string, details map[string]string) {
	p.println(NewSuccessResult(title, details).SetWidth(p.width).Render())
}

// PrintError prints a failure box with troubleshooting tips.
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.println(NewFailureResult(title, err, troubleshooting).SetWidth(p.width).Render())
}

// PrintFrameResult prints the box for a controller answer.
func (p *Printer) PrintFrameResult(title string, r protocol.Result) {
	p.println(NewFrameResult(title, r).SetWidth(p.width).Render())
}

// PrintFrame prints one controller line. It matches the client's OnOther
// callback so unsolicited output can stream while a command runs.
func (p *Printer) PrintFrame(r protocol.Result) {
	p.println(FormatFrame(r))
}
