package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/symbrkrs/emcbridge/internal/protocol"
)

// FrameLog is a box of controller lines captured while a command ran.
type FrameLog struct {
	Title    string
	Frames   []protocol.Result // arrival order
	Width    int
	MaxLines int // 0 keeps every frame
}

func NewFrameLog(frames []protocol.Result) *FrameLog {
	return &FrameLog{
		Title:  "Controller Output",
		Frames: frames,
		Width:  GetTerminalWidth(),
	}
}

func (f *FrameLog) SetWidth(width int) *FrameLog {
	f.Width = width
	return f
}

func (f *FrameLog) SetTitle(title string) *FrameLog {
	f.Title = title
	return f
}

// SetMaxLines keeps only the newest n frames, noting how many were cut.
func (f *FrameLog) SetMaxLines(n int) *FrameLog {
	f.MaxLines = n
	return f
}

// FilterTypes keeps only frames of the given types.
func (f *FrameLog) FilterTypes(types ...protocol.ResultType) *FrameLog {
	var filtered []protocol.Result
	for _, r := range f.Frames {
		for _, t := range types {
			if r.Type == t {
				filtered = append(filtered, r)
				break
			}
		}
	}
	f.Frames = filtered
	return f
}

// Lines returns the formatted lines the box shows, oldest first.
func (f *FrameLog) Lines() []string {
	frames := f.Frames
	var lines []string
	if f.MaxLines > 0 && len(frames) > f.MaxLines {
		lines = append(lines, fmt.Sprintf("... (%d earlier lines)", len(frames)-f.MaxLines))
		frames = frames[len(frames)-f.MaxLines:]
	}
	for _, r := range frames {
		lines = append(lines, FormatFrame(r))
	}
	return lines
}

// Render draws the captured lines in a muted box.
func (f *FrameLog) Render() string {
	inner := lipgloss.JoinVertical(lipgloss.Left, mutedBoldStyle.Render(f.Title), "", strings.Join(f.Lines(), "\n"))
	return nested(f.Width, 2).Render(inner)
}

// FormatFrame renders one controller line in protocol text, styled by type.
// ROM frames show their hex payload.
func FormatFrame(r protocol.Result) string {
	switch r.Type {
	case protocol.ResultOk:
		if r.IsRomFrame() {
			return FrameRomStyle.Render("rom< " + r.Response)
		}
		return FrameOkStyle.Render(r.Format())
	case protocol.ResultNg:
		return FrameNgStyle.Render(fmt.Sprintf("%s (%s)", r.Format(), protocol.StatusName(r.Status)))
	case protocol.ResultInfo:
		return FrameInfoStyle.Render(r.Format())
	case protocol.ResultComment:
		return FrameCommentStyle.Render(r.Format())
	case protocol.ResultUnknown:
		return FrameEchoStyle.Render(r.Response)
	default:
		return FrameTimeoutStyle.Render("(timeout)")
	}
}
