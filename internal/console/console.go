package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/symbrkrs/emcbridge/internal/client"
	"github.com/symbrkrs/emcbridge/internal/protocol"
	"github.com/symbrkrs/emcbridge/internal/ui"
)

const (
	maxScrollback = 5000
	maxHistory    = 100

	// answerGrace is added to the bridge's own command timeout before the
	// console gives up on a command
	answerGrace = time.Second
)

// Conn is the part of a bridge connection the console needs.
// *client.Client satisfies it.
type Conn interface {
	Send(line string) error
	ReadResult(deadline time.Time) (protocol.Result, error)
}

// Messages from the frame reader
type frameMsg struct {
	result protocol.Result
}

type connClosedMsg struct {
	err error
}

type answerTimeoutMsg struct {
	seq int
}

// Model is the console screen.
type Model struct {
	URL    string
	Width  int
	Height int

	// Err is set once the connection has failed
	Err error

	conn   Conn
	frames <-chan tea.Msg

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	lines      []string
	history    []string
	historyPos int

	// awaiting is the command whose answer is outstanding, "" when idle
	awaiting string
	echoed   bool
	seq      int
}

// New creates a console for conn. url is only shown in the header.
func New(conn Conn, url string) Model {
	input := textinput.New()
	input.Prompt = promptStyle.Render("emc> ")
	input.Placeholder = "version"
	input.CharLimit = 512
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	vp := viewport.New(ui.MinTerminalWidth, 10)
	// Only paging keys reach the viewport; everything else is typing
	vp.KeyMap = viewport.KeyMap{
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
	}

	return Model{
		URL:      url,
		conn:     conn,
		input:    input,
		viewport: vp,
		spinner:  s,
		help:     help.New(),
		keys:     defaultKeyMap(),
	}
}

// Run takes over the terminal and runs the console on an open connection
// until the user quits.
func Run(c *client.Client) error {
	stop := make(chan struct{})
	defer close(stop)

	m := New(c, c.URL)
	m.frames = readFrames(c, stop)

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.Err != nil {
		return fm.Err
	}
	return nil
}

// readFrames forwards every frame read from conn until the connection fails
// or stop is closed.
func readFrames(conn Conn, stop <-chan struct{}) <-chan tea.Msg {
	ch := make(chan tea.Msg)
	go func() {
		defer close(ch)
		for {
			var msg tea.Msg
			r, err := conn.ReadResult(time.Time{})
			if err != nil {
				msg = connClosedMsg{err: err}
			} else {
				msg = frameMsg{result: r}
			}
			select {
			case ch <- msg:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

// waitForFrame delivers the next message from the reader
func waitForFrame(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// Init starts the cursor blink and the frame reader
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForFrame(m.frames))
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Clear):
			m.lines = nil
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case key.Matches(msg, m.keys.Prev):
			m.recall(-1)
			return m, nil
		case key.Matches(msg, m.keys.Next):
			m.recall(1)
			return m, nil
		case key.Matches(msg, m.keys.Send):
			return m.send()
		}
		if m.Err != nil {
			return m, nil
		}

	case frameMsg:
		m.handleFrame(msg.result)
		return m, waitForFrame(m.frames)

	case connClosedMsg:
		m.Err = msg.err
		m.awaiting = ""
		m.input.Blur()
		m.appendLine(errorStyle.Render("✗ " + msg.err.Error()))
		return m, nil

	case answerTimeoutMsg:
		if msg.seq == m.seq && m.awaiting != "" {
			m.appendLine(ui.FrameTimeoutStyle.Render(fmt.Sprintf("(no answer to %q)", m.awaiting)))
			m.awaiting = ""
		}
		return m, nil

	case spinner.TickMsg:
		if m.awaiting == "" {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send writes the prompt line to the bridge
func (m Model) send() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" || m.awaiting != "" || m.Err != nil {
		return m, nil
	}

	if err := m.conn.Send(line); err != nil {
		m.Err = err
		m.input.Blur()
		m.appendLine(errorStyle.Render("✗ " + err.Error()))
		return m, nil
	}

	m.pushHistory(line)
	m.input.Reset()
	m.awaiting = line
	m.echoed = false
	m.seq++

	seq := m.seq
	timeout := tea.Tick(client.CommandTimeout(line)+answerGrace, func(time.Time) tea.Msg {
		return answerTimeoutMsg{seq: seq}
	})
	return m, tea.Batch(m.spinner.Tick, timeout)
}

// handleFrame shows a frame and settles the outstanding command once its
// answer arrives
func (m *Model) handleFrame(r protocol.Result) {
	m.appendLine(ui.FormatFrame(r))

	if m.awaiting == "" {
		return
	}
	switch {
	case !m.echoed && r.IsUnknown() && r.Response == m.awaiting:
		m.echoed = true
	case m.echoed && (r.IsOkOrNg() || r.IsTimeout()):
		m.awaiting = ""
	}
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxScrollback {
		m.lines = m.lines[len(m.lines)-maxScrollback:]
	}
	m.refresh()
}

// refresh redraws the scrollback, following the tail unless the user has
// scrolled away from it
func (m *Model) refresh() {
	follow := m.viewport.AtBottom()
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) resize(width, height int) {
	m.Width = width
	m.Height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-chromeHeight, 3)
	m.input.Width = max(width-8, 10)
	m.help.Width = width
	m.refresh()
}

// recall steps through the command history; dir is -1 for older
func (m *Model) recall(dir int) {
	pos := m.historyPos + dir
	if pos < 0 || pos > len(m.history) {
		return
	}
	m.historyPos = pos
	if pos == len(m.history) {
		m.input.SetValue("")
	} else {
		m.input.SetValue(m.history[pos])
	}
	m.input.CursorEnd()
}

func (m *Model) pushHistory(line string) {
	if n := len(m.history); n == 0 || m.history[n-1] != line {
		m.history = append(m.history, line)
		if len(m.history) > maxHistory {
			m.history = m.history[1:]
		}
	}
	m.historyPos = len(m.history)
}

// Lines returns the scrollback as rendered.
func (m Model) Lines() []string {
	return m.lines
}

// Awaiting returns the command whose answer is outstanding.
func (m Model) Awaiting() string {
	return m.awaiting
}

// View renders the console screen
func (m Model) View() string {
	header := headerStyle.Width(max(m.Width-2, 0)).Render(
		lipgloss.JoinHorizontal(lipgloss.Top, titleStyle.Render(AppName), "  ", subtleStyle.Render(m.URL)),
	)

	var status string
	switch {
	case m.Err != nil:
		status = errorStyle.Render("connection closed") + subtleStyle.Render(" (esc to quit)")
	case m.awaiting != "":
		status = m.spinner.View() + subtleStyle.Render(" waiting for "+m.awaiting)
	default:
		status = subtleStyle.Render(fmt.Sprintf("%d lines", len(m.lines)))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		status,
		m.input.View(),
		m.help.View(m.keys),
	)
}
