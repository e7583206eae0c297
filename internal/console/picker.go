package console

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/symbrkrs/emcbridge/internal/discovery"
)

// ErrNoBridge is returned by Pick when there is nothing to choose from or
// the user quits without choosing.
var ErrNoBridge = errors.New("no bridge selected")

// bridgeItem wraps a Device for use with bubbles/list
type bridgeItem struct {
	device *discovery.Device
}

// FilterValue filters by instance, hostname or IP
func (b bridgeItem) FilterValue() string {
	return b.device.Instance + " " + b.device.Hostname + " " + b.device.IP
}

// Title returns the instance name for list display
func (b bridgeItem) Title() string {
	return b.device.Instance
}

// Description returns bridge details for list display
func (b bridgeItem) Description() string {
	v := b.device.Version()
	if v == "" {
		v = "unknown"
	}
	efc := "no"
	if b.device.HasEFC() {
		efc = "yes"
	}
	return fmt.Sprintf("%s:%d • version %s • EFC relay %s", b.device.IP, b.device.Port, v, efc)
}

// pickerModel lets the user choose one of several discovered bridges
type pickerModel struct {
	list   list.Model
	choice *discovery.Device
	choose key.Binding
	quit   key.Binding
}

func newPicker(devices []*discovery.Device) pickerModel {
	items := make([]list.Item, len(devices))
	for i, d := range devices {
		items[i] = bridgeItem{device: d}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Bridges on this network"
	l.Styles.Title = pickerTitleStyle
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return pickerModel{
		list: l,
		choose: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "connect"),
		),
		quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c", "q"),
			key.WithHelp("esc", "quit"),
		),
	}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-1)
		return m, nil

	case tea.KeyMsg:
		// Keys belong to the filter input while it is open
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.choose):
			if item, ok := m.list.SelectedItem().(bridgeItem); ok {
				m.choice = item.device
			}
			return m, tea.Quit
		case key.Matches(msg, m.quit):
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	return m.list.View()
}

// Pick returns the bridge to connect to. A single device is returned
// without asking.
func Pick(devices []*discovery.Device) (*discovery.Device, error) {
	switch len(devices) {
	case 0:
		return nil, ErrNoBridge
	case 1:
		return devices[0], nil
	}

	final, err := tea.NewProgram(newPicker(devices), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	if m, ok := final.(pickerModel); ok && m.choice != nil {
		return m.choice, nil
	}
	return nil, ErrNoBridge
}
