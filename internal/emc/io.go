package emc

import (
	"io"

	"github.com/symbrkrs/emcbridge/internal/protocol"
)

// Port is the UART connected to the controller.
type Port interface {
	io.Writer

	// Drain blocks until all written bytes have left the transmitter.
	Drain() error

	// SetBaudRate reconfigures the line speed.
	SetBaudRate(baud int) error
}

// Line is an active-low, open-drain control line.
type Line interface {
	// SetLow drives the line low.
	SetLow() error

	// Release stops driving the line and lets it float high.
	Release() error

	// Sample reads the line level. true means high.
	Sample() (bool, error)
}

// HostWriter receives result frames destined for the host.
type HostWriter interface {
	WriteResult(r protocol.Result) error
}

// RebootFunc restarts the bridge. It is called for the picoreset command and
// is expected to return promptly; the restart itself may happen later.
type RebootFunc func()

// NopLine is a Line for boards without the corresponding wire. It always
// reads high, which means "not in reset".
type NopLine struct{}

func (NopLine) SetLow() error         { return nil }
func (NopLine) Release() error        { return nil }
func (NopLine) Sample() (bool, error) { return true, nil }
