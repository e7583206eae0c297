// Package efc relays the secondary controller UART to the host unchanged.
//
// Unlike the EMC console there is no line protocol here: host bytes are
// written straight to the UART and received bytes are forwarded as they
// arrive. The host picks the line speed, the way a USB CDC host sets line
// coding.
package efc

import (
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/symbrkrs/emcbridge/internal/logging"
	"github.com/symbrkrs/emcbridge/internal/ringbuf"
	"github.com/symbrkrs/emcbridge/internal/timing"
)

// DefaultBaudRate is the controller's console speed.
const DefaultBaudRate = 460800

const readChunk = 512

// Port is the secondary UART.
type Port interface {
	io.Writer
	SetBaudRate(baud int) error
}

// Bridge is a raw passthrough between one UART and the host.
type Bridge struct {
	port  Port
	rx    *ringbuf.Buffer
	clock timing.Clock
	baud  int
}

// NewBridge returns a bridge for port. rx must be the buffer the port's
// reader goroutine pushes into. baud is the rate the port is currently set
// to.
func NewBridge(port Port, rx *ringbuf.Buffer, clock timing.Clock, baud int) (*Bridge, error) {
	if port == nil || rx == nil {
		return nil, errors.New("efc: port and receive buffer are required")
	}
	if clock == nil {
		clock = timing.System()
	}
	return &Bridge{port: port, rx: rx, clock: clock, baud: baud}, nil
}

// BaudRate returns the current line speed.
func (b *Bridge) BaudRate() int {
	return b.baud
}

// SetBaudRate changes the line speed if it differs from the current one.
func (b *Bridge) SetBaudRate(baud int) error {
	if baud <= 0 || baud == b.baud {
		return nil
	}
	if err := b.port.SetBaudRate(baud); err != nil {
		return err
	}
	logging.Info("EFC baud rate changed", zap.Int("from", b.baud), zap.Int("to", baud))
	b.baud = baud
	return nil
}

// WriteHost writes host bytes to the UART.
func (b *Bridge) WriteHost(p []byte) error {
	logging.LogRawBytes("efc>", p)
	_, err := b.port.Write(p)
	return err
}

// Service forwards buffered UART bytes to w until the buffer is empty or
// maxSlice has elapsed.
func (b *Bridge) Service(w io.Writer, maxSlice time.Duration) error {
	deadline := timing.After(b.clock, maxSlice)
	buf := make([]byte, readChunk)
	for {
		n := b.rx.ReadBuf(buf)
		if n == 0 {
			return nil
		}
		logging.LogRawBytes("efc<", buf[:n])
		if _, err := w.Write(buf[:n]); err != nil {
			return err
		}
		if deadline.Expired() {
			return nil
		}
	}
}
