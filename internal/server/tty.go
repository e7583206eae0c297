package server

import (
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/symbrkrs/emcbridge/internal/logging"
	"github.com/symbrkrs/emcbridge/internal/transport"
)

var errStopped = errors.New("bridge stopped")

// lineSplitter turns a byte stream from a host tty into command lines.
type lineSplitter struct {
	mu     sync.Mutex
	buf    []byte
	submit func(string) bool
}

func (l *lineSplitter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range p {
		if c != '\n' {
			if len(l.buf) < maxMessageSize {
				l.buf = append(l.buf, c)
			}
			continue
		}
		line := strings.TrimRight(string(l.buf), "\r")
		l.buf = l.buf[:0]
		if line != "" && !l.submit(line) {
			return len(p), errStopped
		}
	}
	return len(p), nil
}

// AttachTTY serves the EMC console on a serial tty as well, typically the
// board's USB CDC-ACM gadget. Lines read from the tty are commands; result
// frames are written back to it.
func (s *Server) AttachTTY(u *transport.UART) {
	s.AddHost(u)
	u.Start(&lineSplitter{submit: s.Submit})
	logging.Info("Serving EMC console on tty", zap.String("device", u.Device()))
}
