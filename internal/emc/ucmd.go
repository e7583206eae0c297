package emc

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/symbrkrs/emcbridge/internal/logging"
	"github.com/symbrkrs/emcbridge/internal/protocol"
)

const (
	// DefaultRecvTimeout is how long CmdSendRecv waits for OK/NG.
	DefaultRecvTimeout = 10 * time.Millisecond

	// echoTimePerByte scales the echo timeout with the framed length.
	echoTimePerByte = 200 * time.Microsecond

	// puareq1 answers with challenge data and takes about 160ms.
	puareq1Timeout = 200 * time.Millisecond

	nakByte   = 0x15
	nakSettle = 10 * time.Millisecond
)

// Nak resets the controller's receive state machine.
func (s *Session) Nak() {
	s.write([]byte{nakByte}, true)
	s.clock.Delay(nakSettle)
}

// CmdSend frames cmdline with its checksum and writes it. With waitEcho set
// it waits for the controller to echo cmdline back, discarding any other
// lines, and returns false if the echo does not arrive in time.
func (s *Session) CmdSend(cmdline string, waitEcho bool) bool {
	framed := protocol.AppendChecksum(cmdline)
	s.write([]byte(framed), waitEcho)
	if !waitEcho {
		return true
	}
	timeout := time.Duration(len(framed)) * echoTimePerByte
	for {
		line, ok := s.rx.ReadLineTimeout(timeout)
		if !ok {
			return false
		}
		if line == cmdline {
			return true
		}
		logging.Debug("discard", zap.String("line", line))
	}
}

// readResult reads lines until one is OK or NG. Other lines are logged and
// dropped. The timeout restarts with every line received.
func (s *Session) readResult(timeout time.Duration) protocol.Result {
	for {
		line, ok := s.rx.ReadLineTimeout(timeout)
		if !ok {
			return protocol.NewTimeout()
		}
		r := protocol.ParseResult(line)
		if r.IsOkOrNg() {
			return r
		}
		logging.Debug("skip", zap.String("line", r.Format()))
	}
}

// CmdSendRecv sends cmdline, waits for its echo, then waits up to timeout for
// the OK/NG result.
func (s *Session) CmdSendRecv(cmdline string, timeout time.Duration) protocol.Result {
	logging.LogUartTraffic(">", cmdline)
	if !s.CmdSend(cmdline, true) {
		logging.Debug("echo readback timeout", zap.String("cmd", cmdline))
		return protocol.NewTimeout()
	}
	r := s.readResult(timeout)
	logging.LogUartTraffic("<", r.Format())
	return r
}

// Version queries the controller firmware version.
func (s *Session) Version() protocol.Result {
	return s.CmdSendRecv("version", DefaultRecvTimeout)
}

// GetSerialNo only succeeds once the controller is unlocked.
func (s *Session) GetSerialNo() protocol.Result {
	return s.CmdSendRecv("getserialno", DefaultRecvTimeout)
}

// Puareq1 requests part of the authentication challenge. The challenge
// itself is ignored; the request only enables puareq2 processing.
func (s *Session) Puareq1(index uint32) bool {
	return s.CmdSendRecv(fmt.Sprintf("puareq1 %x", index), puareq1Timeout).IsSuccess()
}

// Puareq2 writes one response chunk into the controller's ucmd buffer.
func (s *Session) Puareq2(index uint32, chunk []byte) bool {
	cmd := fmt.Sprintf("puareq2 %x %s", index, protocol.BufToHex(chunk))
	return s.CmdSendRecv(cmd, DefaultRecvTimeout).IsSuccess()
}
