package emc

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/symbrkrs/emcbridge/internal/consts"
	"github.com/symbrkrs/emcbridge/internal/logging"
	"github.com/symbrkrs/emcbridge/internal/protocol"
	"github.com/symbrkrs/emcbridge/internal/ringbuf"
	"github.com/symbrkrs/emcbridge/internal/timing"
)

const (
	// UcmdBaudRate is the controller's normal console speed.
	UcmdBaudRate = 115200

	// RomBaudRate is the boot ROM's speed.
	RomBaudRate = 460800

	// DefaultServiceSlice bounds one ServiceUART call.
	DefaultServiceSlice = time.Millisecond

	resetPulse   = 100 * time.Microsecond
	romReadChunk = 0x100
)

// Config holds the dependencies of a Session.
type Config struct {
	// Port is the controller UART. Required.
	Port Port

	// Rx is fed by the UART reader. Required.
	Rx *ringbuf.Buffer

	// Registry supplies firmware constants and chip presets. Required.
	Registry *consts.Registry

	// Reset drives and senses the controller reset line. Defaults to NopLine.
	Reset Line

	// Rom selects the controller boot ROM. Defaults to NopLine.
	Rom Line

	// Clock defaults to the system clock.
	Clock timing.Clock

	// Chip overrides the registry's default chip preset when non-nil.
	Chip *consts.ChipConsts

	// Reboot handles picoreset. When nil picoreset is rejected.
	Reboot RebootFunc
}

// Session is the state of one controller connection.
type Session struct {
	port     Port
	rx       *ringbuf.Buffer
	registry *consts.Registry
	reset    Line
	rom      Line
	clock    timing.Clock
	reboot   RebootFunc

	chip        consts.ChipConsts
	fwConsts    consts.FwConstants
	fwConstsSet bool
	inRom       bool
}

// NewSession validates cfg and returns a session in normal (non-ROM) mode.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Port == nil {
		return nil, errors.New("emc: port is required")
	}
	if cfg.Rx == nil {
		return nil, errors.New("emc: receive buffer is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("emc: constants registry is required")
	}
	s := &Session{
		port:     cfg.Port,
		rx:       cfg.Rx,
		registry: cfg.Registry,
		reset:    cfg.Reset,
		rom:      cfg.Rom,
		clock:    cfg.Clock,
		reboot:   cfg.Reboot,
		chip:     cfg.Registry.DefaultChip(),
	}
	if s.reset == nil {
		s.reset = NopLine{}
	}
	if s.rom == nil {
		s.rom = NopLine{}
	}
	if s.clock == nil {
		s.clock = timing.System()
	}
	if cfg.Chip != nil {
		s.chip = *cfg.Chip
	}
	return s, nil
}

// InRom reports whether the controller was last switched into its boot ROM.
func (s *Session) InRom() bool {
	return s.inRom
}

// Chip returns the chip constants currently in use.
func (s *Session) Chip() consts.ChipConsts {
	return s.chip
}

// FwConstants returns the cached firmware constants, if resolved.
func (s *Session) FwConstants() (consts.FwConstants, bool) {
	return s.fwConsts, s.fwConstsSet
}

// ServiceUART relays buffered controller output to host until nothing is
// pending or maxSlice has elapsed. In normal mode each valid line becomes
// one result frame; in ROM mode raw bytes are sent hex encoded as ROM frames.
func (s *Session) ServiceUART(host HostWriter, maxSlice time.Duration) error {
	deadline := timing.After(s.clock, maxSlice)
	for {
		var r protocol.Result
		if !s.inRom {
			line, ok := s.rx.ReadLine()
			if !ok {
				s.flushIfJammed()
				return nil
			}
			logging.LogHostResponse(line)
			r = protocol.ParseResult(line)
		} else {
			buf := make([]byte, romReadChunk)
			n := s.rx.ReadBuf(buf)
			if n == 0 {
				return nil
			}
			logging.LogRawBytes("host<", buf[:n])
			r = protocol.NewRomFrame(buf[:n])
		}
		if err := host.WriteResult(r); err != nil {
			return err
		}
		if deadline.Expired() {
			return nil
		}
	}
}

// flushIfJammed clears a full ring holding no line end. Such a ring can
// never yield a line and would drop every byte that follows.
func (s *Session) flushIfJammed() {
	if s.rx.PendingLines() == 0 && s.rx.Available() == s.rx.Cap()-1 {
		logging.Warn("Receive buffer full without a line end, clearing", zap.Int("bytes", s.rx.Available()))
		s.rx.Clear()
	}
}

func (s *Session) write(p []byte, waitTx bool) {
	if _, err := s.port.Write(p); err != nil {
		logging.Warn("UART write failed", zap.Error(err))
		return
	}
	if waitTx {
		if err := s.port.Drain(); err != nil {
			logging.Warn("UART drain failed", zap.Error(err))
		}
	}
}

func (s *Session) setBaudRate(baud int) {
	if err := s.port.SetBaudRate(baud); err != nil {
		logging.Warn("Failed to set baud rate", zap.Int("baud", baud), zap.Error(err))
	}
}

// inReset reports whether the reset line is currently held low.
func (s *Session) inReset() bool {
	high, err := s.reset.Sample()
	if err != nil {
		logging.Warn("Failed to sample reset line", zap.Error(err))
		return false
	}
	return !high
}

func (s *Session) lineLow(l Line, name string) {
	if err := l.SetLow(); err != nil {
		logging.Warn("Failed to drive line low", zap.String("line", name), zap.Error(err))
	}
}

func (s *Session) lineRelease(l Line, name string) {
	if err := l.Release(); err != nil {
		logging.Warn("Failed to release line", zap.String("line", name), zap.Error(err))
	}
}

// EmcReset pulses the controller reset line.
func (s *Session) EmcReset() {
	s.lineLow(s.reset, "reset")
	s.clock.Delay(resetPulse)
	s.lineRelease(s.reset, "reset")
}
