package emc

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/symbrkrs/emcbridge/internal/consts"
	"github.com/symbrkrs/emcbridge/internal/logging"
	"github.com/symbrkrs/emcbridge/internal/protocol"
	"github.com/symbrkrs/emcbridge/internal/timing"
)

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08x", v)
}

// SetFwConsts handles "picofwconst <version> <addr> <shellcode>". Dots in
// the version stand for spaces. The cached constants are dropped so the next
// unlock resolves again.
func (s *Session) SetFwConsts(cmd string) protocol.Result {
	ng := protocol.NewNg(protocol.StatusFwConstsInvalid, "")
	parts := strings.Fields(cmd)
	if len(parts) != 4 {
		return ng
	}
	version := consts.NormalizeVersion(parts[1])
	fc, err := consts.ParseFwConstants(parts[2], parts[3])
	if err != nil {
		logging.Debug("picofwconst rejected", zap.Error(err))
		return ng
	}
	s.registry.Set(version, fc)
	s.fwConsts = consts.FwConstants{}
	s.fwConstsSet = false
	logging.Info("Firmware constants set",
		zap.String("version", version),
		zap.String("ucmd_ua_buf_addr", hex32(fc.UcmdBufAddr)),
		zap.Int("shellcode_len", len(fc.Shellcode)))
	return protocol.NewSuccess("")
}

// SetChipConsts handles "picochipconst <preset>" and
// "picochipconst <filler> <post-ms> <delay-us>" with hex arguments.
func (s *Session) SetChipConsts(cmd string) protocol.Result {
	ng := protocol.NewNg(protocol.StatusChipConstsInvalid, "")
	parts := strings.Fields(cmd)
	switch len(parts) {
	case 2:
		c, ok := s.registry.ChipPreset(parts[1])
		if !ok {
			return ng
		}
		s.chip = c
	case 4:
		c, err := consts.ParseChipConsts(parts[1], parts[2], parts[3])
		if err != nil {
			logging.Debug("picochipconst rejected", zap.Error(err))
			return ng
		}
		s.chip = c
	default:
		return ng
	}
	logging.Info("Chip constants set", zap.Stringer("chip", s.chip))
	return protocol.NewSuccess("")
}

// RomEnterExit handles "picoemcrom enter|exit". The controller is held in
// reset while the ROM select line and baud rate change.
func (s *Session) RomEnterExit(cmd string) protocol.Result {
	parts := strings.Fields(cmd)
	if len(parts) != 2 {
		return protocol.NewNg(protocol.StatusUcmdUnknownCmd, "")
	}
	var enter bool
	switch parts[1] {
	case "enter":
		enter = true
	case "exit":
	default:
		return protocol.NewNg(protocol.StatusUcmdUnknownCmd, "")
	}

	s.lineLow(s.reset, "reset")
	release := timing.After(s.clock, resetPulse)
	if enter {
		s.lineLow(s.rom, "rom")
		s.setBaudRate(RomBaudRate)
	} else {
		s.lineRelease(s.rom, "rom")
		s.setBaudRate(UcmdBaudRate)
	}
	s.rx.Clear()

	release.Wait()
	s.inRom = enter
	s.lineRelease(s.reset, "reset")

	logging.Info("Controller ROM mode changed", zap.Bool("in_rom", enter))
	return protocol.NewSuccess("")
}
