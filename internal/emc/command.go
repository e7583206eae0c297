package emc

import (
	"strings"

	"go.uber.org/zap"

	"github.com/symbrkrs/emcbridge/internal/logging"
	"github.com/symbrkrs/emcbridge/internal/protocol"
)

// CommandType classifies a host command line.
type CommandType int

const (
	CommandUnlock CommandType = iota
	CommandPicoReset
	CommandEmcReset
	CommandEmcRom
	CommandSetFwConsts
	CommandSetChipConsts
	CommandPassthroughUcmd
	CommandPassthroughRom
)

var commandNames = [...]string{
	CommandUnlock:          "unlock",
	CommandPicoReset:       "picoreset",
	CommandEmcReset:        "picoemcreset",
	CommandEmcRom:          "picoemcrom",
	CommandSetFwConsts:     "picofwconst",
	CommandSetChipConsts:   "picochipconst",
	CommandPassthroughUcmd: "passthrough-ucmd",
	CommandPassthroughRom:  "passthrough-rom",
}

func (t CommandType) String() string {
	if t >= 0 && int(t) < len(commandNames) {
		return commandNames[t]
	}
	return "invalid"
}

// IsControl reports whether the command is handled by the bridge itself.
func (t CommandType) IsControl() bool {
	return t != CommandPassthroughUcmd && t != CommandPassthroughRom
}

// controlPrefixes is checked in order; first match wins.
var controlPrefixes = []struct {
	prefix string
	typ    CommandType
}{
	{"unlock", CommandUnlock},
	{"picoreset", CommandPicoReset},
	{"picoemcreset", CommandEmcReset},
	{"picoemcrom", CommandEmcRom},
	{"picofwconst", CommandSetFwConsts},
	{"picochipconst", CommandSetChipConsts},
}

// ParseCommandType classifies cmd. Anything that is not a control command is
// passthrough, raw in ROM mode and ucmd otherwise.
func (s *Session) ParseCommandType(cmd string) CommandType {
	for _, p := range controlPrefixes {
		if strings.HasPrefix(cmd, p.prefix) {
			return p.typ
		}
	}
	if s.inRom {
		return CommandPassthroughRom
	}
	return CommandPassthroughUcmd
}

// ProcessCommand handles one line from the host. Passthrough commands are
// forwarded without waiting for a response; the controller's answer reaches
// the host through ServiceUART. Control commands are echoed back as an
// Unknown frame followed by their result frame.
func (s *Session) ProcessCommand(cmd string, host HostWriter) error {
	logging.LogHostCommand(cmd)
	typ := s.ParseCommandType(cmd)

	switch typ {
	case CommandPassthroughUcmd:
		s.CmdSend(cmd, false)
		return nil
	case CommandPassthroughRom:
		// The host channel is line buffered, so raw bytes arrive hex encoded.
		raw, err := protocol.HexToBuf(cmd)
		if err != nil {
			logging.Debug("Dropping ROM passthrough", zap.Error(err))
			return nil
		}
		s.write(raw, false)
		return nil
	}

	if err := host.WriteResult(protocol.NewUnknown(cmd)); err != nil {
		return err
	}

	var r protocol.Result
	switch typ {
	case CommandUnlock:
		r = s.Unlock()
	case CommandPicoReset:
		if s.reboot == nil {
			r = protocol.NewNg(protocol.StatusUcmdUnknownCmd, "")
			break
		}
		logging.Info("Bridge restart requested")
		s.reboot()
		// Like a real device reset, nothing follows the echo.
		return nil
	case CommandEmcReset:
		s.EmcReset()
		r = protocol.NewSuccess("")
	case CommandEmcRom:
		r = s.RomEnterExit(cmd)
	case CommandSetFwConsts:
		r = s.SetFwConsts(cmd)
	case CommandSetChipConsts:
		r = s.SetChipConsts(cmd)
	default:
		r = protocol.NewNg(protocol.StatusUcmdUnknownCmd, "")
	}
	return host.WriteResult(r)
}
