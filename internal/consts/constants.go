package consts

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FwConstants are the firmware specific values needed to build the payload.
type FwConstants struct {
	// UcmdBufAddr is where the ucmd receive buffer lives. The payload is
	// written here and the command table pointer is redirected to it.
	UcmdBufAddr uint32

	// Shellcode runs when the injected command is invoked.
	Shellcode []byte
}

// Describe renders the constants for display.
func (f FwConstants) Describe() string {
	return fmt.Sprintf("ucmd_ua_buf_addr: 0x%08x\nshellcode (%d bytes): %s",
		f.UcmdBufAddr, len(f.Shellcode), hex.EncodeToString(f.Shellcode))
}

// ChipConsts tune the out-of-bounds write to a chip revision.
//
// The filler is not expected to be fully processed by the controller; it only
// has to be long enough that the ucmd receive buffer is full even if the
// controller's own UART ring dropped bytes.
type ChipConsts struct {
	FillerMultiplier uint32
	PostProcess      time.Duration
	PwnDelay         time.Duration
}

func (c ChipConsts) String() string {
	return fmt.Sprintf("filler x%d, post-process %s, pwn delay %s",
		c.FillerMultiplier, c.PostProcess, c.PwnDelay)
}

// NormalizeVersion turns the dotted version form used on the host command
// line into the space separated form the controller reports.
func NormalizeVersion(v string) string {
	return strings.ReplaceAll(v, ".", " ")
}

// ParseFwConstants parses a hex buffer address and hex shellcode.
func ParseFwConstants(addrHex, shellcodeHex string) (FwConstants, error) {
	addr, err := strconv.ParseUint(addrHex, 16, 32)
	if err != nil {
		return FwConstants{}, fmt.Errorf("invalid buffer address %q: %w", addrHex, err)
	}
	sc, err := hex.DecodeString(shellcodeHex)
	if err != nil {
		return FwConstants{}, fmt.Errorf("invalid shellcode: %w", err)
	}
	return FwConstants{UcmdBufAddr: uint32(addr), Shellcode: sc}, nil
}

// ParseChipConsts parses raw chip constants given as hex strings: a u8 filler
// multiplier, a u16 post-process time in milliseconds and a u16 pwn delay in
// microseconds.
func ParseChipConsts(filler, postMs, delayUs string) (ChipConsts, error) {
	f, err := strconv.ParseUint(filler, 16, 8)
	if err != nil {
		return ChipConsts{}, fmt.Errorf("invalid filler multiplier %q: %w", filler, err)
	}
	ms, err := strconv.ParseUint(postMs, 16, 16)
	if err != nil {
		return ChipConsts{}, fmt.Errorf("invalid post-process time %q: %w", postMs, err)
	}
	us, err := strconv.ParseUint(delayUs, 16, 16)
	if err != nil {
		return ChipConsts{}, fmt.Errorf("invalid pwn delay %q: %w", delayUs, err)
	}
	return ChipConsts{
		FillerMultiplier: uint32(f),
		PostProcess:      time.Duration(ms) * time.Millisecond,
		PwnDelay:         time.Duration(us) * time.Microsecond,
	}, nil
}
