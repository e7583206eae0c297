package config

import (
	"fmt"
	"strings"

	"github.com/symbrkrs/emcbridge/internal/consts"
	"github.com/symbrkrs/emcbridge/internal/efc"
	"github.com/symbrkrs/emcbridge/internal/emc"
	"github.com/symbrkrs/emcbridge/internal/ringbuf"
	"github.com/symbrkrs/emcbridge/internal/server"
)

// CurrentVersion is the only file format version understood.
const CurrentVersion = 1

// Config represents the entire bridge configuration file.
type Config struct {
	Version int  `yaml:"version"`
	EMC     EMC  `yaml:"emc"`
	EFC     EFC  `yaml:"efc"`
	Host    Host `yaml:"host"`

	// Chip is a preset name ("salina") or three hex fields in picochipconst
	// order: filler multiplier, post-process ms, pwn delay µs ("06 320 384").
	Chip string `yaml:"chip"`

	// Firmwares adds or replaces firmware constants at start.
	Firmwares []Firmware `yaml:"firmwares,omitempty"`

	MDNS MDNS `yaml:"mdns"`

	// BufferSize is the receive ring size per UART. Must be a power of two.
	BufferSize int `yaml:"buffer_size"`

	LogLevel string `yaml:"log_level"`
}

// EMC describes the controller console UART and its control pins.
type EMC struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`

	// ResetLine and RomLine name the modem outputs wired to the
	// controller's reset and ROM pins: dtr, rts or none.
	ResetLine string `yaml:"reset_line"`
	RomLine   string `yaml:"rom_line"`

	// ResetDetect names the modem input sensing the reset pin: cts, dsr,
	// dcd, ri or none.
	ResetDetect string `yaml:"reset_detect"`
}

// EFC describes the optional secondary UART relay.
type EFC struct {
	Enabled bool   `yaml:"enabled"`
	Device  string `yaml:"device,omitempty"`
	Baud    int    `yaml:"baud"`
}

// Host describes where host tools connect.
type Host struct {
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
	EFCPath string `yaml:"efc_path"`

	// TTY optionally serves the console on a serial gadget as well.
	TTY string `yaml:"tty,omitempty"`
}

// MDNS controls service advertisement.
type MDNS struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance,omitempty"`
}

// Firmware is one user supplied firmware constants entry.
type Firmware struct {
	// Version may use dots in place of spaces.
	Version     string `yaml:"version"`
	UcmdBufAddr string `yaml:"ucmd_ua_buf_addr"`
	Shellcode   string `yaml:"shellcode"`
}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		EMC: EMC{
			Device:      defaultDevice,
			Baud:        emc.UcmdBaudRate,
			ResetLine:   "dtr",
			RomLine:     "rts",
			ResetDetect: "none",
		},
		EFC: EFC{
			Baud: efc.DefaultBaudRate,
		},
		Host: Host{
			Listen:  ":8080",
			Path:    server.DefaultEMCPath,
			EFCPath: server.DefaultEFCPath,
		},
		Chip:       "salina",
		BufferSize: ringbuf.DefaultSize,
		LogLevel:   "info",
	}
}

// ChipConsts resolves the chip setting against the registry's presets.
func (c *Config) ChipConsts(reg *consts.Registry) (consts.ChipConsts, error) {
	fields := strings.Fields(c.Chip)
	switch len(fields) {
	case 0:
		return reg.DefaultChip(), nil
	case 1:
		cc, ok := reg.ChipPreset(fields[0])
		if !ok {
			return consts.ChipConsts{}, &ConfigError{
				Field:   "chip",
				Message: fmt.Sprintf("unknown chip preset %q (known: %s)", fields[0], strings.Join(reg.ChipPresets(), ", ")),
			}
		}
		return cc, nil
	case 3:
		cc, err := consts.ParseChipConsts(fields[0], fields[1], fields[2])
		if err != nil {
			return consts.ChipConsts{}, &ConfigError{Field: "chip", Message: "invalid raw chip constants", Err: err}
		}
		return cc, nil
	default:
		return consts.ChipConsts{}, &ConfigError{
			Field:   "chip",
			Message: fmt.Sprintf("want a preset name or three hex fields, got %q", c.Chip),
		}
	}
}

// ApplyFirmwares adds every firmwares entry to the registry.
func (c *Config) ApplyFirmwares(reg *consts.Registry) error {
	for i, fw := range c.Firmwares {
		fc, err := fw.Constants()
		if err != nil {
			return &ConfigError{Field: fmt.Sprintf("firmwares[%d]", i), Message: "invalid firmware constants", Err: err}
		}
		reg.Set(consts.NormalizeVersion(fw.Version), fc)
	}
	return nil
}

// Constants parses the entry's hex fields.
func (f Firmware) Constants() (consts.FwConstants, error) {
	if strings.TrimSpace(f.Version) == "" {
		return consts.FwConstants{}, fmt.Errorf("version is required")
	}
	return consts.ParseFwConstants(f.UcmdBufAddr, f.Shellcode)
}
