package config

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"github.com/symbrkrs/emcbridge/internal/consts"
	"github.com/symbrkrs/emcbridge/internal/transport"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks every field and returns all problems joined, each one a
// *ConfigError.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ConfigError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Version != CurrentVersion {
		add("version", "unsupported config version %d (expected %d)", c.Version, CurrentVersion)
	}

	if c.EMC.Device == "" {
		add("emc.device", "serial device is required")
	}
	if c.EMC.Baud <= 0 {
		add("emc.baud", "baud rate must be positive, got %d", c.EMC.Baud)
	}
	reset, err := transport.ParseOutput(c.EMC.ResetLine)
	if err != nil {
		errs = append(errs, &ConfigError{Field: "emc.reset_line", Message: "invalid line", Err: err})
	}
	rom, err := transport.ParseOutput(c.EMC.RomLine)
	if err != nil {
		errs = append(errs, &ConfigError{Field: "emc.rom_line", Message: "invalid line", Err: err})
	}
	if reset != transport.OutputNone && reset == rom {
		add("emc.rom_line", "reset and ROM pins cannot share %s", c.EMC.RomLine)
	}
	if _, err := transport.ParseInput(c.EMC.ResetDetect); err != nil {
		errs = append(errs, &ConfigError{Field: "emc.reset_detect", Message: "invalid input", Err: err})
	}

	if c.EFC.Enabled {
		if c.EFC.Device == "" {
			add("efc.device", "serial device is required when the relay is enabled")
		} else if c.EFC.Device == c.EMC.Device {
			add("efc.device", "must differ from emc.device")
		}
		if c.EFC.Baud <= 0 {
			add("efc.baud", "baud rate must be positive, got %d", c.EFC.Baud)
		}
	}

	if c.Host.Listen == "" {
		add("host.listen", "listen address is required")
	}
	if !strings.HasPrefix(c.Host.Path, "/") {
		add("host.path", "must start with /, got %q", c.Host.Path)
	}
	if !strings.HasPrefix(c.Host.EFCPath, "/") {
		add("host.efc_path", "must start with /, got %q", c.Host.EFCPath)
	} else if c.Host.EFCPath == c.Host.Path {
		add("host.efc_path", "must differ from host.path")
	}
	if c.Host.TTY != "" && (c.Host.TTY == c.EMC.Device || c.Host.TTY == c.EFC.Device) {
		add("host.tty", "must not be one of the controller UARTs")
	}

	if c.BufferSize < 2 || bits.OnesCount(uint(c.BufferSize)) != 1 {
		add("buffer_size", "must be a power of two >= 2, got %d", c.BufferSize)
	}
	if !logLevels[c.LogLevel] {
		add("log_level", "unknown level %q (want debug, info, warn or error)", c.LogLevel)
	}

	reg, err := consts.NewRegistry()
	if err != nil {
		errs = append(errs, err)
	} else {
		if _, err := c.ChipConsts(reg); err != nil {
			errs = append(errs, err)
		}
		for i, fw := range c.Firmwares {
			if _, err := fw.Constants(); err != nil {
				errs = append(errs, &ConfigError{Field: fmt.Sprintf("firmwares[%d]", i), Message: "invalid firmware constants", Err: err})
			}
		}
	}

	return errors.Join(errs...)
}
