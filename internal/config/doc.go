// Package config loads and saves the bridge configuration file.
//
// The file is YAML and describes how the bridge is wired: which serial
// devices carry the EMC and EFC consoles, which modem control lines drive
// the controller's reset and ROM pins, where host tools connect, which chip
// timing preset to use and any extra firmware constants.
//
// # Configuration File Location
//
// Unless a path is given explicitly the file lives in the platform's
// configuration directory:
//   - Linux: $XDG_CONFIG_HOME/emcbridge/config.yaml or $HOME/.config/emcbridge/config.yaml
//   - macOS: $HOME/.config/emcbridge/config.yaml
//   - Windows: %LOCALAPPDATA%\emcbridge\config.yaml
//
// A missing file is not an error; Load returns the defaults. Fields left
// out of the file keep their default values.
//
// # Example
//
//	version: 1
//	emc:
//	  device: /dev/ttyUSB0
//	  reset_line: dtr
//	  rom_line: rts
//	  reset_detect: cts
//	efc:
//	  enabled: true
//	  device: /dev/ttyUSB1
//	host:
//	  listen: ":8080"
//	chip: salina2
//	firmwares:
//	  - version: "E1E 0001 0000 0004 13D0"
//	    ucmd_ua_buf_addr: "1762e8"
//	    shellcode: "0e4b..."
//
// # Thread Safety
//
// Save is serialized by a package mutex and writes atomically through a
// temporary file.
package config
