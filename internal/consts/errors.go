package consts

import (
	"fmt"
	"strings"
)

// FirmwareUnsupportedError is returned when a controller reports a version
// with no known constants.
type FirmwareUnsupportedError struct {
	// Version is the version string the controller reported
	Version string
	// Available lists the versions the registry knows about
	Available []string
}

func (e *FirmwareUnsupportedError) Error() string {
	msg := fmt.Sprintf("unsupported firmware version %q", e.Version)
	if len(e.Available) > 0 {
		msg += "\nKnown versions:\n  " + strings.Join(e.Available, "\n  ")
	}
	msg += "\nHint: add constants with picofwconst or the firmwares section of the config file."
	return msg
}
