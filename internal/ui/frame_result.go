package ui

import (
	"errors"
	"fmt"

	"github.com/symbrkrs/emcbridge/internal/protocol"
)

// NewFrameResult builds a result box for a controller answer. OK becomes a
// success box, NG and timeouts become failure boxes with hints for the
// bridge's own status codes.
func NewFrameResult(title string, r protocol.Result) *Result {
	switch {
	case r.IsOk():
		details := map[string]string{"Status": protocol.StatusName(r.Status)}
		if r.Response != "" {
			details["Response"] = r.Response
		}
		return NewSuccessResult(title, details)

	case r.IsNg():
		err := fmt.Errorf("NG %08X %s", r.Status, protocol.StatusName(r.Status))
		if r.Response != "" {
			err = fmt.Errorf("%w: %s", err, r.Response)
		}
		return NewFailureResult(title, err, StatusHints(r.Status))

	case r.IsTimeout():
		return NewFailureResult(title, errors.New("controller did not answer"), []string{
			"Check the UART wiring between bridge and controller",
			"The controller may be in ROM mode; try picoemcrom",
		})

	default:
		return NewWarningResult(title, map[string]string{"Output": r.Format()})
	}
}

// StatusHints returns troubleshooting tips for an NG status.
func StatusHints(status uint32) []string {
	switch status {
	case protocol.StatusEmcInReset:
		return []string{
			"The controller is held in reset",
			"Release it with picoemcreset or check the reset wiring",
		}
	case protocol.StatusFwConstsVersionFailed:
		return []string{"The controller did not answer the version command", "Check the UART wiring and baud rate"}
	case protocol.StatusFwConstsVersionUnknown:
		return []string{
			"No exploit constants are known for this firmware",
			"List known versions with: emcbridge consts list",
			"Add constants with: emcbridge-cli fwconst <version> <addr> <shellcode>",
		}
	case protocol.StatusFwConstsInvalid:
		return []string{"The buffer address contains a byte the console cannot carry", "Check the firmware constants"}
	case protocol.StatusSetPayloadTooLarge:
		return []string{"The shellcode does not fit the command buffer"}
	case protocol.StatusSetPayloadPuareq1Failed, protocol.StatusSetPayloadPuareq2Failed:
		return []string{"The controller rejected the payload upload", "Reset the controller and retry"}
	case protocol.StatusExploitVersionUnexpected:
		return []string{
			"The command table overwrite did not take effect",
			"Try another chip preset with: emcbridge-cli chipconst <preset>",
		}
	case protocol.StatusExploitFailedEmcReset:
		return []string{
			"The unlock failed and the controller was reset",
			"Retry; timing sensitive chips may need a different chip preset",
		}
	case protocol.StatusChipConstsInvalid:
		return []string{"Use a preset name or three hex fields: filler ms µs"}
	case protocol.StatusRxInvalidCsum, protocol.StatusRxInvalidChar, protocol.StatusRxInputTooLong:
		return []string{"The controller rejected the command line", "Check the command for typos"}
	case protocol.StatusUcmdUnknownCmd:
		return []string{"The controller does not know this command", "Unlock it first to reach locked commands"}
	}
	return nil
}

// FrameError turns an unwanted controller answer into an error.
type FrameError struct {
	Result protocol.Result
}

func (e *FrameError) Error() string {
	if e.Result.IsTimeout() {
		return "controller did not answer"
	}
	return fmt.Sprintf("%s (%s)", e.Result.Format(), protocol.StatusName(e.Result.Status))
}

// Hints returns the troubleshooting tips for the answer's status.
func (e *FrameError) Hints() []string {
	if e.Result.IsNg() {
		return StatusHints(e.Result.Status)
	}
	return nil
}
