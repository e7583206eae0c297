package protocol

import "fmt"

// Status codes reported by the controller.
const (
	StatusSuccess        uint32 = 0
	StatusRxInputTooLong uint32 = 0xE0000002
	StatusRxInvalidChar  uint32 = 0xE0000003
	StatusRxInvalidCsum  uint32 = 0xE0000004
	StatusUcmdEINVAL     uint32 = 0xF0000001
	StatusUcmdUnknownCmd uint32 = 0xF0000006
)

// Synthetic status codes produced by the bridge itself.
const (
	StatusEmcInReset uint32 = 0xDEAD0000 + iota
	StatusFwConstsVersionFailed
	StatusFwConstsVersionUnknown
	StatusFwConstsInvalid
	StatusSetPayloadTooLarge
	StatusSetPayloadPuareq1Failed
	StatusSetPayloadPuareq2Failed
	StatusExploitVersionUnexpected
	StatusExploitFailedEmcReset
	StatusChipConstsInvalid

	// StatusRomFrame tags OK frames whose payload is hex-encoded raw bytes
	// read while the controller is in ROM mode.
	StatusRomFrame
)

var statusNames = map[uint32]string{
	StatusSuccess:                  "Success",
	StatusRxInputTooLong:           "RxInputTooLong",
	StatusRxInvalidChar:            "RxInvalidChar",
	StatusRxInvalidCsum:            "RxInvalidCsum",
	StatusUcmdEINVAL:               "UcmdEINVAL",
	StatusUcmdUnknownCmd:           "UcmdUnknownCmd",
	StatusEmcInReset:               "EmcInReset",
	StatusFwConstsVersionFailed:    "FwConstsVersionFailed",
	StatusFwConstsVersionUnknown:   "FwConstsVersionUnknown",
	StatusFwConstsInvalid:          "FwConstsInvalid",
	StatusSetPayloadTooLarge:       "SetPayloadTooLarge",
	StatusSetPayloadPuareq1Failed:  "SetPayloadPuareq1Failed",
	StatusSetPayloadPuareq2Failed:  "SetPayloadPuareq2Failed",
	StatusExploitVersionUnexpected: "ExploitVersionUnexpected",
	StatusExploitFailedEmcReset:    "ExploitFailedEmcReset",
	StatusChipConstsInvalid:        "ChipConstsInvalid",
	StatusRomFrame:                 "RomFrame",
}

// StatusName returns a human-readable name for a status code.
func StatusName(status uint32) string {
	if name, ok := statusNames[status]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%08X)", status)
}

// IsSynthetic reports whether status was produced by the bridge rather than
// the controller.
func IsSynthetic(status uint32) bool {
	return status >= StatusEmcInReset && status <= StatusRomFrame
}
