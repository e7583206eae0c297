package protocol

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// BufToHex encodes raw bytes as uppercase hex, matching the case the
// controller uses for status codes and checksums.
func BufToHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// HexToBuf decodes an even-length hex string. Both cases are accepted.
func HexToBuf(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}
