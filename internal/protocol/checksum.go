package protocol

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ChecksumSuffixLen is the length of ":HH".
const ChecksumSuffixLen = 3

// Checksum returns the sum of all bytes in s, modulo 256.
func Checksum(s string) byte {
	var sum byte
	for i := 0; i < len(s); i++ {
		sum += s[i]
	}
	return sum
}

// AppendChecksum frames a command for the controller: cmd + ":HH\n".
func AppendChecksum(cmd string) string {
	return fmt.Sprintf("%s:%02X\n", cmd, Checksum(cmd))
}

// ValidateAndStrip checks the trailing ":HH" checksum of line and returns the
// line without the suffix or any trailing CR/LF. ok is false for empty lines,
// a missing or misplaced suffix, bad hex, or a checksum mismatch.
func ValidateAndStrip(line string) (string, bool) {
	if line == "" {
		return "", false
	}
	line = strings.TrimRight(line, "\r\n")

	colon := strings.LastIndexByte(line, ':')
	if colon < 0 || colon+ChecksumSuffixLen != len(line) {
		return "", false
	}
	csum, err := hex.DecodeString(line[colon+1:])
	if err != nil || len(csum) != 1 {
		return "", false
	}
	if csum[0] != Checksum(line[:colon]) {
		return "", false
	}
	return line[:colon], true
}
