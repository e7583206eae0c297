// Package protocol implements the auxiliary controller's line protocol and the
// bridge's host-facing binary frame.
//
// # Line Protocol
//
// Every line exchanged with the controller is ASCII, LF-terminated, and ends
// with a checksum suffix:
//
//	version:5F\n
//
// The two uppercase hex digits after the last colon are the sum, modulo 256,
// of every byte before the colon. Lines with a missing or wrong suffix are
// dropped by the receive path.
//
// # Responses
//
// After stripping the suffix, a line is classified into a Result:
//   - "# text": comment
//   - "$$ text": info
//   - "OK XXXXXXXX[ text]": success response with 32-bit hex status
//   - "NG XXXXXXXX[ text]": failure response with 32-bit hex status
//   - anything else: unknown
//
// Parsing is total. Malformed OK/NG lines degrade to unknown rather than
// returning an error.
//
// # Host Frame
//
// Results are relayed to the host as binary frames:
//
//	[0]      type            ResultType (1 byte)
//	[1-4]    length          little-endian uint32, bytes that follow
//	[5-8]    status          little-endian uint32, only for OK/NG
//	[...]    payload         response text
//
// The layout matches the bridge firmware's 32-bit in-memory encoding and is
// relied on by host tooling, so field widths and order must not change.
//
// # Status Codes
//
// Codes 0xE0000000 and 0xF0000000 ranges are reported by the controller.
// Codes from 0xDEAD0000 upward are synthesized by the bridge to describe
// unlock failures. StatusRomFrame marks frames carrying raw ROM-mode bytes.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use. Result is an
// immutable value type.
package protocol
