package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Host frame layout.
const (
	FrameTypeSize   = 1
	FrameLengthSize = 4
	FrameStatusSize = 4
	FrameHeaderSize = FrameTypeSize + FrameLengthSize

	// MaxFrameLength bounds the length field accepted by the decoder.
	MaxFrameLength = 64 * 1024
)

// WireFrame encodes the result for the host channel:
//
//	[type:1][length:4 LE][status:4 LE, OK/NG only][payload]
//
// length counts the status field (when present) plus the payload.
func (r Result) WireFrame() []byte {
	length := len(r.Response)
	if r.IsOkOrNg() {
		length += FrameStatusSize
	}

	frame := make([]byte, FrameHeaderSize+length)
	frame[0] = byte(r.Type)
	binary.LittleEndian.PutUint32(frame[FrameTypeSize:FrameHeaderSize], uint32(length))

	pos := FrameHeaderSize
	if r.IsOkOrNg() {
		binary.LittleEndian.PutUint32(frame[pos:pos+FrameStatusSize], r.Status)
		pos += FrameStatusSize
	}
	copy(frame[pos:], r.Response)
	return frame
}

// DecodeFrame parses one frame from the start of data and returns the result
// and the number of bytes consumed.
func DecodeFrame(data []byte) (Result, int, error) {
	if len(data) < FrameHeaderSize {
		return Result{}, 0, fmt.Errorf("frame too short: %d bytes (minimum %d)", len(data), FrameHeaderSize)
	}
	typ := ResultType(data[0])
	if typ > ResultNg {
		return Result{}, 0, fmt.Errorf("invalid frame type: 0x%02x", data[0])
	}
	length := binary.LittleEndian.Uint32(data[FrameTypeSize:FrameHeaderSize])
	if length > MaxFrameLength {
		return Result{}, 0, fmt.Errorf("frame length %d exceeds maximum %d", length, MaxFrameLength)
	}
	total := FrameHeaderSize + int(length)
	if len(data) < total {
		return Result{}, 0, fmt.Errorf("truncated frame: have %d bytes, need %d", len(data), total)
	}
	result, err := decodeBody(typ, data[FrameHeaderSize:total])
	if err != nil {
		return Result{}, 0, err
	}
	return result, total, nil
}

// ReadFrame reads exactly one frame from r.
func ReadFrame(r io.Reader) (Result, error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return Result{}, fmt.Errorf("failed to read frame header: %w", err)
	}
	typ := ResultType(header[0])
	if typ > ResultNg {
		return Result{}, fmt.Errorf("invalid frame type: 0x%02x", header[0])
	}
	length := binary.LittleEndian.Uint32(header[FrameTypeSize:])
	if length > MaxFrameLength {
		return Result{}, fmt.Errorf("frame length %d exceeds maximum %d", length, MaxFrameLength)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return Result{}, fmt.Errorf("failed to read frame body: %w", err)
	}
	return decodeBody(typ, body)
}

func decodeBody(typ ResultType, body []byte) (Result, error) {
	if typ == ResultOk || typ == ResultNg {
		if len(body) < FrameStatusSize {
			return Result{}, fmt.Errorf("%s frame missing status field", typ)
		}
		return Result{
			Type:     typ,
			Status:   binary.LittleEndian.Uint32(body[:FrameStatusSize]),
			Response: string(body[FrameStatusSize:]),
		}, nil
	}
	return Result{Type: typ, Status: InvalidStatus, Response: string(body)}, nil
}

// IsRomFrame reports whether the result carries raw ROM-mode bytes.
func (r Result) IsRomFrame() bool {
	return r.IsOkStatus(StatusRomFrame)
}

// RomBytes decodes the payload of a ROM frame.
func (r Result) RomBytes() ([]byte, error) {
	if !r.IsRomFrame() {
		return nil, fmt.Errorf("not a ROM frame: %s", r.Format())
	}
	return HexToBuf(r.Response)
}
