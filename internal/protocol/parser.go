package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// ResultType identifies the kind of a parsed controller line. The numeric
// values are the host frame's type tag.
type ResultType uint8

const (
	ResultTimeout ResultType = iota
	ResultUnknown
	ResultComment
	ResultInfo
	ResultOk
	ResultNg
)

// String returns the lowercase name of the result type.
func (t ResultType) String() string {
	switch t {
	case ResultTimeout:
		return "timeout"
	case ResultUnknown:
		return "unknown"
	case ResultComment:
		return "comment"
	case ResultInfo:
		return "info"
	case ResultOk:
		return "ok"
	case ResultNg:
		return "ng"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// InvalidStatus is the status carried by every result that is not OK or NG.
const InvalidStatus uint32 = 0xFFFFFFFF

// Response line layout: "OK " + 8 hex digits + optional " " + text.
const (
	commentPrefix = "# "
	infoPrefix    = "$$ "
	okPrefix      = "OK "
	ngPrefix      = "NG "
	statusOffset  = len(okPrefix)
	statusDigits  = 8
	statusEnd     = statusOffset + statusDigits
)

// Result is a classified controller response.
type Result struct {
	Type     ResultType
	Status   uint32
	Response string
}

// ParseResult classifies a checksum-stripped line. It never fails: anything
// that is not a well-formed comment, info, OK or NG line becomes Unknown with
// the original text as its response.
func ParseResult(line string) Result {
	// e.g. "# [PSQ] [BT WAKE Disabled Start]"
	if len(line) > len(commentPrefix) && strings.HasPrefix(line, commentPrefix) {
		return Result{Type: ResultComment, Status: InvalidStatus, Response: line[len(commentPrefix):]}
	}
	// e.g. "$$ [MANU] PG2 ON"
	if len(line) > len(infoPrefix) && strings.HasPrefix(line, infoPrefix) {
		return Result{Type: ResultInfo, Status: InvalidStatus, Response: line[len(infoPrefix):]}
	}

	if len(line) < statusEnd {
		return NewUnknown(line)
	}
	isOk := strings.HasPrefix(line, okPrefix)
	isNg := strings.HasPrefix(line, ngPrefix)
	if !isOk && !isNg {
		return NewUnknown(line)
	}

	status, ok := parseStatus(line[statusOffset:statusEnd])
	if !ok {
		return NewUnknown(line)
	}

	var response string
	if len(line) > statusEnd {
		if line[statusEnd] != ' ' {
			return NewUnknown(line)
		}
		response = line[statusEnd+1:]
	}

	if isOk {
		return NewOk(status, response)
	}
	return NewNg(status, response)
}

func parseStatus(digits string) (uint32, bool) {
	for i := 0; i < len(digits); i++ {
		if !isHexDigit(digits[i]) {
			return 0, false
		}
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Format renders the result back to protocol text.
func (r Result) Format() string {
	switch r.Type {
	case ResultOk:
		return fmt.Sprintf("OK %08X %s", r.Status, r.Response)
	case ResultNg:
		return fmt.Sprintf("NG %08X %s", r.Status, r.Response)
	case ResultComment:
		return commentPrefix + r.Response
	case ResultInfo:
		return infoPrefix + r.Response
	case ResultUnknown:
		return r.Response
	default:
		return "timeout"
	}
}

// String implements fmt.Stringer.
func (r Result) String() string {
	return r.Format()
}

func (r Result) IsTimeout() bool { return r.Type == ResultTimeout }
func (r Result) IsUnknown() bool { return r.Type == ResultUnknown }
func (r Result) IsComment() bool { return r.Type == ResultComment }
func (r Result) IsInfo() bool    { return r.Type == ResultInfo }
func (r Result) IsOk() bool      { return r.Type == ResultOk }
func (r Result) IsNg() bool      { return r.Type == ResultNg }

// IsOkOrNg reports whether the result is a final command response.
func (r Result) IsOkOrNg() bool {
	return r.IsOk() || r.IsNg()
}

// IsOkStatus reports whether the result is OK with the given status.
func (r Result) IsOkStatus(status uint32) bool {
	return r.IsOk() && r.Status == status
}

// IsNgStatus reports whether the result is NG with the given status.
func (r Result) IsNgStatus(status uint32) bool {
	return r.IsNg() && r.Status == status
}

// IsSuccess reports whether the result is OK with StatusSuccess.
func (r Result) IsSuccess() bool {
	return r.IsOkStatus(StatusSuccess)
}
