package protocol

// NewTimeout returns the result used when no response arrived in time.
func NewTimeout() Result {
	return Result{Type: ResultTimeout, Status: InvalidStatus}
}

// NewUnknown wraps text that is not a recognized response. The bridge also
// uses it to echo host commands back verbatim.
func NewUnknown(text string) Result {
	return Result{Type: ResultUnknown, Status: InvalidStatus, Response: text}
}

// NewOk builds an OK result.
func NewOk(status uint32, response string) Result {
	return Result{Type: ResultOk, Status: status, Response: response}
}

// NewNg builds an NG result.
func NewNg(status uint32, response string) Result {
	return Result{Type: ResultNg, Status: status, Response: response}
}

// NewSuccess builds an OK result with StatusSuccess.
func NewSuccess(response string) Result {
	return NewOk(StatusSuccess, response)
}

// NewRomFrame wraps raw bytes read in ROM mode. The payload is hex encoded
// because the host channel is line oriented.
func NewRomFrame(raw []byte) Result {
	return NewOk(StatusRomFrame, BufToHex(raw))
}
