package transport

import (
	"fmt"
	"strings"
)

// Output is a modem control output usable as a GPIO.
type Output int

const (
	OutputNone Output = iota
	OutputDTR
	OutputRTS
)

// Input is a modem status input usable to sense a pin.
type Input int

const (
	InputNone Input = iota
	InputCTS
	InputDSR
	InputDCD
	InputRI
)

// ParseOutput accepts "dtr", "rts" or "none".
func ParseOutput(s string) (Output, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return OutputNone, nil
	case "dtr":
		return OutputDTR, nil
	case "rts":
		return OutputRTS, nil
	}
	return OutputNone, fmt.Errorf("unknown modem output %q (want dtr, rts or none)", s)
}

// ParseInput accepts "cts", "dsr", "dcd", "ri" or "none".
func ParseInput(s string) (Input, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return InputNone, nil
	case "cts":
		return InputCTS, nil
	case "dsr":
		return InputDSR, nil
	case "dcd":
		return InputDCD, nil
	case "ri":
		return InputRI, nil
	}
	return InputNone, fmt.Errorf("unknown modem input %q (want cts, dsr, dcd, ri or none)", s)
}

// ModemLine drives an active-low pin from a modem control output. An
// asserted output is electrically low on TTL adapters, so SetLow asserts and
// Release deasserts. When the pin is also wired to a status input, Sample
// reads it back; without one the line always reads high.
type ModemLine struct {
	u     *UART
	out   Output
	sense Input
}

// Line returns a ModemLine on u.
func (u *UART) Line(out Output, sense Input) *ModemLine {
	return &ModemLine{u: u, out: out, sense: sense}
}

func (l *ModemLine) set(asserted bool) error {
	var err error
	switch l.out {
	case OutputDTR:
		err = l.u.port.SetDTR(asserted)
	case OutputRTS:
		err = l.u.port.SetRTS(asserted)
	default:
		return nil
	}
	if err != nil {
		return &PortError{Device: l.u.device, Op: "set modem line", Err: err}
	}
	return nil
}

// SetLow drives the pin low.
func (l *ModemLine) SetLow() error {
	return l.set(true)
}

// Release lets the pin float high.
func (l *ModemLine) Release() error {
	return l.set(false)
}

// Sample reports whether the pin is high.
func (l *ModemLine) Sample() (bool, error) {
	if l.sense == InputNone {
		return true, nil
	}
	bits, err := l.u.port.GetModemStatusBits()
	if err != nil {
		return true, &PortError{Device: l.u.device, Op: "read modem status", Err: err}
	}
	var asserted bool
	switch l.sense {
	case InputCTS:
		asserted = bits.CTS
	case InputDSR:
		asserted = bits.DSR
	case InputDCD:
		asserted = bits.DCD
	case InputRI:
		asserted = bits.RI
	}
	return !asserted, nil
}
