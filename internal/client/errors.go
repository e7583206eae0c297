package client

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error after connecting
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates the bridge did not answer in time
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening at the address
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHandshake indicates the server answered but refused the upgrade
	ErrTypeHandshake
	// ErrTypeProtocol indicates a malformed frame from the bridge
	ErrTypeProtocol
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHandshake:
		return "Handshake Error"
	case ErrTypeProtocol:
		return "Protocol Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// BridgeError represents an error talking to a bridge
type BridgeError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status of a refused handshake
	Err        error     // Underlying error (if any)
	Addr       string    // Endpoint URL (for context)
}

// Error implements the error interface
func (e *BridgeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *BridgeError) Unwrap() error {
	return e.Err
}

// ClassifyDialError turns a failed Dial into a *BridgeError.
func ClassifyDialError(err error, resp *http.Response, addr string) *BridgeError {
	if err == nil {
		return nil
	}

	if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
		return &BridgeError{
			Type:       ErrTypeHandshake,
			Message:    fmt.Sprintf("server answered HTTP %d instead of upgrading", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Err:        err,
			Addr:       addr,
		}
	}

	if os.IsTimeout(err) {
		return &BridgeError{Type: ErrTypeTimeout, Message: "handshake timed out", Err: err, Addr: addr}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &BridgeError{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
			Addr:    addr,
		}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &BridgeError{Type: ErrTypeConnectionRefused, Message: "bridge refused connection", Err: err, Addr: addr}
	}

	return &BridgeError{Type: ErrTypeNetwork, Message: "failed to connect to bridge", Err: err, Addr: addr}
}

// IsTimeout checks if an error is a bridge timeout
func IsTimeout(err error) bool {
	var be *BridgeError
	return errors.As(err, &be) && be.Type == ErrTypeTimeout
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	var be *BridgeError
	if !errors.As(err, &be) {
		return "An unexpected error occurred. Please try again."
	}

	switch be.Type {
	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"Nothing is listening at " + be.Addr + ".",
			"Troubleshooting:",
			"  • Check that 'emcbridge serve' is running on the bridge host",
			"  • Verify the port matches host.listen in the bridge config",
			"  • Try 'emcbridge-cli discover' to find bridges on the network",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the bridge hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of hostname",
			"  • Try 'emcbridge-cli discover' to list advertised bridges",
		}, "\n")

	case ErrTypeHandshake:
		if be.StatusCode == http.StatusNotFound {
			return strings.Join([]string{
				"The bridge does not serve this path.",
				"Troubleshooting:",
				"  • The console is at /emc by default",
				"  • /efc only exists when the EFC relay is enabled",
			}, "\n")
		}
		return fmt.Sprintf("The bridge rejected the connection (HTTP %d).", be.StatusCode)

	case ErrTypeTimeout:
		return strings.Join([]string{
			"The bridge did not answer in time.",
			"Troubleshooting:",
			"  • Check the UART wiring between bridge and controller",
			"  • The controller may be held in reset; try 'emcbridge-cli reset'",
			"  • Commands time out after 2s (30s for unlock); check the bridge log",
		}, "\n")

	case ErrTypeProtocol:
		return "The bridge sent a malformed frame. Check that client and bridge versions match."

	default:
		return "Network communication with the bridge failed. Check your network connection."
	}
}
