// Package transport opens the bridge's UARTs with go.bug.st/serial.
//
// A UART runs one reader goroutine that copies received bytes into a sink,
// normally a ring buffer, and exposes the write side plus baud rate control
// to the poll loop. Boards without dedicated GPIO can wire the controller's
// reset and ROM-select pins to the adapter's modem control outputs; ModemLine
// turns DTR or RTS into an active-low open-drain line and uses one of the
// modem status inputs to sense the reset pin.
package transport
