// Package emc drives the auxiliary controller ("EMC") over its ucmd UART.
//
// A Session owns the controller's UART, its receive ring buffer, the reset
// and ROM-select lines, and the cached firmware constants. It turns host
// command lines into either passthrough traffic or one of the bridge's own
// control operations, and relays controller output back to the host as
// binary result frames.
//
// # Host commands
//
//	unlock                                   run the unlock sequence
//	picoreset                                restart the bridge
//	picoemcreset                             pulse the controller reset line
//	picoemcrom enter|exit                    switch the controller boot ROM on or off
//	picofwconst <ver.with.dots> <addr> <hex> add firmware constants
//	picochipconst <name>|<fill> <ms> <us>    select chip timing
//
// Any other line is passed through: in normal mode it is framed with a
// checksum and sent as a ucmd command, in ROM mode it is hex decoded and
// written raw.
//
// # Unlock
//
// The controller's ucmd receive path can be overrun to replace the command
// table pointer. The session places a fake command table and shellcode in
// the ucmd receive buffer with the puareq challenge commands, redirects the
// table pointer at it with an out-of-bounds write, then invokes the injected
// command. Success is detected by a command that only works once the
// shellcode has run. If the controller does not answer correctly afterwards
// the session resets it and reports ExploitFailedEmcReset; recovery takes
// several seconds and is left to the operator.
//
// # Concurrency
//
// A Session is not safe for concurrent use. The bridge's poll loop is the
// only caller. The UART reader goroutine only touches the ring buffer.
package emc
