// Package server exposes the bridge to host tools over WebSocket.
//
// Two endpoints are served:
//
//   - /emc carries the controller console. Each message from the host is
//     one or more command lines. Every controller line, command echo and
//     command result is sent back as a binary result frame.
//   - /efc relays raw bytes to and from the secondary UART. A "baud" query
//     parameter or a text message "baud <rate>" changes its line speed.
//
// # Poll Loop
//
// A single goroutine owns the EMC session and the EFC bridge. WebSocket
// readers only queue work for it; the loop picks up one host command at a
// time, and otherwise wakes every millisecond to drain the UART receive
// buffers toward all connected hosts. Commands therefore never interleave
// on the controller UART.
//
// Output fans out to every connected client plus any extra writer added
// with AddHost, such as a USB gadget tty attached with AttachTTY. No host
// being connected is not an error; output is simply discarded.
//
// # Discovery
//
// When enabled, the bridge advertises itself as _emcbridge._tcp via mDNS
// with TXT records naming the endpoint paths.
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM: it stops accepting connections, closes
// the WebSocket clients and waits for the poll loop to exit.
package server
