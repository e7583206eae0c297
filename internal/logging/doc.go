// Package logging provides structured logging for the bridge.
//
// This package wraps a zap logger with package-level helpers so that the
// ring buffer, the controller session and the host server can log without
// threading a logger through every constructor.
//
// # Log Levels
//
//   - Debug: line traffic (host>, host<, >, <), dropped lines, raw ROM bytes
//   - Info: connections, mode changes, unlock progress
//   - Warn: echo timeouts, buffer overflow, recoverable transport errors
//   - Error: port failures, startup failures
//
// # Configuration
//
// The daemon initializes logging from its --log-level flag or config file.
// CLI commands stay silent unless EMCBRIDGE_LOG_LEVEL is set:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
