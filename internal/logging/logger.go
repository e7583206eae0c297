package logging

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelEnvVar selects the CLI log level. Unset means no zap output at all.
const LogLevelEnvVar = "EMCBRIDGE_LOG_LEVEL"

// maxDump bounds how much of a raw buffer goes into one entry.
const maxDump = 256

var logger *zap.Logger

// Initialize installs the global logger at level ("debug", "info", "warn"
// or "error"). An empty level falls back to EMCBRIDGE_LOG_LEVEL, and if that
// is empty too the logger is a no-op.
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder

	built, err := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         "console",
		EncoderConfig:    enc,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = built
	return nil
}

// InitializeFromEnv is Initialize for CLI commands, which are silent unless
// EMCBRIDGE_LOG_LEVEL is set.
func InitializeFromEnv() error {
	return Initialize("")
}

// SetLogger replaces the global logger, e.g. with an observer in tests.
func SetLogger(l *zap.Logger) {
	logger = l
}

// GetLogger returns the global logger, a no-op one before Initialize.
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

func Info(msg string, fields ...zap.Field)  { GetLogger().Info(msg, fields...) }
func Debug(msg string, fields ...zap.Field) { GetLogger().Debug(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { GetLogger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { GetLogger().Error(msg, fields...) }

// LogConnection records a host connecting to or leaving an endpoint.
func LogConnection(remoteAddr, event string) {
	Info("Connection event", zap.String("remote_addr", remoteAddr), zap.String("event", event))
}

// LogHostCommand records a command line received from a host ("host>").
func LogHostCommand(line string) {
	Debug("host>", zap.String("line", line))
}

// LogHostResponse records a line relayed to the hosts ("host<").
func LogHostResponse(line string) {
	Debug("host<", zap.String("line", line))
}

// LogUartTraffic records controller UART lines; direction is ">" or "<".
func LogUartTraffic(direction, line string) {
	Debug(direction, zap.String("line", line))
}

// LogRawBytes records a binary buffer as hex plus printable text.
func LogRawBytes(label string, data []byte) {
	if ce := GetLogger().Check(zapcore.DebugLevel, label); ce != nil {
		ce.Write(
			zap.Int("length", len(data)),
			zap.String("hex", hexDump(data)),
			zap.String("ascii", asciiDump(data)),
		)
	}
}

func hexDump(data []byte) string {
	if len(data) > maxDump {
		return hex.EncodeToString(data[:maxDump]) + "..."
	}
	return hex.EncodeToString(data)
}

func asciiDump(data []byte) string {
	if len(data) > maxDump {
		data = data[:maxDump]
	}
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c < 0x20 || c > 0x7e {
			c = '.'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Sync flushes buffered entries.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
