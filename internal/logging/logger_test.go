package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		level   string
		env     string
		wantErr bool
		wantNop bool
	}{
		{level: "", env: "", wantNop: true},
		{level: "", env: "debug"},
		{level: "warn"},
		{level: "verbose", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.env, func(t *testing.T) {
			t.Setenv(LogLevelEnvVar, tt.env)
			t.Cleanup(func() { SetLogger(nil) })

			err := Initialize(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Initialize(%q) error = %v", tt.level, err)
			}
			if tt.wantErr {
				return
			}
			enabled := GetLogger().Core().Enabled(zapcore.ErrorLevel)
			if enabled == tt.wantNop {
				t.Errorf("error level enabled = %v, want %v", enabled, !tt.wantNop)
			}
		})
	}
}

func TestLogRawBytes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	LogRawBytes("efc<", []byte("OK\r\n\x00"))
	LogRawBytes("rom<", make([]byte, maxDump+10))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	f := entries[0].ContextMap()
	if f["hex"] != "4f4b0d0a00" || f["ascii"] != "OK..." || f["length"] != int64(5) {
		t.Errorf("fields = %v", f)
	}
	long := entries[1].ContextMap()
	if !strings.HasSuffix(long["hex"].(string), "...") || len(long["ascii"].(string)) != maxDump {
		t.Errorf("long dump not truncated: %v", long["length"])
	}
}

func TestRawBytesSkippedAboveDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	LogRawBytes("efc>", []byte("x"))
	LogConnection("10.0.0.5:4242", "emc_connected")
	if logs.Len() != 1 || logs.All()[0].Message != "Connection event" {
		t.Errorf("entries = %v", logs.All())
	}
}
