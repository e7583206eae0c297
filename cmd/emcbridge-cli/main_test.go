package main

import (
	"errors"
	"testing"

	"github.com/symbrkrs/emcbridge/internal/client"
)

func TestWithPath(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"ws://pico.local:8080/emc", "ws://pico.local:8080/efc"},
		{"ws://10.0.0.2:8080/console?x=1", "ws://10.0.0.2:8080/efc"},
		{"ws://[fe80::1]:8080/emc", "ws://[fe80::1]:8080/efc"},
	}
	for _, tt := range tests {
		got, err := withPath(tt.raw, "/efc")
		if err != nil || got != tt.want {
			t.Errorf("withPath(%q) = %q, %v; want %q", tt.raw, got, err, tt.want)
		}
	}
	if _, err := withPath("ws://bad host/", "/efc"); err == nil {
		t.Error("withPath accepted an invalid URL")
	}
}

func TestCutAtEscape(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		wantDone bool
	}{
		{"help\r", "help\r", false},
		{"ab\x1dcd", "ab", true},
		{"\x1d", "", true},
		{"", "", false},
	}
	for _, tt := range tests {
		got, done := cutAtEscape([]byte(tt.in))
		if string(got) != tt.want || done != tt.wantDone {
			t.Errorf("cutAtEscape(%q) = %q, %v", tt.in, got, done)
		}
	}
}

func TestHintList(t *testing.T) {
	err := &client.BridgeError{Type: client.ErrTypeConnectionRefused, Message: "refused", Addr: "ws://pico:8080/emc"}
	hints := hintList(err)
	if len(hints) < 2 {
		t.Fatalf("hintList() = %q", hints)
	}
	for _, h := range hints {
		if h == "Troubleshooting:" || h == "" || h[0] == ' ' {
			t.Errorf("unexpected hint %q", h)
		}
	}
	if got := hintList(errors.New("boom")); len(got) != 1 {
		t.Errorf("hintList(plain) = %q", got)
	}
}
