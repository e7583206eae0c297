package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/symbrkrs/emcbridge/internal/consts"
)

func TestPrintConsts(t *testing.T) {
	reg, err := consts.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	reg.Set("E1E 0001 9999 0000 0000", consts.FwConstants{UcmdBufAddr: 0x100000, Shellcode: []byte{0x00, 0xbd}})

	var out bytes.Buffer
	if err := printConsts(&out, reg); err != nil {
		t.Fatalf("printConsts() error = %v", err)
	}
	for _, want := range []string{
		"E1E 0001 0000 0004 13D0 (1.0.4 E r5072) [verified]",
		"E1E 0001 9999 0000 0000 [config]",
		"2 byte shellcode",
		"* salina ",
		"salina2",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestLoadServeConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "version: 1\nemc:\n  device: /dev/ttyAMA0\nmdns:\n  enabled: true\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	configPath = path
	t.Cleanup(func() { configPath = "" })

	cmd := serveCmd
	t.Cleanup(func() {
		for _, name := range []string{"listen", "efc-device", "no-mdns"} {
			f := cmd.Flags().Lookup(name)
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	if err := cmd.Flags().Parse([]string{"--listen", ":9000", "--efc-device", "/dev/ttyAMA1", "--no-mdns"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadServeConfig(cmd)
	if err != nil {
		t.Fatalf("loadServeConfig() error = %v", err)
	}
	if cfg.EMC.Device != "/dev/ttyAMA0" {
		t.Errorf("EMC.Device = %q, want the file's value", cfg.EMC.Device)
	}
	if cfg.Host.Listen != ":9000" {
		t.Errorf("Host.Listen = %q", cfg.Host.Listen)
	}
	if !cfg.EFC.Enabled || cfg.EFC.Device != "/dev/ttyAMA1" {
		t.Errorf("EFC = %+v", cfg.EFC)
	}
	if cfg.MDNS.Enabled {
		t.Error("--no-mdns did not disable mDNS")
	}
}

func TestLoadServeConfigRejectsSharedUART(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() { configPath = "" })

	cmd := serveCmd
	t.Cleanup(func() {
		f := cmd.Flags().Lookup("efc-device")
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	if err := cmd.Flags().Parse([]string{"--efc-device", "/dev/ttyUSB0"}); err != nil {
		t.Fatal(err)
	}
	if _, err := loadServeConfig(cmd); err == nil {
		t.Error("EFC on the controller UART was accepted")
	}
}
