package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/symbrkrs/emcbridge/internal/consts"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout only applies on linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if dir != filepath.Join("/tmp/xdg", "emcbridge") {
		t.Errorf("GetConfigDir() = %v", dir)
	}

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", path)
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.EMC.Baud != 115200 {
		t.Errorf("EMC.Baud = %d, want 115200", cfg.EMC.Baud)
	}
	if cfg.EFC.Enabled {
		t.Error("EFC relay should be disabled by default")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Host.Listen != Default().Host.Listen {
		t.Errorf("Host.Listen = %q", cfg.Host.Listen)
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `version: 1
emc:
  device: /dev/ttyACM3
  reset_detect: cts
efc:
  enabled: true
  device: /dev/ttyACM4
chip: salina2
firmwares:
  - version: "E1E.0001.0000.0004.9999"
    ucmd_ua_buf_addr: "1762e8"
    shellcode: "00bf7047"
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.EMC.Device != "/dev/ttyACM3" || cfg.EMC.ResetDetect != "cts" {
		t.Errorf("EMC = %+v", cfg.EMC)
	}
	if cfg.EMC.Baud != 115200 || cfg.EMC.ResetLine != "dtr" {
		t.Errorf("EMC defaults lost: %+v", cfg.EMC)
	}
	if cfg.EFC.Baud != 460800 {
		t.Errorf("EFC.Baud = %d, want default", cfg.EFC.Baud)
	}
	if len(cfg.Firmwares) != 1 {
		t.Fatalf("Firmwares = %+v", cfg.Firmwares)
	}

	reg, err := consts.NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.ApplyFirmwares(reg); err != nil {
		t.Fatalf("ApplyFirmwares() error = %v", err)
	}
	fc, ok := reg.Lookup("E1E 0001 0000 0004 9999")
	if !ok {
		t.Fatal("override not registered under normalized version")
	}
	if fc.UcmdBufAddr != 0x1762e8 || len(fc.Shellcode) != 4 {
		t.Errorf("override = %+v", fc)
	}

	cc, err := cfg.ChipConsts(reg)
	if err != nil {
		t.Fatalf("ChipConsts() error = %v", err)
	}
	if cc.FillerMultiplier != 6 {
		t.Errorf("salina2 filler = %d, want 6", cc.FillerMultiplier)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed yaml", "emc: [\n"},
		{"wrong version", "version: 2\n"},
		{"invalid field", "emc:\n  baud: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Errorf("Load() error = %v, want *ConfigError", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"no emc device", func(c *Config) { c.EMC.Device = "" }, "emc.device"},
		{"negative baud", func(c *Config) { c.EMC.Baud = -1 }, "emc.baud"},
		{"bad reset line", func(c *Config) { c.EMC.ResetLine = "gpio4" }, "emc.reset_line"},
		{"shared pins", func(c *Config) { c.EMC.RomLine = "dtr" }, "emc.rom_line"},
		{"bad reset detect", func(c *Config) { c.EMC.ResetDetect = "rts" }, "emc.reset_detect"},
		{"efc without device", func(c *Config) { c.EFC.Enabled = true }, "efc.device"},
		{"efc on emc device", func(c *Config) {
			c.EFC.Enabled = true
			c.EFC.Device = c.EMC.Device
		}, "efc.device"},
		{"relative path", func(c *Config) { c.Host.Path = "emc" }, "host.path"},
		{"same paths", func(c *Config) { c.Host.EFCPath = c.Host.Path }, "host.efc_path"},
		{"tty on emc device", func(c *Config) { c.Host.TTY = c.EMC.Device }, "host.tty"},
		{"buffer not power of two", func(c *Config) { c.BufferSize = 1000 }, "buffer_size"},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
		{"unknown chip", func(c *Config) { c.Chip = "salina9" }, "chip"},
		{"raw chip bad hex", func(c *Config) { c.Chip = "zz 1 1" }, "chip"},
		{"chip wrong arity", func(c *Config) { c.Chip = "3 200" }, "chip"},
		{"firmware bad shellcode", func(c *Config) {
			c.Firmwares = []Firmware{{Version: "X", UcmdBufAddr: "10", Shellcode: "abc"}}
		}, "firmwares[0]"},
		{"firmware without version", func(c *Config) {
			c.Firmwares = []Firmware{{UcmdBufAddr: "10", Shellcode: "00"}}
		}, "firmwares[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), "config "+tt.wantField+":") {
				t.Errorf("Validate() = %v, want error on %s", err, tt.wantField)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.EMC.Baud = 0
	cfg.BufferSize = 3
	err := cfg.Validate()
	for _, field := range []string{"emc.baud", "buffer_size"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("Validate() = %v, missing %s", err, field)
		}
	}
}

func TestChipConsts(t *testing.T) {
	reg, err := consts.NewRegistry()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		chip       string
		wantFiller uint32
		wantPost   time.Duration
		wantDelay  time.Duration
	}{
		{"", 3, 200 * time.Millisecond, 790 * time.Microsecond},
		{"salina", 3, 200 * time.Millisecond, 790 * time.Microsecond},
		{"0a 64 1f4", 10, 100 * time.Millisecond, 500 * time.Microsecond},
	}
	for _, tt := range tests {
		t.Run(tt.chip, func(t *testing.T) {
			cfg := Default()
			cfg.Chip = tt.chip
			cc, err := cfg.ChipConsts(reg)
			if err != nil {
				t.Fatalf("ChipConsts() error = %v", err)
			}
			if cc.FillerMultiplier != tt.wantFiller || cc.PostProcess != tt.wantPost || cc.PwnDelay != tt.wantDelay {
				t.Errorf("ChipConsts() = %+v", cc)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.EMC.Device = "/dev/ttyAMA0"
	cfg.MDNS = MDNS{Enabled: true, Instance: "bench"}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.EMC.Device != "/dev/ttyAMA0" || !got.MDNS.Enabled || got.MDNS.Instance != "bench" {
		t.Errorf("reloaded config = %+v", got)
	}
}
