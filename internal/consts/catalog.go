package consts

import (
	_ "embed"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed firmwares/firmwares.yaml
var catalogYAML []byte

// FirmwareEntry is one firmware build as described in the catalog.
type FirmwareEntry struct {
	// Version is the controller's version string.
	Version string `yaml:"version"`

	// Name is the human-readable release name, if known.
	Name string `yaml:"name,omitempty"`

	// Verified indicates the entry has been tested on hardware.
	Verified bool `yaml:"verified"`

	// UcmdBufAddr is the address of the ucmd receive buffer.
	UcmdBufAddr uint32 `yaml:"ucmd_ua_buf_addr"`

	// Shellcode is hex encoded Thumb code.
	Shellcode string `yaml:"shellcode"`
}

// ChipEntry is a named chip timing preset.
type ChipEntry struct {
	Name             string `yaml:"name"`
	FillerMultiplier uint32 `yaml:"filler_multiplier"`
	PostProcessMs    uint32 `yaml:"post_process_ms"`
	PwnDelayUs       uint32 `yaml:"pwn_delay_us"`
}

// Catalog is the decoded embedded constants file.
type Catalog struct {
	Firmwares   []FirmwareEntry `yaml:"firmwares"`
	Chips       []ChipEntry     `yaml:"chips"`
	DefaultChip string          `yaml:"default_chip"`
}

var (
	catalog     *Catalog
	catalogOnce sync.Once
	catalogErr  error
)

// LoadCatalog decodes the embedded catalog. The result is cached; callers
// must not modify it.
func LoadCatalog() (*Catalog, error) {
	catalogOnce.Do(func() {
		catalog, catalogErr = parseCatalog(catalogYAML)
	})
	return catalog, catalogErr
}

func parseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse firmwares.yaml: %w", err)
	}
	for _, fw := range c.Firmwares {
		if _, err := fw.Constants(); err != nil {
			return nil, err
		}
	}
	if _, ok := c.chip(c.DefaultChip); !ok {
		return nil, fmt.Errorf("default chip %q is not defined", c.DefaultChip)
	}
	return &c, nil
}

func (c *Catalog) chip(name string) (ChipEntry, bool) {
	for _, ch := range c.Chips {
		if ch.Name == name {
			return ch, true
		}
	}
	return ChipEntry{}, false
}

// Constants converts the entry into the form used by the exploit session.
func (f FirmwareEntry) Constants() (FwConstants, error) {
	sc, err := hex.DecodeString(f.Shellcode)
	if err != nil {
		return FwConstants{}, fmt.Errorf("firmware %q: invalid shellcode: %w", f.Version, err)
	}
	return FwConstants{UcmdBufAddr: f.UcmdBufAddr, Shellcode: sc}, nil
}

// Consts converts the preset into a ChipConsts value.
func (c ChipEntry) Consts() ChipConsts {
	return ChipConsts{
		FillerMultiplier: c.FillerMultiplier,
		PostProcess:      time.Duration(c.PostProcessMs) * time.Millisecond,
		PwnDelay:         time.Duration(c.PwnDelayUs) * time.Microsecond,
	}
}

// String returns a one-line description of the entry.
func (f FirmwareEntry) String() string {
	s := f.Version
	if f.Name != "" {
		s += " (" + f.Name + ")"
	}
	if f.Verified {
		s += " [verified]"
	}
	return s
}
