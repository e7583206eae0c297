package consts

import (
	"bytes"
	"sort"
	"sync"
)

// Registry maps firmware versions to FwConstants and names to chip presets.
// It is safe for concurrent use, although the bridge only touches it from
// the poll loop.
type Registry struct {
	mu          sync.RWMutex
	firmwares   map[string]FwConstants
	chips       map[string]ChipConsts
	defaultChip string
}

// NewRegistry returns a registry seeded with the embedded catalog.
func NewRegistry() (*Registry, error) {
	c, err := LoadCatalog()
	if err != nil {
		return nil, err
	}
	return newRegistryFromCatalog(c)
}

func newRegistryFromCatalog(c *Catalog) (*Registry, error) {
	r := &Registry{
		firmwares:   make(map[string]FwConstants, len(c.Firmwares)),
		chips:       make(map[string]ChipConsts, len(c.Chips)),
		defaultChip: c.DefaultChip,
	}
	for _, fw := range c.Firmwares {
		fc, err := fw.Constants()
		if err != nil {
			return nil, err
		}
		r.firmwares[fw.Version] = fc
	}
	for _, ch := range c.Chips {
		r.chips[ch.Name] = ch.Consts()
	}
	return r, nil
}

// Lookup returns the constants for an exact version string. The returned
// shellcode is a copy.
func (r *Registry) Lookup(version string) (FwConstants, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fc, ok := r.firmwares[version]
	if !ok {
		return FwConstants{}, false
	}
	fc.Shellcode = bytes.Clone(fc.Shellcode)
	return fc, true
}

// Set inserts or replaces the constants for version.
func (r *Registry) Set(version string, fc FwConstants) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fc.Shellcode = bytes.Clone(fc.Shellcode)
	r.firmwares[version] = fc
}

// Versions returns all known versions in sorted order.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := make([]string, 0, len(r.firmwares))
	for v := range r.firmwares {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// ChipPreset returns a named chip preset.
func (r *Registry) ChipPreset(name string) (ChipConsts, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chips[name]
	return c, ok
}

// ChipPresets returns the preset names in sorted order.
func (r *Registry) ChipPresets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.chips))
	for n := range r.chips {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultChip returns the preset a new session starts with.
func (r *Registry) DefaultChip() ChipConsts {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chips[r.defaultChip]
}

// Unsupported builds the error returned for an unknown version.
func (r *Registry) Unsupported(version string) error {
	return &FirmwareUnsupportedError{
		Version:   version,
		Available: r.Versions(),
	}
}
