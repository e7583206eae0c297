package discovery

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// TXT record keys advertised by the bridge.
const (
	MetaVersion = "version"
	MetaEMCPath = "emc"
	MetaEFCPath = "efc"
)

const (
	defaultEMCPath = "/emc"
)

// Device represents a discovered bridge on the network
type Device struct {
	// Instance is the advertised service instance name (e.g., "ps5-bench")
	Instance string

	// Hostname is the mDNS hostname (e.g., "pico-bridge.local.")
	Hostname string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the WebSocket listen port
	Port int

	// Metadata contains the mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("EMC bridge %s (%s) at %s", d.Instance, d.Hostname, d.hostPort())
}

// Version returns the advertised bridge version, if any.
func (d *Device) Version() string {
	return d.GetMetadata(MetaVersion)
}

// EMCURL returns the WebSocket URL of the controller console.
func (d *Device) EMCURL() string {
	path := d.GetMetadata(MetaEMCPath)
	if path == "" {
		path = defaultEMCPath
	}
	return d.wsURL(path)
}

// EFCURL returns the WebSocket URL of the EFC relay, or "" when the bridge
// does not advertise one.
func (d *Device) EFCURL() string {
	path := d.GetMetadata(MetaEFCPath)
	if path == "" {
		return ""
	}
	return d.wsURL(path)
}

// HasEFC reports whether the bridge relays the secondary UART.
func (d *Device) HasEFC() bool {
	return d.GetMetadata(MetaEFCPath) != ""
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}

func (d *Device) hostPort() string {
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

func (d *Device) wsURL(path string) string {
	u := url.URL{Scheme: "ws", Host: d.hostPort(), Path: path}
	return u.String()
}
