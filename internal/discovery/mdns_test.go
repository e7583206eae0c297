package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func entry(instance, host string, port int, v4, v6 []net.IP, text ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	e.HostName = host
	e.Port = port
	e.AddrIPv4 = v4
	e.AddrIPv6 = v6
	e.Text = text
	return e
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantInstance string
		wantIP       string
		wantPort     int
	}{
		{
			name:         "bridge with IPv4",
			entry:        entry("bench", "pico.local.", 8080, []net.IP{net.ParseIP("192.168.4.16")}, nil, "emc=/emc"),
			wantInstance: "bench",
			wantIP:       "192.168.4.16",
			wantPort:     8080,
		},
		{
			name:         "IPv6 only bridge",
			entry:        entry("bench", "pico.local.", 8080, nil, []net.IP{net.ParseIP("fe80::1")}),
			wantInstance: "bench",
			wantIP:       "fe80::1",
			wantPort:     8080,
		},
		{
			name:         "prefers IPv4",
			entry:        entry("bench", "pico.local.", 80, []net.IP{net.ParseIP("10.0.0.5")}, []net.IP{net.ParseIP("fe80::2")}),
			wantInstance: "bench",
			wantIP:       "10.0.0.5",
			wantPort:     80,
		},
		{
			name:         "escaped instance name",
			entry:        entry(`ps5\ bench`, "pico.local.", 80, []net.IP{net.ParseIP("10.0.0.5")}, nil),
			wantInstance: "ps5 bench",
			wantIP:       "10.0.0.5",
			wantPort:     80,
		},
		{
			name:    "no address",
			entry:   entry("bench", "pico.local.", 8080, nil, nil),
			wantNil: true,
		},
		{
			name:    "no port",
			entry:   entry("bench", "pico.local.", 0, []net.IP{net.ParseIP("10.0.0.5")}, nil),
			wantNil: true,
		},
		{
			name:    "no instance",
			entry:   entry("", "pico.local.", 80, []net.IP{net.ParseIP("10.0.0.5")}, nil),
			wantNil: true,
		},
		{
			name:    "nil entry",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if device != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", device)
				}
				return
			}
			if device == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil device")
			}
			if device.Instance != tt.wantInstance {
				t.Errorf("device.Instance = %q, want %q", device.Instance, tt.wantInstance)
			}
			if device.IP != tt.wantIP {
				t.Errorf("device.IP = %v, want %v", device.IP, tt.wantIP)
			}
			if device.Port != tt.wantPort {
				t.Errorf("device.Port = %v, want %v", device.Port, tt.wantPort)
			}
			if device.Hostname != tt.entry.HostName {
				t.Errorf("device.Hostname = %v, want %v", device.Hostname, tt.entry.HostName)
			}
			if time.Since(device.DiscoveredAt) > time.Second {
				t.Errorf("device.DiscoveredAt is not recent: %v", device.DiscoveredAt)
			}
		})
	}
}

func TestParseText(t *testing.T) {
	got := parseText([]string{"version=0.3.0", "emc=/emc", "flag", "=orphan", "k=a=b"})
	want := map[string]string{
		"version": "0.3.0",
		"emc":     "/emc",
		"flag":    "",
		"k":       "a=b",
	}
	if len(got) != len(want) {
		t.Errorf("parseText() has %d entries, want %d: %v", len(got), len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("parseText()[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}
