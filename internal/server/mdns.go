package server

import (
	"fmt"
	"net"
	"os"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/symbrkrs/emcbridge/internal/discovery"
	"github.com/symbrkrs/emcbridge/internal/logging"
	"github.com/symbrkrs/emcbridge/internal/version"
)

// MDNSConfig controls service advertisement.
type MDNSConfig struct {
	Enabled bool

	// Instance is the advertised name. Defaults to the hostname.
	Instance string
}

type mdnsRegistration struct {
	server *zeroconf.Server
}

// serviceText builds the TXT records host tools use to find the endpoints.
func serviceText(cfg *Config, efc bool) []string {
	txt := []string{
		discovery.MetaVersion + "=" + version.Version,
		discovery.MetaEMCPath + "=" + cfg.EMCPath,
	}
	if efc {
		txt = append(txt, discovery.MetaEFCPath+"="+cfg.EFCPath)
	}
	return txt
}

func registerMDNS(mcfg *MDNSConfig, addr net.Addr, cfg *Config, efc bool) (*mdnsRegistration, error) {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return nil, fmt.Errorf("cannot advertise non-TCP address %s", addr)
	}
	instance := mcfg.Instance
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "emcbridge"
		}
		instance = host
	}

	srv, err := zeroconf.Register(instance, discovery.ServiceType, discovery.ServiceDomain, tcp.Port, serviceText(cfg, efc), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logging.Info("Advertising bridge over mDNS",
		zap.String("instance", instance),
		zap.String("service", discovery.ServiceType),
		zap.Int("port", tcp.Port),
	)
	return &mdnsRegistration{server: srv}, nil
}

func (m *mdnsRegistration) shutdown() {
	m.server.Shutdown()
}
