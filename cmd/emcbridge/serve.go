package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/symbrkrs/emcbridge/internal/config"
	"github.com/symbrkrs/emcbridge/internal/consts"
	"github.com/symbrkrs/emcbridge/internal/efc"
	"github.com/symbrkrs/emcbridge/internal/emc"
	"github.com/symbrkrs/emcbridge/internal/logging"
	"github.com/symbrkrs/emcbridge/internal/ringbuf"
	"github.com/symbrkrs/emcbridge/internal/server"
	"github.com/symbrkrs/emcbridge/internal/timing"
	"github.com/symbrkrs/emcbridge/internal/transport"
)

// ttyBaud is nominal; CDC-ACM gadgets ignore the line speed
const ttyBaud = 115200

var errRestart = errors.New("restart requested")

// Serve command flags
var (
	listenAddr string
	emcDevice  string
	efcDevice  string
	hostTTY    string
	logLevel   string
	noMDNS     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge",
	Long: `Open the controller UART and serve it to host tools.

Endpoints:
  /emc  controller console, one command line per text message in,
        one binary result frame per message out
  /efc  raw relay of the secondary UART (when enabled)

Flags override the matching configuration file settings. The bridge exits
with status 75 when a host sends picoreset, so a supervisor can restart it.`,
	Example: `  # Run with the configuration file
  emcbridge serve

  # Override the controller UART and listen address
  emcbridge serve --device /dev/ttyAMA0 --listen :9000

  # Also relay the secondary UART and serve the console on a USB gadget
  emcbridge serve --efc-device /dev/ttyAMA1 --tty /dev/ttyGS0

  # Trace every UART line
  emcbridge serve --log-level debug`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "WebSocket listen address (e.g. :8080)")
	serveCmd.Flags().StringVar(&emcDevice, "device", "", "Controller UART device")
	serveCmd.Flags().StringVar(&efcDevice, "efc-device", "", "Secondary UART device (enables the /efc relay)")
	serveCmd.Flags().StringVar(&hostTTY, "tty", "", "Also serve the console on this serial tty")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&noMDNS, "no-mdns", false, "Do not advertise the bridge via mDNS")

	rootCmd.AddCommand(serveCmd)
}

// loadServeConfig loads the configuration file and applies flag overrides.
func loadServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Host.Listen = listenAddr
	}
	if flags.Changed("device") {
		cfg.EMC.Device = emcDevice
	}
	if flags.Changed("efc-device") {
		cfg.EFC.Enabled = efcDevice != ""
		cfg.EFC.Device = efcDevice
	}
	if flags.Changed("tty") {
		cfg.Host.TTY = hostTTY
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if noMDNS {
		cfg.MDNS.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	// Suppress usage on execution errors (we're past argument parsing)
	cmd.SilenceUsage = true

	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return err
	}
	defer logging.Sync()

	reg, err := consts.NewRegistry()
	if err != nil {
		return fmt.Errorf("failed to load firmware catalog: %w", err)
	}
	if err := cfg.ApplyFirmwares(reg); err != nil {
		return err
	}
	chip, err := cfg.ChipConsts(reg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var restart atomic.Bool
	reboot := func() {
		logging.Info("Restart requested by host")
		restart.Store(true)
		cancel()
	}

	srv, closeAll, err := buildBridge(cfg, reg, chip, reboot)
	if err != nil {
		return err
	}
	defer closeAll()

	if err := srv.Run(ctx); err != nil {
		return err
	}
	if restart.Load() {
		return errRestart
	}
	return nil
}

// buildBridge opens the configured ports and wires them into a server.
// closeAll releases every opened port.
func buildBridge(cfg *config.Config, reg *consts.Registry, chip consts.ChipConsts, reboot emc.RebootFunc) (*server.Server, func(), error) {
	var opened []*transport.UART
	closeAll := func() {
		for _, u := range opened {
			if err := u.Close(); err != nil {
				logging.Warn("Failed to close serial port", zap.String("device", u.Device()), zap.Error(err))
			}
		}
	}
	fail := func(err error) (*server.Server, func(), error) {
		closeAll()
		return nil, nil, err
	}

	clock := timing.System()

	// Names were checked by Validate
	resetOut, _ := transport.ParseOutput(cfg.EMC.ResetLine)
	romOut, _ := transport.ParseOutput(cfg.EMC.RomLine)
	detect, _ := transport.ParseInput(cfg.EMC.ResetDetect)

	emcRx, err := ringbuf.New(cfg.BufferSize, clock)
	if err != nil {
		return fail(err)
	}
	emcUART, err := transport.Open(cfg.EMC.Device, cfg.EMC.Baud)
	if err != nil {
		return fail(err)
	}
	opened = append(opened, emcUART)

	session, err := emc.NewSession(emc.Config{
		Port:     emcUART,
		Rx:       emcRx,
		Registry: reg,
		Reset:    emcUART.Line(resetOut, detect),
		Rom:      emcUART.Line(romOut, transport.InputNone),
		Clock:    clock,
		Chip:     &chip,
		Reboot:   reboot,
	})
	if err != nil {
		return fail(err)
	}

	// A typed nil would read as an enabled relay
	var passthrough server.Passthrough
	if cfg.EFC.Enabled {
		efcRx, err := ringbuf.New(cfg.BufferSize, clock)
		if err != nil {
			return fail(err)
		}
		efcUART, err := transport.Open(cfg.EFC.Device, cfg.EFC.Baud)
		if err != nil {
			return fail(err)
		}
		opened = append(opened, efcUART)
		bridge, err := efc.NewBridge(efcUART, efcRx, clock, cfg.EFC.Baud)
		if err != nil {
			return fail(err)
		}
		efcUART.Start(efcRx)
		passthrough = bridge
	}

	srv, err := server.New(&server.Config{
		Listen:  cfg.Host.Listen,
		EMCPath: cfg.Host.Path,
		EFCPath: cfg.Host.EFCPath,
		MDNS: &server.MDNSConfig{
			Enabled:  cfg.MDNS.Enabled,
			Instance: cfg.MDNS.Instance,
		},
	}, session, passthrough)
	if err != nil {
		return fail(err)
	}

	emcUART.Start(emcRx)

	if cfg.Host.TTY != "" {
		tty, err := transport.Open(cfg.Host.TTY, ttyBaud)
		if err != nil {
			return fail(err)
		}
		opened = append(opened, tty)
		srv.AttachTTY(tty)
	}

	logging.Info("Bridge configured",
		zap.String("emc", cfg.EMC.Device),
		zap.String("chip", chip.String()),
		zap.Int("firmwares", len(reg.Versions())),
		zap.Bool("efc", cfg.EFC.Enabled),
	)
	return srv, closeAll, nil
}
