// Emcbridge-cli talks to a running EMC bridge from a workstation.
//
// It finds bridges with mDNS, sends controller commands, runs the unlock
// flow with progress output and opens an interactive console. It speaks
// only to the bridge's WebSocket endpoints and never touches a UART itself.
//
// Usage:
//
//	emcbridge-cli [command] [flags]
//
// Running without arguments opens the console on the only bridge found.
// See 'emcbridge-cli --help' for available commands.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/symbrkrs/emcbridge/internal/discovery"
	"github.com/symbrkrs/emcbridge/internal/logging"
	"github.com/symbrkrs/emcbridge/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Common flags
var (
	bridgeURL   string
	instance    string
	scanTimeout time.Duration
	verbose     bool
	assumeYes   bool
)

var rootCmd = &cobra.Command{
	Use:   "emcbridge-cli",
	Short: "EMC bridge client",
	Long: `A client for the PS5 EMC UART bridge.

Sends commands to the auxiliary controller through a bridge, runs the
unlock flow and opens an interactive console.

Without --url the bridge is found with mDNS. If several bridges answer,
use --instance or pick one from the list.`,
	Version: version.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Silent unless EMCBRIDGE_LOG_LEVEL is set
		_ = logging.InitializeFromEnv()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: open the console when no subcommand provided
		return runConsole(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&bridgeURL, "url", "", "Bridge console URL (e.g. ws://pico.local:8080/emc), skips discovery")
	rootCmd.PersistentFlags().StringVar(&instance, "instance", "", "Connect to the bridge advertising this mDNS instance name")
	rootCmd.PersistentFlags().DurationVar(&scanTimeout, "scan-timeout", 5*time.Second, "How long to look for bridges")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show all controller output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(discoverCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("emcbridge-cli %s (commit: %s)\n", version.Version, version.Commit)
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find bridges on the network",
	Long: `Find EMC bridges using mDNS/DNS-SD discovery.

Bridges started with mDNS enabled advertise _emcbridge._tcp together with
their endpoint paths and version.`,
	Example: `  # Scan for 5 seconds (default)
  emcbridge-cli discover

  # Longer scan for slow networks
  emcbridge-cli discover --scan-timeout 15s`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	fmt.Printf("Scanning for bridges (timeout: %s)...\n\n", scanTimeout)

	scanner := discovery.NewScanner()
	scanner.Timeout = scanTimeout
	devices, err := scanner.ScanForDevicesWithContext(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No bridges found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure 'emcbridge serve' is running with mdns.enabled: true")
		fmt.Println("  - Check that this machine is on the bridge's network segment")
		fmt.Println("  - Try increasing --scan-timeout")
		fmt.Println("  - Use --url to connect without discovery")
		return nil
	}

	fmt.Printf("Found %d bridge(s):\n\n", len(devices))
	for i, d := range devices {
		fmt.Printf("%d. %s\n", i+1, d.Instance)
		fmt.Printf("   Host:     %s\n", d.Hostname)
		fmt.Printf("   Console:  %s\n", d.EMCURL())
		if d.HasEFC() {
			fmt.Printf("   EFC:      %s\n", d.EFCURL())
		}
		if v := d.Version(); v != "" {
			fmt.Printf("   Version:  %s\n", v)
		}
		fmt.Println()
	}

	fmt.Println("Use 'emcbridge-cli console --instance <name>' to open a console")
	return nil
}
