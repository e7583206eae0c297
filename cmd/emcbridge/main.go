// Emcbridge is the bridge daemon between host tools and a PS5 auxiliary
// controller (EMC) console UART.
//
// It runs on a small Linux board wired to the controller UART and its reset
// and ROM pins, and serves the console to host tools over WebSocket. It also
// carries the exploit that unlocks the controller's locked ucmd commands.
//
// Usage:
//
//	emcbridge serve [flags]
//
// See 'emcbridge --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/symbrkrs/emcbridge/internal/version"
)

// exitRestart tells a supervisor that picoreset asked for a restart
// (EX_TEMPFAIL). Pair it with RestartForceExitStatus=75 under systemd.
const exitRestart = 75

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errRestart) {
			os.Exit(exitRestart)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var configPath string

var rootCmd = &cobra.Command{
	Use:   "emcbridge",
	Short: "PS5 EMC UART bridge",
	Long: `A bridge between host tools and the PS5 auxiliary controller (EMC) console.

The bridge owns the controller UART, its reset and ROM lines and an optional
secondary UART. Host tools connect over WebSocket, or use 'emcbridge-cli'.

Settings are read from a YAML file; see 'emcbridge config init'.`,
	Version: version.Version,
	Example: `  # Run the bridge with the default configuration file
  emcbridge serve

  # List known firmware constants
  emcbridge consts list`,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: $XDG_CONFIG_HOME/emcbridge/config.yaml)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("emcbridge %s (commit: %s)\n", version.Version, version.Commit)
	},
}
