package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/symbrkrs/emcbridge/internal/console"
	"github.com/symbrkrs/emcbridge/internal/ui"
)

// consoleCmd opens the interactive console
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open an interactive controller console",
	Long: `Open a full-screen console on the bridge.

Type controller commands at the prompt; every line the controller sends is
shown in the scrollback. Up and down recall earlier commands, page up and
page down scroll, ctrl+l clears and esc quits.`,
	Example: `  # Console on the only bridge found
  emcbridge-cli console

  # Console on a specific bridge
  emcbridge-cli console --url ws://10.0.0.2:8080/emc`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	c, err := dialConsole(cmd.Context())
	if err != nil {
		ui.NewPrinter(os.Stderr).PrintError("Console failed", err, hintList(err))
		return err
	}
	defer c.Close()

	return console.Run(c)
}
