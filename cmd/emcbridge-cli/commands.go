package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/symbrkrs/emcbridge/internal/client"
	"github.com/symbrkrs/emcbridge/internal/consts"
	"github.com/symbrkrs/emcbridge/internal/protocol"
	"github.com/symbrkrs/emcbridge/internal/ui"
)

// rawOutput prints bare protocol lines for scripts
var rawOutput bool

func init() {
	sendCmd.Flags().BoolVar(&rawOutput, "raw", false, "Print the answer as a protocol line only")
	unlockCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	romCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(romCmd)
	rootCmd.AddCommand(fwconstCmd)
	rootCmd.AddCommand(chipconstCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(restartCmd)
}

// sendCmd sends one controller command
var sendCmd = &cobra.Command{
	Use:   "send <command...>",
	Short: "Send a command to the controller",
	Long: `Send one command line to the controller and print its answer.

Arguments are joined with spaces. Controller output that arrives before the
answer is shown with --verbose.`,
	Example: `  # Read the firmware version
  emcbridge-cli send version

  # Script friendly output
  emcbridge-cli send --raw getserialno`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		line := strings.Join(args, " ")
		return runCommand(cmd, "Command", line)
	},
}

// unlockCmd runs the exploit
var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock the controller's locked commands",
	Long: `Unlock the controller by injecting a command through the ucmd buffer.

This command will:
  1. Connect to the bridge
  2. Read the controller firmware version
  3. Ask the bridge to run the unlock

The bridge needs constants for the reported firmware version. List them
with 'emcbridge consts list' on the bridge host, or add them with
'emcbridge-cli fwconst'. A failed attempt resets the controller.`,
	Example: `  # Unlock with confirmation
  emcbridge-cli unlock

  # Unlock a specific bridge without prompting, showing controller output
  emcbridge-cli unlock --instance bench-a --yes --verbose`,
	Args: cobra.NoArgs,
	RunE: runUnlock,
}

func runUnlock(cmd *cobra.Command, args []string) error {
	// Suppress usage on execution errors (we're past argument parsing)
	cmd.SilenceUsage = true

	ctx := cmd.Context()
	url, err := consoleURL(ctx)
	if err != nil {
		return err
	}

	if !assumeYes && !ui.UnlockConfirmation() {
		return nil
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:     "EMC Unlock",
		Command:   "emcbridge-cli unlock",
		Params:    map[string]string{"Bridge": url},
		StepNames: []string{"Connect to bridge", "Read firmware version", "Unlock controller"},
		Verbose:   verbose,
	})
	ui.PrintPleaseWait(os.Stdout, "Unlocking controller", "up to 30 seconds")

	return runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) (map[string]string, error) {
		onStep(1, "", ui.StepRunning, "")
		c, err := client.Dial(ctx, url)
		if err != nil {
			onStep(1, "", ui.StepFailed, "")
			return nil, err
		}
		defer c.Close()
		c.OnOther = runner.AddFrame
		onStep(1, "", ui.StepComplete, "")

		onStep(2, "", ui.StepRunning, "")
		v, err := command(ctx, c, "version")
		if err == nil && !v.IsOk() {
			err = &ui.FrameError{Result: v}
		}
		if err != nil {
			onStep(2, "", ui.StepFailed, "")
			return nil, err
		}
		onStep(2, "", ui.StepComplete, v.Response)

		onStep(3, "", ui.StepRunning, "")
		r, err := command(ctx, c, "unlock")
		if err == nil && !r.IsOk() {
			err = &ui.FrameError{Result: r}
		}
		if err != nil {
			onStep(3, "", ui.StepFailed, "")
			return nil, err
		}
		onStep(3, "", ui.StepComplete, "")

		return map[string]string{
			"Firmware": v.Response,
			"Status":   protocol.StatusName(r.Status),
		}, nil
	})
}

// romCmd switches the controller in and out of its boot ROM
var romCmd = &cobra.Command{
	Use:   "rom <enter|exit>",
	Short: "Switch the controller boot ROM mode",
	Long: `Reset the controller into or out of its boot ROM.

In ROM mode the bridge relays raw bytes: console lines are hex decoded on
the way in and controller output comes back hex encoded.`,
	Example: `  emcbridge-cli rom enter
  emcbridge-cli rom exit`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"enter", "exit"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "enter" && !assumeYes && !ui.RomConfirmation() {
			return nil
		}
		return runCommand(cmd, "ROM "+args[0], "picoemcrom "+args[0])
	},
}

// fwconstCmd adds firmware constants on the bridge
var fwconstCmd = &cobra.Command{
	Use:   "fwconst <version> <ucmd-buf-addr> <shellcode>",
	Short: "Set exploit constants for a firmware version",
	Long: `Add or replace the constants the bridge uses for one firmware version.

The version is the controller's version string; spaces may be written as
dots. The address and shellcode are hex. The change lasts until the bridge
restarts; add a firmwares entry to its configuration file to keep it.`,
	Example: `  emcbridge-cli fwconst E1E.0001.0000.0004.13D0 1762e8 00b547f2...00bd`,
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := consts.ParseFwConstants(args[1], args[2]); err != nil {
			return err
		}
		version := strings.Join(strings.Fields(args[0]), ".")
		return runCommand(cmd, "Firmware constants", fmt.Sprintf("picofwconst %s %s %s", version, args[1], args[2]))
	},
}

// chipconstCmd selects chip timing
var chipconstCmd = &cobra.Command{
	Use:   "chipconst <preset> | <filler> <post-ms> <delay-us>",
	Short: "Set the chip timing used by unlock",
	Long: `Select a chip timing preset, or give raw values as hex: filler
multiplier, post-process time in milliseconds and pwn delay in microseconds.`,
	Example: `  emcbridge-cli chipconst salina2
  emcbridge-cli chipconst 06 320 384`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 && len(args) != 3 {
			return fmt.Errorf("want a preset name or three hex values, got %d argument(s)", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 3 {
			if _, err := consts.ParseChipConsts(args[0], args[1], args[2]); err != nil {
				return err
			}
		}
		return runCommand(cmd, "Chip constants", "picochipconst "+strings.Join(args, " "))
	},
}

// resetCmd pulses the controller reset line
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the controller",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, "Controller reset", "picoemcreset")
	},
}

// restartCmd asks the bridge process to restart
var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the bridge",
	Long: `Ask the bridge to restart. The bridge acknowledges with an echo only and
then exits so its supervisor can start it again.`,
	Args: cobra.NoArgs,
	RunE: runRestart,
}

func runRestart(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	p := ui.NewPrinter(os.Stdout)

	c, err := dialConsole(cmd.Context())
	if err != nil {
		p.PrintError("Bridge restart failed", err, hintList(err))
		return err
	}
	defer c.Close()

	const line = "picoreset"
	if err := c.Send(line); err != nil {
		return err
	}
	deadline := time.Now().Add(client.DefaultCommandTimeout)
	for {
		r, err := c.ReadResult(deadline)
		if err != nil {
			p.PrintError("Bridge restart failed", err, hintList(err))
			return err
		}
		if r.IsUnknown() && r.Response == line {
			p.PrintSuccess("Bridge restart requested", map[string]string{"Bridge": c.URL})
			return nil
		}
		if verbose {
			p.PrintFrame(r)
		}
	}
}

// command runs one line with the deadline its kind needs.
func command(ctx context.Context, c *client.Client, line string) (protocol.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, client.CommandTimeout(line))
	defer cancel()
	return c.Command(ctx, line)
}

// runCommand connects, sends line and prints the answer. NG and timeout
// answers are returned as errors so the exit status reflects them.
func runCommand(cmd *cobra.Command, title, line string) error {
	cmd.SilenceUsage = true
	p := ui.NewPrinter(os.Stdout)

	c, err := dialConsole(cmd.Context())
	if err != nil {
		p.PrintError(title+" failed", err, hintList(err))
		return err
	}
	defer c.Close()
	if verbose {
		c.OnOther = p.PrintFrame
	}

	r, err := command(cmd.Context(), c, line)
	if err != nil {
		p.PrintError(title+" failed", err, hintList(err))
		return err
	}

	if rawOutput {
		fmt.Println(r.Format())
	} else {
		p.PrintFrameResult(title, r)
	}
	if !r.IsOk() {
		return &ui.FrameError{Result: r}
	}
	return nil
}
