package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/symbrkrs/emcbridge/internal/client"
)

// escapeByte ends a relay session (ctrl+])
const escapeByte = 0x1d

var relayBaud int

// efcCmd attaches the terminal to the secondary UART relay
var efcCmd = &cobra.Command{
	Use:   "efc",
	Short: "Attach the terminal to the secondary UART",
	Long: `Relay the terminal to the bridge's secondary UART.

Keystrokes go to the UART unchanged and UART output is written to the
terminal. Press ctrl+] to leave.`,
	Example: `  emcbridge-cli efc
  emcbridge-cli efc --baud 115200 --url ws://10.0.0.2:8080/emc`,
	Args: cobra.NoArgs,
	RunE: runEFC,
}

func init() {
	efcCmd.Flags().IntVar(&relayBaud, "baud", 0, "Change the UART baud rate first")
	rootCmd.AddCommand(efcCmd)
}

func runEFC(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	u, err := relayURL(cmd.Context())
	if err != nil {
		return err
	}
	c, err := client.Dial(cmd.Context(), u)
	if err != nil {
		return err
	}
	defer c.Close()

	if relayBaud > 0 {
		if err := c.SetBaud(relayBaud); err != nil {
			return err
		}
	}

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("failed to set raw mode: %w", err)
		}
		defer term.Restore(fd, state)
	}
	fmt.Fprintf(os.Stderr, "Connected to %s. Press ctrl+] to leave.\r\n", u)

	errc := make(chan error, 2)
	go func() { errc <- relayToTerminal(c, os.Stdout) }()
	go func() { errc <- relayFromTerminal(os.Stdin, c) }()

	if err := <-errc; err != nil && !errors.Is(err, errRelayDone) {
		return err
	}
	return nil
}

var errRelayDone = errors.New("relay closed")

func relayToTerminal(c *client.Client, w io.Writer) error {
	for {
		// No deadline: the relay is idle until the UART says something
		p, err := c.ReadBytes(time.Time{})
		if err != nil {
			return err
		}
		if _, err := w.Write(p); err != nil {
			return err
		}
	}
}

func relayFromTerminal(r io.Reader, c *client.Client) error {
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk, done := cutAtEscape(buf[:n])
			if len(chunk) > 0 {
				if err := c.SendBytes(chunk); err != nil {
					return err
				}
			}
			if done {
				return errRelayDone
			}
		}
		if err == io.EOF {
			return errRelayDone
		}
		if err != nil {
			return err
		}
	}
}

// cutAtEscape returns the bytes before the escape byte and whether it was
// present.
func cutAtEscape(p []byte) ([]byte, bool) {
	for i, b := range p {
		if b == escapeByte {
			return p[:i], true
		}
	}
	return p, false
}
