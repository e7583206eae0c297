// Package console implements the interactive terminal console for a bridge.
//
// The console is a full-screen Bubble Tea program. Lines typed at the
// prompt go to the bridge's /emc endpoint, and every frame the bridge sends
// back is appended to a scrollback viewport, styled by result type. While a
// command is outstanding a spinner runs next to the prompt until its OK or
// NG frame arrives or the command times out.
//
// A background goroutine reads frames from the connection and hands them to
// the program one at a time over a channel, so controller output that
// arrives between commands (boot messages, $$ info lines) is shown as well.
//
// # Components
//
//   - bubbles/textinput: command prompt with history recall
//   - bubbles/viewport: scrollback
//   - bubbles/spinner: outstanding command indicator
//   - bubbles/help and bubbles/key: key bindings
//   - bubbles/list: bridge picker when discovery finds several bridges
//
// # Usage
//
//	c, err := client.Dial(ctx, url)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//	return console.Run(c)
package console
