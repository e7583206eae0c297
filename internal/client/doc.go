// Package client talks to a running bridge over its WebSocket endpoints.
//
// The console endpoint takes command lines and answers with binary result
// frames. Every command produces an echo frame (an Unknown result holding
// the command text) followed, for commands that answer, by an OK or NG
// result. Controller output that arrives in between, such as "$$" info
// lines, is handed to an optional callback.
//
// # Usage Example
//
//	c, err := client.Dial(ctx, "ws://pico.local:8080/emc")
//	if err != nil {
//	    fmt.Println(client.GetTroubleshootingHint(err))
//	    return err
//	}
//	defer c.Close()
//
//	r, err := c.Command(ctx, "unlock")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(r.Format())
package client
