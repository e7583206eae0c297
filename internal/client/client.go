package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/symbrkrs/emcbridge/internal/protocol"
	"github.com/symbrkrs/emcbridge/internal/version"
)

const (
	// DefaultDialTimeout bounds the WebSocket handshake
	DefaultDialTimeout = 5 * time.Second

	// DefaultCommandTimeout bounds a plain controller command
	DefaultCommandTimeout = 2 * time.Second

	// UnlockTimeout bounds the unlock flow, which writes the payload in
	// chunks and waits out the chip's post-process delays
	UnlockTimeout = 30 * time.Second

	writeWait = 2 * time.Second
)

// Client is a connection to one bridge endpoint.
type Client struct {
	// URL is the endpoint this client is connected to
	URL string

	// OnOther, if set, receives every frame Command reads that is not the
	// echo or the final result.
	OnOther func(protocol.Result)

	conn    *websocket.Conn
	writeMu sync.Mutex

	// pending holds frames decoded from a message but not yet returned
	pending []protocol.Result
}

// Dial connects to a bridge endpoint such as ws://host:8080/emc.
func Dial(ctx context.Context, url string) (*Client, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: DefaultDialTimeout,
	}
	header := http.Header{}
	header.Set("User-Agent", version.UserAgent("emcbridge-cli"))

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, ClassifyDialError(err, resp, url)
	}
	return &Client{URL: url, conn: conn}, nil
}

// Send writes one command line.
func (c *Client) Send(line string) error {
	return c.write(websocket.TextMessage, []byte(line+"\n"))
}

// SendBytes writes raw bytes, as the EFC relay expects.
func (c *Client) SendBytes(p []byte) error {
	return c.write(websocket.BinaryMessage, p)
}

// SendRom writes raw bytes to the controller boot ROM. The bridge expects
// them hex encoded on the console endpoint.
func (c *Client) SendRom(p []byte) error {
	return c.Send(protocol.BufToHex(p))
}

// SetBaud asks the EFC relay to change its line speed.
func (c *Client) SetBaud(baud int) error {
	return c.write(websocket.TextMessage, []byte(fmt.Sprintf("baud %d", baud)))
}

func (c *Client) write(mt int, p []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(mt, p); err != nil {
		return &BridgeError{Type: ErrTypeNetwork, Message: "failed to send to bridge", Err: err, Addr: c.URL}
	}
	return nil
}

// ReadResult returns the next result frame, waiting until deadline.
func (c *Client) ReadResult(deadline time.Time) (protocol.Result, error) {
	for len(c.pending) == 0 {
		data, err := c.readMessage(deadline)
		if err != nil {
			return protocol.Result{}, err
		}
		for len(data) > 0 {
			r, n, err := protocol.DecodeFrame(data)
			if err != nil {
				return protocol.Result{}, &BridgeError{Type: ErrTypeProtocol, Message: "malformed result frame", Err: err, Addr: c.URL}
			}
			c.pending = append(c.pending, r)
			data = data[n:]
		}
	}
	r := c.pending[0]
	c.pending = c.pending[1:]
	return r, nil
}

// ReadBytes returns the next raw message, as sent by the EFC relay.
func (c *Client) ReadBytes(deadline time.Time) ([]byte, error) {
	return c.readMessage(deadline)
}

func (c *Client) readMessage(deadline time.Time) ([]byte, error) {
	_ = c.conn.SetReadDeadline(deadline)
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		var ne interface{ Timeout() bool }
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, &BridgeError{Type: ErrTypeTimeout, Message: "bridge did not answer in time", Err: err, Addr: c.URL}
		}
		return nil, &BridgeError{Type: ErrTypeNetwork, Message: "connection to bridge lost", Err: err, Addr: c.URL}
	}
	return data, nil
}

// Command sends line and returns the controller's answer: the first OK or
// NG frame after the echo, or a Timeout result when the bridge reports one.
// Use CommandTimeout to pick a deadline from the command kind.
func (c *Client) Command(ctx context.Context, line string) (protocol.Result, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(CommandTimeout(line))
	}
	if err := c.Send(line); err != nil {
		return protocol.Result{}, err
	}

	echoed := false
	for {
		if err := ctx.Err(); err != nil {
			return protocol.Result{}, err
		}
		r, err := c.ReadResult(deadline)
		if err != nil {
			return protocol.Result{}, err
		}
		switch {
		case !echoed && r.IsUnknown() && r.Response == line:
			echoed = true
		case echoed && (r.IsOkOrNg() || r.IsTimeout()):
			return r, nil
		default:
			if c.OnOther != nil {
				c.OnOther(r)
			}
		}
	}
}

// CommandTimeout picks how long to wait for line's answer.
func CommandTimeout(line string) time.Duration {
	if strings.HasPrefix(line, "unlock") {
		return UnlockTimeout
	}
	return DefaultCommandTimeout
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.writeMu.Unlock()
	return c.conn.Close()
}
