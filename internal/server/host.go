package server

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/symbrkrs/emcbridge/internal/logging"
	"github.com/symbrkrs/emcbridge/internal/protocol"
)

// clientQueue bounds frames waiting for one host's writer.
const clientQueue = 256

var errSlowClient = errors.New("host not keeping up")

// client is one connected host WebSocket. Frames are queued and written by
// the client's own goroutine so a slow host never stalls the poll loop.
type client struct {
	conn *websocket.Conn
	addr string
	out  chan []byte
	once sync.Once
	done chan struct{}
}

func newClient(conn *websocket.Conn, addr string) *client {
	c := &client{
		conn: conn,
		addr: addr,
		out:  make(chan []byte, clientQueue),
		done: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

// send queues msg without blocking. A full queue means the host is gone or
// too slow and is reported as an error.
func (c *client) send(msg []byte) error {
	select {
	case <-c.done:
		return websocket.ErrCloseSent
	default:
	}
	select {
	case c.out <- msg:
		return nil
	default:
		return errSlowClient
	}
}

func (c *client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.out:
			err := c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err == nil {
				err = c.conn.WriteMessage(websocket.BinaryMessage, msg)
			}
			if err != nil {
				logging.Debug("Host write failed", zap.String("remote_addr", c.addr), zap.Error(err))
				c.close()
				return
			}
		}
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		_ = c.conn.Close()
	})
}

// fanout delivers everything the poll loop produces to every connected
// host. A host that cannot keep up is disconnected; an absent host is not
// an error, like an unplugged USB cable.
type fanout struct {
	name    string
	mu      sync.Mutex
	clients map[*client]struct{}
	writers []io.Writer
}

func newFanout(name string) *fanout {
	return &fanout{name: name, clients: make(map[*client]struct{})}
}

func (f *fanout) add(c *client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[c] = struct{}{}
}

func (f *fanout) remove(c *client) {
	f.mu.Lock()
	delete(f.clients, c)
	f.mu.Unlock()
	c.close()
}

func (f *fanout) addWriter(w io.Writer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writers = append(f.writers, w)
}

func (f *fanout) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *fanout) broadcast(msg []byte) {
	f.mu.Lock()
	for c := range f.clients {
		if err := c.send(msg); err != nil {
			logging.Warn("Dropping host client",
				zap.String("endpoint", f.name),
				zap.String("remote_addr", c.addr),
				zap.Error(err))
			delete(f.clients, c)
			go c.close()
		}
	}
	writers := f.writers
	f.mu.Unlock()

	for _, w := range writers {
		if _, err := w.Write(msg); err != nil {
			logging.Warn("Host writer failed", zap.String("endpoint", f.name), zap.Error(err))
		}
	}
}

// WriteResult sends r as a binary frame.
func (f *fanout) WriteResult(r protocol.Result) error {
	f.broadcast(r.WireFrame())
	return nil
}

// Write relays raw bytes.
func (f *fanout) Write(p []byte) (int, error) {
	f.broadcast(p)
	return len(p), nil
}

func (f *fanout) closeAll() {
	f.mu.Lock()
	clients := f.clients
	f.clients = make(map[*client]struct{})
	f.mu.Unlock()
	for c := range clients {
		c.close()
	}
}
