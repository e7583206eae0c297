package server

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/symbrkrs/emcbridge/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 2 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// BaudParam is the /efc query parameter selecting the line speed.
	BaudParam = "baud"
)

// handleEMC serves the controller console. Each text or binary message is
// one or more command lines; output arrives as binary result frames.
func (s *Server) handleEMC(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("WebSocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}
	c := newClient(conn, r.RemoteAddr)
	s.emcHost.add(c)
	defer s.emcHost.remove(c)
	logging.LogConnection(c.addr, "emc_connected")
	defer logging.LogConnection(c.addr, "emc_closed")

	s.readLoop(c, func(_ int, data []byte) {
		for _, line := range splitLines(data) {
			s.Submit(line)
		}
	})
}

// handleEFC serves the raw secondary UART. Binary messages are written to
// the UART unchanged. A text message "baud <rate>" changes the line speed,
// as does the baud query parameter on connect.
func (s *Server) handleEFC(w http.ResponseWriter, r *http.Request) {
	var baud int
	if v := r.URL.Query().Get(BaudParam); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid baud rate", http.StatusBadRequest)
			return
		}
		baud = n
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("WebSocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}
	c := newClient(conn, r.RemoteAddr)
	s.efcHost.add(c)
	defer s.efcHost.remove(c)
	logging.LogConnection(c.addr, "efc_connected")
	defer logging.LogConnection(c.addr, "efc_closed")

	if baud > 0 {
		s.requestBaud(baud)
	}

	s.readLoop(c, func(mt int, data []byte) {
		if mt == websocket.TextMessage {
			if rate, ok := parseBaudCommand(string(data)); ok {
				s.requestBaud(rate)
				return
			}
		}
		s.submitEFC(bytes.Clone(data))
	})
}

// requestBaud hands a baud change to the poll loop, replacing any change
// it has not picked up yet.
func (s *Server) requestBaud(baud int) {
	for {
		select {
		case s.efcBaud <- baud:
			return
		default:
		}
		select {
		case <-s.efcBaud:
		default:
		}
	}
}

// readLoop reads messages until the peer goes away, keeping the connection
// alive with pings.
func (s *Server) readLoop(c *client, handle func(messageType int, data []byte)) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-c.done:
				return
			case <-ticker.C:
				if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info("Connection closed with error",
					zap.String("remote_addr", c.addr),
					zap.Error(err),
				)
			}
			return
		}
		handle(mt, data)
	}
}

// splitLines breaks a host message into command lines, dropping CRs and
// empty lines.
func splitLines(data []byte) []string {
	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		l = strings.TrimRight(l, "\r")
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func parseBaudCommand(s string) (int, bool) {
	fields := strings.Fields(s)
	if len(fields) != 2 || fields[0] != BaudParam {
		return 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
