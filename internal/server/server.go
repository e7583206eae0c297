package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/symbrkrs/emcbridge/internal/emc"
	"github.com/symbrkrs/emcbridge/internal/logging"
)

const (
	// DefaultEMCPath is where host tools reach the controller console.
	DefaultEMCPath = "/emc"

	// DefaultEFCPath is the raw secondary UART relay.
	DefaultEFCPath = "/efc"

	// pollInterval is how often the poll loop services the UARTs when no
	// host input is pending.
	pollInterval = time.Millisecond

	// commandQueue bounds host lines waiting for the poll loop.
	commandQueue = 64
)

// Session is the EMC side the poll loop drives.
type Session interface {
	ProcessCommand(cmd string, host emc.HostWriter) error
	ServiceUART(host emc.HostWriter, maxSlice time.Duration) error
}

// Passthrough is the EFC side the poll loop drives.
type Passthrough interface {
	WriteHost(p []byte) error
	SetBaudRate(baud int) error
	Service(w io.Writer, maxSlice time.Duration) error
}

// Config holds the server configuration
type Config struct {
	// Listen is the TCP address for the WebSocket endpoints.
	Listen string

	EMCPath string
	EFCPath string

	// Slice bounds each UART service pass.
	Slice time.Duration

	// MDNS, when set, advertises the bridge.
	MDNS *MDNSConfig
}

// Server owns the poll loop and the host-facing endpoints.
type Server struct {
	config   *Config
	session  Session
	efc      Passthrough
	upgrader websocket.Upgrader

	emcHost *fanout
	efcHost *fanout

	commands chan string
	efcData  chan []byte
	efcBaud  chan int
	stopped  chan struct{} // closed when the poll loop exits

	listener   net.Listener
	httpServer *http.Server
	mdns       *mdnsRegistration
	wg         sync.WaitGroup
}

// New creates a server. efc may be nil when no secondary UART is wired.
func New(config *Config, session Session, efc Passthrough) (*Server, error) {
	if session == nil {
		return nil, errors.New("server: EMC session is required")
	}
	cfg := *config
	if cfg.EMCPath == "" {
		cfg.EMCPath = DefaultEMCPath
	}
	if cfg.EFCPath == "" {
		cfg.EFCPath = DefaultEFCPath
	}
	if cfg.Slice <= 0 {
		cfg.Slice = emc.DefaultServiceSlice
	}
	return &Server{
		config:  &cfg,
		session: session,
		efc:     efc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxMessageSize,
			WriteBufferSize: maxMessageSize,
			// Host tools are CLIs, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		emcHost:  newFanout("emc"),
		efcHost:  newFanout("efc"),
		commands: make(chan string, commandQueue),
		efcData:  make(chan []byte, commandQueue),
		efcBaud:  make(chan int, 1),
		stopped:  make(chan struct{}),
	}, nil
}

// Handler returns the HTTP handler serving the WebSocket endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.config.EMCPath, s.handleEMC)
	if s.efc != nil {
		mux.HandleFunc(s.config.EFCPath, s.handleEFC)
	}
	return mux
}

// AddHost attaches an extra frame sink, such as a USB gadget tty, to the
// EMC output.
func (s *Server) AddHost(w io.Writer) {
	s.emcHost.addWriter(w)
}

// Submit queues a host command line for the poll loop. It reports false
// once the poll loop has stopped.
func (s *Server) Submit(line string) bool {
	select {
	case s.commands <- line:
		return true
	case <-s.stopped:
		return false
	}
}

// submitEFC queues raw bytes for the secondary UART.
func (s *Server) submitEFC(data []byte) bool {
	select {
	case s.efcData <- data:
		return true
	case <-s.stopped:
		return false
	}
}

// Run starts listening, runs the poll loop and blocks until ctx is done or
// SIGINT/SIGTERM arrives.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("Bridge listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("emc_path", s.config.EMCPath),
		zap.Bool("efc", s.efc != nil),
	)

	if s.config.MDNS != nil && s.config.MDNS.Enabled {
		reg, err := registerMDNS(s.config.MDNS, listener.Addr(), s.config, s.efc != nil)
		if err != nil {
			logging.Warn("mDNS registration failed", zap.Error(err))
		} else {
			s.mdns = reg
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.pollLoop(ctx)
	}()

	var runErr error
	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping bridge...")
	case <-ctx.Done():
	case runErr = <-errChan:
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := s.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// pollLoop is the only goroutine that touches the session and passthrough.
func (s *Server) pollLoop(ctx context.Context) {
	defer close(s.stopped)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case line := <-s.commands:
			if err := s.session.ProcessCommand(line, s.emcHost); err != nil {
				logging.Warn("Host write failed", zap.Error(err))
			}
		case data := <-s.efcData:
			if err := s.efc.WriteHost(data); err != nil {
				logging.Warn("EFC write failed", zap.Error(err))
			}
		case baud := <-s.efcBaud:
			if err := s.efc.SetBaudRate(baud); err != nil {
				logging.Warn("EFC baud change failed", zap.Int("baud", baud), zap.Error(err))
			}
		case <-ticker.C:
		}
		s.service()
	}
}

func (s *Server) service() {
	if err := s.session.ServiceUART(s.emcHost, s.config.Slice); err != nil {
		logging.Warn("EMC relay failed", zap.Error(err))
	}
	if s.efc != nil {
		if err := s.efc.Service(s.efcHost, s.config.Slice); err != nil {
			logging.Warn("EFC relay failed", zap.Error(err))
		}
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down bridge...")

	if s.mdns != nil {
		s.mdns.shutdown()
	}

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.emcHost.closeAll()
	s.efcHost.closeAll()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logging.Info("Bridge stopped")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return err
}

// GetActiveConnections returns the number of connected host clients
func (s *Server) GetActiveConnections() int {
	return s.emcHost.count() + s.efcHost.count()
}
