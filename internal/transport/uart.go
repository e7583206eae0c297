package transport

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/symbrkrs/emcbridge/internal/logging"
)

// allow tests to override external dependencies
var (
	openPort     = func(name string, mode *serial.Mode) (serialPort, error) { return serial.Open(name, mode) }
	getPortsList = serial.GetPortsList
)

// readPoll bounds how long the reader blocks so Close is noticed.
const readPoll = 50 * time.Millisecond

type serialPort interface {
	io.ReadWriteCloser
	SetMode(mode *serial.Mode) error
	SetReadTimeout(timeout time.Duration) error
	Drain() error
	ResetInputBuffer() error
	SetDTR(dtr bool) error
	SetRTS(rts bool) error
	GetModemStatusBits() (*serial.ModemStatusBits, error)
}

// PortError describes a failed operation on a serial device.
type PortError struct {
	Device string
	Op     string
	Err    error
}

func (e *PortError) Error() string {
	return fmt.Sprintf("serial %s %s: %v", e.Device, e.Op, e.Err)
}

func (e *PortError) Unwrap() error {
	return e.Err
}

// UART is an open 8N1 serial port.
type UART struct {
	device string

	mu   sync.Mutex
	port serialPort
	baud int

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func mode8N1(baud int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Open opens device at baud, 8N1.
func Open(device string, baud int) (*UART, error) {
	if baud <= 0 {
		return nil, &PortError{Device: device, Op: "open", Err: fmt.Errorf("invalid baud rate %d", baud)}
	}
	port, err := openPort(device, mode8N1(baud))
	if err != nil {
		return nil, &PortError{Device: device, Op: "open", Err: err}
	}
	if err := port.SetReadTimeout(readPoll); err != nil {
		_ = port.Close()
		return nil, &PortError{Device: device, Op: "set read timeout", Err: err}
	}
	// Stale bytes from before we opened would desync the line parser.
	if err := port.ResetInputBuffer(); err != nil {
		logging.Warn("Failed to flush serial input", zap.String("device", device), zap.Error(err))
	}
	logging.Info("Opened serial port", zap.String("device", device), zap.Int("baud", baud))
	return &UART{
		device: device,
		port:   port,
		baud:   baud,
		stop:   make(chan struct{}),
	}, nil
}

// Device returns the device path.
func (u *UART) Device() string {
	return u.device
}

// Start launches the reader goroutine. Every received byte is written to
// sink. Start must be called at most once.
func (u *UART) Start(sink io.Writer) {
	u.wg.Add(1)
	go u.readLoop(sink)
}

func (u *UART) readLoop(sink io.Writer) {
	defer u.wg.Done()
	buf := make([]byte, 256)
	for {
		select {
		case <-u.stop:
			return
		default:
		}
		n, err := u.port.Read(buf)
		if n > 0 {
			_, _ = sink.Write(buf[:n])
		}
		if err != nil {
			select {
			case <-u.stop:
			default:
				logging.Error("Serial read failed", zap.String("device", u.device), zap.Error(err))
			}
			return
		}
	}
}

// Write sends p.
func (u *UART) Write(p []byte) (int, error) {
	n, err := u.port.Write(p)
	if err != nil {
		return n, &PortError{Device: u.device, Op: "write", Err: err}
	}
	return n, nil
}

// Drain waits until written data has been transmitted.
func (u *UART) Drain() error {
	if err := u.port.Drain(); err != nil {
		return &PortError{Device: u.device, Op: "drain", Err: err}
	}
	return nil
}

// BaudRate returns the current line speed.
func (u *UART) BaudRate() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.baud
}

// SetBaudRate reconfigures the line speed, keeping 8N1.
func (u *UART) SetBaudRate(baud int) error {
	if baud <= 0 {
		return &PortError{Device: u.device, Op: "set baud rate", Err: fmt.Errorf("invalid baud rate %d", baud)}
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if baud == u.baud {
		return nil
	}
	if err := u.port.SetMode(mode8N1(baud)); err != nil {
		return &PortError{Device: u.device, Op: "set baud rate", Err: err}
	}
	logging.Debug("Baud rate changed", zap.String("device", u.device), zap.Int("baud", baud))
	u.baud = baud
	return nil
}

// Close stops the reader and closes the port.
func (u *UART) Close() error {
	var err error
	u.once.Do(func() {
		close(u.stop)
		err = u.port.Close()
		u.wg.Wait()
	})
	if err != nil {
		return &PortError{Device: u.device, Op: "close", Err: err}
	}
	return nil
}

// ListPorts returns the serial devices present on the system.
func ListPorts() ([]string, error) {
	ports, err := getPortsList()
	if err != nil {
		return nil, fmt.Errorf("listing serial ports: %w", err)
	}
	return ports, nil
}
