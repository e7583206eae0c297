package ringbuf

import (
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/symbrkrs/emcbridge/internal/logging"
	"github.com/symbrkrs/emcbridge/internal/protocol"
	"github.com/symbrkrs/emcbridge/internal/timing"
)

// DefaultSize is the capacity used for each UART session.
const DefaultSize = 1024

// Buffer is a single-producer single-consumer byte ring with newline tracking.
type Buffer struct {
	clock timing.Clock

	mu   sync.Mutex
	buf  []byte
	mask int
	wpos int
	rpos int

	newlines atomic.Int64
	dropped  atomic.Uint64
}

// New creates a buffer holding size bytes. size must be a power of two and at
// least 2.
func New(size int, clock timing.Clock) (*Buffer, error) {
	if size < 2 || bits.OnesCount(uint(size)) != 1 {
		return nil, fmt.Errorf("ring buffer size must be a power of two >= 2, got %d", size)
	}
	if clock == nil {
		clock = timing.System()
	}
	return &Buffer{
		clock: clock,
		buf:   make([]byte, size),
		mask:  size - 1,
	}, nil
}

// Cap returns the buffer's storage size. At most Cap()-1 bytes are readable.
func (b *Buffer) Cap() int {
	return len(b.buf)
}

// Available returns the number of bytes waiting to be read.
func (b *Buffer) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.availableLocked()
}

func (b *Buffer) availableLocked() int {
	return (b.wpos - b.rpos) & b.mask
}

// PendingLines returns the number of '\n' bytes currently stored.
func (b *Buffer) PendingLines() int {
	return int(b.newlines.Load())
}

// Dropped returns the number of bytes discarded because the buffer was full.
func (b *Buffer) Dropped() uint64 {
	return b.dropped.Load()
}

// Push stores one byte. If the buffer is full the byte is dropped.
func (b *Buffer) Push(c byte) {
	b.mu.Lock()
	next := (b.wpos + 1) & b.mask
	if next == b.rpos {
		b.mu.Unlock()
		b.dropped.Add(1)
		return
	}
	b.buf[b.wpos] = c
	b.wpos = next
	if c == '\n' {
		b.newlines.Add(1)
	}
	b.mu.Unlock()
}

// Write pushes every byte of p and always reports len(p) consumed, so a
// Buffer can be the destination of io.Copy from a port.
func (b *Buffer) Write(p []byte) (int, error) {
	for _, c := range p {
		b.Push(c)
	}
	return len(p), nil
}

// ReadLine extracts the oldest complete line, validates and strips its
// checksum suffix, and returns the remaining text. A line that fails
// validation is consumed and discarded; other lines may still be queued, so
// callers can simply retry.
func (b *Buffer) ReadLine() (string, bool) {
	// Speed hack: no lock when nothing can be returned.
	if b.newlines.Load() == 0 {
		return "", false
	}

	var raw []byte
	got := false

	b.mu.Lock()
	avail := b.availableLocked()
	for i := 0; i < avail; i++ {
		pos := (b.rpos + i) & b.mask
		c := b.buf[pos]
		if c == '\n' {
			b.newlines.Add(-1)
			b.rpos = (pos + 1) & b.mask
			got = true
			break
		}
		raw = append(raw, c)
	}
	b.mu.Unlock()

	if !got {
		return "", false
	}

	line, ok := protocol.ValidateAndStrip(string(raw))
	if !ok {
		// The controller can emit torn lines when its print routine is
		// reentered. Nothing to do but drop them.
		logging.Debug("DROP", zap.String("line", string(raw)))
		return "", false
	}
	return line, true
}

// ReadLineTimeout polls ReadLine until a valid line arrives or timeout
// elapses.
func (b *Buffer) ReadLineTimeout(timeout time.Duration) (string, bool) {
	var line string
	ok := timing.WaitUntil(b.clock, timeout, func() bool {
		var got bool
		line, got = b.ReadLine()
		return got
	})
	return line, ok
}

// ReadBuf drains up to len(dst) raw bytes into dst and returns the count.
func (b *Buffer) ReadBuf(dst []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.availableLocked()
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		c := b.buf[b.rpos]
		if c == '\n' {
			b.newlines.Add(-1)
		}
		dst[i] = c
		b.rpos = (b.rpos + 1) & b.mask
	}
	return n
}

// Clear discards everything buffered.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wpos = 0
	b.rpos = 0
	b.newlines.Store(0)
}
