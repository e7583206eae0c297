// Package ringbuf implements the fixed-capacity byte ring that sits between a
// UART reader and the bridge's poll loop.
//
// The buffer has exactly one producer and one consumer. The producer is the
// port reader goroutine, which calls Push once per received byte; Push never
// allocates and never blocks on anything but the index lock. The consumer is
// the poll loop, which extracts complete checksum-validated lines with
// ReadLine or drains raw bytes with ReadBuf.
//
// # Line Tracking
//
// The buffer counts stored '\n' bytes so that ReadLine can reject quickly,
// without taking the lock, when no complete line is pending.
//
// # Capacity
//
// Capacity must be a power of two. One slot is always left empty to tell a
// full buffer from an empty one, so at most Cap()-1 bytes are readable. When
// the buffer is full, pushed bytes are dropped and counted; there is no
// backpressure toward the producer. Sustained drops mean the poll loop is not
// keeping up and are logged as errors by the port reader.
//
// # Locking
//
// A single mutex stands in for the microcontroller's interrupt mask. It only
// brackets index bookkeeping and copying, never checksum validation or line
// processing.
package ringbuf
