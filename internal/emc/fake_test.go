package emc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/symbrkrs/emcbridge/internal/consts"
	"github.com/symbrkrs/emcbridge/internal/protocol"
	"github.com/symbrkrs/emcbridge/internal/ringbuf"
	"github.com/symbrkrs/emcbridge/internal/timing"
)

const testVersion = "E1E 0001 0000 0004 13D0"

// fakeController emulates the controller's ucmd console closely enough to
// run the unlock sequence. Responses are pushed into the ring buffer
// synchronously from Write.
type fakeController struct {
	rx *ringbuf.Buffer

	version     string
	payloadAddr uint32
	tablePtr    [4]byte
	landOOB     bool
	unlocked    bool
	silent      bool
	preamble    []string
	failChunk   int

	line      []byte
	commands  []string
	chunks    map[uint32][]byte
	oobWrites [][4]byte
	rawWrites [][]byte
	drains    int
	bauds     []int
}

func newFakeController(rx *ringbuf.Buffer) *fakeController {
	return &fakeController{
		rx:          rx,
		version:     testVersion,
		payloadAddr: 0x1762e8,
		tablePtr:    [4]byte{0x10, 0x20, 0x12, 0x00},
		landOOB:     true,
		failChunk:   -1,
		chunks:      make(map[uint32][]byte),
	}
}

func (f *fakeController) Write(p []byte) (int, error) {
	f.rawWrites = append(f.rawWrites, bytes.Clone(p))
	if len(p) == 7 && p[0] == cursorToEnd && p[6] == nakByte {
		var v [4]byte
		copy(v[:], p[1:5])
		f.oob(v)
		return len(p), nil
	}
	for _, c := range p {
		switch c {
		case nakByte:
			f.line = f.line[:0]
		case '\n':
			f.handleLine(string(f.line))
			f.line = f.line[:0]
		default:
			f.line = append(f.line, c)
		}
	}
	return len(p), nil
}

func (f *fakeController) Drain() error {
	f.drains++
	return nil
}

func (f *fakeController) SetBaudRate(baud int) error {
	f.bauds = append(f.bauds, baud)
	return nil
}

func (f *fakeController) push(body string) {
	for _, c := range []byte(protocol.AppendChecksum(body)) {
		f.rx.Push(c)
	}
}

func (f *fakeController) oob(v [4]byte) {
	f.oobWrites = append(f.oobWrites, v)
	f.line = f.line[:0]
	// the filler overflowed the line buffer
	f.push("NG E0000002")
	f.push("NG E0000002")
	if !f.landOOB {
		return
	}
	for i, b := range v {
		f.tablePtr[i] = b
		if isPrintable(b) {
			break
		}
	}
}

func (f *fakeController) payload() []byte {
	idx := make([]int, 0, len(f.chunks))
	for i := range f.chunks {
		idx = append(idx, int(i))
	}
	sort.Ints(idx)
	var out []byte
	for _, i := range idx {
		out = append(out, f.chunks[uint32(i)]...)
	}
	return out
}

func (f *fakeController) hijacked() bool {
	return binary.LittleEndian.Uint32(f.tablePtr[:]) == f.payloadAddr && len(f.chunks) > 0
}

func (f *fakeController) handleLine(raw string) {
	body, ok := protocol.ValidateAndStrip(raw)
	if !ok {
		f.push("NG E0000004")
		return
	}
	f.commands = append(f.commands, body)
	if f.silent {
		return
	}
	f.push(body)
	for _, p := range f.preamble {
		f.push(p)
	}

	fields := strings.Fields(body)
	switch {
	case f.unlocked && body == "getserialno":
		f.push("OK 00000000 SN0123456789")
	case f.hijacked() && body == HookCommand:
		f.unlocked = true
	case f.hijacked():
		f.push("NG F0000006")
	case body == "version":
		f.push("OK 00000000 " + f.version)
	case len(fields) == 2 && fields[0] == "puareq1":
		f.push("OK 00000000 00112233445566778899AABBCCDDEEFF")
	case len(fields) == 3 && fields[0] == "puareq2":
		i, _ := strconv.ParseUint(fields[1], 16, 32)
		if int(i) == f.failChunk {
			f.push("NG F0000001")
			return
		}
		chunk, err := protocol.HexToBuf(fields[2])
		if err != nil {
			f.push("NG F0000001")
			return
		}
		f.chunks[uint32(i)] = chunk
		f.push(fmt.Sprintf("OK 00000000 %x", i))
	default:
		f.push("NG F0000006")
	}
}

func (f *fakeController) sent(cmd string) int {
	n := 0
	for _, c := range f.commands {
		if c == cmd || strings.HasPrefix(c, cmd+" ") {
			n++
		}
	}
	return n
}

type fakeLine struct {
	high   bool
	events []string
}

func (l *fakeLine) SetLow() error {
	l.events = append(l.events, "low")
	return nil
}

func (l *fakeLine) Release() error {
	l.events = append(l.events, "release")
	return nil
}

func (l *fakeLine) Sample() (bool, error) {
	return l.high, nil
}

type fakeHost struct {
	results []protocol.Result
	err     error
}

func (h *fakeHost) WriteResult(r protocol.Result) error {
	if h.err != nil {
		return h.err
	}
	h.results = append(h.results, r)
	return nil
}

type testRig struct {
	session  *Session
	ctrl     *fakeController
	clock    *timing.FakeClock
	reset    *fakeLine
	rom      *fakeLine
	registry *consts.Registry
	rebooted int
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	clock := timing.NewFakeClock(10 * time.Microsecond)
	rx, err := ringbuf.New(ringbuf.DefaultSize, clock)
	if err != nil {
		t.Fatal(err)
	}
	registry, err := consts.NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	rig := &testRig{
		ctrl:     newFakeController(rx),
		clock:    clock,
		reset:    &fakeLine{high: true},
		rom:      &fakeLine{high: true},
		registry: registry,
	}
	rig.session, err = NewSession(Config{
		Port:     rig.ctrl,
		Rx:       rx,
		Registry: registry,
		Reset:    rig.reset,
		Rom:      rig.rom,
		Clock:    clock,
		Reboot:   func() { rig.rebooted++ },
	})
	if err != nil {
		t.Fatal(err)
	}
	return rig
}
