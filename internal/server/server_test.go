package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/symbrkrs/emcbridge/internal/emc"
	"github.com/symbrkrs/emcbridge/internal/protocol"
)

type fakeSession struct {
	mu       sync.Mutex
	commands []string
	pending  []protocol.Result
}

func (f *fakeSession) ProcessCommand(cmd string, host emc.HostWriter) error {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()
	if err := host.WriteResult(protocol.NewUnknown(cmd)); err != nil {
		return err
	}
	return host.WriteResult(protocol.NewSuccess(""))
}

func (f *fakeSession) ServiceUART(host emc.HostWriter, _ time.Duration) error {
	f.mu.Lock()
	pending := f.pending
	f.pending = nil
	f.mu.Unlock()
	for _, r := range pending {
		if err := host.WriteResult(r); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSession) queue(r protocol.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, r)
}

func (f *fakeSession) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

type fakePassthrough struct {
	mu      sync.Mutex
	written []byte
	bauds   []int
	pending []byte
}

func (f *fakePassthrough) WriteHost(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, p...)
	return nil
}

func (f *fakePassthrough) SetBaudRate(baud int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bauds = append(f.bauds, baud)
	return nil
}

func (f *fakePassthrough) Service(w io.Writer, _ time.Duration) error {
	f.mu.Lock()
	pending := f.pending
	f.pending = nil
	f.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}
	_, err := w.Write(pending)
	return err
}

func (f *fakePassthrough) snapshot() ([]byte, []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.written...), append([]int(nil), f.bauds...)
}

func startTestServer(t *testing.T) (*Server, *fakeSession, *fakePassthrough, string) {
	t.Helper()
	sess := &fakeSession{}
	pt := &fakePassthrough{}
	srv, err := New(&Config{}, sess, pt)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv.wg.Add(1)
	go func() {
		defer srv.wg.Done()
		srv.pollLoop(ctx)
	}()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		cancel()
		srv.emcHost.closeAll()
		srv.efcHost.closeAll()
		ts.Close()
		srv.wg.Wait()
	})
	return srv, sess, pt, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%s) error = %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readResult(t *testing.T, conn *websocket.Conn) protocol.Result {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if mt != websocket.BinaryMessage {
		t.Fatalf("message type = %d, want binary", mt)
	}
	r, n, err := protocol.DecodeFrame(data)
	if err != nil || n != len(data) {
		t.Fatalf("DecodeFrame() = %v, %d, %v", r, n, err)
	}
	return r
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewRequiresSession(t *testing.T) {
	if _, err := New(&Config{}, nil, nil); err == nil {
		t.Error("New() without session succeeded")
	}
}

func TestEMCCommandRoundTrip(t *testing.T) {
	_, sess, _, base := startTestServer(t)
	conn := dial(t, base+DefaultEMCPath)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("picoemcreset\r\n")); err != nil {
		t.Fatal(err)
	}
	echo := readResult(t, conn)
	if !echo.IsUnknown() || echo.Response != "picoemcreset" {
		t.Errorf("echo = %+v", echo)
	}
	if r := readResult(t, conn); !r.IsSuccess() {
		t.Errorf("result = %s", r.Format())
	}
	if got := sess.received(); len(got) != 1 || got[0] != "picoemcreset" {
		t.Errorf("session got %q", got)
	}
}

func TestEMCMultipleLinesInOneMessage(t *testing.T) {
	_, sess, _, base := startTestServer(t)
	conn := dial(t, base+DefaultEMCPath)

	_ = conn.WriteMessage(websocket.TextMessage, []byte("version\n\ngetserialno\n"))
	eventually(t, func() bool { return len(sess.received()) == 2 })
	got := sess.received()
	if got[0] != "version" || got[1] != "getserialno" {
		t.Errorf("session got %q", got)
	}
}

func TestEMCRelaysControllerOutput(t *testing.T) {
	srv, sess, _, base := startTestServer(t)
	a := dial(t, base+DefaultEMCPath)
	b := dial(t, base+DefaultEMCPath)
	eventually(t, func() bool { return srv.emcHost.count() == 2 })

	sess.queue(protocol.Result{Type: protocol.ResultInfo, Status: protocol.InvalidStatus, Response: "[MANU] UART CMD READY"})
	for _, conn := range []*websocket.Conn{a, b} {
		if r := readResult(t, conn); !r.IsInfo() || r.Response != "[MANU] UART CMD READY" {
			t.Errorf("relayed %+v", r)
		}
	}
	if srv.GetActiveConnections() != 2 {
		t.Errorf("GetActiveConnections() = %d", srv.GetActiveConnections())
	}
}

func TestEFCPassthrough(t *testing.T) {
	_, _, pt, base := startTestServer(t)
	conn := dial(t, base+DefaultEFCPath+"?baud=115200")

	eventually(t, func() bool {
		_, bauds := pt.snapshot()
		return len(bauds) == 1 && bauds[0] == 115200
	})

	_ = conn.WriteMessage(websocket.BinaryMessage, []byte("help\r"))
	_ = conn.WriteMessage(websocket.TextMessage, []byte("baud 9600"))
	eventually(t, func() bool {
		written, bauds := pt.snapshot()
		return string(written) == "help\r" && len(bauds) == 2 && bauds[1] == 9600
	})

	pt.mu.Lock()
	pt.pending = []byte("ok\r\n")
	pt.mu.Unlock()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	mt, data, err := conn.ReadMessage()
	if err != nil || mt != websocket.BinaryMessage || string(data) != "ok\r\n" {
		t.Errorf("ReadMessage() = %d, %q, %v", mt, data, err)
	}
}

func TestEFCRejectsBadBaud(t *testing.T) {
	_, _, _, base := startTestServer(t)
	_, resp, err := websocket.DefaultDialer.Dial(base+DefaultEFCPath+"?baud=fast", nil)
	if err == nil {
		t.Fatal("Dial() succeeded with invalid baud")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("response = %v, want 400", resp)
	}
}

func TestEFCDisabled(t *testing.T) {
	srv, err := New(&Config{}, &fakeSession{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	resp, err := http.Get(ts.URL + DefaultEFCPath)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"unlock", []string{"unlock"}},
		{"unlock\r\n", []string{"unlock"}},
		{"a\nb\r\n\n", []string{"a", "b"}},
		{"\r\n", nil},
	}
	for _, tt := range tests {
		got := splitLines([]byte(tt.in))
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("splitLines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseBaudCommand(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"baud 460800", 460800, true},
		{"baud 0", 0, false},
		{"baud", 0, false},
		{"speed 9600", 0, false},
		{"baud x", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseBaudCommand(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseBaudCommand(%q) = %d, %v", tt.in, got, ok)
		}
	}
}

func TestLineSplitter(t *testing.T) {
	var got []string
	l := &lineSplitter{submit: func(s string) bool { got = append(got, s); return true }}
	_, _ = l.Write([]byte("unl"))
	_, _ = l.Write([]byte("ock\r\n\nversion"))
	_, _ = l.Write([]byte("\n"))
	if strings.Join(got, "|") != "unlock|version" {
		t.Errorf("lines = %q", got)
	}
}

func TestServiceText(t *testing.T) {
	cfg := &Config{EMCPath: "/emc", EFCPath: "/efc"}
	txt := serviceText(cfg, true)
	joined := strings.Join(txt, ",")
	for _, want := range []string{"emc=/emc", "efc=/efc", "version="} {
		if !strings.Contains(joined, want) {
			t.Errorf("TXT %q missing %q", txt, want)
		}
	}
	if txt := serviceText(cfg, false); strings.Contains(strings.Join(txt, ","), "efc=") {
		t.Errorf("TXT %q advertises disabled EFC", txt)
	}
}

// serverConn returns the bridge side of a live WebSocket connection.
func serverConn(t *testing.T) *websocket.Conn {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	up := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(ts.Close)
	dial(t, "ws"+strings.TrimPrefix(ts.URL, "http"))
	select {
	case conn := <-conns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(5 * time.Second):
		t.Fatal("no server connection")
		return nil
	}
}

func TestBroadcastDropsStalledClient(t *testing.T) {
	// No writer goroutine: the queue never drains, like a host that stopped
	// reading.
	c := &client{conn: serverConn(t), addr: "stalled", out: make(chan []byte, 2), done: make(chan struct{})}
	f := newFanout("emc")
	f.add(c)

	start := time.Now()
	for i := 0; i < 3; i++ {
		f.broadcast([]byte{byte(i)})
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("broadcast blocked for %s", elapsed)
	}
	if f.count() != 0 {
		t.Error("stalled client still attached")
	}
	eventually(t, func() bool {
		select {
		case <-c.done:
			return true
		default:
			return false
		}
	})
}

func TestClientWritesQueuedFramesInOrder(t *testing.T) {
	_, sess, _, base := startTestServer(t)
	conn := dial(t, base+DefaultEMCPath)
	_ = conn.WriteMessage(websocket.TextMessage, []byte("ping"))
	if r := readResult(t, conn); r.Response != "ping" {
		t.Fatalf("echo = %q", r.Response)
	}
	_ = readResult(t, conn)

	for i := 0; i < 10; i++ {
		sess.queue(protocol.ParseResult("$$ line " + string(rune('0'+i))))
	}
	for i := 0; i < 10; i++ {
		if r := readResult(t, conn); r.Response != "line "+string(rune('0'+i)) {
			t.Fatalf("frame %d = %q", i, r.Response)
		}
	}
}

func TestSubmitAfterStop(t *testing.T) {
	srv, err := New(&Config{}, &fakeSession{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv.pollLoop(ctx)

	tests := []struct {
		name   string
		submit func() bool
	}{
		{"emc", func() bool { return srv.Submit("version") }},
		{"efc", func() bool { return srv.submitEFC([]byte("x")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan bool)
			go func() {
				for i := 0; i <= commandQueue; i++ {
					if !tt.submit() {
						done <- false
						return
					}
				}
				done <- true
			}()
			select {
			case ok := <-done:
				if ok {
					t.Error("queued beyond capacity after the poll loop stopped")
				}
			case <-time.After(5 * time.Second):
				t.Fatal("blocked after the poll loop stopped")
			}
		})
	}
}
