package wsserver

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mbari-org/lcm-websocket-server/internal/handler"
	"github.com/mbari-org/lcm-websocket-server/internal/observer"
)

func TestParseChannelPattern(t *testing.T) {
	s := New(&fakeRepublisher{}, echoHandler{}, 16, "", nil)
	cases := []struct{ path, want string }{
		{"/", ".*"},
		{"", ".*"},
		{"/FOO", "FOO"},
		{"/FOO%7CBAR", "FOO|BAR"},
	}
	for _, c := range cases {
		got, err := s.parseChannelPattern(c.path)
		if err != nil {
			t.Fatalf("parseChannelPattern(%q): %v", c.path, err)
		}
		if got != c.want {
			t.Errorf("parseChannelPattern(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}

func TestParseChannelPattern_FallsBackToConfiguredDefault(t *testing.T) {
	s := New(&fakeRepublisher{}, echoHandler{}, 16, "CONFIGURED_DEFAULT", nil)
	got, err := s.parseChannelPattern("/")
	if err != nil {
		t.Fatalf("parseChannelPattern: %v", err)
	}
	if got != "CONFIGURED_DEFAULT" {
		t.Errorf("parseChannelPattern(\"/\") = %q, want the server's configured default", got)
	}
}

func TestParseUpdateInterval(t *testing.T) {
	q, _ := url.ParseQuery("update_interval_ms=100")
	interval, coalescing := parseUpdateInterval(q)
	if !coalescing || interval != 100*time.Millisecond {
		t.Errorf("got interval=%v coalescing=%v, want 100ms true", interval, coalescing)
	}

	q2, _ := url.ParseQuery("")
	_, coalescing2 := parseUpdateInterval(q2)
	if coalescing2 {
		t.Error("expected no update_interval_ms to mean immediate mode")
	}

	q3, _ := url.ParseQuery("update_interval_ms=-5")
	_, coalescing3 := parseUpdateInterval(q3)
	if coalescing3 {
		t.Error("expected non-positive update_interval_ms to mean immediate mode")
	}
}

// fakeRepublisher captures the Observers that test connections
// subscribe, so the test can push events directly without a real
// Republisher dispatch loop.
type fakeRepublisher struct {
	mu   sync.Mutex
	subs []*observer.Observer
}

func (f *fakeRepublisher) Subscribe(o *observer.Observer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, o)
}

func (f *fakeRepublisher) Unsubscribe(o *observer.Observer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.subs {
		if s == o {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return
		}
	}
}

func (f *fakeRepublisher) dispatch(channel string, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.subs {
		if o.Match(channel) {
			o.Enqueue(observer.Event{Channel: channel, Payload: payload})
		}
	}
}

func (f *fakeRepublisher) waitForSub(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		n := len(f.subs)
		f.mu.Unlock()
		if n > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no client ever subscribed")
}

// echoHandler turns every event into a text frame carrying the raw
// payload, letting tests assert on exactly what was dispatched.
type echoHandler struct{}

func (echoHandler) Handle(channel string, payload []byte) (handler.Frame, bool) {
	return handler.Frame{Kind: handler.FrameText, Data: payload}, true
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	return conn
}

// S2 (filter): two clients subscribed to disjoint channels each see
// only their own traffic.
func TestWSServer_ChannelFilter(t *testing.T) {
	rep := &fakeRepublisher{}
	s := New(rep, echoHandler{}, 16, "", nil)
	ts := httptest.NewServer(http.HandlerFunc(s.handleConn))
	defer ts.Close()

	fooConn := dial(t, ts, "/FOO")
	defer fooConn.Close()
	barConn := dial(t, ts, "/BAR")
	defer barConn.Close()

	rep.waitForSub(t)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rep.mu.Lock()
		n := len(rep.subs)
		rep.mu.Unlock()
		if n == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	rep.dispatch("FOO", []byte("foo-payload"))
	rep.dispatch("BAR", []byte("bar-payload"))
	rep.dispatch("BAZ", []byte("baz-payload"))

	fooConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := fooConn.ReadMessage()
	if err != nil {
		t.Fatalf("foo read: %v", err)
	}
	if string(msg) != "foo-payload" {
		t.Errorf("foo client got %q, want foo-payload", msg)
	}

	barConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err = barConn.ReadMessage()
	if err != nil {
		t.Fatalf("bar read: %v", err)
	}
	if string(msg) != "bar-payload" {
		t.Errorf("bar client got %q, want bar-payload", msg)
	}
}

// S3 (coalesce): many rapid updates on one channel collapse to the
// latest value per aggregation window.
func TestWSServer_CoalescingDeliversLatestValue(t *testing.T) {
	rep := &fakeRepublisher{}
	s := New(rep, echoHandler{}, 256, "", nil)
	ts := httptest.NewServer(http.HandlerFunc(s.handleConn))
	defer ts.Close()

	conn := dial(t, ts, "/X?update_interval_ms=100")
	defer conn.Close()
	rep.waitForSub(t)

	for i := 0; i < 50; i++ {
		rep.dispatch("X", []byte{byte(i)})
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(msg) != 1 || msg[0] != 49 {
		t.Errorf("got %v, want the 50th payload ([49])", msg)
	}
}
