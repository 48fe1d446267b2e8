package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newHubServer upgrades every request and registers it for userID 7.
func newHubServer(t *testing.T, h *Hub) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Serve(h.Register(7, ws))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func waitOnline(t *testing.T, h *Hub, uid uint, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.Online(uid) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d connections for %d, got %d", want, uid, h.Online(uid))
}

func TestHub_PublishReachesEveryConnection(t *testing.T) {
	h := NewHub()
	srv := newHubServer(t, h)

	a := dial(t, srv)
	b := dial(t, srv)
	waitOnline(t, h, 7, 2)

	if n := h.Publish(7, Message{Type: "notification", Data: map[string]any{"id": 1}}); n != 2 {
		t.Fatalf("Publish delivered to %d connections; want 2", n)
	}
	for _, ws := range []*websocket.Conn{a, b} {
		_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != "notification" {
			t.Fatalf("unexpected frame %s (err=%v)", raw, err)
		}
	}

	if n := h.Publish(99, Message{Type: "notification"}); n != 0 {
		t.Fatalf("offline user should receive nothing, got %d", n)
	}
}

func TestHub_ClientCloseUnregisters(t *testing.T) {
	h := NewHub()
	srv := newHubServer(t, h)

	ws := dial(t, srv)
	waitOnline(t, h, 7, 1)
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	_ = ws.Close()
	waitOnline(t, h, 7, 0)
}

func TestHub_CloseAll(t *testing.T) {
	h := NewHub()
	srv := newHubServer(t, h)
	dial(t, srv)
	waitOnline(t, h, 7, 1)

	h.CloseAll()
	if h.Online(7) != 0 {
		t.Fatalf("CloseAll should drop every connection")
	}
}
