package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ishmeet5ingh/tracking-backend/internal/infrastructure/queue"
)

func startServer(t *testing.T) (*Hub, *stubLocations, string) {
	t.Helper()
	locs := newStubLocations()
	hub := NewHub(locs, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(2, hub, zerolog.Nop())
	dispatcher.Start(ctx)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(hub, conn, dispatcher, r.URL.Query().Get("as")).Start()
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
		cancel()
	})
	return hub, locs, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func TestClient_EndToEndBroadcast(t *testing.T) {
	hub, locs, url := startServer(t)
	a, b := dial(t, url), dial(t, url)
	waitForClients(t, hub, 2)

	update := `{"event":"locationUpdate","data":{"userId":"u1","coords":{"latitude":40,"longitude":-74}}}`
	if err := a.WriteMessage(websocket.TextMessage, []byte(update)); err != nil {
		t.Fatalf("write: %v", err)
	}

	msg := readMessage(t, b)
	if msg.Event != EventNewLocation {
		t.Fatalf("expected newLocation, got %s", msg.Event)
	}
	var body NewLocation
	if err := json.Unmarshal(msg.Data, &body); err != nil || body.Username != "alice" || body.Coords.Latitude != 40 {
		t.Fatalf("unexpected body %+v (%v)", body, err)
	}

	// The sender only sees its own pong.
	if err := a.WriteMessage(websocket.TextMessage, []byte(`{"event":"ping"}`)); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if msg := readMessage(t, a); msg.Event != EventPong {
		t.Fatalf("expected pong first, got %s", msg.Event)
	}
	if locs.count() != 1 {
		t.Fatalf("expected one stored update, got %d", locs.count())
	}
}

func TestClient_PreservesOrderPerSender(t *testing.T) {
	hub, _, url := startServer(t)
	a, b := dial(t, url), dial(t, url)
	waitForClients(t, hub, 2)

	for _, lat := range []string{"1", "2", "3", "4", "5"} {
		frame := `{"event":"locationUpdate","data":{"userId":"u1","coords":{"latitude":` + lat + `,"longitude":0}}}`
		if err := a.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	for want := 1.0; want <= 5; want++ {
		var body NewLocation
		if err := json.Unmarshal(readMessage(t, b).Data, &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Coords.Latitude != want {
			t.Fatalf("expected latitude %v, got %v", want, body.Coords.Latitude)
		}
	}
}

func TestClient_DisconnectUnregisters(t *testing.T) {
	hub, _, url := startServer(t)
	a := dial(t, url)
	dial(t, url)
	waitForClients(t, hub, 2)

	_ = a.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = a.Close()
	waitForClients(t, hub, 1)
}

func TestClient_GarbageFrameKeepsConnection(t *testing.T) {
	hub, _, url := startServer(t)
	a, b := dial(t, url), dial(t, url)
	waitForClients(t, hub, 2)

	if err := a.WriteMessage(websocket.TextMessage, []byte(`not json`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := a.WriteMessage(websocket.TextMessage, []byte(`{"event":"locationUpdate","data":{"userId":"u2","coords":{"latitude":1,"longitude":1}}}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var body NewLocation
	if err := json.Unmarshal(readMessage(t, b).Data, &body); err != nil || body.UserID != "u2" {
		t.Fatalf("expected update from u2, got %+v (%v)", body, err)
	}
	if hub.ClientCount() != 2 {
		t.Fatalf("garbage frame must not drop the connection")
	}
}

func TestClient_BurstLargerThanBufferReachesReadingPeer(t *testing.T) {
	hub, locs, url := startServer(t)
	a, b := dial(t, url), dial(t, url)
	waitForClients(t, hub, 2)

	const total = sendBuffer * 4
	go func() {
		for i := 0; i < total; i++ {
			frame := fmt.Sprintf(`{"event":"locationUpdate","data":{"userId":"u1","coords":{"latitude":%d,"longitude":0}}}`, i%90)
			if err := a.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
	}()

	for i := 0; i < total; i++ {
		if msg := readMessage(t, b); msg.Event != EventNewLocation {
			t.Fatalf("frame %d: expected newLocation, got %s", i, msg.Event)
		}
	}
	if locs.count() != total {
		t.Fatalf("expected %d stored updates, got %d", total, locs.count())
	}
	if hub.ClientCount() != 2 {
		t.Fatalf("reading peer must stay connected, %d clients left", hub.ClientCount())
	}
}
