package channel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"strategy_dash/internal/domain"
	"strategy_dash/internal/event"
	"strategy_dash/internal/infra"

	"github.com/gorilla/websocket"
)

// echoServer answers request_initial_data with a one-record snapshot and
// hangs up on "drop".
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if strings.Contains(string(msg), `"drop"`) {
				return
			}
			if strings.Contains(string(msg), `"request_initial_data"`) {
				conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
				conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"initial_data","data":{"Momentum":{"X":{"change":1.5}}}}`))
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func next(t *testing.T, inbox <-chan event.Event) event.Event {
	t.Helper()
	select {
	case ev := <-inbox:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestClient_ConnectSendReceive(t *testing.T) {
	srv := echoServer(t)
	inbox := make(chan event.Event, 8)
	metrics := &infra.Metrics{}
	c := NewClient(Options{URL: wsURL(srv), Metrics: metrics}, inbox)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Disconnect()

	conn, ok := next(t, inbox).(*event.ConnectionEvent)
	if !ok || !conn.Connected {
		t.Fatalf("expected connected event, got %+v", conn)
	}
	if !c.IsConnected() {
		t.Error("IsConnected() should be true")
	}

	if err := c.Send(domain.Command{Event: "request_initial_data"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	snap, ok := next(t, inbox).(*event.SnapshotEvent)
	if !ok {
		t.Fatalf("expected snapshot event, got %T", snap)
	}
	if *snap.Data["Momentum"]["X"].Change != 1.5 {
		t.Errorf("snapshot = %+v", snap.Data)
	}
	if metrics.Snapshot().DecodeErrors != 1 {
		t.Errorf("the malformed frame should be counted, got %d", metrics.Snapshot().DecodeErrors)
	}
}

func TestClient_SendWhileDisconnected(t *testing.T) {
	c := NewClient(Options{URL: "ws://127.0.0.1:1/ws", Metrics: &infra.Metrics{}}, make(chan event.Event, 1))

	err := c.Send(domain.Command{Event: "request_alerts"})
	if !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if !domain.IsRetriable(err) {
		t.Error("not-connected should be retriable")
	}
}

func TestClient_ReportsDisconnect(t *testing.T) {
	srv := echoServer(t)
	inbox := make(chan event.Event, 8)
	c := NewClient(Options{URL: wsURL(srv), MaxBackoff: 50 * time.Millisecond, Metrics: &infra.Metrics{}}, inbox)
	c.Connect(context.Background())
	defer c.Disconnect()

	next(t, inbox)
	if err := c.Send(domain.Command{Event: "drop"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	down, ok := next(t, inbox).(*event.ConnectionEvent)
	if !ok || down.Connected {
		t.Fatalf("expected disconnected event, got %+v", down)
	}

	up, ok := next(t, inbox).(*event.ConnectionEvent)
	if !ok || !up.Connected {
		t.Fatalf("expected reconnect, got %+v", up)
	}
}

func TestClient_StopsOnRejectedHandshake(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	inbox := make(chan event.Event, 8)
	c := NewClient(Options{URL: wsURL(srv), Token: "wrong", MaxBackoff: 50 * time.Millisecond, Metrics: &infra.Metrics{}}, inbox)
	c.Connect(context.Background())
	defer c.Disconnect()

	down, ok := next(t, inbox).(*event.ConnectionEvent)
	if !ok || down.Connected {
		t.Fatalf("expected disconnected event, got %+v", down)
	}
	if down.Err == nil || domain.IsRetriable(down.Err) {
		t.Errorf("rejection should be fatal, got %v", down.Err)
	}

	time.Sleep(300 * time.Millisecond)
	if n := hits.Load(); n != 1 {
		t.Errorf("client dialed %d times, want 1", n)
	}
}
