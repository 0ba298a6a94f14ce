package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"omi/internal/config"
	"omi/internal/registry"
	"omi/internal/room"
	"omi/internal/storage"
)

// --- Test environment ---

type testEnv struct {
	ts    *httptest.Server
	reg   *registry.Registry
	srv   *Server
	store *storage.Store
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.AdminToken = "sesame"
	cfg.TrickDelay = 10 * time.Millisecond
	cfg.DealDelay = 10 * time.Millisecond
	cfg.TeardownDelay = 50 * time.Millisecond

	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	reg := registry.New(cfg)
	srv := New(cfg, reg, store)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, reg: reg, srv: srv, store: store}
}

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server, query string) string {
	u := strings.Replace(ts.URL, "http://", "ws://", 1) + "/ws"
	if query != "" {
		u += "?" + query
	}
	return u
}

func wsDial(ctx context.Context, t *testing.T, env *testEnv, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, wsURL(env.ts, query), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func wsSend(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	p, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: p})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

func wsRead(ctx context.Context, t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	return env
}

// readUntil reads messages until one of the wanted type arrives,
// skipping broadcasts the test does not care about.
func readUntil(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string) json.RawMessage {
	t.Helper()
	for i := 0; i < 50; i++ {
		env := wsRead(ctx, t, conn)
		if env.Type == msgType {
			return env.Payload
		}
		if env.Type == "error" {
			var ep errorPayload
			json.Unmarshal(env.Payload, &ep)
			t.Fatalf("waiting for %q, got error: %s", msgType, ep.Message)
		}
	}
	t.Fatalf("never received %q", msgType)
	return nil
}

func decode[T any](t *testing.T, payload json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return v
}

func joinRoom(ctx context.Context, t *testing.T, conn *websocket.Conn, roomID, name, team string, reconnect bool) {
	t.Helper()
	wsSend(ctx, t, conn, "joinRoom", joinRoomPayload{
		RoomID:      roomID,
		Name:        name,
		Team:        team,
		IsReconnect: reconnect,
	})
}

// waitForDisconnect blocks until the server has processed the drop of
// the room's last live connection.
func waitForDisconnect(t *testing.T, rm *room.Room) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for rm.ConnectedCount() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("disconnect never processed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// fourPlayers joins alice, bob, carol and dave so that seat index
// matches connection index, and returns their connections.
func fourPlayers(ctx context.Context, t *testing.T, env *testEnv, roomID string) [4]*websocket.Conn {
	t.Helper()
	names := []string{"alice", "bob", "carol", "dave"}
	teams := []string{"A", "B", "A", "B"}
	var conns [4]*websocket.Conn
	for i := range conns {
		conns[i] = wsDial(ctx, t, env, "")
		joinRoom(ctx, t, conns[i], roomID, names[i], teams[i], false)
		// Wait for the join to land before the next one so seat
		// order is deterministic.
		readUntil(ctx, t, conns[i], "playerJoined")
	}
	return conns
}
