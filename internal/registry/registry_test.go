package registry

import (
	"errors"
	"testing"
	"time"

	"omi/internal/config"
	"omi/internal/game"
	"omi/internal/room"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.MaxRooms = 2
	cfg.EmptyRoomGrace = time.Millisecond
	cfg.EvictTimeout = time.Millisecond
	return cfg
}

type recordingObserver struct {
	swept  []string
	closed []string
}

func (o *recordingObserver) RoomSwept(id string, ev *room.EvictionOutcome) {
	o.swept = append(o.swept, id)
}

func (o *recordingObserver) RoomClosed(id, reason string) {
	o.closed = append(o.closed, id)
}

func TestGetOrCreate(t *testing.T) {
	g := New(testConfig())
	r1, err := g.GetOrCreate("abc")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	r2, err := g.GetOrCreate("abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r1 != r2 {
		t.Fatal("expected the same room for the same id")
	}
	if _, ok := g.Get("abc"); !ok {
		t.Fatal("expected Get to find the room")
	}
}

func TestRoomCap(t *testing.T) {
	g := New(testConfig())
	g.GetOrCreate("a")
	g.GetOrCreate("b")
	if _, err := g.GetOrCreate("c"); !errors.Is(err, ErrServerFull) {
		t.Fatalf("expected ErrServerFull, got %v", err)
	}
	// Existing rooms stay reachable at the cap.
	if _, err := g.GetOrCreate("a"); err != nil {
		t.Fatalf("existing room should not hit the cap: %v", err)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	g := New(testConfig())
	g.GetOrCreate("a")
	g.Remove("a")
	g.Remove("a") // deferred teardown may fire after a sweep already removed it
	if s := g.Stats(); s.RoomsDestroyed != 1 {
		t.Fatalf("expected 1 destruction, got %d", s.RoomsDestroyed)
	}
}

func TestSweepDestroysExpiredRooms(t *testing.T) {
	g := New(testConfig())
	obs := &recordingObserver{}
	g.SetObserver(obs)

	g.GetOrCreate("stale")
	time.Sleep(5 * time.Millisecond)
	g.Sweep()

	if _, ok := g.Get("stale"); ok {
		t.Fatal("expired empty room should be destroyed")
	}
	if len(obs.closed) != 1 || obs.closed[0] != "stale" {
		t.Fatalf("expected close notification for stale, got %v", obs.closed)
	}
}

func TestSweepEvictsStaleSeats(t *testing.T) {
	g := New(testConfig())
	obs := &recordingObserver{}
	g.SetObserver(obs)

	r, _ := g.GetOrCreate("a")
	r.Join("c0", "alice", game.TeamA, false)
	r.Join("c1", "bob", game.TeamB, false)
	r.Disconnect("c1")
	time.Sleep(5 * time.Millisecond)
	g.Sweep()

	if len(obs.swept) != 1 {
		t.Fatalf("expected one eviction notification, got %v", obs.swept)
	}
	// Alice is still connected, so the room survives.
	if _, ok := g.Get("a"); !ok {
		t.Fatal("room with a connected seat must not be destroyed")
	}
}

func TestShutdownClosesAllRooms(t *testing.T) {
	g := New(testConfig())
	obs := &recordingObserver{}
	g.SetObserver(obs)

	g.GetOrCreate("a")
	g.GetOrCreate("b")
	g.Shutdown()

	if len(obs.closed) != 2 {
		t.Fatalf("expected 2 close notifications, got %v", obs.closed)
	}
	if s := g.Stats(); s.ActiveRooms != 0 {
		t.Fatalf("expected no live rooms, got %d", s.ActiveRooms)
	}
}

func TestStats(t *testing.T) {
	g := New(testConfig())
	r, _ := g.GetOrCreate("a")
	r.Join("c0", "alice", game.TeamA, false)

	s := g.Stats()
	if s.ActiveRooms != 1 || s.ConnectedPlayers != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
	if s.RoomsByPhase[room.PhaseWaiting] != 1 {
		t.Fatalf("expected one waiting room, got %+v", s.RoomsByPhase)
	}
	if s.PeakRooms != 1 || s.RoomsCreated != 1 {
		t.Fatalf("unexpected counters: %+v", s)
	}
}
