// Package registry owns the set of live rooms: lazy creation under a
// concurrency cap, lookup, periodic health and statistics sweeps, and
// shutdown. Rooms guard their own state; the registry lock only covers
// the room table itself.
package registry

import (
	"errors"
	"log"
	"sync"
	"time"

	"omi/internal/config"
	"omi/internal/room"
)

// ErrServerFull rejects room creation at the concurrent-room cap.
var ErrServerFull = errors.New("server is at its room limit")

// Observer receives sweep-driven room events so the coordinator can
// notify affected connections. Callbacks run without any registry or
// room lock held.
type Observer interface {
	RoomSwept(roomID string, ev *room.EvictionOutcome)
	RoomClosed(roomID string, reason string)
}

// Registry tracks all live rooms.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room

	cfg      config.Config
	observer Observer

	created   int
	destroyed int
	peak      int

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a registry. Call Start to run the sweeps and Stop to halt
// them.
func New(cfg config.Config) *Registry {
	return &Registry{
		rooms:  make(map[string]*room.Room),
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}
}

// SetObserver wires the sweep event sink. Must be called before Start.
func (g *Registry) SetObserver(o Observer) { g.observer = o }

// GetOrCreate returns the room with the given id, creating it lazily on
// first reference. Creation fails at the room cap.
func (g *Registry) GetOrCreate(id string) (*room.Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if r, ok := g.rooms[id]; ok {
		return r, nil
	}
	if len(g.rooms) >= g.cfg.MaxRooms {
		return nil, ErrServerFull
	}
	r := room.New(id, g.cfg.TargetScore)
	g.rooms[id] = r
	g.created++
	if len(g.rooms) > g.peak {
		g.peak = len(g.rooms)
	}
	log.Printf("room %s created (%d live)", id, len(g.rooms))
	return r, nil
}

// Get returns an existing room.
func (g *Registry) Get(id string) (*room.Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[id]
	return r, ok
}

// Remove destroys a room. Safe to call for an already-removed id; the
// deferred teardown callbacks rely on that.
func (g *Registry) Remove(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.rooms[id]; !ok {
		return
	}
	delete(g.rooms, id)
	g.destroyed++
	log.Printf("room %s destroyed (%d live)", id, len(g.rooms))
}

// Start launches the health and statistics sweeps.
func (g *Registry) Start() {
	g.wg.Add(2)
	go g.sweepLoop()
	go g.statsLoop()
}

// Stop halts the sweep goroutines.
func (g *Registry) Stop() {
	close(g.stopCh)
	g.wg.Wait()
}

func (g *Registry) sweepLoop() {
	defer g.wg.Done()
	ticker := time.NewTicker(g.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			g.Sweep()
		case <-g.stopCh:
			return
		}
	}
}

func (g *Registry) statsLoop() {
	defer g.wg.Done()
	ticker := time.NewTicker(g.cfg.StatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s := g.Stats()
			log.Printf("stats: %d rooms live, %d players connected, %d created, %d destroyed",
				s.ActiveRooms, s.ConnectedPlayers, s.RoomsCreated, s.RoomsDestroyed)
		case <-g.stopCh:
			return
		}
	}
}

// Sweep runs one health pass: evict seats disconnected past the
// timeout, then destroy rooms that have expired.
func (g *Registry) Sweep() {
	g.mu.RLock()
	live := make(map[string]*room.Room, len(g.rooms))
	for id, r := range g.rooms {
		live[id] = r
	}
	g.mu.RUnlock()

	for id, r := range live {
		if ev, ok := r.EvictStale(g.cfg.EvictTimeout); ok {
			log.Printf("room %s: evicted %v", id, ev.Evicted)
			if g.observer != nil {
				g.observer.RoomSwept(id, ev)
			}
		}
		if r.Expired(g.cfg.EmptyRoomGrace) {
			if g.observer != nil {
				g.observer.RoomClosed(id, "expired")
			}
			g.Remove(id)
		}
	}
}

// Shutdown notifies every room's observer and clears the table.
func (g *Registry) Shutdown() {
	g.mu.Lock()
	ids := make([]string, 0, len(g.rooms))
	for id := range g.rooms {
		ids = append(ids, id)
	}
	g.rooms = make(map[string]*room.Room)
	g.destroyed += len(ids)
	g.mu.Unlock()

	for _, id := range ids {
		if g.observer != nil {
			g.observer.RoomClosed(id, "server shutdown")
		}
	}
}

// Stats is the aggregate room census.
type Stats struct {
	ActiveRooms      int                `json:"activeRooms"`
	ConnectedPlayers int                `json:"connectedPlayers"`
	RoomsByPhase     map[room.Phase]int `json:"roomsByPhase"`
	RoomsCreated     int                `json:"roomsCreated"`
	RoomsDestroyed   int                `json:"roomsDestroyed"`
	PeakRooms        int                `json:"peakRooms"`
}

// Stats returns a read-only census of the live rooms.
func (g *Registry) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := Stats{
		ActiveRooms:    len(g.rooms),
		RoomsByPhase:   make(map[room.Phase]int),
		RoomsCreated:   g.created,
		RoomsDestroyed: g.destroyed,
		PeakRooms:      g.peak,
	}
	for _, r := range g.rooms {
		s.RoomsByPhase[r.Phase()]++
		s.ConnectedPlayers += r.ConnectedCount()
	}
	return s
}
