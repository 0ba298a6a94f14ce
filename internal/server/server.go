// Package server is the session coordinator: it owns the WebSocket
// transport, maps connections to room seats, turns inbound intents into
// room operations and fans the resulting notifications back out. Room
// locks are released before any message is sent.
package server

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"omi/internal/config"
	"omi/internal/registry"
	"omi/internal/storage"
)

// conn is one live WebSocket connection.
type conn struct {
	id    string
	send  chan []byte
	admin bool
	ws    *websocket.Conn
}

// Server coordinates connections, rooms and notifications.
type Server struct {
	mux     *http.ServeMux
	cfg     config.Config
	reg     *registry.Registry
	store   *storage.Store
	started time.Time

	mu       sync.RWMutex
	conns    map[string]*conn  // conn id -> connection
	connRoom map[string]string // conn id -> room id
}

// New creates a server and registers itself as the registry's sweep
// observer.
func New(cfg config.Config, reg *registry.Registry, store *storage.Store) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		cfg:      cfg,
		reg:      reg,
		store:    store,
		started:  time.Now(),
		conns:    make(map[string]*conn),
		connRoom: make(map[string]string),
	}
	reg.SetObserver(s)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// register adds a connection to the table.
func (s *Server) register(c *conn) {
	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()
}

// unregister drops a connection and its room binding, then closes the
// send channel so the writer goroutine exits. Senders only touch the
// channel while the connection is still in the table, so closing after
// the delete cannot race a send.
func (s *Server) unregister(c *conn) {
	s.mu.Lock()
	delete(s.conns, c.id)
	delete(s.connRoom, c.id)
	s.mu.Unlock()
	close(c.send)
}

// bindRoom records that a connection joined a room. A connection maps
// to at most one room at a time.
func (s *Server) bindRoom(connID, roomID string) {
	s.mu.Lock()
	s.connRoom[connID] = roomID
	s.mu.Unlock()
}

func (s *Server) roomOf(connID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.connRoom[connID]
	return id, ok
}

// sendTo queues a message for one connection, dropping it if the buffer
// is full or the connection is gone.
func (s *Server) sendTo(connID string, msgType string, payload any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conns[connID]
	if !ok {
		return
	}
	select {
	case c.send <- encode(msgType, payload):
	default:
	}
}

// sendToAll queues a message for every listed connection.
func (s *Server) sendToAll(connIDs []string, msgType string, payload any) {
	for _, id := range connIDs {
		s.sendTo(id, msgType, payload)
	}
}

// Shutdown notifies every connection, closes the registry and gives the
// writers a bounded window to drain before the sockets drop.
func (s *Server) Shutdown(ctx context.Context) {
	s.mu.RLock()
	conns := make([]*conn, 0, len(s.conns))
	msg := encode("serverShutdown", struct{}{})
	for _, c := range s.conns {
		conns = append(conns, c)
		select {
		case c.send <- msg:
		default:
		}
	}
	s.mu.RUnlock()

	log.Printf("shutting down: notified %d connections", len(conns))
	s.reg.Shutdown()

	drain := time.NewTimer(s.cfg.ShutdownTimeout)
	defer drain.Stop()
	select {
	case <-drain.C:
	case <-ctx.Done():
	}
	for _, c := range conns {
		c.ws.Close(websocket.StatusGoingAway, "server shutdown")
	}
}
