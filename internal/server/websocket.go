package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		log.Printf("websocket accept: %v", err)
		return
	}
	defer ws.Close(websocket.StatusNormalClosure, "")

	c := &conn{
		id:   uuid.NewString(),
		send: make(chan []byte, 64),
		ws:   ws,
	}
	// The stats query is gated by an out-of-band token, never by
	// anything inside the game protocol.
	if tok := r.URL.Query().Get("admin_token"); tok != "" && tok == s.cfg.AdminToken {
		c.admin = true
	}
	s.register(c)

	ctx := r.Context()

	// Writer goroutine: drain the send channel onto the socket.
	go func() {
		for msg := range c.send {
			if err := ws.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			break
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.sendTo(c.id, "error", errorPayload{Message: "invalid message"})
			continue
		}
		s.dispatch(c, env)
	}

	// Transport-originated disconnect: keep the seat for reconnection.
	s.handleDisconnect(c)
	s.unregister(c)
}

func (s *Server) dispatch(c *conn, env Envelope) {
	switch env.Type {
	case "joinRoom":
		var p joinRoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.RoomID == "" || p.Name == "" {
			s.sendTo(c.id, "error", errorPayload{Message: "invalid joinRoom payload"})
			return
		}
		s.handleJoin(c, p)

	case "selectTrump":
		var p selectTrumpPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.sendTo(c.id, "error", errorPayload{Message: "invalid selectTrump payload"})
			return
		}
		s.handleSelectTrump(c, p)

	case "playCard":
		var p playCardPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.sendTo(c.id, "error", errorPayload{Message: "invalid playCard payload"})
			return
		}
		s.handlePlayCard(c, p)

	case "getServerStats":
		s.handleStats(c)

	default:
		s.sendTo(c.id, "error", errorPayload{Message: "unknown message type: " + env.Type})
	}
}
