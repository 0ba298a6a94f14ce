package server

import (
	"log"
	"time"

	"github.com/dustin/go-humanize"

	"omi/internal/game"
	"omi/internal/room"
	"omi/internal/storage"
)

func parseTeam(s string) game.Team {
	if s == "B" || s == "b" {
		return game.TeamB
	}
	return game.TeamA
}

func (s *Server) handleJoin(c *conn, p joinRoomPayload) {
	if roomID, ok := s.roomOf(c.id); ok {
		s.sendTo(c.id, "error", errorPayload{Message: "already joined room " + roomID})
		return
	}
	rm, err := s.reg.GetOrCreate(p.RoomID)
	if err != nil {
		s.sendTo(c.id, "error", errorPayload{Message: err.Error()})
		return
	}
	out, err := rm.Join(c.id, p.Name, parseTeam(p.Team), p.IsReconnect)
	if err != nil {
		s.sendTo(c.id, "error", errorPayload{Message: err.Error()})
		return
	}
	s.bindRoom(c.id, p.RoomID)

	if out.Rejoined {
		log.Printf("player %s rejoined room %s at seat %d", out.Name, p.RoomID, out.Seat)
		// A rejoin into a still-waiting room is just a roster update;
		// mid-game it carries the full state to catch up on.
		if out.Snapshot.Phase == room.PhaseWaiting {
			s.sendTo(c.id, "roomState", out.Snapshot)
		} else {
			s.sendTo(c.id, "gameInProgress", out.Snapshot)
		}
		for _, id := range rm.ConnIDs() {
			if id != c.id {
				s.sendTo(id, "playerRejoined", playerRejoinedPayload{Seat: out.Seat, Name: out.Name, Seats: out.Roster})
			}
		}
		switch {
		case out.Resumed:
			s.sendToAll(rm.ConnIDs(), "gameResumed", struct{}{})
			s.deliverTurn(rm, out.Turn)
		case out.Started:
			// The rebind completed a waiting table.
			s.deliverTurn(rm, out.Turn)
		}
		return
	}

	log.Printf("player %s joined room %s at seat %d", out.Name, p.RoomID, out.Seat)
	s.sendToAll(rm.ConnIDs(), "playerJoined", playerJoinedPayload{
		Seat:  out.Seat,
		Name:  out.Name,
		Team:  game.TeamForSeat(out.Seat),
		Seats: out.Roster,
	})
	if out.Started {
		s.deliverTurn(rm, out.Turn)
	}
}

func (s *Server) handleSelectTrump(c *conn, p selectTrumpPayload) {
	rm, ok := s.reg.Get(p.RoomID)
	if !ok {
		s.sendTo(c.id, "error", errorPayload{Message: "room not found"})
		return
	}
	out, err := rm.SelectTrump(c.id, p.Trump)
	if err != nil {
		s.sendTo(c.id, "error", errorPayload{Message: err.Error()})
		return
	}

	s.sendToAll(rm.ConnIDs(), "trumpSelected", trumpSelectedPayload{Trump: out.Trump, Selector: out.Selector})
	for seat, hand := range out.Hands {
		if id := rm.ConnOf(seat); id != "" {
			s.sendTo(id, "fullHand", fullHandPayload{Hand: hand, Position: seat, Trump: out.Trump})
		}
	}
	s.deliverTurn(rm, out.Turn)
}

func (s *Server) handlePlayCard(c *conn, p playCardPayload) {
	rm, ok := s.reg.Get(p.RoomID)
	if !ok {
		s.sendTo(c.id, "error", errorPayload{Message: "room not found"})
		return
	}
	out, err := rm.PlayCard(c.id, p.CardIndex)
	if err != nil {
		s.sendTo(c.id, "error", errorPayload{Message: err.Error()})
		return
	}

	s.sendToAll(rm.ConnIDs(), "cardPlayed", cardPlayedPayload{Seat: out.Seat, Card: out.Card})

	if out.Turn != nil {
		// Mid-trick: the turn passes immediately.
		s.deliverTurn(rm, out.Turn)
		return
	}

	if out.Trick != nil {
		s.sendToAll(rm.ConnIDs(), "trickComplete", trickCompletePayload{
			Winner:    out.Trick.Winner,
			Scores:    out.Scores,
			TricksWon: out.Trick.TricksWon,
		})
	}
	if out.Deal == nil {
		// Give clients a beat to show the resolved trick.
		s.afterTrick(p.RoomID)
		return
	}

	s.sendToAll(rm.ConnIDs(), "roundComplete", roundCompletePayload{Result: *out.Deal, Scores: out.Scores})
	if out.Match == nil {
		s.afterDeal(p.RoomID)
		return
	}

	s.sendToAll(rm.ConnIDs(), "gameOver", gameOverPayload{Winner: out.Match.Winner, FinalScores: out.Match.FinalScores})
	log.Printf("room %s: match complete, team %s wins %d-%d",
		p.RoomID, out.Match.Winner, out.Match.FinalScores[0], out.Match.FinalScores[1])
	if err := s.store.RecordMatch(storage.MatchRecord{
		RoomID:   p.RoomID,
		Winner:   out.Match.Winner.String(),
		ScoreA:   out.Match.FinalScores[game.TeamA],
		ScoreB:   out.Match.FinalScores[game.TeamB],
		Deals:    out.Match.Deals,
		Duration: time.Since(rm.CreatedAt()),
	}); err != nil {
		log.Printf("record match for room %s: %v", p.RoomID, err)
	}
	s.afterMatch(p.RoomID)
}

// deliverTurn tells the awaited seat what it may do and everyone else
// who they are waiting on.
func (s *Server) deliverTurn(rm *room.Room, turn *room.TurnInfo) {
	if turn == nil {
		return
	}
	roster := rm.Roster()
	name := roster[turn.Seat].Name
	actor := rm.ConnOf(turn.Seat)

	switch turn.Phase {
	case room.PhaseTrumpSelection:
		s.sendTo(actor, "canSelectTrump", canSelectTrumpPayload{Hand: turn.Hand})
		for _, info := range roster {
			if info.Seat != turn.Seat && info.Connected {
				s.sendTo(rm.ConnOf(info.Seat), "waitingForTrump", waitingForTrumpPayload{Seat: turn.Seat, Name: name})
			}
		}
	case room.PhasePlaying:
		s.sendTo(actor, "yourTurn", yourTurnPayload{LegalPlayIndices: turn.LegalIndices})
		for _, info := range roster {
			if info.Seat != turn.Seat && info.Connected {
				s.sendTo(rm.ConnOf(info.Seat), "turnUpdate", turnUpdatePayload{Seat: turn.Seat, Name: name})
			}
		}
	}
}

// --- Deferred continuations ---
//
// Each callback re-resolves the room and re-validates its phase before
// acting: a pause, eviction or teardown during the delay must turn the
// callback into a no-op.

func (s *Server) afterTrick(roomID string) {
	time.AfterFunc(s.cfg.TrickDelay, func() {
		rm, ok := s.reg.Get(roomID)
		if !ok {
			return
		}
		turn, ok := rm.CurrentTurn()
		if !ok || turn.Phase != room.PhasePlaying {
			return
		}
		s.deliverTurn(rm, turn)
	})
}

func (s *Server) afterDeal(roomID string) {
	time.AfterFunc(s.cfg.DealDelay, func() {
		rm, ok := s.reg.Get(roomID)
		if !ok {
			return
		}
		sel, ok := rm.DealSelection()
		if !ok {
			return
		}
		s.deliverTurn(rm, sel.Turn)
	})
}

func (s *Server) afterMatch(roomID string) {
	time.AfterFunc(s.cfg.TeardownDelay, func() {
		if _, ok := s.reg.Get(roomID); !ok {
			return
		}
		s.RoomClosed(roomID, "match complete")
		s.reg.Remove(roomID)
	})
}

// handleDisconnect runs when a connection's read loop ends, whatever
// the reason. The seat survives for reconnection.
func (s *Server) handleDisconnect(c *conn) {
	roomID, ok := s.roomOf(c.id)
	if !ok {
		return
	}
	rm, ok := s.reg.Get(roomID)
	if !ok {
		return
	}
	out, ok := rm.Disconnect(c.id)
	if !ok {
		return
	}
	log.Printf("player %s disconnected from room %s", out.Name, roomID)
	s.sendToAll(rm.ConnIDs(), "playerLeft", playerLeftPayload{Seat: out.Seat, Name: out.Name, Seats: out.Roster})
	if out.Paused {
		s.sendToAll(rm.ConnIDs(), "gameInterrupted", gameInterruptedPayload{Seat: out.Seat, Name: out.Name})
	}
}

func (s *Server) handleStats(c *conn) {
	if !c.admin {
		s.sendTo(c.id, "error", errorPayload{Message: "server stats are restricted"})
		return
	}
	totals, err := s.store.Totals()
	if err != nil {
		log.Printf("stats totals: %v", err)
	}
	recent, err := s.store.RecentMatches(10)
	if err != nil {
		log.Printf("stats recent matches: %v", err)
	}
	s.sendTo(c.id, "serverStats", serverStatsPayload{
		Started:  humanize.Time(s.started),
		Live:     s.reg.Stats(),
		Lifetime: totals,
		Recent:   recent,
	})
}

// --- registry.Observer ---

// RoomSwept relays seat evictions to the seats that remain.
func (s *Server) RoomSwept(roomID string, ev *room.EvictionOutcome) {
	rm, ok := s.reg.Get(roomID)
	if !ok {
		return
	}
	s.sendToAll(rm.ConnIDs(), "roomCleaned", roomCleanedPayload{Evicted: ev.Evicted, Seats: ev.Roster})
}

// RoomClosed notifies a room's connections and releases their bindings.
// It works from the connection table alone so it stays correct after
// the registry has already dropped the room.
func (s *Server) RoomClosed(roomID, reason string) {
	s.mu.Lock()
	var ids []string
	for connID, rID := range s.connRoom {
		if rID == roomID {
			ids = append(ids, connID)
			delete(s.connRoom, connID)
		}
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.sendTo(id, "roomClosed", roomClosedPayload{Reason: reason})
	}
}
