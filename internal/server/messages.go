package server

import (
	"encoding/json"

	"omi/internal/game"
	"omi/internal/registry"
	"omi/internal/room"
	"omi/internal/storage"
)

// Envelope is the JSON wrapper for every WebSocket message, in both
// directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// --- Inbound payloads ---

type joinRoomPayload struct {
	RoomID      string `json:"roomId"`
	Name        string `json:"name"`
	Team        string `json:"team"` // "A" or "B"
	IsReconnect bool   `json:"isReconnect"`
}

type selectTrumpPayload struct {
	RoomID string    `json:"roomId"`
	Trump  game.Suit `json:"trump"`
}

type playCardPayload struct {
	RoomID    string `json:"roomId"`
	CardIndex int    `json:"cardIndex"`
}

// --- Outbound payloads ---

type errorPayload struct {
	Message string `json:"message"`
}

type playerJoinedPayload struct {
	Seat  int             `json:"seat"`
	Name  string          `json:"name"`
	Team  game.Team       `json:"team"`
	Seats []room.SeatInfo `json:"seats"`
}

type playerRejoinedPayload struct {
	Seat  int             `json:"seat"`
	Name  string          `json:"name"`
	Seats []room.SeatInfo `json:"seats"`
}

type playerLeftPayload struct {
	Seat  int             `json:"seat"`
	Name  string          `json:"name"`
	Seats []room.SeatInfo `json:"seats"`
}

type canSelectTrumpPayload struct {
	Hand []*game.Card `json:"hand"`
}

type waitingForTrumpPayload struct {
	Seat int    `json:"seat"`
	Name string `json:"name"`
}

type trumpSelectedPayload struct {
	Trump    game.Suit `json:"trump"`
	Selector int       `json:"selector"`
}

type fullHandPayload struct {
	Hand     []*game.Card `json:"hand"`
	Position int          `json:"position"`
	Trump    game.Suit    `json:"trump"`
}

type yourTurnPayload struct {
	LegalPlayIndices []int `json:"legalPlayIndices"`
}

type turnUpdatePayload struct {
	Seat int    `json:"seat"`
	Name string `json:"name"`
}

type cardPlayedPayload struct {
	Seat int       `json:"seat"`
	Card game.Card `json:"card"`
}

type trickCompletePayload struct {
	Winner    int    `json:"winner"`
	Scores    [2]int `json:"scores"`
	TricksWon [4]int `json:"tricksWon"`
}

type roundCompletePayload struct {
	Result game.DealResult `json:"result"`
	Scores [2]int          `json:"scores"`
}

type gameOverPayload struct {
	Winner      game.Team `json:"winner"`
	FinalScores [2]int    `json:"finalScores"`
}

type gameInterruptedPayload struct {
	Seat int    `json:"seat"`
	Name string `json:"name"`
}

type roomCleanedPayload struct {
	Evicted []string        `json:"evicted"`
	Seats   []room.SeatInfo `json:"seats"`
}

type roomClosedPayload struct {
	Reason string `json:"reason"`
}

type serverStatsPayload struct {
	Started  string                `json:"started"` // humanized, e.g. "3 hours ago"
	Live     registry.Stats        `json:"live"`
	Lifetime storage.Totals        `json:"lifetime"`
	Recent   []storage.MatchRecord `json:"recent"`
}

// encode marshals a typed message into its wire form. Marshal errors
// cannot occur for our payload types, so they are swallowed here.
func encode(msgType string, payload any) []byte {
	p, _ := json.Marshal(payload)
	data, _ := json.Marshal(Envelope{Type: msgType, Payload: p})
	return data
}
