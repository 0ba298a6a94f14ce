package room

import (
	"errors"
	"fmt"

	"omi/internal/game"
)

// Rejection reasons surfaced to the offending connection only. None of
// these are fatal to the room.
var (
	ErrRoomFull      = errors.New("room is full")
	ErrDuplicateName = errors.New("that name is already taken by a connected player")
	ErrNotSeated     = errors.New("you are not seated in this room")
	ErrNotYourTurn   = errors.New("it is not your turn")
	ErrNotSelector   = errors.New("only the trump selector may choose trump")
	ErrNoSuchCard    = errors.New("no card at that position")
	ErrUnknownSuit   = errors.New("unknown trump suit")
)

// PhaseError rejects an intent that the current phase forbids.
type PhaseError struct {
	Phase  Phase
	Intent string
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("cannot %s while the game is %s", e.Intent, e.Phase)
}

// FollowSuitError rejects a card play that breaks the follow-suit rule.
// Required names the suit the player provably holds.
type FollowSuitError struct {
	Required game.Suit
}

func (e *FollowSuitError) Error() string {
	return fmt.Sprintf("illegal play: you must follow %s", e.Required)
}
