// Package room implements the Omi room aggregate: four seats, the phase
// state machine, dealing, trick play and reconnection. All methods take
// the room's lock, mutate state and return plain data; callers deliver
// notifications after the call returns so the lock is never held across
// an outbound send.
package room

import (
	"sync"
	"time"

	"omi/internal/game"
)

// Phase is the room's position in the game state machine.
type Phase string

const (
	PhaseWaiting        Phase = "waiting"
	PhaseTrumpSelection Phase = "trump_selection"
	PhasePlaying        Phase = "playing"
	PhasePaused         Phase = "paused"
	PhaseCompleted      Phase = "completed"
)

const numSeats = 4
const selectionHandSize = 4

// Seat holds one player's state. A nil seat has never been joined or
// has been evicted.
type Seat struct {
	ConnID    string
	Name      string
	Hand      []*game.Card // nil slot = already played this deal
	Connected bool
	LastSeen  time.Time
}

// SeatInfo is the public view of one seat.
type SeatInfo struct {
	Seat      int       `json:"seat"`
	Name      string    `json:"name,omitempty"`
	Team      game.Team `json:"team"`
	Connected bool      `json:"connected"`
	Occupied  bool      `json:"occupied"`
}

// Room is the aggregate root for one game.
type Room struct {
	mu sync.Mutex

	id          string
	targetScore int

	seats         [numSeats]*Seat
	phase         Phase
	resumePhase   Phase // phase to return to when leaving paused
	deck          []game.Card
	trump         game.Suit
	trumpSelector int
	currentSeat   int
	trick         []game.PlayedCard
	tricksWon     [numSeats]int
	scores        [2]int
	dealsPlayed   int

	createdAt    time.Time
	lastActivity time.Time
	completedAt  time.Time
}

// New creates an empty room in the waiting phase.
func New(id string, targetScore int) *Room {
	now := time.Now()
	return &Room{
		id:           id,
		targetScore:  targetScore,
		phase:        PhaseWaiting,
		createdAt:    now,
		lastActivity: now,
	}
}

func (r *Room) ID() string { return r.id }

// CreatedAt returns the room's creation time.
func (r *Room) CreatedAt() time.Time { return r.createdAt }

// Phase returns the current phase.
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Scores returns the accumulated team scores.
func (r *Room) Scores() [2]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scores
}

func (r *Room) touch() { r.lastActivity = time.Now() }

// --- Seating, reconnection, game start ---

// TurnInfo describes whose action the room is waiting on.
type TurnInfo struct {
	Phase        Phase
	Seat         int
	Hand         []*game.Card // selector's hand when awaiting trump
	LegalIndices []int        // when awaiting a card play
}

// JoinOutcome reports the effects of a successful join.
type JoinOutcome struct {
	Seat     int
	Name     string
	Rejoined bool
	Started  bool // first deal began now
	Resumed  bool // paused room returned to play

	Turn     *TurnInfo // action owed after a start or resume
	Snapshot *Snapshot // full state owed to a rejoining player
	Roster   []SeatInfo
}

// Join seats a connection, handling reconnection matching first. Name
// matching against disconnected occupied seats is the sole reconnection
// identity mechanism.
func (r *Room) Join(connID, name string, team game.Team, reconnect bool) (*JoinOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == PhaseCompleted {
		return nil, &PhaseError{Phase: r.phase, Intent: "join"}
	}

	if reconnect {
		if i := r.seatByName(name, false); i >= 0 {
			return r.rebind(connID, i), nil
		}
		if r.seatByName(name, true) >= 0 {
			return nil, ErrDuplicateName
		}
		// No match at all: ordinary seating below.
	}

	if r.seatByName(name, true) >= 0 {
		return nil, ErrDuplicateName
	}

	idx := r.pickSeat(team)
	if idx < 0 {
		return nil, ErrRoomFull
	}
	r.seats[idx] = &Seat{
		ConnID:    connID,
		Name:      name,
		Connected: true,
		LastSeen:  time.Now(),
	}
	r.touch()

	out := &JoinOutcome{Seat: idx, Name: name, Roster: r.roster()}
	if r.maybeStart() {
		out.Started = true
		out.Turn = r.turnInfo()
	}
	return out, nil
}

// maybeStart begins the first deal once all four seats are
// simultaneously connected. Callers must hold the lock.
func (r *Room) maybeStart() bool {
	if r.phase != PhaseWaiting || r.connectedCount() != numSeats {
		return false
	}
	r.trumpSelector = 0
	r.dealSelection()
	r.phase = PhaseTrumpSelection
	return true
}

// rebind reattaches a connection to its old seat. It resumes the room
// if every seat is connected again, or starts the game when the rebind
// is what completes a still-waiting table.
func (r *Room) rebind(connID string, idx int) *JoinOutcome {
	s := r.seats[idx]
	s.ConnID = connID
	s.Connected = true
	s.LastSeen = time.Now()
	r.touch()

	out := &JoinOutcome{Seat: idx, Name: s.Name, Rejoined: true, Roster: r.roster()}
	if r.phase == PhasePaused && r.connectedCount() == numSeats {
		r.phase = r.resumePhase
		r.resumePhase = ""
		// A pause can interrupt the gap between deals, before the
		// selection hand exists. Issue it now so play can resume.
		if r.phase == PhaseTrumpSelection && handEmpty(r.seats[r.trumpSelector].Hand) {
			r.dealSelection()
		}
		out.Resumed = true
		out.Turn = r.turnInfo()
	}
	if r.maybeStart() {
		out.Started = true
		out.Turn = r.turnInfo()
	}
	out.Snapshot = r.snapshot(idx)
	return out
}

// pickSeat returns the first empty seat on the preferred team, falling
// back to the other team, or -1 when the room is full.
func (r *Room) pickSeat(team game.Team) int {
	for _, pref := range []game.Team{team, team.Other()} {
		for i := 0; i < numSeats; i++ {
			if game.TeamForSeat(i) == pref && r.seats[i] == nil {
				return i
			}
		}
	}
	return -1
}

// seatByName finds an occupied seat by display name, filtered on
// connection state.
func (r *Room) seatByName(name string, connected bool) int {
	for i, s := range r.seats {
		if s != nil && s.Name == name && s.Connected == connected {
			return i
		}
	}
	return -1
}

func (r *Room) seatByConn(connID string) int {
	for i, s := range r.seats {
		if s != nil && s.ConnID == connID {
			return i
		}
	}
	return -1
}

func (r *Room) connectedCount() int {
	n := 0
	for _, s := range r.seats {
		if s != nil && s.Connected {
			n++
		}
	}
	return n
}

// copyHand snapshots a hand slice for an outcome struct. Callers
// marshal outcomes after the lock is released, while later plays null
// slots in the live slice, so the live slice must never escape.
func copyHand(hand []*game.Card) []*game.Card {
	if hand == nil {
		return nil
	}
	out := make([]*game.Card, len(hand))
	copy(out, hand)
	return out
}

func copyTrick(trick []game.PlayedCard) []game.PlayedCard {
	if trick == nil {
		return nil
	}
	out := make([]game.PlayedCard, len(trick))
	copy(out, trick)
	return out
}

func handEmpty(hand []*game.Card) bool {
	for _, c := range hand {
		if c != nil {
			return false
		}
	}
	return true
}

// --- Dealing ---

// dealSelection shuffles a fresh deck and gives the trump selector the
// first four cards. Other hands stay empty until trump is chosen: the
// 4-then-4 split is a rule of the game, not an optimization.
func (r *Room) dealSelection() {
	r.deck = game.ShuffledDeck()
	for _, s := range r.seats {
		if s != nil {
			s.Hand = nil
		}
	}
	sel := r.seats[r.trumpSelector]
	sel.Hand = r.draw(selectionHandSize)
	r.currentSeat = r.trumpSelector
}

// completeDeal fills every hand to eight cards after trump is chosen.
func (r *Room) completeDeal() {
	sel := r.seats[r.trumpSelector]
	sel.Hand = append(sel.Hand, r.draw(game.HandSize-selectionHandSize)...)
	for i, s := range r.seats {
		if i == r.trumpSelector {
			continue
		}
		s.Hand = r.draw(game.HandSize)
	}
	r.deck = nil
}

func (r *Room) draw(n int) []*game.Card {
	cards := make([]*game.Card, 0, game.HandSize)
	for i := 0; i < n; i++ {
		c := r.deck[0]
		r.deck = r.deck[1:]
		cards = append(cards, &c)
	}
	return cards
}

// SelectionOutcome reports a deferred selection deal.
type SelectionOutcome struct {
	Turn   *TurnInfo
	Roster []SeatInfo
}

// DealSelection issues the trump-selection hand for the next deal. It is
// the deferred continuation between deals: it re-validates the phase and
// no-ops if a pause (or anything else) intervened during the delay.
func (r *Room) DealSelection() (*SelectionOutcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseTrumpSelection || !handEmpty(r.seats[r.trumpSelector].Hand) {
		return nil, false
	}
	r.dealSelection()
	r.touch()
	return &SelectionOutcome{Turn: r.turnInfo(), Roster: r.roster()}, true
}

// --- Trump selection ---

// TrumpOutcome reports a successful trump choice: the deal is complete
// and play begins.
type TrumpOutcome struct {
	Trump    game.Suit
	Selector int
	Hands    [numSeats][]*game.Card
	Turn     *TurnInfo
}

// SelectTrump accepts the designated seat's trump choice, completes the
// deal and moves the room into the playing phase.
func (r *Room) SelectTrump(connID string, suit game.Suit) (*TrumpOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.seatByConn(connID)
	if idx < 0 {
		return nil, ErrNotSeated
	}
	if r.phase != PhaseTrumpSelection {
		return nil, &PhaseError{Phase: r.phase, Intent: "select trump"}
	}
	if idx != r.trumpSelector {
		return nil, ErrNotSelector
	}
	if !game.ValidSuit(suit) {
		return nil, ErrUnknownSuit
	}

	r.trump = suit
	r.completeDeal()
	r.phase = PhasePlaying
	r.currentSeat = r.trumpSelector
	r.touch()

	out := &TrumpOutcome{Trump: suit, Selector: idx, Turn: r.turnInfo()}
	for i, s := range r.seats {
		out.Hands[i] = copyHand(s.Hand)
	}
	return out, nil
}

// --- Card play ---

// TrickResult reports a resolved trick.
type TrickResult struct {
	Winner    int
	Trick     []game.PlayedCard
	TricksWon [numSeats]int
}

// MatchResult reports a completed match.
type MatchResult struct {
	Winner      game.Team
	FinalScores [2]int
	Deals       int
}

// PlayOutcome reports the effects of one card play. Trick, deal and
// match completion stack: a single play can produce all three.
type PlayOutcome struct {
	Seat int
	Card game.Card

	Turn  *TurnInfo // next player, when the trick continues
	Trick *TrickResult
	Deal  *game.DealResult
	Match *MatchResult

	Scores [2]int
}

// PlayCard validates and applies one card play for the seat bound to
// connID. The card slot is nulled in place so the remaining slots keep
// their indices for the rest of the deal.
func (r *Room) PlayCard(connID string, cardIndex int) (*PlayOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.seatByConn(connID)
	if idx < 0 {
		return nil, ErrNotSeated
	}
	if r.phase != PhasePlaying {
		return nil, &PhaseError{Phase: r.phase, Intent: "play a card"}
	}
	if idx != r.currentSeat {
		return nil, ErrNotYourTurn
	}

	hand := r.seats[idx].Hand
	if cardIndex < 0 || cardIndex >= len(hand) || hand[cardIndex] == nil {
		return nil, ErrNoSuchCard
	}
	if !game.IsLegalPlay(cardIndex, hand, r.trick, r.trump) {
		return nil, &FollowSuitError{Required: game.LeadSuit(r.trick)}
	}

	card := *hand[cardIndex]
	hand[cardIndex] = nil
	r.trick = append(r.trick, game.PlayedCard{Seat: idx, Card: card})
	r.touch()

	out := &PlayOutcome{Seat: idx, Card: card, Scores: r.scores}
	if len(r.trick) < numSeats {
		r.currentSeat = (r.currentSeat + 1) % numSeats
		out.Turn = r.turnInfo()
		return out, nil
	}

	// Trick complete: resolve, credit the winner, winner leads next.
	winner := game.ResolveTrick(r.trick, r.trump)
	r.tricksWon[winner]++
	out.Trick = &TrickResult{Winner: winner, Trick: r.trick, TricksWon: r.tricksWon}
	r.trick = nil
	r.currentSeat = winner

	total := 0
	for _, n := range r.tricksWon {
		total += n
	}
	if total < game.TricksPerDeal {
		return out, nil
	}

	// Deal complete: score it and either finish the match or line up
	// the next deal. Dealing itself is deferred by the caller.
	res := game.ScoreDeal(r.tricksWon, r.trumpSelector)
	r.dealsPlayed++
	if res.Winner != game.NoTeam {
		r.scores[res.Winner] += res.Points
	}
	out.Deal = &res
	out.Scores = r.scores

	if res.Winner != game.NoTeam && r.scores[res.Winner] >= r.targetScore {
		r.phase = PhaseCompleted
		r.completedAt = time.Now()
		out.Match = &MatchResult{Winner: res.Winner, FinalScores: r.scores, Deals: r.dealsPlayed}
		return out, nil
	}

	r.prepareNextDeal()
	return out, nil
}

// prepareNextDeal resets per-deal state and advances the trump selector.
// The selection hand is dealt later, by the deferred DealSelection.
func (r *Room) prepareNextDeal() {
	for _, s := range r.seats {
		if s != nil {
			s.Hand = nil
		}
	}
	r.trick = nil
	r.tricksWon = [numSeats]int{}
	r.trump = ""
	r.deck = nil
	r.trumpSelector = (r.trumpSelector + 1) % numSeats
	r.currentSeat = r.trumpSelector
	r.phase = PhaseTrumpSelection
}

// turnInfo describes the awaited action. Callers must hold the lock.
func (r *Room) turnInfo() *TurnInfo {
	switch r.phase {
	case PhaseTrumpSelection:
		return &TurnInfo{
			Phase: r.phase,
			Seat:  r.trumpSelector,
			Hand:  copyHand(r.seats[r.trumpSelector].Hand),
		}
	case PhasePlaying:
		return &TurnInfo{
			Phase:        r.phase,
			Seat:         r.currentSeat,
			LegalIndices: game.LegalPlayIndices(r.seats[r.currentSeat].Hand, r.trick, r.trump),
		}
	}
	return nil
}

// CurrentTurn re-derives the awaited action. It backs the deferred
// next-trick continuation: reports false when the room is paused,
// completed or otherwise not waiting on anyone.
func (r *Room) CurrentTurn() (*TurnInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ti := r.turnInfo()
	return ti, ti != nil
}

// --- Disconnection, pause, eviction ---

// DisconnectOutcome reports a dropped connection.
type DisconnectOutcome struct {
	Seat   int
	Name   string
	Paused bool
	Roster []SeatInfo
}

// Disconnect marks the seat bound to connID as disconnected, keeping its
// state for reconnection. Any disconnection mid-deal pauses the room.
func (r *Room) Disconnect(connID string) (*DisconnectOutcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.seatByConn(connID)
	if idx < 0 {
		return nil, false
	}
	s := r.seats[idx]
	s.Connected = false
	s.ConnID = ""
	s.LastSeen = time.Now()
	r.touch()

	out := &DisconnectOutcome{Seat: idx, Name: s.Name}
	if r.phase == PhaseTrumpSelection || r.phase == PhasePlaying {
		r.resumePhase = r.phase
		r.phase = PhasePaused
		out.Paused = true
	}
	out.Roster = r.roster()
	return out, true
}

// EvictionOutcome reports a cleanup pass over stale seats.
type EvictionOutcome struct {
	Evicted   []string
	Abandoned bool // an interrupted deal was thrown away
	Roster    []SeatInfo
}

// EvictStale resets seats that have been disconnected longer than
// timeout. Evicting a seat out of a paused deal abandons that deal: the
// hand state is unrecoverable, so the room returns to waiting while the
// match scores persist.
func (r *Room) EvictStale(timeout time.Duration) (*EvictionOutcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var out EvictionOutcome
	for i, s := range r.seats {
		if s != nil && !s.Connected && now.Sub(s.LastSeen) > timeout {
			out.Evicted = append(out.Evicted, s.Name)
			r.seats[i] = nil
		}
	}
	if len(out.Evicted) == 0 {
		return nil, false
	}
	if r.phase == PhasePaused {
		r.clearDeal()
		r.phase = PhaseWaiting
		r.resumePhase = ""
		out.Abandoned = true
	}
	r.touch()
	out.Roster = r.roster()
	return &out, true
}

func (r *Room) clearDeal() {
	for _, s := range r.seats {
		if s != nil {
			s.Hand = nil
		}
	}
	r.trick = nil
	r.tricksWon = [numSeats]int{}
	r.trump = ""
	r.deck = nil
}

// Expired reports whether the sweep should destroy this room: nothing
// connected beyond the grace period, or a completed match past it.
func (r *Room) Expired(grace time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if r.phase == PhaseCompleted {
		return now.Sub(r.completedAt) > grace
	}
	return r.connectedCount() == 0 && now.Sub(r.lastActivity) > grace
}

// --- Views ---

// Roster returns the public view of all four seats.
func (r *Room) Roster() []SeatInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roster()
}

func (r *Room) roster() []SeatInfo {
	infos := make([]SeatInfo, numSeats)
	for i, s := range r.seats {
		infos[i] = SeatInfo{Seat: i, Team: game.TeamForSeat(i)}
		if s != nil {
			infos[i].Name = s.Name
			infos[i].Connected = s.Connected
			infos[i].Occupied = true
		}
	}
	return infos
}

// ConnIDs returns the connection ids of all connected seats.
func (r *Room) ConnIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, numSeats)
	for _, s := range r.seats {
		if s != nil && s.Connected {
			ids = append(ids, s.ConnID)
		}
	}
	return ids
}

// ConnOf returns the connection id bound to a seat, or "" when the seat
// is empty or disconnected.
func (r *Room) ConnOf(seat int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seat < 0 || seat >= numSeats || r.seats[seat] == nil {
		return ""
	}
	return r.seats[seat].ConnID
}

// ConnectedCount returns the number of connected seats.
func (r *Room) ConnectedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connectedCount()
}

// Snapshot is the full game state owed to one seat, sent on reconnect.
type Snapshot struct {
	RoomID       string            `json:"roomId"`
	Phase        Phase             `json:"phase"`
	Trump        game.Suit         `json:"trump,omitempty"`
	Seat         int               `json:"seat"`
	Team         game.Team         `json:"team"`
	Hand         []*game.Card      `json:"hand"`
	YourTurn     bool              `json:"yourTurn"`
	LegalIndices []int             `json:"legalIndices,omitempty"`
	Trick        []game.PlayedCard `json:"trick"`
	Scores       [2]int            `json:"scores"`
	TricksWon    [numSeats]int     `json:"tricksWon"`
	Seats        []SeatInfo        `json:"seats"`
}

// Snapshot builds the state view owed to the given seat.
func (r *Room) Snapshot(seat int) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(seat)
}

func (r *Room) snapshot(seat int) *Snapshot {
	s := r.seats[seat]
	if s == nil {
		return nil
	}
	snap := &Snapshot{
		RoomID:    r.id,
		Phase:     r.phase,
		Trump:     r.trump,
		Seat:      seat,
		Team:      game.TeamForSeat(seat),
		Hand:      copyHand(s.Hand),
		Trick:     copyTrick(r.trick),
		Scores:    r.scores,
		TricksWon: r.tricksWon,
		Seats:     r.roster(),
	}
	phase := r.phase
	if phase == PhasePaused {
		phase = r.resumePhase
	}
	switch phase {
	case PhasePlaying:
		if seat == r.currentSeat {
			snap.YourTurn = true
			snap.LegalIndices = game.LegalPlayIndices(s.Hand, r.trick, r.trump)
		}
	case PhaseTrumpSelection:
		snap.YourTurn = seat == r.trumpSelector
	}
	return snap
}
