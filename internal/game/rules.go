package game

// PlayedCard is one entry in a trick: which seat played which card.
type PlayedCard struct {
	Seat int  `json:"seat"`
	Card Card `json:"card"`
}

// trumpOffset guarantees any trump card outranks any non-trump card.
// Base rank values span 0..7, so +10 clears the whole non-trump range.
const trumpOffset = 10

// RankValue returns a card's strength under the given trump suit.
// Ties are impossible within a trick since a deck holds no duplicates.
func RankValue(c Card, trump Suit) int {
	v := rankOrder[c.Rank]
	if c.Suit == trump {
		v += trumpOffset
	}
	return v
}

// LeadSuit returns the suit of the first card in the trick,
// or "" if the trick is empty.
func LeadSuit(trick []PlayedCard) Suit {
	if len(trick) == 0 {
		return ""
	}
	return trick[0].Card.Suit
}

// LegalPlayIndices returns the hand-slot indices that may legally be played
// against the current trick. Leading is unconstrained. Otherwise the lead
// suit must be followed when held; a hand void in the lead suit may play
// anything, including trump. Nil slots mark already-played cards.
func LegalPlayIndices(hand []*Card, trick []PlayedCard, trump Suit) []int {
	lead := LeadSuit(trick)
	mustFollow := lead != "" && HoldsSuit(hand, lead)

	var legal []int
	for i, c := range hand {
		if c == nil {
			continue
		}
		if mustFollow && c.Suit != lead {
			continue
		}
		legal = append(legal, i)
	}
	return legal
}

// IsLegalPlay reports whether playing the card at slot idx is legal.
func IsLegalPlay(idx int, hand []*Card, trick []PlayedCard, trump Suit) bool {
	for _, i := range LegalPlayIndices(hand, trick, trump) {
		if i == idx {
			return true
		}
	}
	return false
}

// HoldsSuit reports whether the hand still holds a card of the given suit.
func HoldsSuit(hand []*Card, suit Suit) bool {
	for _, c := range hand {
		if c != nil && c.Suit == suit {
			return true
		}
	}
	return false
}

// ResolveTrick returns the seat that wins a completed 4-card trick.
// Any trump present wins over everything else; otherwise the highest
// card of the lead suit wins.
func ResolveTrick(trick []PlayedCard, trump Suit) int {
	lead := LeadSuit(trick)

	winner := -1
	best := -1
	for _, pc := range trick {
		if pc.Card.Suit != trump && pc.Card.Suit != lead {
			continue
		}
		if v := RankValue(pc.Card, trump); v > best {
			best = v
			winner = pc.Seat
		}
	}
	return winner
}
