package game

import "math/rand"

// Suit is one of the four card suits.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Suits lists every suit in a fixed order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// ValidSuit reports whether s names a real suit.
func ValidSuit(s Suit) bool {
	for _, v := range Suits {
		if v == s {
			return true
		}
	}
	return false
}

// Rank is a card rank in the 32-card Omi deck (7 up to ace).
type Rank string

const (
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
	Ace   Rank = "A"
)

// Ranks lists every rank in ascending strength.
var Ranks = []Rank{Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

var rankOrder = map[Rank]int{
	Seven: 0, Eight: 1, Nine: 2, Ten: 3,
	Jack: 4, Queen: 5, King: 6, Ace: 7,
}

// Card is an immutable suit/rank pair.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

func (c Card) String() string {
	return string(c.Rank) + " of " + string(c.Suit)
}

// DeckSize is the number of cards in a full Omi deck.
const DeckSize = 32

// HandSize is the number of cards each seat holds after the full deal.
const HandSize = 8

// NewDeck returns the full 32-card deck in a fixed order.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// ShuffledDeck returns a freshly shuffled 32-card deck.
func ShuffledDeck() []Card {
	deck := NewDeck()
	rand.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}
