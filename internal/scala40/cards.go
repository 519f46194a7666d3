package scala40

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
	Wild
)

// Suits lists the four real suits in enumeration order.
var Suits = [4]Suit{Hearts, Diamonds, Clubs, Spades}

var suitSymbol = map[Suit]string{
	Hearts:   "♥",
	Diamonds: "♦",
	Clubs:    "♣",
	Spades:   "♠",
	Wild:     "★",
}

func (s Suit) String() string {
	return suitSymbol[s]
}

type Rank int

// Rank order is the adjacency order used for runs: Ace is always low.
const (
	Ace Rank = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Joker
)

// Ranks lists the thirteen real ranks in order.
var Ranks = [13]Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

var rankString = map[Rank]string{
	Ace:   "A",
	Two:   "2",
	Three: "3",
	Four:  "4",
	Five:  "5",
	Six:   "6",
	Seven: "7",
	Eight: "8",
	Nine:  "9",
	Ten:   "10",
	Jack:  "J",
	Queen: "Q",
	King:  "K",
	Joker: "JOKER",
}

var pointValues = map[Rank]int{
	Ace:   11,
	Two:   2,
	Three: 3,
	Four:  4,
	Five:  5,
	Six:   6,
	Seven: 7,
	Eight: 8,
	Nine:  9,
	Ten:   10,
	Jack:  10,
	Queen: 10,
	King:  10,
	Joker: 0,
}

func (r Rank) String() string {
	return rankString[r]
}

// Index is the position of the rank in the fixed A..K order.
func (r Rank) Index() int {
	return int(r)
}

// Points is the rank's value when counted towards an opening.
func (r Rank) Points() int {
	return pointValues[r]
}

// Less reports whether r sorts before other.
func (r Rank) Less(other Rank) bool {
	return r < other
}

type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// JokerCard is the single joker value. Jokers from different hand slots
// compare equal.
var JokerCard = Card{Suit: Wild, Rank: Joker}

func (card Card) IsJoker() bool {
	return card.Rank == Joker
}

func (card Card) Value() int {
	return card.Rank.Points()
}

func (card Card) String() string {
	if card.IsJoker() {
		return Wild.String()
	}
	return card.Rank.String() + card.Suit.String()
}

var ErrInvalidCard = errors.New("INVALID_CARD")

var suitAliases = map[string]Suit{
	"♥": Hearts, "H": Hearts,
	"♦": Diamonds, "D": Diamonds,
	"♣": Clubs, "C": Clubs,
	"♠": Spades, "S": Spades,
}

// ParseCard reads a card in text notation: rank followed by suit
// ("A♥", "10D", "qs"), or one of JOKER, JOLLY and "*" for a joker.
func ParseCard(s string) (Card, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	switch raw {
	case "JOKER", "JOLLY", "*", "★":
		return JokerCard, nil
	case "":
		return Card{}, fmt.Errorf("%w: empty card", ErrInvalidCard)
	}

	var suit Suit
	var rankPart string
	found := false
	for alias, candidate := range suitAliases {
		if strings.HasSuffix(raw, alias) && len(raw) > len(alias) {
			suit = candidate
			rankPart = strings.TrimSuffix(raw, alias)
			found = true
			break
		}
	}
	if !found {
		return Card{}, fmt.Errorf("%w: unknown suit in %q", ErrInvalidCard, s)
	}

	rank, err := parseRank(rankPart)
	if err != nil {
		return Card{}, fmt.Errorf("%w: %q: %v", ErrInvalidCard, s, err)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

func parseRank(s string) (Rank, error) {
	switch s {
	case "A", "1":
		return Ace, nil
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 2 || n > 10 {
		return 0, fmt.Errorf("unknown rank %q", s)
	}
	return Rank(n - 1), nil
}

// ParseCards parses every notation, stopping at the first bad one.
func ParseCards(notations []string) ([]Card, error) {
	cards := make([]Card, 0, len(notations))
	for _, n := range notations {
		card, err := ParseCard(n)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

type Deck struct {
	Cards []Card `json:"cards"`
}

// NewDeck builds the Scala 40 pack: two French decks plus four jokers.
func NewDeck() *Deck {
	deck := make([]Card, 0, 108)

	for range 2 {
		for _, suit := range Suits {
			for _, rank := range Ranks {
				deck = append(deck, Card{suit, rank})
			}
		}
		deck = append(deck, JokerCard, JokerCard)
	}

	return &Deck{deck}
}

// Copies reports how many of card the pack holds.
func Copies(card Card) int {
	if card.IsJoker() {
		return 4
	}
	return 2
}

func (deck Deck) Count() int {
	return len(deck.Cards)
}

func (deck *Deck) Draw(i int) (cards []Card) {
	for range i {
		if len(deck.Cards) == 0 {
			return
		}
		card := deck.Cards[len(deck.Cards)-1]
		cards = append(cards, card)
		deck.Cards = deck.Cards[:len(deck.Cards)-1]
	}
	return
}

func (d *Deck) Shuffle() {
	rand.Shuffle(d.Count(), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}
