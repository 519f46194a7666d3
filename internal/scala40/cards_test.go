package scala40_test

import (
	"errors"
	"scala40-advisor/internal/scala40"
	"testing"

	"github.com/stretchr/testify/assert"
)

// cards parses notations or fails the test.
func cards(t *testing.T, notations ...string) []scala40.Card {
	t.Helper()
	parsed, err := scala40.ParseCards(notations)
	if err != nil {
		t.Fatalf("bad test hand: %v", err)
	}
	return parsed
}

func TestPointValues(t *testing.T) {
	var tests = []struct {
		card scala40.Card
		want int
	}{
		{scala40.Card{scala40.Hearts, scala40.Ace}, 11},
		{scala40.Card{scala40.Spades, scala40.Two}, 2},
		{scala40.Card{scala40.Clubs, scala40.Nine}, 9},
		{scala40.Card{scala40.Diamonds, scala40.Ten}, 10},
		{scala40.Card{scala40.Hearts, scala40.Jack}, 10},
		{scala40.Card{scala40.Hearts, scala40.Queen}, 10},
		{scala40.Card{scala40.Spades, scala40.King}, 10},
		{scala40.JokerCard, 0},
	}

	for _, tt := range tests {
		t.Run(tt.card.String(), func(t *testing.T) {
			value := tt.card.Value()
			if value != tt.want {
				t.Errorf("Card valued at %d, %d expected.", value, tt.want)
			}
		})
	}
}

func TestRankOrder(t *testing.T) {
	assert := assert.New(t)

	for i, rank := range scala40.Ranks {
		assert.Equal(i, rank.Index())
		if i > 0 {
			assert.True(scala40.Ranks[i-1].Less(rank))
		}
	}
	assert.False(scala40.King.Less(scala40.Ace))
}

func TestParseCard(t *testing.T) {
	tests := []struct {
		in   string
		want scala40.Card
	}{
		{"A♥", scala40.Card{scala40.Hearts, scala40.Ace}},
		{"ah", scala40.Card{scala40.Hearts, scala40.Ace}},
		{"1S", scala40.Card{scala40.Spades, scala40.Ace}},
		{"10D", scala40.Card{scala40.Diamonds, scala40.Ten}},
		{"10♦", scala40.Card{scala40.Diamonds, scala40.Ten}},
		{"QS", scala40.Card{scala40.Spades, scala40.Queen}},
		{"jc", scala40.Card{scala40.Clubs, scala40.Jack}},
		{" 7♣ ", scala40.Card{scala40.Clubs, scala40.Seven}},
		{"K♠", scala40.Card{scala40.Spades, scala40.King}},
		{"JOKER", scala40.JokerCard},
		{"jolly", scala40.JokerCard},
		{"*", scala40.JokerCard},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			card, err := scala40.ParseCard(tt.in)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, card)
		})
	}
}

func TestParseCardErrors(t *testing.T) {
	for _, in := range []string{"", "11H", "ZH", "A", "H", "5X", "0S"} {
		t.Run(in, func(t *testing.T) {
			_, err := scala40.ParseCard(in)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, scala40.ErrInvalidCard))
		})
	}
}

func TestCardString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("10♥", scala40.Card{scala40.Hearts, scala40.Ten}.String())
	assert.Equal("A♠", scala40.Card{scala40.Spades, scala40.Ace}.String())
	assert.Equal("★", scala40.JokerCard.String())

	// Round trip through the notation
	for _, suit := range scala40.Suits {
		for _, rank := range scala40.Ranks {
			card := scala40.Card{suit, rank}
			parsed, err := scala40.ParseCard(card.String())
			assert.NoError(err)
			assert.Equal(card, parsed)
		}
	}
}

func TestJokersCompareEqual(t *testing.T) {
	hand := cards(t, "JOKER", "*")
	assert.Equal(t, hand[0], hand[1])
	assert.True(t, hand[0].IsJoker())
}

func TestBuildDeck(t *testing.T) {
	deck := scala40.NewDeck()

	if deck.Count() != 108 {
		t.Errorf("Deck should be %d cards, %d given.", 108, deck.Count())
	}

	jokers := 0
	for _, card := range deck.Cards {
		if card.IsJoker() {
			jokers++
		}
	}
	assert.Equal(t, 4, jokers)

	counts := map[scala40.Card]int{}
	for _, card := range deck.Cards {
		counts[card]++
	}
	for card, n := range counts {
		assert.Equal(t, scala40.Copies(card), n, card.String())
	}
}

func TestDraw(t *testing.T) {
	deck := scala40.NewDeck()
	drawnCards := deck.Draw(3)

	expected := []scala40.Card{
		scala40.JokerCard,
		scala40.JokerCard,
		{scala40.Spades, scala40.King},
	}

	if deck.Count() != 105 {
		t.Errorf("Deck should have %d cards, %d given", 105, deck.Count())
	}

	for i, expectedCard := range expected {
		if expectedCard != drawnCards[i] {
			t.Errorf("Expected to draw %s, got %s", expectedCard, drawnCards[i])
		}
	}
}

func TestDrawPastEmpty(t *testing.T) {
	deck := scala40.Deck{Cards: cards(t, "5H", "6H")}

	drawn := deck.Draw(5)

	assert.Len(t, drawn, 2)
	assert.Equal(t, 0, deck.Count())
}

func TestShuffle(t *testing.T) {
	deckA := scala40.NewDeck()
	deckB := scala40.NewDeck()

	assert.Equal(t, deckA.Cards, deckB.Cards, "Your decks aren't equal to start")

	deckB.Shuffle()

	assert.NotEqual(t, deckA.Cards, deckB.Cards, "Shuffling didn't work")
	assert.ElementsMatch(t, deckA.Cards, deckB.Cards)
}
