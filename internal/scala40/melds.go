package scala40

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

type MeldKind string

const (
	// MeldTris covers both three-card sets and the four-card poker.
	MeldTris MeldKind = "tris"
	MeldRun  MeldKind = "run"
)

func (k MeldKind) Label() string {
	if k == MeldRun {
		return "Run"
	}
	return "Tris"
}

type Meld struct {
	Kind   MeldKind `json:"kind"`
	Cards  []Card   `json:"cards"`
	Points int      `json:"points"`
}

func newMeld(kind MeldKind, cards []Card) Meld {
	return Meld{
		Kind:   kind,
		Cards:  cards,
		Points: MeldPoints(cards),
	}
}

// MeldPoints sums the real cards; jokers add nothing.
func MeldPoints(cards []Card) int {
	return lo.SumBy(cards, func(c Card) int { return c.Value() })
}

func (m Meld) JokerCount() int {
	return countJokers(m.Cards)
}

func (m Meld) String() string {
	names := lo.Map(m.Cards, func(c Card, _ int) string { return c.String() })
	return m.Kind.Label() + ": " + strings.Join(names, ", ")
}

// GenerateMelds derives every tris, poker and run obtainable from the hand,
// with or without a joker. Tris come first in rank order, then runs by suit.
// A rank may feed both a tris and a run; both are kept as candidates.
func GenerateMelds(hand []Card) []Meld {
	parsed := ParseHand(hand)
	hasJoker := parsed.JokerCount() > 0
	melds := make([]Meld, 0)

	for _, rank := range Ranks {
		suits := parsed.DistinctSuits(rank)

		if len(suits) >= 3 {
			melds = append(melds, newMeld(MeldTris, cardsOfRank(rank, suits[:3])))
		}
		if len(suits) == 4 {
			melds = append(melds, newMeld(MeldTris, cardsOfRank(rank, suits)))
		} else if len(suits) == 2 && hasJoker {
			cards := append(cardsOfRank(rank, suits), JokerCard)
			melds = append(melds, newMeld(MeldTris, cards))
		}
	}

	for _, suit := range Suits {
		for _, seq := range ConsecutiveRuns(lo.Uniq(parsed.BySuit[suit])) {
			switch {
			case len(seq) >= 3:
				melds = append(melds, newMeld(MeldRun, cardsOfSuit(suit, seq)))
			case len(seq) == 2 && hasJoker:
				// The joker is appended without checking which side it extends.
				cards := append(cardsOfSuit(suit, seq), JokerCard)
				melds = append(melds, newMeld(MeldRun, cards))
			}
		}
	}

	return melds
}

// ConsecutiveRuns splits sorted, duplicate-free ranks into maximal blocks of
// consecutive ranks. Ace only connects to Two.
func ConsecutiveRuns(ranks []Rank) [][]Rank {
	sorted := slices.Clone(ranks)
	slices.Sort(sorted)

	runs := make([][]Rank, 0)
	for i, rank := range sorted {
		if i == 0 || rank != sorted[i-1]+1 {
			runs = append(runs, []Rank{rank})
			continue
		}
		runs[len(runs)-1] = append(runs[len(runs)-1], rank)
	}
	return runs
}

func cardsOfRank(rank Rank, suits []Suit) []Card {
	return lo.Map(suits, func(s Suit, _ int) Card { return Card{Suit: s, Rank: rank} })
}

func cardsOfSuit(suit Suit, ranks []Rank) []Card {
	return lo.Map(ranks, func(r Rank, _ int) Card { return Card{Suit: suit, Rank: r} })
}
