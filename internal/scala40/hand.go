package scala40

import (
	"slices"

	"github.com/samber/lo"
)

// ParsedHand groups a hand's real cards by suit and by rank. It is rebuilt
// on every call and never cached.
type ParsedHand struct {
	// BySuit holds the ranks present in each suit, sorted by rank order.
	BySuit map[Suit][]Rank
	// ByRank holds the suits holding each rank, in hand order.
	ByRank map[Rank][]Suit
	Jokers []Card
}

func ParseHand(cards []Card) ParsedHand {
	parsed := ParsedHand{
		BySuit: make(map[Suit][]Rank),
		ByRank: make(map[Rank][]Suit),
		Jokers: make([]Card, 0),
	}

	for _, card := range cards {
		if card.IsJoker() {
			parsed.Jokers = append(parsed.Jokers, card)
			continue
		}
		parsed.BySuit[card.Suit] = append(parsed.BySuit[card.Suit], card.Rank)
		parsed.ByRank[card.Rank] = append(parsed.ByRank[card.Rank], card.Suit)
	}

	for suit := range parsed.BySuit {
		slices.Sort(parsed.BySuit[suit])
	}

	return parsed
}

// JokerCount is the number of jokers physically present.
func (p ParsedHand) JokerCount() int {
	return len(p.Jokers)
}

// DistinctSuits returns the suits holding rank, deduplicated and in suit
// enumeration order.
func (p ParsedHand) DistinctSuits(rank Rank) []Suit {
	suits := lo.Uniq(p.ByRank[rank])
	slices.Sort(suits)
	return suits
}

// HasRank reports whether suit holds rank.
func (p ParsedHand) HasRank(suit Suit, rank Rank) bool {
	return slices.Contains(p.BySuit[suit], rank)
}

// RankCount is the number of cards of rank, duplicates included.
func (p ParsedHand) RankCount(rank Rank) int {
	return len(p.ByRank[rank])
}

func countJokers(cards []Card) int {
	return lo.CountBy(cards, func(c Card) bool { return c.IsJoker() })
}
