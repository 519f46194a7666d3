package scala40

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Phase is the strategic stage of a hand, used to weight the discard terms.
type Phase string

const (
	PhaseEarly Phase = "early"
	PhaseMid   Phase = "mid"
	PhaseLate  Phase = "late"
)

// ParsePhase maps unknown values to PhaseMid.
func ParsePhase(s string) Phase {
	switch Phase(strings.ToLower(strings.TrimSpace(s))) {
	case PhaseEarly:
		return PhaseEarly
	case PhaseLate:
		return PhaseLate
	default:
		return PhaseMid
	}
}

// PhaseWeights scale the three families of discard terms.
type PhaseWeights struct {
	Value    float64 `json:"value"`
	Strategy float64 `json:"strategy"`
	Risk     float64 `json:"risk"`
}

var phaseWeights = map[Phase]PhaseWeights{
	PhaseEarly: {Value: 0.8, Strategy: 1.3, Risk: 0.9},
	PhaseMid:   {Value: 1.0, Strategy: 1.0, Risk: 1.0},
	PhaseLate:  {Value: 1.3, Strategy: 0.7, Risk: 1.3},
}

func WeightsFor(phase Phase) PhaseWeights {
	if w, ok := phaseWeights[phase]; ok {
		return w
	}
	return phaseWeights[PhaseMid]
}

const (
	earlyHighCardPenalty = 5
	neighbourBonus       = 7
	jokerAttackBonus     = 5
	centralBonus         = 2
	copyBonus            = 4
	playedRiskPenalty    = 3
	isolatedHighPenalty  = 4
	isolatedPenalty      = 1
	forcedJokerScore     = 100
)

// Term is one signed contribution to a card's score. A zero Delta is a
// note with no effect on the score.
type Term struct {
	Label string  `json:"label"`
	Delta float64 `json:"delta"`
}

type CardScore struct {
	Card  Card    `json:"card"`
	Score float64 `json:"score"`
	Terms []Term  `json:"terms"`
}

type DiscardRecommendation struct {
	// Card is nil when there is nothing to discard.
	Card  *Card    `json:"card"`
	Score float64  `json:"score"`
	Trace []string `json:"trace"`
}

type discardConfig struct {
	phase  Phase
	played []Card
}

type DiscardOption func(*discardConfig)

func WithPhase(phase Phase) DiscardOption {
	return func(c *discardConfig) {
		c.phase = phase
	}
}

// WithPlayedCards supplies cards already seen on the table. Only their ranks
// matter.
func WithPlayedCards(cards []Card) DiscardOption {
	return func(c *discardConfig) {
		c.played = cards
	}
}

// SuggestDiscard scores every non-joker card in remaining and recommends the
// one with the highest score. Jokers are only considered when nothing else
// is left.
func SuggestDiscard(remaining []Card, opts ...DiscardOption) DiscardRecommendation {
	if len(remaining) == 0 {
		return DiscardRecommendation{
			Trace: []string{"No cards in hand: nothing to discard"},
		}
	}

	scores := ScoreCandidates(remaining, opts...)

	best := 0
	for i, s := range scores {
		if s.Score > scores[best].Score {
			best = i
		}
	}

	trace := lo.Map(scores, func(s CardScore, _ int) string { return s.describe() })
	card := scores[best].Card
	trace = append(trace, "Suggested discard: "+card.String())

	return DiscardRecommendation{
		Card:  &card,
		Score: scores[best].Score,
		Trace: trace,
	}
}

// ScoreCandidates returns one score per discard candidate, in input order.
func ScoreCandidates(remaining []Card, opts ...DiscardOption) []CardScore {
	config := discardConfig{phase: PhaseMid}
	for _, opt := range opts {
		opt(&config)
	}
	weights := WeightsFor(config.phase)

	candidates := lo.Reject(remaining, func(c Card, _ int) bool { return c.IsJoker() })
	if len(candidates) == 0 {
		return lo.Map(remaining, func(c Card, _ int) CardScore {
			return CardScore{
				Card:  c,
				Score: forcedJokerScore,
				Terms: []Term{{Label: "Joker, only discarded when nothing else is left", Delta: forcedJokerScore}},
			}
		})
	}

	parsed := ParseHand(candidates)
	playedByRank := lo.CountValuesBy(
		lo.Reject(config.played, func(c Card, _ int) bool { return c.IsJoker() }),
		func(c Card) Rank { return c.Rank },
	)

	return lo.Map(candidates, func(c Card, _ int) CardScore {
		return scoreCard(c, parsed, playedByRank, config.phase, weights)
	})
}

func scoreCard(card Card, parsed ParsedHand, playedByRank map[Rank]int, phase Phase, w PhaseWeights) CardScore {
	terms := make([]Term, 0, 8)

	terms = append(terms, Term{Label: "Card value", Delta: float64(card.Value()) * w.Value})
	if phase == PhaseEarly && card.Value() == 10 {
		terms = append(terms, Term{Label: "High card early in the hand", Delta: earlyHighCardPenalty})
	}

	neighbours := 0
	if card.Rank > Ace && parsed.HasRank(card.Suit, card.Rank-1) {
		neighbours++
	}
	if card.Rank < King && parsed.HasRank(card.Suit, card.Rank+1) {
		neighbours++
	}
	if neighbours > 0 {
		terms = append(terms, Term{
			Label: fmt.Sprintf("Run neighbours found: %d", neighbours),
			Delta: -neighbourBonus * w.Strategy * float64(neighbours),
		})
	} else {
		terms = append(terms, Term{Label: "No run neighbours"})
	}

	if (card.Rank == Two || card.Rank == Four) && !parsed.HasRank(card.Suit, Three) {
		terms = append(terms, Term{Label: "Gap at 3 can be closed by a joker or the 3", Delta: -jokerAttackBonus * w.Strategy})
	}

	if card.Rank.Index() > 2 && card.Rank.Index() < 11 {
		terms = append(terms, Term{Label: "Central rank", Delta: -centralBonus * w.Strategy})
	}

	copies := parsed.RankCount(card.Rank)
	if copies > 1 {
		terms = append(terms, Term{
			Label: fmt.Sprintf("Possible tris with %d other", copies-1),
			Delta: -copyBonus * w.Strategy * float64(copies-1),
		})
	}

	if seen := playedByRank[card.Rank]; seen > 0 {
		terms = append(terms, Term{
			Label: fmt.Sprintf("%d already played with this rank", seen),
			Delta: playedRiskPenalty * w.Risk * float64(seen),
		})
	}

	if copies == 1 && neighbours == 0 {
		if isHighRank(card.Rank) {
			terms = append(terms, Term{Label: "Isolated high card", Delta: isolatedHighPenalty})
		} else {
			terms = append(terms, Term{Label: "Isolated card", Delta: isolatedPenalty})
		}
	}

	return CardScore{
		Card:  card,
		Score: lo.SumBy(terms, func(t Term) float64 { return t.Delta }),
		Terms: terms,
	}
}

func isHighRank(r Rank) bool {
	switch r {
	case Ten, Jack, Queen, King, Ace:
		return true
	}
	return false
}

func (s CardScore) describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluating %s:", s.Card)
	for _, t := range s.Terms {
		if t.Delta == 0 {
			fmt.Fprintf(&b, "\n  - %s", t.Label)
			continue
		}
		fmt.Fprintf(&b, "\n  - %s (%s)", t.Label, formatSigned(t.Delta))
	}
	fmt.Fprintf(&b, "\n  => Final score: %s", formatScore(s.Score))
	return b.String()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func formatSigned(v float64) string {
	if v >= 0 {
		return "+" + formatScore(v)
	}
	return formatScore(v)
}
