package scala40

import (
	"errors"
	"fmt"
)

// HandSize is the number of cards a player holds before drawing.
const HandSize = 13

var ErrInvalidHandSize = errors.New("INVALID_HAND_SIZE")

// Advice is the full recommendation for one hand.
type Advice struct {
	Phase      Phase                 `json:"phase"`
	Candidates []Meld                `json:"candidates"`
	Opening    OpeningResult         `json:"opening"`
	Discard    DiscardRecommendation `json:"discard"`
}

type Request struct {
	Hand    []Card
	Phase   Phase
	Played  []Card
	Opening []OpeningOption
}

// Advise runs the whole pipeline: melds, opening, then a discard chosen from
// whatever the opening leaves in hand. The hand must hold exactly HandSize
// cards.
func Advise(req Request) (Advice, error) {
	if len(req.Hand) != HandSize {
		return Advice{}, fmt.Errorf("%w: expected %d cards, got %d", ErrInvalidHandSize, HandSize, len(req.Hand))
	}

	// Unknown or empty phases score with mid weights, and the advice says so
	phase := ParsePhase(string(req.Phase))

	melds := GenerateMelds(req.Hand)
	opening := ChooseOpening(melds, req.Hand, req.Opening...)
	discard := SuggestDiscard(opening.Remaining, WithPhase(phase), WithPlayedCards(req.Played))

	return Advice{
		Phase:      phase,
		Candidates: melds,
		Opening:    opening,
		Discard:    discard,
	}, nil
}
