package scala40

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// AdviceView is the display-ready form of Advice sent to clients. Cards are
// rendered in text notation.
type AdviceView struct {
	Phase     string       `json:"phase"`
	CanOpen   bool         `json:"canOpen"`
	Points    int          `json:"points"`
	Melds     []MeldView   `json:"melds"`
	Remaining []string     `json:"remaining"`
	Discard   *DiscardView `json:"discard"` // Pointer so we can send nil when the hand is empty
	Text      string       `json:"text"`
}

type MeldView struct {
	Kind   string   `json:"kind"`
	Cards  []string `json:"cards"`
	Points int      `json:"points"`
}

type DiscardView struct {
	Card  string   `json:"card"`
	Score float64  `json:"score"`
	Trace []string `json:"trace"`
}

func (a Advice) View() AdviceView {
	view := AdviceView{
		Phase:     string(a.Phase),
		CanOpen:   a.Opening.CanOpen,
		Points:    a.Opening.Points,
		Melds:     lo.Map(a.Opening.Melds, func(m Meld, _ int) MeldView { return m.View() }),
		Remaining: CardStrings(a.Opening.Remaining),
		Text:      a.Format(),
	}
	if a.Discard.Card != nil {
		view.Discard = &DiscardView{
			Card:  a.Discard.Card.String(),
			Score: a.Discard.Score,
			Trace: a.Discard.Trace,
		}
	}
	return view
}

func (m Meld) View() MeldView {
	return MeldView{
		Kind:   string(m.Kind),
		Cards:  CardStrings(m.Cards),
		Points: m.Points,
	}
}

func CardStrings(cards []Card) []string {
	return lo.Map(cards, func(c Card, _ int) string { return c.String() })
}

// Format renders the opening the way it is shown to the player.
func (o OpeningResult) Format() string {
	if !o.CanOpen {
		return "Cannot open with the current hand."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Suggested opening (%d points):", o.Points)
	for _, m := range o.Melds {
		fmt.Fprintf(&b, "\n - %s", m)
	}
	return b.String()
}

// Format renders the opening, the suggested discard and the discard trace.
func (a Advice) Format() string {
	var b strings.Builder
	b.WriteString(a.Opening.Format())

	if a.Discard.Card != nil {
		fmt.Fprintf(&b, "\nSuggested discard: %s\n", a.Discard.Card)
	} else {
		b.WriteString("\nNo discard to suggest\n")
	}

	for _, line := range a.Discard.Trace {
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}
