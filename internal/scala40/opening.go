package scala40

import (
	"cmp"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

const (
	// MinOpeningPoints is the least a player may lay down to open.
	MinOpeningPoints = 40
	// DefaultMaxCandidateMelds bounds the subset search at 2^22 subsets.
	DefaultMaxCandidateMelds = 22
)

type OpeningResult struct {
	CanOpen   bool   `json:"canOpen"`
	Melds     []Meld `json:"melds"`
	Points    int    `json:"points"`
	Remaining []Card `json:"remaining"`
}

type openingConfig struct {
	maxMelds  int
	minPoints int
	parallel  bool
}

type OpeningOption func(*openingConfig)

// WithMaxCandidateMelds caps how many melds enter the subset search. Extra
// melds are dropped lowest points first.
func WithMaxCandidateMelds(n int) OpeningOption {
	return func(c *openingConfig) {
		if n > 0 {
			c.maxMelds = n
		}
	}
}

// WithParallelSearch evaluates each subset size on its own goroutine. The
// result is identical to the sequential search.
func WithParallelSearch() OpeningOption {
	return func(c *openingConfig) {
		c.parallel = true
	}
}

// WithMinOpeningPoints overrides the opening threshold.
func WithMinOpeningPoints(points int) OpeningOption {
	return func(c *openingConfig) {
		c.minPoints = points
	}
}

type subset struct {
	indices []int
	points  int
}

// better reports whether s beats best: more points first, then fewer melds.
// Anything else keeps the subset found first.
func (s subset) better(best *subset) bool {
	if best == nil {
		return true
	}
	if s.points != best.points {
		return s.points > best.points
	}
	return len(s.indices) < len(best.indices)
}

// ChooseOpening searches every non-empty subset of melds for a card-disjoint
// combination worth at least MinOpeningPoints. Subsets are visited by size,
// then in lexicographic order, and the first best subset wins.
func ChooseOpening(melds []Meld, hand []Card, opts ...OpeningOption) OpeningResult {
	config := openingConfig{
		maxMelds:  DefaultMaxCandidateMelds,
		minPoints: MinOpeningPoints,
	}
	for _, opt := range opts {
		opt(&config)
	}

	candidates := boundCandidates(melds, config.maxMelds)
	jokers := countJokers(hand)

	var best *subset
	if config.parallel {
		best = searchParallel(candidates, jokers, config.minPoints)
	} else {
		for size := 1; size <= len(candidates); size++ {
			if s := bestOfSize(candidates, size, jokers, config.minPoints); s != nil && s.better(best) {
				best = s
			}
		}
	}

	if best == nil {
		return OpeningResult{
			CanOpen:   false,
			Melds:     []Meld{},
			Points:    0,
			Remaining: slices.Clone(hand),
		}
	}

	chosen := make([]Meld, 0, len(best.indices))
	for _, i := range best.indices {
		chosen = append(chosen, candidates[i])
	}

	return OpeningResult{
		CanOpen:   true,
		Melds:     chosen,
		Points:    best.points,
		Remaining: RemoveMeldCards(hand, chosen),
	}
}

func searchParallel(candidates []Meld, jokers, minPoints int) *subset {
	perSize := make([]*subset, len(candidates)+1)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for size := 1; size <= len(candidates); size++ {
		g.Go(func() error {
			perSize[size] = bestOfSize(candidates, size, jokers, minPoints)
			return nil
		})
	}
	_ = g.Wait()

	var best *subset
	for _, s := range perSize {
		if s != nil && s.better(best) {
			best = s
		}
	}
	return best
}

// bestOfSize scans all size-element subsets in lexicographic order and keeps
// the first one with the highest points.
func bestOfSize(candidates []Meld, size, jokers, minPoints int) *subset {
	n := len(candidates)
	if size > n {
		return nil
	}

	idx := make([]int, size)
	for i := range idx {
		idx[i] = i
	}

	var best *subset
	used := make(map[Card]bool)
	for {
		if points, ok := validSubset(candidates, idx, jokers, used); ok && points >= minPoints {
			if best == nil || points > best.points {
				best = &subset{indices: slices.Clone(idx), points: points}
			}
		}

		// Advance to the next combination.
		i := size - 1
		for i >= 0 && idx[i] == n-size+i {
			i--
		}
		if i < 0 {
			return best
		}
		idx[i]++
		for j := i + 1; j < size; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// validSubset checks card disjointness and the joker budget, returning the
// subset's points.
func validSubset(candidates []Meld, idx []int, jokers int, used map[Card]bool) (int, bool) {
	clear(used)
	jokersUsed := 0
	points := 0

	for _, i := range idx {
		for _, card := range candidates[i].Cards {
			if card.IsJoker() {
				jokersUsed++
				if jokersUsed > jokers {
					return 0, false
				}
				continue
			}
			if used[card] {
				return 0, false
			}
			used[card] = true
		}
		points += candidates[i].Points
	}
	return points, true
}

func boundCandidates(melds []Meld, max int) []Meld {
	if len(melds) <= max {
		return melds
	}

	order := make([]int, len(melds))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(melds[b].Points, melds[a].Points)
	})
	kept := order[:max]
	slices.Sort(kept)

	bounded := make([]Meld, 0, max)
	for _, i := range kept {
		bounded = append(bounded, melds[i])
	}
	return bounded
}

// RemoveMeldCards returns hand minus one card per card the melds consume.
// Jokers are taken from the earliest hand slots.
func RemoveMeldCards(hand []Card, melds []Meld) []Card {
	consumed := make(map[Card]int)
	for _, meld := range melds {
		for _, card := range meld.Cards {
			consumed[card]++
		}
	}

	remaining := make([]Card, 0, len(hand))
	for _, card := range hand {
		if consumed[card] > 0 {
			consumed[card]--
			continue
		}
		remaining = append(remaining, card)
	}
	return remaining
}
