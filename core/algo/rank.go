// Package algo has the ranking primitives shared by score computations.
package algo

import (
	"math"
	"sort"
)

// TieEpsilon is the largest score gap that still counts as a tie.
const TieEpsilon = 0.01

// CompetitionRanks assigns 1-based competition ranks to scores, returned in input order.
// Scores are sorted descending with a stable sort, so equal scores keep input order.
// A score within TieEpsilon of the previous sorted score shares its rank; otherwise
// the rank is the 1-based sorted position (ranks [1,1,3], never [1,1,2]).
func CompetitionRanks(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	ranks := make([]int, len(scores))
	current := 1
	for i, idx := range order {
		if i > 0 && math.Abs(scores[order[i-1]]-scores[idx]) > TieEpsilon {
			current = i + 1
		}
		ranks[idx] = current
	}
	return ranks
}

// PartialRanks ranks only the entries whose include flag is set.
// Excluded entries get a nil rank and do not occupy a position.
func PartialRanks(scores []float64, include []bool) []*int {
	var subset []float64
	var positions []int
	for i, s := range scores {
		if i < len(include) && include[i] {
			subset = append(subset, s)
			positions = append(positions, i)
		}
	}

	ranks := make([]*int, len(scores))
	for j, r := range CompetitionRanks(subset) {
		ranks[positions[j]] = &r
	}
	return ranks
}
