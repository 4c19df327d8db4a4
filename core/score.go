package core

import (
	"math"

	"github.com/jaajung-kjs/kepco-survey/schema"
)

// roundTenth rounds to one decimal place, halves toward +Inf (-0.25 becomes -0.2).
func roundTenth(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// sideTotals is the category sum over one side (own or peer) of a department.
type sideTotals struct {
	sum         int64
	count       int64
	respondents int64 // count of the first contributing question
}

// average is sum/count, or 0 with no answers.
func (s sideTotals) average() float64 {
	if s.count == 0 {
		return 0
	}
	return float64(s.sum) / float64(s.count)
}

// hasData reports whether anyone answered on this side.
func (s sideTotals) hasData() bool {
	return s.respondents > 0
}

// sumCells totals the cells of the given keys in catalog order.
func sumCells(cells map[int]schema.Cell, keys []int) sideTotals {
	var t sideTotals
	for _, k := range keys {
		c := cells[k]
		t.sum += c.Sum
		t.count += c.Count
		if t.respondents == 0 && c.Count > 0 {
			t.respondents = c.Count
		}
	}
	return t
}

// computeEvaluation blends own and peer totals of one category into an EvaluationScore.
// Both sides present: the averages are weighted by respondents. Peer only: the peer
// average. Otherwise the own average, which is 0 without data.
func computeEvaluation(category schema.Category, own, peer sideTotals, hasPeerSlots bool) schema.EvaluationScore {
	ownAvg := own.average()
	peerAvg := peer.average()

	score := schema.EvaluationScore{
		Category:        category,
		HasOwnScore:     own.hasData(),
		HasPeerScore:    peer.hasData(),
		OwnRespondents:  own.respondents,
		PeerRespondents: peer.respondents,
		OwnAverage:      roundTenth(ownAvg),
	}

	var final float64
	switch {
	case score.HasOwnScore && score.HasPeerScore:
		n1, n2 := float64(own.respondents), float64(peer.respondents)
		final = (ownAvg*n1 + peerAvg*n2) / (n1 + n2)
		diff := roundTenth(final - ownAvg)
		score.Difference = &diff
	case score.HasPeerScore:
		final = peerAvg
	default:
		final = ownAvg
	}
	score.FinalScore = roundTenth(final)

	if hasPeerSlots {
		p := roundTenth(peerAvg)
		score.PeerAverage = &p
	}
	return score
}

// overallAverage is the unweighted mean of the rounded category finals, rounded.
func overallAverage(scores []schema.EvaluationScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	var total float64
	for _, s := range scores {
		total += s.FinalScore
	}
	return roundTenth(total / float64(len(scores)))
}
