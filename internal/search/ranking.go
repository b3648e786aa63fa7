package search

import (
	"sort"

	"github.com/zakupnik/backend/internal/guard"
)

// rankedCandidate is a guard survivor that cleared the phase threshold,
// with its purchase math precomputed for ranking.
type rankedCandidate struct {
	view         *guard.CandView
	score        float64
	effectiveQty int
	lineTotal    float64
}

// rank orders candidates by what the buyer actually pays: total
// acquisition cost for the requested quantity ascending, score breaking
// ties, name making the order reproducible.
func rank(cands []rankedCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.lineTotal != b.lineTotal {
			return a.lineTotal < b.lineTotal
		}
		if a.score != b.score {
			return a.score > b.score
		}
		return a.view.Offer.Name < b.view.Offer.Name
	})
}
