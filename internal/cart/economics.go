// Package cart implements quantity-aware purchase math: minimum-order
// rounding, per-supplier subtotals and the bounded automatic top-up that
// clears small supplier-minimum deficits. All functions are pure; the
// persistence of their results is the caller's concern.
package cart

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/zakupnik/backend/internal/domain"
)

// DefaultTopUpFraction bounds automatic top-up at this share of the
// supplier minimum; larger deficits are surfaced, never silently bought.
const DefaultTopUpFraction = 0.10

// DefaultMaxTopUpSteps caps how many increments one line may receive in
// a single top-up pass.
const DefaultMaxTopUpSteps = 3

// EffectiveQty rounds a requested quantity up to the supplier's order
// grid: the nearest multiple of min_order_qty when it exceeds one,
// otherwise the requested quantity itself. Requests below one count
// as one.
func EffectiveQty(requested, minOrderQty int) int {
	if requested < 1 {
		requested = 1
	}
	if minOrderQty > 1 {
		packs := (requested + minOrderQty - 1) / minOrderQty
		return packs * minOrderQty
	}
	return requested
}

// LineTotal is the acquisition cost of a line: effective quantity times
// pack price.
func LineTotal(effectiveQty int, price float64) float64 {
	return float64(effectiveQty) * price
}

// StepQty is the increment a line grows by during top-up: the minimum
// order quantity when it exceeds one (keeping the multiple-of-minimum
// invariant), otherwise the supplier's step quantity, at least one.
func StepQty(offer *domain.CandidateOffer) int {
	if offer.MinOrderQty > 1 {
		return offer.MinOrderQty
	}
	if offer.StepQty > 1 {
		return offer.StepQty
	}
	return 1
}

// BuildLine snapshots a selected offer into a cart line for the given
// user and reference. Savings is the amount saved against buying the
// same effective quantity at the best alternate's price; zero without
// an alternate or when the alternate is cheaper.
func BuildLine(userID, referenceID string, offer domain.CandidateOffer, userQty int, substitution bool, bestAlternatePrice float64) domain.CartLine {
	eff := EffectiveQty(userQty, offer.MinOrderQty)
	total := LineTotal(eff, offer.Price)
	var savings float64
	if bestAlternatePrice > 0 {
		if diff := LineTotal(eff, bestAlternatePrice) - total; diff > 0 {
			savings = diff
		}
	}
	return domain.CartLine{
		ID:           uuid.NewString(),
		UserID:       userID,
		ReferenceID:  referenceID,
		Offer:        offer,
		UserQty:      userQty,
		EffectiveQty: eff,
		LineTotal:    total,
		Substitution: substitution,
		Savings:      savings,
		UpdatedAt:    time.Now().UTC(),
	}
}

// GroupBySupplier splits cart lines per supplier and evaluates each
// group against the supplier's minimum. Minimums and names are plain
// lookups so the grouping stays pure; absent minimums mean no minimum.
// Groups come back ordered by supplier id.
func GroupBySupplier(lines []domain.CartLine, minimums map[string]float64, names map[string]string) []domain.SupplierGroup {
	byID := make(map[string]*domain.SupplierGroup)
	var order []string
	for _, l := range lines {
		g, ok := byID[l.Offer.SupplierID]
		if !ok {
			g = &domain.SupplierGroup{
				SupplierID:   l.Offer.SupplierID,
				SupplierName: names[l.Offer.SupplierID],
				Minimum:      minimums[l.Offer.SupplierID],
			}
			byID[l.Offer.SupplierID] = g
			order = append(order, l.Offer.SupplierID)
		}
		g.Lines = append(g.Lines, l)
		g.Subtotal += l.LineTotal
	}
	sort.Strings(order)

	groups := make([]domain.SupplierGroup, 0, len(byID))
	for _, id := range order {
		g := byID[id]
		g.Deficit = g.Minimum - g.Subtotal
		if g.Deficit < 0 {
			g.Deficit = 0
		}
		if g.Deficit == 0 {
			g.Status = domain.ReasonOK
		} else {
			g.Status = domain.ReasonSupplierMinNotMet
		}
		groups = append(groups, *g)
	}
	return groups
}

// AutoTopUp tries to clear a group's deficit by raising quantities on
// its existing lines, cheapest step first. It only acts when the deficit
// is within topUpFraction of the minimum; larger deficits keep the
// SUPPLIER_MIN_NOT_MET status untouched. Each line grows by at most
// maxSteps increments per call. The group is updated in place and the
// applied adjustments are recorded in g.TopUps.
func AutoTopUp(g *domain.SupplierGroup, topUpFraction float64, maxSteps int) {
	if g.Deficit <= 0 {
		g.Status = domain.ReasonOK
		return
	}
	if topUpFraction <= 0 {
		topUpFraction = DefaultTopUpFraction
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxTopUpSteps
	}
	threshold := g.Minimum * topUpFraction
	if g.Deficit > threshold {
		g.Status = domain.ReasonSupplierMinNotMet
		return
	}

	steps := make([]int, len(g.Lines))
	adjustments := make(map[int]*domain.TopUpAdjustment)

	for g.Deficit > 0 {
		best := -1
		bestCost := 0.0
		for i := range g.Lines {
			if steps[i] >= maxSteps {
				continue
			}
			cost := float64(StepQty(&g.Lines[i].Offer)) * g.Lines[i].Offer.Price
			if cost <= 0 {
				continue
			}
			if best == -1 || cost < bestCost {
				best = i
				bestCost = cost
			}
		}
		if best == -1 {
			break // every line exhausted its step budget
		}
		line := &g.Lines[best]
		inc := StepQty(&line.Offer)
		line.EffectiveQty += inc
		line.LineTotal += bestCost
		g.Subtotal += bestCost
		g.Deficit -= bestCost
		steps[best]++

		adj, ok := adjustments[best]
		if !ok {
			adj = &domain.TopUpAdjustment{LineID: line.ID}
			adjustments[best] = adj
		}
		adj.StepsAdded++
		adj.QtyAdded += inc
		adj.CostAdded += bestCost
	}

	// Materialize adjustments in line order.
	g.TopUps = nil
	for i := range g.Lines {
		if adj, ok := adjustments[i]; ok {
			g.TopUps = append(g.TopUps, *adj)
		}
	}

	if g.Deficit <= 0 {
		g.Deficit = 0
		g.Status = domain.ReasonOK
	} else {
		g.Status = domain.ReasonSupplierMinNotMet
	}
}
