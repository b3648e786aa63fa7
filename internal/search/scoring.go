package search

import (
	"github.com/zakupnik/backend/internal/domain"
	"github.com/zakupnik/backend/internal/guard"
)

// Score weights on the 0-100 scale. Name overlap carries most of the
// signal; category identity, pack closeness and the brand/origin policy
// bonus share the rest. A brand-critical search shifts ten points from
// the name to the policy component so an exact brand can reach the
// raised threshold.
const (
	weightNameNeutral = 70.0
	weightNameBrand   = 60.0
	weightCategory    = 15.0
	weightPack        = 15.0

	bonusBrandExact    = 10.0
	bonusBrandFamily   = 5.0
	bonusOriginCity    = 10.0
	bonusOriginRegion  = 8.0
	bonusOriginCountry = 5.0

	// penaltyUnknownPack is charged in rescue when the reference states a
	// pack but the candidate's could not be read.
	penaltyUnknownPack = 10.0
)

// scoreCandidate rates a guard-surviving candidate against the reference.
func (e *Engine) scoreCandidate(ref *guard.RefView, cand *guard.CandView, phase domain.Phase) float64 {
	item := ref.Item
	brandCritical := item.BrandCritical && item.BrandID != ""

	nameWeight := weightNameNeutral
	if brandCritical {
		nameWeight = weightNameBrand
	}
	score := nameWeight * e.nameOverlap(ref.Stems, cand.Stems)

	if item.SuperClass != "" && item.SuperClass == cand.Offer.SuperClass {
		score += weightCategory
	}
	score += weightPack * packCloseness(item.Pack, cand.Offer.Pack)
	score += e.policyBonus(ref, cand)

	if phase == domain.PhaseRescue && item.Pack.Known() && !cand.Offer.Pack.Known() {
		score -= penaltyUnknownPack
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// nameOverlap is the Jaccard overlap of the two stem sets with brand
// alias stems removed, so «Кетчуп Heinz» and «Кетчуп Махеевъ» compare
// as the same product word set.
func (e *Engine) nameOverlap(refStems, candStems map[string]bool) float64 {
	refN, candN, inter := 0, 0, 0
	for s := range refStems {
		if e.brands.IsBrandStem(s) {
			continue
		}
		refN++
		if candStems[s] {
			inter++
		}
	}
	for s := range candStems {
		if !e.brands.IsBrandStem(s) {
			candN++
		}
	}
	union := refN + candN - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// packCloseness is 1 for identical pack sizes and falls linearly to 0 at
// a full reference-pack of deviation. Unknown or differently-measured
// packs contribute nothing.
func packCloseness(ref, cand domain.PackInfo) float64 {
	if !ref.Known() || !cand.Known() || ref.Unit != cand.Unit {
		return 0
	}
	dev := (cand.BaseQuantity - ref.BaseQuantity) / ref.BaseQuantity
	if dev < 0 {
		dev = -dev
	}
	if dev >= 1 {
		return 0
	}
	return 1 - dev
}

// policyBonus rewards the active policy dimension only: exact brand over
// family for brand-critical searches, origin specificity for origin-led
// ones. With no policy in force the bonus is zero and brands stay
// entirely out of the score.
func (e *Engine) policyBonus(ref *guard.RefView, cand *guard.CandView) float64 {
	item := ref.Item
	if item.BrandCritical && item.BrandID != "" {
		switch {
		case cand.Offer.BrandID == item.BrandID:
			return bonusBrandExact
		case e.brands.SameFamily(item.BrandID, cand.Offer.BrandID):
			return bonusBrandFamily
		}
		return 0
	}
	if !item.Origin.IsZero() && e.tables.OriginEligible(item.SuperClass) {
		o, c := item.Origin, cand.Offer.Origin
		switch {
		case o.City != "" && o.City == c.City:
			return bonusOriginCity
		case o.Region != "" && o.Region == c.Region:
			return bonusOriginRegion
		case o.Country != "" && o.Country == c.Country:
			return bonusOriginCountry
		}
	}
	return 0
}

// threshold returns the minimum admissible score for the phase.
func (e *Engine) threshold(phase domain.Phase, brandCritical bool) float64 {
	if phase == domain.PhaseRescue {
		return e.opts.RescueThreshold
	}
	if brandCritical {
		return e.opts.BrandCriticalThreshold
	}
	return e.opts.StrictThreshold
}
