// Package guard implements the ordered rejection pipeline that keeps
// wrong products away from the scorer. Guards are conjunctive: the first
// failure rejects the candidate, and the accumulated results up to that
// point become rejection diagnostics.
package guard

import (
	"fmt"
	"strings"

	"github.com/zakupnik/backend/internal/brand"
	"github.com/zakupnik/backend/internal/domain"
	"github.com/zakupnik/backend/internal/textnorm"
)

// RefView is a reference prepared for matching: folded once, tokenized
// once, graded attributes extracted once. Built per search call and
// shared across all candidates.
type RefView struct {
	Item           *domain.ReferenceItem
	Folded         string
	Tokens         []string
	Stems          map[string]bool
	Attrs          Attributes
	DerivedAnchors []string // qualifier stems present in the reference

	// AllowFamilyFallback widens a critical brand requirement to the
	// brand's owning group. The orchestrator sets it when the pool holds
	// no exact brand match at all.
	AllowFamilyFallback bool
}

// CandView is a candidate prepared for matching.
type CandView struct {
	Offer  *domain.CandidateOffer
	Folded string
	Tokens []string
	Stems  map[string]bool
	Attrs  Attributes
}

// NewRefView prepares a reference. The tables are needed to derive
// anchors for wide categories.
func NewRefView(item *domain.ReferenceItem, tables *Tables) *RefView {
	folded := textnorm.Fold(item.Name)
	tokens := textnorm.TokenizeStemmed(item.Name)
	v := &RefView{
		Item:   item,
		Folded: folded,
		Tokens: tokens,
		Stems:  toSet(tokens),
		Attrs:  ExtractAttributes(folded),
	}
	if tables.wide[item.SuperClass] {
		for _, t := range tokens {
			if tables.qualifiers[t] {
				v.DerivedAnchors = append(v.DerivedAnchors, t)
			}
		}
	}
	return v
}

// NewCandView prepares a candidate offer.
func NewCandView(offer *domain.CandidateOffer) *CandView {
	folded := textnorm.Fold(offer.Name)
	tokens := textnorm.TokenizeStemmed(offer.Name)
	return &CandView{
		Offer:  offer,
		Folded: folded,
		Tokens: tokens,
		Stems:  toSet(tokens),
		Attrs:  ExtractAttributes(folded),
	}
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// Guard is one rejection rule. Evaluate returns a passing result or the
// rejection reason; it never errors.
type Guard interface {
	Name() string
	Evaluate(ref *RefView, cand *CandView, phase domain.Phase) domain.GuardResult
}

// Pipeline runs guards in their fixed order with short-circuit on the
// first failure.
type Pipeline struct {
	guards []Guard
}

// NewPipeline assembles the standard guard order. The order is part of
// the contract: cheap identity checks run before price and pack math,
// and the brand/origin policy runs last.
func NewPipeline(tables *Tables, brands *brand.Resolver) *Pipeline {
	return &Pipeline{guards: []Guard{
		coreGuard{},
		categoryGuard{tables: tables},
		attributeGuard{tables: tables},
		forbiddenGuard{tables: tables},
		anchorGuard{tables: tables},
		gradeGuard{},
		priceGuard{tables: tables},
		packGuard{tables: tables},
		policyGuard{tables: tables, brands: brands},
	}}
}

// Run evaluates the pipeline. It returns the results accumulated up to
// and including the first failure, and whether the candidate passed.
func (p *Pipeline) Run(ref *RefView, cand *CandView, phase domain.Phase) ([]domain.GuardResult, bool) {
	results := make([]domain.GuardResult, 0, len(p.guards))
	for _, g := range p.guards {
		res := g.Evaluate(ref, cand, phase)
		results = append(results, res)
		if !res.Pass {
			return results, false
		}
	}
	return results, true
}

func pass(name string) domain.GuardResult {
	return domain.GuardResult{Guard: name, Pass: true}
}

func fail(name string, reason domain.ReasonCode, detail string) domain.GuardResult {
	return domain.GuardResult{Guard: name, Pass: false, Reason: reason, Detail: detail}
}

// coreGuard requires the candidate to resolve to the same product core
// as the reference. Hard in both phases. An undetected candidate core is
// not a proven mismatch; the category and anchor guards cover that case.
type coreGuard struct{}

func (coreGuard) Name() string { return "core" }

func (g coreGuard) Evaluate(ref *RefView, cand *CandView, _ domain.Phase) domain.GuardResult {
	want := ref.Item.ProductCoreID
	got := cand.Offer.ProductCoreID
	if want == "" || got == "" {
		return pass(g.Name())
	}
	if got != want {
		return fail(g.Name(), domain.ReasonCoreMismatch, fmt.Sprintf("%q vs %q", got, want))
	}
	return pass(g.Name())
}

// categoryGuard rejects candidates whose category is mutually exclusive
// with the reference's. Hard in both phases.
type categoryGuard struct {
	tables *Tables
}

func (categoryGuard) Name() string { return "category" }

func (g categoryGuard) Evaluate(ref *RefView, cand *CandView, _ domain.Phase) domain.GuardResult {
	refSuper := ref.Item.SuperClass
	candSuper := cand.Offer.SuperClass
	if refSuper == "" || candSuper == "" || refSuper == candSuper {
		return pass(g.Name())
	}
	if g.tables.mutex[refSuper][candSuper] {
		return fail(g.Name(), domain.ReasonCategoryMismatch, candSuper)
	}
	return pass(g.Name())
}

// attributeGuard rejects opposed binary attributes: cleaned vs uncleaned,
// bone-in vs boneless. Silence on either side never conflicts.
type attributeGuard struct {
	tables *Tables
}

func (attributeGuard) Name() string { return "attributes" }

func (g attributeGuard) Evaluate(ref *RefView, cand *CandView, _ domain.Phase) domain.GuardResult {
	if conflicts := binaryConflicts(g.tables.attributePairs, ref.Folded, cand.Folded); len(conflicts) > 0 {
		return fail(g.Name(), domain.ReasonAttributeConflict, strings.Join(conflicts, ", "))
	}
	return pass(g.Name())
}

// forbiddenGuard rejects candidates carrying a word banned in the
// reference's category: imitations and derivative products.
type forbiddenGuard struct {
	tables *Tables
}

func (forbiddenGuard) Name() string { return "forbidden" }

func (g forbiddenGuard) Evaluate(ref *RefView, cand *CandView, _ domain.Phase) domain.GuardResult {
	banned := g.tables.forbidden[ref.Item.SuperClass]
	for stem := range banned {
		if cand.Stems[stem] {
			return fail(g.Name(), domain.ReasonForbiddenKeyword, stem)
		}
	}
	return pass(g.Name())
}

// anchorGuard requires category identity words. Narrow categories carry
// a static anchor list of which the candidate must have at least one;
// wide categories derive anchors from the reference's qualifier words,
// all of which the candidate must repeat.
type anchorGuard struct {
	tables *Tables
}

func (anchorGuard) Name() string { return "anchors" }

func (g anchorGuard) Evaluate(ref *RefView, cand *CandView, _ domain.Phase) domain.GuardResult {
	super := ref.Item.SuperClass
	if static := g.tables.anchors[super]; len(static) > 0 {
		for _, a := range static {
			if cand.Stems[a] {
				return pass(g.Name())
			}
		}
		return fail(g.Name(), domain.ReasonAnchorMissing, strings.Join(static, "|"))
	}
	for _, a := range ref.DerivedAnchors {
		if !cand.Stems[a] {
			return fail(g.Name(), domain.ReasonAnchorMissing, a)
		}
	}
	return pass(g.Name())
}

// gradeGuard pins graded attributes stated by the reference: fat
// percentage, grade, calibre, egg category.
type gradeGuard struct{}

func (gradeGuard) Name() string { return "grade" }

func (g gradeGuard) Evaluate(ref *RefView, cand *CandView, _ domain.Phase) domain.GuardResult {
	if conflicts := ref.Attrs.conflicts(cand.Attrs); len(conflicts) > 0 {
		return fail(g.Name(), domain.ReasonGradeMismatch, strings.Join(conflicts, ", "))
	}
	return pass(g.Name())
}

// priceGuard rejects implausibly cheap candidates: below the category's
// unit price floor, or more than cheapFactor cheaper than the price the
// buyer last paid. Matching premium markers on both sides waive the
// cheap-factor check.
type priceGuard struct {
	tables *Tables
}

func (priceGuard) Name() string { return "price" }

func (g priceGuard) Evaluate(ref *RefView, cand *CandView, _ domain.Phase) domain.GuardResult {
	offer := cand.Offer
	if offer.Pack.Known() {
		if floor := g.tables.minUnitPrice[ref.Item.SuperClass]; floor > 0 {
			if up := unitPrice(offer.Price, offer.Pack); up > 0 && up < floor {
				return fail(g.Name(), domain.ReasonPriceOutlier,
					fmt.Sprintf("%.2f ниже минимума %.2f за единицу", up, floor))
			}
		}
	}
	last := ref.Item.LastPrice
	if last > 0 && g.tables.cheapFactor > 0 {
		refP, candP := comparablePrices(ref, cand)
		if candP > 0 && candP*g.tables.cheapFactor < refP && !premiumBothSides(g.tables, ref, cand) {
			return fail(g.Name(), domain.ReasonPriceOutlier,
				fmt.Sprintf("дешевле прежней цены более чем в %.0f раз", g.tables.cheapFactor))
		}
	}
	return pass(g.Name())
}

// comparablePrices returns the reference's last price and the candidate
// price on a comparable basis: per base unit when both packs are known,
// raw otherwise.
func comparablePrices(ref *RefView, cand *CandView) (float64, float64) {
	if ref.Item.Pack.Known() && cand.Offer.Pack.Known() && ref.Item.Pack.Unit == cand.Offer.Pack.Unit {
		return unitPrice(ref.Item.LastPrice, ref.Item.Pack), unitPrice(cand.Offer.Price, cand.Offer.Pack)
	}
	return ref.Item.LastPrice, cand.Offer.Price
}

func premiumBothSides(t *Tables, ref *RefView, cand *CandView) bool {
	for m := range t.premiumMarkers {
		if ref.Stems[m] && cand.Stems[m] {
			return true
		}
	}
	return false
}

// unitPrice converts a pack price to rubles per kilogram, liter or piece.
func unitPrice(price float64, pack domain.PackInfo) float64 {
	if !pack.Known() {
		return 0
	}
	switch pack.Unit {
	case domain.UnitWeight, domain.UnitVolume:
		return price / (pack.BaseQuantity / 1000)
	case domain.UnitPiece:
		return price / pack.BaseQuantity
	}
	return 0
}

// packGuard enforces unit agreement and pack size tolerance. A unit
// conflict between two known units is hard in both phases. An unknown
// candidate pack rejects in the strict phase and converts to a scoring
// penalty in rescue. Tolerance widens from strict to rescue.
type packGuard struct {
	tables *Tables
}

func (packGuard) Name() string { return "pack" }

func (g packGuard) Evaluate(ref *RefView, cand *CandView, phase domain.Phase) domain.GuardResult {
	refPack := ref.Item.Pack
	candPack := cand.Offer.Pack

	refUnitKnown := refPack.Unit != domain.UnitUnknown && refPack.Unit != ""
	candUnitKnown := candPack.Unit != domain.UnitUnknown && candPack.Unit != ""

	if refUnitKnown && candUnitKnown && refPack.Unit != candPack.Unit {
		return fail(g.Name(), domain.ReasonUnitMismatch,
			fmt.Sprintf("%s vs %s", candPack.Unit, refPack.Unit))
	}
	if !candPack.Known() {
		if refUnitKnown && phase == domain.PhaseStrict {
			return fail(g.Name(), domain.ReasonPackUnknown, "фасовка кандидата не распознана")
		}
		return pass(g.Name())
	}
	if !refPack.Known() {
		return pass(g.Name())
	}
	tol := g.tables.PackTolerance(phase)
	ratio := (candPack.BaseQuantity - refPack.BaseQuantity) / refPack.BaseQuantity
	if ratio < 0 {
		ratio = -ratio
	}
	if ratio > tol {
		return fail(g.Name(), domain.ReasonPackOutOfTolerance,
			fmt.Sprintf("отклонение %.0f%% при допуске %.0f%%", ratio*100, tol*100))
	}
	return pass(g.Name())
}

// policyGuard applies the brand and origin policy. With a critical brand
// the candidate must carry that brand; the brand's family is admitted in
// rescue, or in either phase once the orchestrator has established that
// no exact match exists. Without a critical brand, a reference origin in
// an origin-eligible category becomes a filter: strict demands agreement
// at the most specific level both sides know, rescue settles for the
// same country.
type policyGuard struct {
	tables *Tables
	brands *brand.Resolver
}

func (policyGuard) Name() string { return "policy" }

func (g policyGuard) Evaluate(ref *RefView, cand *CandView, phase domain.Phase) domain.GuardResult {
	item := ref.Item
	if item.BrandCritical && item.BrandID != "" {
		candBrand := cand.Offer.BrandID
		if candBrand == item.BrandID {
			return pass(g.Name())
		}
		if (phase == domain.PhaseRescue || ref.AllowFamilyFallback) && g.brands.SameFamily(item.BrandID, candBrand) {
			return pass(g.Name())
		}
		return fail(g.Name(), domain.ReasonBrandMismatch, candBrand)
	}
	if !item.Origin.IsZero() && g.tables.OriginEligible(item.SuperClass) {
		if !originMatches(item.Origin, cand.Offer.Origin, phase) {
			return fail(g.Name(), domain.ReasonOriginMismatch, cand.Offer.Origin.MatchKey())
		}
	}
	return pass(g.Name())
}

// originMatches compares origins level by level. The comparison happens
// at the most specific level both sides state; rescue also accepts plain
// country agreement.
func originMatches(ref, cand domain.Origin, phase domain.Phase) bool {
	if cand.IsZero() {
		return false
	}
	switch {
	case ref.City != "" && cand.City != "":
		if ref.City == cand.City {
			return true
		}
	case ref.Region != "" && cand.Region != "":
		if ref.Region == cand.Region {
			return true
		}
	case ref.Country != "" && cand.Country != "":
		return ref.Country == cand.Country
	default:
		return false
	}
	// The most specific shared level disagreed.
	if phase == domain.PhaseRescue {
		return ref.Country != "" && ref.Country == cand.Country
	}
	return false
}
