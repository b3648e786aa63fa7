// Package search runs the two-phase best-price search: a strict pass
// over the guard pipeline, a rescue pass with widened pack tolerance and
// brand-family concessions, then scoring, ranking and selection. The
// engine is pure: it holds immutable rule snapshots, never logs, never
// touches storage, and explains every outcome through a typed decision.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zakupnik/backend/internal/brand"
	"github.com/zakupnik/backend/internal/cart"
	"github.com/zakupnik/backend/internal/classify"
	"github.com/zakupnik/backend/internal/domain"
	"github.com/zakupnik/backend/internal/guard"
	"github.com/zakupnik/backend/internal/packsize"
	"github.com/zakupnik/backend/internal/textnorm"
)

// Options tunes the engine thresholds. Zero values fall back to defaults
// so literal construction in tests stays short.
type Options struct {
	StrictThreshold        float64
	BrandCriticalThreshold float64
	RescueThreshold        float64
	TopAlternates          int
}

// DefaultOptions returns the production thresholds.
func DefaultOptions() Options {
	return Options{
		StrictThreshold:        70,
		BrandCriticalThreshold: 90,
		RescueThreshold:        60,
		TopAlternates:          3,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.StrictThreshold <= 0 {
		o.StrictThreshold = d.StrictThreshold
	}
	if o.BrandCriticalThreshold <= 0 {
		o.BrandCriticalThreshold = d.BrandCriticalThreshold
	}
	if o.RescueThreshold <= 0 {
		o.RescueThreshold = d.RescueThreshold
	}
	if o.TopAlternates <= 0 {
		o.TopAlternates = d.TopAlternates
	}
	return o
}

// Request is one search call: what to buy and how many packs of it.
type Request struct {
	Reference domain.ReferenceItem
	Quantity  int
}

// Engine selects the cheapest valid substitute for a reference item.
// Safe for concurrent use; all state is immutable after construction.
type Engine struct {
	classifier *classify.Classifier
	brands     *brand.Resolver
	tables     *guard.Tables
	pipeline   *guard.Pipeline
	opts       Options
}

// NewEngine assembles an engine over compiled rule snapshots.
func NewEngine(classifier *classify.Classifier, brands *brand.Resolver, tables *guard.Tables, opts Options) *Engine {
	return &Engine{
		classifier: classifier,
		brands:     brands,
		tables:     tables,
		pipeline:   guard.NewPipeline(tables, brands),
		opts:       opts.withDefaults(),
	}
}

// maxSampledRejects caps the per-call rejection samples kept for the
// diagnostics record.
const maxSampledRejects = 10

// phaseStats aggregates one phase's outcomes for reason aggregation and
// diagnostics.
type phaseStats struct {
	passedGuards   int
	underThreshold int
	rejections     map[domain.ReasonCode]int
	samples        []domain.GuardResult
}

// Search runs the full state machine for one reference against a
// candidate pool and always returns a decision: either a selected offer
// with economics and alternates, or a terminal reason explaining why
// nothing was selected. Panics on malformed data are converted into an
// ERROR decision at this boundary.
func (e *Engine) Search(ctx context.Context, req Request, offers []domain.CandidateOffer) (decision *domain.MatchDecision) {
	start := time.Now()
	diag := &domain.SearchDiagnostics{
		TraceID:       uuid.NewString(),
		ReferenceName: req.Reference.Name,
	}
	defer func() {
		if r := recover(); r != nil {
			diag.Reason = domain.ReasonError
			diag.Error = fmt.Sprint(r)
			decision = &domain.MatchDecision{
				Reason:      domain.ReasonError,
				Message:     domain.ReasonError.Message(),
				Diagnostics: diag,
			}
		}
		diag.Elapsed = time.Since(start)
	}()

	if strings.TrimSpace(req.Reference.Name) == "" {
		return terminal(domain.ReasonInsufficientData, "", diag)
	}

	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}

	ref := req.Reference
	e.enrichReference(&ref)
	diag.SuperClass = ref.SuperClass
	diag.ProductCoreID = ref.ProductCoreID
	if ref.ProductCoreID == "" {
		return terminal(domain.ReasonCoreNotDetected, "", diag)
	}

	diag.StageCounts = append(diag.StageCounts, domain.StageCount{Stage: "received", Count: len(offers)})
	views := make([]*guard.CandView, 0, len(offers))
	for i := range offers {
		o := offers[i]
		if err := o.Validate(); err != nil {
			continue
		}
		e.enrichCandidate(&o)
		views = append(views, guard.NewCandView(&o))
	}
	diag.StageCounts = append(diag.StageCounts, domain.StageCount{Stage: "validated", Count: len(views)})
	if len(views) == 0 {
		return terminal(domain.ReasonCoreNoCandidates, "", diag)
	}

	refView := guard.NewRefView(&ref, e.tables)
	brandCritical := ref.BrandCritical && ref.BrandID != ""
	if brandCritical {
		exact, family := 0, 0
		for _, v := range views {
			switch {
			case v.Offer.BrandID == ref.BrandID:
				exact++
			case e.brands.SameFamily(ref.BrandID, v.Offer.BrandID):
				family++
			}
		}
		if exact == 0 {
			if family == 0 {
				return terminal(domain.ReasonBrandRequiredNotFound, "", diag)
			}
			refView.AllowFamilyFallback = true
		}
	}

	var last *phaseStats
	for _, phase := range []domain.Phase{domain.PhaseStrict, domain.PhaseRescue} {
		if err := ctx.Err(); err != nil {
			diag.Error = err.Error()
			return terminal(domain.ReasonError, "", diag)
		}
		ranked, stats := e.runPhase(refView, views, phase, qty)
		tag := strings.ToLower(string(phase))
		diag.Phase = phase
		diag.StageCounts = append(diag.StageCounts,
			domain.StageCount{Stage: tag + "_guards_passed", Count: stats.passedGuards},
			domain.StageCount{Stage: tag + "_over_threshold", Count: len(ranked)},
		)
		diag.SampledRejects = stats.samples
		if len(ranked) > 0 {
			return e.decide(ranked, phase, qty, refView, diag)
		}
		last = stats
	}
	return terminal(aggregateReason(last), "", diag)
}

// runPhase evaluates every candidate through the guard pipeline and the
// scorer for one phase.
func (e *Engine) runPhase(ref *guard.RefView, views []*guard.CandView, phase domain.Phase, qty int) ([]rankedCandidate, *phaseStats) {
	stats := &phaseStats{rejections: make(map[domain.ReasonCode]int)}
	threshold := e.threshold(phase, ref.Item.BrandCritical && ref.Item.BrandID != "")

	var ranked []rankedCandidate
	for _, v := range views {
		results, ok := e.pipeline.Run(ref, v, phase)
		if !ok {
			rej := results[len(results)-1]
			stats.rejections[rej.Reason]++
			if len(stats.samples) < maxSampledRejects {
				rej.Detail = strings.TrimSuffix(v.Offer.ID+": "+rej.Detail, ": ")
				stats.samples = append(stats.samples, rej)
			}
			continue
		}
		stats.passedGuards++
		score := e.scoreCandidate(ref, v, phase)
		if score < threshold {
			stats.underThreshold++
			continue
		}
		eff := cart.EffectiveQty(qty, v.Offer.MinOrderQty)
		ranked = append(ranked, rankedCandidate{
			view:         v,
			score:        score,
			effectiveQty: eff,
			lineTotal:    cart.LineTotal(eff, v.Offer.Price),
		})
	}
	rank(ranked)
	return ranked, stats
}

// decide builds the OK decision from ranked survivors.
func (e *Engine) decide(ranked []rankedCandidate, phase domain.Phase, qty int, ref *guard.RefView, diag *domain.SearchDiagnostics) *domain.MatchDecision {
	best := ranked[0]
	offer := *best.view.Offer

	var alts []domain.Alternate
	for i := 1; i < len(ranked) && len(alts) < e.opts.TopAlternates; i++ {
		alts = append(alts, domain.Alternate{
			Offer:     *ranked[i].view.Offer,
			Score:     ranked[i].score,
			TotalCost: ranked[i].lineTotal,
		})
	}

	diag.Reason = domain.ReasonOK
	diag.SelectedOffer = offer.ID
	diag.FinalScore = best.score
	return &domain.MatchDecision{
		Offer:   &offer,
		Reason:  domain.ReasonOK,
		Message: domain.ReasonOK.Message(),
		Score:   best.score,
		Phase:   phase,
		Economics: domain.Economics{
			EffectiveQty: best.effectiveQty,
			LineTotal:    best.lineTotal,
			PacksNeeded:  packsNeeded(ref.Item, &offer, qty, best.effectiveQty),
		},
		Alternates:  alts,
		Diagnostics: diag,
	}
}

// packsNeeded answers how many offered packs cover the requested amount
// of the reference pack. Without comparable pack data it equals the
// effective quantity.
func packsNeeded(ref *domain.ReferenceItem, offer *domain.CandidateOffer, qty, effectiveQty int) int {
	if ref.Pack.Known() && offer.Pack.Known() {
		required := ref.Pack
		required.BaseQuantity *= float64(qty)
		if n, err := packsize.PacksNeeded(required, offer.Pack); err == nil {
			return n
		}
	}
	return effectiveQty
}

// enrichReference derives the classification, pack, brand and origin
// fields the caller left empty. Works on a copy; caller data is never
// mutated.
func (e *Engine) enrichReference(ref *domain.ReferenceItem) {
	if ref.SuperClass == "" {
		ref.SuperClass, _ = e.classifier.Classify(ref.Name)
	}
	if ref.ProductCoreID == "" {
		core, conf := e.classifier.ClassifyCore(ref.Name, ref.SuperClass)
		if conf >= classify.MinCoreConfidence {
			ref.ProductCoreID = core
		}
	}
	if ref.SuperClass == "" && ref.ProductCoreID != "" {
		if super, ok := e.classifier.CoreSuperClass(ref.ProductCoreID); ok {
			ref.SuperClass = super
		}
	}
	if !ref.Pack.Known() {
		if p := packsize.Parse(ref.Name); p.Known() {
			ref.Pack = p
		} else {
			ref.Pack = packsize.DefaultPack(ref.SuperClass)
		}
	}
	if ref.BrandID == "" {
		ref.BrandID, _ = e.brands.DetectBrand(ref.Name)
	}
	if ref.Origin.IsZero() {
		ref.Origin = e.brands.DetectOrigin(ref.Name)
	}
	if len(ref.NormTokens) == 0 {
		ref.NormTokens = textnorm.TokenizeStemmed(ref.Name)
	}
}

// enrichCandidate mirrors reference enrichment for an offer.
func (e *Engine) enrichCandidate(o *domain.CandidateOffer) {
	if o.SuperClass == "" {
		o.SuperClass, _ = e.classifier.Classify(o.Name)
	}
	if o.ProductCoreID == "" {
		core, conf := e.classifier.ClassifyCore(o.Name, o.SuperClass)
		if conf >= classify.MinCoreConfidence {
			o.ProductCoreID = core
		}
	}
	if !o.Pack.Known() {
		if p := packsize.Parse(o.Name); p.Known() {
			o.Pack = p
		}
	}
	if o.BrandID == "" {
		o.BrandID, _ = e.brands.DetectBrand(o.Name)
	}
	if o.Origin.IsZero() {
		o.Origin = e.brands.DetectOrigin(o.Name)
	}
}

// terminal builds a no-selection decision. detail lands in the message
// after the canned text when present.
func terminal(reason domain.ReasonCode, detail string, diag *domain.SearchDiagnostics) *domain.MatchDecision {
	msg := reason.Message()
	if detail != "" {
		msg = msg + ": " + detail
	}
	diag.Reason = reason
	return &domain.MatchDecision{Reason: reason, Message: msg, Diagnostics: diag}
}

// aggregateReason condenses a failed final phase into the single reason
// surfaced to the buyer. Survivors below threshold dominate; unanimous
// guard verdicts map to their dedicated codes; anything mixed stays the
// generic guard rejection.
func aggregateReason(stats *phaseStats) domain.ReasonCode {
	if stats == nil {
		return domain.ReasonRejectedByGuards
	}
	if stats.underThreshold > 0 {
		return domain.ReasonNoCandidatesOverThreshold
	}
	total := 0
	for _, n := range stats.rejections {
		total += n
	}
	if total == 0 {
		return domain.ReasonCoreNoCandidates
	}
	all := func(codes ...domain.ReasonCode) bool {
		n := 0
		for _, c := range codes {
			n += stats.rejections[c]
		}
		return n == total
	}
	switch {
	case all(domain.ReasonCoreMismatch):
		return domain.ReasonCoreNoCandidates
	case all(domain.ReasonBrandMismatch):
		return domain.ReasonBrandRequiredNotFound
	case all(domain.ReasonOriginMismatch):
		return domain.ReasonOriginRequiredNotFound
	case all(domain.ReasonUnitMismatch):
		return domain.ReasonUnitMismatchAllRejected
	case all(domain.ReasonUnitMismatch, domain.ReasonPackOutOfTolerance, domain.ReasonPackUnknown):
		return domain.ReasonPackOutlierAllRejected
	}
	return domain.ReasonRejectedByGuards
}
