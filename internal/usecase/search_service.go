// Package usecase composes the engine with its collaborators: catalog,
// decision cache, cart store and the reloadable rule snapshot. All
// logging of search activity happens here; the engine below stays pure.
package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zakupnik/backend/internal/classify"
	"github.com/zakupnik/backend/internal/domain"
	"github.com/zakupnik/backend/internal/search"
	"github.com/zakupnik/backend/internal/textnorm"
)

// SearchRequest is one best-price lookup as it arrives from the caller.
type SearchRequest struct {
	ReferenceID   string  `json:"referenceId,omitempty"`
	Name          string  `json:"name"`
	Quantity      int     `json:"quantity"`
	BrandCritical bool    `json:"brandCritical,omitempty"`
	LastPrice     float64 `json:"lastPrice,omitempty"`
}

// SearchServiceConfig tunes the service-level behavior around the engine.
type SearchServiceConfig struct {
	CacheTTL time.Duration
}

// SearchService answers best-price lookups: decision cache in front,
// catalog fetch by product core, engine call, diagnostics logging.
type SearchService struct {
	catalog  domain.CatalogSource
	cache    domain.CacheRepository
	rules    *RuleProvider
	log      zerolog.Logger
	cacheTTL time.Duration
}

// NewSearchService wires the search use case.
func NewSearchService(
	catalog domain.CatalogSource,
	cache domain.CacheRepository,
	rules *RuleProvider,
	cfg SearchServiceConfig,
	log zerolog.Logger,
) *SearchService {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return &SearchService{
		catalog:  catalog,
		cache:    cache,
		rules:    rules,
		log:      log,
		cacheTTL: ttl,
	}
}

// FindBestPrice runs one search call end to end. The returned error only
// reports infrastructure failures; every matching outcome, including
// failures to match, is a decision.
func (s *SearchService) FindBestPrice(ctx context.Context, req *SearchRequest) (*domain.MatchDecision, error) {
	if req == nil || strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidReference)
	}
	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}

	key := cacheKey(req.Name, qty, req.BrandCritical)
	if cached := s.cachedDecision(ctx, key); cached != nil {
		s.log.Debug().Str("key", key).Msg("decision served from cache")
		return cached, nil
	}

	rules := s.rules.Current()
	ref := domain.ReferenceItem{
		ID:            req.ReferenceID,
		Name:          req.Name,
		BrandCritical: req.BrandCritical,
		LastPrice:     req.LastPrice,
		Pack:          domain.PackInfo{Unit: domain.UnitUnknown},
	}

	// Classify up front: the catalog is queried by product core, and the
	// engine skips enrichment for fields already filled.
	ref.SuperClass, _ = rules.Classifier.Classify(ref.Name)
	core, conf := rules.Classifier.ClassifyCore(ref.Name, ref.SuperClass)
	if conf >= classify.MinCoreConfidence {
		ref.ProductCoreID = core
	}

	var offers []domain.CandidateOffer
	if ref.ProductCoreID != "" {
		var err error
		offers, err = s.catalog.ActiveOffers(ctx, ref.ProductCoreID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
		}
	}

	decision := rules.Engine.Search(ctx, search.Request{Reference: ref, Quantity: qty}, offers)
	s.logDecision(decision)

	if decision.OK() {
		s.storeDecision(ctx, key, decision)
	}
	return decision, nil
}

// cacheKey normalizes the request into a stable decision-cache key.
func cacheKey(name string, qty int, brandCritical bool) string {
	return fmt.Sprintf("decision:%s:q%d:b%t", textnorm.Normalize(name), qty, brandCritical)
}

func (s *SearchService) cachedDecision(ctx context.Context, key string) *domain.MatchDecision {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	var d domain.MatchDecision
	if err := json.Unmarshal(data, &d); err != nil {
		// Poisoned entry; drop it and fall through to a fresh search.
		_ = s.cache.Delete(ctx, key)
		return nil
	}
	return &d
}

func (s *SearchService) storeDecision(ctx context.Context, key string, d *domain.MatchDecision) {
	data, err := json.Marshal(d)
	if err != nil {
		s.log.Warn().Err(err).Msg("decision not cacheable")
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("decision cache write failed")
	}
}

// logDecision emits the per-call diagnostics record for the
// search-quality dashboard.
func (s *SearchService) logDecision(d *domain.MatchDecision) {
	diag := d.Diagnostics
	if diag == nil {
		return
	}
	evt := s.log.Info().
		Str("trace_id", diag.TraceID).
		Str("reference", diag.ReferenceName).
		Str("core", diag.ProductCoreID).
		Str("phase", string(diag.Phase)).
		Str("reason", string(d.Reason)).
		Float64("score", d.Score).
		Dur("elapsed", diag.Elapsed)
	for _, sc := range diag.StageCounts {
		evt = evt.Int(sc.Stage, sc.Count)
	}
	if diag.SelectedOffer != "" {
		evt = evt.Str("offer", diag.SelectedOffer)
	}
	if diag.Error != "" {
		evt = evt.Str("error", diag.Error)
	}
	evt.Msg("search completed")

	if len(diag.SampledRejects) > 0 {
		s.log.Debug().
			Str("trace_id", diag.TraceID).
			Interface("rejects", diag.SampledRejects).
			Msg("sampled guard rejections")
	}
}
