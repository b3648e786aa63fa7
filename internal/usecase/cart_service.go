package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zakupnik/backend/internal/cart"
	"github.com/zakupnik/backend/internal/domain"
	"github.com/zakupnik/backend/internal/textnorm"
)

// casRetries bounds how many times an upsert is retried after losing the
// compare-and-set race before the conflict surfaces to the caller.
const casRetries = 3

// CartServiceConfig tunes the supplier-minimum handling.
type CartServiceConfig struct {
	TopUpFraction float64
	MaxTopUpSteps int
}

// CartService manages cart lines and the checkout-time supplier-minimum
// evaluation.
type CartService struct {
	repo      domain.CartRepository
	suppliers domain.SupplierDirectory
	log       zerolog.Logger

	topUpFraction float64
	maxTopUpSteps int
}

// NewCartService wires the cart use case.
func NewCartService(repo domain.CartRepository, suppliers domain.SupplierDirectory, cfg CartServiceConfig, log zerolog.Logger) *CartService {
	if cfg.TopUpFraction <= 0 {
		cfg.TopUpFraction = cart.DefaultTopUpFraction
	}
	if cfg.MaxTopUpSteps <= 0 {
		cfg.MaxTopUpSteps = cart.DefaultMaxTopUpSteps
	}
	return &CartService{
		repo:          repo,
		suppliers:     suppliers,
		log:           log,
		topUpFraction: cfg.TopUpFraction,
		maxTopUpSteps: cfg.MaxTopUpSteps,
	}
}

// AddLine snapshots an accepted decision into the user's cart. One line
// per (user, reference): an existing line is replaced under its stored
// version, with a bounded retry when a concurrent writer got there first.
func (s *CartService) AddLine(ctx context.Context, userID string, ref domain.ReferenceItem, decision *domain.MatchDecision, qty int) (*domain.CartLine, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidReference)
	}
	if decision == nil || !decision.OK() {
		return nil, fmt.Errorf("%w: decision carries no selected offer", domain.ErrInvalidOffer)
	}
	referenceID := ref.ID
	if referenceID == "" {
		referenceID = textnorm.Normalize(ref.Name)
	}

	var bestAlt float64
	if len(decision.Alternates) > 0 {
		bestAlt = decision.Alternates[0].Offer.Price
	}
	substitution := textnorm.Normalize(ref.Name) != textnorm.Normalize(decision.Offer.Name)

	line := cart.BuildLine(userID, referenceID, *decision.Offer, qty, substitution, bestAlt)
	for attempt := 0; attempt < casRetries; attempt++ {
		existing, err := s.repo.Get(ctx, userID, referenceID)
		switch {
		case err == nil:
			line.ID = existing.ID
			line.Version = existing.Version
		case errors.Is(err, domain.ErrLineNotFound):
			line.Version = 0
		default:
			return nil, err
		}
		err = s.repo.Upsert(ctx, &line)
		if err == nil {
			return &line, nil
		}
		if !errors.Is(err, domain.ErrCartConflict) {
			return nil, err
		}
	}
	return nil, domain.ErrCartConflict
}

// Cart returns the user's cart lines.
func (s *CartService) Cart(ctx context.Context, userID string) ([]domain.CartLine, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Clear removes every line from the user's cart.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.repo.Clear(ctx, userID)
}

// Checkout groups the cart per supplier, evaluates order minimums and
// applies the automatic top-up where the deficit is small enough.
// Applied top-ups are persisted before the groups are returned.
func (s *CartService) Checkout(ctx context.Context, userID string) ([]domain.SupplierGroup, error) {
	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	minimums := make(map[string]float64)
	names := make(map[string]string)
	for _, l := range lines {
		id := l.Offer.SupplierID
		if _, seen := names[id]; seen {
			continue
		}
		name, minimum, err := s.supplierInfo(ctx, id)
		if err != nil {
			return nil, err
		}
		names[id] = name
		minimums[id] = minimum
	}

	groups := cart.GroupBySupplier(lines, minimums, names)
	for i := range groups {
		g := &groups[i]
		if g.Deficit <= 0 {
			continue
		}
		cart.AutoTopUp(g, s.topUpFraction, s.maxTopUpSteps)
		if len(g.TopUps) == 0 {
			continue
		}
		s.log.Info().
			Str("user", userID).
			Str("supplier", g.SupplierID).
			Int("adjustments", len(g.TopUps)).
			Float64("subtotal", g.Subtotal).
			Msg("supplier minimum topped up")
		if err := s.persistTopUps(ctx, g); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// supplierInfo resolves directory data for one supplier. An unknown
// supplier is not fatal: it simply has no minimum to enforce.
func (s *CartService) supplierInfo(ctx context.Context, supplierID string) (string, float64, error) {
	name, err := s.suppliers.SupplierName(ctx, supplierID)
	if errors.Is(err, domain.ErrSupplierUnknown) {
		s.log.Warn().Str("supplier", supplierID).Msg("supplier missing from directory")
		return "", 0, nil
	}
	if err != nil {
		return "", 0, err
	}
	minimum, err := s.suppliers.SupplierMinimum(ctx, supplierID)
	if err != nil && !errors.Is(err, domain.ErrSupplierUnknown) {
		return "", 0, err
	}
	return name, minimum, nil
}

// persistTopUps writes the quantity raises back under each line's stored
// version. A lost race aborts the checkout; the caller re-evaluates.
func (s *CartService) persistTopUps(ctx context.Context, g *domain.SupplierGroup) error {
	adjusted := make(map[string]bool, len(g.TopUps))
	for _, a := range g.TopUps {
		adjusted[a.LineID] = true
	}
	for i := range g.Lines {
		if !adjusted[g.Lines[i].ID] {
			continue
		}
		l := g.Lines[i]
		l.UpdatedAt = time.Now().UTC()
		if err := s.repo.Upsert(ctx, &l); err != nil {
			return fmt.Errorf("persist top-up for line %s: %w", l.ID, err)
		}
		g.Lines[i].Version = l.Version
		g.Lines[i].UpdatedAt = l.UpdatedAt
	}
	return nil
}
