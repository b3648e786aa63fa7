package domain

import (
	"context"
	"time"
)

// CatalogSource supplies the live candidate pool for one search call.
// Implementations must return only offers already filtered to the core;
// activity and price validation still happen inside the engine.
type CatalogSource interface {
	ActiveOffers(ctx context.Context, productCoreID string) ([]CandidateOffer, error)
	AllItems(ctx context.Context) ([]CandidateOffer, error)
}

// SupplierDirectory resolves supplier display names. Presentation only:
// never consulted by guards, scoring or ranking.
type SupplierDirectory interface {
	SupplierName(ctx context.Context, supplierID string) (string, error)
	SupplierMinimum(ctx context.Context, supplierID string) (float64, error)
}

// CartRepository persists cart lines keyed by (user_id, reference_id).
// Upsert is a compare-and-set: it fails with ErrCartConflict when the
// stored version differs from line.Version, and on success advances
// line.Version to the newly stored value.
type CartRepository interface {
	Upsert(ctx context.Context, line *CartLine) error
	Get(ctx context.Context, userID, referenceID string) (*CartLine, error)
	ListByUser(ctx context.Context, userID string) ([]CartLine, error)
	Clear(ctx context.Context, userID string) error
}

// CacheRepository is the decision cache used in front of the engine.
// Values are opaque byte payloads; serialization is the caller's concern.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
