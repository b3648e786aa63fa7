package domain

import "errors"

var (
	// ErrInvalidReference is returned when a reference item fails constructor validation
	ErrInvalidReference = errors.New("invalid reference item")

	// ErrInvalidOffer is returned when a candidate offer fails validation
	ErrInvalidOffer = errors.New("invalid candidate offer")

	// ErrUnitMismatch is returned when pack math is attempted across unit types
	ErrUnitMismatch = errors.New("unit types do not match")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCatalogUnavailable is returned when the offer catalog cannot be queried
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrCartConflict is returned when a compare-and-set cart update loses the race
	ErrCartConflict = errors.New("cart line was modified concurrently")

	// ErrLineNotFound is returned when a cart line does not exist
	ErrLineNotFound = errors.New("cart line not found")

	// ErrSupplierUnknown is returned when the directory has no name for a supplier id
	ErrSupplierUnknown = errors.New("unknown supplier")

	// ErrRateLimited is returned when a caller exceeds the per-IP request budget
	ErrRateLimited = errors.New("rate limit exceeded")
)
