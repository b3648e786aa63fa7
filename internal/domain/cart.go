package domain

import "time"

// CartLine is one position in a user's cart: the winning offer snapshot
// plus the quantity math for it. Keyed by (UserID, ReferenceID); Version
// backs the compare-and-set upsert.
type CartLine struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	ReferenceID  string         `json:"referenceId"`
	Offer        CandidateOffer `json:"offer"`
	UserQty      int            `json:"userQty"`
	EffectiveQty int            `json:"effectiveQty"`
	LineTotal    float64        `json:"lineTotal"`
	Substitution bool           `json:"substitution"`
	Savings      float64        `json:"savings"`
	Version      int64          `json:"version"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// TopUpAdjustment records one automatic quantity increase applied while
// clearing a supplier minimum deficit.
type TopUpAdjustment struct {
	LineID     string  `json:"lineId"`
	StepsAdded int     `json:"stepsAdded"`
	QtyAdded   int     `json:"qtyAdded"`
	CostAdded  float64 `json:"costAdded"`
}

// SupplierGroup aggregates a user's cart lines for one supplier and the
// minimum-order evaluation over them.
type SupplierGroup struct {
	SupplierID   string            `json:"supplierId"`
	SupplierName string            `json:"supplierName,omitempty"`
	Lines        []CartLine        `json:"lines"`
	Subtotal     float64           `json:"subtotal"`
	Minimum      float64           `json:"minimum"`
	Deficit      float64           `json:"deficit"`
	Status       ReasonCode        `json:"status"`
	TopUps       []TopUpAdjustment `json:"topUps,omitempty"`
}
