package domain

import "fmt"

// UnitType identifies how an offer's pack size is measured.
type UnitType string

const (
	UnitWeight  UnitType = "WEIGHT" // base quantity in grams
	UnitVolume  UnitType = "VOLUME" // base quantity in milliliters
	UnitPiece   UnitType = "PIECE"  // base quantity in pieces
	UnitUnknown UnitType = "UNKNOWN"
)

// PackInfo describes the pack size extracted from a product name.
type PackInfo struct {
	Unit         UnitType `json:"unit"`
	BaseQuantity float64  `json:"baseQuantity"`
	Confidence   float64  `json:"confidence"` // 0..1
}

// Known reports whether the pack carries a usable unit and quantity.
func (p PackInfo) Known() bool {
	return p.Unit != UnitUnknown && p.Unit != "" && p.BaseQuantity > 0
}

// Origin describes a geographic origin detected in a product name.
// Fields are filled from the most specific term found; a city implies
// its region and country when the geography table knows them.
type Origin struct {
	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
}

// IsZero reports whether no origin was detected.
func (o Origin) IsZero() bool {
	return o.Country == "" && o.Region == "" && o.City == ""
}

// MatchKey returns the effective origin key by specificity:
// city over region over country.
func (o Origin) MatchKey() string {
	switch {
	case o.City != "":
		return o.City
	case o.Region != "":
		return o.Region
	default:
		return o.Country
	}
}

// ReferenceItem is the product the caller wants to buy: the basis of
// comparison for one search call. Immutable once constructed.
type ReferenceItem struct {
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"name"`
	NormTokens    []string `json:"normTokens,omitempty"`
	SuperClass    string   `json:"superClass,omitempty"`
	ProductCoreID string   `json:"productCoreId,omitempty"`
	Pack          PackInfo `json:"pack"`
	BrandID       string   `json:"brandId,omitempty"`
	Origin        Origin   `json:"origin,omitempty"`
	BrandCritical bool     `json:"brandCritical"`
	LastPrice     float64  `json:"lastPrice,omitempty"` // last purchased price, 0 when unknown
}

// NewReferenceItem builds a validated reference item from a saved favorite
// or catalog anchor. Classification, pack and brand fields may be left empty;
// the search orchestrator derives them from the name.
func NewReferenceItem(id, name string) (*ReferenceItem, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: reference name is empty", ErrInvalidReference)
	}
	return &ReferenceItem{
		ID:   id,
		Name: name,
		Pack: PackInfo{Unit: UnitUnknown},
	}, nil
}

// CandidateOffer is a concrete supplier line item competing to fulfil
// the reference. Sourced live from the catalog; volatile between calls.
type CandidateOffer struct {
	ID            string   `json:"id"`
	SupplierID    string   `json:"supplierId"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	Active        bool     `json:"active"`
	Pack          PackInfo `json:"pack"`
	BrandID       string   `json:"brandId,omitempty"`
	Origin        Origin   `json:"origin,omitempty"`
	MinOrderQty   int      `json:"minOrderQty"`
	StepQty       int      `json:"stepQty"`
	ProductCoreID string   `json:"productCoreId,omitempty"`
	SuperClass    string   `json:"superClass,omitempty"`
}

// Validate reports whether the offer may enter scoring at all.
// Inactive offers and non-positive prices never reach the guard pipeline.
func (c *CandidateOffer) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: offer id is empty", ErrInvalidOffer)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: offer %s has no name", ErrInvalidOffer, c.ID)
	}
	if c.Price <= 0 {
		return fmt.Errorf("%w: offer %s has non-positive price %.2f", ErrInvalidOffer, c.ID, c.Price)
	}
	if !c.Active {
		return fmt.Errorf("%w: offer %s is inactive", ErrInvalidOffer, c.ID)
	}
	return nil
}
