package guard

import (
	"fmt"

	"github.com/zakupnik/backend/internal/domain"
	"github.com/zakupnik/backend/internal/textnorm"
)

// Config is the serializable guard policy table.
type Config struct {
	// Mutex lists categories whose items must never substitute for each
	// other, keyed by the reference category.
	Mutex map[string][]string `yaml:"mutex,omitempty"`
	// Forbidden lists words that disqualify a candidate within a
	// category (derivative and imitation products).
	Forbidden map[string][]string `yaml:"forbidden,omitempty"`
	// Anchors lists words one of which a candidate must carry in narrow
	// categories.
	Anchors map[string][]string `yaml:"anchors,omitempty"`
	// Wide categories derive anchors from the reference name instead.
	Wide []string `yaml:"wide,omitempty"`
	// Qualifiers are the cut/form words eligible as derived anchors.
	Qualifiers []string `yaml:"qualifiers,omitempty"`
	// AttributePairs are mutually exclusive binary attributes.
	AttributePairs []AttributePair `yaml:"attribute_pairs,omitempty"`
	// MinUnitPrice is the lowest plausible price per kilogram, liter or
	// piece for a category. Zero disables the check.
	MinUnitPrice map[string]float64 `yaml:"min_unit_price,omitempty"`
	// PremiumMarkers waive the cheap-factor check when present on both
	// sides.
	PremiumMarkers []string `yaml:"premium_markers,omitempty"`
	// CheapFactor rejects candidates cheaper than the reference's last
	// price by more than this factor. Zero disables.
	CheapFactor float64 `yaml:"cheap_factor,omitempty"`
	// OriginEligible lists categories where a reference origin becomes
	// a filter.
	OriginEligible []string `yaml:"origin_eligible,omitempty"`
	// Pack tolerances per phase, as a fraction of the reference size.
	PackToleranceStrict float64 `yaml:"pack_tolerance_strict,omitempty"`
	PackToleranceRescue float64 `yaml:"pack_tolerance_rescue,omitempty"`
}

// Tables is the compiled guard policy: word lists stemmed, sets indexed.
type Tables struct {
	mutex          map[string]map[string]bool
	forbidden      map[string]map[string]bool
	anchors        map[string][]string
	wide           map[string]bool
	qualifiers     map[string]bool
	attributePairs []AttributePair
	minUnitPrice   map[string]float64
	premiumMarkers map[string]bool
	cheapFactor    float64
	originEligible map[string]bool
	tolStrict      float64
	tolRescue      float64
}

// NewTables compiles a guard policy. Word lists run through the same
// fold/stem pipeline as product names.
func NewTables(cfg Config) (*Tables, error) {
	t := &Tables{
		mutex:          make(map[string]map[string]bool),
		forbidden:      make(map[string]map[string]bool),
		anchors:        make(map[string][]string),
		wide:           make(map[string]bool),
		qualifiers:     make(map[string]bool),
		attributePairs: make([]AttributePair, 0, len(cfg.AttributePairs)),
		minUnitPrice:   make(map[string]float64),
		premiumMarkers: make(map[string]bool),
		cheapFactor:    cfg.CheapFactor,
		originEligible: make(map[string]bool),
		tolStrict:      cfg.PackToleranceStrict,
		tolRescue:      cfg.PackToleranceRescue,
	}
	if t.tolStrict == 0 {
		t.tolStrict = 0.20
	}
	if t.tolRescue == 0 {
		t.tolRescue = 0.50
	}
	if t.tolRescue < t.tolStrict {
		return nil, fmt.Errorf("rescue pack tolerance %v below strict %v", t.tolRescue, t.tolStrict)
	}
	for super, others := range cfg.Mutex {
		set := make(map[string]bool, len(others))
		for _, o := range others {
			set[o] = true
		}
		t.mutex[super] = set
	}
	for super, words := range cfg.Forbidden {
		t.forbidden[super] = stemSet(words)
	}
	for super, words := range cfg.Anchors {
		t.anchors[super] = stemList(words)
	}
	for _, w := range cfg.Wide {
		t.wide[w] = true
	}
	for s := range stemSet(cfg.Qualifiers) {
		t.qualifiers[s] = true
	}
	for _, p := range cfg.AttributePairs {
		if p.Positive == "" || p.Negative == "" {
			return nil, fmt.Errorf("attribute pair %q/%q: both forms required", p.Positive, p.Negative)
		}
		t.attributePairs = append(t.attributePairs, AttributePair{
			Positive: textnorm.Fold(p.Positive),
			Negative: textnorm.Fold(p.Negative),
		})
	}
	for super, price := range cfg.MinUnitPrice {
		if price < 0 {
			return nil, fmt.Errorf("min unit price for %q is negative", super)
		}
		t.minUnitPrice[super] = price
	}
	for s := range stemSet(cfg.PremiumMarkers) {
		t.premiumMarkers[s] = true
	}
	for _, s := range cfg.OriginEligible {
		t.originEligible[s] = true
	}
	return t, nil
}

// PackTolerance returns the allowed relative pack deviation for a phase.
func (t *Tables) PackTolerance(phase domain.Phase) float64 {
	if phase == domain.PhaseRescue {
		return t.tolRescue
	}
	return t.tolStrict
}

// OriginEligible reports whether a reference origin acts as a filter in
// the category.
func (t *Tables) OriginEligible(superClass string) bool {
	return t.originEligible[superClass]
}

func stemSet(words []string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range words {
		for _, s := range textnorm.TokenizeStemmed(w) {
			set[s] = true
		}
	}
	return set
}

func stemList(words []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, w := range words {
		for _, s := range textnorm.TokenizeStemmed(w) {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// DefaultTables compiles the built-in policy.
func DefaultTables() *Tables {
	t, err := NewTables(defaultConfig)
	if err != nil {
		panic(fmt.Sprintf("guard: built-in tables are invalid: %v", err))
	}
	return t
}
