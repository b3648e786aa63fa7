// Package brand detects brands and geographic origins in Russian product
// names using an alias table and a geography table. Both tables are data
// and can be replaced from YAML; the compiled Resolver is immutable and
// safe for concurrent use.
package brand

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zakupnik/backend/internal/textnorm"
)

// BrandEntry declares one brand and the spellings it hides behind.
type BrandEntry struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Family  string   `yaml:"family,omitempty"` // owning group; empty means standalone
	Aliases []string `yaml:"aliases"`
}

// GeoEntry declares one origin and the name fragments that signal it.
// The most specific filled field defines the specificity tier.
type GeoEntry struct {
	Terms   []string `yaml:"terms"`
	Country string   `yaml:"country"`
	Region  string   `yaml:"region,omitempty"`
	City    string   `yaml:"city,omitempty"`
}

// Config is the serializable brand and geography table.
type Config struct {
	Brands    []BrandEntry `yaml:"brands"`
	Geography []GeoEntry   `yaml:"geography"`
	// OriginExclusions suppresses a geo term when any of the listed
	// context words appears in the same name. Keeps «перец чили» from
	// reading as produce of Chile.
	OriginExclusions map[string][]string `yaml:"origin_exclusions,omitempty"`
}

// compiledAlias is one alias prepared for matching. Multi-word aliases
// match as boundary-checked substrings of the folded name; single words
// match token-exact.
type compiledAlias struct {
	folded  string
	brandID string
	words   int
}

// Resolver answers brand and origin questions over a compiled table.
type Resolver struct {
	aliases    []compiledAlias // longest first
	aliasStems map[string]bool // stems of every alias word
	brands     map[string]BrandEntry
	geo        map[string]*geoTarget // stemmed term -> target
	exclusions map[string][]string   // stemmed term -> stemmed context words
}

// NewResolver compiles the table. Alias and geography terms run through
// the same fold/stem pipeline as product names so inflected forms agree.
func NewResolver(cfg Config) (*Resolver, error) {
	r := &Resolver{
		aliasStems: make(map[string]bool),
		brands:     make(map[string]BrandEntry, len(cfg.Brands)),
		geo:        make(map[string]*geoTarget),
		exclusions: make(map[string][]string),
	}
	for i, b := range cfg.Brands {
		if b.ID == "" {
			return nil, fmt.Errorf("brand %d: empty id", i)
		}
		if len(b.Aliases) == 0 {
			return nil, fmt.Errorf("brand %q: no aliases", b.ID)
		}
		r.brands[b.ID] = b
		for _, a := range b.Aliases {
			folded := textnorm.Normalize(a)
			if folded == "" {
				return nil, fmt.Errorf("brand %q: alias %q folds to nothing", b.ID, a)
			}
			r.aliases = append(r.aliases, compiledAlias{
				folded:  folded,
				brandID: b.ID,
				words:   len(strings.Fields(folded)),
			})
			for _, stem := range textnorm.TokenizeStemmed(a) {
				r.aliasStems[stem] = true
			}
		}
	}
	// Longest alias first, so «домик в деревне» beats a hypothetical «домик».
	sort.SliceStable(r.aliases, func(i, j int) bool {
		return len([]rune(r.aliases[i].folded)) > len([]rune(r.aliases[j].folded))
	})

	for i, g := range cfg.Geography {
		if g.Country == "" {
			return nil, fmt.Errorf("geography %d: country is required", i)
		}
		tgt := &geoTarget{country: g.Country, region: g.Region, city: g.City}
		for _, term := range g.Terms {
			for _, stem := range textnorm.TokenizeStemmed(term) {
				r.geo[stem] = tgt
			}
		}
	}
	for term, contexts := range cfg.OriginExclusions {
		stems := textnorm.TokenizeStemmed(term)
		if len(stems) != 1 {
			return nil, fmt.Errorf("origin exclusion %q must be a single word", term)
		}
		var ctx []string
		for _, c := range contexts {
			ctx = append(ctx, textnorm.TokenizeStemmed(c)...)
		}
		r.exclusions[stems[0]] = ctx
	}
	return r, nil
}

// DetectBrand finds the most specific brand alias in a product name.
func (r *Resolver) DetectBrand(name string) (string, bool) {
	normalized := textnorm.Normalize(name)
	if normalized == "" {
		return "", false
	}
	tokens := strings.Fields(normalized)
	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}
	for _, a := range r.aliases {
		if a.words > 1 {
			if containsPhrase(normalized, a.folded) {
				return a.brandID, true
			}
			continue
		}
		if tokenSet[a.folded] {
			return a.brandID, true
		}
	}
	return "", false
}

// BrandName returns the display name for a brand id.
func (r *Resolver) BrandName(brandID string) string {
	if b, ok := r.brands[brandID]; ok {
		return b.Name
	}
	return brandID
}

// Family returns the owning group of a brand, or "" for standalone brands.
func (r *Resolver) Family(brandID string) string {
	if b, ok := r.brands[brandID]; ok {
		return b.Family
	}
	return ""
}

// SameFamily reports whether two distinct brands share an owning group.
func (r *Resolver) SameFamily(a, b string) bool {
	if a == "" || b == "" || a == b {
		return false
	}
	fa, fb := r.Family(a), r.Family(b)
	return fa != "" && fa == fb
}

// IsBrandStem reports whether a stem belongs to some brand alias.
// Name-similarity scoring skips these so a brand word neither inflates
// nor dilutes the product-word overlap.
func (r *Resolver) IsBrandStem(stem string) bool {
	return r.aliasStems[stem]
}

// containsPhrase reports whether phrase occurs in s on word boundaries.
// Both strings are already normalized to space-separated lowercase words.
func containsPhrase(s, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		startOK := start == 0 || s[start-1] == ' '
		endOK := end == len(s) || s[end] == ' '
		if startOK && endOK {
			return true
		}
		idx = start + 1
	}
}

// LoadFile reads and compiles a YAML brand/geography table.
func LoadFile(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brands file: %w", err)
	}
	return Parse(data)
}

// Parse compiles a YAML brand/geography table from raw bytes.
func Parse(data []byte) (*Resolver, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse brands yaml: %w", err)
	}
	return NewResolver(cfg)
}

// DefaultResolver compiles the built-in table.
func DefaultResolver() *Resolver {
	r, err := NewResolver(defaultConfig)
	if err != nil {
		panic(fmt.Sprintf("brand: built-in table is invalid: %v", err))
	}
	return r
}
