// Package classify maps product names to a hierarchical category
// (super class) and a finer product core id using an ordered,
// priority-weighted keyword/regex rule table.
//
// The rule table contents are data, not code: the built-in table covers
// a compact Russian grocery assortment and can be replaced wholesale
// from a YAML file. Rule sets are immutable after compilation; reload
// is an atomic pointer swap at the composition layer.
package classify

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/zakupnik/backend/internal/textnorm"
)

// SuperRule classifies a name into a super class.
type SuperRule struct {
	SuperClass string   `yaml:"super_class"`
	Priority   int      `yaml:"priority"`
	Confidence float64  `yaml:"confidence"`
	Keywords   []string `yaml:"keywords,omitempty"`
	Patterns   []string `yaml:"patterns,omitempty"`
}

// CoreRule narrows a super class to a product core id.
type CoreRule struct {
	CoreID     string   `yaml:"core"`
	SuperClass string   `yaml:"super_class"`
	Priority   int      `yaml:"priority"`
	Confidence float64  `yaml:"confidence"`
	Keywords   []string `yaml:"keywords,omitempty"`
	Patterns   []string `yaml:"patterns,omitempty"`
	Forbidden  []string `yaml:"forbidden,omitempty"`
}

// Config is the serializable rule table.
type Config struct {
	SuperRules []SuperRule `yaml:"super_classes"`
	CoreRules  []CoreRule  `yaml:"cores"`
}

// compiledRule is a rule prepared for matching: keywords stemmed,
// patterns compiled, declaration order captured for tie-breaking.
type compiledRule struct {
	id         string // super class or core id
	superClass string // for core rules: the super class they narrow
	priority   int
	confidence float64
	keywords   map[string]bool // stemmed
	patterns   []*regexp.Regexp
	forbidden  map[string]bool // stemmed
	declared   int
}

// RuleSet is an immutable compiled rule table.
type RuleSet struct {
	superRules []compiledRule // sorted: priority desc, declaration asc
	coreRules  []compiledRule
}

// NewRuleSet compiles a rule table. Patterns are matched against the
// folded name; keywords against stemmed tokens.
func NewRuleSet(cfg Config) (*RuleSet, error) {
	rs := &RuleSet{}
	for i, r := range cfg.SuperRules {
		if r.SuperClass == "" {
			return nil, fmt.Errorf("super rule %d: empty super_class", i)
		}
		cr, err := compileRule(r.SuperClass, "", r.Priority, r.Confidence, r.Keywords, r.Patterns, nil, i)
		if err != nil {
			return nil, fmt.Errorf("super rule %q: %w", r.SuperClass, err)
		}
		rs.superRules = append(rs.superRules, cr)
	}
	for i, r := range cfg.CoreRules {
		if r.CoreID == "" || r.SuperClass == "" {
			return nil, fmt.Errorf("core rule %d: core and super_class are required", i)
		}
		cr, err := compileRule(r.CoreID, r.SuperClass, r.Priority, r.Confidence, r.Keywords, r.Patterns, r.Forbidden, i)
		if err != nil {
			return nil, fmt.Errorf("core rule %q: %w", r.CoreID, err)
		}
		rs.coreRules = append(rs.coreRules, cr)
	}
	sortRules(rs.superRules)
	sortRules(rs.coreRules)
	return rs, nil
}

func compileRule(id, superClass string, priority int, confidence float64, keywords, patterns, forbidden []string, declared int) (compiledRule, error) {
	cr := compiledRule{
		id:         id,
		superClass: superClass,
		priority:   priority,
		confidence: confidence,
		declared:   declared,
		keywords:   make(map[string]bool, len(keywords)),
		forbidden:  make(map[string]bool, len(forbidden)),
	}
	if cr.confidence == 0 {
		cr.confidence = 0.9
	}
	for _, k := range keywords {
		for _, tok := range textnorm.TokenizeStemmed(k) {
			cr.keywords[tok] = true
		}
	}
	for _, f := range forbidden {
		for _, tok := range textnorm.TokenizeStemmed(f) {
			cr.forbidden[tok] = true
		}
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return cr, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		cr.patterns = append(cr.patterns, re)
	}
	return cr, nil
}

// sortRules orders by priority descending, declaration order ascending.
// The sort must be stable so that equal-priority rules keep table order.
func sortRules(rules []compiledRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].priority > rules[j].priority
	})
}

// matches reports whether the rule fires for the given folded name and
// stemmed token set.
func (r *compiledRule) matches(folded string, stems map[string]bool) bool {
	for s := range r.forbidden {
		if stems[s] {
			return false
		}
	}
	for k := range r.keywords {
		if stems[k] {
			return true
		}
	}
	for _, re := range r.patterns {
		if re.MatchString(folded) {
			return true
		}
	}
	return false
}

// LoadFile reads and compiles a YAML rule table.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(data)
}

// Parse compiles a YAML rule table from raw bytes.
func Parse(data []byte) (*RuleSet, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rules yaml: %w", err)
	}
	if len(cfg.SuperRules) == 0 {
		return nil, fmt.Errorf("rules yaml has no super_classes")
	}
	return NewRuleSet(cfg)
}

// DefaultRuleSet compiles the built-in table. Panics on a broken built-in
// table, which is a programming error caught by the package tests.
func DefaultRuleSet() *RuleSet {
	rs, err := NewRuleSet(defaultConfig)
	if err != nil {
		panic(fmt.Sprintf("classify: built-in rule table is invalid: %v", err))
	}
	return rs
}
