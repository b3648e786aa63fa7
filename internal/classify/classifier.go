package classify

import (
	"github.com/zakupnik/backend/internal/textnorm"
)

// MinCoreConfidence is the floor below which a core detection is treated
// as undetermined. Searches for an undetermined core do not run.
const MinCoreConfidence = 0.3

// Classifier assigns super classes and product cores to product names.
// It is stateless over an immutable RuleSet and safe for concurrent use.
type Classifier struct {
	rules *RuleSet
}

func NewClassifier(rules *RuleSet) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the super class for a product name and the confidence
// of the winning rule. Rules are evaluated in priority order with table
// order breaking ties, so the result is deterministic and idempotent.
// An empty super class with zero confidence means no rule fired.
func (c *Classifier) Classify(name string) (string, float64) {
	folded := textnorm.Fold(name)
	stems := stemSet(name)
	for i := range c.rules.superRules {
		r := &c.rules.superRules[i]
		if r.matches(folded, stems) {
			return r.id, r.confidence
		}
	}
	return "", 0
}

// ClassifyCore returns the product core id within the given super class.
// With an empty superClass every core rule is considered, which lets
// callers resolve a core for references whose category is unknown.
// Confidence below MinCoreConfidence means the core is undetermined.
func (c *Classifier) ClassifyCore(name, superClass string) (string, float64) {
	folded := textnorm.Fold(name)
	stems := stemSet(name)
	for i := range c.rules.coreRules {
		r := &c.rules.coreRules[i]
		if superClass != "" && r.superClass != superClass {
			continue
		}
		if r.matches(folded, stems) {
			return r.id, r.confidence
		}
	}
	return "", 0
}

// alsoMatches returns the distinct super classes other than winner whose
// rules also fire for the name, in rule order. A non-empty result marks
// the name as straddling category boundaries.
func (c *Classifier) alsoMatches(name, winner string) []string {
	folded := textnorm.Fold(name)
	stems := stemSet(name)
	seen := map[string]bool{winner: true}
	var out []string
	for i := range c.rules.superRules {
		r := &c.rules.superRules[i]
		if seen[r.id] {
			continue
		}
		if r.matches(folded, stems) {
			seen[r.id] = true
			out = append(out, r.id)
		}
	}
	return out
}

// CoreSuperClass reports the super class a core id belongs to, with
// ok=false for unknown cores.
func (c *Classifier) CoreSuperClass(coreID string) (string, bool) {
	for i := range c.rules.coreRules {
		if c.rules.coreRules[i].id == coreID {
			return c.rules.coreRules[i].superClass, true
		}
	}
	return "", false
}

func stemSet(name string) map[string]bool {
	toks := textnorm.TokenizeStemmed(name)
	set := make(map[string]bool, len(toks))
	for _, t := range toks {
		set[t] = true
	}
	return set
}
