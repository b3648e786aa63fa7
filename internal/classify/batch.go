package classify

import (
	"context"

	"github.com/zakupnik/backend/internal/domain"
)

// Change is one catalog item whose stored super class disagrees with the
// rule table.
type Change struct {
	OfferID  string
	Name     string
	Stored   string
	Proposed string
	Conf     float64
}

// Contamination flags an offer whose name also fires rules of other
// super classes than the winning one. Such names straddle category
// boundaries and deserve a human look regardless of the winner.
type Contamination struct {
	OfferID     string
	Name        string
	Class       string
	AlsoMatches []string
}

// BatchReport summarizes a catalog reclassification pass.
type BatchReport struct {
	Total        int
	Unchanged    int
	Undetermined int            // no rule fired at all
	Before       map[string]int // stored super class -> count
	After        map[string]int // proposed super class -> count
	Changes      []Change
	Contaminated []Contamination
}

// ReclassifyCatalog runs the rule table over every offer and reports the
// drift between stored and computed super classes. It never writes; the
// caller decides whether to apply the proposals. progress may be nil.
func (c *Classifier) ReclassifyCatalog(ctx context.Context, offers []domain.CandidateOffer, progress func(done, total int)) (*BatchReport, error) {
	rep := &BatchReport{
		Total:  len(offers),
		Before: make(map[string]int),
		After:  make(map[string]int),
	}
	for i, off := range offers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rep.Before[off.SuperClass]++
		super, conf := c.Classify(off.Name)
		if super == "" {
			rep.Undetermined++
			rep.After[off.SuperClass]++ // keep stored class when rules are silent
		} else {
			rep.After[super]++
			if super == off.SuperClass {
				rep.Unchanged++
			} else {
				rep.Changes = append(rep.Changes, Change{
					OfferID:  off.ID,
					Name:     off.Name,
					Stored:   off.SuperClass,
					Proposed: super,
					Conf:     conf,
				})
			}
			if others := c.alsoMatches(off.Name, super); len(others) > 0 {
				rep.Contaminated = append(rep.Contaminated, Contamination{
					OfferID:     off.ID,
					Name:        off.Name,
					Class:       super,
					AlsoMatches: others,
				})
			}
		}
		if progress != nil {
			progress(i+1, len(offers))
		}
	}
	return rep, nil
}
