package brand

import (
	"github.com/zakupnik/backend/internal/domain"
	"github.com/zakupnik/backend/internal/textnorm"
)

// geoTarget is one compiled origin. Specificity grows city > region > country.
type geoTarget struct {
	country string
	region  string
	city    string
}

func (g *geoTarget) specificity() int {
	switch {
	case g.city != "":
		return 3
	case g.region != "":
		return 2
	default:
		return 1
	}
}

func (g *geoTarget) origin() domain.Origin {
	return domain.Origin{Country: g.country, Region: g.region, City: g.city}
}

// DetectOrigin finds the most specific geographic origin named in a
// product name. A term listed in the exclusion table is ignored when any
// of its context words appears in the same name, so «перец чили» carries
// no origin while «лосось чили» does.
func (r *Resolver) DetectOrigin(name string) domain.Origin {
	stems := textnorm.TokenizeStemmed(name)
	stemSet := make(map[string]bool, len(stems))
	for _, s := range stems {
		stemSet[s] = true
	}

	var best *geoTarget
	for _, s := range stems {
		tgt, ok := r.geo[s]
		if !ok {
			continue
		}
		if r.excluded(s, stemSet) {
			continue
		}
		if best == nil || tgt.specificity() > best.specificity() {
			best = tgt
		}
	}
	if best == nil {
		return domain.Origin{}
	}
	return best.origin()
}

func (r *Resolver) excluded(stem string, stemSet map[string]bool) bool {
	for _, ctx := range r.exclusions[stem] {
		if stemSet[ctx] {
			return true
		}
	}
	return false
}
