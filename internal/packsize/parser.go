// Package packsize extracts pack size (unit and base quantity) from
// Russian product names and provides the pack arithmetic used by
// matching and cart economics.
//
// Quantities are normalized to base units: grams for weight, milliliters
// for volume, pieces for countables. Parsing is deliberately conservative:
// a size class like "16/20" or a grade like "в/с" must never be read as
// a pack.
package packsize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/zakupnik/backend/internal/domain"
	"github.com/zakupnik/backend/internal/textnorm"
)

// unitAlt lists recognized unit spellings, longest first so that "кг"
// wins over "г" and "мл" over "л".
const unitAlt = `кг|гр(?:амм)?|мл|шт|г|л|kg|ml|pcs|pc|g|l`

const num = `(\d+(?:[.,]\d+)?)`

// unitEnd guards the right edge of a unit. regexp's \b is ASCII-only and
// never fires between a Cyrillic letter and end of string, so the guard
// is spelled out: the unit must be followed by a non-letter or the end.
// It keeps "2 гвоздики" from reading as «2 г» and "3 луковицы" as «3 л».
const unitEnd = `(?:[^а-яёa-z]|$)`

var (
	// Multipacks with latin or cyrillic x: 5х100г, 5x100мл, 4*250 г.
	multipackPattern = regexp.MustCompile(`(\d+)\s*[x*х]\s*` + num + `\s*(` + unitAlt + `)` + unitEnd)
	// Ranges, resolved to the midpoint: 100-150г.
	rangePattern = regexp.MustCompile(num + `\s*-\s*` + num + `\s*(` + unitAlt + `)` + unitEnd)
	// Plain quantities: 800г, 1.5 л, 10шт.
	singlePattern = regexp.MustCompile(num + `\s*(` + unitAlt + `)` + unitEnd)
	// ~1кг, около 1 кг, ок. 500г, прибл. 2кг.
	approxPattern = regexp.MustCompile(`~\s*\d|(?:^|[^а-яё])(?:около|ок\.|прибл)`)
)

const (
	confExact     = 0.9
	confMultipack = 0.85
	confRange     = 0.7
	confApprox    = 0.6
	confDefault   = 0.25
)

// Parse extracts the pack from a product name. When the name carries no
// recognizable pack it returns an unknown pack with zero confidence;
// callers that want a category fallback use DefaultPack.
func Parse(name string) domain.PackInfo {
	folded := textnorm.Fold(name)

	if m := multipackPattern.FindStringSubmatch(folded); m != nil {
		count, _ := strconv.Atoi(m[1])
		value := parseNumber(m[2])
		unit, base := normalizeUnit(m[3], value)
		if count > 0 && base > 0 {
			return domain.PackInfo{Unit: unit, BaseQuantity: float64(count) * base, Confidence: confMultipack}
		}
	}

	if m := rangePattern.FindStringSubmatch(folded); m != nil {
		lo := parseNumber(m[1])
		hi := parseNumber(m[2])
		if lo > 0 && hi >= lo {
			unit, loBase := normalizeUnit(m[3], lo)
			_, hiBase := normalizeUnit(m[3], hi)
			if loBase > 0 {
				return domain.PackInfo{Unit: unit, BaseQuantity: (loBase + hiBase) / 2, Confidence: confRange}
			}
		}
	}

	if m := singlePattern.FindStringSubmatch(folded); m != nil {
		value := parseNumber(m[1])
		unit, base := normalizeUnit(m[2], value)
		if base > 0 {
			conf := confExact
			if approxPattern.MatchString(folded) {
				conf = confApprox
			}
			return domain.PackInfo{Unit: unit, BaseQuantity: base, Confidence: conf}
		}
	}

	return domain.PackInfo{Unit: domain.UnitUnknown}
}

// defaultUnits maps super classes to the unit their offers are normally
// sold in. Used only to fill a missing reference unit; the base quantity
// stays unknown.
var defaultUnits = map[string]domain.UnitType{
	"seafood":      domain.UnitWeight,
	"meat":         domain.UnitWeight,
	"poultry":      domain.UnitWeight,
	"vegetables":   domain.UnitWeight,
	"fruits":       domain.UnitWeight,
	"dairy":        domain.UnitWeight,
	"sauces":       domain.UnitWeight,
	"pasta_grains": domain.UnitWeight,
	"spices":       domain.UnitWeight,
	"canned":       domain.UnitWeight,
	"bakery":       domain.UnitPiece,
	"eggs":         domain.UnitPiece,
	"oils":         domain.UnitVolume,
	"beverages":    domain.UnitVolume,
}

// DefaultPack returns the category-typical unit with an unknown quantity
// and low confidence, or a fully unknown pack for unmapped categories.
func DefaultPack(superClass string) domain.PackInfo {
	if u, ok := defaultUnits[superClass]; ok {
		return domain.PackInfo{Unit: u, Confidence: confDefault}
	}
	return domain.PackInfo{Unit: domain.UnitUnknown}
}

// PacksNeeded returns how many offer packs cover the required amount,
// rounding up. Both packs must be known and in the same unit.
func PacksNeeded(required, offer domain.PackInfo) (int, error) {
	if !required.Known() || !offer.Known() {
		return 0, fmt.Errorf("%w: pack size unknown", domain.ErrUnitMismatch)
	}
	if required.Unit != offer.Unit {
		return 0, fmt.Errorf("%w: %s vs %s", domain.ErrUnitMismatch, required.Unit, offer.Unit)
	}
	return int(math.Ceil(required.BaseQuantity / offer.BaseQuantity)), nil
}

// Format renders a pack for display: grams promote to kilograms and
// milliliters to liters at 1000.
func Format(p domain.PackInfo) string {
	if !p.Known() {
		return ""
	}
	switch p.Unit {
	case domain.UnitWeight:
		if p.BaseQuantity >= 1000 {
			return trimZeros(p.BaseQuantity/1000) + " кг"
		}
		return trimZeros(p.BaseQuantity) + " г"
	case domain.UnitVolume:
		if p.BaseQuantity >= 1000 {
			return trimZeros(p.BaseQuantity/1000) + " л"
		}
		return trimZeros(p.BaseQuantity) + " мл"
	case domain.UnitPiece:
		return trimZeros(p.BaseQuantity) + " шт"
	}
	return ""
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}

// normalizeUnit maps a unit spelling to its UnitType and converts the
// value to base units.
func normalizeUnit(unit string, value float64) (domain.UnitType, float64) {
	switch unit {
	case "кг", "kg":
		return domain.UnitWeight, value * 1000
	case "г", "гр", "грамм", "g":
		return domain.UnitWeight, value
	case "л", "l":
		return domain.UnitVolume, value * 1000
	case "мл", "ml":
		return domain.UnitVolume, value
	case "шт", "pcs", "pc":
		return domain.UnitPiece, value
	}
	return domain.UnitUnknown, 0
}

func trimZeros(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	return s
}
