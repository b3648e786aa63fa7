package guard

import (
	"regexp"
	"strconv"
	"strings"
)

// Attributes are the graded product attributes extracted from a name:
// the ones where «close» is still wrong. A reference that states one of
// these pins the candidate to the exact same value.
type Attributes struct {
	FatPercent float64 // 0 when absent
	HasFat     bool
	Grade      string // normalized: "вс", "1с", "2с"
	SizeClass  string // "16/20" style calibre
	EggGrade   string // "с0", "с1", "с2", "св"
}

var (
	fatPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)
	// Calibre like 16/20: digits are ASCII word characters, so \b works.
	sizePattern = regexp.MustCompile(`\b(\d{1,3}/\d{1,3})\b`)
	// Flour and similar grades, matched against the folded name where
	// й is already и. \b is useless next to Cyrillic, hence the explicit
	// space-or-edge groups.
	gradePattern = regexp.MustCompile(`(?:^|\s)(в/с|высш[а-я]*\s+сорт[а-я]*|1\s*с(?:орт[а-я]*)?|первы[а-я]*\s+сорт[а-я]*|2\s*с(?:орт[а-я]*)?|второ[а-я]*\s+сорт[а-я]*)(?:\s|,|$)`)
	eggPattern   = regexp.MustCompile(`(?:^|\s)с([012в])(?:\s|$)`)
)

// ExtractAttributes pulls graded attributes from a folded product name.
func ExtractAttributes(folded string) Attributes {
	var a Attributes

	if m := fatPattern.FindStringSubmatch(folded); m != nil {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err == nil {
			a.FatPercent = v
			a.HasFat = true
		}
	}
	if m := sizePattern.FindStringSubmatch(folded); m != nil {
		a.SizeClass = m[1]
	}
	if m := gradePattern.FindStringSubmatch(folded); m != nil {
		a.Grade = normalizeGrade(m[1])
	}
	if m := eggPattern.FindStringSubmatch(folded); m != nil {
		a.EggGrade = "с" + m[1]
	}
	return a
}

func normalizeGrade(raw string) string {
	g := strings.Join(strings.Fields(raw), " ")
	switch {
	case g == "в/с" || strings.HasPrefix(g, "высш"):
		return "вс"
	case strings.HasPrefix(g, "1") || strings.HasPrefix(g, "первы"):
		return "1с"
	case strings.HasPrefix(g, "2") || strings.HasPrefix(g, "второ"):
		return "2с"
	}
	return g
}

// conflicts reports the graded attributes stated by the reference that
// the candidate contradicts. An attribute is a conflict only when both
// sides state it with different values; silence on either side is not
// a contradiction.
func (a Attributes) conflicts(cand Attributes) []string {
	var out []string
	if a.HasFat && cand.HasFat && !floatEq(a.FatPercent, cand.FatPercent) {
		out = append(out, "жирность")
	}
	if a.Grade != "" && cand.Grade != "" && a.Grade != cand.Grade {
		out = append(out, "сорт")
	}
	if a.SizeClass != "" && cand.SizeClass != "" && a.SizeClass != cand.SizeClass {
		out = append(out, "калибр")
	}
	if a.EggGrade != "" && cand.EggGrade != "" && a.EggGrade != cand.EggGrade {
		out = append(out, "категория яйца")
	}
	return out
}

func floatEq(a, b float64) bool {
	d := a - b
	return d < 0.001 && d > -0.001
}

// AttributePair is a pair of mutually exclusive binary attributes,
// expressed as folded substrings. The negative form is checked first so
// that «неочищенные» is not read as «очищенные».
type AttributePair struct {
	Positive string `yaml:"positive"`
	Negative string `yaml:"negative"`
}

// state returns +1 when the name asserts the positive form, -1 for the
// negative form, 0 when silent.
func (p AttributePair) state(folded string) int {
	if strings.Contains(folded, p.Negative) {
		return -1
	}
	if strings.Contains(folded, p.Positive) {
		return 1
	}
	return 0
}

// binaryConflicts reports pairs where reference and candidate assert
// opposite forms. Silence on either side is never a conflict.
func binaryConflicts(pairs []AttributePair, refFolded, candFolded string) []string {
	var out []string
	for _, p := range pairs {
		rs := p.state(refFolded)
		if rs == 0 {
			continue
		}
		cs := p.state(candFolded)
		if cs != 0 && rs != cs {
			out = append(out, p.Positive+"/"+p.Negative)
		}
	}
	return out
}
