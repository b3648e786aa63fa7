package textnorm

// Light Russian stemmer: strips at most one inflectional suffix so that
// singular and plural forms of the same product word compare equal. A full
// Snowball stemmer over-stems for this catalog: "масло" and "маслины"
// would merge into one token.

// suffixes is checked longest-first; only one suffix is ever stripped.
var suffixes = []string{
	// adjective endings
	"ыми", "ими", "ого", "его", "ому", "ему", "ая", "яя", "ое", "ее",
	"ые", "ие", "ую", "юю", "ым", "им", "ых", "их", "ый", "ий", "ой",
	// noun endings
	"иями", "ями", "ами", "иях", "ях", "ах", "ием", "ьем", "иям", "ям",
	"ам", "ии", "ия", "ие", "ию", "ья", "ье", "ьи", "ов", "ев", "ей",
	"ы", "и", "а", "я", "о", "е", "у", "ю", "ь",
}

const minStemLen = 3 // runes

// Stem strips at most one Russian inflectional suffix from the token.
// Tokens whose stem would fall below three runes are returned unchanged.
// Latin tokens pass through untouched.
func Stem(token string) string {
	runes := []rune(token)
	if len(runes) <= minStemLen {
		return token
	}
	if !isCyrillic(runes[len(runes)-1]) {
		return token
	}
	for _, suf := range longestFirst {
		sr := []rune(suf)
		if len(runes)-len(sr) < minStemLen {
			continue
		}
		if hasSuffix(runes, sr) {
			return string(runes[:len(runes)-len(sr)])
		}
	}
	return token
}

// longestFirst is the suffix table reordered by rune length, longest first,
// so "ями" wins over "и". Built once at init.
var longestFirst = buildLongestFirst()

func buildLongestFirst() []string {
	out := make([]string, len(suffixes))
	copy(out, suffixes)
	// insertion sort by rune length descending; table is tiny
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len([]rune(out[j])) > len([]rune(out[j-1])); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func hasSuffix(runes, suf []rune) bool {
	if len(suf) > len(runes) {
		return false
	}
	off := len(runes) - len(suf)
	for i, r := range suf {
		if runes[off+i] != r {
			return false
		}
	}
	return true
}

func isCyrillic(r rune) bool {
	return r >= 0x0400 && r <= 0x04FF
}
