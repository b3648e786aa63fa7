// Package textnorm normalizes, tokenizes and stems product names.
// All functions are pure: no state, no I/O, empty input gives empty output.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Package-level compiled patterns and transforms for performance
var (
	trademarkReplacer = strings.NewReplacer("™", " ", "®", " ", "©", " ", "«", " ", "»", " ", "“", " ", "”", " ")

	// ё folds to е before the generic mark-stripping pass so the diaeresis
	// never reaches the NFD stage as a combining mark of its own.
	yoReplacer = strings.NewReplacer("ё", "е", "Ё", "Е")

	// NFD + strip combining marks + NFC: folds й→и and latin diacritics.
	markStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// Fold lowercases and Unicode-folds text (ё→е, й→и, diacritics stripped)
// while keeping punctuation intact. Use it where numeric attributes such
// as "3.2%" or "16/20" must survive for later extraction.
func Fold(text string) string {
	if text == "" {
		return ""
	}
	s := strings.ToLower(text)
	s = yoReplacer.Replace(s)
	s = trademarkReplacer.Replace(s)
	if folded, _, err := transform.String(markStripper, s); err == nil {
		s = folded
	}
	s = multiSpacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Normalize folds text and strips punctuation down to letters, digits and
// spaces. This is the canonical form for tokenizing and token matching.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	folded := Fold(text)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	s := multiSpacePattern.ReplaceAllString(b.String(), " ")
	return strings.TrimSpace(s)
}

// stopWords are tokens that carry no matching signal: grammatical words,
// units (pack size is handled by the pack parser, not token overlap) and
// catalog noise.
var stopWords = map[string]bool{
	// Grammatical
	"и": true, "в": true, "во": true, "с": true, "со": true, "для": true,
	"из": true, "по": true, "на": true, "не": true, "от": true, "до": true,
	"или": true, "а": true, "же": true, "без": true, "под": true, "при": true,
	"о": true, "об": true, "за": true, "то": true,
	// Units (cyrillic and latin)
	"г": true, "гр": true, "кг": true, "мл": true, "л": true, "шт": true,
	"уп": true, "упак": true, "бут": true, "пач": true, "кор": true,
	"g": true, "gr": true, "kg": true, "ml": true, "l": true, "pcs": true,
	// Catalog noise
	"вес": true, "весовой": true, "весовая": true, "фас": true, "фасованный": true,
	"ту": true, "гост": true, "арт": true, "ед": true, "изм": true,
}

// Tokenize splits text into an ordered sequence of normalized tokens with
// stop words and number-led tokens removed. Quantities, calibres and
// merged forms like "800г" are the pack parser's and attribute
// extractor's material; in token space they are only noise. Order is
// preserved so that anchors derived from leading tokens stay meaningful.
func Tokenize(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	words := strings.Fields(normalized)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) <= 1 {
			continue
		}
		if stopWords[w] {
			continue
		}
		if startsWithDigit(w) {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// TokenizeStemmed tokenizes and stems in one pass; duplicates after
// stemming are collapsed keeping first occurrence order.
func TokenizeStemmed(text string) []string {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		s := Stem(t)
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// startsWithDigit reports whether the token leads with a digit, which in
// catalog names always marks a quantity fragment ("800г", "16", "0.5л").
func startsWithDigit(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}
