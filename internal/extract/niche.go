package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NicheQuery is the parsed form of a natural-language search directive like
// "Búscame dentistas en Córdoba.".
type NicheQuery struct {
	Niche    string
	City     string
	Original string
}

// directiveRe recognizes "busca/buscame/busqu(a)me/quiero/necesito/hay X en Y"
// over normalized (diacritic-stripped, lower-case) text. Group 1 is the niche,
// group 2 the city; the city ends at punctuation, whitespace or end of input.
var directiveRe = regexp.MustCompile(`\b(?:busc(?:a|ame|qu?ame)|quiero|necesito|hay)\s+(.*?)\s+en\s+(.+?)(?:[.,\s]|$)`)

// stripMarks removes combining marks after NFD decomposition, turning
// "Córdoba" into "Cordoba".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ParseNicheAndCity extracts the business niche and city from a free-text
// search directive. The input is diacritic-stripped and lower-cased before
// matching, so the returned niche and city are always in normalized form.
// Callers must treat a non-nil error as "no directive present" and never
// guess a fallback.
func ParseNicheAndCity(text string) (NicheQuery, error) {
	normalized, _, err := transform.String(stripMarks, text)
	if err != nil {
		// Malformed UTF-8; fall back to the raw text.
		normalized = text
	}
	normalized = strings.TrimSpace(strings.ToLower(normalized))

	m := directiveRe.FindStringSubmatch(normalized)
	if m == nil || strings.TrimSpace(m[1]) == "" || strings.TrimSpace(m[2]) == "" {
		return NicheQuery{Original: text}, eris.Errorf("extract: could not parse niche and city from %q", text)
	}

	return NicheQuery{
		Niche:    strings.TrimSpace(m[1]),
		City:     strings.TrimSpace(m[2]),
		Original: text,
	}, nil
}
