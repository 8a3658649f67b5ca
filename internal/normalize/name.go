// Package normalize canonicalizes make/model/version names and resolves
// scoped aliases so rows from different sources share join keys.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/catalog-cli/internal/value"
)

// acronyms are brand tokens that stay uppercase.
var acronyms = map[string]bool{
	"BMW": true, "VW": true, "GMC": true, "RAM": true, "BYD": true, "GWM": true,
	"MG": true, "JAC": true, "BAIC": true, "MINI": true, "DS": true,
}

var (
	nonAlnumRe     = regexp.MustCompile(`[^a-z0-9]+`)
	multiUnderRe   = regexp.MustCompile(`_+`)
	compactDropRe  = regexp.MustCompile(`[^A-Z0-9]+`)
	symbolTokenSet = "-.+/"
)

// Canonical title-cases each whitespace-delimited token of s. Acronym
// brands, tokens containing digits (RAV4, CX-5, ID.4) and tokens carrying
// symbols (LE+, LE-PLUS) are uppercased instead.
func Canonical(s string) string {
	fields := strings.Fields(s)
	for i, tok := range fields {
		fields[i] = canonicalToken(tok)
	}
	return strings.Join(fields, " ")
}

func canonicalToken(tok string) string {
	upper := strings.ToUpper(tok)
	if acronyms[upper] {
		return upper
	}
	if strings.IndexFunc(tok, unicode.IsDigit) >= 0 || strings.ContainsAny(tok, symbolTokenSet) {
		return upper
	}
	// Casers carry state, so each call gets its own.
	return cases.Title(language.Spanish).String(tok)
}

// Slug lowercases, folds diacritics and joins alphanumeric runs with
// underscores: "Grand Cherokee L 4x4" → "grand_cherokee_l_4x4".
func Slug(s string) string {
	s = strings.ToLower(value.FoldAccents(s))
	s = nonAlnumRe.ReplaceAllString(s, "_")
	s = multiUnderRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Compact uppercases, folds diacritics and drops every non-alphanumeric
// character: "CX-5 i Sport" → "CX5ISPORT".
func Compact(s string) string {
	s = strings.ToUpper(value.FoldAccents(s))
	return compactDropRe.ReplaceAllString(s, "")
}

// matchKey is the comparison form used for alias lookups.
func matchKey(s string) string {
	return strings.ToUpper(value.FoldAccents(Canonical(s)))
}

// Key builds a case- and accent-insensitive join key from name parts.
func Key(parts ...string) string {
	keys := make([]string, len(parts))
	for i, p := range parts {
		keys[i] = matchKey(p)
	}
	return strings.Join(keys, "|")
}
