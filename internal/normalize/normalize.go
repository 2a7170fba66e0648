// Package normalize canonicalizes free-text company names so the same bidder
// is recognised across lots and against the deposit register.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ligatures = strings.NewReplacer(
	"œ", "oe", "Œ", "oe",
	"æ", "ae", "Æ", "ae",
	"ß", "ss",
)

// Name folds case and accents, turns word separators into spaces, drops every
// other rune outside [a-z0-9 ] and collapses whitespace.
//
//	Name("  Société   Générale ") == "societe generale"
//	Name("S.A.R.L. Dupont-Frères") == "sarl dupont freres"
func Name(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		ligatures.Replace(s),
	)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '-', r == '_', r == '/', r == '&', r == ',', r == ';', r == '+':
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Digits keeps only ASCII digits, for comparing SIRET numbers typed with
// spaces or dots.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Contains reports whether either normalized name contains the other. The
// shorter side must be at least minLen runes long so that very short names
// do not match almost everything.
func Contains(a, b string, minLen int) bool {
	if a == "" || b == "" {
		return false
	}
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len([]rune(shorter)) < minLen {
		return false
	}
	return strings.Contains(longer, shorter)
}
