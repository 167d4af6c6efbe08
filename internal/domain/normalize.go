package domain

import (
	"strings"
	"unicode"
)

// legalSuffixes are dropped from organization names before comparing them
var legalSuffixes = map[string]bool{
	"ltd": true, "sti": true, "şti": true, "as": true, "aş": true,
	"inc": true, "llc": true, "gmbh": true, "limited": true, "sirketi": true,
	"şirketi": true, "san": true, "sanayi": true, "tic": true, "ticaret": true,
	"co": true, "corp": true,
}

// NormalizeName folds case with Turkish rules, strips punctuation and legal
// suffixes, and collapses whitespace. Two names with the same key are
// considered the same organization.
func NormalizeName(name string) string {
	folded := normalizeText(name)
	cleaned := strings.Map(func(r rune) rune {
		if r == '.' {
			return -1
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, folded)

	words := strings.Fields(cleaned)
	kept := words[:0]
	for _, w := range words {
		if !legalSuffixes[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// NormalizeEmail lower-cases and trims an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
