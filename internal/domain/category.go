package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CategoryRule maps a set of keywords to a request category
type CategoryRule struct {
	Category RequestCategory
	Keywords []string
}

// CategoryRules is evaluated in order; the first matching rule decides the
// category. Keywords are Turkish and English. A keyword matches at the start
// of a word, so suffixed Turkish forms ("kremler") still match. Keywords of
// wholeWordRunes runes or fewer must match the whole word.
var CategoryRules = []CategoryRule{
	{
		Category: CategoryCosmeticManufacturing,
		Keywords: []string{"krem", "kozmetik", "cosmetic", "cilt", "skin", "serum", "şampuan", "shampoo", "losyon", "lotion", "ruj", "makyaj", "makeup", "parfüm", "perfume", "saç", "saçlar", "saçı", "hair"},
	},
	{
		Category: CategorySupplementManufacturing,
		Keywords: []string{"takviye", "supplement", "vitamin", "kapsül", "capsule", "tablet", "probiyotik", "probiotic", "kolajen", "collagen", "protein"},
	},
	{
		Category: CategoryCleaningManufacturing,
		Keywords: []string{"temizlik", "cleaning", "deterjan", "detergent", "dezenfektan", "disinfectant", "çamaşır", "bulaşık", "laundry"},
	},
	{
		Category: CategoryPackagingSupply,
		Keywords: []string{"ambalaj", "packaging", "şişe", "bottle", "kutu", "etiket", "label", "tüp", "tüpler", "kavanoz", "jar"},
	},
	{
		Category: CategoryEcommerceOperations,
		Keywords: []string{"e-ticaret", "eticaret", "e-commerce", "ecommerce", "pazaryeri", "marketplace", "online mağaza", "fulfillment", "kargo"},
	},
	{
		Category: CategoryDigitalMarketing,
		Keywords: []string{"pazarlama", "marketing", "reklam", "advertising", "sosyal medya", "social media", "seo", "influencer", "kampanya"},
	},
	{
		Category: CategoryFormulationDevelopment,
		Keywords: []string{"formül", "formulation", "formula", "ar-ge", "r&d", "reçete", "geliştirme"},
	},
}

// CategoryMatch is the result of keyword-based category inference
type CategoryMatch struct {
	Category  RequestCategory   `json:"category"`
	Ambiguous bool              `json:"ambiguous"`
	Matches   []RequestCategory `json:"matches,omitempty"`
}

// normalizeText lower-cases with Turkish rules and folds dotless i so that
// "VITAMIN" and "vitamin" compare equal.
func normalizeText(s string) string {
	lower := cases.Lower(language.Turkish).String(s)
	return strings.ReplaceAll(lower, "ı", "i")
}

// DetermineCategoryFromService infers a request category from the free-text
// service, product and message fields. Inputs matching more than one rule are
// flagged ambiguous; the earliest rule still wins.
func DetermineCategoryFromService(service, product, message string) CategoryMatch {
	text := normalizeText(strings.Join([]string{service, product, message}, " "))

	var matches []RequestCategory
	for _, rule := range CategoryRules {
		for _, kw := range rule.Keywords {
			if containsKeyword(text, normalizeText(kw)) {
				matches = append(matches, rule.Category)
				break
			}
		}
	}

	if len(matches) == 0 {
		return CategoryMatch{Category: CategoryConsultation}
	}
	return CategoryMatch{
		Category:  matches[0],
		Ambiguous: len(matches) > 1,
		Matches:   matches,
	}
}

const wholeWordRunes = 3

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// containsKeyword reports whether kw occurs in text starting at a word
// boundary, and for short keywords also ending at one
func containsKeyword(text, kw string) bool {
	if kw == "" {
		return false
	}
	whole := utf8.RuneCountInString(kw) <= wholeWordRunes
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], kw)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(kw)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		startsWord := start == 0 || !isWordRune(before)
		after, _ := utf8.DecodeRuneInString(text[end:])
		endsWord := end == len(text) || !isWordRune(after)

		if startsWord && (!whole || endsWord) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

// MapPriority maps free text to a priority. Unrecognised input is normal.
func MapPriority(s string) Priority {
	switch normalizeText(strings.TrimSpace(s)) {
	case "urgent", "acil", "kritik", "critical":
		return PriorityUrgent
	case "high", "yüksek", "yuksek":
		return PriorityHigh
	case "low", "düşük", "dusuk":
		return PriorityLow
	}
	return PriorityNormal
}
