package recognize

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	moneyTokenBonus          = 15.0
	keywordBonus             = 3.0
	plausibleLengthBonus     = 5.0
	minPlausibleLength       = 50
	maxPlausibleLength       = 5000
	specialCharPenaltyWeight = 20.0
)

// receiptKeywords are counted once each, case-insensitive.
var receiptKeywords = []string{
	"total", "subtotal", "tax", "amount", "receipt", "invoice", "date", "time",
}

// moneyTokenPattern matches a currency symbol followed by a number, or a
// bare number with exactly two fraction digits.
var moneyTokenPattern = regexp.MustCompile(`[$€£]\s*\d+(?:[.,]\d{1,2})?|\b\d{1,6}[.,]\d{2}\b`)

// Score rates raw recognition output on a 0-100 scale. The base is the
// engine's self-reported confidence; bonuses reward receipt-shaped content
// (monetary tokens, domain keywords, plausible length) and a penalty
// punishes garbled output. The result is non-decreasing in
// engineConfidence for fixed text.
func Score(text string, engineConfidence float64) float64 {
	score := engineConfidence

	if moneyTokenPattern.MatchString(text) {
		score += moneyTokenBonus
	}

	lower := strings.ToLower(text)
	for _, kw := range receiptKeywords {
		if strings.Contains(lower, kw) {
			score += keywordBonus
		}
	}

	if n := utf8.RuneCountInString(text); n >= minPlausibleLength && n <= maxPlausibleLength {
		score += plausibleLengthBonus
	}

	score -= math.Round(specialCharPenaltyWeight * specialCharRatio(text))

	return math.Max(0, math.Min(100, score))
}

// specialCharRatio is the fraction of runes outside letters, digits,
// whitespace, and common receipt punctuation.
func specialCharRatio(text string) float64 {
	if text == "" {
		return 0
	}

	total, special := 0, 0
	for _, r := range text {
		total++
		if !isCommonChar(r) {
			special++
		}
	}
	return float64(special) / float64(total)
}

func isCommonChar(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
		return true
	}
	return strings.ContainsRune(`.,:;!?'"()[]$€£%/-&@#*+=`, r)
}
