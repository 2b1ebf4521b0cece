package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/arbovm/levenshtein"
)

const fuzzyThreshold = 0.7

// fuzzyFields in match order; subtotal before total so a corrupted
// "subt0tal" is not claimed by the shorter keyword.
var fuzzyFields = []struct {
	field    string
	keywords []string
}{
	{"subtotal", []string{"subtotal", "sub total"}},
	{"tax", []string{"tax", "sales tax", "vat"}},
	{"total", []string{"total", "grand total", "amount due", "balance due"}},
}

// applyFuzzy recovers monetary labels the engine corrupted (T0TAL, tota1).
// A line qualifies when its prefix before a trailing numeric token is
// similar enough to a known keyword; the token then fills the field.
func (s *parseState) applyFuzzy() {
	for i, line := range s.lines {
		if s.used[i] {
			continue
		}
		if s.rec.Subtotal > 0 && s.rec.Tax > 0 && s.rec.Total > 0 {
			return
		}

		prefix, token, ok := splitTrailingAmount(line)
		if !ok || prefix == "" {
			continue
		}
		prefixLower := strings.ToLower(prefix)

		for _, ff := range fuzzyFields {
			if s.monetarySet(ff.field) {
				continue
			}
			if !matchesKeyword(prefixLower, ff.keywords) {
				continue
			}
			value, parsed := ParseAmount(token)
			if !parsed || value == 0 {
				break
			}
			s.setMonetary(ff.field, value)
			if s.rec.Currency == "" {
				s.rec.Currency = symbolCurrency(token)
			}
			s.used[i] = true
			break
		}
	}
}

func matchesKeyword(prefix string, keywords []string) bool {
	for _, kw := range keywords {
		if similarity(prefix, kw) >= fuzzyThreshold {
			return true
		}
	}
	return false
}

// similarity is 1 - normalized Levenshtein distance.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.Distance(a, b))/float64(longest)
}

// splitTrailingAmount separates a line into its label prefix and a
// trailing numeric token. The prefix is stripped of label punctuation.
func splitTrailingAmount(line string) (prefix, token string, ok bool) {
	loc := trailingNumberPattern.FindStringIndex(line)
	if loc == nil {
		return "", "", false
	}
	token = strings.TrimSpace(line[loc[0]:])
	prefix = strings.TrimRight(line[:loc[0]], " \t:=.-·*")
	return prefix, token, true
}

func symbolCurrency(token string) string {
	switch {
	case strings.Contains(token, "$"):
		return "USD"
	case strings.Contains(token, "€"):
		return "EUR"
	case strings.Contains(token, "£"):
		return "GBP"
	}
	return ""
}

func (s *parseState) monetarySet(field string) bool {
	switch field {
	case "subtotal":
		return s.rec.Subtotal > 0
	case "tax":
		return s.rec.Tax > 0
	default:
		return s.rec.Total > 0
	}
}

func (s *parseState) setMonetary(field string, value float64) {
	switch field {
	case "subtotal":
		s.rec.Subtotal = value
	case "tax":
		s.rec.Tax = value
	default:
		s.rec.Total = value
	}
}
