package extract

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPattern matches currency-shaped tokens: an optional symbol, digit
// groups with either separator convention, and an optional fraction part.
var amountPattern = regexp.MustCompile(`[$€£]\s?\d+(?:[.,]\d{3})*(?:[.,]\d{1,2})?|\b\d+(?:[.,]\d{3})*[.,]\d{2}\b`)

// trailingNumberPattern anchors a currency-shaped or bare numeric token at
// the end of a line.
var trailingNumberPattern = regexp.MustCompile(`[$€£]?\s?\d+(?:[.,]\d{3})*(?:[.,]\d{1,2})?\s*$`)

const contextWindow = 50

// ParseAmount converts a recognized monetary token to a non-negative
// 2-decimal value. Both separator conventions are understood: "1.234,56"
// and "1,234.56" are 1234.56, "64,00" is 64.00. Parsing an already
// normalized value returns it unchanged.
func ParseAmount(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', ' ', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if cleaned == "" || strings.ContainsRune(cleaned, '-') {
		return 0, false
	}

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// European: dots group thousands, comma is the decimal mark
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		if len(cleaned)-lastComma-1 == 3 {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		} else {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		}
	case lastDot >= 0:
		if len(cleaned)-lastDot-1 == 3 {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil || d.IsNegative() {
		return 0, false
	}
	value, _ := d.Round(2).Float64()
	return value, true
}

// amountCandidate is one currency-shaped token located in the text.
type amountCandidate struct {
	value      float64
	token      string
	field      string // "total", "subtotal", "tax", or "" when context gave no hint
	confidence float64
	offset     int // byte offset into the searched text
}

// collectAmounts finds every currency-shaped token and tags it with a
// confidence derived from surrounding keywords and format regularity.
func collectAmounts(text string) []amountCandidate {
	matches := amountPattern.FindAllStringIndex(text, -1)
	if matches == nil {
		return nil
	}

	candidates := make([]amountCandidate, 0, len(matches))
	for _, loc := range matches {
		token := text[loc[0]:loc[1]]
		value, ok := ParseAmount(token)
		if !ok || value == 0 {
			continue
		}

		c := amountCandidate{
			value:      value,
			token:      token,
			offset:     loc[0],
			confidence: 0.5,
		}
		if strings.ContainsAny(token, "$€£") {
			c.confidence += 0.1
		}
		if exactTwoFractionDigits(token) {
			c.confidence += 0.1
		}

		lo := loc[0] - contextWindow
		if lo < 0 {
			lo = 0
		}
		hi := loc[1] + contextWindow
		if hi > len(text) {
			hi = len(text)
		}
		window := strings.ToLower(text[lo:hi])
		c.field = classifyAmountContext(window, loc[0]-lo, loc[1]-lo)
		if c.field != "" {
			c.confidence += 0.3
		}
		candidates = append(candidates, c)
	}
	return candidates
}

type fieldKeywords struct {
	field    string
	keywords []string
}

// amountContexts in tie-break order: subtotal outranks total because one
// contains the other.
var amountContexts = []fieldKeywords{
	{"subtotal", []string{"subtotal", "sub total", "sub-total"}},
	{"tax", []string{"tax", "vat", "gst", "hst"}},
	{"total", []string{"total", "amount due", "balance due"}},
}

// classifyAmountContext picks the field whose keyword occurrence sits
// nearest the token span inside the window. A keyword after the token
// counts one character farther than one before it, since labels normally
// precede their amounts.
func classifyAmountContext(window string, tokenStart, tokenEnd int) string {
	bestField := ""
	bestDist := contextWindow + 2
	for _, fc := range amountContexts {
		for _, kw := range fc.keywords {
			for from := 0; ; {
				i := strings.Index(window[from:], kw)
				if i < 0 {
					break
				}
				kwStart := from + i
				kwEnd := kwStart + len(kw)

				var d int
				switch {
				case kwEnd <= tokenStart:
					d = tokenStart - kwEnd
				case tokenEnd <= kwStart:
					d = kwStart - tokenEnd + 1
				default:
					d = 0
				}
				if d < bestDist {
					bestDist = d
					bestField = fc.field
				}
				from = kwStart + 1
			}
		}
	}
	return bestField
}

// resolveAmounts fills subtotal, tax, total, and currency from the
// collected candidates. Fields already set by an earlier strategy are left
// alone. When no candidate carries total context, the highest-confidence
// unassigned candidate becomes the total.
func (s *parseState) resolveAmounts(text string) {
	candidates := collectAmounts(text)
	if len(candidates) == 0 {
		return
	}

	assigned := make([]bool, len(candidates))
	if s.rec.Subtotal == 0 {
		if i := bestCandidate(candidates, assigned, "subtotal"); i >= 0 {
			s.rec.Subtotal = candidates[i].value
			assigned[i] = true
			s.markOffset(text, candidates[i].offset)
		}
	}
	if s.rec.Tax == 0 {
		if i := bestCandidate(candidates, assigned, "tax"); i >= 0 {
			s.rec.Tax = candidates[i].value
			assigned[i] = true
			s.markOffset(text, candidates[i].offset)
		}
	}
	if s.rec.Total == 0 {
		i := bestCandidate(candidates, assigned, "total")
		if i < 0 {
			i = bestCandidate(candidates, assigned, "")
			if i >= 0 {
				slog.Debug("no contextual total, falling back to best unassigned amount",
					"value", candidates[i].value)
			}
		}
		if i >= 0 {
			s.rec.Total = candidates[i].value
			assigned[i] = true
			s.markOffset(text, candidates[i].offset)
		}
	}

	if s.rec.Currency == "" {
		s.rec.Currency = inferCurrency(candidates)
	}
}

// bestCandidate returns the index of the highest-confidence unassigned
// candidate whose context matches field (first wins ties), or -1.
func bestCandidate(candidates []amountCandidate, assigned []bool, field string) int {
	best := -1
	for i, c := range candidates {
		if assigned[i] || c.field != field {
			continue
		}
		if best < 0 || c.confidence > candidates[best].confidence {
			best = i
		}
	}
	return best
}

// inferCurrency prefers an explicit symbol; failing that, a comma-decimal
// token implies EUR and a dot-decimal token USD.
func inferCurrency(candidates []amountCandidate) string {
	for _, c := range candidates {
		switch {
		case strings.Contains(c.token, "$"):
			return "USD"
		case strings.Contains(c.token, "€"):
			return "EUR"
		case strings.Contains(c.token, "£"):
			return "GBP"
		}
	}
	for _, c := range candidates {
		if i := strings.LastIndexAny(c.token, ".,"); i >= 0 && len(c.token)-i-1 == 2 {
			if c.token[i] == ',' {
				return "EUR"
			}
			return "USD"
		}
	}
	return ""
}

func exactTwoFractionDigits(token string) bool {
	i := strings.LastIndexAny(token, ".,")
	return i >= 0 && len(token)-i-1 == 2
}
