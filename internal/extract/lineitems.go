package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount caps keep obviously-misread numbers out of the item list. Lines
// with an explicit quantity earn the looser bound.
const (
	maxQuantityItemAmount = 1000.0
	maxBareItemAmount     = 250.0
	maxItemQuantity       = 100
)

var (
	quantityItemPattern = regexp.MustCompile(`^(\d{1,3})\s*[xX@*]\s*(.{3,60}?)\s+([$€£]?\s?\d+(?:[.,]\d{3})*[.,]\d{2})\s*$`)
	bareItemPattern     = regexp.MustCompile(`^(.{3,60}?)\s+([$€£]?\s?\d+(?:[.,]\d{3})*[.,]\d{2})\s*$`)
	itemExclusions      = regexp.MustCompile(`(?i)\b(?:total|subtotal|tax|vat|gst|hst|change|cash|card|credit|debit|balance|payment|tender|due|tip|discount|refund)\b`)
)

// applyLineItems collects description-plus-amount rows that were not
// claimed by an earlier strategy and are not monetary summary lines.
func (s *parseState) applyLineItems() {
	for i, line := range s.lines {
		if s.used[i] {
			continue
		}
		if item, ok := parseLineItem(line); ok {
			s.rec.Items = append(s.rec.Items, item)
			s.used[i] = true
		}
	}
}

func parseLineItem(line string) (LineItem, bool) {
	if itemExclusions.MatchString(line) {
		return LineItem{}, false
	}
	if _, ok := NormalizeDate(strings.TrimSpace(line)); ok {
		return LineItem{}, false
	}

	if m := quantityItemPattern.FindStringSubmatch(line); m != nil {
		qty := float64(atoi(m[1]))
		amount, ok := ParseAmount(m[3])
		if !ok || qty <= 0 || qty > maxItemQuantity {
			return LineItem{}, false
		}
		if amount <= 0 || amount >= maxQuantityItemAmount {
			return LineItem{}, false
		}
		desc := strings.TrimSpace(m[2])
		if desc == "" {
			return LineItem{}, false
		}
		return LineItem{
			Description: desc,
			Quantity:    qty,
			UnitPrice:   unitPrice(amount, qty),
			Amount:      amount,
		}, true
	}

	if m := bareItemPattern.FindStringSubmatch(line); m != nil {
		amount, ok := ParseAmount(m[2])
		if !ok || amount <= 0 || amount >= maxBareItemAmount {
			return LineItem{}, false
		}
		desc := strings.TrimSpace(strings.TrimRight(m[1], " .·:"))
		if desc == "" || !hasLetters(desc, 2) {
			return LineItem{}, false
		}
		return LineItem{
			Description: desc,
			Quantity:    1,
			UnitPrice:   amount,
			Amount:      amount,
		}, true
	}

	return LineItem{}, false
}

func unitPrice(amount, qty float64) float64 {
	if qty <= 0 {
		return amount
	}
	unit := decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(qty)).Round(2)
	f, _ := unit.Float64()
	return f
}

func hasLetters(s string, min int) bool {
	count := 0
	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			count++
			if count >= min {
				return true
			}
		}
	}
	return false
}
