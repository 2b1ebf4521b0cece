package pipeline

import (
	"math"

	"github.com/scanbill/scanbill/internal/extract"
)

// Quality gate thresholds. A record must clear the retry gate to be
// accepted early; the final attempt accepts down to the exhausted gate so
// a mediocre extraction still beats none.
const (
	qualityGateRetry    = 60.0
	qualityGateFinal    = 30.0
	minAcceptableText   = 20
	consistencyRelTol   = 0.1
	confidenceBonusStep = 0.05
)

// Field presence weights. Total, vendor, and date carry the record's
// value downstream; the rest are supporting evidence.
const (
	weightTotal    = 30.0
	weightVendor   = 25.0
	weightDate     = 15.0
	weightSubtotal = 5.0
	weightTax      = 5.0
	weightItems    = 5.0
	weightInvoice  = 5.0
	weightAddress  = 5.0
	consistencyBonus = 5.0
)

// DataQuality rates an extracted record 0-100. Presence of the core
// fields dominates; an internally consistent monetary triple and a high
// recognition score add bounded bonuses.
func DataQuality(rec *extract.Record, recognitionScore float64) float64 {
	if rec == nil {
		return 0
	}

	score := 0.0
	if rec.HasTotal() {
		score += weightTotal
	}
	if rec.HasVendor() {
		score += weightVendor
	}
	if rec.Date != "" {
		score += weightDate
	}
	if rec.Subtotal > 0 {
		score += weightSubtotal
	}
	if rec.Tax > 0 {
		score += weightTax
	}
	if len(rec.Items) > 0 {
		score += weightItems
	}
	if rec.InvoiceNumber != "" {
		score += weightInvoice
	}
	if rec.VendorAddress != "" {
		score += weightAddress
	}
	if monetaryConsistent(rec) {
		score += consistencyBonus
	}
	score += confidenceBonusStep * math.Max(0, math.Min(100, recognitionScore))

	return math.Max(0, math.Min(100, score))
}

// monetaryConsistent reports whether subtotal + tax lands within 10% of
// the total. Only meaningful when all three are present.
func monetaryConsistent(rec *extract.Record) bool {
	if rec.Subtotal <= 0 || rec.Tax <= 0 || rec.Total <= 0 {
		return false
	}
	return math.Abs(rec.Subtotal+rec.Tax-rec.Total) <= consistencyRelTol*rec.Total
}

// acceptable decides whether a record ends the retry loop. The final
// attempt uses the lower gate; both gates additionally require a total or
// vendor and a minimum of raw text.
func acceptable(rec *extract.Record, quality float64, finalAttempt bool) bool {
	if rec == nil {
		return false
	}
	if !rec.HasTotal() && !rec.HasVendor() {
		return false
	}
	if len(rec.RawText) < minAcceptableText {
		return false
	}
	gate := qualityGateRetry
	if finalAttempt {
		gate = qualityGateFinal
	}
	return quality >= gate
}
