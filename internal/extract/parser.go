package extract

import (
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	maxOverflowLines     = 10
	consistencyTolerance = 0.1
)

// parseState carries one parse through the strategy chain. used marks
// lines a strategy consumed so later strategies leave them alone.
type parseState struct {
	rec   *Record
	lines []string
	used  []bool
}

// Parse converts recognized text into a structured record. Strategies run
// in fixed order, each filling only fields not already set: rule tables,
// contextual vendor/address, fuzzy keyword recovery, amount resolution,
// line items, then overflow capture. Parse never fails; a text with
// nothing recognizable yields a record carrying only the raw text.
func Parse(rawText string) *Record {
	rec := &Record{RawText: rawText}
	lines := splitLines(Clean(rawText))
	if len(lines) == 0 {
		return rec
	}

	s := &parseState{rec: rec, lines: lines, used: make([]bool, len(lines))}
	joined := strings.Join(lines, "\n")

	s.applyRules()
	s.applyVendor()
	s.applyFuzzy()
	s.resolveAmounts(joined)
	s.applyLineItems()
	s.applyOverflow()
	s.postProcess()

	return rec
}

// markOffset flags the line containing a byte offset of the joined text.
func (s *parseState) markOffset(joined string, offset int) {
	if offset < 0 || offset > len(joined) {
		return
	}
	idx := strings.Count(joined[:offset], "\n")
	if idx < len(s.used) {
		s.used[idx] = true
	}
}

// applyOverflow keeps the remaining substantial lines, in document order,
// up to a fixed number of slots.
func (s *parseState) applyOverflow() {
	for i, line := range s.lines {
		if len(s.rec.Overflow) >= maxOverflowLines {
			return
		}
		if s.used[i] || !substantialLine(line) {
			continue
		}
		s.rec.Overflow = append(s.rec.Overflow, line)
	}
}

func substantialLine(line string) bool {
	if len([]rune(line)) < 4 {
		return false
	}
	return hasLetters(line, 2)
}

// postProcess checks monetary consistency (log-only quality signal) and
// tidies the vendor name.
func (s *parseState) postProcess() {
	rec := s.rec
	if rec.Vendor != "" {
		rec.Vendor = cleanVendor(rec.Vendor)
	}
	rec.Currency = strings.ToUpper(rec.Currency)

	if rec.Subtotal > 0 && rec.Tax > 0 && rec.Total > 0 {
		sum := decimal.NewFromFloat(rec.Subtotal).Add(decimal.NewFromFloat(rec.Tax))
		total := decimal.NewFromFloat(rec.Total)
		diff := sum.Sub(total).Abs()
		tolerance := total.Mul(decimal.NewFromFloat(consistencyTolerance))
		if diff.GreaterThan(tolerance) {
			slog.Warn("subtotal plus tax deviates from total",
				"subtotal", rec.Subtotal,
				"tax", rec.Tax,
				"total", rec.Total)
		}
	}
}
