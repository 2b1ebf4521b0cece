package extract

import (
	"regexp"
	"strings"
	"unicode"
)

const vendorScanDepth = 5

var (
	vendorLabelPattern = regexp.MustCompile(`(?i)^(?:vendor|from|supplier|merchant|sold by|billed from)\s*[:#]?\s+(.+)$`)
	headerPattern      = regexp.MustCompile(`(?i)^(?:receipt|invoice|tax invoice|order|statement|estimate|quote|welcome|thank(?:s| you))\b`)
	urlPattern         = regexp.MustCompile(`(?i)\b(?:www\.|https?://)\S+`)
	streetPattern      = regexp.MustCompile(`(?i)\b\d{1,5}\s+\S+.*\b(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|way|court|ct|plaza|suite|ste)\b\.?`)
	postalPattern      = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b|(?i)\b[a-z]\d[a-z]\s?\d[a-z]\d\b`)
	statePattern       = regexp.MustCompile(`,\s*[A-Z]{2}\b`)
)

// applyVendor fills vendor and address. Vendor prefers an explicit label;
// otherwise the first of the opening lines that is not boilerplate and
// looks like a business name. Address wants a street line followed by a
// city/postal line, or one line carrying both.
func (s *parseState) applyVendor() {
	if s.rec.Vendor == "" {
		s.findVendor()
	}
	if s.rec.VendorAddress == "" {
		s.findAddress()
	}
}

func (s *parseState) findVendor() {
	for i, line := range s.lines {
		if m := vendorLabelPattern.FindStringSubmatch(line); m != nil {
			if name := cleanVendor(m[1]); name != "" {
				s.rec.Vendor = name
				s.used[i] = true
				return
			}
		}
	}

	depth := vendorScanDepth
	if depth > len(s.lines) {
		depth = len(s.lines)
	}
	for i := range depth {
		line := s.lines[i]
		if isBoilerplate(line) || !looksLikeBusinessName(line) {
			continue
		}
		s.rec.Vendor = cleanVendor(line)
		s.used[i] = true
		return
	}
}

func (s *parseState) findAddress() {
	for i := 0; i < len(s.lines)-1; i++ {
		if streetPattern.MatchString(s.lines[i]) && cityLine(s.lines[i+1]) {
			s.rec.VendorAddress = s.lines[i] + ", " + s.lines[i+1]
			s.used[i] = true
			s.used[i+1] = true
			return
		}
	}
	for i, line := range s.lines {
		if streetPattern.MatchString(line) && postalPattern.MatchString(line) {
			s.rec.VendorAddress = line
			s.used[i] = true
			return
		}
	}
}

func cityLine(line string) bool {
	return postalPattern.MatchString(line) || statePattern.MatchString(line)
}

// isBoilerplate recognizes lines that open a receipt but never name the
// business: headers, dates, amount rows, contact lines.
func isBoilerplate(line string) bool {
	if headerPattern.MatchString(line) {
		return true
	}
	if amountPattern.MatchString(line) {
		return true
	}
	if _, ok := NormalizeDate(line); ok {
		return true
	}
	if numericDatePattern.MatchString(strings.TrimSpace(line)) {
		return true
	}
	if urlPattern.MatchString(line) {
		return true
	}
	if strings.Contains(line, "@") {
		return true
	}
	if streetPattern.MatchString(line) {
		return true
	}
	return false
}

func looksLikeBusinessName(line string) bool {
	n := len([]rune(line))
	if n < 3 || n > 60 {
		return false
	}
	letters := 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 2 && float64(letters)/float64(n) >= 0.5
}

// cleanVendor strips characters that cannot appear in a business name and
// collapses the leftovers.
func cleanVendor(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("&'.,- ", r) {
			b.WriteRune(r)
		}
	}
	cleaned := spaceRuns.ReplaceAllString(b.String(), " ")
	return strings.Trim(cleaned, " .,-&")
}
