package extract

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// glyphReplacements maps typographic and OCR-noise glyphs to plain ASCII.
var glyphReplacements = map[string]string{
	"‘": "'",  // ‘
	"’": "'",  // ’
	"‚": "'",  // ‚
	"“": "\"", // “
	"”": "\"", // ”
	"„": "\"", // „
	"–": "-",  // en dash
	"—": "-",  // em dash
	" ": " ",  // non-breaking space
	" ": " ",  // thin space
}

var (
	spacedCurrency = regexp.MustCompile(`([$€£])\s+(\d)`)
	brokenDecimalA = regexp.MustCompile(`(\d)\s+([.,])\s*(\d{2})\b`)
	brokenDecimalB = regexp.MustCompile(`(\d)([.,])\s+(\d{2})\b`)
	spaceRuns      = regexp.MustCompile(`[^\S\n]+`)
)

// Clean normalizes raw recognition output before parsing: NFC
// normalization, glyph replacements, zero-width and control character
// removal, decimal-separator artifact repair, spaced currency symbols
// tightened, and runs of spaces and tabs collapsed. Newlines survive so
// the text still splits into lines.
func Clean(text string) string {
	if text == "" {
		return text
	}

	text = norm.NFC.String(text)
	text = removeZeroWidth(text)
	text = removeControlChars(text)
	for k, v := range glyphReplacements {
		text = strings.ReplaceAll(text, k, v)
	}
	text = spacedCurrency.ReplaceAllString(text, "$1$2")
	text = brokenDecimalA.ReplaceAllString(text, "$1$2$3")
	text = brokenDecimalB.ReplaceAllString(text, "$1$2$3")
	text = spaceRuns.ReplaceAllString(text, " ")

	return text
}

// splitLines returns the trimmed non-empty lines of cleaned text.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func removeZeroWidth(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\ufeff':
			// skip
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func removeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
