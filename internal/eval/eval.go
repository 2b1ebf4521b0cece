// Package eval compares recognized text against ground-truth transcripts
// using edit-distance error rates.
package eval

import (
	"strings"

	"github.com/arbovm/levenshtein"
)

// Report holds the error rates for one recognized/truth text pair. Rates
// are relative to the truth length; accuracies are the clamped
// complements, so a wildly wrong recognition scores 0 rather than a
// negative accuracy.
type Report struct {
	CER          float64 `json:"cer"`
	WER          float64 `json:"wer"`
	CharAccuracy float64 `json:"charAccuracy"`
	WordAccuracy float64 `json:"wordAccuracy"`
	CharDistance int     `json:"charDistance"`
	WordDistance int     `json:"wordDistance"`
	TruthChars   int     `json:"truthChars"`
	TruthWords   int     `json:"truthWords"`
}

// Evaluate computes character and word error rates of got against truth.
// Comparison is case-insensitive with whitespace runs collapsed, so
// layout differences between recognition output and transcript do not
// count as errors.
func Evaluate(got, truth string) Report {
	gotNorm := normalizeText(got)
	truthNorm := normalizeText(truth)

	rep := Report{
		CharDistance: levenshtein.Distance(gotNorm, truthNorm),
		TruthChars:   len([]rune(truthNorm)),
	}

	gotWords := strings.Fields(gotNorm)
	truthWords := strings.Fields(truthNorm)
	rep.WordDistance = wordDistance(gotWords, truthWords)
	rep.TruthWords = len(truthWords)

	rep.CER = errorRate(rep.CharDistance, rep.TruthChars, len([]rune(gotNorm)))
	rep.WER = errorRate(rep.WordDistance, rep.TruthWords, len(gotWords))
	rep.CharAccuracy = clampAccuracy(rep.CER)
	rep.WordAccuracy = clampAccuracy(rep.WER)
	return rep
}

// normalizeText lowercases and collapses all whitespace runs to single
// spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// wordDistance computes the edit distance over word tokens. Each distinct
// word is mapped onto a private-use rune so the same string-level
// algorithm applies at the token level.
func wordDistance(got, truth []string) int {
	if len(got) == 0 {
		return len(truth)
	}
	if len(truth) == 0 {
		return len(got)
	}

	alphabet := make(map[string]rune, len(got)+len(truth))
	next := rune(0xE000) // private use area
	encode := func(words []string) string {
		var sb strings.Builder
		for _, w := range words {
			r, ok := alphabet[w]
			if !ok {
				r = next
				next++
				alphabet[w] = r
			}
			sb.WriteRune(r)
		}
		return sb.String()
	}

	return levenshtein.Distance(encode(got), encode(truth))
}

// errorRate divides distance by the truth length. An empty truth scores
// 0 when the recognition is also empty and 1 otherwise.
func errorRate(distance, truthLen, gotLen int) float64 {
	if truthLen == 0 {
		if gotLen == 0 {
			return 0
		}
		return 1
	}
	return float64(distance) / float64(truthLen)
}

func clampAccuracy(rate float64) float64 {
	acc := 1 - rate
	if acc < 0 {
		return 0
	}
	return acc
}
