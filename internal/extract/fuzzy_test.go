package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"total", "total", 1.0},
		{"t0tal", "total", 0.8},
		{"tota1", "total", 0.8},
		{"", "", 1.0},
		{"abc", "xyz", 0.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, similarity(tt.a, tt.b), 1e-9, "%s vs %s", tt.a, tt.b)
	}
}

func TestFuzzyRecoversCorruptedTotal(t *testing.T) {
	rec := Parse("Some Shop\nT0TAL 55.00\n")
	assert.InDelta(t, 55.00, rec.Total, 1e-9)
}

func TestFuzzyRecoversCorruptedSubtotal(t *testing.T) {
	rec := Parse("Some Shop\nSubt0tal 10.00\nT0TAL 11.00\n")
	assert.InDelta(t, 10.00, rec.Subtotal, 1e-9)
	assert.InDelta(t, 11.00, rec.Total, 1e-9)
}

func TestFuzzyIgnoresDissimilarPrefix(t *testing.T) {
	rec := Parse("Some Shop\nMiscellaneous 55.00\n")
	// no fuzzy keyword claim; the amount still lands on total through
	// the unassigned-amount fallback
	assert.InDelta(t, 55.00, rec.Total, 1e-9)
	assert.Empty(t, rec.Subtotal)
	assert.Empty(t, rec.Tax)
}

func TestSplitTrailingAmount(t *testing.T) {
	prefix, token, ok := splitTrailingAmount("TOTAL: $42.50")
	require.True(t, ok)
	assert.Equal(t, "TOTAL", prefix)
	assert.Equal(t, "$42.50", token)

	_, _, ok = splitTrailingAmount("no numbers here")
	assert.False(t, ok)
}

func TestSymbolCurrency(t *testing.T) {
	assert.Equal(t, "USD", symbolCurrency("$5.00"))
	assert.Equal(t, "EUR", symbolCurrency("€5,00"))
	assert.Equal(t, "GBP", symbolCurrency("£5.00"))
	assert.Empty(t, symbolCurrency("5.00"))
}
