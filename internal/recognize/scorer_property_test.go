package recognize

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestScore_MonotonicInConfidence verifies the score never drops when only
// the engine confidence rises.
func TestScore_MonotonicInConfidence(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("score is non-decreasing in confidence", prop.ForAll(
		func(text string, c1, c2 float64) bool {
			lo, hi := c1, c2
			if lo > hi {
				lo, hi = hi, lo
			}
			return Score(text, lo) <= Score(text, hi)
		},
		gen.AnyString(),
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}

// TestScore_WithinBounds verifies the score always lands in [0, 100].
func TestScore_WithinBounds(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("score stays within [0, 100]", prop.ForAll(
		func(text string, conf float64) bool {
			s := Score(text, conf)
			return s >= 0 && s <= 100
		},
		gen.AnyString(),
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}
