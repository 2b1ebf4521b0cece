package pipeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanbill/scanbill/internal/extract"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 2, opts.MaxRetries)
	assert.Equal(t, 60000, opts.TimeoutMs)
	assert.True(t, opts.EnablePreprocessing)
	assert.Equal(t, time.Minute, opts.Timeout())
	require.NoError(t, opts.Validate())
}

func TestOptionsValidate(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxRetries = -1
	assert.Error(t, opts.Validate())

	opts = DefaultOptions()
	opts.TimeoutMs = 0
	assert.Error(t, opts.Validate())

	opts.TimeoutMs = -100
	assert.Error(t, opts.Validate())
}

func TestOptionsApplyMap(t *testing.T) {
	opts := DefaultOptions()
	opts.ApplyMap(map[string]any{
		"maxRetries":          float64(5), // JSON numbers decode as float64
		"timeoutMs":           "1500",
		"enablePreprocessing": "false",
	})
	assert.Equal(t, 5, opts.MaxRetries)
	assert.Equal(t, 1500, opts.TimeoutMs)
	assert.False(t, opts.EnablePreprocessing)
}

func TestOptionsApplyMapIgnoresUnknownAndInvalid(t *testing.T) {
	opts := DefaultOptions()
	opts.ApplyMap(map[string]any{
		"maxRetries":   -3,
		"timeoutMs":    "not a number",
		"someFuture":   true,
		"nestedObject": map[string]any{"x": 1},
	})
	assert.Equal(t, DefaultOptions(), opts)
}

func TestOptionsApplyMapBoolSpellings(t *testing.T) {
	for _, s := range []string{"true", "1", "yes", "on"} {
		opts := Options{MaxRetries: 0, TimeoutMs: 100}
		opts.ApplyMap(map[string]any{"enablePreprocessing": s})
		assert.True(t, opts.EnablePreprocessing, s)
	}
	for _, s := range []string{"false", "0", "no", "off"} {
		opts := Options{MaxRetries: 0, TimeoutMs: 100, EnablePreprocessing: true}
		opts.ApplyMap(map[string]any{"enablePreprocessing": s})
		assert.False(t, opts.EnablePreprocessing, s)
	}
}

func TestResultJSONShape(t *testing.T) {
	res := Result{
		Success: true,
		Data:    &extract.Record{Vendor: "ACME", Total: 17.81, Currency: "USD", RawText: "TOTAL 17.81"},
		Quality: 87.5,
		Performance: Performance{
			TotalTimeMs:   1200,
			OCRTimeMs:     900,
			ParsingTimeMs: 15,
			AttemptsUsed:  1,
		},
	}

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	assert.Equal(t, true, m["success"])
	assert.NotContains(t, m, "error") // omitted when empty
	perf, ok := m["performance"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1200), perf["totalTimeMs"])
	assert.Equal(t, float64(900), perf["ocrTimeMs"])
	assert.Equal(t, float64(15), perf["parsingTimeMs"])
	assert.Equal(t, float64(1), perf["attemptsUsed"])
}

func TestTimeoutErrorMessage(t *testing.T) {
	err := &TimeoutError{Attempt: 2, Limit: 30 * time.Second}
	assert.Equal(t, "attempt 2 exceeded 30s deadline", err.Error())
}
