// Package pipeline wires variant generation, recognition, and field
// extraction into a bounded-retry, timeout-guarded processing loop. One
// Pipeline owns one recognition engine session and processes documents
// strictly sequentially; callers wanting throughput run one Pipeline per
// worker.
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/scanbill/scanbill/internal/extract"
)

// Options are the caller-tunable processing knobs. All fields have
// defaults; zero values are replaced by them during validation.
type Options struct {
	// MaxRetries is the number of additional attempts after the first
	// one, so a document sees at most MaxRetries+1 attempts.
	MaxRetries int
	// TimeoutMs bounds one attempt end to end; the attempt's result is
	// discarded when the timer wins.
	TimeoutMs int
	// EnablePreprocessing toggles the variant generator. Disabled, the
	// engine sees only the grayscale source at target resolution.
	EnablePreprocessing bool
}

// DefaultOptions returns the default processing options.
func DefaultOptions() Options {
	return Options{
		MaxRetries:          2,
		TimeoutMs:           60000,
		EnablePreprocessing: true,
	}
}

// Timeout returns the per-attempt deadline as a duration.
func (o Options) Timeout() time.Duration {
	return time.Duration(o.TimeoutMs) * time.Millisecond
}

// Validate checks option bounds.
func (o Options) Validate() error {
	if o.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0, got %d", o.MaxRetries)
	}
	if o.TimeoutMs <= 0 {
		return fmt.Errorf("timeout must be positive, got %dms", o.TimeoutMs)
	}
	return nil
}

// ApplyMap folds a loosely typed option map (JSON request bodies, form
// fields) into the options. Recognized keys are maxRetries, timeoutMs, and
// enablePreprocessing; unknown keys are ignored, never errors.
func (o *Options) ApplyMap(m map[string]any) {
	for key, raw := range m {
		switch key {
		case "maxRetries":
			if v, ok := toInt(raw); ok && v >= 0 {
				o.MaxRetries = v
			}
		case "timeoutMs":
			if v, ok := toInt(raw); ok && v > 0 {
				o.TimeoutMs = v
			}
		case "enablePreprocessing":
			if v, ok := toBool(raw); ok {
				o.EnablePreprocessing = v
			}
		}
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		var parsed int
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%d", &parsed); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes", "on":
			return true, true
		case "false", "0", "no", "off":
			return false, true
		}
	}
	return false, false
}

// Performance carries the per-document timing breakdown.
type Performance struct {
	TotalTimeMs   int64 `json:"totalTimeMs"`
	OCRTimeMs     int64 `json:"ocrTimeMs"`
	ParsingTimeMs int64 `json:"parsingTimeMs"`
	AttemptsUsed  int   `json:"attemptsUsed"`
}

// Result is the outcome of processing one document. Data is never nil:
// even a failed run carries the best record obtained, or an empty one
// when no attempt produced text.
type Result struct {
	Success     bool            `json:"success"`
	Data        *extract.Record `json:"data"`
	Error       string          `json:"error,omitempty"`
	Method      string          `json:"method,omitempty"`
	Quality     float64         `json:"quality"`
	Performance Performance     `json:"performance"`
}

// TimeoutError reports an attempt that exceeded its deadline. It counts
// against the retry budget and is recovered by the controller.
type TimeoutError struct {
	Attempt int
	Limit   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("attempt %d exceeded %s deadline", e.Attempt, e.Limit)
}
