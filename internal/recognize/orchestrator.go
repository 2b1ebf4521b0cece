package recognize

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/scanbill/scanbill/internal/common"
	"github.com/scanbill/scanbill/internal/engine"
	"github.com/scanbill/scanbill/internal/preprocess"
)

// ErrNoUsableResult indicates that no recognition attempt produced text.
var ErrNoUsableResult = errors.New("no usable recognition result")

// Engine runs one recognition pass. *engine.Tesseract implements it; tests
// substitute fakes.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, rc engine.RecognitionConfig) (engine.RawResult, error)
}

// Orchestrator drives the variant x configuration grid through the engine
// strictly sequentially and keeps the best-scoring attempt.
type Orchestrator struct {
	engine  Engine
	configs []engine.RecognitionConfig
}

// NewOrchestrator creates an orchestrator. An empty config slice selects
// the full catalog.
func NewOrchestrator(eng Engine, configs []engine.RecognitionConfig) (*Orchestrator, error) {
	if eng == nil {
		return nil, errors.New("engine is required")
	}
	if len(configs) == 0 {
		configs = engine.Catalog()
	}
	return &Orchestrator{engine: eng, configs: configs}, nil
}

// Configs returns the configurations the orchestrator cycles through.
func (o *Orchestrator) Configs() []engine.RecognitionConfig {
	return o.configs
}

// Run tries every variant with every configuration, scoring each attempt,
// and returns the result with the strictly highest score (the first such
// result on ties). Attempt failures are logged and skipped; empty-text
// attempts are discarded. The error is ErrNoUsableResult when the whole
// grid yields nothing, or the context error when the deadline cuts the
// grid short.
func (o *Orchestrator) Run(ctx context.Context, variants []preprocess.Variant) (*Result, error) {
	if len(variants) == 0 {
		return nil, errors.New("no variants to recognize")
	}

	var best *Result
	for _, v := range variants {
		for _, rc := range o.configs {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("recognition aborted: %w", err)
			}

			method := fmt.Sprintf("%s+%s", v.Kind, rc.Name)
			timer := common.NewNamedTimer(method)
			raw, err := o.engine.Recognize(ctx, v.Image, rc)
			elapsed := timer.Stop()

			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("recognition aborted: %w", ctx.Err())
				}
				slog.Warn("recognition attempt failed",
					"variant", string(v.Kind),
					"config", rc.Name,
					"error", err)
				continue
			}
			if raw.Text == "" {
				slog.Debug("recognition attempt produced no text",
					"variant", string(v.Kind),
					"config", rc.Name)
				continue
			}

			result := Result{
				Text:             raw.Text,
				EngineConfidence: raw.Confidence,
				QualityScore:     Score(raw.Text, raw.Confidence),
				Method:           method,
				ProcessingTimeMs: elapsed.Milliseconds(),
			}
			slog.Debug("recognition attempt scored",
				"method", method,
				"confidence", result.EngineConfidence,
				"score", result.QualityScore,
				"chars", len(result.Text))

			if best == nil || result.QualityScore > best.QualityScore {
				best = &result
			}
		}
	}

	if best == nil {
		return nil, ErrNoUsableResult
	}
	return best, nil
}
