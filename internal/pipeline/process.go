package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/scanbill/scanbill/internal/common"
	"github.com/scanbill/scanbill/internal/document"
	"github.com/scanbill/scanbill/internal/extract"
	"github.com/scanbill/scanbill/internal/preprocess"
	"github.com/scanbill/scanbill/internal/recognize"
)

// Retry backoff bounds.
const (
	backoffBase = 250 * time.Millisecond
	backoffCap  = 5 * time.Second
)

// Process runs one document through validation, recognition, and field
// extraction under the configured retry budget. The returned error is
// non-nil only for rejected input (*document.ValidationError); every
// other failure mode surfaces as a Result with Success=false carrying the
// best record obtained and a descriptive error string.
func (p *Pipeline) Process(ctx context.Context, doc document.Document) (*Result, error) {
	return p.ProcessWithOptions(ctx, doc, p.cfg.Options)
}

// ProcessWithOptions runs one document with per-call option overrides,
// leaving the pipeline's configured options untouched. Invalid options are
// rejected before any work starts.
func (p *Pipeline) ProcessWithOptions(ctx context.Context, doc document.Document, opts Options) (*Result, error) {
	total := common.NewTimer()

	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	p.emit(doc.Name, StageValidate, 0, "document accepted")

	var res *Result
	if doc.IsPDF() {
		var err error
		res, err = p.processPDFDoc(ctx, doc, opts)
		if err != nil {
			return nil, err
		}
	} else {
		img, err := doc.Decode()
		if err != nil {
			return nil, &document.ValidationError{Name: doc.Name, Reason: err.Error()}
		}
		res = p.processImage(ctx, doc.Name, img, opts)
	}

	res.Performance.TotalTimeMs = total.ElapsedMs()
	p.stats.record(res)
	p.emit(doc.Name, StageDone, res.Performance.AttemptsUsed, res.Error)
	return res, nil
}

// attemptOutcome is the product of one successful attempt: a scored
// recognition result and its parsed record.
type attemptOutcome struct {
	recognition *recognize.Result
	record      *extract.Record
	quality     float64
	ocrMs       int64
	parseMs     int64
}

// processImage drives the attempt state machine over one page image:
// Start -> Attempt(k) -> {Success | Retry | Exhausted}.
func (p *Pipeline) processImage(ctx context.Context, name string, img image.Image, opts Options) *Result {
	maxAttempts := opts.MaxRetries + 1

	res := &Result{Data: &extract.Record{}}
	var best *attemptOutcome
	var lastErr error

	for k := 1; k <= maxAttempts; k++ {
		final := k == maxAttempts
		res.Performance.AttemptsUsed = k
		p.emit(name, StageRecognize, k, "")

		outcome, err := p.attempt(ctx, k, img, opts)
		if err != nil {
			lastErr = err
			var te *TimeoutError
			switch {
			case errors.As(err, &te):
				slog.Warn("attempt timed out", "document", name, "attempt", k, "limit", te.Limit)
			case ctx.Err() != nil:
				// caller cancelled: no point retrying
				res.Error = fmt.Sprintf("processing cancelled: %v", ctx.Err())
				p.fillBest(res, best)
				return res
			default:
				slog.Warn("attempt failed", "document", name, "attempt", k, "error", err)
			}
			if !final && !p.waitBackoff(ctx, k) {
				res.Error = fmt.Sprintf("processing cancelled: %v", ctx.Err())
				p.fillBest(res, best)
				return res
			}
			continue
		}

		res.Performance.OCRTimeMs += outcome.ocrMs
		res.Performance.ParsingTimeMs += outcome.parseMs
		if best == nil || outcome.quality > best.quality {
			best = outcome
		}

		if acceptable(outcome.record, outcome.quality, final) {
			res.Success = true
			res.Data = outcome.record
			res.Method = outcome.recognition.Method
			res.Quality = outcome.quality
			return res
		}

		slog.Info("result below quality gate",
			"document", name,
			"attempt", k,
			"quality", outcome.quality,
			"final", final)
		lastErr = nil
		if !final && !p.waitBackoff(ctx, k) {
			res.Error = fmt.Sprintf("processing cancelled: %v", ctx.Err())
			p.fillBest(res, best)
			return res
		}
	}

	p.fillBest(res, best)
	switch {
	case best != nil:
		res.Error = fmt.Sprintf("quality %.0f below acceptance gate after %d attempts", best.quality, maxAttempts)
	case lastErr != nil:
		res.Error = fmt.Sprintf("no usable recognition result after %d attempts: %v", maxAttempts, lastErr)
	default:
		res.Error = fmt.Sprintf("no usable recognition result after %d attempts", maxAttempts)
	}
	return res
}

// fillBest copies the best extraction obtained into a failed result so
// the caller never loses the last partial record.
func (p *Pipeline) fillBest(res *Result, best *attemptOutcome) {
	if best == nil {
		return
	}
	res.Data = best.record
	res.Method = best.recognition.Method
	res.Quality = best.quality
}

// waitBackoff sleeps the exponential backoff delay before retry attempt
// k+1. It returns false when the caller's context is cancelled first.
func (p *Pipeline) waitBackoff(ctx context.Context, attempt int) bool {
	delay := common.BackoffDelay(attempt, backoffBase, backoffCap)
	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}

// attempt runs one full recognition-plus-extraction pass under the
// per-attempt deadline. The whole operation races the timer; a result
// arriving after the deadline is discarded.
func (p *Pipeline) attempt(ctx context.Context, attempt int, img image.Image, opts Options) (*attemptOutcome, error) {
	timeout := opts.Timeout()
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type payload struct {
		outcome *attemptOutcome
		err     error
	}
	done := make(chan payload, 1)
	go func() {
		out, err := p.runAttempt(attemptCtx, img, opts)
		done <- payload{outcome: out, err: err}
	}()

	select {
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TimeoutError{Attempt: attempt, Limit: timeout}
	case pl := <-done:
		if pl.err != nil && errors.Is(pl.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &TimeoutError{Attempt: attempt, Limit: timeout}
		}
		return pl.outcome, pl.err
	}
}

// runAttempt is the body of one attempt: variants, grid recognition,
// extraction, scoring.
func (p *Pipeline) runAttempt(ctx context.Context, img image.Image, opts Options) (*attemptOutcome, error) {
	ocrTimer := common.NewTimer()

	var variants []preprocess.Variant
	if opts.EnablePreprocessing {
		var err error
		variants, err = p.generator.Generate(img)
		if err != nil {
			return nil, fmt.Errorf("generate variants: %w", err)
		}
	} else {
		variants = []preprocess.Variant{{Image: img, Kind: preprocess.VariantOriginal}}
	}
	if p.cfg.SaveVariantsDir != "" {
		p.dumpVariants(variants)
	}

	bestRec, err := p.orchestrator.Run(ctx, variants)
	ocrMs := ocrTimer.ElapsedMs()
	if err != nil {
		return nil, err
	}

	parseTimer := common.NewTimer()
	record := extract.Parse(bestRec.Text)
	parseMs := parseTimer.ElapsedMs()

	return &attemptOutcome{
		recognition: bestRec,
		record:      record,
		quality:     DataQuality(record, bestRec.QualityScore),
		ocrMs:       ocrMs,
		parseMs:     parseMs,
	}, nil
}
