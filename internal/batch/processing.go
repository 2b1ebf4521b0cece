package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/scanbill/scanbill/internal/document"
	"github.com/scanbill/scanbill/internal/pipeline"
)

// processDocuments runs the worker pool over the discovered files. Each
// worker builds its own pipeline so recognition sessions never run
// concurrently. Item order follows the input order regardless of which
// worker finished first.
func processDocuments(ctx context.Context, paths []string, cfg *Config) ([]Item, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make([]Item, len(paths))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	workers := cfg.Workers
	if workers > len(paths) {
		workers = len(paths)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			pl, err := cfg.NewPipeline()
			if err != nil {
				fail(fmt.Errorf("failed to build pipeline: %w", err))
				return
			}
			defer func() {
				if cerr := pl.Close(); cerr != nil {
					slog.Warn("failed to close pipeline", "error", cerr)
				}
			}()

			for idx := range jobs {
				item := processDocument(ctx, pl, paths[idx], cfg.Options)
				items[idx] = item

				if item.Error != "" && !cfg.ContinueOnError {
					fail(fmt.Errorf("%s: %s", item.Path, item.Error))
					return
				}
				if cfg.ShowProgress && !cfg.Quiet {
					slog.Info("document processed",
						"file", item.Path,
						"success", !item.Failed(),
						"duration_ms", item.DurationMs)
				}
			}
		}()
	}

feed:
	for i := range paths {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return items, nil
}

// processDocument runs one file through a pipeline. Errors are recorded
// in-band; quality failures come back as unsuccessful results, not
// errors.
func processDocument(ctx context.Context, pl *pipeline.Pipeline, path string, opts pipeline.Options) Item {
	start := time.Now()
	item := Item{Path: path}

	doc, err := document.FromFile(path)
	if err != nil {
		item.Error = err.Error()
		item.DurationMs = time.Since(start).Milliseconds()
		return item
	}

	res, err := pl.ProcessWithOptions(ctx, doc, opts)
	if err != nil {
		item.Error = err.Error()
	} else {
		item.Result = res
	}
	item.DurationMs = time.Since(start).Milliseconds()
	return item
}

// writeIndividualResults writes one JSON result file per processed
// document into dir, named after the input file.
func writeIndividualResults(items []Item, dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, item := range items {
		base := filepath.Base(item.Path)
		name := strings.TrimSuffix(base, filepath.Ext(base)) + ".json"

		data, err := json.MarshalIndent(item, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result for %s: %w", item.Path, err)
		}
		outPath := filepath.Join(dir, name)
		if err := os.WriteFile(outPath, data, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}
	}
	return nil
}
