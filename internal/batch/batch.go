// Package batch processes directories of scanned documents through the
// digitization pipeline with a bounded worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProcessBatch discovers documents under the given paths and processes
// them with the configured worker pool.
func ProcessBatch(ctx context.Context, paths []string, cfg *Config) (*Result, error) {
	cfg.applyDefaults()

	files, err := discoverDocuments(paths, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover documents: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no document files found")
	}

	startTime := time.Now()
	items, err := processDocuments(ctx, files, cfg)
	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}

	result := &Result{
		Items:       items,
		Duration:    time.Since(startTime),
		WorkerCount: cfg.Workers,
	}

	if cfg.OutputDir != "" {
		if err := writeIndividualResults(items, cfg.OutputDir); err != nil {
			return result, err
		}
	}

	return result, nil
}
