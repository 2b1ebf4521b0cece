package batch

import (
	"fmt"
	"os"
	"time"

	"github.com/scanbill/scanbill/internal/pipeline"
)

// Config holds all configuration for batch processing.
type Config struct {
	// Worker pool size. Each worker owns its own pipeline because a
	// recognition session is not safe for concurrent use.
	Workers int

	// Output settings
	Format     string // json, csv, text
	OutputFile string
	OutputDir  string // per-document result files, one JSON per input

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Failure handling: record errors and keep going, or stop at the
	// first failed document.
	ContinueOnError bool

	// Progress settings
	ShowProgress bool
	Quiet        bool
	ShowStats    bool

	// Per-document processing options.
	Options pipeline.Options

	// NewPipeline builds one pipeline per worker. Defaults to a
	// pipeline with default configuration.
	NewPipeline func() (*pipeline.Pipeline, error)
}

// applyDefaults fills unset fields with usable values.
func (c *Config) applyDefaults() {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Format == "" {
		c.Format = "json"
	}
	if (c.Options == pipeline.Options{}) {
		c.Options = pipeline.DefaultOptions()
	}
	if c.NewPipeline == nil {
		c.NewPipeline = func() (*pipeline.Pipeline, error) {
			return pipeline.NewBuilder().Build()
		}
	}
}

// Item is the outcome for one input document.
type Item struct {
	Path       string           `json:"file"`
	Result     *pipeline.Result `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
	DurationMs int64            `json:"durationMs"`
}

// Failed reports whether the item produced no acceptable record.
func (it Item) Failed() bool {
	return it.Error != "" || it.Result == nil || !it.Result.Success
}

// Result holds the result of batch processing.
type Result struct {
	Items       []Item
	Duration    time.Duration
	WorkerCount int
}

// Successful counts items that produced an acceptable record.
func (r *Result) Successful() int {
	n := 0
	for _, it := range r.Items {
		if !it.Failed() {
			n++
		}
	}
	return n
}

// FormatResults formats the batch processing results in the specified format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatBatchResults(r.Items, format)
}

// SaveResults saves the formatted results to a file or stdout.
func (r *Result) SaveResults(format, outputFile string, quiet bool) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(os.Stdout, "Results written to %s\n", outputFile)
		}
	} else {
		_, _ = fmt.Fprint(os.Stdout, output)
	}

	return nil
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(quiet bool) {
	if quiet {
		return
	}
	successful := r.Successful()
	avg := time.Duration(0)
	if len(r.Items) > 0 {
		avg = r.Duration / time.Duration(len(r.Items))
	}
	throughput := 0.0
	if r.Duration > 0 {
		throughput = float64(len(r.Items)) / r.Duration.Seconds()
	}
	_, _ = fmt.Fprintf(os.Stdout, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(os.Stdout, "  Total documents: %d\n", len(r.Items))
	_, _ = fmt.Fprintf(os.Stdout, "  Successful: %d\n", successful)
	_, _ = fmt.Fprintf(os.Stdout, "  Failed: %d\n", len(r.Items)-successful)
	_, _ = fmt.Fprintf(os.Stdout, "  Workers: %d\n", r.WorkerCount)
	_, _ = fmt.Fprintf(os.Stdout, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(os.Stdout, "  Avg per document: %v\n", avg.Round(time.Millisecond))
	_, _ = fmt.Fprintf(os.Stdout, "  Throughput: %.1f docs/sec\n", throughput)
}
