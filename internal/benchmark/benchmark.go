// Package benchmark measures the throughput of individual pipeline stages
// and of full document digitization runs.
package benchmark

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/scanbill/scanbill/internal/common"
	"github.com/scanbill/scanbill/internal/document"
	"github.com/scanbill/scanbill/internal/extract"
	"github.com/scanbill/scanbill/internal/pipeline"
	"github.com/scanbill/scanbill/internal/preprocess"
)

// Benchmark is a named operation to measure.
type Benchmark struct {
	Name string
	Func func() error
}

// Suite manages a set of benchmarks and their results.
type Suite struct {
	benchmarks []Benchmark
	results    []common.BenchmarkResult
	mu         sync.Mutex
}

// NewSuite creates an empty benchmark suite.
func NewSuite() *Suite {
	return &Suite{}
}

// Add registers a benchmark under the given name.
func (s *Suite) Add(name string, fn func() error) {
	s.benchmarks = append(s.benchmarks, Benchmark{Name: name, Func: fn})
}

// Run executes a single named benchmark with the given iteration count.
func (s *Suite) Run(name string, iterations int) common.BenchmarkResult {
	for _, b := range s.benchmarks {
		if b.Name == name {
			return s.runBenchmark(b, iterations)
		}
	}
	return common.BenchmarkResult{
		Name:  name,
		Error: fmt.Errorf("benchmark '%s' not found", name),
	}
}

// RunAll executes every registered benchmark in registration order.
func (s *Suite) RunAll(iterations int) []common.BenchmarkResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = make([]common.BenchmarkResult, 0, len(s.benchmarks))
	for _, b := range s.benchmarks {
		s.results = append(s.results, s.runBenchmark(b, iterations))
	}
	return s.results
}

func (s *Suite) runBenchmark(b Benchmark, iterations int) common.BenchmarkResult {
	// Collect before measuring so prior allocations don't skew the delta.
	runtime.GC()
	memBefore := common.GetMemoryStats()

	timer := common.NewNamedTimer(b.Name)
	var err error
	for range iterations {
		if e := b.Func(); e != nil {
			err = e
			break
		}
	}
	duration := timer.Stop()
	memAfter := common.GetMemoryStats()

	return common.BenchmarkResult{
		Name:         b.Name,
		Duration:     duration,
		MemoryBefore: memBefore,
		MemoryAfter:  memAfter,
		Iterations:   iterations,
		Error:        err,
	}
}

// Results returns the results of the last RunAll call.
func (s *Suite) Results() []common.BenchmarkResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// PrintResults prints formatted benchmark results to stdout.
func (s *Suite) PrintResults() {
	fmt.Println("\nBenchmark Results:")
	fmt.Println("==================")
	for _, result := range s.Results() {
		fmt.Println(result.String())
	}
	fmt.Println()
}

// PreprocessBenchmark returns a benchmark function that generates the
// configured image variants from src.
func PreprocessBenchmark(src image.Image, cfg preprocess.Config) (func() error, error) {
	gen, err := preprocess.NewGenerator(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build variant generator: %w", err)
	}
	return func() error {
		_, err := gen.Generate(src)
		return err
	}, nil
}

// ExtractionBenchmark returns a benchmark function that parses rawText into
// a structured record.
func ExtractionBenchmark(rawText string) func() error {
	return func() error {
		rec := extract.Parse(rawText)
		if rec == nil {
			return fmt.Errorf("extraction returned no record")
		}
		return nil
	}
}

// DocumentBenchmark returns a benchmark function running the full pipeline
// over doc. Failed runs are not errors here; only pipeline-level failures
// abort the benchmark.
func DocumentBenchmark(ctx context.Context, pl *pipeline.Pipeline, doc document.Document) func() error {
	return func() error {
		_, err := pl.Process(ctx, doc)
		return err
	}
}

// PipelineSuite builds a suite covering preprocessing, extraction, and the
// end-to-end run for one document.
func PipelineSuite(ctx context.Context, pl *pipeline.Pipeline, doc document.Document, src image.Image, rawText string) (*Suite, error) {
	suite := NewSuite()

	prep, err := PreprocessBenchmark(src, pl.Config().Preprocess)
	if err != nil {
		return nil, err
	}
	suite.Add("preprocess/variants", prep)
	suite.Add("extract/parse", ExtractionBenchmark(rawText))
	suite.Add("pipeline/document", DocumentBenchmark(ctx, pl, doc))
	return suite, nil
}
