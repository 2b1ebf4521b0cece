package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"

	"github.com/scanbill/scanbill/internal/benchmark"
	"github.com/scanbill/scanbill/internal/common"
	"github.com/scanbill/scanbill/internal/document"
	"github.com/scanbill/scanbill/internal/pipeline"
	"github.com/scanbill/scanbill/internal/testutil"
	"github.com/scanbill/scanbill/internal/utils"
)

func main() {
	var (
		inputFile  = flag.String("input", "", "Receipt image to benchmark (synthetic receipt when empty)")
		truthFile  = flag.String("truth", "", "Ground-truth transcript for the extraction benchmark")
		iterations = flag.Int("iterations", 3, "Number of iterations per benchmark")
		outputFile = flag.String("output", "", "Output file for results (optional)")
		fast       = flag.Bool("fast", false, "Use the fast pipeline profile")
	)
	flag.Parse()

	fmt.Println("scanbill Pipeline Benchmark")
	fmt.Println("===========================")

	doc, src, rawText, err := loadInput(*inputFile, *truthFile)
	if err != nil {
		log.Fatalf("Failed to prepare benchmark input: %v", err)
	}

	builder := pipeline.NewBuilder()
	if *fast {
		builder = builder.WithFastProfile()
	}
	pl, err := builder.Build()
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}
	defer func() { _ = pl.Close() }()

	suite, err := benchmark.PipelineSuite(context.Background(), pl, doc, src, rawText)
	if err != nil {
		log.Fatalf("Failed to build benchmark suite: %v", err)
	}

	fmt.Printf("Running benchmarks with %d iterations per stage...\n", *iterations)
	results := suite.RunAll(*iterations)
	suite.PrintResults()

	for _, res := range results {
		if res.Error != nil {
			log.Fatalf("Benchmark failed: %v", res.Error)
		}
	}

	if *outputFile != "" {
		if err := saveResults(*outputFile, results); err != nil {
			log.Printf("Failed to save results to file: %v", err)
		} else {
			fmt.Printf("Results saved to: %s\n", *outputFile)
		}
	}
}

// loadInput resolves the benchmark document, its decoded image, and the
// transcript for the extraction stage. Without -input a synthetic receipt
// is generated so the tool works out of the box.
func loadInput(inputFile, truthFile string) (document.Document, image.Image, string, error) {
	if inputFile == "" {
		src := testutil.GenerateReceiptImage(testutil.DefaultReceiptConfig())
		data, err := utils.EncodePNG(src)
		if err != nil {
			return document.Document{}, nil, "", fmt.Errorf("encode synthetic receipt: %w", err)
		}
		doc := document.Document{Name: "synthetic-receipt.png", MIME: "image/png", Data: data}
		return doc, src, testutil.SampleReceiptText(), nil
	}

	doc, err := document.FromFile(inputFile)
	if err != nil {
		return document.Document{}, nil, "", err
	}
	src, err := testutil.LoadImageFile(inputFile)
	if err != nil {
		return document.Document{}, nil, "", err
	}

	rawText := testutil.SampleReceiptText()
	if truthFile != "" {
		data, err := os.ReadFile(truthFile) //nolint:gosec // G304: user-provided transcript path is expected
		if err != nil {
			return document.Document{}, nil, "", fmt.Errorf("read transcript: %w", err)
		}
		rawText = string(data)
	}
	return doc, src, rawText, nil
}

func saveResults(filename string, results []common.BenchmarkResult) error {
	file, err := os.Create(filename) //nolint:gosec // G304: user-provided output path is expected
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, _ = fmt.Fprintln(file, "scanbill Pipeline Benchmark Results")
	_, _ = fmt.Fprintln(file, "===================================")
	for _, result := range results {
		_, _ = fmt.Fprintln(file, result.String())
	}
	return nil
}
