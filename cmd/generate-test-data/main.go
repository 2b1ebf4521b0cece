package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/scanbill/scanbill/internal/testutil"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		generateImages   = flag.Bool("images", true, "Generate synthetic receipt images")
		generateFixtures = flag.Bool("fixtures", true, "Generate ground-truth fixtures")
		verbose          = flag.Bool("v", false, "Verbose output")
		help             = flag.Bool("h", false, "Show help")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate synthetic receipt test data for scanbill.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(os.Stderr, "  %s                 # Generate all test data\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -fixtures=false # Generate only images\n", os.Args[0])
	}

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	slog.Info("Starting test data generation")

	root, err := testutil.GetProjectRoot()
	if err != nil {
		slog.Error("Failed to find project root", "error", err)
		os.Exit(1)
	}
	if *verbose {
		slog.Info("Project root", "path", root)
	}

	testdata := filepath.Join(root, "testdata")

	if *generateImages {
		if err := writeReceiptImages(filepath.Join(testdata, "images", "receipts")); err != nil {
			slog.Error("Failed to generate receipt images", "error", err)
			os.Exit(1)
		}
		slog.Info("Generated synthetic receipt images")
	}

	if *generateFixtures {
		if err := writeFixtures(filepath.Join(testdata, "fixtures")); err != nil {
			slog.Error("Failed to generate fixtures", "error", err)
			os.Exit(1)
		}
		slog.Info("Generated ground-truth fixtures")
	}

	slog.Info("Test data generation completed")
}

// writeReceiptImages renders the sample receipt in several capture
// conditions: clean, skewed, and speckled scans.
func writeReceiptImages(dir string) error {
	variants := []struct {
		name     string
		rotation float64
		noise    float64
	}{
		{"receipt_clean", 0, 0},
		{"receipt_skewed_2deg", 2, 0},
		{"receipt_skewed_neg3deg", -3, 0},
		{"receipt_noisy", 0, 0.01},
		{"receipt_skewed_noisy", 2, 0.02},
	}

	for _, v := range variants {
		cfg := testutil.DefaultReceiptConfig()
		cfg.Rotation = v.rotation
		cfg.NoiseLevel = v.noise
		cfg.NoiseSeed = 1

		img := testutil.GenerateReceiptImage(cfg)
		path := filepath.Join(dir, v.name+".png")
		if err := testutil.SaveReceiptPNG(img, path); err != nil {
			return fmt.Errorf("failed to save %s: %w", v.name, err)
		}
	}
	return nil
}

// writeFixtures writes receipt fixtures pairing each image with its
// transcript and expected field values.
func writeFixtures(dir string) error {
	fixtures := []testutil.Fixture{
		testutil.SampleFixture(),
		{
			Name:       "corner-store",
			ImageFile:  "corner-store.png",
			Transcript: "CORNER STORE\nDate: 01/15/2025\nCoffee 2.50\nBagel 1.75\nSubtotal: 4.25\nTax: 0.34\nTotal: $4.59",
			Expected: testutil.Expected{
				Vendor:   "CORNER STORE",
				Date:     "01/15/2025",
				Subtotal: 4.25,
				Tax:      0.34,
				Total:    4.59,
				Currency: "USD",
			},
		},
	}

	for _, fx := range fixtures {
		if err := testutil.WriteFixture(dir, fx, testutil.DefaultReceiptConfig()); err != nil {
			return fmt.Errorf("failed to write fixture '%s': %w", fx.Name, err)
		}
	}
	return nil
}
