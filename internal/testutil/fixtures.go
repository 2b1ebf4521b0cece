package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Fixture pairs a receipt image with its ground truth: the exact transcript
// and the field values a correct extraction should produce.
type Fixture struct {
	Name       string   `json:"name"`
	ImageFile  string   `json:"imageFile"`
	Transcript string   `json:"transcript"`
	Expected   Expected `json:"expected"`
}

// Expected holds the field-level ground truth for a fixture.
type Expected struct {
	Vendor   string  `json:"vendor,omitempty"`
	Date     string  `json:"date,omitempty"`
	Subtotal float64 `json:"subtotal,omitempty"`
	Tax      float64 `json:"tax,omitempty"`
	Total    float64 `json:"total,omitempty"`
	Currency string  `json:"currency,omitempty"`
}

// SampleFixture returns the ground truth matching SampleReceiptLines.
func SampleFixture() Fixture {
	return Fixture{
		Name:       "acme-hardware",
		ImageFile:  "acme-hardware.png",
		Transcript: SampleReceiptText(),
		Expected: Expected{
			Vendor:   "ACME HARDWARE",
			Date:     "12/25/2024",
			Subtotal: 16.49,
			Tax:      1.32,
			Total:    17.81,
			Currency: "USD",
		},
	}
}

// WriteFixture renders the fixture's image next to a <name>.json ground-truth
// file inside dir. The transcript is taken from the fixture, the image from
// cfg with cfg.Lines replaced by the transcript lines.
func WriteFixture(dir string, fx Fixture, cfg ReceiptConfig) error {
	if err := EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create fixture directory: %w", err)
	}
	cfg.Lines = strings.Split(fx.Transcript, "\n")
	img := GenerateReceiptImage(cfg)
	if err := SaveReceiptPNG(img, filepath.Join(dir, fx.ImageFile)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(fx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal fixture: %w", err)
	}
	metaPath := filepath.Join(dir, fx.Name+".json")
	if err := os.WriteFile(metaPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write fixture metadata: %w", err)
	}
	return nil
}

// LoadFixture reads a fixture metadata file written by WriteFixture.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: controlled test data path
	if err != nil {
		return Fixture{}, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	var fx Fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return Fixture{}, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return fx, nil
}

// LoadFixtures loads every *.json fixture in dir, sorted by file name.
func LoadFixtures(dir string) ([]Fixture, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list fixtures: %w", err)
	}
	fixtures := make([]Fixture, 0, len(paths))
	for _, p := range paths {
		fx, err := LoadFixture(p)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, fx)
	}
	return fixtures, nil
}
