package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Config holds configuration for the recognition engine.
type Config struct {
	Languages []string // Tesseract language codes (e.g. eng, deu)
	DPI       int      // Reported source DPI (0 = engine estimates)
}

// DefaultConfig returns a default engine configuration.
func DefaultConfig() Config {
	return Config{
		Languages: []string{"eng"},
		DPI:       300,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.Languages) == 0 {
		return errors.New("at least one language is required")
	}
	for _, lang := range c.Languages {
		if strings.TrimSpace(lang) == "" {
			return errors.New("language code cannot be blank")
		}
	}
	if c.DPI < 0 {
		return fmt.Errorf("dpi must be >= 0, got %d", c.DPI)
	}
	return nil
}

// RecognitionConfig is one named engine setup. Each entry pairs a page
// segmentation mode with character-set tuning for a particular document
// layout. Whitelist is applied on every attempt; an empty whitelist clears
// any restriction left by the previous attempt. Overrides carry the same
// key set across the catalog so reconfiguring a shared session is
// deterministic.
type RecognitionConfig struct {
	Name        string
	Description string
	SegMode     gosseract.PageSegMode
	Whitelist   string
	Overrides   map[string]string
}

// Catalog returns the fixed set of recognition configurations, in attempt
// order. The returned slice is a fresh copy; callers may not rely on
// mutating it.
func Catalog() []RecognitionConfig {
	return []RecognitionConfig{
		{
			Name:        "block",
			Description: "dense uniform text block, typical thermal receipt",
			SegMode:     gosseract.PSM_SINGLE_BLOCK,
			Overrides:   map[string]string{"preserve_interword_spaces": "1"},
		},
		{
			Name:        "sparse",
			Description: "scattered text with irregular spacing",
			SegMode:     gosseract.PSM_SPARSE_TEXT,
			Overrides:   map[string]string{"preserve_interword_spaces": "0"},
		},
		{
			Name:        "column",
			Description: "single column of item lines with aligned amounts",
			SegMode:     gosseract.PSM_SINGLE_COLUMN,
			Overrides:   map[string]string{"preserve_interword_spaces": "1"},
		},
		{
			Name:        "numeric",
			Description: "amount-focused pass restricted to digits and currency marks",
			SegMode:     gosseract.PSM_SINGLE_BLOCK,
			Whitelist:   "0123456789.,:-/$€£% ",
			Overrides:   map[string]string{"preserve_interword_spaces": "0"},
		},
	}
}
