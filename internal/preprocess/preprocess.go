// Package preprocess generates pixel-processed variants of a source page
// image, each tuned for a different visual pathology: low contrast, noise,
// faint or thin print. The recognition orchestrator runs every variant
// through the engine and keeps the best-scoring result.
package preprocess

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// VariantKind names one pixel-level transform.
type VariantKind string

const (
	VariantEnhanced      VariantKind = "enhanced"
	VariantBlackWhite    VariantKind = "blackwhite"
	VariantSharpened     VariantKind = "sharpened"
	VariantTextOptimized VariantKind = "textOptimized"
	VariantOriginal      VariantKind = "original"
)

// AllVariantKinds lists every known kind.
var AllVariantKinds = []VariantKind{
	VariantEnhanced,
	VariantBlackWhite,
	VariantSharpened,
	VariantTextOptimized,
	VariantOriginal,
}

var variantDescriptions = map[VariantKind]string{
	VariantEnhanced:      "contrast stretch with brightness lift for washed-out scans",
	VariantBlackWhite:    "binarized for high-noise thermal paper",
	VariantSharpened:     "edge emphasis for slightly blurred photos",
	VariantTextOptimized: "asymmetric correction for thin printed text",
	VariantOriginal:      "grayscale source at target resolution",
}

// Variant is one immutable rendering of the source page. The pixel buffer is
// independent of the source and of every other variant.
type Variant struct {
	Image       image.Image
	Kind        VariantKind
	Description string
}

// Config controls variant generation.
type Config struct {
	// ScaleFactor multiplies the source width; the result is clamped to
	// [MinWidth, MaxWidth] and height follows proportionally.
	ScaleFactor float64
	MinWidth    int
	MaxWidth    int
	// Variants is the ordered set of renderings to produce.
	Variants []VariantKind
	// ThresholdMethod selects how the blackwhite variant binarizes.
	ThresholdMethod ThresholdMethod
	// ThresholdWindow is the neighborhood size for adaptive binarization.
	// Must be odd.
	ThresholdWindow int
	// ThresholdBias is subtracted from the neighborhood mean so faint
	// strokes survive binarization.
	ThresholdBias int
}

// DefaultConfig is the accuracy-oriented profile.
func DefaultConfig() Config {
	return Config{
		ScaleFactor: 2.0,
		MinWidth:    400,
		MaxWidth:    2500,
		Variants: []VariantKind{
			VariantEnhanced,
			VariantBlackWhite,
			VariantSharpened,
			VariantTextOptimized,
		},
		ThresholdMethod: ThresholdAdaptiveMean,
		ThresholdWindow: 25,
		ThresholdBias:   10,
	}
}

// FastConfig is the speed-oriented profile with a narrower resolution band.
func FastConfig() Config {
	cfg := DefaultConfig()
	cfg.ScaleFactor = 1.5
	cfg.MinWidth = 800
	cfg.MaxWidth = 1600
	return cfg
}

// Validate checks configuration consistency.
func (c Config) Validate() error {
	if c.ScaleFactor <= 0 {
		return fmt.Errorf("scale factor must be positive, got %g", c.ScaleFactor)
	}
	if c.MinWidth <= 0 || c.MaxWidth < c.MinWidth {
		return fmt.Errorf("invalid width bounds [%d, %d]", c.MinWidth, c.MaxWidth)
	}
	if len(c.Variants) == 0 {
		return errors.New("at least one variant kind required")
	}
	seen := make(map[VariantKind]bool, len(c.Variants))
	for _, k := range c.Variants {
		if _, ok := variantDescriptions[k]; !ok {
			return fmt.Errorf("unknown variant kind %q", k)
		}
		if seen[k] {
			return fmt.Errorf("duplicate variant kind %q", k)
		}
		seen[k] = true
	}
	if c.ThresholdWindow < 3 || c.ThresholdWindow%2 == 0 {
		return fmt.Errorf("threshold window must be odd and at least 3, got %d", c.ThresholdWindow)
	}
	return nil
}

// Generator produces variant sets from source images.
type Generator struct {
	cfg Config
}

// NewGenerator creates a generator with a validated configuration.
func NewGenerator(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("preprocess config: %w", err)
	}
	return &Generator{cfg: cfg}, nil
}

// Config returns the generator configuration.
func (g *Generator) Config() Config { return g.cfg }

// TargetSize returns the output dimensions for a source of the given size.
func (g *Generator) TargetSize(srcWidth, srcHeight int) (int, int) {
	w := int(math.Round(float64(srcWidth) * g.cfg.ScaleFactor))
	if w < g.cfg.MinWidth {
		w = g.cfg.MinWidth
	}
	if w > g.cfg.MaxWidth {
		w = g.cfg.MaxWidth
	}
	h := int(math.Round(float64(srcHeight) * float64(w) / float64(srcWidth)))
	if h < 1 {
		h = 1
	}
	return w, h
}

// Generate produces exactly the configured variants at the target resolution.
// The source image is never mutated; every variant owns its pixel buffer.
func (g *Generator) Generate(src image.Image) ([]Variant, error) {
	if src == nil {
		return nil, errors.New("source image is nil")
	}
	b := src.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return nil, fmt.Errorf("source image has degenerate bounds %v", b)
	}

	w, h := g.TargetSize(b.Dx(), b.Dy())
	resized := imaging.Resize(src, w, h, imaging.Lanczos)
	base := grayScratch(resized)
	defer releaseGray(base)

	variants := make([]Variant, 0, len(g.cfg.Variants))
	for _, kind := range g.cfg.Variants {
		var img *image.Gray
		switch kind {
		case VariantEnhanced:
			img = enhance(base, enhanceContrast, enhanceBrightness)
		case VariantBlackWhite:
			img = g.binarize(base)
		case VariantSharpened:
			img = sharpen(base, sharpenAmount)
		case VariantTextOptimized:
			img = textOptimize(base)
		case VariantOriginal:
			img = cloneGray(base)
		default:
			return nil, fmt.Errorf("unknown variant kind %q", kind)
		}
		variants = append(variants, Variant{
			Image:       img,
			Kind:        kind,
			Description: variantDescriptions[kind],
		})
	}
	return variants, nil
}

// binarize applies the configured thresholding method.
func (g *Generator) binarize(src *image.Gray) *image.Gray {
	switch g.cfg.ThresholdMethod {
	case ThresholdAdaptiveMean:
		return adaptiveMeanBinarize(src, g.cfg.ThresholdWindow, g.cfg.ThresholdBias)
	default:
		t := clampThreshold(otsuThreshold(histogram(src)))
		return fixedBinarize(src, t)
	}
}
