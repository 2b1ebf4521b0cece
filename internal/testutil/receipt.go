package testutil

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // decoder registration for LoadImageFile
	"image/png"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ReceiptConfig describes a synthetic receipt image.
type ReceiptConfig struct {
	Lines      []string
	Width      int
	Margin     int
	Background color.Color
	Foreground color.Color
	FontFace   font.Face
	Rotation   float64 // degrees, skew simulation
	NoiseLevel float64 // 0..1 fraction of speckled pixels
	NoiseSeed  int64
}

// DefaultReceiptConfig returns a clean thermal-receipt style configuration
// with a canonical hardware store receipt.
func DefaultReceiptConfig() ReceiptConfig {
	return ReceiptConfig{
		Lines:      SampleReceiptLines(),
		Width:      360,
		Margin:     16,
		Background: color.White,
		Foreground: color.Black,
		FontFace:   basicfont.Face7x13,
	}
}

// SampleReceiptLines returns the canonical receipt transcript used across
// tests: a vendor header, line items, and a consistent monetary block.
func SampleReceiptLines() []string {
	return []string{
		"ACME HARDWARE",
		"123 Main Street",
		"Date: 12/25/2024  Time: 14:32",
		"",
		"Wood screws 50pk      4.99",
		"Paint brush 2in       6.50",
		"Sandpaper asst        5.00",
		"",
		"Subtotal:            16.49",
		"Tax:                  1.32",
		"Total:              $17.81",
		"",
		"Thank you for shopping!",
	}
}

// SampleReceiptText returns the sample receipt as one transcript string.
func SampleReceiptText() string {
	text := ""
	for i, line := range SampleReceiptLines() {
		if i > 0 {
			text += "\n"
		}
		text += line
	}
	return text
}

// GenerateReceiptImage renders the configured lines into a receipt-shaped
// image. Height follows the line count.
func GenerateReceiptImage(cfg ReceiptConfig) *image.RGBA {
	face := cfg.FontFace
	if face == nil {
		face = basicfont.Face7x13
	}
	lineHeight := face.Metrics().Height.Ceil() + 2
	height := cfg.Margin*2 + lineHeight*len(cfg.Lines)
	if height < lineHeight {
		height = lineHeight
	}

	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{cfg.Background}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{cfg.Foreground},
		Face: face,
	}
	for i, line := range cfg.Lines {
		if line == "" {
			continue
		}
		y := cfg.Margin + (i+1)*lineHeight
		drawer.Dot = fixed.P(cfg.Margin, y)
		drawer.DrawString(line)
	}

	out := img
	if cfg.Rotation != 0 {
		rotated := imaging.Rotate(img, cfg.Rotation, cfg.Background)
		out = image.NewRGBA(rotated.Bounds())
		draw.Draw(out, out.Bounds(), rotated, rotated.Bounds().Min, draw.Src)
	}
	if cfg.NoiseLevel > 0 {
		out = speckle(out, cfg.NoiseLevel, cfg.NoiseSeed)
	}
	return out
}

// speckle flips a random fraction of pixels to simulate scan artifacts.
func speckle(img *image.RGBA, level float64, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic test noise, not crypto
	bounds := img.Bounds()
	noisy := image.NewRGBA(bounds)
	draw.Draw(noisy, bounds, img, bounds.Min, draw.Src)

	total := bounds.Dx() * bounds.Dy()
	flips := int(float64(total) * level)
	for range flips {
		x := bounds.Min.X + rng.Intn(bounds.Dx())
		y := bounds.Min.Y + rng.Intn(bounds.Dy())
		r, g, b, a := noisy.At(x, y).RGBA()
		noisy.Set(x, y, color.RGBA64{
			R: uint16(65535 - r), //nolint:gosec // G115: RGBA() values are 16-bit
			G: uint16(65535 - g), //nolint:gosec
			B: uint16(65535 - b), //nolint:gosec
			A: uint16(a),         //nolint:gosec
		})
	}
	return noisy
}

// SaveReceiptPNG writes an image as PNG, creating parent directories.
func SaveReceiptPNG(img image.Image, path string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path) //nolint:gosec // G304: controlled test data path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// LoadImageFile decodes an image from disk.
func LoadImageFile(path string) (image.Image, error) {
	file, err := os.Open(path) //nolint:gosec // G304: controlled test data path
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
