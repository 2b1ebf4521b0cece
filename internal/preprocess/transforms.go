package preprocess

import (
	"image"

	"github.com/scanbill/scanbill/internal/mempool"
)

// Transform tuning. Values chosen against scanned thermal receipts and phone
// photos of matte invoices.
const (
	enhanceContrast   = 1.3
	enhanceBrightness = 15
	sharpenAmount     = 0.8

	textDarkCeil   = 90
	textLightFloor = 170
	textMidCenter  = 130
	textMidGain    = 1.6
)

// toGrayInto fills dst with the 8-bit luma of src using the standard
// weights. dst must match src's size.
func toGrayInto(dst *image.Gray, src image.Image) {
	b := src.Bounds()
	for y := range b.Dy() {
		for x := range b.Dx() {
			r, g, bl, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			luma := (299*(r>>8) + 587*(g>>8) + 114*(bl>>8) + 500) / 1000
			dst.Pix[y*dst.Stride+x] = uint8(luma) //nolint:gosec // G115: luma is within [0,255]
		}
	}
}

// grayScratch converts src to grayscale on a pooled pixel buffer. The result
// is transform input only; callers must releaseGray it before returning and
// never hand it out in a Variant.
func grayScratch(src image.Image) *image.Gray {
	b := src.Bounds()
	dst := &image.Gray{
		Pix:    mempool.GetBytes(b.Dx() * b.Dy()),
		Stride: b.Dx(),
		Rect:   image.Rect(0, 0, b.Dx(), b.Dy()),
	}
	toGrayInto(dst, src)
	return dst
}

func releaseGray(g *image.Gray) {
	mempool.PutBytes(g.Pix)
}

// cloneGray returns an independent copy.
func cloneGray(src *image.Gray) *image.Gray {
	dst := image.NewGray(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// enhance stretches contrast around the midpoint and lifts brightness,
// clamped to [0, 255].
func enhance(src *image.Gray, contrast float64, brightness int) *image.Gray {
	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		stretched := int(float64(int(v)-128)*contrast) + 128 + brightness
		dst.Pix[i] = clampByte(stretched)
	}
	return dst
}

// sharpen boosts each pixel's deviation from mid-gray, emphasizing edges
// between print and paper.
func sharpen(src *image.Gray, amount float64) *image.Gray {
	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		boosted := int(v) + int(float64(int(v)-128)*amount)
		dst.Pix[i] = clampByte(boosted)
	}
	return dst
}

// textOptimize applies an asymmetric correction for thin printed text:
// already-dark strokes get darker, paper gets lighter, and the ambiguous
// mid-band is stretched apart.
func textOptimize(src *image.Gray) *image.Gray {
	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		p := int(v)
		var out int
		switch {
		case p < textDarkCeil:
			out = p*3/4 - 10
		case p > textLightFloor:
			out = p + 25
		default:
			out = textMidCenter + int(float64(p-textMidCenter)*textMidGain)
		}
		dst.Pix[i] = clampByte(out)
	}
	return dst
}

// fixedBinarize maps every pixel to black or white at one global threshold.
func fixedBinarize(src *image.Gray, threshold uint8) *image.Gray {
	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		if v < threshold {
			dst.Pix[i] = 0
		} else {
			dst.Pix[i] = 255
		}
	}
	return dst
}
