package preprocess

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampThreshold(t *testing.T) {
	assert.Equal(t, uint8(80), clampThreshold(10))
	assert.Equal(t, uint8(80), clampThreshold(80))
	assert.Equal(t, uint8(128), clampThreshold(128))
	assert.Equal(t, uint8(200), clampThreshold(200))
	assert.Equal(t, uint8(200), clampThreshold(250))
}

func TestHistogram(t *testing.T) {
	src := grayWith(0, 0, 128, 255, 255, 255)
	hist := histogram(src)
	assert.Equal(t, 2, hist[0])
	assert.Equal(t, 1, hist[128])
	assert.Equal(t, 3, hist[255])
	assert.Equal(t, 0, hist[100])
}

func TestOtsuThresholdBimodal(t *testing.T) {
	var hist [256]int
	hist[50] = 100
	hist[200] = 100

	threshold := otsuThreshold(hist)
	assert.GreaterOrEqual(t, threshold, uint8(50))
	assert.Less(t, threshold, uint8(200))
}

func TestOtsuThresholdEmpty(t *testing.T) {
	var hist [256]int
	assert.Equal(t, uint8(128), otsuThreshold(hist))
}

func TestAdaptiveMeanBinarizeSeparatesInkFromPaper(t *testing.T) {
	const size = 21
	src := image.NewGray(image.Rect(0, 0, size, size))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	// 5x5 ink blob in the center
	for y := 8; y < 13; y++ {
		for x := 8; x < 13; x++ {
			src.Pix[y*src.Stride+x] = 0
		}
	}

	dst := adaptiveMeanBinarize(src, 5, 10)

	assert.Equal(t, uint8(0), dst.Pix[10*dst.Stride+10], "blob center stays ink")
	assert.Equal(t, uint8(255), dst.Pix[0], "far corner stays paper")
	assert.Equal(t, uint8(255), dst.Pix[20*dst.Stride+20], "opposite corner stays paper")
}

func TestAdaptiveMeanBinarizeUniformPaper(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 15, 15))
	for i := range src.Pix {
		src.Pix[i] = 255
	}

	dst := adaptiveMeanBinarize(src, 5, 10)
	for i, v := range dst.Pix {
		require.Equal(t, uint8(255), v, "pixel %d flipped on blank page", i)
	}
}

func TestGeneratorBinarizeOtsuMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ThresholdMethod = ThresholdOtsu
	cfg.MinWidth = 50
	cfg.MaxWidth = 300
	g, err := NewGenerator(cfg)
	require.NoError(t, err)

	variants, err := g.Generate(testSourceImage(100, 80))
	require.NoError(t, err)

	for _, v := range variants {
		if v.Kind != VariantBlackWhite {
			continue
		}
		img, ok := v.Image.(*image.Gray)
		require.True(t, ok)
		for _, p := range img.Pix {
			require.True(t, p == 0 || p == 255, "binarized pixel %d not black or white", p)
		}
	}
}
