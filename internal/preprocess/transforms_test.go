package preprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grayWith(values ...uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, len(values), 1))
	copy(g.Pix, values)
	return g
}

func TestGrayScratchLumaWeights(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 1))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 255, 0, 255})
	img.Set(2, 0, color.RGBA{0, 0, 255, 255})
	img.Set(3, 0, color.RGBA{255, 255, 255, 255})

	g := grayScratch(img)
	defer releaseGray(g)
	assert.Equal(t, uint8(76), g.Pix[0])  // red
	assert.Equal(t, uint8(150), g.Pix[1]) // green
	assert.Equal(t, uint8(29), g.Pix[2])  // blue
	assert.Equal(t, uint8(255), g.Pix[3]) // white
}

func TestGrayScratchOverwritesPooledBuffer(t *testing.T) {
	// A recycled buffer must not leak pixels from an earlier conversion.
	first := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range first.Pix {
		first.Pix[i] = 255
	}
	g1 := grayScratch(first)
	releaseGray(g1)

	second := image.NewRGBA(image.Rect(0, 0, 8, 8)) // all black, alpha zero
	g2 := grayScratch(second)
	defer releaseGray(g2)
	for i, v := range g2.Pix {
		require.Equal(t, uint8(0), v, "pixel %d holds stale data", i)
	}
}

func TestCloneGrayIndependence(t *testing.T) {
	src := grayWith(10, 20, 30)
	dst := cloneGray(src)
	require.Equal(t, src.Pix, dst.Pix)

	dst.Pix[0] = 99
	assert.Equal(t, uint8(10), src.Pix[0])
}

func TestEnhance(t *testing.T) {
	src := grayWith(0, 128, 255, 100)
	dst := enhance(src, 1.3, 15)

	assert.Equal(t, uint8(0), dst.Pix[0])   // clamped low
	assert.Equal(t, uint8(143), dst.Pix[1]) // midpoint plus brightness
	assert.Equal(t, uint8(255), dst.Pix[2]) // clamped high
	// (100-128)*1.3 = -36.4 -> -36, +128+15
	assert.Equal(t, uint8(107), dst.Pix[3])
}

func TestSharpen(t *testing.T) {
	src := grayWith(128, 100, 200, 0, 255)
	dst := sharpen(src, 0.8)

	assert.Equal(t, uint8(128), dst.Pix[0]) // mid-gray unchanged
	assert.Equal(t, uint8(78), dst.Pix[1])  // 100 + (-28*0.8 -> -22)
	assert.Equal(t, uint8(255), dst.Pix[2]) // 200 + 57 clamps
	assert.Equal(t, uint8(0), dst.Pix[3])
	assert.Equal(t, uint8(255), dst.Pix[4])
}

func TestTextOptimize(t *testing.T) {
	src := grayWith(80, 200, 130, 150, 110, 0, 255)
	dst := textOptimize(src)

	assert.Equal(t, uint8(50), dst.Pix[0])  // dark band: 80*3/4 - 10
	assert.Equal(t, uint8(225), dst.Pix[1]) // light band: 200 + 25
	assert.Equal(t, uint8(130), dst.Pix[2]) // mid center fixpoint
	assert.Equal(t, uint8(162), dst.Pix[3]) // mid band stretched up
	assert.Equal(t, uint8(98), dst.Pix[4])  // mid band stretched down
	assert.Equal(t, uint8(0), dst.Pix[5])   // clamped low
	assert.Equal(t, uint8(255), dst.Pix[6]) // clamped high
}

func TestFixedBinarize(t *testing.T) {
	src := grayWith(0, 99, 100, 101, 255)
	dst := fixedBinarize(src, 100)

	assert.Equal(t, uint8(0), dst.Pix[0])
	assert.Equal(t, uint8(0), dst.Pix[1])
	assert.Equal(t, uint8(255), dst.Pix[2])
	assert.Equal(t, uint8(255), dst.Pix[3])
	assert.Equal(t, uint8(255), dst.Pix[4])
}

func TestTransformsPreserveSource(t *testing.T) {
	src := grayWith(10, 90, 130, 180, 250)
	want := make([]uint8, len(src.Pix))
	copy(want, src.Pix)

	_ = enhance(src, 1.3, 15)
	_ = sharpen(src, 0.8)
	_ = textOptimize(src)
	_ = fixedBinarize(src, 128)
	_ = adaptiveMeanBinarize(src, 3, 10)

	assert.Equal(t, want, src.Pix)
}

func TestClampByte(t *testing.T) {
	assert.Equal(t, uint8(0), clampByte(-50))
	assert.Equal(t, uint8(0), clampByte(0))
	assert.Equal(t, uint8(200), clampByte(200))
	assert.Equal(t, uint8(255), clampByte(255))
	assert.Equal(t, uint8(255), clampByte(300))
}
