package preprocess

import (
	"image"

	"github.com/scanbill/scanbill/internal/mempool"
)

// ThresholdMethod selects how the blackwhite variant picks its cutoff.
type ThresholdMethod int

const (
	// ThresholdOtsu derives one global threshold from the histogram.
	ThresholdOtsu ThresholdMethod = iota
	// ThresholdAdaptiveMean thresholds each pixel against its neighborhood
	// average, which survives uneven lighting on photographed receipts.
	ThresholdAdaptiveMean
)

// Effective thresholds are bounded so a skewed histogram can never produce a
// degenerate all-black or all-white page.
const (
	thresholdFloor = 80
	thresholdCeil  = 200
)

func clampThreshold(t uint8) uint8 {
	if t < thresholdFloor {
		return thresholdFloor
	}
	if t > thresholdCeil {
		return thresholdCeil
	}
	return t
}

// histogram counts pixel intensities.
func histogram(src *image.Gray) [256]int {
	var hist [256]int
	for _, v := range src.Pix {
		hist[v]++
	}
	return hist
}

// otsuThreshold finds the intensity that maximizes between-class variance.
func otsuThreshold(hist [256]int) uint8 {
	total := 0
	for _, c := range hist {
		total += c
	}
	if total == 0 {
		return 128
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	var maxVariance float64
	best := 128
	for i, c := range hist {
		wB += float64(c)
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(c)
		mB := sumB / wB
		mF := (sum - sumB) / wF
		variance := wB * wF * (mB - mF) * (mB - mF)
		if variance > maxVariance {
			maxVariance = variance
			best = i
		}
	}
	return uint8(best) //nolint:gosec // G115: histogram index is within [0,255]
}

// adaptiveMeanBinarize thresholds each pixel against the mean of its
// surrounding window minus a bias. An integral image keeps the window sum
// O(1) per pixel; the scratch table comes from the buffer pool.
func adaptiveMeanBinarize(src *image.Gray, window, bias int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(src.Bounds())

	integral := mempool.GetUint64((w + 1) * (h + 1))
	defer mempool.PutUint64(integral)

	stride := w + 1
	for y := range h {
		var rowSum uint64
		for x := range w {
			rowSum += uint64(src.Pix[y*src.Stride+x])
			integral[(y+1)*stride+(x+1)] = integral[y*stride+(x+1)] + rowSum
		}
	}

	half := window / 2
	for y := range h {
		y0 := max(y-half, 0)
		y1 := min(y+half+1, h)
		for x := range w {
			x0 := max(x-half, 0)
			x1 := min(x+half+1, w)

			area := uint64((y1 - y0) * (x1 - x0)) //nolint:gosec // G115: area is positive
			sum := integral[y1*stride+x1] - integral[y0*stride+x1] -
				integral[y1*stride+x0] + integral[y0*stride+x0]
			mean := int(sum / area)

			t := clampThreshold(clampByte(mean - bias))
			if src.Pix[y*src.Stride+x] < t {
				dst.Pix[y*dst.Stride+x] = 0
			} else {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}
