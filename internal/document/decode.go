package document

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gen2brain/heic"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode turns a validated raster document into an image. PDF documents are
// not handled here; they go through the pdf package page by page.
func (d Document) Decode() (image.Image, error) {
	mime := NormalizeMIME(d.MIME, d.Data)
	if mime == MIMEPDF {
		return nil, &ValidationError{Name: d.Name, Reason: "PDF documents must be rasterized page by page"}
	}
	if mime == MIMEHEIC || mime == MIMEHEIF {
		img, err := heic.Decode(bytes.NewReader(d.Data))
		if err != nil {
			return nil, fmt.Errorf("decode HEIC image: %w", err)
		}
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(d.Data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
