package pdf

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// RenderPages rasterizes up to MaxPages pages at RenderScale times the 72 DPI
// base resolution and returns them in page order.
func (p *Processor) RenderPages(data []byte) ([]image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open PDF for rendering: %w", err)
	}
	defer func() { _ = doc.Close() }()

	n := doc.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}
	if n > p.cfg.MaxPages {
		n = p.cfg.MaxPages
	}

	dpi := 72.0 * p.cfg.RenderScale
	pages := make([]image.Image, 0, n)
	for i := range n {
		img, err := doc.ImageDPI(i, dpi)
		if err != nil {
			return nil, fmt.Errorf("render PDF page %d: %w", i+1, err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}

// RenderPage rasterizes a single zero-based page.
func (p *Processor) RenderPage(data []byte, pageIndex int) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open PDF for rendering: %w", err)
	}
	defer func() { _ = doc.Close() }()

	if pageIndex < 0 || pageIndex >= doc.NumPage() {
		return nil, fmt.Errorf("page index %d out of range (%d pages)", pageIndex, doc.NumPage())
	}
	img, err := doc.ImageDPI(pageIndex, 72.0*p.cfg.RenderScale)
	if err != nil {
		return nil, fmt.Errorf("render PDF page %d: %w", pageIndex+1, err)
	}
	return img, nil
}
