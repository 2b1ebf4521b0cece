package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/scanbill/scanbill/internal/common"
	"github.com/scanbill/scanbill/internal/document"
	"github.com/scanbill/scanbill/internal/extract"
)

// textLayerScore stands in for engine confidence when a record comes from
// an embedded text layer: the text is exact, not recognized.
const textLayerScore = 95.0

// processPDFDoc handles the page-document format: structural validation,
// the embedded-text fast path, then per-page rasterization and
// recognition with a best-page-wins merge.
func (p *Pipeline) processPDFDoc(ctx context.Context, doc document.Document, opts Options) (*Result, error) {
	info, err := p.pdf.Inspect(doc.Data)
	if err != nil {
		return nil, &document.ValidationError{Name: doc.Name, Reason: err.Error()}
	}
	if info.PageCount == 0 {
		return nil, &document.ValidationError{Name: doc.Name, Reason: "PDF has no pages"}
	}

	if res := p.tryTextLayer(doc); res != nil {
		return res, nil
	}

	pages, err := p.pdf.RenderPages(doc.Data)
	if err != nil {
		return nil, &document.ValidationError{Name: doc.Name, Reason: fmt.Sprintf("rasterize PDF: %v", err)}
	}

	var best *Result
	perf := Performance{}
	for i, img := range pages {
		if ctx.Err() != nil {
			break
		}
		pageName := fmt.Sprintf("%s page %d/%d", doc.Name, i+1, len(pages))
		p.emit(doc.Name, StagePage, 0, pageName)

		pageRes := p.processImage(ctx, pageName, img, opts)
		perf.OCRTimeMs += pageRes.Performance.OCRTimeMs
		perf.ParsingTimeMs += pageRes.Performance.ParsingTimeMs
		if pageRes.Performance.AttemptsUsed > perf.AttemptsUsed {
			perf.AttemptsUsed = pageRes.Performance.AttemptsUsed
		}

		if best == nil || betterPage(pageRes, best) {
			best = pageRes
		}
		// one clearly good page is enough for a single-record document
		if best.Success && best.Quality >= qualityGateRetry {
			break
		}
	}

	if best == nil {
		return &Result{
			Data:        &extract.Record{},
			Error:       "no PDF page produced a result",
			Performance: perf,
		}, nil
	}
	best.Performance = perf
	return best, nil
}

// betterPage prefers successful pages, then higher extraction quality.
func betterPage(candidate, current *Result) bool {
	if candidate.Success != current.Success {
		return candidate.Success
	}
	return candidate.Quality > current.Quality
}

// tryTextLayer parses the embedded text layer directly when it is usable,
// skipping recognition entirely. Returns nil when the document needs
// rasterization.
func (p *Pipeline) tryTextLayer(doc document.Document) *Result {
	pages, err := p.pdf.ExtractTextLayer(doc.Data)
	if err != nil {
		return nil
	}

	var parts []string
	for _, pt := range pages {
		if pt.Usable {
			parts = append(parts, pt.Text)
		}
	}
	if len(parts) == 0 {
		return nil
	}

	parseTimer := common.NewTimer()
	record := extract.Parse(strings.Join(parts, "\n"))
	quality := DataQuality(record, textLayerScore)
	if !acceptable(record, quality, false) {
		// thin or decorative text layer: recognition may do better
		return nil
	}

	return &Result{
		Success: true,
		Data:    record,
		Method:  "pdf-text",
		Quality: quality,
		Performance: Performance{
			ParsingTimeMs: parseTimer.ElapsedMs(),
			AttemptsUsed:  1,
		},
	}
}
