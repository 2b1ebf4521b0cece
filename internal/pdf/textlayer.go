package pdf

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dslipak/pdf"
)

// PageText is the embedded text layer of one page.
type PageText struct {
	Page      int
	Text      string
	WordCount int
	Usable    bool
}

// ExtractTextLayer pulls the embedded text layer of every page, best effort.
// Pages that fail to parse are skipped with a debug log entry; an image-only
// PDF yields entries with empty text. The returned slice is in page order and
// capped at MaxPages.
func (p *Processor) ExtractTextLayer(data []byte) ([]PageText, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF text layer: %w", err)
	}

	n := reader.NumPage()
	if n > p.cfg.MaxPages {
		n = p.cfg.MaxPages
	}

	results := make([]PageText, 0, n)
	for pageNum := 1; pageNum <= n; pageNum++ {
		text, err := p.extractPage(reader, pageNum)
		if err != nil {
			slog.Debug("text layer extraction failed", "page", pageNum, "error", err)
			results = append(results, PageText{Page: pageNum})
			continue
		}
		pt := PageText{
			Page:      pageNum,
			Text:      text,
			WordCount: len(strings.Fields(text)),
		}
		pt.Usable = p.TextUsable(pt.Text)
		results = append(results, pt)
	}
	return results, nil
}

func (p *Processor) extractPage(reader *pdf.Reader, pageNum int) (string, error) {
	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d is null", pageNum)
	}

	// Row extraction preserves the line structure the field parser depends
	// on. Plain text is the fallback for pages without row info.
	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		var b strings.Builder
		for _, row := range rows {
			for i, text := range row.Content {
				if i > 0 {
					b.WriteString(" ")
				}
				b.WriteString(text.S)
			}
			b.WriteString("\n")
		}
		return b.String(), nil
	}

	fonts := make(map[string]*pdf.Font)
	plain, err := page.GetPlainText(fonts)
	if err != nil {
		return "", fmt.Errorf("plain text extraction: %w", err)
	}
	return plain, nil
}

// TextUsable reports whether an embedded text layer is substantial enough to
// parse directly instead of rasterizing and recognizing the page.
func (p *Processor) TextUsable(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < p.cfg.MinTextChars {
		return false
	}
	if len(strings.Fields(trimmed)) < p.cfg.MinTextWords {
		return false
	}
	letters := 0
	for _, r := range trimmed {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			letters++
		}
	}
	return float64(letters)/float64(len([]rune(trimmed))) >= 0.4
}
