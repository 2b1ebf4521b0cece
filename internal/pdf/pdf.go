// Package pdf handles the page-document input format: structural validation
// and page counting via pdfcpu, embedded text layer extraction via dslipak's
// reader, and page rasterization via go-fitz. Scanned receipts arrive as
// image-only PDFs and go through rasterization plus recognition; born-digital
// invoices usually carry a text layer that can be parsed directly.
package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Config controls PDF handling.
type Config struct {
	// RenderScale multiplies the 72 DPI base resolution when rasterizing
	// pages for recognition. Useful range is 2.0 to 3.0.
	RenderScale float64
	// MaxPages bounds how many pages of one document are processed.
	MaxPages int
	// MinTextChars and MinTextWords decide when an embedded text layer is
	// usable enough to skip recognition entirely.
	MinTextChars int
	MinTextWords int
}

// DefaultConfig returns the standard PDF handling configuration.
func DefaultConfig() Config {
	return Config{
		RenderScale:  2.5,
		MaxPages:     10,
		MinTextChars: 40,
		MinTextWords: 8,
	}
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if c.RenderScale < 1.0 || c.RenderScale > 4.0 {
		return fmt.Errorf("render scale %.2f outside [1.0, 4.0]", c.RenderScale)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("max pages must be positive, got %d", c.MaxPages)
	}
	return nil
}

// Info summarizes a PDF document before processing.
type Info struct {
	PageCount int
	Encrypted bool
}

// Processor owns PDF inspection, text layer extraction, and rasterization.
type Processor struct {
	cfg Config
}

// NewProcessor creates a PDF processor.
func NewProcessor(cfg Config) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pdf config: %w", err)
	}
	return &Processor{cfg: cfg}, nil
}

// Config returns the processor configuration.
func (p *Processor) Config() Config { return p.cfg }

// Inspect validates the PDF structure and returns page count and encryption
// status. pdfcpu works on files, so the in-memory document is staged in a
// temporary file for the duration of the call.
func (p *Processor) Inspect(data []byte) (Info, error) {
	path, cleanup, err := stageTempFile(data)
	if err != nil {
		return Info{}, err
	}
	defer cleanup()

	if err := api.ValidateFile(path, nil); err != nil {
		if isEncryptionError(err) {
			return Info{Encrypted: true}, fmt.Errorf("PDF is password protected: %w", err)
		}
		return Info{}, fmt.Errorf("validate PDF: %w", err)
	}

	count, err := api.PageCountFile(path)
	if err != nil {
		if isEncryptionError(err) {
			return Info{Encrypted: true}, fmt.Errorf("PDF is password protected: %w", err)
		}
		return Info{}, fmt.Errorf("count PDF pages: %w", err)
	}
	return Info{PageCount: count}, nil
}

// isEncryptionError matches pdfcpu failures caused by password protection.
func isEncryptionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "encrypted") ||
		strings.Contains(msg, "password") ||
		strings.Contains(msg, "decrypt")
}

// stageTempFile writes data to a temporary file and returns its path plus a
// cleanup function.
func stageTempFile(data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "scanbill-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("create temp PDF: %w", err)
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp PDF: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp PDF: %w", err)
	}
	return path, cleanup, nil
}
