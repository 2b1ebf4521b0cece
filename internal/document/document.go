// Package document is the input boundary of the digitization pipeline. It
// validates uploaded or on-disk documents against the size and MIME
// allow-list, normalizes declared content types against sniffed magic bytes,
// and decodes raster images from the formats phone cameras and scanners emit.
package document

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileSize is the hard cap on document byte size. Larger documents are
// rejected before any processing begins.
const MaxFileSize = 50 << 20

// MIME types accepted by Validate. One page-document format (PDF), the rest
// raster images.
const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEWEBP = "image/webp"
	MIMEBMP  = "image/bmp"
	MIMETIFF = "image/tiff"
	MIMEHEIC = "image/heic"
	MIMEHEIF = "image/heif"
	MIMEPDF  = "application/pdf"
)

var allowedMIMETypes = map[string]bool{
	MIMEPNG:  true,
	MIMEJPEG: true,
	MIMEWEBP: true,
	MIMEBMP:  true,
	MIMETIFF: true,
	MIMEHEIC: true,
	MIMEHEIF: true,
	MIMEPDF:  true,
}

// SupportedExtensions maps file extensions to MIME types for directory
// discovery and CLI input.
var SupportedExtensions = map[string]string{
	".png":  MIMEPNG,
	".jpg":  MIMEJPEG,
	".jpeg": MIMEJPEG,
	".webp": MIMEWEBP,
	".bmp":  MIMEBMP,
	".tif":  MIMETIFF,
	".tiff": MIMETIFF,
	".heic": MIMEHEIC,
	".heif": MIMEHEIF,
	".pdf":  MIMEPDF,
}

// Document is one in-memory input to the pipeline.
type Document struct {
	Name string
	MIME string
	Data []byte
}

// ValidationError reports a rejected input document. It is fatal for the
// current call; the pipeline does not retry it.
type ValidationError struct {
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid document: %s", e.Reason)
	}
	return fmt.Sprintf("invalid document %q: %s", e.Name, e.Reason)
}

// Size returns the document byte size.
func (d Document) Size() int { return len(d.Data) }

// IsPDF reports whether the document is the page-document format.
func (d Document) IsPDF() bool { return NormalizeMIME(d.MIME, d.Data) == MIMEPDF }

// Validate checks size and MIME constraints. It must pass before any
// processing; a returned error is always a *ValidationError.
func (d Document) Validate() error {
	if len(d.Data) == 0 {
		return &ValidationError{Name: d.Name, Reason: "empty document"}
	}
	if len(d.Data) > MaxFileSize {
		return &ValidationError{
			Name:   d.Name,
			Reason: fmt.Sprintf("size %d exceeds limit of %d bytes", len(d.Data), MaxFileSize),
		}
	}
	mime := NormalizeMIME(d.MIME, d.Data)
	if !allowedMIMETypes[mime] {
		return &ValidationError{Name: d.Name, Reason: fmt.Sprintf("unsupported content type %q", d.MIME)}
	}
	if mime == MIMEPDF && !hasPDFMagic(d.Data) {
		return &ValidationError{Name: d.Name, Reason: "declared as PDF but missing PDF header"}
	}
	return nil
}

// NormalizeMIME lowercases and strips parameters from a declared content
// type, sniffs the payload when the declaration is missing or generic, and
// corrects images mislabeled by phone uploads (HEIC arriving as image/jpeg).
func NormalizeMIME(declared string, data []byte) string {
	mime := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if isHEICData(data) {
		return MIMEHEIC
	}
	if mime == "" || mime == "application/octet-stream" {
		if hasPDFMagic(data) {
			return MIMEPDF
		}
		mime = strings.ToLower(http.DetectContentType(data))
		if i := strings.Index(mime, ";"); i >= 0 {
			mime = strings.TrimSpace(mime[:i])
		}
	}
	return mime
}

// isHEICData checks for the ISO base media ftyp box with an HEIC brand.
func isHEICData(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	brand := string(data[8:12])
	return brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1"
}

func hasPDFMagic(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

// FromFile reads a document from disk, deriving the MIME type from the
// extension with a sniffing fallback for unknown extensions.
func FromFile(path string) (Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Reading user-provided document path is expected
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	mime := SupportedExtensions[strings.ToLower(filepath.Ext(path))]
	doc := Document{
		Name: filepath.Base(path),
		MIME: mime,
		Data: data,
	}
	if doc.MIME == "" {
		doc.MIME = NormalizeMIME("", data)
	}
	return doc, nil
}
