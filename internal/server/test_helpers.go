package server

import (
	"bytes"
	"context"
	"image"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/scanbill/scanbill/internal/document"
	"github.com/scanbill/scanbill/internal/extract"
	"github.com/scanbill/scanbill/internal/pipeline"
	"github.com/scanbill/scanbill/internal/utils"
)

// mockProcessor is a scripted processor implementation for handler tests.
type mockProcessor struct {
	result  *pipeline.Result
	err     error
	gotDoc  document.Document
	gotOpts pipeline.Options
	calls   int
	closed  bool
}

func (m *mockProcessor) ProcessWithOptions(_ context.Context, doc document.Document, opts pipeline.Options) (*pipeline.Result, error) {
	m.calls++
	m.gotDoc = doc
	m.gotOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return successResult(), nil
}

func (m *mockProcessor) Info() map[string]interface{} {
	return map[string]interface{}{
		"languages":      []string{"eng"},
		"configurations": []string{"block", "sparse"},
	}
}

func (m *mockProcessor) Stats() pipeline.StatsSnapshot {
	return pipeline.StatsSnapshot{Documents: 3, Successes: 2, Failures: 1}
}

func (m *mockProcessor) Close() error {
	m.closed = true
	return nil
}

// successResult is a canned successful extraction.
func successResult() *pipeline.Result {
	return &pipeline.Result{
		Success: true,
		Data: &extract.Record{
			Vendor:   "ACME HARDWARE",
			Total:    17.81,
			Currency: "USD",
			Date:     "12/25/2024",
			RawText:  "ACME HARDWARE\nTotal: $17.81",
		},
		Method:  "enhanced+block",
		Quality: 85,
		Performance: pipeline.Performance{
			TotalTimeMs:  1200,
			OCRTimeMs:    900,
			AttemptsUsed: 1,
		},
	}
}

// failedResult models a document that exhausted its attempts below the
// quality gate.
func failedResult() *pipeline.Result {
	return &pipeline.Result{
		Success: false,
		Data: &extract.Record{
			RawText: "zzzz zz zz",
		},
		Error:   "no attempt reached acceptable quality",
		Quality: 12,
		Performance: pipeline.Performance{
			TotalTimeMs:  2400,
			AttemptsUsed: 3,
		},
	}
}

// newTestServer wires a server around a mock processor.
func newTestServer(proc processor) (*Server, *http.ServeMux) {
	s := New(Config{
		CORSOrigin:  "*",
		MaxUploadMB: 10,
		TimeoutSec:  5,
		Options:     pipeline.DefaultOptions(),
	}, proc)
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return s, mux
}

// testPNG returns a small encoded PNG.
func testPNG(t *testing.T) []byte {
	t.Helper()
	data, err := utils.EncodePNG(image.NewGray(image.Rect(0, 0, 32, 32)))
	if err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return data
}

// multipartUpload builds a multipart body with one file field.
func multipartUpload(t *testing.T, field, filename string, data []byte, extraFields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for k, v := range extraFields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}
