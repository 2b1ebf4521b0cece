package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/scanbill/scanbill/internal/document"
	"github.com/scanbill/scanbill/internal/pipeline"
	"github.com/scanbill/scanbill/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode health response", "error", err)
	}
}

// infoHandler returns pipeline properties and running statistics.
func (s *Server) infoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := InfoResponse{
		Pipeline: s.proc.Info(),
		Stats:    s.proc.Stats(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode info response", "error", err)
	}
}

// scanHandler processes one uploaded document. The uploaded file goes in
// the "file" multipart field; maxRetries, timeoutMs, and
// enablePreprocessing form fields override the per-request options.
func (s *Server) scanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	maxBytes := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "too large") {
			s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		}
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeErrorResponse(w, "No document file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > maxBytes {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}

	doc, err := readUpload(file, header)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read document data", http.StatusInternalServerError)
		return
	}
	uploadSizeBytes.Observe(float64(len(doc.Data)))

	opts := s.optionsFromForm(r)

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	res, status := s.runScan(ctx, doc, opts, "http")
	if res == nil {
		s.writeErrorResponse(w, status.message, status.code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to encode scan response", "error", err)
	}
}

// scanStatus carries the HTTP mapping of a failed scan call.
type scanStatus struct {
	code    int
	message string
}

// runScan serializes pipeline access and maps processing errors onto HTTP
// semantics. A nil result means the request failed before producing one.
func (s *Server) runScan(ctx context.Context, doc document.Document, opts pipeline.Options, kind string) (*pipeline.Result, scanStatus) {
	if err := s.acquire(ctx); err != nil {
		scanRequestsTotal.WithLabelValues(kind, "timeout").Inc()
		return nil, scanStatus{http.StatusServiceUnavailable, "Server busy, try again later"}
	}
	defer s.release()

	start := time.Now()
	res, err := s.proc.ProcessWithOptions(ctx, doc, opts)
	scanProcessingDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if err != nil {
		var verr *document.ValidationError
		if errors.As(err, &verr) {
			scanRequestsTotal.WithLabelValues(kind, "rejected").Inc()
			return nil, scanStatus{http.StatusBadRequest, verr.Error()}
		}
		scanRequestsTotal.WithLabelValues(kind, "error").Inc()
		return nil, scanStatus{http.StatusInternalServerError, fmt.Sprintf("Processing failed: %v", err)}
	}

	if res.Success {
		scanRequestsTotal.WithLabelValues(kind, "success").Inc()
	} else {
		scanRequestsTotal.WithLabelValues(kind, "low_quality").Inc()
	}
	scanQualityScore.WithLabelValues(kind).Observe(res.Quality)
	if res.Data != nil {
		scanTextLength.WithLabelValues(kind).Observe(float64(len(res.Data.RawText)))
	}
	return res, scanStatus{}
}

// optionsFromForm folds recognized option form fields into the server's
// base options.
func (s *Server) optionsFromForm(r *http.Request) pipeline.Options {
	opts := s.baseOptions
	m := make(map[string]any)
	for _, key := range []string{"maxRetries", "timeoutMs", "enablePreprocessing"} {
		if v := r.FormValue(key); v != "" {
			m[key] = v
		}
	}
	opts.ApplyMap(m)
	return opts
}

// readUpload drains an uploaded file into a document, inferring the MIME
// type from the multipart header or the filename.
func readUpload(file multipart.File, header *multipart.FileHeader) (document.Document, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return document.Document{}, err
	}
	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = document.SupportedExtensions[strings.ToLower(filepath.Ext(header.Filename))]
	}
	return document.Document{
		Name: header.Filename,
		MIME: mime,
		Data: data,
	}, nil
}

// writeErrorResponse writes a JSON error response in the scan result shape.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]interface{}{
		"success": false,
		"error":   message,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
