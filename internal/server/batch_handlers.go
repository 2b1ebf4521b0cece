package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/scanbill/scanbill/internal/document"
	"github.com/scanbill/scanbill/internal/pipeline"
)

// BatchScanRequest is a JSON batch of documents. Data fields are base64,
// handled by encoding/json's []byte convention.
type BatchScanRequest struct {
	Documents []BatchDocumentRequest `json:"documents"`
}

// BatchDocumentRequest is one document in a batch request.
type BatchDocumentRequest struct {
	Name    string                 `json:"name"`
	MIME    string                 `json:"mime,omitempty"`
	Data    []byte                 `json:"data"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// BatchScanResponse is the response for batch processing.
type BatchScanResponse struct {
	Success bool              `json:"success"`
	Results []BatchScanResult `json:"results,omitempty"`
	Error   string            `json:"error,omitempty"`
	Summary BatchScanSummary  `json:"summary"`
}

// BatchScanResult is one document's outcome inside a batch.
type BatchScanResult struct {
	Name     string           `json:"name"`
	Result   *pipeline.Result `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
	Duration float64          `json:"duration_seconds"`
}

// BatchScanSummary aggregates a batch run.
type BatchScanSummary struct {
	TotalItems    int     `json:"total_items"`
	Successful    int     `json:"successful"`
	Failed        int     `json:"failed"`
	TotalDuration float64 `json:"total_duration_seconds"`
}

const maxBatchItems = 20

// batchScanHandler processes a JSON batch of documents sequentially.
func (s *Server) batchScanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	maxBytes := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	var req BatchScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, "Failed to parse batch request", http.StatusBadRequest)
		return
	}
	if len(req.Documents) == 0 {
		s.writeErrorResponse(w, "No documents provided", http.StatusBadRequest)
		return
	}
	if len(req.Documents) > maxBatchItems {
		s.writeErrorResponse(w, "Too many documents in batch", http.StatusBadRequest)
		return
	}

	batchStart := time.Now()
	results := make([]BatchScanResult, 0, len(req.Documents))
	summary := BatchScanSummary{TotalItems: len(req.Documents)}

	for _, item := range req.Documents {
		results = append(results, s.processBatchItem(r.Context(), item, &summary))
	}
	summary.TotalDuration = time.Since(batchStart).Seconds()

	response := BatchScanResponse{
		Success: summary.Failed == 0,
		Results: results,
		Summary: summary,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode batch response", "error", err)
	}
}

func (s *Server) processBatchItem(ctx context.Context, item BatchDocumentRequest, summary *BatchScanSummary) BatchScanResult {
	itemStart := time.Now()

	doc := document.Document{Name: item.Name, MIME: item.MIME, Data: item.Data}
	uploadSizeBytes.Observe(float64(len(item.Data)))

	opts := s.baseOptions
	opts.ApplyMap(item.Options)

	itemCtx, cancel := context.WithTimeout(ctx, s.requestTimeout())
	defer cancel()

	res, status := s.runScan(itemCtx, doc, opts, "batch")
	out := BatchScanResult{
		Name:     item.Name,
		Duration: time.Since(itemStart).Seconds(),
	}
	switch {
	case res == nil:
		out.Error = status.message
		summary.Failed++
	case res.Success:
		out.Result = res
		summary.Successful++
	default:
		out.Result = res
		summary.Failed++
	}
	return out
}
