package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanbill/scanbill/internal/document"
)

func TestHealthHandler(t *testing.T) {
	_, mux := newTestServer(&mockProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Time)
}

func TestHealthHandlerRejectsPost(t *testing.T) {
	_, mux := newTestServer(&mockProcessor{})

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestInfoHandler(t *testing.T) {
	_, mux := newTestServer(&mockProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp InfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Pipeline, "languages")
	assert.Equal(t, 3, resp.Stats.Documents)
	assert.Equal(t, 1, resp.Stats.Failures)
}

func TestScanHandlerSuccess(t *testing.T) {
	proc := &mockProcessor{}
	_, mux := newTestServer(proc)

	body, contentType := multipartUpload(t, "file", "receipt.png", testPNG(t), nil)
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])

	data, ok := resp["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ACME HARDWARE", data["vendor"])
	assert.Equal(t, 17.81, data["total"])

	perf, ok := resp["performance"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), perf["attemptsUsed"])

	assert.Equal(t, "receipt.png", proc.gotDoc.Name)
	assert.NotEmpty(t, proc.gotDoc.Data)
}

func TestScanHandlerLowQualityStays200(t *testing.T) {
	proc := &mockProcessor{result: failedResult()}
	_, mux := newTestServer(proc)

	body, contentType := multipartUpload(t, "file", "receipt.png", testPNG(t), nil)
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	// quality failures are in-band results, not transport errors
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.NotEmpty(t, resp["error"])
}

func TestScanHandlerOptionFields(t *testing.T) {
	proc := &mockProcessor{}
	_, mux := newTestServer(proc)

	body, contentType := multipartUpload(t, "file", "receipt.png", testPNG(t), map[string]string{
		"maxRetries":          "0",
		"timeoutMs":           "1500",
		"enablePreprocessing": "false",
	})
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, proc.gotOpts.MaxRetries)
	assert.Equal(t, 1500, proc.gotOpts.TimeoutMs)
	assert.False(t, proc.gotOpts.EnablePreprocessing)
}

func TestScanHandlerMissingFile(t *testing.T) {
	_, mux := newTestServer(&mockProcessor{})

	body, contentType := multipartUpload(t, "wrongfield", "receipt.png", testPNG(t), nil)
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanHandlerValidationErrorIs400(t *testing.T) {
	proc := &mockProcessor{err: &document.ValidationError{Name: "x.txt", Reason: "unsupported content type"}}
	_, mux := newTestServer(proc)

	body, contentType := multipartUpload(t, "file", "x.txt", []byte("hello"), nil)
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Contains(t, resp["error"], "unsupported content type")
}

func TestScanHandlerProcessingErrorIs500(t *testing.T) {
	proc := &mockProcessor{err: errors.New("engine exploded")}
	_, mux := newTestServer(proc)

	body, contentType := multipartUpload(t, "file", "receipt.png", testPNG(t), nil)
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestScanHandlerRejectsGet(t *testing.T) {
	_, mux := newTestServer(&mockProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/scan", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestBatchScanHandler(t *testing.T) {
	proc := &mockProcessor{}
	_, mux := newTestServer(proc)

	reqBody := BatchScanRequest{
		Documents: []BatchDocumentRequest{
			{Name: "a.png", MIME: "image/png", Data: testPNG(t)},
			{Name: "b.png", MIME: "image/png", Data: testPNG(t)},
		},
	}
	data, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/scan/batch", strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp BatchScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "a.png", resp.Results[0].Name)
	assert.Equal(t, 2, resp.Summary.Successful)
	assert.Equal(t, 0, resp.Summary.Failed)
	assert.Equal(t, 2, proc.calls)
}

func TestBatchScanHandlerEmpty(t *testing.T) {
	_, mux := newTestServer(&mockProcessor{})

	req := httptest.NewRequest(http.MethodPost, "/scan/batch", strings.NewReader(`{"documents":[]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchScanHandlerMixedOutcomes(t *testing.T) {
	proc := &mockProcessor{result: failedResult()}
	_, mux := newTestServer(proc)

	reqBody := BatchScanRequest{
		Documents: []BatchDocumentRequest{
			{Name: "bad.png", MIME: "image/png", Data: testPNG(t)},
		},
	}
	data, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/scan/batch", strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp BatchScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, 1, resp.Summary.Failed)
}

func TestServerClose(t *testing.T) {
	proc := &mockProcessor{}
	s, _ := newTestServer(proc)

	require.NoError(t, s.Close())
	assert.True(t, proc.closed)
}
