package support

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/scanbill/scanbill/internal/pipeline"
	"github.com/scanbill/scanbill/internal/server"
	"github.com/scanbill/scanbill/internal/testutil"
	"github.com/scanbill/scanbill/internal/utils"
)

// ScanTestServer wraps an in-process HTTP server around the scan API.
type ScanTestServer struct {
	httpServer *httptest.Server
	scanServer *server.Server
	pl         *pipeline.Pipeline
}

// RegisterServerSteps wires the HTTP server step definitions.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the scan server is running$`, testCtx.theScanServerIsRunning)
	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGet)
	sc.Step(`^I upload a receipt image to "([^"]*)"$`, testCtx.iUploadAReceiptImageTo)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
}

func (testCtx *TestContext) theScanServerIsRunning() error {
	if testCtx.HTTPServer != nil {
		return nil
	}

	pl, err := pipeline.NewBuilder().Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	scanServer := server.New(server.Config{
		CORSOrigin:  "*",
		MaxUploadMB: 10,
		TimeoutSec:  120,
		Options:     pipeline.DefaultOptions(),
	}, pl)

	mux := http.NewServeMux()
	scanServer.SetupRoutes(mux)

	testCtx.HTTPServer = &ScanTestServer{
		httpServer: httptest.NewServer(mux),
		scanServer: scanServer,
		pl:         pl,
	}
	return nil
}

func (testCtx *TestContext) stopScanServer() {
	srv := testCtx.HTTPServer
	if srv == nil {
		return
	}
	srv.httpServer.Close()
	_ = srv.scanServer.Close()
	testCtx.HTTPServer = nil
}

func (testCtx *TestContext) iGet(path string) error {
	if testCtx.HTTPServer == nil {
		return fmt.Errorf("scan server is not running")
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(testCtx.HTTPServer.httpServer.URL + path)
	if err != nil {
		return fmt.Errorf("GET %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	return testCtx.recordResponse(resp)
}

func (testCtx *TestContext) iUploadAReceiptImageTo(path string) error {
	if testCtx.HTTPServer == nil {
		return fmt.Errorf("scan server is not running")
	}

	img := testutil.GenerateReceiptImage(testutil.DefaultReceiptConfig())
	data, err := utils.EncodePNG(img)
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "receipt.png")
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Post(
		testCtx.HTTPServer.httpServer.URL+path,
		writer.FormDataContentType(),
		&body,
	)
	if err != nil {
		return fmt.Errorf("POST %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	return testCtx.recordResponse(resp)
}

func (testCtx *TestContext) recordResponse(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(data)
	return nil
}

func (testCtx *TestContext) theResponseStatusShouldBe(expected int) error {
	if testCtx.LastHTTPStatusCode != expected {
		return fmt.Errorf("expected status %d, got %d: %s",
			expected, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(expected string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, expected) {
		return fmt.Errorf("response does not contain %q:\n%s", expected, testCtx.LastHTTPResponse)
	}
	return nil
}
