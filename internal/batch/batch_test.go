package batch

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanbill/scanbill/internal/engine"
	"github.com/scanbill/scanbill/internal/pipeline"
	"github.com/scanbill/scanbill/internal/utils"
)

const receiptText = `ACME HARDWARE
Date: 12/25/2024
Subtotal: 16.49
Tax: 1.32
Total: $17.81
Thank you for shopping!`

// fixedEngine returns the same recognition outcome for every call.
type fixedEngine struct {
	text string
}

func (e *fixedEngine) Recognize(_ context.Context, _ image.Image, _ engine.RecognitionConfig) (engine.RawResult, error) {
	return engine.RawResult{Text: e.text, Confidence: 80}, nil
}

// writeTestPNG writes a decodable PNG document into dir.
func writeTestPNG(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := utils.EncodePNG(image.NewGray(image.Rect(0, 0, 60, 40)))
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func testConfig(text string) *Config {
	return &Config{
		Workers:         2,
		ContinueOnError: true,
		Options:         pipeline.Options{MaxRetries: 0, TimeoutMs: 5000, EnablePreprocessing: false},
		NewPipeline: func() (*pipeline.Pipeline, error) {
			return pipeline.NewBuilder().
				WithEngine(&fixedEngine{text: text}).
				WithRecognition(engine.RecognitionConfig{Name: "test"}).
				Build()
		},
	}
}

func TestProcessBatchDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "b.png")
	writeTestPNG(t, dir, "a.png")

	res, err := ProcessBatch(context.Background(), []string{dir}, testConfig(receiptText))
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	// deterministic input order regardless of worker scheduling
	assert.Equal(t, filepath.Join(dir, "a.png"), res.Items[0].Path)
	assert.Equal(t, filepath.Join(dir, "b.png"), res.Items[1].Path)

	assert.Equal(t, 2, res.Successful())
	for _, item := range res.Items {
		require.NotNil(t, item.Result)
		assert.True(t, item.Result.Success)
		assert.Equal(t, "ACME HARDWARE", item.Result.Data.Vendor)
		assert.InDelta(t, 17.81, item.Result.Data.Total, 0.001)
	}
}

func TestProcessBatchNoFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := ProcessBatch(context.Background(), []string{dir}, testConfig(receiptText))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no document files found")
}

func TestProcessBatchMissingPath(t *testing.T) {
	_, err := ProcessBatch(context.Background(), []string{"/nonexistent/path"}, testConfig(receiptText))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestProcessBatchContinueOnError(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "good.png")
	corrupt := filepath.Join(dir, "corrupt.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a png"), 0o600))

	cfg := testConfig(receiptText)
	cfg.Workers = 1

	res, err := ProcessBatch(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Items, 2)

	byName := map[string]Item{}
	for _, item := range res.Items {
		byName[filepath.Base(item.Path)] = item
	}
	assert.NotEmpty(t, byName["corrupt.png"].Error)
	assert.True(t, byName["corrupt.png"].Failed())
	assert.False(t, byName["good.png"].Failed())
	assert.Equal(t, 1, res.Successful())
}

func TestProcessBatchStopsOnFirstError(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "aa-corrupt.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a png"), 0o600))
	writeTestPNG(t, dir, "zz-good.png")

	cfg := testConfig(receiptText)
	cfg.Workers = 1
	cfg.ContinueOnError = false

	_, err := ProcessBatch(context.Background(), []string{dir}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch processing failed")
}

func TestProcessBatchLowQualityIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "noise.png")

	cfg := testConfig("@@## ..,, ::;; ~~~~ %%%")
	cfg.ContinueOnError = false

	res, err := ProcessBatch(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Empty(t, res.Items[0].Error)
	assert.True(t, res.Items[0].Failed())
	assert.Equal(t, 0, res.Successful())
}

func TestProcessBatchWritesIndividualResults(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "results")
	writeTestPNG(t, dir, "receipt.png")

	cfg := testConfig(receiptText)
	cfg.OutputDir = outDir

	_, err := ProcessBatch(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "receipt.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "ACME HARDWARE")
}

func TestProcessBatchSingleFileArg(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "solo.png")

	res, err := ProcessBatch(context.Background(), []string{path}, testConfig(receiptText))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, path, res.Items[0].Path)
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, pipeline.DefaultOptions(), cfg.Options)
	assert.NotNil(t, cfg.NewPipeline)
}

func TestItemFailed(t *testing.T) {
	assert.True(t, Item{Error: "boom"}.Failed())
	assert.True(t, Item{}.Failed())
	assert.True(t, Item{Result: &pipeline.Result{Success: false}}.Failed())
	assert.False(t, Item{Result: &pipeline.Result{Success: true}}.Failed())
}
