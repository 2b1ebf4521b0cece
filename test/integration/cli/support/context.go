// Package support holds the step definitions and shared state for the
// CLI and server feature suites.
package support

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TestContext carries per-scenario state.
type TestContext struct {
	// Command execution state
	LastCommand  string
	LastOutput   string
	LastError    error
	LastExitCode int

	// Test environment
	WorkingDir string
	TempDir    string
	BinPath    string
	EnvVars    []string

	// In-process server state
	HTTPServer *ScanTestServer

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   string

	// Test artifacts
	CreatedFiles       []string
	CreatedDirectories []string
}

// NewTestContext creates a scenario context rooted at the project directory.
func NewTestContext() (*TestContext, error) {
	workingDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	// Tests may run from a subdirectory; walk up to go.mod.
	currentDir := workingDir
	for {
		if _, err := os.Stat(filepath.Join(currentDir, "go.mod")); err == nil {
			workingDir = currentDir
			break
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	tempDir, err := os.MkdirTemp("", "scanbill-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TestContext{
		WorkingDir: workingDir,
		TempDir:    tempDir,
		BinPath:    os.Getenv("SCANBILL_BIN"),
	}, nil
}

// Cleanup removes scenario artifacts and stops any running server.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	if testCtx.HTTPServer != nil {
		testCtx.stopScanServer()
	}

	for _, file := range testCtx.CreatedFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove file %s: %w", file, err))
		}
	}
	for _, dir := range testCtx.CreatedDirectories {
		if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove directory %s: %w", dir, err))
		}
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// AddEnvVar adds an environment variable for command execution.
func (testCtx *TestContext) AddEnvVar(name, value string) {
	testCtx.EnvVars = append(testCtx.EnvVars, fmt.Sprintf("%s=%s", name, value))
}

// TrackFile registers a file for post-scenario cleanup.
func (testCtx *TestContext) TrackFile(filename string) {
	absPath := filename
	if !filepath.IsAbs(filename) {
		absPath = filepath.Join(testCtx.WorkingDir, filename)
	}
	testCtx.CreatedFiles = append(testCtx.CreatedFiles, absPath)
}

// TrackDirectory registers a directory for post-scenario cleanup.
func (testCtx *TestContext) TrackDirectory(dirname string) {
	absPath := dirname
	if !filepath.IsAbs(dirname) {
		absPath = filepath.Join(testCtx.WorkingDir, dirname)
	}
	testCtx.CreatedDirectories = append(testCtx.CreatedDirectories, absPath)
}

// TempPath returns a path inside the scenario temp directory.
func (testCtx *TestContext) TempPath(name string) string {
	return filepath.Join(testCtx.TempDir, name)
}

// GetTempDir creates and returns a fresh temp subdirectory.
func (testCtx *TestContext) GetTempDir(prefix string) string {
	dirPath := filepath.Join(testCtx.TempDir, fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano()))
	testCtx.TrackDirectory(dirPath)
	return dirPath
}
