package support

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/scanbill/scanbill/internal/testutil"
)

const commandTimeout = 2 * time.Minute

// RegisterCLISteps wires the command-line step definitions.
func (testCtx *TestContext) RegisterCLISteps(sc *godog.ScenarioContext) {
	sc.Step(`^a receipt image "([^"]*)"$`, testCtx.aReceiptImage)
	sc.Step(`^a directory "([^"]*)" with (\d+) receipt images$`, testCtx.aDirectoryWithReceiptImages)
	sc.Step(`^a transcript file "([^"]*)" with the receipt text$`, testCtx.aTranscriptFile)
	sc.Step(`^I run scanbill with "([^"]*)"$`, testCtx.iRunScanbillWith)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON output should have a "([^"]*)" field$`, testCtx.theJSONOutputShouldHaveField)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
}

func (testCtx *TestContext) aReceiptImage(name string) error {
	img := testutil.GenerateReceiptImage(testutil.DefaultReceiptConfig())
	return testutil.SaveReceiptPNG(img, testCtx.TempPath(name))
}

func (testCtx *TestContext) aDirectoryWithReceiptImages(name string, count int) error {
	dir := testCtx.TempPath(name)
	if err := testutil.EnsureDir(dir); err != nil {
		return err
	}
	cfg := testutil.DefaultReceiptConfig()
	for i := range count {
		img := testutil.GenerateReceiptImage(cfg)
		path := filepath.Join(dir, fmt.Sprintf("receipt_%02d.png", i+1))
		if err := testutil.SaveReceiptPNG(img, path); err != nil {
			return err
		}
	}
	return nil
}

func (testCtx *TestContext) aTranscriptFile(name string) error {
	return os.WriteFile(testCtx.TempPath(name), []byte(testutil.SampleReceiptText()), 0o600)
}

// iRunScanbillWith executes the built binary. The {tmp} placeholder in the
// argument string expands to the scenario temp directory.
func (testCtx *TestContext) iRunScanbillWith(argLine string) error {
	if testCtx.BinPath == "" {
		return fmt.Errorf("SCANBILL_BIN is not set")
	}
	argLine = strings.ReplaceAll(argLine, "{tmp}", testCtx.TempDir)
	args := strings.Fields(argLine)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, testCtx.BinPath, args...) //nolint:gosec // G204: arguments come from feature files
	cmd.Dir = testCtx.TempDir
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)

	out, err := cmd.CombinedOutput()
	testCtx.LastCommand = testCtx.BinPath + " " + argLine
	testCtx.LastOutput = string(out)
	testCtx.LastError = err
	testCtx.LastExitCode = -1
	if cmd.ProcessState != nil {
		testCtx.LastExitCode = cmd.ProcessState.ExitCode()
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %s", testCtx.LastExitCode, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded but was expected to fail: %s", testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(expected string) error {
	if !strings.Contains(testCtx.LastOutput, expected) {
		return fmt.Errorf("output does not contain %q:\n%s", expected, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldBeValidJSON parses the first JSON document in the output.
// Log lines go to stderr, so stdout output is expected to be pure JSON.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	_, err := testCtx.parseJSONOutput()
	return err
}

func (testCtx *TestContext) theJSONOutputShouldHaveField(field string) error {
	parsed, err := testCtx.parseJSONOutput()
	if err != nil {
		return err
	}
	if _, ok := parsed[field]; !ok {
		return fmt.Errorf("JSON output has no %q field:\n%s", field, testCtx.LastOutput)
	}
	return nil
}

// parseJSONOutput returns the last JSON object in the combined output.
// Log lines are themselves JSON objects on stderr, so the scan result is
// the final document in the stream.
func (testCtx *TestContext) parseJSONOutput() (map[string]any, error) {
	trimmed := strings.TrimSpace(testCtx.LastOutput)
	start := strings.IndexAny(trimmed, "{[")
	if start < 0 {
		return nil, fmt.Errorf("no JSON found in output:\n%s", testCtx.LastOutput)
	}

	dec := json.NewDecoder(strings.NewReader(trimmed[start:]))
	var last map[string]any
	for {
		var parsed map[string]any
		if err := dec.Decode(&parsed); err != nil {
			break
		}
		// Skip structured log lines mixed into the combined output.
		if _, isLogLine := parsed["msg"]; isLogLine {
			continue
		}
		last = parsed
	}
	if last == nil {
		return nil, fmt.Errorf("output is not valid JSON:\n%s", testCtx.LastOutput)
	}
	return last, nil
}

func (testCtx *TestContext) theFileShouldExist(name string) error {
	path := strings.ReplaceAll(name, "{tmp}", testCtx.TempDir)
	if !filepath.IsAbs(path) {
		path = testCtx.TempPath(path)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("expected file %s: %w", path, err)
	}
	return nil
}
