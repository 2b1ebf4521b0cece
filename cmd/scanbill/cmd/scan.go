package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scanbill/scanbill/internal/batch"
	"github.com/scanbill/scanbill/internal/config"
	"github.com/scanbill/scanbill/internal/document"
	"github.com/scanbill/scanbill/internal/pipeline"
)

// scanCmd represents the scan command for digitizing documents.
var scanCmd = &cobra.Command{
	Use:   "scan [files...]",
	Short: "Digitize receipt or invoice documents into structured records",
	Long: `Digitize one or more scanned documents into structured records.

A single file argument produces one JSON record on stdout. Directory
arguments, multiple files, or --batch switch to batch mode with a
parallel worker pool and summary output.

Supported formats: PNG, JPEG, WebP, BMP, TIFF, HEIC, PDF

Examples:
  scanbill scan receipt.jpg
  scanbill scan invoice.pdf --format text
  scanbill scan --batch ./inbox --workers 4 --recursive
  scanbill scan ./inbox --format csv --output results.csv
  scanbill scan receipt.jpg --fast --no-preprocessing --timeout-ms 15000`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runScanCommand,
}

// applyPipelineFlags folds scan flag overrides into the pipeline part of
// the configuration. CLI flags win over config file and environment.
func applyPipelineFlags(cfg *config.Config, cmd *cobra.Command) {
	if cmd.Flags().Changed("language") {
		cfg.Pipeline.Engine.Languages, _ = cmd.Flags().GetStringSlice("language")
	}
	if cmd.Flags().Changed("fast") {
		if fast, _ := cmd.Flags().GetBool("fast"); fast {
			cfg.Pipeline.Preprocess.Profile = "fast"
		}
	}
	if cmd.Flags().Changed("variants") {
		cfg.Pipeline.Preprocess.Variants, _ = cmd.Flags().GetStringSlice("variants")
	}
	if cmd.Flags().Changed("save-variants") {
		cfg.Pipeline.Preprocess.SaveDir, _ = cmd.Flags().GetString("save-variants")
	}
	if cmd.Flags().Changed("recognition") {
		cfg.Pipeline.Recognition, _ = cmd.Flags().GetStringSlice("recognition")
	}
	if cmd.Flags().Changed("max-retries") {
		cfg.Pipeline.Options.MaxRetries, _ = cmd.Flags().GetInt("max-retries")
	}
	if cmd.Flags().Changed("timeout-ms") {
		cfg.Pipeline.Options.TimeoutMs, _ = cmd.Flags().GetInt("timeout-ms")
	}
	if cmd.Flags().Changed("no-preprocessing") {
		if noPre, _ := cmd.Flags().GetBool("no-preprocessing"); noPre {
			cfg.Pipeline.Options.EnablePreprocessing = false
		}
	}
	if cmd.Flags().Changed("render-scale") {
		cfg.Pipeline.PDF.RenderScale, _ = cmd.Flags().GetFloat64("render-scale")
	}
}

// configToBatchConfig maps centralized configuration to batch.Config.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) *batch.Config {
	batchConfig := &batch.Config{
		Options: pipeline.Options{
			MaxRetries:          cfg.Pipeline.Options.MaxRetries,
			TimeoutMs:           cfg.Pipeline.Options.TimeoutMs,
			EnablePreprocessing: cfg.Pipeline.Options.EnablePreprocessing,
		},
		NewPipeline: func() (*pipeline.Pipeline, error) {
			b, err := cfg.NewPipelineBuilder()
			if err != nil {
				return nil, err
			}
			return b.Build()
		},
	}

	batchConfig.Workers = cfg.Batch.Workers
	if cmd.Flags().Changed("workers") {
		batchConfig.Workers, _ = cmd.Flags().GetInt("workers")
	}

	batchConfig.Format = cfg.Output.Format
	if cmd.Flags().Changed("format") {
		batchConfig.Format, _ = cmd.Flags().GetString("format")
	}

	batchConfig.OutputFile = cfg.Output.File
	if cmd.Flags().Changed("output") {
		batchConfig.OutputFile, _ = cmd.Flags().GetString("output")
	}

	batchConfig.OutputDir = cfg.Batch.OutputDir
	if cmd.Flags().Changed("output-dir") {
		batchConfig.OutputDir, _ = cmd.Flags().GetString("output-dir")
	}

	batchConfig.Recursive = cfg.Batch.Recursive
	if cmd.Flags().Changed("recursive") {
		batchConfig.Recursive, _ = cmd.Flags().GetBool("recursive")
	}

	batchConfig.ContinueOnError = cfg.Batch.ContinueOnError
	if cmd.Flags().Changed("continue-on-error") {
		batchConfig.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	}

	// Discovery and progress settings are CLI-only
	batchConfig.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	batchConfig.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	batchConfig.ShowProgress, _ = cmd.Flags().GetBool("progress")
	batchConfig.Quiet, _ = cmd.Flags().GetBool("quiet")
	batchConfig.ShowStats, _ = cmd.Flags().GetBool("stats")

	return batchConfig
}

func runScanCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	applyPipelineFlags(cfg, cmd)

	batchMode, _ := cmd.Flags().GetBool("batch")
	if !batchMode {
		batchMode = len(args) > 1 || anyDirectory(args)
	}

	if batchMode {
		return runBatchScan(cmd, args, cfg)
	}
	return runSingleScan(cmd, args[0], cfg)
}

// runSingleScan digitizes one document and writes its record to stdout
// or the configured output file.
func runSingleScan(cmd *cobra.Command, path string, cfg *config.Config) error {
	builder, err := cfg.NewPipelineBuilder()
	if err != nil {
		return fmt.Errorf("invalid pipeline configuration: %w", err)
	}
	pl, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer func() { _ = pl.Close() }()

	doc, err := document.FromFile(path)
	if err != nil {
		return err
	}

	res, err := pl.Process(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}

	var output string
	if format == "json" {
		pretty := cfg.Output.Pretty
		if cmd.Flags().Changed("pretty") {
			pretty, _ = cmd.Flags().GetBool("pretty")
		}
		var data []byte
		if pretty {
			data, err = json.MarshalIndent(res, "", "  ")
		} else {
			data, err = json.Marshal(res)
		}
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		output = string(data) + "\n"
	} else {
		single := &batch.Result{Items: []batch.Item{{Path: path, Result: res}}}
		output, err = single.FormatResults(format)
		if err != nil {
			return fmt.Errorf("failed to format result: %w", err)
		}
	}

	outputFile := cfg.Output.File
	if cmd.Flags().Changed("output") {
		outputFile, _ = cmd.Flags().GetString("output")
	}
	if outputFile != "" {
		return os.WriteFile(outputFile, []byte(output), 0o600)
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}

// runBatchScan digitizes a set of documents with the worker pool.
func runBatchScan(cmd *cobra.Command, args []string, cfg *config.Config) error {
	batchConfig := configToBatchConfig(cfg, cmd)

	result, err := batch.ProcessBatch(context.Background(), args, batchConfig)
	if err != nil {
		return fmt.Errorf("batch processing failed: %w", err)
	}

	if err := result.SaveResults(batchConfig.Format, batchConfig.OutputFile, batchConfig.Quiet); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	if batchConfig.ShowStats {
		result.PrintStats(batchConfig.Quiet)
	}

	return nil
}

// anyDirectory reports whether any argument is a directory.
func anyDirectory(args []string) bool {
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(scanCmd)

	// Pipeline flags
	scanCmd.Flags().StringSlice("language", nil, "recognition languages in priority order (e.g., eng,deu)")
	scanCmd.Flags().Bool("fast", false, "use the fast preprocessing profile (lower resolution)")
	scanCmd.Flags().StringSlice("variants", nil, "image variants to try (enhanced, blackwhite, sharpened, textOptimized, original)")
	scanCmd.Flags().String("save-variants", "", "directory to dump generated image variants for debugging")
	scanCmd.Flags().StringSlice("recognition", nil, "recognition configurations to try (block, sparse, column, numeric)")
	scanCmd.Flags().Int("max-retries", 0, "retry attempts after the first (default from config)")
	scanCmd.Flags().Int("timeout-ms", 0, "per-attempt timeout in milliseconds (default from config)")
	scanCmd.Flags().Bool("no-preprocessing", false, "recognize the original image only, skip variant generation")
	scanCmd.Flags().Float64("render-scale", 0, "PDF page render scale")

	// Output flags
	scanCmd.Flags().StringP("format", "f", "json", "output format: json, csv, text")
	scanCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	scanCmd.Flags().Bool("pretty", false, "pretty-print JSON output")

	// Batch flags
	scanCmd.Flags().Bool("batch", false, "force batch mode")
	scanCmd.Flags().IntP("workers", "w", 0, "number of parallel workers")
	scanCmd.Flags().String("output-dir", "", "directory for per-document result files")
	scanCmd.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	scanCmd.Flags().StringSlice("include", nil, "file patterns to include")
	scanCmd.Flags().StringSlice("exclude", nil, "file patterns to exclude")
	scanCmd.Flags().Bool("continue-on-error", true, "keep processing after a document fails")

	// Progress and monitoring flags
	scanCmd.Flags().Bool("progress", false, "log per-document progress")
	scanCmd.Flags().Bool("quiet", false, "suppress non-result output")
	scanCmd.Flags().Bool("stats", false, "show processing statistics")
}
