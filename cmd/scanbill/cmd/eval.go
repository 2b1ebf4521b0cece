package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scanbill/scanbill/internal/document"
	"github.com/scanbill/scanbill/internal/eval"
)

// evalCmd compares recognition output against a ground-truth transcript.
var evalCmd = &cobra.Command{
	Use:   "eval <file>",
	Short: "Evaluate recognition accuracy against a ground-truth transcript",
	Long: `Digitize a document and compare the recognized text against a
ground-truth transcript, reporting character and word error rates.

Comparison is case-insensitive and ignores whitespace layout, so only
actual recognition mistakes count as errors.

Examples:
  scanbill eval scan.png --truth transcript.txt
  scanbill eval scan.png --truth transcript.txt --format json`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runEvalCommand,
}

func runEvalCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	applyPipelineFlags(cfg, cmd)

	truthFile, _ := cmd.Flags().GetString("truth")
	if truthFile == "" {
		return fmt.Errorf("--truth transcript file is required")
	}
	truth, err := os.ReadFile(truthFile) //nolint:gosec // G304: user-provided transcript path is expected
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	builder, err := cfg.NewPipelineBuilder()
	if err != nil {
		return fmt.Errorf("invalid pipeline configuration: %w", err)
	}
	pl, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer func() { _ = pl.Close() }()

	doc, err := document.FromFile(args[0])
	if err != nil {
		return err
	}

	res, err := pl.Process(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	recognized := ""
	if res.Data != nil {
		recognized = res.Data.RawText
	}
	report := eval.Evaluate(recognized, string(truth))

	format, _ := cmd.Flags().GetString("format")
	if format == "json" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "File: %s\n", args[0])
	_, _ = fmt.Fprintf(out, "Method: %s\n", res.Method)
	_, _ = fmt.Fprintf(out, "Quality: %.1f\n", res.Quality)
	_, _ = fmt.Fprintf(out, "CER: %.4f (distance %d over %d chars)\n",
		report.CER, report.CharDistance, report.TruthChars)
	_, _ = fmt.Fprintf(out, "WER: %.4f (distance %d over %d words)\n",
		report.WER, report.WordDistance, report.TruthWords)
	_, _ = fmt.Fprintf(out, "Char accuracy: %.1f%%\n", report.CharAccuracy*100)
	_, _ = fmt.Fprintf(out, "Word accuracy: %.1f%%\n", report.WordAccuracy*100)
	return nil
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringP("truth", "t", "", "ground-truth transcript file (required)")
	evalCmd.Flags().StringP("format", "f", "text", "output format: text, json")

	// Pipeline flags shared with scan
	evalCmd.Flags().StringSlice("language", nil, "recognition languages in priority order")
	evalCmd.Flags().Bool("fast", false, "use the fast preprocessing profile")
	evalCmd.Flags().StringSlice("variants", nil, "image variants to try")
	evalCmd.Flags().String("save-variants", "", "directory to dump generated image variants")
	evalCmd.Flags().StringSlice("recognition", nil, "recognition configurations to try")
	evalCmd.Flags().Int("max-retries", 0, "retry attempts after the first")
	evalCmd.Flags().Int("timeout-ms", 0, "per-attempt timeout in milliseconds")
	evalCmd.Flags().Bool("no-preprocessing", false, "recognize the original image only")
	evalCmd.Flags().Float64("render-scale", 0, "PDF page render scale")
}
