package config

import (
	"fmt"
	"strings"

	"github.com/scanbill/scanbill/internal/engine"
	"github.com/scanbill/scanbill/internal/pipeline"
	"github.com/scanbill/scanbill/internal/preprocess"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	engineDefaults := engine.DefaultConfig()
	pipelineDefaults := pipeline.DefaultOptions()
	pdfDefaults := pipeline.DefaultConfig().PDF
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Pipeline: PipelineConfig{
			Engine: EngineConfig{
				Languages: engineDefaults.Languages,
				DPI:       engineDefaults.DPI,
			},
			Preprocess: PreprocessConfig{
				Profile: "quality",
			},
			Options: OptionsConfig{
				MaxRetries:          pipelineDefaults.MaxRetries,
				TimeoutMs:           pipelineDefaults.TimeoutMs,
				EnablePreprocessing: pipelineDefaults.EnablePreprocessing,
			},
			PDF: PDFConfig{
				RenderScale: pdfDefaults.RenderScale,
				MaxPages:    pdfDefaults.MaxPages,
			},
		},
		Output: OutputConfig{
			Format: "json",
			Pretty: false,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      120,
			ShutdownTimeout: 10,
		},
		Batch: BatchConfig{
			Workers:         2,
			Recursive:       false,
			ContinueOnError: true,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"json", "csv", "text"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	validProfiles := []string{"quality", "fast"}
	if c.Pipeline.Preprocess.Profile != "" && !contains(validProfiles, c.Pipeline.Preprocess.Profile) {
		return fmt.Errorf("invalid preprocess profile: %s (must be one of: %s)", c.Pipeline.Preprocess.Profile, strings.Join(validProfiles, ", "))
	}
	if _, err := resolveVariants(c.Pipeline.Preprocess.Variants); err != nil {
		return err
	}
	if _, err := resolveRecognition(c.Pipeline.Recognition); err != nil {
		return err
	}

	if len(c.Pipeline.Engine.Languages) == 0 {
		return fmt.Errorf("at least one recognition language is required")
	}
	if c.Pipeline.Engine.DPI < 0 {
		return fmt.Errorf("invalid engine dpi: %d (must be >= 0)", c.Pipeline.Engine.DPI)
	}
	if c.Pipeline.Options.MaxRetries < 0 {
		return fmt.Errorf("invalid max retries: %d (must be >= 0)", c.Pipeline.Options.MaxRetries)
	}
	if c.Pipeline.Options.TimeoutMs <= 0 {
		return fmt.Errorf("invalid timeout: %dms (must be positive)", c.Pipeline.Options.TimeoutMs)
	}
	if c.Pipeline.PDF.RenderScale < 1.0 || c.Pipeline.PDF.RenderScale > 4.0 {
		return fmt.Errorf("invalid render scale: %.2f (must be between 1.0 and 4.0)", c.Pipeline.PDF.RenderScale)
	}
	if c.Pipeline.PDF.MaxPages <= 0 {
		return fmt.Errorf("invalid max pages: %d (must be positive)", c.Pipeline.PDF.MaxPages)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid server timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}

	return nil
}

// NewPipelineBuilder converts the config into a pipeline builder carrying
// every pipeline-facing setting. The caller finishes construction with
// Build (and may override individual settings first).
func (c *Config) NewPipelineBuilder() (*pipeline.Builder, error) {
	variants, err := resolveVariants(c.Pipeline.Preprocess.Variants)
	if err != nil {
		return nil, err
	}
	recognition, err := resolveRecognition(c.Pipeline.Recognition)
	if err != nil {
		return nil, err
	}

	b := pipeline.NewBuilder().
		WithLanguages(c.Pipeline.Engine.Languages...).
		WithMaxRetries(c.Pipeline.Options.MaxRetries).
		WithTimeoutMs(c.Pipeline.Options.TimeoutMs).
		WithPreprocessing(c.Pipeline.Options.EnablePreprocessing).
		WithRenderScale(c.Pipeline.PDF.RenderScale)
	if c.Pipeline.Preprocess.Profile == "fast" {
		b = b.WithFastProfile()
	}
	if len(variants) > 0 {
		b = b.WithVariants(variants...)
	}
	if len(recognition) > 0 {
		b = b.WithRecognition(recognition...)
	}
	if c.Pipeline.Preprocess.SaveDir != "" {
		b = b.WithSaveVariantsDir(c.Pipeline.Preprocess.SaveDir)
	}
	return b, nil
}

// resolveVariants maps variant kind names onto preprocess.VariantKind,
// rejecting unknown names.
func resolveVariants(names []string) ([]preprocess.VariantKind, error) {
	kinds := make([]preprocess.VariantKind, 0, len(names))
	for _, name := range names {
		kind := preprocess.VariantKind(name)
		known := false
		for _, k := range preprocess.AllVariantKinds {
			if kind == k {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown preprocess variant: %s", name)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// resolveRecognition maps catalog entry names onto their configurations,
// rejecting unknown names.
func resolveRecognition(names []string) ([]engine.RecognitionConfig, error) {
	if len(names) == 0 {
		return nil, nil
	}
	catalog := engine.Catalog()
	configs := make([]engine.RecognitionConfig, 0, len(names))
	for _, name := range names {
		found := false
		for _, rc := range catalog {
			if rc.Name == name {
				configs = append(configs, rc)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown recognition configuration: %s", name)
		}
	}
	return configs, nil
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
