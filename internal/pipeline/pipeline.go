package pipeline

import (
	"fmt"
	"io"

	"github.com/scanbill/scanbill/internal/engine"
	"github.com/scanbill/scanbill/internal/pdf"
	"github.com/scanbill/scanbill/internal/preprocess"
	"github.com/scanbill/scanbill/internal/recognize"
)

// Config holds configuration for the pipeline and its components.
type Config struct {
	Engine      engine.Config
	Preprocess  preprocess.Config
	PDF         pdf.Config
	Options     Options
	// Recognition selects the engine configuration catalog entries to
	// cycle through; empty means the full catalog.
	Recognition []engine.RecognitionConfig
	// SaveVariantsDir, when set, receives every generated variant as a
	// PNG for inspection.
	SaveVariantsDir string
}

// DefaultConfig returns a pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Engine:     engine.DefaultConfig(),
		Preprocess: preprocess.DefaultConfig(),
		PDF:        pdf.DefaultConfig(),
		Options:    DefaultOptions(),
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg      Config
	eng      recognize.Engine
	progress ProgressFunc
}

// NewBuilder creates a pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithLanguages sets the recognition engine language set.
func (b *Builder) WithLanguages(langs ...string) *Builder {
	if len(langs) > 0 {
		b.cfg.Engine.Languages = langs
	}
	return b
}

// WithMaxRetries sets the retry budget (attempts = retries + 1).
func (b *Builder) WithMaxRetries(n int) *Builder {
	if n >= 0 {
		b.cfg.Options.MaxRetries = n
	}
	return b
}

// WithTimeoutMs sets the per-attempt deadline in milliseconds.
func (b *Builder) WithTimeoutMs(ms int) *Builder {
	if ms > 0 {
		b.cfg.Options.TimeoutMs = ms
	}
	return b
}

// WithPreprocessing toggles variant generation.
func (b *Builder) WithPreprocessing(enabled bool) *Builder {
	b.cfg.Options.EnablePreprocessing = enabled
	return b
}

// WithOptions replaces the processing options wholesale.
func (b *Builder) WithOptions(opts Options) *Builder {
	b.cfg.Options = opts
	return b
}

// WithOptionMap folds a loosely typed option map into the current
// options; unknown keys are ignored.
func (b *Builder) WithOptionMap(m map[string]any) *Builder {
	b.cfg.Options.ApplyMap(m)
	return b
}

// WithFastProfile switches the variant generator to the speed-oriented
// resolution band.
func (b *Builder) WithFastProfile() *Builder {
	b.cfg.Preprocess = preprocess.FastConfig()
	return b
}

// WithVariants selects the variant kinds to generate.
func (b *Builder) WithVariants(kinds ...preprocess.VariantKind) *Builder {
	if len(kinds) > 0 {
		b.cfg.Preprocess.Variants = kinds
	}
	return b
}

// WithRecognition selects the engine configurations to cycle through.
func (b *Builder) WithRecognition(configs ...engine.RecognitionConfig) *Builder {
	if len(configs) > 0 {
		b.cfg.Recognition = configs
	}
	return b
}

// WithRenderScale sets the PDF rasterization scale.
func (b *Builder) WithRenderScale(scale float64) *Builder {
	if scale > 0 {
		b.cfg.PDF.RenderScale = scale
	}
	return b
}

// WithSaveVariantsDir enables the variant debug dump.
func (b *Builder) WithSaveVariantsDir(dir string) *Builder {
	b.cfg.SaveVariantsDir = dir
	return b
}

// WithEngine injects a recognition engine, bypassing Tesseract
// construction. Tests use this to substitute fakes.
func (b *Builder) WithEngine(eng recognize.Engine) *Builder {
	b.eng = eng
	return b
}

// WithProgress registers a callback that receives per-stage progress
// events during processing.
func (b *Builder) WithProgress(fn ProgressFunc) *Builder {
	b.progress = fn
	return b
}

// Validate checks the assembled configuration.
func (b *Builder) Validate() error {
	if err := b.cfg.Options.Validate(); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	if err := b.cfg.Preprocess.Validate(); err != nil {
		return err
	}
	if err := b.cfg.PDF.Validate(); err != nil {
		return fmt.Errorf("pdf config: %w", err)
	}
	if b.eng == nil {
		if err := b.cfg.Engine.Validate(); err != nil {
			return fmt.Errorf("engine config: %w", err)
		}
	}
	return nil
}

// Pipeline is the processing controller. It owns the recognition engine
// session and must be closed after use.
type Pipeline struct {
	cfg          Config
	eng          recognize.Engine
	engCloser    io.Closer
	generator    *preprocess.Generator
	orchestrator *recognize.Orchestrator
	pdf          *pdf.Processor
	progress     ProgressFunc
	stats        Stats
}

// Build initializes the pipeline components, cleaning up on partial
// failure.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	gen, err := preprocess.NewGenerator(b.cfg.Preprocess)
	if err != nil {
		return nil, err
	}
	pdfProc, err := pdf.NewProcessor(b.cfg.PDF)
	if err != nil {
		return nil, err
	}

	eng := b.eng
	var closer io.Closer
	if eng == nil {
		tess, err := engine.New(b.cfg.Engine)
		if err != nil {
			return nil, fmt.Errorf("init recognition engine: %w", err)
		}
		eng = tess
		closer = tess
	}

	orch, err := recognize.NewOrchestrator(eng, b.cfg.Recognition)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("init orchestrator: %w", err)
	}

	return &Pipeline{
		cfg:          b.cfg,
		eng:          eng,
		engCloser:    closer,
		generator:    gen,
		orchestrator: orch,
		pdf:          pdfProc,
		progress:     b.progress,
	}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Close releases the recognition engine session. Safe to call more than
// once.
func (p *Pipeline) Close() error {
	if p.engCloser != nil {
		err := p.engCloser.Close()
		p.engCloser = nil
		return err
	}
	return nil
}

// Info returns key pipeline properties for diagnostics endpoints.
func (p *Pipeline) Info() map[string]interface{} {
	configs := p.orchestrator.Configs()
	names := make([]string, 0, len(configs))
	for _, rc := range configs {
		names = append(names, rc.Name)
	}
	variants := make([]string, 0, len(p.cfg.Preprocess.Variants))
	for _, k := range p.cfg.Preprocess.Variants {
		variants = append(variants, string(k))
	}
	return map[string]interface{}{
		"languages":      p.cfg.Engine.Languages,
		"variants":       variants,
		"configurations": names,
		"max_retries":    p.cfg.Options.MaxRetries,
		"timeout_ms":     p.cfg.Options.TimeoutMs,
		"preprocessing":  p.cfg.Options.EnablePreprocessing,
		"render_scale":   p.cfg.PDF.RenderScale,
	}
}
