//nolint:lll
package config

// Config represents the complete configuration for the scanbill application.
// It includes settings for all commands (scan, serve, eval) and supports
// loading from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Pipeline configuration
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// PipelineConfig contains processing pipeline settings.
type PipelineConfig struct {
	// Recognition engine settings
	Engine EngineConfig `mapstructure:"engine" yaml:"engine" json:"engine"`

	// Variant generation settings
	Preprocess PreprocessConfig `mapstructure:"preprocess" yaml:"preprocess" json:"preprocess"`

	// Retry and timeout settings
	Options OptionsConfig `mapstructure:"options" yaml:"options" json:"options"`

	// PDF handling settings
	PDF PDFConfig `mapstructure:"pdf" yaml:"pdf" json:"pdf"`

	// Recognition selects catalog entries by name; empty means all.
	Recognition []string `mapstructure:"recognition" yaml:"recognition" json:"recognition"`
}

// EngineConfig contains recognition engine settings.
type EngineConfig struct {
	Languages []string `mapstructure:"languages" yaml:"languages" json:"languages"`
	DPI       int      `mapstructure:"dpi" yaml:"dpi" json:"dpi"`
}

// PreprocessConfig contains variant generation settings.
type PreprocessConfig struct {
	// Profile selects the resolution band: "quality" or "fast".
	Profile string `mapstructure:"profile" yaml:"profile" json:"profile"`
	// Variants selects the variant kinds to generate; empty means the
	// profile's default set.
	Variants []string `mapstructure:"variants" yaml:"variants" json:"variants"`
	// SaveDir, when set, dumps every generated variant as a PNG.
	SaveDir string `mapstructure:"save_dir" yaml:"save_dir" json:"save_dir"`
}

// OptionsConfig contains retry and timeout settings.
type OptionsConfig struct {
	MaxRetries          int  `mapstructure:"max_retries" yaml:"max_retries" json:"max_retries"`
	TimeoutMs           int  `mapstructure:"timeout_ms" yaml:"timeout_ms" json:"timeout_ms"`
	EnablePreprocessing bool `mapstructure:"enable_preprocessing" yaml:"enable_preprocessing" json:"enable_preprocessing"`
}

// PDFConfig contains PDF handling settings.
type PDFConfig struct {
	RenderScale float64 `mapstructure:"render_scale" yaml:"render_scale" json:"render_scale"`
	MaxPages    int     `mapstructure:"max_pages" yaml:"max_pages" json:"max_pages"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty" json:"pretty"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	OutputDir       string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	Recursive       bool   `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	ContinueOnError bool   `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}
