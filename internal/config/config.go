package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"docrank/internal/domain"
)

// Embedder types.
const (
	EmbedderTFIDF     = "tfidf"
	EmbedderOpenAI    = "openai"
	EmbedderFastEmbed = "fastembed"
)

// InputConfig locates the documents and the persona file.
type InputConfig struct {
	Dir string `yaml:"dir"`
	// PersonaFile is resolved against Dir when relative.
	PersonaFile string `yaml:"persona_file"`
}

// S3Config enables uploading the report after it is written locally.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// OutputConfig locates the report.
type OutputConfig struct {
	Dir      string    `yaml:"dir"`
	FileName string    `yaml:"file_name"`
	S3       *S3Config `yaml:"s3,omitempty"`
}

// ExtractionConfig configures PDF text extraction.
type ExtractionConfig struct {
	Tool        string `yaml:"tool"`
	MinChars    int    `yaml:"min_chars"`
	Workers     int    `yaml:"workers"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RankingConfig configures scoring and truncation.
type RankingConfig struct {
	TopK      int `yaml:"top_k"`
	BatchSize int `yaml:"batch_size"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Model             string  `yaml:"model"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	BatchSize         int     `yaml:"batch_size"`
	MaxRetries        int     `yaml:"max_retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// FastEmbedConfig holds configuration for the local ONNX embedder.
type FastEmbedConfig struct {
	Model     string `yaml:"model"`
	CacheDir  string `yaml:"cache_dir"`
	MaxLength int    `yaml:"max_length"`
	BatchSize int    `yaml:"batch_size"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	FastEmbed *FastEmbedConfig      `yaml:"fastembed,omitempty"`
}

// LoggingConfig selects level and encoder.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Input      InputConfig      `yaml:"input"`
	Output     OutputConfig     `yaml:"output"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Ranking    RankingConfig    `yaml:"ranking"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PersonaPath returns the persona file path, relative to the input dir
// unless absolute.
func (c *AppConfig) PersonaPath() string {
	if filepath.IsAbs(c.Input.PersonaFile) {
		return c.Input.PersonaFile
	}
	return filepath.Join(c.Input.Dir, c.Input.PersonaFile)
}

// Validate reports every invalid setting.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Input.Dir == "" {
		errs = append(errs, errors.New("input.dir is required"))
	}
	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output.dir is required"))
	}
	if c.Ranking.TopK < 0 {
		errs = append(errs, fmt.Errorf("ranking.top_k must not be negative, got %d", c.Ranking.TopK))
	}
	if c.Ranking.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("ranking.batch_size must not be negative, got %d", c.Ranking.BatchSize))
	}
	if c.Extraction.MinChars < 0 {
		errs = append(errs, fmt.Errorf("extraction.min_chars must not be negative, got %d", c.Extraction.MinChars))
	}
	if c.Extraction.Workers < 0 {
		errs = append(errs, fmt.Errorf("extraction.workers must not be negative, got %d", c.Extraction.Workers))
	}
	if c.Extraction.TimeoutSecs < 0 {
		errs = append(errs, fmt.Errorf("extraction.timeout_secs must not be negative, got %d", c.Extraction.TimeoutSecs))
	}
	if !slices.Contains([]string{EmbedderTFIDF, EmbedderOpenAI, EmbedderFastEmbed}, c.Embedder.Type) {
		errs = append(errs, fmt.Errorf("unknown embedder type %q", c.Embedder.Type))
	}
	if !slices.Contains([]string{"", "console", "json"}, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("unknown logging format %q", c.Logging.Format))
	}
	if s3 := c.Output.S3; s3 != nil && s3.Bucket == "" && (s3.Prefix != "" || s3.Region != "") {
		errs = append(errs, errors.New("output.s3.bucket is required when s3 is configured"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return nil
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			return cfg, nil
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrConfiguration, path, err)
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docrank/config.yaml.
// If neither exists, it writes defaults to ~/.config/docrank/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		// a read-only home is not fatal, the defaults still apply
		return cfg, "", nil
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultUserConfigPath returns ~/.config/docrank/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docrank", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{
		Input:      InputConfig{Dir: "/app/input", PersonaFile: "persona_job.json"},
		Output:     OutputConfig{Dir: "/app/output", FileName: "results.json"},
		Extraction: ExtractionConfig{Tool: "pdftotext", MinChars: 20, Workers: 1, TimeoutSecs: 60},
		Ranking:    RankingConfig{TopK: 5, BatchSize: 32},
		Embedder:   EmbedderConfig{Type: EmbedderTFIDF},
		Logging:    LoggingConfig{Level: "info", Format: "console"},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Output.FileName == "" {
		cfg.Output.FileName = "results.json"
	}
	if cfg.Extraction.Tool == "" {
		cfg.Extraction.Tool = "pdftotext"
	}
	if cfg.Extraction.Workers == 0 {
		cfg.Extraction.Workers = 1
	}
	if cfg.Ranking.BatchSize == 0 {
		cfg.Ranking.BatchSize = 32
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = EmbedderTFIDF
	}
	if cfg.Embedder.Type == EmbedderOpenAI {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 32
		}
		if cfg.Embedder.OpenAI.MaxRetries == 0 {
			cfg.Embedder.OpenAI.MaxRetries = 3
		}
	}
	if cfg.Embedder.Type == EmbedderFastEmbed && cfg.Embedder.FastEmbed == nil {
		cfg.Embedder.FastEmbed = &FastEmbedConfig{}
	}
}
