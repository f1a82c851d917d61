// Package file loads the TOML configuration file and environment
// credentials. Secrets never live in the file; they come from the
// environment only.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
)

// Environment variables holding credentials.
const (
	EnvBubbleToken  = "BUBBLE_API_TOKEN"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// Config is the application configuration, loaded from config.toml.
type Config struct {
	// Source configures the Bubble Data API connection.
	Source SourceConfig `toml:"source"`

	// ObjectTypes lists the object types to synchronise, in order.
	ObjectTypes []string `toml:"object_types"`

	// Mapping configures document quality floors.
	Mapping MappingConfig `toml:"mapping"`

	// Chunking configures the text splitter.
	Chunking ChunkingConfig `toml:"chunking"`

	// Embedding selects and configures the embedding provider.
	Embedding EmbeddingConfig `toml:"embedding"`

	// DataDir is where the sync database and vector index live.
	// Defaults to ~/.bubblesync/data.
	DataDir string `toml:"data_dir"`
}

// SourceConfig configures the Bubble Data API connection.
type SourceConfig struct {
	// BaseURL is the Data API root, e.g.
	// https://myapp.bubbleapps.io/api/1.1/obj
	BaseURL string `toml:"base_url"`

	// Token is the API token. Usually left empty in the file and
	// supplied via BUBBLE_API_TOKEN.
	Token string `toml:"token"`

	// PageSize is the records-per-page limit (default 100, max 100).
	PageSize int `toml:"page_size"`

	// RequestsPerSecond throttles API calls (default 2).
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// MappingConfig configures document quality floors.
type MappingConfig struct {
	// MinTextLength drops documents shorter than this (default 20).
	MinTextLength int `toml:"min_text_length"`

	// MaxTextLength truncates documents longer than this (default 10000).
	MaxTextLength int `toml:"max_text_length"`
}

// ChunkingConfig configures the text splitter.
type ChunkingConfig struct {
	// ChunkSize is the maximum chunk length in characters (default 4000).
	ChunkSize int `toml:"chunk_size"`

	// ChunkOverlap is the overlap carried between chunks (default 200).
	ChunkOverlap int `toml:"chunk_overlap"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	// Provider is "ollama" (default) or "openai".
	Provider string `toml:"provider"`

	// Model overrides the provider's default model.
	Model string `toml:"model"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `toml:"base_url"`

	// Dimensions overrides the model's default vector size.
	Dimensions int `toml:"dimensions"`
}

// Load reads the configuration from path. If path is empty,
// ~/.bubblesync/config.toml is used. A missing file yields defaults;
// credentials are then filled in from the environment.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".bubblesync", "config.toml")
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()
	return cfg, nil
}

// applyEnv overlays credentials from the environment. Environment values
// win over file values so secrets can stay out of the file entirely.
func (c *Config) applyEnv() {
	if token := os.Getenv(EnvBubbleToken); token != "" {
		c.Source.Token = token
	}
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Source.PageSize == 0 {
		c.Source.PageSize = 100
	}
	if c.Source.RequestsPerSecond == 0 {
		c.Source.RequestsPerSecond = 2.0
	}
	if c.Mapping.MinTextLength == 0 {
		c.Mapping.MinTextLength = 20
	}
	if c.Mapping.MaxTextLength == 0 {
		c.Mapping.MaxTextLength = 10000
	}
	if c.Chunking.ChunkSize == 0 {
		c.Chunking.ChunkSize = 4000
	}
	if c.Chunking.ChunkOverlap == 0 {
		c.Chunking.ChunkOverlap = 200
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "ollama"
	}
}

// Validate checks fields needed before a sync can run.
func (c *Config) Validate() error {
	if c.Source.BaseURL == "" {
		return fmt.Errorf("%w: source.base_url is required", domain.ErrInvalidInput)
	}
	if len(c.ObjectTypes) == 0 {
		return fmt.Errorf("%w: object_types must list at least one type", domain.ErrInvalidInput)
	}
	if c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be smaller than chunk_size", domain.ErrInvalidInput)
	}
	switch c.Embedding.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, c.Embedding.Provider)
	}
	return nil
}

// OpenAIAPIKey returns the OpenAI key from the environment.
func OpenAIAPIKey() string {
	return os.Getenv(EnvOpenAIAPIKey)
}
