// Package config defines the parasearch configuration.
//
// A single Config value is constructed at process start (defaults, then an
// optional YAML file, then PARASEARCH_* environment overrides) and passed
// into each component's constructor. There is no ambient global state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete parasearch configuration.
type Config struct {
	Index   IndexConfig   `yaml:"index" json:"index"`
	Segment SegmentConfig `yaml:"segment" json:"segment"`
	Embed   EmbedConfig   `yaml:"embed" json:"embed"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Server  ServerConfig  `yaml:"server" json:"server"`
}

// IndexConfig configures the on-disk index store.
type IndexConfig struct {
	// DataDir is the directory holding the index database and lock file.
	// Defaults to ~/.parasearch.
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// SegmentConfig configures paragraph extraction.
type SegmentConfig struct {
	// MinParagraphLength is the minimum character count for a paragraph.
	MinParagraphLength int `yaml:"min_paragraph_length" json:"min_paragraph_length"`
	// MaxParagraphLength is the maximum character count before splitting.
	MaxParagraphLength int `yaml:"max_paragraph_length" json:"max_paragraph_length"`
	// OverlapSize is the character overlap when splitting long paragraphs.
	OverlapSize int `yaml:"overlap_size" json:"overlap_size"`
}

// EmbedConfig configures the embedding provider.
type EmbedConfig struct {
	// Provider selects the embedder: "ollama" or "static".
	Provider string `yaml:"provider" json:"provider"`
	// Model is the embedding model name (ollama provider).
	Model string `yaml:"model" json:"model"`
	// OllamaHost is the Ollama API endpoint.
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`
	// Dimensions is the embedding vector dimension.
	Dimensions int `yaml:"dimensions" json:"dimensions"`
	// MinBatchSize is the batch size floor under memory pressure.
	MinBatchSize int `yaml:"min_batch_size" json:"min_batch_size"`
	// BatchSize is the default embedding batch size.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// MaxBatchSize caps the adaptive batch size.
	MaxBatchSize int `yaml:"max_batch_size" json:"max_batch_size"`
	// CacheSize is the number of query embeddings kept in the LRU cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
	// Timeout bounds a single embedding request.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// SearchConfig configures similarity search.
type SearchConfig struct {
	// SimilarityThreshold is the minimum cosine similarity for fallback
	// search results. The indexed backend does not apply it.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
	// MaxResults caps the search result count; limits are clamped to it.
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// WatchConfig configures the watch subsystem.
type WatchConfig struct {
	// Extensions are the file extensions eligible for indexing.
	Extensions []string `yaml:"extensions" json:"extensions"`
	// ExcludePatterns are glob patterns matched against paths to skip.
	ExcludePatterns []string `yaml:"exclude_patterns" json:"exclude_patterns"`
	// Debounce is the minimum interval between accepted modify events per path.
	Debounce time.Duration `yaml:"debounce" json:"debounce"`
	// MaxDirectories is the ceiling on concurrently watched directories.
	MaxDirectories int `yaml:"max_directories" json:"max_directories"`
	// Recursive watches subdirectories of each watched directory.
	Recursive bool `yaml:"recursive" json:"recursive"`
	// QueueSize is the capacity of the pending-change queue.
	QueueSize int `yaml:"queue_size" json:"queue_size"`
}

// ServerConfig configures the MCP server and logging.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			DataDir: defaultDataDir(),
		},
		Segment: SegmentConfig{
			MinParagraphLength: 50,
			MaxParagraphLength: 2000,
			OverlapSize:        100,
		},
		Embed: EmbedConfig{
			Provider:     "ollama",
			Model:        "all-minilm",
			OllamaHost:   "http://localhost:11434",
			Dimensions:   384,
			MinBatchSize: 4,
			BatchSize:    16,
			MaxBatchSize: 32,
			CacheSize:    1000,
			Timeout:      60 * time.Second,
		},
		Search: SearchConfig{
			SimilarityThreshold: 0.7,
			MaxResults:          10,
		},
		Watch: WatchConfig{
			Extensions:      []string{".md", ".markdown", ".tex", ".latex"},
			ExcludePatterns: []string{"**/.git/**", "**/node_modules/**", "**/.vscode/**", "**/dist/**", "**/build/**"},
			Debounce:        2 * time.Second,
			MaxDirectories:  10,
			Recursive:       true,
			QueueSize:       256,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if it exists), then PARASEARCH_* environment overrides, validated.
// An empty path means the default location (<data_dir>/config.yaml).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(cfg.Index.DataDir, "config.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No config file is fine; defaults apply.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies PARASEARCH_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PARASEARCH_DATA_DIR"); v != "" {
		c.Index.DataDir = v
	}
	if v := os.Getenv("PARASEARCH_EMBED_PROVIDER"); v != "" {
		c.Embed.Provider = v
	}
	if v := os.Getenv("PARASEARCH_EMBED_MODEL"); v != "" {
		c.Embed.Model = v
	}
	if v := os.Getenv("PARASEARCH_OLLAMA_HOST"); v != "" {
		c.Embed.OllamaHost = v
	}
	if v := os.Getenv("PARASEARCH_SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("PARASEARCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Watch.Debounce = d
		}
	}
	if v := os.Getenv("PARASEARCH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	if c.Index.DataDir == "" {
		return fmt.Errorf("index.data_dir must not be empty")
	}
	if c.Segment.MinParagraphLength <= 0 {
		return fmt.Errorf("segment.min_paragraph_length must be positive, got %d", c.Segment.MinParagraphLength)
	}
	if c.Segment.MaxParagraphLength <= c.Segment.MinParagraphLength {
		return fmt.Errorf("segment.max_paragraph_length (%d) must exceed min_paragraph_length (%d)",
			c.Segment.MaxParagraphLength, c.Segment.MinParagraphLength)
	}
	if c.Embed.Dimensions <= 0 {
		return fmt.Errorf("embed.dimensions must be positive, got %d", c.Embed.Dimensions)
	}
	if c.Embed.MinBatchSize <= 0 || c.Embed.BatchSize < c.Embed.MinBatchSize || c.Embed.MaxBatchSize < c.Embed.BatchSize {
		return fmt.Errorf("embed batch sizes must satisfy 0 < min (%d) <= default (%d) <= max (%d)",
			c.Embed.MinBatchSize, c.Embed.BatchSize, c.Embed.MaxBatchSize)
	}
	if c.Search.SimilarityThreshold < -1 || c.Search.SimilarityThreshold > 1 {
		return fmt.Errorf("search.similarity_threshold must be in [-1, 1], got %f", c.Search.SimilarityThreshold)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if c.Watch.MaxDirectories <= 0 {
		return fmt.Errorf("watch.max_directories must be positive, got %d", c.Watch.MaxDirectories)
	}
	if c.Watch.QueueSize <= 0 {
		return fmt.Errorf("watch.queue_size must be positive, got %d", c.Watch.QueueSize)
	}
	if len(c.Watch.Extensions) == 0 {
		return fmt.Errorf("watch.extensions must not be empty")
	}
	for _, ext := range c.Watch.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("watch extension %q must start with a dot", ext)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database file path.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Index.DataDir, "embeddings.db")
}

// SupportsExtension reports whether the file extension is indexable.
func (c *Config) SupportsExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range c.Watch.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// defaultDataDir returns ~/.parasearch, or a temp fallback.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".parasearch")
	}
	return filepath.Join(home, ".parasearch")
}
