// Package config loads and validates logsonar configuration.
//
// Configuration is applied in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/logsonar/config.yaml, XDG aware)
//  3. Working-directory config (.logsonar.yaml)
//  4. Environment variables (LOGSONAR_*)
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

// Defaults mirror the original live-log system's tuning.
const (
	DefaultFlushInterval = 10 * time.Second
	DefaultBatchSize     = 16
	DefaultBatchTimeout  = 2 * time.Second
	DefaultQueueCapacity = 1024
	DefaultMaxIndexSize  = 100000
	DefaultK             = 5
	DefaultDisplay       = "pretty"
)

// Config represents the complete logsonar configuration.
type Config struct {
	Source     SourceConfig     `yaml:"source" json:"source"`
	Dedup      DedupConfig      `yaml:"dedup" json:"dedup"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Index      IndexConfig      `yaml:"index" json:"index"`
	Query      QueryConfig      `yaml:"query" json:"query"`
	LogLevel   string           `yaml:"log_level" json:"log_level"`
}

// SourceConfig configures where raw log lines come from.
type SourceConfig struct {
	// Command is the line-producing subprocess, split into argv.
	// Ignored when File is set.
	Command []string `yaml:"command" json:"command"`

	// File switches the source to tailing a file instead of a subprocess.
	File string `yaml:"file" json:"file"`

	// MaxRestarts bounds retries after unexpected source termination.
	MaxRestarts int `yaml:"max_restarts" json:"max_restarts"`
}

// DedupConfig configures repeat suppression.
type DedupConfig struct {
	// FlushInterval is the period between repeat-summary flushes.
	FlushInterval time.Duration `yaml:"flush_interval" json:"flush_interval"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the backend: "ollama" or "static".
	Provider   string        `yaml:"provider" json:"provider"`
	Model      string        `yaml:"model" json:"model"`
	Host       string        `yaml:"host" json:"host"`
	Dimensions int           `yaml:"dimensions" json:"dimensions"`
	BatchSize  int           `yaml:"batch_size" json:"batch_size"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`

	// CacheSize is the LRU capacity for query-embedding reuse.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// IndexConfig configures the bounded vector index.
type IndexConfig struct {
	// MaxSize caps metadata records and live vectors; oldest entries are
	// evicted first once exceeded.
	MaxSize int `yaml:"max_size" json:"max_size"`

	// QueueCapacity bounds the ingest hand-off channel. A full channel
	// blocks producers rather than dropping lines.
	QueueCapacity int `yaml:"queue_capacity" json:"queue_capacity"`

	// BatchTimeout is how long the embedder waits for more items before
	// flushing a partial batch.
	BatchTimeout time.Duration `yaml:"batch_timeout" json:"batch_timeout"`
}

// QueryConfig configures query defaults.
type QueryConfig struct {
	// K is the default result count when the query carries no k= token.
	K int `yaml:"k" json:"k"`

	// Display is the default display mode: "raw" or "pretty".
	Display string `yaml:"display" json:"display"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Command:     []string{"journalctl", "-f", "-o", "short"},
			MaxRestarts: 3,
		},
		Dedup: DedupConfig{
			FlushInterval: DefaultFlushInterval,
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "ollama",
			BatchSize: DefaultBatchSize,
			CacheSize: 512,
		},
		Index: IndexConfig{
			MaxSize:       DefaultMaxIndexSize,
			QueueCapacity: DefaultQueueCapacity,
			BatchTimeout:  DefaultBatchTimeout,
		},
		Query: QueryConfig{
			K:       DefaultK,
			Display: DefaultDisplay,
		},
		LogLevel: "info",
	}
}

// UserConfigPath returns the path to the user configuration file,
// following the XDG Base Directory specification.
func UserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "logsonar", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "logsonar", "config.yaml")
	}
	return filepath.Join(home, ".config", "logsonar", "config.yaml")
}

// Load builds the effective configuration for the given working directory.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := UserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	local := filepath.Join(dir, ".logsonar.yaml")
	if fileExists(local) {
		if err := cfg.loadYAML(local); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadYAML merges values from a YAML file over the current config.
// Zero values in the file leave existing settings untouched.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

func (c *Config) mergeWith(o *Config) {
	if len(o.Source.Command) > 0 {
		c.Source.Command = o.Source.Command
	}
	if o.Source.File != "" {
		c.Source.File = o.Source.File
	}
	if o.Source.MaxRestarts > 0 {
		c.Source.MaxRestarts = o.Source.MaxRestarts
	}
	if o.Dedup.FlushInterval > 0 {
		c.Dedup.FlushInterval = o.Dedup.FlushInterval
	}
	if o.Embeddings.Provider != "" {
		c.Embeddings.Provider = o.Embeddings.Provider
	}
	if o.Embeddings.Model != "" {
		c.Embeddings.Model = o.Embeddings.Model
	}
	if o.Embeddings.Host != "" {
		c.Embeddings.Host = o.Embeddings.Host
	}
	if o.Embeddings.Dimensions > 0 {
		c.Embeddings.Dimensions = o.Embeddings.Dimensions
	}
	if o.Embeddings.BatchSize > 0 {
		c.Embeddings.BatchSize = o.Embeddings.BatchSize
	}
	if o.Embeddings.Timeout > 0 {
		c.Embeddings.Timeout = o.Embeddings.Timeout
	}
	if o.Embeddings.CacheSize > 0 {
		c.Embeddings.CacheSize = o.Embeddings.CacheSize
	}
	if o.Index.MaxSize > 0 {
		c.Index.MaxSize = o.Index.MaxSize
	}
	if o.Index.QueueCapacity > 0 {
		c.Index.QueueCapacity = o.Index.QueueCapacity
	}
	if o.Index.BatchTimeout > 0 {
		c.Index.BatchTimeout = o.Index.BatchTimeout
	}
	if o.Query.K > 0 {
		c.Query.K = o.Query.K
	}
	if o.Query.Display != "" {
		c.Query.Display = o.Query.Display
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
}

// applyEnvOverrides applies LOGSONAR_* environment variables.
// Env vars win over any file-provided value.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LOGSONAR_SOURCE_COMMAND"); v != "" {
		c.Source.Command = strings.Fields(v)
	}
	if v := os.Getenv("LOGSONAR_SOURCE_FILE"); v != "" {
		c.Source.File = v
	}
	if v := os.Getenv("LOGSONAR_EMBED_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("LOGSONAR_EMBED_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("LOGSONAR_OLLAMA_HOST"); v != "" {
		c.Embeddings.Host = v
	}
	if v := os.Getenv("LOGSONAR_FLUSH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Dedup.FlushInterval = d
		}
	}
	if v := os.Getenv("LOGSONAR_MAX_INDEX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.MaxSize = n
		}
	}
	if v := os.Getenv("LOGSONAR_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Embeddings.BatchSize = n
		}
	}
	if v := os.Getenv("LOGSONAR_DEFAULT_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Query.K = n
		}
	}
	if v := os.Getenv("LOGSONAR_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the final configuration for inconsistencies.
func (c *Config) Validate() error {
	if len(c.Source.Command) == 0 && c.Source.File == "" {
		return fmt.Errorf("source: either command or file must be set")
	}
	if c.Dedup.FlushInterval <= 0 {
		return fmt.Errorf("dedup: flush_interval must be positive, got %s", c.Dedup.FlushInterval)
	}
	switch c.Embeddings.Provider {
	case "ollama", "static":
	default:
		return fmt.Errorf("embeddings: unknown provider %q (want ollama or static)", c.Embeddings.Provider)
	}
	if c.Embeddings.BatchSize <= 0 {
		return fmt.Errorf("embeddings: batch_size must be positive, got %d", c.Embeddings.BatchSize)
	}
	if c.Index.MaxSize <= 0 {
		return fmt.Errorf("index: max_size must be positive, got %d", c.Index.MaxSize)
	}
	if c.Index.QueueCapacity <= 0 {
		return fmt.Errorf("index: queue_capacity must be positive, got %d", c.Index.QueueCapacity)
	}
	if c.Query.K <= 0 {
		return fmt.Errorf("query: k must be positive, got %d", c.Query.K)
	}
	switch c.Query.Display {
	case "raw", "pretty":
	default:
		return fmt.Errorf("query: unknown display mode %q (want raw or pretty)", c.Query.Display)
	}
	return nil
}

// WriteYAML writes the configuration to the given path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
