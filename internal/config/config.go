package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/greenqa/internal/domain"
	"github.com/kailas-cloud/greenqa/internal/domain/chunk"
	"github.com/kailas-cloud/greenqa/internal/domain/search/mode"
	"github.com/kailas-cloud/greenqa/internal/domain/search/request"
	"github.com/kailas-cloud/greenqa/internal/domain/simplify"
)

// Storage drivers.
const (
	DriverBolt  = "bolt"
	DriverRedis = "redis"
)

// Config holds the greenqa configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Simplify  SimplifyConfig  `yaml:"simplify"`
	Document  DocumentConfig  `yaml:"document"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds snapshot storage connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // bolt, redis (default: bolt)
	Path             string   `yaml:"path"`   // bolt file
	Addrs            []string `yaml:"addrs"`  // redis
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds key layout settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// ChunkingConfig holds the word-window parameters.
// Defaults apply only when the whole block is unset, so overlap: 0 and min_words: 0 stay
// expressible and a partial block without size fails validation instead of being replaced.
type ChunkingConfig struct {
	Size     int `yaml:"size"`
	Overlap  int `yaml:"overlap"`
	MinWords int `yaml:"min_words"`
}

// Params converts to chunker parameters.
func (c ChunkingConfig) Params() chunk.Params {
	return chunk.Params{Size: c.Size, Overlap: c.Overlap, MinWords: c.MinWords}
}

// RetrievalConfig holds question answering defaults.
type RetrievalConfig struct {
	Threshold    float64 `yaml:"threshold"`
	MaxFeatures  int     `yaml:"max_features"` // negative = uncapped
	Alternatives int     `yaml:"alternatives"`
	DefaultMode  string  `yaml:"default_mode"`
}

// SimplifyConfig holds answer simplification settings.
type SimplifyConfig struct {
	MaxSentences     int      `yaml:"max_sentences"`
	MaxSentenceWords int      `yaml:"max_sentence_words"`
	MinSentenceChars int      `yaml:"min_sentence_chars"`
	BlockedWords     []string `yaml:"blocked_words"`
}

// Options converts to simplifier options.
func (c SimplifyConfig) Options() simplify.Options {
	return simplify.Options{
		MaxSentences:     c.MaxSentences,
		MaxSentenceWords: c.MaxSentenceWords,
		MinSentenceChars: c.MinSentenceChars,
		BlockedWords:     c.BlockedWords,
	}
}

// DocumentConfig selects the document indexed at startup.
type DocumentConfig struct {
	Path       string `yaml:"path"`
	Watch      bool   `yaml:"watch"` // rebuild when the file changes
	DebounceMs int    `yaml:"debounce_ms"`
	Sample     bool   `yaml:"sample"` // index the built-in sample when no path and no snapshot
}

// Debounce returns the watch debounce interval.
func (c DocumentConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverBolt
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join("data", "greenqa.db")
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "greenqa:"
	}
	if c.Chunking == (ChunkingConfig{}) {
		c.Chunking = ChunkingConfig{Size: 300, Overlap: 50, MinWords: 30}
	}
	if c.Retrieval.Threshold <= 0 {
		c.Retrieval.Threshold = 0.05
	}
	if c.Retrieval.MaxFeatures == 0 {
		c.Retrieval.MaxFeatures = 1000
	}
	if c.Retrieval.DefaultMode == "" {
		c.Retrieval.DefaultMode = string(mode.TFIDF)
	}
	defaults := simplify.DefaultOptions()
	if c.Simplify.MaxSentences <= 0 {
		c.Simplify.MaxSentences = defaults.MaxSentences
	}
	if c.Simplify.MaxSentenceWords <= 0 {
		c.Simplify.MaxSentenceWords = defaults.MaxSentenceWords
	}
	if c.Simplify.MinSentenceChars <= 0 {
		c.Simplify.MinSentenceChars = defaults.MinSentenceChars
	}
	if c.Simplify.BlockedWords == nil {
		c.Simplify.BlockedWords = defaults.BlockedWords
	}
	if c.Document.DebounceMs <= 0 {
		c.Document.DebounceMs = 500
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverBolt:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the bolt driver")
		}
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverBolt, DriverRedis, c.Database.Driver)
	}
	if err := c.Chunking.Params().Validate(); err != nil {
		return fmt.Errorf("chunking: %w", err)
	}
	// A window keeps only more than min_words words, so min_words >= size drops every chunk.
	if c.Chunking.MinWords >= c.Chunking.Size {
		return fmt.Errorf("chunking: %w: min_words (%d) must be less than size (%d)",
			domain.ErrInvalidChunking, c.Chunking.MinWords, c.Chunking.Size)
	}
	if c.Retrieval.Threshold < 0 || c.Retrieval.Threshold >= 1 {
		return fmt.Errorf("retrieval.threshold must be in [0, 1), got %v", c.Retrieval.Threshold)
	}
	if c.Retrieval.Alternatives < 0 || c.Retrieval.Alternatives > request.MaxAlternatives {
		return fmt.Errorf("retrieval.alternatives must be between 0 and %d, got %d",
			request.MaxAlternatives, c.Retrieval.Alternatives)
	}
	if !mode.Mode(c.Retrieval.DefaultMode).IsValid() {
		return fmt.Errorf("retrieval.default_mode must be %q or %q, got %q",
			mode.TFIDF, mode.Overlap, c.Retrieval.DefaultMode)
	}
	if c.Document.Watch && c.Document.Path == "" {
		return fmt.Errorf("document.watch requires document.path")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
