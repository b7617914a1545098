package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"jnkn/internal/confidence"
	"jnkn/internal/stitch"
)

// Config represents the complete jnkn configuration (v1 schema)
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Matching MatchingConfig `json:"matching" mapstructure:"matching"`
	Impact   ImpactConfig   `json:"impact" mapstructure:"impact"`
	Storage  StorageConfig  `json:"storage" mapstructure:"storage"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// MatchingConfig contains the stitching and confidence tunables. Empty
// vocabulary lists fall back to the built-in defaults.
type MatchingConfig struct {
	MinConfidence    float64  `json:"minConfidence" mapstructure:"minConfidence"`
	MinTokenOverlap  int      `json:"minTokenOverlap" mapstructure:"minTokenOverlap"`
	MinTokenLength   int      `json:"minTokenLength" mapstructure:"minTokenLength"`
	ShortTokenLength int      `json:"shortTokenLength" mapstructure:"shortTokenLength"`
	CommonTokens     []string `json:"commonTokens,omitempty" mapstructure:"commonTokens"`
	LowValueTokens   []string `json:"lowValueTokens,omitempty" mapstructure:"lowValueTokens"`
}

// ImpactConfig contains blast-radius traversal limits
type ImpactConfig struct {
	MaxDepth int `json:"maxDepth" mapstructure:"maxDepth"`
}

// StorageConfig contains graph persistence settings
type StorageConfig struct {
	DatabasePath string `json:"databasePath" mapstructure:"databasePath"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Matching: MatchingConfig{
			MinConfidence:    0.5,
			MinTokenOverlap:  2,
			MinTokenLength:   2,
			ShortTokenLength: 4,
		},
		Impact: ImpactConfig{
			MaxDepth: -1,
		},
		Storage: StorageConfig{
			DatabasePath: ".jnkn/jnkn.db",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .jnkn/config.json
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("version", defaults.Version)
	v.SetDefault("repoRoot", defaults.RepoRoot)
	v.SetDefault("matching.minConfidence", defaults.Matching.MinConfidence)
	v.SetDefault("matching.minTokenOverlap", defaults.Matching.MinTokenOverlap)
	v.SetDefault("matching.minTokenLength", defaults.Matching.MinTokenLength)
	v.SetDefault("matching.shortTokenLength", defaults.Matching.ShortTokenLength)
	v.SetDefault("impact.maxDepth", defaults.Impact.MaxDepth)
	v.SetDefault("storage.databasePath", defaults.Storage.DatabasePath)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.level", defaults.Logging.Level)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ".jnkn"))

	if err := v.ReadInConfig(); err != nil {
		// If config doesn't exist, return default config
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to .jnkn/config.json
func (c *Config) Save(repoRoot string) error {
	configDir := filepath.Join(repoRoot, ".jnkn")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(configDir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Matching.MinConfidence < 0 || c.Matching.MinConfidence > 1 {
		return &ConfigError{Field: "matching.minConfidence", Message: "must be within [0,1]"}
	}
	if c.Matching.MinTokenLength < 1 {
		return &ConfigError{Field: "matching.minTokenLength", Message: "must be at least 1"}
	}
	if c.Matching.ShortTokenLength < 1 {
		return &ConfigError{Field: "matching.shortTokenLength", Message: "must be at least 1"}
	}
	switch c.Logging.Format {
	case "", "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be 'human' or 'json'"}
	}
	return nil
}

// MatchConfig materializes the matching section into the thresholds the
// stitching rules consume.
func (c *Config) MatchConfig() *stitch.MatchConfig {
	scoring := confidence.DefaultConfig()
	scoring.ShortTokenLength = c.Matching.ShortTokenLength
	if len(c.Matching.CommonTokens) > 0 {
		scoring.CommonTokens = tokenSet(c.Matching.CommonTokens)
	}
	if len(c.Matching.LowValueTokens) > 0 {
		scoring.LowValueTokens = tokenSet(c.Matching.LowValueTokens)
	}
	return &stitch.MatchConfig{
		MinConfidence:   c.Matching.MinConfidence,
		MinTokenOverlap: c.Matching.MinTokenOverlap,
		MinTokenLength:  c.Matching.MinTokenLength,
		Confidence:      scoring,
	}
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
