package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/biggeezerdevelopment/shardjson"
)

// Config holds the decode settings a YAML file may provide.
type Config struct {
	Strategy     string `yaml:"strategy"`
	TokenMode    string `yaml:"token_mode"`
	Shards       int    `yaml:"shards"`
	Workers      int    `yaml:"workers"`
	MinShardSize int    `yaml:"min_shard_size"`
	MaxDepth     int    `yaml:"max_depth"`
	Escapes      string `yaml:"escapes"`
	Numbers      string `yaml:"numbers"`
}

// NewConfig returns the library defaults.
func NewConfig() *Config {
	return &Config{
		Strategy:     shardjson.StrategyRunes.String(),
		TokenMode:    shardjson.TokenBorrowed.String(),
		MinShardSize: shardjson.DefaultMinShardSize,
		MaxDepth:     shardjson.DefaultMaxDepth,
		Escapes:      shardjson.EscapeStrict.String(),
		Numbers:      shardjson.NumberAccumulate.String(),
	}
}

// LoadConfig reads a YAML file over the defaults. Keys missing from the file
// keep their default value.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stageErr(StageConfig, err, "failed to read config file")
	}

	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, stageErr(StageConfig, err, "failed to parse config file")
	}
	return cfg, nil
}

var configNames = []string{".shardjson.yml", ".shardjson.yaml"}

// FindConfigFile looks for a config file in dir and its parents and returns
// the first one found, or "".
func FindConfigFile(dir string) string {
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Options converts the settings to decoder options.
func (c *Config) Options(logger *slog.Logger) ([]shardjson.Option, error) {
	strategy, err := shardjson.ParseStrategy(c.Strategy)
	if err != nil {
		return nil, stageErr(StageConfig, err, "strategy")
	}
	mode, err := shardjson.ParseTokenMode(c.TokenMode)
	if err != nil {
		return nil, stageErr(StageConfig, err, "token mode")
	}
	escapes, err := parseEscapes(c.Escapes)
	if err != nil {
		return nil, err
	}
	numbers, err := parseNumbers(c.Numbers)
	if err != nil {
		return nil, err
	}
	return []shardjson.Option{
		shardjson.WithStrategy(strategy),
		shardjson.WithTokenMode(mode),
		shardjson.WithShards(c.Shards),
		shardjson.WithWorkers(c.Workers),
		shardjson.WithMinShardSize(c.MinShardSize),
		shardjson.WithMaxDepth(c.MaxDepth),
		shardjson.WithEscapePolicy(escapes),
		shardjson.WithNumberMode(numbers),
		shardjson.WithLogger(logger),
	}, nil
}

func parseEscapes(name string) (shardjson.EscapePolicy, error) {
	for _, p := range []shardjson.EscapePolicy{shardjson.EscapeStrict, shardjson.EscapePermissive} {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, stageErr(StageConfig, shardjson.ErrInvalidOption, "unknown escape policy %q", name)
}

func parseNumbers(name string) (shardjson.NumberMode, error) {
	for _, m := range []shardjson.NumberMode{shardjson.NumberAccumulate, shardjson.NumberPrecise} {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, stageErr(StageConfig, shardjson.ErrInvalidOption, "unknown number mode %q", name)
}

func (c *Config) String() string {
	return fmt.Sprintf("strategy=%s token_mode=%s shards=%d workers=%d min_shard_size=%d max_depth=%d escapes=%s numbers=%s",
		c.Strategy, c.TokenMode, c.Shards, c.Workers, c.MinShardSize, c.MaxDepth, c.Escapes, c.Numbers)
}
