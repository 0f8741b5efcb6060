// Package config loads and validates run configuration from defaults,
// an optional YAML file and DISTILL_ environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// File is the per-repository configuration file name.
	File = ".distill.yaml"
	// EnvPrefix marks environment variables that override file values.
	EnvPrefix = "DISTILL_"

	DefaultTokenLimit = 500000
	DefaultModel      = "gpt-4o"
	DefaultOutputDir  = ".distill"
)

// Routing holds the strategy classification thresholds. Scores are
// normalized to [0, 1] before comparison.
type Routing struct {
	HighCentrality   float64 `koanf:"high_centrality"`
	HighComplexity   float64 `koanf:"high_complexity"`
	ComplexityWeight float64 `koanf:"complexity_weight"`
}

// Richness holds the context-richness coefficients. They are a
// ranking policy, not a fixed formula, so they stay tunable.
type Richness struct {
	APIWeight  float64 `koanf:"api_weight"`
	LOCDivisor float64 `koanf:"loc_divisor"`
	Cap        float64 `koanf:"cap"`
}

// Logging configures the process logger.
type Logging struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Config is the full runtime configuration.
type Config struct {
	TokenLimit      int      `koanf:"token_limit"`
	Model           string   `koanf:"model"`
	OutputDir       string   `koanf:"output_dir"`
	Languages       []string `koanf:"languages"`
	EntryPointFloor float64  `koanf:"entry_point_floor"`
	Routing         Routing  `koanf:"routing"`
	Richness        Richness `koanf:"richness"`
	Logging         Logging  `koanf:"logging"`
}

// Default returns the configuration used when nothing is provided.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

// Load builds the configuration for a run: the YAML file at path when
// path is non-empty, then DISTILL_ environment variables, then
// defaults for everything left unset. The result is validated.
func Load(path string) (Config, error) {
	var cfg Config
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// DISTILL_TOKEN_LIMIT -> token_limit
	// DISTILL_ROUTING_HIGH_CENTRALITY -> routing.high_centrality
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return cfg, fmt.Errorf("load environment: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// FindFile returns the default config file under root when it exists,
// otherwise the empty string.
func FindFile(root string) string {
	path := filepath.Join(root, File)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range []string{"routing", "richness", "logging"} {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

func applyDefaults(cfg *Config) {
	if cfg.TokenLimit == 0 {
		cfg.TokenLimit = DefaultTokenLimit
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"python", "go"}
	}
	if cfg.EntryPointFloor == 0 {
		cfg.EntryPointFloor = 1.0
	}
	if cfg.Routing.HighCentrality == 0 {
		cfg.Routing.HighCentrality = 0.5
	}
	if cfg.Routing.HighComplexity == 0 {
		cfg.Routing.HighComplexity = 0.5
	}
	if cfg.Routing.ComplexityWeight == 0 {
		cfg.Routing.ComplexityWeight = 0.5
	}
	if cfg.Richness.APIWeight == 0 {
		cfg.Richness.APIWeight = 5.0
	}
	if cfg.Richness.LOCDivisor == 0 {
		cfg.Richness.LOCDivisor = 50.0
	}
	if cfg.Richness.Cap == 0 {
		cfg.Richness.Cap = 100.0
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate rejects configurations no run should start with.
func (c Config) Validate() error {
	if c.TokenLimit <= 0 {
		return fmt.Errorf("token_limit must be positive, got %d", c.TokenLimit)
	}
	if c.EntryPointFloor < 0 {
		return fmt.Errorf("entry_point_floor must not be negative, got %g", c.EntryPointFloor)
	}
	if c.Routing.HighCentrality <= 0 || c.Routing.HighCentrality > 1 {
		return fmt.Errorf("routing.high_centrality must be in (0, 1], got %g", c.Routing.HighCentrality)
	}
	if c.Routing.HighComplexity <= 0 || c.Routing.HighComplexity > 1 {
		return fmt.Errorf("routing.high_complexity must be in (0, 1], got %g", c.Routing.HighComplexity)
	}
	if c.Routing.ComplexityWeight < 0 || c.Routing.ComplexityWeight > 1 {
		return fmt.Errorf("routing.complexity_weight must be in [0, 1], got %g", c.Routing.ComplexityWeight)
	}
	if c.Richness.APIWeight < 0 {
		return fmt.Errorf("richness.api_weight must not be negative, got %g", c.Richness.APIWeight)
	}
	if c.Richness.LOCDivisor <= 0 {
		return fmt.Errorf("richness.loc_divisor must be positive, got %g", c.Richness.LOCDivisor)
	}
	if c.Richness.Cap < 0 {
		return fmt.Errorf("richness.cap must not be negative, got %g", c.Richness.Cap)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
