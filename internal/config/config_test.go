package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 500000, cfg.TokenLimit)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, ".distill", cfg.OutputDir)
	assert.Equal(t, []string{"python", "go"}, cfg.Languages)
	assert.Equal(t, 1.0, cfg.EntryPointFloor)
	assert.Equal(t, 0.5, cfg.Routing.HighCentrality)
	assert.Equal(t, 0.5, cfg.Routing.HighComplexity)
	assert.Equal(t, 0.5, cfg.Routing.ComplexityWeight)
	assert.Equal(t, 5.0, cfg.Richness.APIWeight)
	assert.Equal(t, 50.0, cfg.Richness.LOCDivisor)
	assert.Equal(t, 100.0, cfg.Richness.Cap)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	require.NoError(t, cfg.Validate())
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), File)
	content := `token_limit: 1234
model: gpt-4
languages:
  - python
routing:
  high_centrality: 0.7
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.TokenLimit)
	assert.Equal(t, "gpt-4", cfg.Model)
	assert.Equal(t, []string{"python"}, cfg.Languages)
	assert.Equal(t, 0.7, cfg.Routing.HighCentrality)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Everything unset falls back to defaults.
	assert.Equal(t, 0.5, cfg.Routing.HighComplexity)
	assert.Equal(t, ".distill", cfg.OutputDir)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), File)
	require.NoError(t, os.WriteFile(path, []byte("token_limit: 1\nmodel: gpt-4o\n"), 0o644))

	t.Setenv("DISTILL_TOKEN_LIMIT", "42")
	t.Setenv("DISTILL_MODEL", "heuristic")
	t.Setenv("DISTILL_ROUTING_HIGH_CENTRALITY", "0.9")
	t.Setenv("DISTILL_LOGGING_FORMAT", "console")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.TokenLimit)
	assert.Equal(t, "heuristic", cfg.Model)
	assert.Equal(t, 0.9, cfg.Routing.HighCentrality)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")

	path := filepath.Join(t.TempDir(), File)
	require.NoError(t, os.WriteFile(path, []byte(":\n  broken yaml ["), 0o644))
	_, err = Load(path)
	require.Error(t, err)
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("DISTILL_LOGGING_FORMAT", "xml")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "negative token limit",
			mutate:  func(c *Config) { c.TokenLimit = -5 },
			wantErr: "token_limit",
		},
		{
			name:    "negative entry point floor",
			mutate:  func(c *Config) { c.EntryPointFloor = -1 },
			wantErr: "entry_point_floor",
		},
		{
			name:    "centrality threshold above one",
			mutate:  func(c *Config) { c.Routing.HighCentrality = 1.5 },
			wantErr: "high_centrality",
		},
		{
			name:    "complexity threshold above one",
			mutate:  func(c *Config) { c.Routing.HighComplexity = 2 },
			wantErr: "high_complexity",
		},
		{
			name:    "complexity weight above one",
			mutate:  func(c *Config) { c.Routing.ComplexityWeight = 1.1 },
			wantErr: "complexity_weight",
		},
		{
			name:    "negative api weight",
			mutate:  func(c *Config) { c.Richness.APIWeight = -1 },
			wantErr: "api_weight",
		},
		{
			name:    "zero loc divisor",
			mutate:  func(c *Config) { c.Richness.LOCDivisor = 0 },
			wantErr: "loc_divisor",
		},
		{
			name:    "negative richness cap",
			mutate:  func(c *Config) { c.Richness.Cap = -1 },
			wantErr: "cap",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindFile(t *testing.T) {
	root := t.TempDir()
	assert.Empty(t, FindFile(root))

	path := filepath.Join(root, File)
	require.NoError(t, os.WriteFile(path, []byte("model: gpt-4o\n"), 0o644))
	assert.Equal(t, path, FindFile(root))
}
