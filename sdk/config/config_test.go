package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lox/rangesolver/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "solve.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1000, cfg.CFR.Iterations)
	assert.Nil(t, cfg.CFR.SkipIterations)
	assert.Equal(t, 500, cfg.SolverConfig().SkipIterations)
	assert.Equal(t, 1e-9, cfg.CFR.RegretEpsilon)

	params, err := cfg.BuildParams()
	require.NoError(t, err)
	assert.Equal(t, 6, params.Deck.Len())
	assert.True(t, params.AllIn)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
output    = "leduc.json"

game {
  ranks      = "TJQKA"
  suits      = "sh"
  stack      = 20
  bet_sizes  = [0.5, 1]
  all_in     = false
  max_raises = 1
}

cfr {
  iterations      = 200
  skip_iterations = 0
}

range "1" {
  weights = { Ks = 3, Kh = 1 }
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "leduc.json", cfg.Output)
	assert.Equal(t, 200, cfg.SolverConfig().Iterations)
	assert.Equal(t, 0, cfg.SolverConfig().SkipIterations)

	params, err := cfg.BuildParams()
	require.NoError(t, err)
	assert.Equal(t, 10, params.Deck.Len())
	assert.False(t, params.AllIn)
	assert.Equal(t, 1, params.MaxRaises)
	assert.Equal(t, 1.0, params.Ante, "unset fields keep defaults")
	assert.Equal(t, 2, params.Streets)

	ranges, err := cfg.StartingRanges(params.Deck)
	require.NoError(t, err)
	ks, _ := poker.ParseCard("Ks")
	kh, _ := poker.ParseCard("Kh")
	assert.InDelta(t, 0.75, ranges[1][params.Deck.Index(ks)], 1e-12)
	assert.InDelta(t, 0.25, ranges[1][params.Deck.Index(kh)], 1e-12)
	assert.InDelta(t, 0.1, ranges[0][0], 1e-12)
}

func TestLoadRejectsBadHCL(t *testing.T) {
	path := writeConfig(t, `cfr { iterations = "lots" `)
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad rank", func(c *Config) { c.Game.Ranks = "JQX" }},
		{"skip beyond iterations", func(c *Config) { s := 2000; c.CFR.SkipIterations = &s }},
		{"bad player label", func(c *Config) { c.Ranges = []RangeConfig{{Player: "2"}} }},
		{"duplicate player", func(c *Config) { c.Ranges = []RangeConfig{{Player: "0"}, {Player: "0"}} }},
		{"card outside deck", func(c *Config) {
			c.Ranges = []RangeConfig{{Player: "0", Weights: map[string]float64{"2c": 1}}}
		}},
		{"all zero weights", func(c *Config) {
			c.Ranges = []RangeConfig{{Player: "0", Weights: map[string]float64{"Ks": 0}}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestSeededRangeIsDeterministic(t *testing.T) {
	cfg := Default()
	cfg.Ranges = []RangeConfig{{Player: "0", Seed: 7}}
	deck := poker.LeducDeck()

	a, err := cfg.StartingRanges(deck)
	require.NoError(t, err)
	b, err := cfg.StartingRanges(deck)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	sum := 0.0
	for _, v := range a[0] {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvIterations, "42")
	t.Setenv(EnvSkip, "2")
	t.Setenv(EnvLogLevel, "warn")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, 42, cfg.CFR.Iterations)
	assert.Equal(t, 2, *cfg.CFR.SkipIterations)
	assert.Equal(t, "warn", cfg.LogLevel)

	t.Setenv(EnvIterations, "many")
	require.Error(t, cfg.ApplyEnv())
}

func TestIterationOverrideDerivesDefaultSkip(t *testing.T) {
	t.Setenv(EnvIterations, "100")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	require.NoError(t, cfg.ApplyEnv())
	require.NoError(t, cfg.Validate())

	sc := cfg.SolverConfig()
	assert.Equal(t, 100, sc.Iterations)
	assert.Equal(t, 50, sc.SkipIterations)

	cfg.CFR.Iterations = 1
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0, cfg.SolverConfig().SkipIterations)
}
