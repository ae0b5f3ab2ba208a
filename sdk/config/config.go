// Package config loads solve configuration from an HCL file, with a small set
// of environment overrides for scripted runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/rangesolver/internal/arrayops"
	"github.com/lox/rangesolver/internal/randutil"
	"github.com/lox/rangesolver/poker"
	"github.com/lox/rangesolver/sdk/solver"
	"github.com/lox/rangesolver/sdk/tree"
)

// Environment variables that override file settings.
const (
	// EnvIterations overrides cfr.iterations
	EnvIterations = "RANGESOLVER_ITERATIONS"

	// EnvSkip overrides cfr.skip_iterations
	EnvSkip = "RANGESOLVER_SKIP"

	// EnvLogLevel overrides log_level
	EnvLogLevel = "RANGESOLVER_LOG_LEVEL"
)

// Config is the complete solve configuration.
type Config struct {
	LogLevel string        `hcl:"log_level,optional"`
	Output   string        `hcl:"output,optional"`
	Game     *GameConfig   `hcl:"game,block"`
	CFR      *CFRConfig    `hcl:"cfr,block"`
	Ranges   []RangeConfig `hcl:"range,block"`
}

// GameConfig describes the betting tree.
type GameConfig struct {
	Ranks     string    `hcl:"ranks,optional"`
	Suits     string    `hcl:"suits,optional"`
	Ante      float64   `hcl:"ante,optional"`
	Stack     float64   `hcl:"stack,optional"`
	BetSizes  []float64 `hcl:"bet_sizes,optional"`
	AllIn     *bool     `hcl:"all_in,optional"`
	MaxRaises *int      `hcl:"max_raises,optional"`
	Streets   int       `hcl:"streets,optional"`
}

// CFRConfig controls the solver.
type CFRConfig struct {
	Iterations      int     `hcl:"iterations,optional"`
	SkipIterations  *int    `hcl:"skip_iterations,optional"`
	RegretEpsilon   float64 `hcl:"regret_epsilon,optional"`
	ProgressEvery   int     `hcl:"progress_every,optional"`
	WarmParallelism int     `hcl:"warm_parallelism,optional"`
}

// RangeConfig sets one player's starting range. Weights are keyed by card and
// normalised; hands not listed get zero. Without weights a non-zero seed draws
// a random range, otherwise the range is uniform.
type RangeConfig struct {
	Player  string             `hcl:"player,label"`
	Weights map[string]float64 `hcl:"weights,optional"`
	Seed    int64              `hcl:"seed,optional"`
}

// Default returns the Leduc configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func defaultGame() *GameConfig {
	p := tree.DefaultBuildParams()
	allIn, raises := p.AllIn, p.MaxRaises
	return &GameConfig{
		Ranks:     "JQK",
		Suits:     "sh",
		Ante:      p.Ante,
		Stack:     p.Stack,
		BetSizes:  p.BetSizes,
		AllIn:     &allIn,
		MaxRaises: &raises,
		Streets:   p.Streets,
	}
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	def := defaultGame()
	if c.Game == nil {
		c.Game = def
	} else {
		if c.Game.Ranks == "" {
			c.Game.Ranks = def.Ranks
		}
		if c.Game.Suits == "" {
			c.Game.Suits = def.Suits
		}
		if c.Game.Ante == 0 {
			c.Game.Ante = def.Ante
		}
		if c.Game.Stack == 0 {
			c.Game.Stack = def.Stack
		}
		if c.Game.BetSizes == nil {
			c.Game.BetSizes = def.BetSizes
		}
		if c.Game.AllIn == nil {
			c.Game.AllIn = def.AllIn
		}
		if c.Game.MaxRaises == nil {
			c.Game.MaxRaises = def.MaxRaises
		}
		if c.Game.Streets == 0 {
			c.Game.Streets = def.Streets
		}
	}

	sd := solver.DefaultConfig()
	if c.CFR == nil {
		c.CFR = &CFRConfig{}
	}
	if c.CFR.Iterations == 0 {
		c.CFR.Iterations = sd.Iterations
	}
	if c.CFR.RegretEpsilon == 0 {
		c.CFR.RegretEpsilon = sd.RegretEpsilon
	}
	if c.CFR.WarmParallelism == 0 {
		c.CFR.WarmParallelism = 4
	}
}

// Load reads configuration from an HCL file. A missing file yields defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvIterations); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", EnvIterations, err)
		}
		c.CFR.Iterations = n
	}
	if v := os.Getenv(EnvSkip); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", EnvSkip, err)
		}
		c.CFR.SkipIterations = &n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks the configuration as a whole.
func (c *Config) Validate() error {
	params, err := c.BuildParams()
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	if err := c.SolverConfig().Validate(); err != nil {
		return fmt.Errorf("cfr: %w", err)
	}
	if c.CFR.WarmParallelism < 0 {
		return errors.New("cfr: warm parallelism cannot be negative")
	}
	seen := map[int]bool{}
	for _, r := range c.Ranges {
		p, err := playerIndex(r.Player)
		if err != nil {
			return err
		}
		if seen[p] {
			return fmt.Errorf("range %q declared twice", r.Player)
		}
		seen[p] = true
	}
	if _, err := c.StartingRanges(params.Deck); err != nil {
		return err
	}
	return nil
}

// BuildParams converts the game block into tree build parameters.
func (c *Config) BuildParams() (tree.BuildParams, error) {
	deck, err := poker.ParseDeck(c.Game.Ranks, c.Game.Suits)
	if err != nil {
		return tree.BuildParams{}, fmt.Errorf("game: %w", err)
	}
	return tree.BuildParams{
		Deck:      deck,
		Ante:      c.Game.Ante,
		Stack:     c.Game.Stack,
		BetSizes:  c.Game.BetSizes,
		AllIn:     *c.Game.AllIn,
		MaxRaises: *c.Game.MaxRaises,
		Streets:   c.Game.Streets,
	}, nil
}

// resolveSkip returns the configured skip count, or the default derived from
// the final iteration count when none was set.
func (c *Config) resolveSkip() int {
	if c.CFR.SkipIterations != nil {
		return *c.CFR.SkipIterations
	}
	return min(solver.DefaultConfig().SkipIterations, c.CFR.Iterations/2)
}

// SolverConfig converts the cfr block into solver settings.
func (c *Config) SolverConfig() solver.Config {
	return solver.Config{
		Iterations:     c.CFR.Iterations,
		SkipIterations: c.resolveSkip(),
		RegretEpsilon:  c.CFR.RegretEpsilon,
		ProgressEvery:  c.CFR.ProgressEvery,
	}
}

// StartingRanges returns both players' normalised starting ranges over the
// hands of deck.
func (c *Config) StartingRanges(deck poker.Deck) ([][]float64, error) {
	ranges := make([][]float64, 2)
	for p := range ranges {
		ranges[p] = make([]float64, deck.Len())
		for h := range ranges[p] {
			ranges[p][h] = 1
		}
	}
	for _, rc := range c.Ranges {
		p, err := playerIndex(rc.Player)
		if err != nil {
			return nil, err
		}
		r := ranges[p]
		switch {
		case len(rc.Weights) > 0:
			clear(r)
			for name, w := range rc.Weights {
				card, err := poker.ParseCard(name)
				if err != nil {
					return nil, fmt.Errorf("range %q: %w", rc.Player, err)
				}
				h := deck.Index(card)
				if h < 0 {
					return nil, fmt.Errorf("range %q: card %s not in deck", rc.Player, name)
				}
				if w < 0 {
					return nil, fmt.Errorf("range %q: negative weight for %s", rc.Player, name)
				}
				r[h] = w
			}
			total := 0.0
			for _, w := range r {
				total += w
			}
			if total <= 0 {
				return nil, fmt.Errorf("range %q has no positive weight", rc.Player)
			}
		case rc.Seed != 0:
			copy(r, randutil.Distribution(randutil.New(rc.Seed), len(r)))
		}
	}
	for _, r := range ranges {
		arrayops.Normalize(r)
	}
	return ranges, nil
}

func playerIndex(label string) (int, error) {
	switch label {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	default:
		return 0, fmt.Errorf("range player must be \"0\" or \"1\", got %q", label)
	}
}
