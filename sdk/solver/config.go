package solver

import (
	"errors"
	"fmt"
)

// DefaultRegretEpsilon is the floor regrets are clipped to after every update.
// Keeping regrets strictly positive guarantees regret matching always has a
// positive normaliser for every hand.
const DefaultRegretEpsilon = 1e-9

var (
	// ErrRangeShape is returned when starting ranges do not fit the tree.
	ErrRangeShape = errors.New("invalid starting range")
	// ErrMalformedTree is returned when a node breaks the tree contract, such
	// as a non-terminal node without children.
	ErrMalformedTree = errors.New("malformed game tree")
)

// Config controls CFR execution.
type Config struct {
	// Iterations is used when Run is called with a non-positive count.
	Iterations int
	// SkipIterations is the number of leading iterations excluded from the
	// average strategy. Used when Run is called with a negative value.
	SkipIterations int
	// RegretEpsilon is the floor applied to every regret.
	RegretEpsilon float64
	// ProgressEvery emits progress every n iterations; 0 picks 1% of the run.
	ProgressEvery int
}

// Validate ensures the configuration is safe to use.
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return errors.New("iterations must be > 0")
	}
	if c.SkipIterations < 0 {
		return errors.New("skip iterations cannot be negative")
	}
	if c.SkipIterations >= c.Iterations {
		return fmt.Errorf("skip iterations %d must be less than iterations %d", c.SkipIterations, c.Iterations)
	}
	if !(c.RegretEpsilon > 0) {
		return errors.New("regret epsilon must be > 0")
	}
	if c.ProgressEvery < 0 {
		return errors.New("progress interval cannot be negative")
	}
	return nil
}

// DefaultConfig returns the configuration used when nothing else is supplied.
func DefaultConfig() Config {
	return Config{
		Iterations:     1000,
		SkipIterations: 500,
		RegretEpsilon:  DefaultRegretEpsilon,
	}
}
