// Package runtime answers strategy queries from a saved blueprint.
package runtime

import (
	"errors"
	"fmt"

	"github.com/lox/rangesolver/sdk/solver"
)

// Policy exposes read-only access to a solver blueprint.
type Policy struct {
	blueprint *solver.Blueprint
}

// Load constructs a runtime policy from a stored blueprint file.
func Load(path string) (*Policy, error) {
	bp, err := solver.LoadBlueprint(path)
	if err != nil {
		return nil, err
	}
	return New(bp), nil
}

// New wraps an in-memory blueprint.
func New(bp *solver.Blueprint) *Policy {
	return &Policy{blueprint: bp}
}

// Blueprint returns the underlying blueprint (read-only).
func (p *Policy) Blueprint() *solver.Blueprint {
	if p == nil {
		return nil
	}
	return p.blueprint
}

// Actions returns the action labels available at path.
func (p *Policy) Actions(path string) ([]string, error) {
	if p == nil || p.blueprint == nil {
		return nil, errors.New("nil policy")
	}
	ns, ok := p.blueprint.Strategy(path)
	if !ok {
		return nil, fmt.Errorf("no player node at %q", path)
	}
	return ns.Actions, nil
}

// ActionWeights returns the probability of each action at path for the named
// hand. When a hand never reached the node during training its stored column
// is uniform, so the result is always a valid distribution.
func (p *Policy) ActionWeights(path, hand string) ([]float64, error) {
	if p == nil || p.blueprint == nil {
		return nil, errors.New("nil policy")
	}
	ns, ok := p.blueprint.Strategy(path)
	if !ok {
		return nil, fmt.Errorf("no player node at %q", path)
	}
	h := p.blueprint.HandIndex(hand)
	if h < 0 {
		return nil, fmt.Errorf("unknown hand %q", hand)
	}

	out := make([]float64, len(ns.Actions))
	total := 0.0
	for a := range out {
		out[a] = ns.Strategy[a][h]
		total += out[a]
	}
	if total <= 0 {
		// Uniform fallback
		v := 1.0 / float64(len(out))
		for i := range out {
			out[i] = v
		}
		return out, nil
	}
	for i := range out {
		out[i] /= total
	}
	return out, nil
}
