package solver

import (
	"fmt"

	"github.com/lox/rangesolver/sdk/tree"
	"gonum.org/v1/gonum/floats"
)

// Exploitability summarises how far the average strategy is from equilibrium.
type Exploitability struct {
	// BestResponse holds each player's expected value when best responding
	// to the opponent's average strategy.
	BestResponse [2]float64
	// Total is the mean of both best response values; zero at equilibrium.
	Total float64
}

// Exploitability measures the current average strategy below root against
// best responses for both players.
func (t *Trainer) Exploitability(root tree.NodeID, startingRanges [][]float64) (Exploitability, error) {
	if err := t.validateRanges(startingRanges); err != nil {
		return Exploitability{}, err
	}
	var out Exploitability
	for p := range 2 {
		values, err := t.bestResponse(root, p, startingRanges[1-p])
		if err != nil {
			return Exploitability{}, err
		}
		out.BestResponse[p] = floats.Dot(startingRanges[p], values)
	}
	out.Total = (out.BestResponse[0] + out.BestResponse[1]) / 2
	return out, nil
}

// bestResponse returns player's per-hand counterfactual values under a best
// response, given the opponent range reaching id.
func (t *Trainer) bestResponse(id tree.NodeID, player int, oppRange []float64) ([]float64, error) {
	n := t.tree.Node(id)
	if n == nil {
		return nil, fmt.Errorf("%w: node %d out of range", ErrMalformedTree, id)
	}
	hands := t.tree.HandCount()
	out := make([]float64, hands)

	switch n.Kind {
	case tree.KindTerminal:
		eq, err := t.cache.GetOrCreate(n)
		if err != nil {
			return nil, err
		}
		if err := eq.Values(player, oppRange, out); err != nil {
			return nil, err
		}
		return out, nil

	case tree.KindChance:
		if n.ChanceWeights == nil {
			return nil, fmt.Errorf("%w: chance node %s has no weights", ErrMalformedTree, t.describe(n))
		}
		childRange := make([]float64, hands)
		for i, cid := range n.Children {
			floats.MulTo(childRange, oppRange, n.ChanceWeights.RawRowView(i))
			v, err := t.bestResponse(cid, player, childRange)
			if err != nil {
				return nil, err
			}
			floats.Add(out, v)
		}
		return out, nil

	case tree.KindPlayer:
		if len(n.Children) == 0 {
			return nil, fmt.Errorf("%w: player node %s has no children", ErrMalformedTree, t.describe(n))
		}
		if n.Player == player {
			for a, cid := range n.Children {
				v, err := t.bestResponse(cid, player, oppRange)
				if err != nil {
					return nil, err
				}
				if a == 0 {
					copy(out, v)
					continue
				}
				for h := range out {
					out[h] = max(out[h], v[h])
				}
			}
			return out, nil
		}

		avg, err := t.AverageStrategy(n.ID)
		if err != nil {
			return nil, err
		}
		childRange := make([]float64, hands)
		for a, cid := range n.Children {
			floats.MulTo(childRange, oppRange, avg.RawRowView(a))
			v, err := t.bestResponse(cid, player, childRange)
			if err != nil {
				return nil, err
			}
			floats.Add(out, v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: node %s has unknown kind %d", ErrMalformedTree, t.describe(n), n.Kind)
}
