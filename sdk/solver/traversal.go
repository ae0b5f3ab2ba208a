package solver

import (
	"fmt"

	"github.com/lox/rangesolver/internal/arrayops"
	"github.com/lox/rangesolver/sdk/tree"
	"gonum.org/v1/gonum/floats"
)

// walk performs one CFR pass below id. Ranges are pushed to the children
// before recursing; counterfactual values are pulled back up afterwards.
func (t *Trainer) walk(id tree.NodeID, iter, skip int, stats *TraversalStats) error {
	n := t.tree.Node(id)
	if n == nil {
		return fmt.Errorf("%w: node %d out of range", ErrMalformedTree, id)
	}
	stats.NodesVisited++
	if n.Depth > stats.MaxDepth {
		stats.MaxDepth = n.Depth
	}

	switch n.Kind {
	case tree.KindTerminal:
		stats.TerminalNodes++
		return t.terminalValues(n)
	case tree.KindChance:
		return t.walkChance(n, iter, skip, stats)
	case tree.KindPlayer:
		return t.walkPlayer(n, iter, skip, stats)
	default:
		return fmt.Errorf("%w: node %s has unknown kind %d", ErrMalformedTree, t.describe(n), n.Kind)
	}
}

func (t *Trainer) terminalValues(n *tree.Node) error {
	eq, err := t.cache.GetOrCreate(n)
	if err != nil {
		return err
	}
	for p := range 2 {
		if err := eq.Values(p, n.Ranges[1-p], n.CFValues[p]); err != nil {
			return fmt.Errorf("terminal %s: %w", t.describe(n), err)
		}
	}
	return nil
}

func (t *Trainer) walkChance(n *tree.Node, iter, skip int, stats *TraversalStats) error {
	hands := t.tree.HandCount()
	for i, cid := range n.Children {
		child := t.tree.Node(cid)
		weights := n.ChanceWeights.RawRowView(i)
		for p := range 2 {
			dst, src := child.Ranges[p], n.Ranges[p]
			for h := 0; h < hands; h++ {
				dst[h] = src[h] * weights[h]
			}
		}
		if err := t.walk(cid, iter, skip, stats); err != nil {
			return err
		}
	}

	for p := range 2 {
		clear(n.CFValues[p])
		for _, cid := range n.Children {
			child := t.tree.Node(cid)
			for h, v := range child.CFValues[p] {
				n.CFValues[p][h] += v
			}
		}
	}
	return nil
}

func (t *Trainer) walkPlayer(n *tree.Node, iter, skip int, stats *TraversalStats) error {
	me, opp := n.Player, 1-n.Player
	strategy := t.strategy[n.ID]
	regretMatch(n.Regrets, strategy)

	for a, cid := range n.Children {
		child := t.tree.Node(cid)
		probs := strategy.RawRowView(a)
		for h, r := range n.Ranges[me] {
			child.Ranges[me][h] = r * probs[h]
		}
		copy(child.Ranges[opp], n.Ranges[opp])
		if err := t.walk(cid, iter, skip, stats); err != nil {
			return err
		}
	}

	values, err := arrayops.TensorView(t.actionValues[n.ID], len(n.Children), t.tree.HandCount())
	if err != nil {
		return fmt.Errorf("node %s: %w", t.describe(n), err)
	}
	clear(n.CFValues[me])
	clear(n.CFValues[opp])
	for a, cid := range n.Children {
		child := t.tree.Node(cid)
		row := values.RawRowView(a)
		copy(row, child.CFValues[me])
		probs := strategy.RawRowView(a)
		for h, v := range row {
			n.CFValues[me][h] += probs[h] * v
		}
		floats.Add(n.CFValues[opp], child.CFValues[opp])
	}

	if err := updateRegrets(n.Regrets, values, n.CFValues[me], t.cfg.RegretEpsilon); err != nil {
		return fmt.Errorf("node %s: %w", t.describe(n), err)
	}
	if iter > skip {
		if err := accumulateStrategy(n.StrategySum, strategy, n.Ranges[me]); err != nil {
			return fmt.Errorf("node %s: %w", t.describe(n), err)
		}
	}
	return nil
}
