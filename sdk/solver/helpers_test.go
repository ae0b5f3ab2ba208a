package solver

import (
	"fmt"
	"sync/atomic"

	"github.com/lox/rangesolver/sdk/tree"
)

// constEquity returns fixed per-hand values regardless of the opponent range.
type constEquity struct {
	values [2][]float64
}

func (e *constEquity) Values(player int, _ []float64, out []float64) error {
	copy(out, e.values[player])
	return nil
}

// countingBuilder hands out constEquity from a per-node payoff table and
// counts how many evaluators it built.
type countingBuilder struct {
	payoffs map[tree.NodeID][]float64
	builds  atomic.Int64
}

func (b *countingBuilder) Build(node *tree.Node) (TerminalEquity, error) {
	b.builds.Add(1)
	p, ok := b.payoffs[node.ID]
	if !ok {
		return nil, fmt.Errorf("no payoff for node %d", node.ID)
	}
	neg := make([]float64, len(p))
	for i, v := range p {
		neg[i] = -v
	}
	return &constEquity{values: [2][]float64{p, neg}}, nil
}

// twoActionTree is a root decision for player 0 between two terminals.
// Action 0 pays a per hand and action 1 pays a-delta.
func twoActionTree(a []float64, delta float64) (*tree.Tree, *countingBuilder) {
	tr := tree.New(len(a))
	root := tr.AddRoot(tree.Node{Kind: tree.KindPlayer, Player: 0})
	good := tr.AddChild(root, tree.Action{Kind: tree.ActionCheck}, tree.Node{Kind: tree.KindTerminal, Terminal: tree.TerminalShowdown})
	bad := tr.AddChild(root, tree.Action{Kind: tree.ActionBet, Amount: 2}, tree.Node{Kind: tree.KindTerminal, Terminal: tree.TerminalShowdown})

	worse := make([]float64, len(a))
	for i, v := range a {
		worse[i] = v - delta
	}
	return tr, &countingBuilder{payoffs: map[tree.NodeID][]float64{good: a, bad: worse}}
}

func uniformRanges(hands int) [][]float64 {
	r := make([]float64, hands)
	for i := range r {
		r[i] = 1 / float64(hands)
	}
	return [][]float64{r, append([]float64(nil), r...)}
}
