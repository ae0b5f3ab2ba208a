// Package tree models a public betting tree as an arena of nodes addressed by
// NodeID. Node identity is the index into the arena, so caches keyed on it stay
// valid for the tree's lifetime regardless of how nodes are moved or copied.
package tree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/rangesolver/poker"
	"gonum.org/v1/gonum/mat"
)

// NodeID addresses a node inside a Tree.
type NodeID int32

// NoNode marks the missing parent of the root.
const NoNode NodeID = -1

// Kind classifies a node.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindChance
	KindTerminal
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindChance:
		return "chance"
	case KindTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// TerminalKind distinguishes how a hand ended.
type TerminalKind uint8

const (
	TerminalNone TerminalKind = iota
	TerminalFold
	TerminalShowdown
)

func (k TerminalKind) String() string {
	switch k {
	case TerminalFold:
		return "fold"
	case TerminalShowdown:
		return "showdown"
	default:
		return "none"
	}
}

// ActionKind enumerates the edge labels of the tree.
type ActionKind uint8

const (
	ActionFold ActionKind = iota
	ActionCheck
	ActionCall
	ActionBet
	ActionAllIn
	ActionDeal
)

// Action labels the edge from a node to one of its children.
type Action struct {
	Kind   ActionKind
	Amount float64
	Card   poker.Card
}

func (a Action) String() string {
	switch a.Kind {
	case ActionFold:
		return "f"
	case ActionCheck:
		return "x"
	case ActionCall:
		return "c"
	case ActionBet:
		return "b" + strconv.FormatFloat(a.Amount, 'f', -1, 64)
	case ActionAllIn:
		return "a" + strconv.FormatFloat(a.Amount, 'f', -1, 64)
	case ActionDeal:
		return a.Card.String()
	default:
		return "?"
	}
}

// Node is one public state. The structural fields are written by the builder;
// the range, value and regret fields belong to the solver and are allocated on
// its first run.
type Node struct {
	ID       NodeID
	Parent   NodeID
	Kind     Kind
	Terminal TerminalKind
	// Player is the acting player at player nodes and the folding player at
	// fold terminals.
	Player   int
	Street   int
	Depth    int
	Board    poker.Hand
	Bets     [2]float64
	Children []NodeID
	Actions  []Action

	// ChanceWeights holds one row per child and one column per hand.
	ChanceWeights *mat.Dense

	Ranges      [2][]float64
	CFValues    [2][]float64
	Regrets     *mat.Dense
	StrategySum *mat.Dense
}

// Pot is the amount both players have committed, which is what is won or lost
// at a terminal.
func (n *Node) Pot() float64 {
	return min(n.Bets[0], n.Bets[1])
}

// IsTerminal reports whether the node ends the hand.
func (n *Node) IsTerminal() bool { return n.Kind == KindTerminal }

// Tree owns every node of a public tree.
type Tree struct {
	Nodes []Node
	Root  NodeID
	// Deck is the card universe hands are drawn from; zero for synthetic trees.
	Deck  poker.Deck
	hands int
}

// New returns an empty tree whose ranges have handCount entries.
func New(handCount int) *Tree {
	return &Tree{Root: NoNode, hands: handCount}
}

// HandCount returns the length of every range vector on the tree.
func (t *Tree) HandCount() int { return t.hands }

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.Nodes) }

// Node returns the node with the given id. The pointer is invalidated by
// further AddChild calls.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.Nodes) {
		return nil
	}
	return &t.Nodes[id]
}

// AddRoot inserts n as the root node.
func (t *Tree) AddRoot(n Node) NodeID {
	n.ID = NodeID(len(t.Nodes))
	n.Parent = NoNode
	n.Depth = 0
	t.Nodes = append(t.Nodes, n)
	t.Root = n.ID
	return n.ID
}

// AddChild appends n under parent, reached through action a.
func (t *Tree) AddChild(parent NodeID, a Action, n Node) NodeID {
	n.ID = NodeID(len(t.Nodes))
	n.Parent = parent
	n.Depth = t.Nodes[parent].Depth + 1
	t.Nodes = append(t.Nodes, n)
	p := &t.Nodes[parent]
	p.Children = append(p.Children, n.ID)
	p.Actions = append(p.Actions, a)
	return n.ID
}

// Walk visits every node reachable from id in depth-first pre-order.
func (t *Tree) Walk(id NodeID, fn func(*Node) error) error {
	n := t.Node(id)
	if n == nil {
		return fmt.Errorf("node %d out of range", id)
	}
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := t.Walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// Terminals lists every terminal node reachable from id.
func (t *Tree) Terminals(id NodeID) []*Node {
	var out []*Node
	_ = t.Walk(id, func(n *Node) error {
		if n.IsTerminal() {
			out = append(out, n)
		}
		return nil
	})
	return out
}

// Path renders the action sequence from the root to id, e.g. "b2/c/Qh/x".
// The root's path is the empty string.
func (t *Tree) Path(id NodeID) string {
	var parts []string
	for cur := id; cur != NoNode && cur != t.Root; {
		n := t.Node(cur)
		if n == nil {
			break
		}
		p := t.Node(n.Parent)
		if p == nil {
			break
		}
		for i, c := range p.Children {
			if c == cur {
				parts = append(parts, p.Actions[i].String())
				break
			}
		}
		cur = n.Parent
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Find resolves a path produced by Path back to a node id.
func (t *Tree) Find(path string) (NodeID, bool) {
	cur := t.Root
	if path == "" {
		return cur, cur != NoNode
	}
	for _, label := range strings.Split(path, "/") {
		n := t.Node(cur)
		if n == nil {
			return NoNode, false
		}
		next := NoNode
		for i, a := range n.Actions {
			if a.String() == label {
				next = n.Children[i]
				break
			}
		}
		if next == NoNode {
			return NoNode, false
		}
		cur = next
	}
	return cur, true
}

// ResetSolverState drops everything a solver stored on the nodes.
func (t *Tree) ResetSolverState() {
	for i := range t.Nodes {
		n := &t.Nodes[i]
		n.Ranges = [2][]float64{}
		n.CFValues = [2][]float64{}
		n.Regrets = nil
		n.StrategySum = nil
	}
}
