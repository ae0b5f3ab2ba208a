package solver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/lox/rangesolver/internal/fileutil"
	"github.com/lox/rangesolver/sdk/tree"
)

const blueprintFileVersion = 1

// NodeStrategy is the averaged strategy of one player node.
type NodeStrategy struct {
	Player  int      `json:"player"`
	Actions []string `json:"actions"`
	// Strategy is indexed [action][hand].
	Strategy [][]float64 `json:"strategy"`
}

// Blueprint captures the averaged strategies produced by a solve, keyed by
// the node's action path, so they can be inspected or queried without
// rerunning CFR.
type Blueprint struct {
	Version     int       `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	Iterations  int       `json:"iterations"`
	// SkipIterations counts the iterations left out of the average.
	SkipIterations int                     `json:"skip_iterations"`
	Hands          []string                `json:"hands"`
	Nodes          map[string]NodeStrategy `json:"nodes"`
}

// Blueprint materialises the average strategy of every player node below root.
func (t *Trainer) Blueprint(root tree.NodeID) (*Blueprint, error) {
	bp := &Blueprint{
		Version:        blueprintFileVersion,
		GeneratedAt:    t.clock.Now().UTC(),
		Iterations:     t.iteration,
		SkipIterations: t.skipped,
		Hands:          handLabels(t.tree),
		Nodes:          make(map[string]NodeStrategy),
	}
	err := t.tree.Walk(root, func(n *tree.Node) error {
		if n.Kind != tree.KindPlayer {
			return nil
		}
		avg, err := t.AverageStrategy(n.ID)
		if err != nil {
			return err
		}
		ns := NodeStrategy{
			Player:   n.Player,
			Actions:  make([]string, len(n.Actions)),
			Strategy: make([][]float64, len(n.Actions)),
		}
		for a, act := range n.Actions {
			ns.Actions[a] = act.String()
			ns.Strategy[a] = append([]float64(nil), avg.RawRowView(a)...)
		}
		bp.Nodes[t.tree.Path(n.ID)] = ns
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bp, nil
}

func handLabels(t *tree.Tree) []string {
	labels := make([]string, t.HandCount())
	for h := range labels {
		if h < t.Deck.Len() {
			labels[h] = t.Deck.Card(h).String()
		} else {
			labels[h] = "h" + strconv.Itoa(h)
		}
	}
	return labels
}

// Validate checks that every node's strategy matches the declared shape.
func (b *Blueprint) Validate() error {
	if len(b.Hands) == 0 {
		return errors.New("blueprint has no hands")
	}
	if b.SkipIterations < 0 || b.SkipIterations > b.Iterations {
		return fmt.Errorf("skip iterations %d outside [0, %d]", b.SkipIterations, b.Iterations)
	}
	for path, ns := range b.Nodes {
		if len(ns.Strategy) != len(ns.Actions) {
			return fmt.Errorf("node %q: %d strategy rows for %d actions", path, len(ns.Strategy), len(ns.Actions))
		}
		for a, row := range ns.Strategy {
			if len(row) != len(b.Hands) {
				return fmt.Errorf("node %q action %d: %d probabilities for %d hands", path, a, len(row), len(b.Hands))
			}
		}
	}
	return nil
}

// Save writes the blueprint to disk in JSON format.
func (b *Blueprint) Save(path string) error {
	if b == nil {
		return errors.New("nil blueprint")
	}
	if path == "" {
		return errors.New("destination path is required")
	}
	return fileutil.WriteJSONAtomic(path, b, 0o644)
}

// LoadBlueprint reads a blueprint from disk and validates its shape.
func LoadBlueprint(path string) (*Blueprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var bp Blueprint
	if err := json.NewDecoder(f).Decode(&bp); err != nil {
		return nil, err
	}
	if bp.Version != blueprintFileVersion {
		return nil, errors.New("unsupported blueprint version")
	}
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	return &bp, nil
}

// Strategy returns the stored average strategy for the node at path.
func (b *Blueprint) Strategy(path string) (NodeStrategy, bool) {
	if b == nil {
		return NodeStrategy{}, false
	}
	ns, ok := b.Nodes[path]
	return ns, ok
}

// HandIndex returns the column of the named hand, or -1.
func (b *Blueprint) HandIndex(name string) int {
	for i, h := range b.Hands {
		if h == name {
			return i
		}
	}
	return -1
}
