package solver

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/lox/rangesolver/sdk/tree"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// TerminalEquity computes counterfactual values at one terminal node.
type TerminalEquity interface {
	// Values writes the player's value for every hand into out, given the
	// opponent's range reaching the node.
	Values(player int, opponentRange, out []float64) error
}

// EquityBuilder constructs the evaluator for a terminal node.
type EquityBuilder interface {
	Build(node *tree.Node) (TerminalEquity, error)
}

// EquityBuilderFunc adapts a function to EquityBuilder.
type EquityBuilderFunc func(node *tree.Node) (TerminalEquity, error)

func (f EquityBuilderFunc) Build(node *tree.Node) (TerminalEquity, error) { return f(node) }

// EquityCache memoises one evaluator per terminal node. Entries are keyed by
// NodeID and live until Close.
type EquityCache struct {
	builder EquityBuilder
	logger  *log.Logger

	mu      sync.RWMutex
	entries map[tree.NodeID]TerminalEquity
	group   singleflight.Group
	builds  atomic.Int64
}

// NewEquityCache returns an empty cache backed by builder.
func NewEquityCache(builder EquityBuilder, logger *log.Logger) *EquityCache {
	if logger == nil {
		logger = discardLogger()
	}
	return &EquityCache{
		builder: builder,
		logger:  logger,
		entries: make(map[tree.NodeID]TerminalEquity),
	}
}

// GetOrCreate returns the evaluator for node, building it on first request.
// Concurrent callers asking for the same node share a single build.
func (c *EquityCache) GetOrCreate(node *tree.Node) (TerminalEquity, error) {
	if node == nil || !node.IsTerminal() {
		return nil, fmt.Errorf("%w: equity requested for non-terminal node", ErrMalformedTree)
	}
	if eq, ok := c.lookup(node.ID); ok {
		return eq, nil
	}

	v, err, _ := c.group.Do(strconv.Itoa(int(node.ID)), func() (any, error) {
		if eq, ok := c.lookup(node.ID); ok {
			return eq, nil
		}
		eq, err := c.builder.Build(node)
		if err != nil {
			return nil, fmt.Errorf("build terminal equity for node %d: %w", node.ID, err)
		}
		c.builds.Add(1)
		c.mu.Lock()
		c.entries[node.ID] = eq
		c.mu.Unlock()
		return eq, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(TerminalEquity), nil
}

func (c *EquityCache) lookup(id tree.NodeID) (TerminalEquity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	eq, ok := c.entries[id]
	return eq, ok
}

// Warm builds evaluators for nodes concurrently, at most parallelism at a time.
func (c *EquityCache) Warm(ctx context.Context, nodes []*tree.Node, parallelism int) error {
	if parallelism <= 0 {
		parallelism = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, n := range nodes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := c.GetOrCreate(n)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	c.logger.Debug("terminal equity warmed", "nodes", len(nodes), "entries", c.Len())
	return nil
}

// Len returns the number of cached evaluators.
func (c *EquityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Builds returns how many evaluators have been constructed.
func (c *EquityCache) Builds() int64 { return c.builds.Load() }

// Close drops every entry.
func (c *EquityCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[tree.NodeID]TerminalEquity)
}
