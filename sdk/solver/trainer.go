package solver

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/rangesolver/internal/arrayops"
	"github.com/lox/rangesolver/sdk/tree"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// rangeTolerance bounds how far a starting range may drift from summing to one.
const rangeTolerance = 1e-6

// TraversalStats captures instrumentation for a single CFR iteration.
type TraversalStats struct {
	NodesVisited  int64
	TerminalNodes int64
	MaxDepth      int
	IterationTime time.Duration
}

// Progress is emitted periodically while Run executes.
type Progress struct {
	Iteration int
	Total     int
	Elapsed   time.Duration
	Stats     TraversalStats
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(t *Trainer) { t.cfg = cfg }
}

// WithLogger sets the logger; the default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(t *Trainer) { t.logger = logger }
}

// WithClock sets the clock used for iteration timing.
func WithClock(clock quartz.Clock) Option {
	return func(t *Trainer) { t.clock = clock }
}

// WithProgress registers a callback receiving periodic progress.
func WithProgress(fn func(Progress)) Option {
	return func(t *Trainer) { t.progress = fn }
}

// Trainer runs vectorised CFR over a public tree: every node carries one
// range entry per private hand for each player, and a single depth-first pass
// updates regrets for all hands at once.
type Trainer struct {
	cfg      Config
	tree     *tree.Tree
	cache    *EquityCache
	logger   *log.Logger
	clock    quartz.Clock
	progress func(Progress)

	// strategy is per-node scratch for the current iteration's strategy.
	strategy []*mat.Dense
	// actionValues is per-node flat actions x hands scratch for the acting
	// player's child values.
	actionValues [][]float64

	iteration int
	skipped   int
	stats     TraversalStats
}

// NewTrainer constructs a trainer for t. Terminal evaluators come from builder
// and are cached for the trainer's lifetime.
func NewTrainer(t *tree.Tree, builder EquityBuilder, opts ...Option) (*Trainer, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil tree", ErrMalformedTree)
	}
	if builder == nil {
		return nil, errors.New("nil equity builder")
	}
	tr := &Trainer{
		cfg:   DefaultConfig(),
		tree:  t,
		clock: quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(tr)
	}
	if err := tr.cfg.Validate(); err != nil {
		return nil, err
	}
	if tr.logger == nil {
		tr.logger = discardLogger()
	}
	tr.logger = tr.logger.WithPrefix("cfr")
	tr.cache = NewEquityCache(builder, tr.logger)
	return tr, nil
}

func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// Run executes iterations of CFR from root with the given starting ranges,
// one per player. A non-positive iterations or negative skipIterations picks
// the configured default. Only iterations numbered above skipIterations
// (1-based) contribute to the average strategy.
//
// State persists on the tree's nodes, so a second Run continues where the
// first left off.
func (t *Trainer) Run(root tree.NodeID, startingRanges [][]float64, iterations, skipIterations int) error {
	if iterations <= 0 {
		iterations = t.cfg.Iterations
	}
	if skipIterations < 0 {
		skipIterations = t.cfg.SkipIterations
	}
	rootNode := t.tree.Node(root)
	if rootNode == nil {
		return fmt.Errorf("%w: root %d not in tree", ErrMalformedTree, root)
	}
	if err := t.validateRanges(startingRanges); err != nil {
		return err
	}
	if err := t.prepare(root); err != nil {
		return err
	}
	for p := range 2 {
		if err := arrayops.CopyInto(rootNode.Ranges[p], startingRanges[p]); err != nil {
			return fmt.Errorf("%w: %v", ErrRangeShape, err)
		}
	}

	batch := t.cfg.ProgressEvery
	if batch == 0 {
		batch = max(iterations/100, 1)
	}

	t.logger.Info("starting cfr", "iterations", iterations, "skip", skipIterations, "nodes", t.tree.Len())
	start := t.clock.Now()
	for i := 1; i <= iterations; i++ {
		iterStart := t.clock.Now()
		var stats TraversalStats
		if err := t.walk(root, i, skipIterations, &stats); err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		stats.IterationTime = t.clock.Since(iterStart)
		t.stats = stats
		t.iteration++

		if i%batch == 0 || i == iterations {
			p := Progress{Iteration: i, Total: iterations, Elapsed: t.clock.Since(start), Stats: stats}
			t.logger.Debug("cfr progress", "iteration", i, "nodes", stats.NodesVisited, "elapsed", p.Elapsed)
			if t.progress != nil {
				t.progress(p)
			}
		}
	}
	t.skipped += min(skipIterations, iterations)
	t.logger.Info("cfr finished", "iterations", iterations, "elapsed", t.clock.Since(start), "terminal_cache", t.cache.Len())
	return nil
}

func (t *Trainer) validateRanges(ranges [][]float64) error {
	if len(ranges) != 2 {
		return fmt.Errorf("%w: expected 2 ranges, got %d", ErrRangeShape, len(ranges))
	}
	hands := t.tree.HandCount()
	for p, r := range ranges {
		if len(r) != hands {
			return fmt.Errorf("%w: player %d range has %d entries, tree has %d hands", ErrRangeShape, p, len(r), hands)
		}
		for h, v := range r {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: player %d hand %d has weight %v", ErrRangeShape, p, h, v)
			}
		}
		if sum := floats.Sum(r); math.Abs(sum-1) > rangeTolerance {
			return fmt.Errorf("%w: player %d range sums to %v", ErrRangeShape, p, sum)
		}
	}
	return nil
}

// prepare allocates per-node state below root that is not there yet.
func (t *Trainer) prepare(root tree.NodeID) error {
	hands := t.tree.HandCount()
	if len(t.strategy) < t.tree.Len() {
		t.strategy = append(t.strategy, make([]*mat.Dense, t.tree.Len()-len(t.strategy))...)
	}
	if len(t.actionValues) < t.tree.Len() {
		t.actionValues = append(t.actionValues, make([][]float64, t.tree.Len()-len(t.actionValues))...)
	}
	return t.tree.Walk(root, func(n *tree.Node) error {
		for p := range 2 {
			if len(n.Ranges[p]) != hands {
				n.Ranges[p] = make([]float64, hands)
			}
			if len(n.CFValues[p]) != hands {
				n.CFValues[p] = make([]float64, hands)
			}
		}
		switch n.Kind {
		case tree.KindPlayer:
			actions := len(n.Children)
			if actions == 0 {
				return fmt.Errorf("%w: player node %s has no children", ErrMalformedTree, t.describe(n))
			}
			if n.Player != 0 && n.Player != 1 {
				return fmt.Errorf("%w: node %s has acting player %d", ErrMalformedTree, t.describe(n), n.Player)
			}
			if n.Regrets == nil {
				n.Regrets = mat.NewDense(actions, hands, nil)
				fillConst(n.Regrets, t.cfg.RegretEpsilon)
			}
			if n.StrategySum == nil {
				n.StrategySum = mat.NewDense(actions, hands, nil)
			}
			if r, c := n.Regrets.Dims(); r != actions || c != hands {
				return fmt.Errorf("%w: node %s regrets are %dx%d, want %dx%d", ErrMalformedTree, t.describe(n), r, c, actions, hands)
			}
			if r, c := n.StrategySum.Dims(); r != actions || c != hands {
				return fmt.Errorf("%w: node %s strategy sum is %dx%d, want %dx%d", ErrMalformedTree, t.describe(n), r, c, actions, hands)
			}
			if t.strategy[n.ID] == nil {
				t.strategy[n.ID] = mat.NewDense(actions, hands, nil)
			}
			if len(t.actionValues[n.ID]) != actions*hands {
				t.actionValues[n.ID] = make([]float64, actions*hands)
			}
		case tree.KindChance:
			if len(n.Children) == 0 {
				return fmt.Errorf("%w: chance node %s has no children", ErrMalformedTree, t.describe(n))
			}
			if n.ChanceWeights == nil {
				return fmt.Errorf("%w: chance node %s has no weights", ErrMalformedTree, t.describe(n))
			}
			if r, c := n.ChanceWeights.Dims(); r != len(n.Children) || c != hands {
				return fmt.Errorf("%w: chance node %s weights are %dx%d, want %dx%d", ErrMalformedTree, t.describe(n), r, c, len(n.Children), hands)
			}
		}
		return nil
	})
}

func fillConst(m *mat.Dense, v float64) {
	raw := m.RawMatrix()
	for i := range raw.Data {
		raw.Data[i] = v
	}
}

func (t *Trainer) describe(n *tree.Node) string {
	path := t.tree.Path(n.ID)
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("%d (%s)", n.ID, path)
}

// CurrentStrategy returns the regret-matching strategy of a player node as an
// actions x hands matrix.
func (t *Trainer) CurrentStrategy(id tree.NodeID) (*mat.Dense, error) {
	n := t.tree.Node(id)
	if n == nil || n.Kind != tree.KindPlayer || n.Regrets == nil {
		return nil, fmt.Errorf("%w: node %d has no regrets", ErrMalformedTree, id)
	}
	r, c := n.Regrets.Dims()
	out := mat.NewDense(r, c, nil)
	regretMatch(n.Regrets, out)
	return out, nil
}

// AverageStrategy returns the normalised average strategy of a player node
// as an actions x hands matrix.
func (t *Trainer) AverageStrategy(id tree.NodeID) (*mat.Dense, error) {
	n := t.tree.Node(id)
	if n == nil || n.Kind != tree.KindPlayer || n.StrategySum == nil {
		return nil, fmt.Errorf("%w: node %d has no strategy", ErrMalformedTree, id)
	}
	return normaliseColumns(n.StrategySum), nil
}

// Tree returns the tree being solved.
func (t *Trainer) Tree() *tree.Tree { return t.tree }

// Cache exposes the terminal equity cache, e.g. for warming it up front.
func (t *Trainer) Cache() *EquityCache { return t.cache }

// Config returns the active configuration.
func (t *Trainer) Config() Config { return t.cfg }

// Iteration returns how many iterations have completed across all runs.
func (t *Trainer) Iteration() int { return t.iteration }

// SkippedIterations returns how many completed iterations were left out of
// the average strategy across all runs.
func (t *Trainer) SkippedIterations() int { return t.skipped }

// Stats returns the statistics of the most recent iteration.
func (t *Trainer) Stats() TraversalStats { return t.stats }

// Reset discards regrets, strategy sums and ranges so the next Run starts
// from scratch. Cached terminal evaluators are kept.
func (t *Trainer) Reset() {
	t.tree.ResetSolverState()
	t.iteration = 0
	t.skipped = 0
	t.stats = TraversalStats{}
}

// Close releases the terminal equity cache.
func (t *Trainer) Close() {
	t.cache.Close()
}
