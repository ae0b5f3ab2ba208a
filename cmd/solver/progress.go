package main

import (
	"github.com/charmbracelet/log"

	"github.com/lox/rangesolver/sdk/solver"
)

// progressReporter logs trainer progress and remembers the latest report, so
// the solve summary uses the trainer's own clock.
type progressReporter struct {
	logger *log.Logger
	last   solver.Progress
}

func (r *progressReporter) report(p solver.Progress) {
	r.last = p
	r.logger.Info("progress", "iteration", p.Iteration, "total", p.Total, "nodes", p.Stats.NodesVisited,
		"terminals", p.Stats.TerminalNodes, "iter_time", p.Stats.IterationTime, "elapsed", p.Elapsed)
}
