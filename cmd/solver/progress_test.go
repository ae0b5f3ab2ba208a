package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/rangesolver/sdk/solver"
	"github.com/lox/rangesolver/sdk/terminal"
	"github.com/lox/rangesolver/sdk/tree"
)

func TestProgressReporterKeepsTrainerElapsed(t *testing.T) {
	var buf bytes.Buffer
	reporter := &progressReporter{logger: log.New(&buf)}

	params := tree.DefaultBuildParams()
	tr, err := tree.Build(params)
	require.NoError(t, err)

	mClock := quartz.NewMock(t)
	cfg := solver.DefaultConfig()
	cfg.ProgressEvery = 1
	trainer, err := solver.NewTrainer(tr, terminal.NewBuilder(params.Deck),
		solver.WithConfig(cfg),
		solver.WithClock(mClock),
		solver.WithProgress(func(p solver.Progress) {
			reporter.report(p)
			mClock.Advance(time.Second).MustWait(context.Background())
		}),
	)
	require.NoError(t, err)
	defer trainer.Close()

	hands := tr.HandCount()
	r := make([]float64, hands)
	for h := range r {
		r[h] = 1 / float64(hands)
	}
	require.NoError(t, trainer.Run(tr.Root, [][]float64{r, r}, 4, 0))

	assert.Equal(t, 4, reporter.last.Iteration)
	assert.Equal(t, 3*time.Second, reporter.last.Elapsed)
	assert.Contains(t, buf.String(), "iteration=4")
}
