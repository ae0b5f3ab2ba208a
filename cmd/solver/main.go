package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lox/rangesolver/sdk/config"
	"github.com/lox/rangesolver/sdk/solver"
	solverRuntime "github.com/lox/rangesolver/sdk/solver/runtime"
	"github.com/lox/rangesolver/sdk/terminal"
	"github.com/lox/rangesolver/sdk/tree"
)

var cli struct {
	Debug   bool `help:"enable debug logging"`
	NoColor bool `help:"disable coloured output"`

	Solve   SolveCmd   `cmd:"" help:"solve the configured game and write a blueprint"`
	Inspect InspectCmd `cmd:"" help:"print the average strategy stored in a blueprint"`
}

type SolveCmd struct {
	Config         string `short:"c" default:"solve.hcl" help:"path to HCL configuration file"`
	Out            string `short:"o" help:"blueprint output path (overrides config)"`
	Iterations     int    `help:"CFR iterations (overrides config)" default:"0"`
	Skip           int    `help:"leading iterations excluded from the average (overrides config)" default:"-1"`
	Exploitability bool   `help:"report exploitability of the average strategy" default:"true" negatable:""`
}

type InspectCmd struct {
	Blueprint string `arg:"" help:"blueprint file written by solve"`
	Node      string `help:"action path of the node to show, e.g. x/b3" default:""`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("solver"),
		kong.Description("Range-vs-range CFR solver"),
		kong.UsageOnError(),
	)

	logger := log.New(os.Stderr)
	if cli.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	if cli.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch ctx.Command() {
	case "solve":
		err = cli.Solve.Run(runCtx, logger)
	case "inspect <blueprint>":
		err = cli.Inspect.Run(logger)
	default:
		err = fmt.Errorf("unknown command: %s", ctx.Command())
	}
	if err != nil {
		logger.Error("command failed", "command", ctx.Command(), "error", err)
		ctx.Exit(1)
	}
}

func (cmd *SolveCmd) Run(ctx context.Context, logger *log.Logger) error {
	cfg, err := config.Load(cmd.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if cmd.Iterations > 0 {
		cfg.CFR.Iterations = cmd.Iterations
	}
	if cmd.Skip >= 0 {
		cfg.CFR.SkipIterations = &cmd.Skip
	}
	if cmd.Out != "" {
		cfg.Output = cmd.Out
	}
	if cfg.Output == "" {
		cfg.Output = "blueprint.json"
	}
	if !cli.Debug {
		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		logger.SetLevel(level)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	params, err := cfg.BuildParams()
	if err != nil {
		return err
	}
	t, err := tree.Build(params)
	if err != nil {
		return fmt.Errorf("build tree: %w", err)
	}
	ranges, err := cfg.StartingRanges(params.Deck)
	if err != nil {
		return err
	}
	logger.Info("tree built", "nodes", t.Len(), "hands", t.HandCount(), "terminals", len(t.Terminals(t.Root)))

	progress := &progressReporter{logger: logger}
	trainer, err := solver.NewTrainer(t, terminal.NewBuilder(params.Deck),
		solver.WithConfig(cfg.SolverConfig()),
		solver.WithLogger(logger),
		solver.WithProgress(progress.report),
	)
	if err != nil {
		return err
	}
	defer trainer.Close()

	if err := trainer.Cache().Warm(ctx, t.Terminals(t.Root), cfg.CFR.WarmParallelism); err != nil {
		return fmt.Errorf("warm terminal equity: %w", err)
	}
	if ctx.Err() != nil {
		return errors.New("interrupted before solving")
	}

	if err := trainer.Run(t.Root, ranges, 0, -1); err != nil {
		return fmt.Errorf("solve: %w", err)
	}
	logger.Info("solve completed", "duration", progress.last.Elapsed, "iterations", trainer.Iteration(),
		"skipped", trainer.SkippedIterations())

	if cmd.Exploitability {
		e, err := trainer.Exploitability(t.Root, ranges)
		if err != nil {
			return fmt.Errorf("exploitability: %w", err)
		}
		logger.Info("exploitability", "total", e.Total, "p0_best_response", e.BestResponse[0], "p1_best_response", e.BestResponse[1])
	}

	bp, err := trainer.Blueprint(t.Root)
	if err != nil {
		return err
	}
	if err := bp.Save(cfg.Output); err != nil {
		return fmt.Errorf("save blueprint: %w", err)
	}
	logger.Info("blueprint saved", "path", cfg.Output, "nodes", len(bp.Nodes))

	root, _ := bp.Strategy("")
	fmt.Println(renderStrategy("", root, bp.Hands))
	return nil
}

func (cmd *InspectCmd) Run(logger *log.Logger) error {
	policy, err := solverRuntime.Load(cmd.Blueprint)
	if err != nil {
		return fmt.Errorf("load blueprint: %w", err)
	}
	bp := policy.Blueprint()
	ns, ok := bp.Strategy(cmd.Node)
	if !ok {
		return fmt.Errorf("no player node at %q; children of the root are %v", cmd.Node, childPaths(bp, ""))
	}
	logger.Debug("blueprint loaded", "iterations", bp.Iterations, "nodes", len(bp.Nodes), "generated_at", bp.GeneratedAt)

	fmt.Println(renderStrategy(cmd.Node, ns, bp.Hands))
	if next := childPaths(bp, cmd.Node); len(next) > 0 {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("next decisions: %v", next)))
	}
	return nil
}
