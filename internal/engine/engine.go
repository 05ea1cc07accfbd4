// Package engine runs one action across every configured target, one target
// at a time, stopping at the first failure.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"cargowrap/internal/build"
	"cargowrap/internal/runner"
)

// Toolchain provisions platform toolchains before any target runs.
type Toolchain interface {
	EnsureInstalled(ctx context.Context, cfg build.Config) error
}

// Engine executes build, test and run actions.
type Engine struct {
	Runner    runner.Runner
	Toolchain Toolchain
	Logger    zerolog.Logger

	// Stdout and Stderr receive child output. Nil discards it (it is still
	// kept in Result for failed targets).
	Stdout io.Writer
	Stderr io.Writer

	// Reporter is notified as targets start and finish. Optional.
	Reporter Reporter

	// ExtraArgs are appended to every target's argument vector.
	ExtraArgs []string
	// DryRun reports what would run without installing or spawning anything.
	DryRun bool
}

func New(r runner.Runner, tc Toolchain, logger zerolog.Logger) *Engine {
	return &Engine{Runner: r, Toolchain: tc, Logger: logger}
}

// Run executes action for every target in cfg in declaration order.
func (e *Engine) Run(ctx context.Context, action build.Action, cfg build.Config) (Summary, error) {
	summary := Summary{Action: action}
	if !action.UsesToolchain() {
		return summary, fmt.Errorf("action %s does not run target commands", action)
	}
	if err := ValidateWorkingDir(cfg.ProjectRoot); err != nil {
		return summary, err
	}
	if len(cfg.Targets) == 0 {
		e.Logger.Warn().Str("action", string(action)).Msg("no targets configured; nothing to do")
		return summary, nil
	}

	if !e.DryRun && e.Toolchain != nil {
		if err := e.Toolchain.EnsureInstalled(ctx, cfg); err != nil {
			return summary, err
		}
	}

	steps := e.plan(action, cfg)
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			e.skip(&summary, steps[i:])
			return summary, err
		}

		res, err := e.runStep(ctx, cfg, step)
		summary.Results = append(summary.Results, res)
		if err != nil {
			e.skip(&summary, steps[i+1:])
			return summary, err
		}
	}
	return summary, nil
}

// Plan returns the steps Run would execute, without side effects.
func (e *Engine) Plan(action build.Action, cfg build.Config) []Step {
	return e.plan(action, cfg)
}

func (e *Engine) plan(action build.Action, cfg build.Config) []Step {
	steps := make([]Step, len(cfg.Targets))
	for i, t := range cfg.Targets {
		args := append(t.Subcommand(action), e.ExtraArgs...)
		steps[i] = Step{
			Index:       i,
			Total:       len(cfg.Targets),
			Target:      t,
			Action:      action,
			Args:        args,
			CommandLine: t.CommandLine(action, e.ExtraArgs...),
		}
	}
	return steps
}

func (e *Engine) runStep(ctx context.Context, cfg build.Config, step Step) (Result, error) {
	res := Result{
		Target:  step.Target.Triple,
		Action:  step.Action,
		Command: step.Target.Command,
		Args:    step.Args,
	}
	logger := e.Logger.With().
		Str("target", step.Target.Triple).
		Str("action", string(step.Action)).
		Logger()

	if e.DryRun {
		res.Status = StatusPlanned
		logger.Info().Str("command", step.CommandLine).Msg("dry run")
		e.report(step, res)
		return res, nil
	}

	if e.Reporter != nil {
		e.Reporter.Start(step)
	}
	logger.Info().Str("command", step.CommandLine).Msg("running target")

	start := time.Now()
	out, err := e.Runner.Run(ctx, step.Target.Command, step.Args, runner.Options{
		Dir:    cfg.ProjectRoot,
		Env:    build.EnvList(cfg.TargetEnv(step.Target)),
		Stdout: e.Stdout,
		Stderr: e.Stderr,
	})
	res.Duration = time.Since(start)

	if err != nil {
		res.Status = StatusFailed
		res.ExitCode = runner.ExitCode(err)
		res.Stderr = out.Stderr
		res.Err = &build.Error{
			Kind:     build.ErrTargetExecution,
			Target:   step.Target.Triple,
			Action:   step.Action,
			ExitCode: res.ExitCode,
			Err:      err,
		}
		logger.Error().Err(err).Int("exit_code", res.ExitCode).Dur("duration", res.Duration).Msg("target failed")
		e.report(step, res)
		return res, res.Err
	}

	res.Status = StatusSucceeded
	logger.Info().Dur("duration", res.Duration).Msg("target finished")
	e.report(step, res)
	return res, nil
}

func (e *Engine) skip(summary *Summary, rest []Step) {
	for _, step := range rest {
		res := Result{
			Target:  step.Target.Triple,
			Action:  step.Action,
			Command: step.Target.Command,
			Args:    step.Args,
			Status:  StatusSkipped,
		}
		summary.Results = append(summary.Results, res)
		e.report(step, res)
	}
}

func (e *Engine) report(step Step, res Result) {
	if e.Reporter != nil {
		e.Reporter.Complete(step, res)
	}
}

// ValidateWorkingDir checks that dir names an existing directory.
func ValidateWorkingDir(dir string) error {
	if dir == "" {
		return &build.Error{Kind: build.ErrInvalidWorkingDirectory, Err: errors.New("project root is not set")}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return &build.Error{Kind: build.ErrInvalidWorkingDirectory, Path: dir, Err: err}
	}
	if !info.IsDir() {
		return &build.Error{Kind: build.ErrInvalidWorkingDirectory, Path: dir, Err: errors.New("not a directory")}
	}
	return nil
}
