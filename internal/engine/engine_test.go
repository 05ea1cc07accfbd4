package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargowrap/internal/build"
	"cargowrap/internal/runner"
)

type invocation struct {
	command string
	args    []string
	dir     string
	env     map[string]string
}

type fakeRunner struct {
	calls []invocation
	fail  map[string]int
}

func (f *fakeRunner) Run(_ context.Context, command string, args []string, opts runner.Options) (runner.Result, error) {
	f.calls = append(f.calls, invocation{
		command: command,
		args:    append([]string(nil), args...),
		dir:     opts.Dir,
		env:     build.EnvMap(opts.Env),
	})
	if code, ok := f.fail[command]; ok {
		return runner.Result{ExitCode: code, Stderr: []byte("boom")}, &runner.ExitError{Command: command, Code: code}
	}
	return runner.Result{}, nil
}

func (f *fakeRunner) commands() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.command
	}
	return out
}

type fakeToolchain struct {
	calls int
	err   error
}

func (f *fakeToolchain) EnsureInstalled(context.Context, build.Config) error {
	f.calls++
	return f.err
}

type recordingReporter struct {
	started   []string
	completed []Status
}

func (r *recordingReporter) Start(step Step) { r.started = append(r.started, step.Target.Triple) }

func (r *recordingReporter) Complete(_ Step, res Result) {
	r.completed = append(r.completed, res.Status)
}

func newConfig(t *testing.T, env map[string]string, targets ...build.Target) build.Config {
	t.Helper()
	cfg, err := build.NewConfig(build.Config{
		ProjectRoot:      t.TempDir(),
		InstallerCommand: "rustup",
		AutoInstall:      true,
		Env:              env,
		Targets:          targets,
	})
	require.NoError(t, err)
	return cfg
}

func threeTargets() []build.Target {
	return []build.Target{
		{Triple: "a-triple", Command: "tool-a"},
		{Triple: "b-triple", Command: "tool-b"},
		{Triple: "c-triple", Command: "tool-c"},
	}
}

func TestRunExecutesInDeclarationOrder(t *testing.T) {
	fr := &fakeRunner{}
	tc := &fakeToolchain{}
	cfg := newConfig(t, nil, threeTargets()...)

	summary, err := New(fr, tc, zerolog.Nop()).Run(context.Background(), build.ActionBuild, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"tool-a", "tool-b", "tool-c"}, fr.commands())
	assert.Equal(t, 1, tc.calls)
	assert.Equal(t, 3, summary.Count(StatusSucceeded))
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	fr := &fakeRunner{fail: map[string]int{"tool-b": 101}}
	rep := &recordingReporter{}
	cfg := newConfig(t, nil, threeTargets()...)

	eng := New(fr, &fakeToolchain{}, zerolog.Nop())
	eng.Reporter = rep
	summary, err := eng.Run(context.Background(), build.ActionTest, cfg)

	require.Error(t, err)
	assert.Equal(t, []string{"tool-a", "tool-b"}, fr.commands())
	assert.True(t, errors.Is(err, build.ErrTargetExecution))

	be, ok := build.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "b-triple", be.Target)
	assert.Equal(t, build.ActionTest, be.Action)
	assert.Equal(t, 101, be.ExitCode)

	failed, ok := summary.Failed()
	require.True(t, ok)
	assert.Equal(t, "b-triple", failed.Target)
	assert.Equal(t, []byte("boom"), failed.Stderr)
	assert.Equal(t, []Status{StatusSucceeded, StatusFailed, StatusSkipped}, rep.completed)
	assert.Equal(t, []string{"a-triple", "b-triple"}, rep.started)
}

func TestRunComposesEnvironment(t *testing.T) {
	fr := &fakeRunner{}
	target := build.Target{Triple: "a-triple", Command: "tool-a", Env: map[string]string{"Y": "9"}}
	cfg := newConfig(t, map[string]string{"X": "1", "Y": "2"}, target)

	_, err := New(fr, &fakeToolchain{}, zerolog.Nop()).Run(context.Background(), build.ActionRun, cfg)
	require.NoError(t, err)
	require.Len(t, fr.calls, 1)
	assert.Equal(t, map[string]string{"X": "1", "Y": "9"}, fr.calls[0].env)
	assert.Equal(t, "2", cfg.Env["Y"])
}

func TestRunSingleInstalledCargoTarget(t *testing.T) {
	fr := &fakeRunner{}
	target := build.Target{
		Triple:  "x86_64-unknown-linux-gnu",
		Command: "cargo",
		Kind:    build.KindToolchain,
		Args: map[build.Action][]string{
			build.ActionBuild: {"build", "--target", "x86_64-unknown-linux-gnu"},
		},
	}
	cfg := newConfig(t, nil, target)

	_, err := New(fr, &fakeToolchain{}, zerolog.Nop()).Run(context.Background(), build.ActionBuild, cfg)
	require.NoError(t, err)
	require.Len(t, fr.calls, 1)
	assert.Equal(t, "cargo", fr.calls[0].command)
	assert.Equal(t, []string{"build", "--target", "x86_64-unknown-linux-gnu"}, fr.calls[0].args)
	assert.Equal(t, cfg.ProjectRoot, fr.calls[0].dir)
}

func TestRunToolchainFailureRunsNoTargets(t *testing.T) {
	fr := &fakeRunner{}
	tc := &fakeToolchain{err: &build.Error{Kind: build.ErrToolchainQuery, ExitCode: 1}}
	cfg := newConfig(t, nil, threeTargets()...)

	_, err := New(fr, tc, zerolog.Nop()).Run(context.Background(), build.ActionBuild, cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, build.ErrToolchainQuery))
	assert.Empty(t, fr.calls)
}

func TestRunInvalidWorkingDirectory(t *testing.T) {
	fr := &fakeRunner{}
	tc := &fakeToolchain{}
	cfg := newConfig(t, nil, threeTargets()...)
	cfg.ProjectRoot = filepath.Join(cfg.ProjectRoot, "missing")

	_, err := New(fr, tc, zerolog.Nop()).Run(context.Background(), build.ActionBuild, cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, build.ErrInvalidWorkingDirectory))
	assert.Empty(t, fr.calls)
	assert.Zero(t, tc.calls, "working directory is checked before the toolchain query")
}

func TestRunNoTargetsIsNoop(t *testing.T) {
	fr := &fakeRunner{}
	tc := &fakeToolchain{}
	cfg := newConfig(t, nil)

	summary, err := New(fr, tc, zerolog.Nop()).Run(context.Background(), build.ActionBuild, cfg)
	require.NoError(t, err)
	assert.Empty(t, summary.Results)
	assert.Empty(t, fr.calls)
	assert.Zero(t, tc.calls)
}

func TestRunDryRun(t *testing.T) {
	fr := &fakeRunner{}
	tc := &fakeToolchain{}
	cfg := newConfig(t, nil, threeTargets()...)

	eng := New(fr, tc, zerolog.Nop())
	eng.DryRun = true
	eng.ExtraArgs = []string{"--features", "serde"}
	summary, err := eng.Run(context.Background(), build.ActionBuild, cfg)

	require.NoError(t, err)
	assert.Empty(t, fr.calls)
	assert.Zero(t, tc.calls)
	require.Len(t, summary.Results, 3)
	assert.Equal(t, StatusPlanned, summary.Results[0].Status)
	assert.Equal(t, []string{"build", "--target", "a-triple", "--features", "serde"}, summary.Results[0].Args)
}

func TestRunAppendsExtraArgs(t *testing.T) {
	fr := &fakeRunner{}
	cfg := newConfig(t, nil, build.Target{Triple: "a-triple", Command: "tool-a"})

	eng := New(fr, &fakeToolchain{}, zerolog.Nop())
	eng.ExtraArgs = []string{"--", "--nocapture"}
	_, err := eng.Run(context.Background(), build.ActionTest, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"test", "--target", "a-triple", "--", "--nocapture"}, fr.calls[0].args)
}

func TestRunCancelledContext(t *testing.T) {
	fr := &fakeRunner{}
	cfg := newConfig(t, nil, threeTargets()...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := New(fr, &fakeToolchain{}, zerolog.Nop()).Run(ctx, build.ActionBuild, cfg)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fr.calls)
	assert.Equal(t, 3, summary.Count(StatusSkipped))
}

func TestRunRejectsClean(t *testing.T) {
	fr := &fakeRunner{}
	cfg := newConfig(t, nil, threeTargets()...)

	_, err := New(fr, &fakeToolchain{}, zerolog.Nop()).Run(context.Background(), build.ActionClean, cfg)
	require.Error(t, err)
	assert.Empty(t, fr.calls)
}
