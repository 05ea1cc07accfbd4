package toolchain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargowrap/internal/build"
	"cargowrap/internal/runner"
)

type call struct {
	command string
	args    []string
	dir     string
	env     []string
}

// fakeInstaller behaves like rustup: it answers the list query from its
// installed set and adds triples on install.
type fakeInstaller struct {
	installed  []string
	calls      []call
	listErr    error
	installErr map[string]error
}

func (f *fakeInstaller) Run(_ context.Context, command string, args []string, opts runner.Options) (runner.Result, error) {
	f.calls = append(f.calls, call{command: command, args: append([]string(nil), args...), dir: opts.Dir, env: opts.Env})
	switch {
	case len(args) >= 2 && args[0] == "target" && args[1] == "list":
		if f.listErr != nil {
			return runner.Result{ExitCode: 1}, f.listErr
		}
		return runner.Result{Stdout: []byte("\n" + strings.Join(f.installed, "\n") + "\n  \n")}, nil
	case len(args) == 3 && args[0] == "target" && args[1] == "add":
		if err := f.installErr[args[2]]; err != nil {
			return runner.Result{ExitCode: runner.ExitCode(err)}, err
		}
		f.installed = append(f.installed, args[2])
		return runner.Result{}, nil
	case len(args) == 1 && args[0] == "--version":
		return runner.Result{Stdout: []byte("rustup 1.27.1 (54dd3d00f 2024-04-24)\n")}, nil
	}
	return runner.Result{}, errors.New("fake installer: unexpected args " + strings.Join(args, " "))
}

func (f *fakeInstaller) installs() []string {
	var out []string
	for _, c := range f.calls {
		if len(c.args) == 3 && c.args[1] == "add" {
			out = append(out, c.args[2])
		}
	}
	return out
}

func testConfig(t *testing.T, autoInstall bool, targets ...build.Target) build.Config {
	t.Helper()
	cfg, err := build.NewConfig(build.Config{
		ProjectRoot:      t.TempDir(),
		InstallerCommand: "rustup",
		AutoInstall:      autoInstall,
		Env:              map[string]string{"RUSTUP_HOME": "/opt/rustup"},
		Targets:          targets,
	})
	require.NoError(t, err)
	return cfg
}

func cargo(triple string) build.Target {
	return build.Target{Triple: triple, Command: "cargo", Kind: build.KindToolchain}
}

func cross(triple string) build.Target {
	return build.Target{Triple: triple, Command: "cross", Kind: build.KindWrapper}
}

func TestEnsureInstalledDisabledSpawnsNothing(t *testing.T) {
	fake := &fakeInstaller{}
	cfg := testConfig(t, false, cargo("x86_64-unknown-linux-gnu"), cross("aarch64-unknown-linux-gnu"))

	require.NoError(t, NewManager(fake, zerolog.Nop()).EnsureInstalled(context.Background(), cfg))
	assert.Empty(t, fake.calls)
}

func TestEnsureInstalledSkipsInstalledTargets(t *testing.T) {
	fake := &fakeInstaller{installed: []string{"x86_64-unknown-linux-gnu", "wasm32-wasip1"}}
	cfg := testConfig(t, true, cargo("x86_64-unknown-linux-gnu"), cargo("wasm32-wasip1"))

	require.NoError(t, NewManager(fake, zerolog.Nop()).EnsureInstalled(context.Background(), cfg))
	assert.Empty(t, fake.installs())
	require.Len(t, fake.calls, 1)
	assert.Equal(t, "rustup", fake.calls[0].command)
	assert.Equal(t, []string{"target", "list", "--installed"}, fake.calls[0].args)
	assert.Equal(t, cfg.ProjectRoot, fake.calls[0].dir)
	assert.Equal(t, []string{"RUSTUP_HOME=/opt/rustup"}, fake.calls[0].env)
}

func TestEnsureInstalledNeverInstallsWrapperTargets(t *testing.T) {
	fake := &fakeInstaller{}
	cfg := testConfig(t, true, cross("aarch64-unknown-linux-gnu"), cargo("wasm32-wasip1"))

	require.NoError(t, NewManager(fake, zerolog.Nop()).EnsureInstalled(context.Background(), cfg))
	assert.Equal(t, []string{"wasm32-wasip1"}, fake.installs())
}

func TestEnsureInstalledIsIdempotent(t *testing.T) {
	fake := &fakeInstaller{}
	cfg := testConfig(t, true, cargo("wasm32-wasip1"))
	m := NewManager(fake, zerolog.Nop())

	require.NoError(t, m.EnsureInstalled(context.Background(), cfg))
	require.NoError(t, m.EnsureInstalled(context.Background(), cfg))
	assert.Equal(t, []string{"wasm32-wasip1"}, fake.installs())
}

func TestEnsureInstalledQueryFailure(t *testing.T) {
	fake := &fakeInstaller{listErr: &runner.ExitError{Command: "rustup", Code: 1}}
	cfg := testConfig(t, true, cargo("wasm32-wasip1"))

	err := NewManager(fake, zerolog.Nop()).EnsureInstalled(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, build.ErrToolchainQuery))
	assert.Empty(t, fake.installs())

	be, ok := build.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 1, be.ExitCode)
}

func TestEnsureInstalledStopsAtFirstInstallFailure(t *testing.T) {
	fake := &fakeInstaller{installErr: map[string]error{
		"wasm32-wasip1": &runner.ExitError{Command: "rustup", Code: 2},
	}}
	cfg := testConfig(t, true, cargo("wasm32-wasip1"), cargo("aarch64-apple-darwin"))

	err := NewManager(fake, zerolog.Nop()).EnsureInstalled(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, build.ErrToolchainInstall))

	be, ok := build.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "wasm32-wasip1", be.Target)
	assert.Equal(t, 2, be.ExitCode)
	assert.Len(t, fake.calls, 2, "list plus the failed install only")
}

func TestInstallMissingIgnoresAutoInstall(t *testing.T) {
	fake := &fakeInstaller{installed: []string{"x86_64-unknown-linux-gnu"}}
	cfg := testConfig(t, false, cargo("x86_64-unknown-linux-gnu"), cargo("wasm32-wasip1"))

	installed, err := NewManager(fake, zerolog.Nop()).InstallMissing(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"wasm32-wasip1"}, installed)
}

func TestPlan(t *testing.T) {
	fake := &fakeInstaller{installed: []string{"x86_64-unknown-linux-gnu"}}
	cfg := testConfig(t, true,
		cargo("x86_64-unknown-linux-gnu"),
		cargo("wasm32-wasip1"),
		cross("aarch64-unknown-linux-gnu"),
	)

	plan, err := NewManager(fake, zerolog.Nop()).Plan(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, plan, 3)
	assert.Equal(t, StateInstalled, plan[0].State)
	assert.Equal(t, StateMissing, plan[1].State)
	assert.True(t, plan[1].WillInstall())
	assert.Equal(t, StateUnmanaged, plan[2].State)
	assert.False(t, plan[2].WillInstall())
	assert.Empty(t, fake.installs())
}

func TestParseSet(t *testing.T) {
	set := ParseSet([]byte("x86_64-unknown-linux-gnu\r\n\n  wasm32-wasip1  \n"))
	assert.Equal(t, []string{"wasm32-wasip1", "x86_64-unknown-linux-gnu"}, set.Sorted())
	assert.True(t, set.Has("wasm32-wasip1"))
	assert.False(t, set.Has(""))
}

func TestCheckInstaller(t *testing.T) {
	fake := &fakeInstaller{}
	cfg := testConfig(t, true)

	tests := []struct {
		minimum string
		ok      bool
	}{
		{minimum: "", ok: true},
		{minimum: "1.26", ok: true},
		{minimum: "1.27.1", ok: true},
		{minimum: "1.28.0", ok: false},
		{minimum: "not-a-version", ok: false},
	}
	for _, tt := range tests {
		t.Run("minimum "+tt.minimum, func(t *testing.T) {
			status := CheckInstaller(context.Background(), fake, cfg, tt.minimum)
			assert.Equal(t, "1.27.1", status.Version)
			assert.Equal(t, tt.ok, status.OK, status.Notice)
		})
	}
}

func TestCheckInstallerMissing(t *testing.T) {
	cfg := testConfig(t, true)
	cfg.InstallerCommand = "cargowrap-no-such-installer"

	status := CheckInstaller(context.Background(), runner.CmdRunner{}, cfg, "")
	assert.False(t, status.OK)
	assert.NotEmpty(t, status.Notice)
}
