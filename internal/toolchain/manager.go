package toolchain

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"cargowrap/internal/build"
	"cargowrap/internal/runner"
)

// State describes a configured target relative to the installed set.
type State string

const (
	StateInstalled State = "installed"
	StateMissing   State = "missing"
	// StateUnmanaged is a missing wrapper target; its command provisions
	// toolchains itself.
	StateUnmanaged State = "unmanaged"
)

// PlanEntry is one target's toolchain status.
type PlanEntry struct {
	Target build.Target `json:"-"`
	Triple string       `json:"target"`
	Kind   build.Kind   `json:"kind"`
	State  State        `json:"state"`
}

// WillInstall reports whether EnsureInstalled would install this target.
func (p PlanEntry) WillInstall() bool {
	return p.State == StateMissing
}

// Manager reconciles configured targets against the installer's installed
// set.
type Manager struct {
	Runner runner.Runner
	Logger zerolog.Logger
	// Output receives the installer's output while installing. Optional.
	Output io.Writer
}

func NewManager(r runner.Runner, logger zerolog.Logger) *Manager {
	return &Manager{Runner: r, Logger: logger}
}

// EnsureInstalled installs every missing toolchain-kind target. It does
// nothing, not even the query, when cfg.AutoInstall is false.
func (m *Manager) EnsureInstalled(ctx context.Context, cfg build.Config) error {
	if !cfg.AutoInstall {
		return nil
	}
	_, err := m.InstallMissing(ctx, cfg)
	return err
}

// InstallMissing queries the installer and installs each missing
// toolchain-kind target in declaration order, regardless of cfg.AutoInstall.
// It returns the triples it installed. The first failure stops processing.
func (m *Manager) InstallMissing(ctx context.Context, cfg build.Config) ([]string, error) {
	plan, err := m.Plan(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var installed []string
	for _, entry := range plan {
		switch entry.State {
		case StateInstalled:
			continue
		case StateUnmanaged:
			m.Logger.Debug().
				Str("target", entry.Triple).
				Str("command", entry.Target.Command).
				Msg("skipping toolchain install for wrapper target")
			continue
		}

		if err := ctx.Err(); err != nil {
			return installed, err
		}
		if err := m.install(ctx, cfg, entry.Triple); err != nil {
			return installed, err
		}
		installed = append(installed, entry.Triple)
	}
	return installed, nil
}

// Plan queries the installed set and classifies every configured target.
func (m *Manager) Plan(ctx context.Context, cfg build.Config) ([]PlanEntry, error) {
	set, err := m.Installed(ctx, cfg)
	if err != nil {
		return nil, err
	}

	plan := make([]PlanEntry, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		entry := PlanEntry{Target: t, Triple: t.Triple, Kind: t.Kind}
		switch {
		case set.Has(t.Triple):
			entry.State = StateInstalled
		case t.Kind.Installable():
			entry.State = StateMissing
		default:
			entry.State = StateUnmanaged
		}
		plan = append(plan, entry)
	}
	return plan, nil
}

// Installed runs the installer's list query.
func (m *Manager) Installed(ctx context.Context, cfg build.Config) (Set, error) {
	args := append([]string(nil), cfg.InstallerListArgs...)
	res, err := m.Runner.Run(ctx, cfg.InstallerCommand, args, runner.Options{
		Dir: cfg.ProjectRoot,
		Env: build.EnvList(cfg.Env),
	})
	if err != nil {
		return nil, &build.Error{
			Kind:     build.ErrToolchainQuery,
			Path:     cfg.InstallerCommand,
			ExitCode: runner.ExitCode(err),
			Err:      err,
		}
	}
	set := ParseSet(res.Stdout)
	m.Logger.Debug().Strs("installed", set.Sorted()).Msg("queried installed toolchains")
	return set, nil
}

func (m *Manager) install(ctx context.Context, cfg build.Config, triple string) error {
	args := append(append([]string(nil), cfg.InstallerAddArgs...), triple)
	_, err := m.Runner.Run(ctx, cfg.InstallerCommand, args, runner.Options{
		Dir:    cfg.ProjectRoot,
		Env:    build.EnvList(cfg.Env),
		Stdout: m.Output,
		Stderr: m.Output,
	})
	if err != nil {
		return &build.Error{
			Kind:     build.ErrToolchainInstall,
			Target:   triple,
			ExitCode: runner.ExitCode(err),
			Err:      err,
		}
	}
	m.Logger.Info().Str("target", triple).Msg("installed toolchain")
	return nil
}
