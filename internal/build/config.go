package build

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Default installer argument vectors, matching rustup.
var (
	DefaultListArgs = []string{"target", "list", "--installed"}
	DefaultAddArgs  = []string{"target", "add"}
)

// Config is the fully resolved input of one invocation.
type Config struct {
	// ProjectRoot is the working directory of every spawned process.
	ProjectRoot string
	// InstallerCommand queries and installs platform toolchains (e.g. rustup).
	InstallerCommand string
	// InstallerListArgs lists installed triples, one per line on stdout.
	InstallerListArgs []string
	// InstallerAddArgs is followed by the triple to install it.
	InstallerAddArgs []string
	// AutoInstall enables the toolchain manager.
	AutoInstall bool
	// Env is applied to every process before target overrides. Nothing from
	// the host environment is passed unless it is present here.
	Env map[string]string
	// Targets run in this order.
	Targets []Target

	// OutputDir holds toolchain output below ProjectRoot ("target" by default).
	OutputDir string
	// HostBuildDir is the host build system's output directory.
	HostBuildDir string
}

// NewConfig validates cfg and returns a copy that shares no mutable state
// with the input. Duplicate triples fail with ErrDuplicateTarget.
func NewConfig(cfg Config) (Config, error) {
	seen := make(map[string]int, len(cfg.Targets))
	for i, t := range cfg.Targets {
		triple := strings.TrimSpace(t.Triple)
		if triple == "" {
			return Config{}, fmt.Errorf("target #%d: missing platform triple", i+1)
		}
		if strings.TrimSpace(t.Command) == "" {
			return Config{}, fmt.Errorf("target %s: missing command", triple)
		}
		if first, dup := seen[triple]; dup {
			return Config{}, &Error{
				Kind:   ErrDuplicateTarget,
				Target: triple,
				Err:    fmt.Errorf("declared as target #%d and #%d", first+1, i+1),
			}
		}
		seen[triple] = i
	}

	out := cfg
	out.InstallerListArgs = cloneArgs(orDefault(cfg.InstallerListArgs, DefaultListArgs))
	out.InstallerAddArgs = cloneArgs(orDefault(cfg.InstallerAddArgs, DefaultAddArgs))
	out.Env = MergeEnv(nil, cfg.Env)
	out.Targets = make([]Target, len(cfg.Targets))
	for i, t := range cfg.Targets {
		out.Targets[i] = cloneTarget(t)
	}
	if out.OutputDir == "" && out.ProjectRoot != "" {
		out.OutputDir = filepath.Join(out.ProjectRoot, "target")
	}
	return out, nil
}

// TargetEnv composes the environment for one target: the global environment
// with the target's overrides applied on top.
func (c Config) TargetEnv(t Target) map[string]string {
	return MergeEnv(c.Env, t.Env)
}

// Target looks up a descriptor by triple.
func (c Config) Target(triple string) (Target, bool) {
	for _, t := range c.Targets {
		if t.Triple == triple {
			return t, true
		}
	}
	return Target{}, false
}

// Select returns a copy of c restricted to the named triples. Declaration
// order is kept regardless of the order of names. An empty selection returns
// c unchanged.
func (c Config) Select(triples []string) (Config, error) {
	if len(triples) == 0 {
		return c, nil
	}
	want := make(map[string]bool, len(triples))
	for _, name := range triples {
		name = strings.TrimSpace(name)
		if _, ok := c.Target(name); !ok {
			return Config{}, fmt.Errorf("unknown target %q", name)
		}
		want[name] = true
	}

	out := c
	out.Targets = nil
	for _, t := range c.Targets {
		if want[t.Triple] {
			out.Targets = append(out.Targets, t)
		}
	}
	return out, nil
}

// Triples returns the configured triples in declaration order.
func (c Config) Triples() []string {
	names := make([]string, len(c.Targets))
	for i, t := range c.Targets {
		names[i] = t.Triple
	}
	return names
}

func cloneTarget(t Target) Target {
	out := t
	out.Triple = strings.TrimSpace(t.Triple)
	out.Env = MergeEnv(nil, t.Env)
	if t.Args != nil {
		out.Args = make(map[Action][]string, len(t.Args))
		for a, args := range t.Args {
			out.Args[a] = cloneArgs(args)
		}
	}
	return out
}

func cloneArgs(args []string) []string {
	return append([]string(nil), args...)
}

func orDefault(args, def []string) []string {
	if args == nil {
		return def
	}
	return args
}
