package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/shell"

	"cargowrap/internal/build"
	"cargowrap/internal/paths"
)

// Resolve converts the file configuration into the orchestrator's input.
// Relative paths are anchored at the config file's directory, except
// OutputDir which is relative to the crate. hostEnv seeds the global
// environment when InheritEnv is set.
func (c Config) Resolve(pp paths.ProjectPaths, hostEnv map[string]string) (build.Config, error) {
	baseDir := filepath.Dir(pp.ConfigFile)
	if err := c.loadTargetFiles(baseDir); err != nil {
		return build.Config{}, err
	}

	crate := resolveExternalPath(baseDir, c.Crate)
	out := build.Config{
		ProjectRoot:       filepath.Clean(crate),
		InstallerCommand:  c.Installer.Command,
		InstallerListArgs: c.Installer.ListArgs,
		InstallerAddArgs:  c.Installer.AddArgs,
		AutoInstall:       c.AutoInstall,
		OutputDir:         resolveExternalPath(crate, c.OutputDir),
		HostBuildDir:      resolveExternalPath(baseDir, c.HostBuildDir),
	}
	if c.InheritEnv {
		out.Env = build.MergeEnv(hostEnv, c.Env)
	} else {
		out.Env = build.MergeEnv(nil, c.Env)
	}

	shared, err := parseArgTemplates(c.Args)
	if err != nil {
		return build.Config{}, fmt.Errorf("args: %w", err)
	}

	for i, tc := range c.Targets {
		t, err := c.resolveTarget(tc, shared, out.Env)
		if err != nil {
			name := tc.Target
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
			return build.Config{}, fmt.Errorf("target %s: %w", name, err)
		}
		out.Targets = append(out.Targets, t)
	}

	return build.NewConfig(out)
}

func (c Config) resolveTarget(tc TargetConfig, shared map[build.Action]string, global map[string]string) (build.Target, error) {
	t := build.Target{
		Triple:  strings.TrimSpace(tc.Target),
		Command: strings.TrimSpace(tc.Command),
		Env:     tc.Env,
	}

	if strings.TrimSpace(tc.Kind) == "" {
		t.Kind = InferKind(t.Command)
	} else {
		kind, err := build.ParseKind(tc.Kind)
		if err != nil {
			return build.Target{}, err
		}
		t.Kind = kind
	}

	own, err := parseArgTemplates(tc.Args)
	if err != nil {
		return build.Target{}, err
	}
	templates := make(map[build.Action]string, len(shared)+len(own))
	for a, tmpl := range shared {
		templates[a] = tmpl
	}
	for a, tmpl := range own {
		templates[a] = tmpl
	}
	if len(templates) == 0 {
		return t, nil
	}

	env := build.MergeEnv(global, tc.Env)
	t.Args = make(map[build.Action][]string, len(templates))
	for action, tmpl := range templates {
		args, err := ExpandArgs(tmpl, t.Triple, action, env)
		if err != nil {
			return build.Target{}, fmt.Errorf("args.%s: %w", action, err)
		}
		t.Args[action] = args
	}
	return t, nil
}

func parseArgTemplates(raw map[string]string) (map[build.Action]string, error) {
	out := make(map[build.Action]string, len(raw))
	for name, tmpl := range raw {
		action, err := build.ParseAction(name)
		if err != nil {
			return nil, err
		}
		if action == build.ActionClean {
			return nil, fmt.Errorf("clean does not take arguments")
		}
		out[action] = tmpl
	}
	return out, nil
}

// ExpandArgs splits an argument template with shell quoting rules and
// expands $TARGET, $ACTION and variables from env.
func ExpandArgs(tmpl, triple string, action build.Action, env map[string]string) ([]string, error) {
	args, err := shell.Fields(tmpl, func(name string) string {
		switch name {
		case "TARGET":
			return triple
		case "ACTION":
			return string(action)
		}
		return env[name]
	})
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", tmpl, err)
	}
	if args == nil {
		args = []string{}
	}
	return args, nil
}

// InferKind classifies a target whose kind is not declared: a command that
// names cargo but not cross is a toolchain front-end, anything else is
// treated as a self-provisioning wrapper.
func InferKind(command string) build.Kind {
	lower := strings.ToLower(command)
	if strings.Contains(lower, "cargo") && !strings.Contains(lower, "cross") {
		return build.KindToolchain
	}
	return build.KindWrapper
}
