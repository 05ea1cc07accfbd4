package build

import (
	"fmt"
	"strings"
)

// Kind tells the toolchain manager whether a target's command is a toolchain
// front-end whose platform support comes from the installer, or a wrapper that
// provisions its own toolchains.
type Kind int

const (
	// KindToolchain targets get their triple installed through the installer
	// when it is missing.
	KindToolchain Kind = iota
	// KindWrapper targets are never installed by the toolchain manager.
	KindWrapper
)

// ParseKind accepts "toolchain" or "wrapper" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "toolchain", "direct":
		return KindToolchain, nil
	case "wrapper", "external":
		return KindWrapper, nil
	default:
		return KindToolchain, fmt.Errorf("unknown target kind %q (want toolchain or wrapper)", s)
	}
}

func (k Kind) String() string {
	switch k {
	case KindToolchain:
		return "toolchain"
	case KindWrapper:
		return "wrapper"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Installable reports whether the toolchain manager may install this kind.
func (k Kind) Installable() bool {
	return k == KindToolchain
}

// MarshalText implements encoding.TextMarshaler so JSON output shows the name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Target describes one platform build target and how to drive it.
type Target struct {
	Triple  string              `json:"target"`
	Command string              `json:"command"`
	Kind    Kind                `json:"kind"`
	Env     map[string]string   `json:"env,omitempty"`
	Args    map[Action][]string `json:"args,omitempty"`
}

// Subcommand returns the argument vector passed to Command for the action.
// Targets without a configured mapping fall back to "<action> --target <triple>".
// The returned slice is owned by the caller.
func (t Target) Subcommand(a Action) []string {
	if args, ok := t.Args[a]; ok {
		return append([]string(nil), args...)
	}
	return []string{string(a), "--target", t.Triple}
}

// CommandLine renders the command and argument vector for display.
func (t Target) CommandLine(a Action, extra ...string) string {
	parts := append([]string{t.Command}, t.Subcommand(a)...)
	parts = append(parts, extra...)
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t\"'") {
			parts[i] = fmt.Sprintf("%q", p)
		}
	}
	return strings.Join(parts, " ")
}
