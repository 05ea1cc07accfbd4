package build

import (
	"os"
	"runtime"
	"sort"
	"strings"
)

// MergeEnv returns base overridden by overrides. Neither input is modified.
// On Windows keys are matched case-insensitively and the override's spelling
// wins.
func MergeEnv(base, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		if runtime.GOOS == "windows" {
			for existing := range merged {
				if existing != k && strings.EqualFold(existing, k) {
					delete(merged, existing)
				}
			}
		}
		merged[k] = v
	}
	return merged
}

// EnvList converts an environment map into sorted KEY=VALUE pairs suitable
// for exec.Cmd.Env.
func EnvList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}

// EnvMap parses KEY=VALUE pairs, typically from os.Environ. Later entries win.
func EnvMap(pairs []string) map[string]string {
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		// Windows keeps per-drive working directories as "=C:=C:\dir".
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// HostEnv returns the current process environment as a map.
func HostEnv() map[string]string {
	return EnvMap(os.Environ())
}
