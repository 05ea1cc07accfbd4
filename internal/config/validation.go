package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cargowrap/internal/build"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// HasErrors reports whether any result is an error.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}

// ValidateStrict runs all validations against the config and returns
// structured results. baseDir is the directory holding the config file.
func (c Config) ValidateStrict(baseDir string) []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateCrate(baseDir)...)
	results = append(results, c.validateTargetFiles(baseDir)...)
	results = append(results, c.validateTargets()...)
	results = append(results, c.validateArgs()...)
	return results
}

func (c Config) validateCrate(baseDir string) []ValidationResult {
	crate := resolveExternalPath(baseDir, c.Crate)
	info, err := os.Stat(crate)
	if err != nil {
		return []ValidationResult{{Level: "error", Message: fmt.Sprintf("crate directory %q not found", c.Crate)}}
	}
	if !info.IsDir() {
		return []ValidationResult{{Level: "error", Message: fmt.Sprintf("crate path %q is not a directory", c.Crate)}}
	}
	if _, err := os.Stat(filepath.Join(crate, "Cargo.toml")); err != nil {
		return []ValidationResult{{Level: "warning", Message: fmt.Sprintf("no Cargo.toml in crate directory %q", c.Crate)}}
	}
	return nil
}

func (c Config) validateTargetFiles(baseDir string) []ValidationResult {
	var results []ValidationResult
	for _, path := range c.TargetFiles {
		if _, err := os.Stat(resolveExternalPath(baseDir, path)); err != nil {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("target file %q not found", path),
			})
		}
	}
	return results
}

func (c Config) validateTargets() []ValidationResult {
	var results []ValidationResult
	if len(c.Targets) == 0 && len(c.TargetFiles) == 0 {
		results = append(results, ValidationResult{
			Level:   "warning",
			Message: "no targets configured; build, test and run will do nothing",
		})
	}

	seen := make(map[string]int, len(c.Targets))
	for i, t := range c.Targets {
		label := t.Target
		if strings.TrimSpace(label) == "" {
			label = fmt.Sprintf("#%d", i+1)
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("target %s has no platform triple", label),
			})
		} else if first, dup := seen[label]; dup {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("target %q declared twice (#%d and #%d)", label, first+1, i+1),
			})
		} else {
			seen[label] = i
		}

		if strings.TrimSpace(t.Command) == "" {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("target %s has no command", label),
			})
			continue
		}

		if strings.TrimSpace(t.Kind) == "" {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("target %s has no kind; %q is treated as %s", label, t.Command, InferKind(t.Command)),
			})
		} else if _, err := build.ParseKind(t.Kind); err != nil {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("target %s: %v", label, err),
			})
		}
	}
	return results
}

func (c Config) validateArgs() []ValidationResult {
	var results []ValidationResult
	check := func(scope string, args map[string]string) {
		templates, err := parseArgTemplates(args)
		if err != nil {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("%s: %v", scope, err),
			})
			return
		}
		for action, tmpl := range templates {
			if _, err := ExpandArgs(tmpl, "", action, nil); err != nil {
				results = append(results, ValidationResult{
					Level:   "error",
					Message: fmt.Sprintf("%s.%s: %v", scope, action, err),
				})
			}
		}
	}

	check("args", c.Args)
	for i, t := range c.Targets {
		label := t.Target
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		check(fmt.Sprintf("target %s args", label), t.Args)
	}
	return results
}
