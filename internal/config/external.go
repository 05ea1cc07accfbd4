package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"cargowrap/internal/build"
)

// resolveExternalPath returns path as-is if absolute, otherwise joins it with baseDir.
func resolveExternalPath(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// loadTargetFiles appends the targets listed in each of TargetFiles, in
// order, after the inline targets. A triple declared in two places is
// reported with both sources.
func (c *Config) loadTargetFiles(baseDir string) error {
	if len(c.TargetFiles) == 0 {
		return nil
	}

	sources := make(map[string]string, len(c.Targets))
	for _, t := range c.Targets {
		sources[t.Target] = "inline config"
	}

	for _, relPath := range c.TargetFiles {
		data, err := os.ReadFile(resolveExternalPath(baseDir, relPath))
		if err != nil {
			return fmt.Errorf("load target file %q: %w", relPath, err)
		}

		var targets []TargetConfig
		if err := yaml.Unmarshal(data, &targets); err != nil {
			return fmt.Errorf("parse target file %q: %w", relPath, err)
		}

		for _, t := range targets {
			if existing, ok := sources[t.Target]; ok {
				return &build.Error{
					Kind:   build.ErrDuplicateTarget,
					Target: t.Target,
					Err:    fmt.Errorf("defined in both %s and %q", existing, relPath),
				}
			}
			sources[t.Target] = relPath
			c.Targets = append(c.Targets, t)
		}
	}

	c.TargetFiles = nil
	return nil
}
