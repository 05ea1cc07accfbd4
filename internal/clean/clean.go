// Package clean removes build output directories without invoking any
// toolchain.
package clean

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"cargowrap/internal/build"
)

type Options struct {
	DryRun bool
	Logger zerolog.Logger
}

// Entry describes one output directory.
type Entry struct {
	Path    string `json:"path"`
	Existed bool   `json:"existed"`
	Bytes   int64  `json:"bytes"`
	Removed bool   `json:"removed"`
}

type Result struct {
	Entries    []Entry `json:"entries"`
	FreedBytes int64   `json:"freed_bytes"`
	DryRun     bool    `json:"dry_run"`
}

// Removed returns how many directories were (or would be) removed.
func (r Result) Removed() int {
	n := 0
	for _, e := range r.Entries {
		if e.Removed {
			n++
		}
	}
	return n
}

// Dirs returns the output directories clean operates on, in removal order.
func Dirs(cfg build.Config) []string {
	var dirs []string
	seen := map[string]bool{}
	for _, dir := range []string{cfg.OutputDir, cfg.HostBuildDir} {
		if dir == "" {
			continue
		}
		dir = filepath.Clean(dir)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	return dirs
}

// Run deletes the configured output directories. Missing directories are
// not an error.
func Run(ctx context.Context, cfg build.Config, opts Options) (Result, error) {
	result := Result{DryRun: opts.DryRun}
	for _, dir := range Dirs(cfg) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := checkRemovable(cfg.ProjectRoot, dir); err != nil {
			return result, &build.Error{Kind: build.ErrCleanup, Path: dir, Err: err}
		}

		entry, err := removeDir(dir, opts.DryRun)
		result.Entries = append(result.Entries, entry)
		if err != nil {
			return result, &build.Error{Kind: build.ErrCleanup, Path: dir, Err: err}
		}
		if !entry.Existed {
			opts.Logger.Debug().Str("path", dir).Msg("output directory absent")
			continue
		}
		result.FreedBytes += entry.Bytes
		opts.Logger.Info().
			Str("path", dir).
			Int64("bytes", entry.Bytes).
			Bool("dry_run", opts.DryRun).
			Msg("removed output directory")
	}
	return result, nil
}

func removeDir(dir string, dryRun bool) (Entry, error) {
	entry := Entry{Path: dir}
	info, err := os.Lstat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return entry, nil
	}
	if err != nil {
		return entry, err
	}
	entry.Existed = true
	if info.IsDir() {
		entry.Bytes = dirSize(dir)
	} else {
		entry.Bytes = info.Size()
	}

	if dryRun {
		entry.Removed = true
		return entry, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return entry, err
	}
	entry.Removed = true
	return entry, nil
}

func dirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}

// checkRemovable refuses paths whose removal would take the project root or
// the filesystem root with it.
func checkRemovable(root, dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if filepath.Dir(abs) == abs {
		return errors.New("refusing to remove filesystem root")
	}
	if root == "" {
		return nil
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(abs, rootAbs)
	if err != nil {
		return nil
	}
	if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return errors.New("refusing to remove the project root or one of its parents")
	}
	return nil
}
