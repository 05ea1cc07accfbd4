package clean

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargowrap/internal/build"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func testConfig(t *testing.T) build.Config {
	t.Helper()
	root := t.TempDir()
	cfg, err := build.NewConfig(build.Config{
		ProjectRoot:  root,
		HostBuildDir: filepath.Join(root, "build"),
	})
	require.NoError(t, err)
	return cfg
}

func TestRunWithoutOutputs(t *testing.T) {
	cfg := testConfig(t)

	res, err := Run(context.Background(), cfg, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.False(t, res.Entries[0].Existed)
	assert.Zero(t, res.Removed())

	// Second run has the same outcome.
	_, err = Run(context.Background(), cfg, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
}

func TestRunRemovesOutputs(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.OutputDir, "debug", "app"), 10)
	writeFile(t, filepath.Join(cfg.HostBuildDir, "libs", "app.jar"), 5)
	writeFile(t, filepath.Join(cfg.ProjectRoot, "Cargo.toml"), 1)

	res, err := Run(context.Background(), cfg, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Removed())
	assert.Equal(t, int64(15), res.FreedBytes)

	assert.NoDirExists(t, cfg.OutputDir)
	assert.NoDirExists(t, cfg.HostBuildDir)
	assert.FileExists(t, filepath.Join(cfg.ProjectRoot, "Cargo.toml"))
}

func TestRunDryRunKeepsOutputs(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.OutputDir, "debug", "app"), 10)

	res, err := Run(context.Background(), cfg, Options{DryRun: true, Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, 1, res.Removed())
	assert.Equal(t, int64(10), res.FreedBytes)
	assert.DirExists(t, cfg.OutputDir)
}

func TestRunRefusesProjectRoot(t *testing.T) {
	cfg := testConfig(t)
	cfg.HostBuildDir = cfg.ProjectRoot

	_, err := Run(context.Background(), cfg, Options{Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, build.ErrCleanup))
	assert.DirExists(t, cfg.ProjectRoot)

	cfg.HostBuildDir = filepath.Dir(cfg.ProjectRoot)
	_, err = Run(context.Background(), cfg, Options{Logger: zerolog.Nop()})
	require.Error(t, err)
}

func TestRunReportsRemovalFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("a path through a regular file reads as not found on windows")
	}
	cfg := testConfig(t)
	blocker := filepath.Join(cfg.ProjectRoot, "blocker")
	writeFile(t, blocker, 4)
	cfg.OutputDir = filepath.Join(blocker, "target")

	res, err := Run(context.Background(), cfg, Options{Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, build.ErrCleanup), err.Error())

	be, ok := build.AsError(err)
	require.True(t, ok)
	assert.Equal(t, cfg.OutputDir, be.Path)

	require.Len(t, res.Entries, 1)
	assert.Equal(t, cfg.OutputDir, res.Entries[0].Path)
	assert.False(t, res.Entries[0].Removed)
	assert.FileExists(t, blocker)
}

func TestDirsDeduplicates(t *testing.T) {
	cfg := build.Config{OutputDir: "/src/target", HostBuildDir: "/src/target/"}
	assert.Equal(t, []string{filepath.Clean("/src/target")}, Dirs(cfg))
}
