package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `version: 1
installer:
  command: /opt/rustup/bin/rustup
auto_install: false
env:
  RUSTFLAGS: -Dwarnings
args:
  build: build --release --target $TARGET
targets:
  - target: x86_64-unknown-linux-gnu
    command: cargo
    kind: toolchain
  - target: aarch64-unknown-linux-gnu
    command: cross
    env:
      CROSS_CONTAINER_ENGINE: podman
`

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "cargowrap.yaml"), nil)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Installer.Command, cfg.Installer.Command)
	assert.Equal(t, def.Installer.ListArgs, cfg.Installer.ListArgs)
	assert.True(t, cfg.AutoInstall)
	assert.True(t, cfg.InheritEnv)
	assert.Equal(t, ".", cfg.Crate)
	assert.Equal(t, "target", cfg.OutputDir)
	assert.Empty(t, cfg.Targets)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cargowrap.yaml")
	writeFile(t, path, sampleConfig)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "/opt/rustup/bin/rustup", cfg.Installer.Command)
	assert.Equal(t, []string{"target", "add"}, cfg.Installer.AddArgs)
	assert.False(t, cfg.AutoInstall)
	assert.Equal(t, "-Dwarnings", cfg.Env["RUSTFLAGS"])
	assert.Equal(t, "build --release --target $TARGET", cfg.Args["build"])
	require.Len(t, cfg.Targets, 2)
	assert.Equal(t, "x86_64-unknown-linux-gnu", cfg.Targets[0].Target)
	assert.Equal(t, "toolchain", cfg.Targets[0].Kind)
	assert.Equal(t, "cross", cfg.Targets[1].Command)
	assert.Equal(t, "podman", cfg.Targets[1].Env["CROSS_CONTAINER_ENGINE"])
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cargowrap.yaml")
	writeFile(t, path, sampleConfig)
	t.Setenv("CARGOWRAP_AUTO_INSTALL", "true")
	t.Setenv("CARGOWRAP_INSTALLER__COMMAND", "rustup-nightly")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.True(t, cfg.AutoInstall)
	assert.Equal(t, "rustup-nightly", cfg.Installer.Command)
}

func TestLoadFlagOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cargowrap.yaml")
	writeFile(t, path, sampleConfig)
	t.Setenv("CARGOWRAP_INSTALLER__COMMAND", "rustup-nightly")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("auto-install", false, "")
	flags.String("installer", "", "")
	flags.Bool("inherit-env", true, "")
	require.NoError(t, flags.Parse([]string{"--installer", "/usr/local/bin/rustup"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/rustup", cfg.Installer.Command)
	assert.False(t, cfg.AutoInstall, "unset flags must not override the file")
	assert.True(t, cfg.InheritEnv)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cargowrap.yaml")
	writeFile(t, path, "targets: [\n")

	_, err := Load(path, nil)
	require.Error(t, err)
}

func TestMarshalDefault(t *testing.T) {
	cfg := Default()
	cfg.Targets = []TargetConfig{{Target: "x86_64-unknown-linux-gnu", Command: "cargo", Kind: "toolchain"}}

	data, err := cfg.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cargowrap.yaml")
	writeFile(t, path, string(data))
	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.Targets, loaded.Targets)
	assert.Equal(t, cfg.Installer.Command, loaded.Installer.Command)
}
