package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messages(results []ValidationResult, level string) []string {
	var out []string
	for _, r := range results {
		if r.Level == level {
			out = append(out, r.Message)
		}
	}
	return out
}

func containsMessage(msgs []string, substr string) bool {
	for _, m := range msgs {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func TestValidateStrictClean(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\n"), 0o644))

	cfg := Default()
	cfg.ApplyDefaults()
	cfg.Targets = []TargetConfig{{Target: "x86_64-unknown-linux-gnu", Command: "cargo", Kind: "toolchain"}}

	results := cfg.ValidateStrict(dir)
	assert.Empty(t, results)
	assert.False(t, HasErrors(results))
}

func TestValidateStrictFindings(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.ApplyDefaults()
	cfg.TargetFiles = []string{"missing.yaml"}
	cfg.Args = map[string]string{"clean": "clean"}
	cfg.Targets = []TargetConfig{
		{Target: "x86_64-unknown-linux-gnu", Command: "cargo"},
		{Target: "x86_64-unknown-linux-gnu", Command: "cargo", Kind: "toolchain"},
		{Target: "", Command: "cargo", Kind: "toolchain"},
		{Target: "wasm32-wasip1", Command: "", Kind: "toolchain"},
		{Target: "aarch64-apple-darwin", Command: "cargo", Kind: "bogus"},
		{Target: "riscv64gc-unknown-linux-gnu", Command: "cargo", Kind: "toolchain", Args: map[string]string{"build": `build "oops`}},
	}

	results := cfg.ValidateStrict(dir)
	require.True(t, HasErrors(results))

	errs := messages(results, "error")
	assert.True(t, containsMessage(errs, `target file "missing.yaml" not found`))
	assert.True(t, containsMessage(errs, "declared twice"))
	assert.True(t, containsMessage(errs, "has no platform triple"))
	assert.True(t, containsMessage(errs, "has no command"))
	assert.True(t, containsMessage(errs, "unknown target kind"))
	assert.True(t, containsMessage(errs, "clean does not take arguments"))
	assert.True(t, containsMessage(errs, "riscv64gc-unknown-linux-gnu args.build"))

	warnings := messages(results, "warning")
	assert.True(t, containsMessage(warnings, "no Cargo.toml"))
	assert.True(t, containsMessage(warnings, "has no kind"))
}

func TestValidateStrictMissingCrate(t *testing.T) {
	cfg := Default()
	cfg.Crate = "does-not-exist"

	results := cfg.ValidateStrict(t.TempDir())
	assert.True(t, containsMessage(messages(results, "error"), "crate directory"))
	assert.True(t, containsMessage(messages(results, "warning"), "no targets configured"))
}
