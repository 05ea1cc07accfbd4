package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"cargowrap/internal/config"
	"cargowrap/internal/logx"
	"cargowrap/internal/paths"
)

var initTargets []string

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter cargowrap.yaml next to Cargo.toml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}

	cmd.Flags().StringSliceVarP(&initTargets, "target", "t", nil, "Additional target triples to declare")

	return cmd
}

func resolveInitDir(projectFlag string, args []string) (string, error) {
	if len(args) > 0 {
		return filepath.Abs(args[0])
	}
	if projectFlag != "" {
		return filepath.Abs(projectFlag)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return cwd, nil
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := resolveInitDir(projectDir, args)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}

	// An explicit config path keeps Resolve from walking up to an enclosing
	// project.
	pp, err := paths.Resolve("", filepath.Join(dir, paths.ConfigFileName))
	if err != nil {
		return err
	}

	session, err := logx.New(pp, logx.Options{
		Command: "init",
		Console: cmd.ErrOrStderr(),
		Level:   logx.Level(verbose, quiet),
	})
	if err != nil {
		return err
	}
	defer session.Close()
	logger := session.Logger

	exists, err := paths.FileExists(pp.ConfigFile)
	if err != nil {
		return fmt.Errorf("check config: %w", err)
	}
	if exists {
		logger.Debug().Str("path", pp.ConfigFile).Msg("config exists")
		cmd.Printf("Project already initialized at %s\n", pp.Root)
		return nil
	}

	cfg := starterConfig(hostTriple(runtime.GOOS, runtime.GOARCH), initTargets)
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(pp.ConfigFile, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	logger.Info().Str("path", pp.ConfigFile).Int("targets", len(cfg.Targets)).Msg("created config")

	if ok, _ := paths.FileExists(filepath.Join(dir, "Cargo.toml")); !ok {
		logger.Warn().Str("dir", dir).Msg("no Cargo.toml here; set crate in cargowrap.yaml")
	}

	cmd.Printf("Initialized project at %s\n", pp.Root)
	cmd.Printf("  created %s\n", paths.ConfigFileName)
	return nil
}

// starterConfig declares host (when known) followed by extra, without
// duplicates.
func starterConfig(host string, extra []string) config.Config {
	cfg := config.Default()
	cfg.Crate = "."
	seen := map[string]bool{}
	for _, triple := range append([]string{host}, extra...) {
		if triple == "" || seen[triple] {
			continue
		}
		seen[triple] = true
		cfg.Targets = append(cfg.Targets, config.TargetConfig{
			Target:  triple,
			Command: "cargo",
			Kind:    "toolchain",
		})
	}
	return cfg
}

// hostTriple maps GOOS/GOARCH onto the Rust target triple of the usual host
// toolchain. Unknown combinations return "".
func hostTriple(goos, goarch string) string {
	arch, ok := map[string]string{
		"amd64":   "x86_64",
		"arm64":   "aarch64",
		"386":     "i686",
		"riscv64": "riscv64gc",
	}[goarch]
	if !ok {
		return ""
	}
	switch goos {
	case "linux":
		return arch + "-unknown-linux-gnu"
	case "darwin":
		return arch + "-apple-darwin"
	case "windows":
		return arch + "-pc-windows-msvc"
	case "freebsd":
		return arch + "-unknown-freebsd"
	default:
		return ""
	}
}
