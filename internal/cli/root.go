package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cargowrap/internal/build"
	"cargowrap/internal/logx"
	"cargowrap/internal/runner"
	"cargowrap/internal/tui"
)

var (
	projectDir string
	configPath string
	outputJSON bool
	verbose    bool
	quiet      bool
	noProgress bool
)

// Execute runs the root cobra command and exits with the resulting status.
// A failed target's exit code is passed through.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", logx.Describe(err, verbose))
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, tui.ErrInterrupted) || errors.Is(err, runner.ErrAborted) {
		return 130
	}
	if be, ok := build.AsError(err); ok && errors.Is(err, build.ErrTargetExecution) && be.ExitCode > 0 {
		return be.ExitCode
	}
	return 1
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cargowrap",
		Short: "Build, test and run a Rust crate for several target platforms",
		Long: `cargowrap drives cargo (or a cross-compilation wrapper) once per configured
target platform, in declaration order, stopping at the first failure. Missing
rustup targets are installed before anything runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&projectDir, "project", "", "Path to project directory")
	pf.StringVar(&configPath, "config", "", "Path to cargowrap.yaml (default: search upward from the working directory)")
	pf.BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Show debug logs and full error chains")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Only show warnings and errors")
	pf.BoolVar(&noProgress, "no-progress", false, "Disable the interactive progress display")

	// Config overrides, read through the config loader.
	pf.Bool("auto-install", true, "Install missing rustup targets before running")
	pf.String("installer", "", "Toolchain installer command (default rustup)")
	pf.Bool("inherit-env", true, "Pass the calling environment to child processes")

	for _, action := range []build.Action{build.ActionBuild, build.ActionTest, build.ActionRun} {
		cmd.AddCommand(newActionCmd(action))
	}
	cmd.AddCommand(newCleanCmd())
	cmd.AddCommand(newTargetsCmd())
	cmd.AddCommand(newToolchainCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
