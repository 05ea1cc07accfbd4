package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cargowrap/internal/runner"
	"cargowrap/internal/toolchain"
	"cargowrap/internal/tui"
)

var toolchainTargets []string

func newToolchainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toolchain",
		Short: "Inspect and install the rustup targets the project needs",
	}

	cmd.PersistentFlags().StringSliceVarP(&toolchainTargets, "target", "t", nil, "Only consider the named target triples")

	cmd.AddCommand(newToolchainListCmd())
	cmd.AddCommand(newToolchainInstallCmd())

	return cmd
}

func newToolchainListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show which configured targets are installed",
		Args:  cobra.NoArgs,
		RunE:  runToolchainList,
	}
}

func runToolchainList(cmd *cobra.Command, _ []string) error {
	proj, err := openProject(cmd, "toolchain", cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer proj.Close()

	cfg, err := proj.Build.Select(toolchainTargets)
	if err != nil {
		return err
	}

	mgr := toolchain.NewManager(runner.CmdRunner{}, proj.Logger)
	plan, err := mgr.Plan(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), plan)
	}
	printToolchainPlan(cmd, plan)
	return nil
}

func newToolchainInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install every missing toolchain target",
		Long: `Installs missing targets through the installer regardless of the
auto_install setting. Wrapper targets are never installed.`,
		Args: cobra.NoArgs,
		RunE: runToolchainInstall,
	}
}

func runToolchainInstall(cmd *cobra.Command, _ []string) error {
	proj, err := openProject(cmd, "toolchain", cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer proj.Close()

	cfg, err := proj.Build.Select(toolchainTargets)
	if err != nil {
		return err
	}

	mgr := toolchain.NewManager(runner.CmdRunner{}, proj.Logger)
	mgr.Output = proj.LogWriter()

	var sw *tui.StatusWriter
	if !outputJSON && tui.IsTerminal(cmd.ErrOrStderr()) {
		sw = tui.NewStatusWriter(cmd.ErrOrStderr())
		sw.Update(fmt.Sprintf("Installing targets with %s", cfg.InstallerCommand))
	}
	installed, err := mgr.InstallMissing(cmd.Context(), cfg)
	if sw != nil {
		sw.Stop()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		if installed == nil {
			installed = []string{}
		}
		return writeJSON(out, map[string]any{"installed": installed})
	}
	if len(installed) == 0 {
		fmt.Fprintln(out, "All toolchain targets are already installed.")
		return nil
	}
	fmt.Fprintf(out, "Installed %d target(s): %s\n", len(installed), joinComma(installed))
	return nil
}

func printToolchainPlan(cmd *cobra.Command, plan []toolchain.PlanEntry) {
	if len(plan) == 0 {
		cmd.Println("(no targets configured)")
		return
	}

	t := newTable(cmd.OutOrStdout(), "TARGET", "KIND", "STATE")
	for _, entry := range plan {
		state := string(entry.State)
		if entry.WillInstall() {
			state = strings.ToUpper(state)
		}
		t.AppendRow([]any{entry.Triple, entry.Kind, state})
	}
	t.Render()
}
