package cli

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"cargowrap/internal/build"
	"cargowrap/internal/config"
	"cargowrap/internal/engine"
	"cargowrap/internal/logx"
	"cargowrap/internal/paths"
	"cargowrap/internal/runner"
	"cargowrap/internal/toolchain"
	"cargowrap/internal/tui"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check project health",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir, configPath)
	if err != nil {
		return err
	}

	var checks []healthCheck

	cfg, cfgErr := config.Load(pp.ConfigFile, cmd.Flags())
	checks = append(checks, checkConfig(pp, cfg, cfgErr))
	if cfgErr != nil {
		return writeDoctorResult(cmd, pp.Root, checks)
	}

	bcfg, err := cfg.Resolve(pp, build.HostEnv())
	if err != nil {
		checks = append(checks, healthCheck{Name: "Project", Status: "error", Summary: err.Error()})
		return writeDoctorResult(cmd, pp.Root, checks)
	}
	checks = append(checks, checkProject(bcfg))

	logger := logx.Console(logx.Options{
		Console: cmd.ErrOrStderr(),
		Level:   logx.Level(verbose, quiet),
		NoColor: !tui.IsTerminal(cmd.ErrOrStderr()),
	})
	mgr := toolchain.NewManager(runner.CmdRunner{}, logger)
	checks = append(checks, checkInstaller(cmd.Context(), mgr.Runner, bcfg, cfg.Installer.MinimumVersion))
	checks = append(checks, checkToolchains(cmd.Context(), mgr, bcfg))
	checks = append(checks, checkCommands(bcfg))

	return writeDoctorResult(cmd, pp.Root, checks)
}

func checkConfig(pp paths.ProjectPaths, cfg config.Config, cfgErr error) healthCheck {
	if cfgErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: cfgErr.Error()}
	}

	validations := cfg.ValidateStrict(filepath.Dir(pp.ConfigFile))
	var warnings, errors int
	for _, v := range validations {
		switch v.Level {
		case "warning":
			warnings++
		case "error":
			errors++
		}
	}

	summary := fmt.Sprintf("%d targets", len(cfg.Targets))
	if len(cfg.TargetFiles) > 0 {
		summary += fmt.Sprintf(", %d target files", len(cfg.TargetFiles))
	}

	if errors > 0 {
		return healthCheck{Name: "Config", Status: "error", Summary: fmt.Sprintf("%s; %d errors", summary, errors)}
	}
	if warnings > 0 {
		return healthCheck{Name: "Config", Status: "warning", Summary: fmt.Sprintf("%s; %d warnings", summary, warnings)}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: summary}
}

func checkProject(cfg build.Config) healthCheck {
	if err := engine.ValidateWorkingDir(cfg.ProjectRoot); err != nil {
		return healthCheck{Name: "Project", Status: "error", Summary: err.Error()}
	}
	return healthCheck{Name: "Project", Status: "ok", Summary: cfg.ProjectRoot}
}

func checkInstaller(ctx context.Context, r runner.Runner, cfg build.Config, minimum string) healthCheck {
	st := toolchain.CheckInstaller(ctx, r, cfg, minimum)
	if !st.OK {
		status := "error"
		if st.Version != "" {
			status = "warning"
		}
		return healthCheck{Name: "Installer", Status: status, Summary: st.Notice}
	}
	return healthCheck{Name: "Installer", Status: "ok", Summary: fmt.Sprintf("%s %s", st.Command, st.Version)}
}

func checkToolchains(ctx context.Context, mgr *toolchain.Manager, cfg build.Config) healthCheck {
	if len(cfg.Targets) == 0 {
		return healthCheck{Name: "Toolchains", Status: "warning", Summary: "no targets configured"}
	}

	plan, err := mgr.Plan(ctx, cfg)
	if err != nil {
		return healthCheck{Name: "Toolchains", Status: "error", Summary: err.Error()}
	}

	var installed, unmanaged int
	var missing []string
	for _, entry := range plan {
		switch entry.State {
		case toolchain.StateInstalled:
			installed++
		case toolchain.StateUnmanaged:
			unmanaged++
		case toolchain.StateMissing:
			missing = append(missing, entry.Triple)
		}
	}

	summary := fmt.Sprintf("%d of %d installed", installed, len(plan))
	if unmanaged > 0 {
		summary += fmt.Sprintf(", %d provided by wrappers", unmanaged)
	}
	if len(missing) == 0 {
		return healthCheck{Name: "Toolchains", Status: "ok", Summary: summary}
	}
	summary += "; missing " + joinComma(missing)
	if cfg.AutoInstall {
		summary += " (installed on next run)"
	}
	return healthCheck{Name: "Toolchains", Status: "warning", Summary: summary}
}

// checkCommands verifies every target command resolves on PATH.
func checkCommands(cfg build.Config) healthCheck {
	seen := map[string]bool{}
	var found, notFound []string
	for _, t := range cfg.Targets {
		if seen[t.Command] {
			continue
		}
		seen[t.Command] = true
		if _, err := exec.LookPath(t.Command); err != nil {
			notFound = append(notFound, t.Command)
			continue
		}
		found = append(found, t.Command)
	}
	sort.Strings(found)
	sort.Strings(notFound)

	if len(notFound) > 0 {
		return healthCheck{Name: "Commands", Status: "error", Summary: "not found: " + joinComma(notFound)}
	}
	if len(found) == 0 {
		return healthCheck{Name: "Commands", Status: "ok", Summary: "-"}
	}
	return healthCheck{Name: "Commands", Status: "ok", Summary: joinComma(found)}
}

func writeDoctorResult(cmd *cobra.Command, projectRoot string, checks []healthCheck) error {
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), checks)
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("PROJECT HEALTH:")+" "+projectRoot)

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-12s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}

	return nil
}
