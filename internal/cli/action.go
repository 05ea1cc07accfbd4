package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"cargowrap/internal/build"
	"cargowrap/internal/engine"
	"cargowrap/internal/runner"
	"cargowrap/internal/toolchain"
	"cargowrap/internal/tui"
)

var (
	actionTargets []string
	actionDryRun  bool
)

func newActionCmd(action build.Action) *cobra.Command {
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s [-- extra args]", action),
		Short: fmt.Sprintf("Run cargo %s for every configured target", action),
		Long: fmt.Sprintf(`Runs the %s command of every configured target in declaration order and
stops at the first failure. Arguments after "--" are appended to each
target's command line.`, action),
		Args: passthroughArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, action, args)
		},
	}

	cmd.Flags().StringSliceVarP(&actionTargets, "target", "t", nil, "Only run the named target triples (repeatable)")
	cmd.Flags().BoolVar(&actionDryRun, "dry-run", false, "Print the commands without running anything")

	return cmd
}

// passthroughArgs only accepts arguments after "--".
func passthroughArgs(cmd *cobra.Command, args []string) error {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 && len(args) > 0 {
		return fmt.Errorf("unexpected argument %q (pass extra cargo arguments after --)", args[0])
	}
	if dash > 0 {
		return fmt.Errorf("unexpected argument %q (pass extra cargo arguments after --)", args[0])
	}
	return nil
}

type actionOutput struct {
	Action   build.Action          `json:"action"`
	DryRun   bool                  `json:"dry_run"`
	Plan     []toolchain.PlanEntry `json:"toolchain,omitempty"`
	Results  []engine.Result       `json:"results"`
	Error    string                `json:"error,omitempty"`
	ExitCode int                   `json:"exit_code,omitempty"`
	Log      string                `json:"log"`
}

func runAction(cmd *cobra.Command, action build.Action, extra []string) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	mode := tui.DetectMode(stdout, noProgress, outputJSON)

	var console io.Writer = stderr
	if mode == tui.ModeTUI {
		console = nil
	}
	proj, err := openProject(cmd, string(action), console)
	if err != nil {
		return err
	}
	defer proj.Close()

	cfg, err := proj.Build.Select(actionTargets)
	if err != nil {
		return err
	}

	r := runner.CmdRunner{}
	mgr := toolchain.NewManager(r, proj.Logger)
	eng := engine.New(r, mgr, proj.Logger)
	eng.ExtraArgs = extra
	eng.DryRun = actionDryRun

	if actionDryRun {
		return runDryRun(cmd, proj, eng, mgr, action, cfg)
	}

	switch mode {
	case tui.ModeJSON:
		// stdout carries the JSON document, so child output goes to stderr.
		eng.Stdout, eng.Stderr, mgr.Output = stderr, stderr, stderr
		summary, runErr := eng.Run(cmd.Context(), action, cfg)
		out := actionOutput{Action: action, Results: summary.Results, Log: proj.session.Path}
		if runErr != nil {
			out.Error = runErr.Error()
			out.ExitCode = exitCode(runErr)
		}
		if err := writeJSON(stdout, out); err != nil {
			return err
		}
		return runErr

	case tui.ModeTUI:
		return runActionTUI(cmd, proj, eng, mgr, action, cfg)

	default:
		eng.Stdout, eng.Stderr, mgr.Output = stdout, stderr, stderr
		summary, runErr := eng.Run(cmd.Context(), action, cfg)
		if len(summary.Results) > 0 {
			fmt.Fprintln(stdout)
			writeSummaryTable(stdout, summary)
		}
		return runErr
	}
}

func runActionTUI(cmd *cobra.Command, proj *projectContext, eng *engine.Engine, mgr *toolchain.Manager, action build.Action, cfg build.Config) error {
	logOut := proj.LogWriter()
	eng.Stdout, eng.Stderr, mgr.Output = logOut, logOut, logOut

	if len(cfg.Targets) == 0 {
		_, err := eng.Run(cmd.Context(), action, cfg)
		fmt.Fprintln(cmd.ErrOrStderr(), "No targets configured; nothing to do.")
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// The first ctrl+c interrupts the running child; a second one quits the
	// display and kills it.
	abort := make(chan struct{})
	r := runner.CmdRunner{Abort: abort}
	eng.Runner, mgr.Runner = r, r

	title := fmt.Sprintf("cargowrap %s (%d targets)", action, len(cfg.Targets))
	model := tui.NewTargetModel(title, eng.Plan(action, cfg))
	model.OnInterrupt(cancel)
	model.OnAbort(func() {
		cancel()
		close(abort)
	})

	var summary engine.Summary
	err := tui.RunWithWork(cmd.OutOrStdout(), model, func(send func(tea.Msg)) error {
		eng.Reporter = tui.NewEngineReporter(send)
		if cfg.AutoInstall {
			send(tui.FooterMsg{Text: "Checking toolchains"})
		}
		var err error
		summary, err = eng.Run(ctx, action, cfg)
		return err
	})

	stderr := cmd.ErrOrStderr()
	if failed, ok := summary.Failed(); ok && len(failed.Stderr) > 0 {
		fmt.Fprintf(stderr, "\n%s stderr (last lines):\n%s\n", failed.Target, tailLines(failed.Stderr, 20))
	}
	if err != nil {
		fmt.Fprintf(stderr, "Full output: %s\n", proj.session.Path)
	}
	return err
}

func runDryRun(cmd *cobra.Command, proj *projectContext, eng *engine.Engine, mgr *toolchain.Manager, action build.Action, cfg build.Config) error {
	out := cmd.OutOrStdout()

	var plan []toolchain.PlanEntry
	if cfg.AutoInstall && len(cfg.Targets) > 0 {
		var err error
		plan, err = mgr.Plan(cmd.Context(), cfg)
		if err != nil {
			proj.Logger.Warn().Err(err).Msg("could not query installed toolchains")
		}
	}

	summary, err := eng.Run(cmd.Context(), action, cfg)
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(out, actionOutput{
			Action:  action,
			DryRun:  true,
			Plan:    plan,
			Results: summary.Results,
			Log:     proj.session.Path,
		})
	}

	for _, entry := range plan {
		if entry.WillInstall() {
			fmt.Fprintf(out, "would install %s: %s %s\n", entry.Triple, cfg.InstallerCommand,
				strings.Join(append(append([]string(nil), cfg.InstallerAddArgs...), entry.Triple), " "))
		}
	}
	for _, step := range eng.Plan(action, cfg) {
		fmt.Fprintf(out, "would run %s: %s\n", step.Target.Triple, step.CommandLine)
	}
	fmt.Fprintf(out, "\n%s (dry run): %d targets\n", action, len(summary.Results))
	return nil
}

func writeSummaryTable(out io.Writer, summary engine.Summary) {
	t := newTable(out, "TARGET", "STATUS", "EXIT", "TIME")
	for _, res := range summary.Results {
		exit := "-"
		if res.Status == engine.StatusSucceeded || res.Status == engine.StatusFailed {
			exit = fmt.Sprintf("%d", res.ExitCode)
		}
		elapsed := "-"
		if res.Duration > 0 {
			elapsed = tui.FormatElapsed(res.Duration)
		}
		t.AppendRow([]any{res.Target, res.Status, exit, elapsed})
	}
	t.Render()
}
