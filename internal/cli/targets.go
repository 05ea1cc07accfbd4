package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cargowrap/internal/build"
)

var targetsAction string

func newTargetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List the configured targets and their command lines",
		Args:  cobra.NoArgs,
		RunE:  runTargets,
	}

	cmd.Flags().StringVar(&targetsAction, "action", string(build.ActionBuild), "Action whose command line is shown (build, test, run)")

	return cmd
}

type targetRow struct {
	Target  string            `json:"target"`
	Kind    build.Kind        `json:"kind"`
	Command string            `json:"command"`
	Env     map[string]string `json:"env,omitempty"`
}

func runTargets(cmd *cobra.Command, _ []string) error {
	action, err := build.ParseAction(targetsAction)
	if err != nil {
		return err
	}
	if !action.UsesToolchain() {
		return fmt.Errorf("action %s has no command line", action)
	}

	proj, err := openProject(cmd, "targets", cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer proj.Close()

	cfg := proj.Build
	rows := make([]targetRow, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		rows = append(rows, targetRow{
			Target:  t.Triple,
			Kind:    t.Kind,
			Command: t.CommandLine(action),
			Env:     t.Env,
		})
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), rows)
	}
	if len(rows) == 0 {
		cmd.Println("(no targets configured)")
		return nil
	}

	t := newTable(cmd.OutOrStdout(), "TARGET", "KIND", "COMMAND", "ENV")
	for _, row := range rows {
		t.AppendRow([]any{row.Target, row.Kind, row.Command, nonEmptyOrDash(envSummary(row.Env))})
	}
	t.Render()
	return nil
}

func envSummary(env map[string]string) string {
	keys := make([]string, 0, len(env))
	for _, kv := range build.EnvList(env) {
		k, _, _ := strings.Cut(kv, "=")
		keys = append(keys, k)
	}
	return joinComma(keys)
}
