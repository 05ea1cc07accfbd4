package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cargowrap/internal/clean"
)

var cleanDryRun bool

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove build output directories",
		Long: `Removes the crate's output directory and the host build directory. No
toolchain is queried or invoked, so clean works even when rustup is absent.`,
		Args: cobra.NoArgs,
		RunE: runClean,
	}

	cmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "List what would be removed without deleting")

	return cmd
}

func runClean(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	var console io.Writer = cmd.ErrOrStderr()
	proj, err := openProject(cmd, "clean", console)
	if err != nil {
		return err
	}
	defer proj.Close()

	result, err := clean.Run(cmd.Context(), proj.Build, clean.Options{
		DryRun: cleanDryRun,
		Logger: proj.Logger,
	})
	if outputJSON {
		if jsonErr := writeJSON(out, result); jsonErr != nil {
			return jsonErr
		}
		return err
	}

	for _, entry := range result.Entries {
		switch {
		case !entry.Existed:
			fmt.Fprintf(out, "absent %s\n", entry.Path)
		case cleanDryRun:
			fmt.Fprintf(out, "would remove %s (%s)\n", entry.Path, formatSize(entry.Bytes))
		case entry.Removed:
			fmt.Fprintf(out, "removed %s (%s)\n", entry.Path, formatSize(entry.Bytes))
		}
	}
	if err != nil {
		return err
	}

	label := "complete"
	if cleanDryRun {
		label = "(dry run)"
	}
	fmt.Fprintf(out, "\nClean %s: %d removed, %s freed\n", label, result.Removed(), formatSize(result.FreedBytes))
	return nil
}
