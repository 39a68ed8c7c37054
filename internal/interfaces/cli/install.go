package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plugmate/plugmate/internal/core/domain"
)

func newInstallCommand(get func() *Container) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install or update every plugin the manifest declares",
		Long: `Run the bulk install/update batch over the declared manifest.

Plugins are processed in topological order so that sync targets resolve
before their dependents. Already-satisfied plugins are skipped, so re-running
after a partial failure is safe. A failed plugin never aborts the rest of the
batch; the summary reports it instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container := get()
			if watch {
				return runInstallWatch(cmd, container)
			}

			result, err := container.Installer.InstallAll(cmd.Context())
			if err != nil {
				return err
			}
			printInstallResult(cmd, result)
			if result.HasFailures() {
				return fmt.Errorf("%d plugin(s) failed", len(result.Failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Show a live status view while the batch runs")
	return cmd
}

func printInstallResult(cmd *cobra.Command, result *domain.InstallResult) {
	out := cmd.OutOrStdout()

	if len(result.Installed) == 0 && len(result.Removed) == 0 && len(result.Failed) == 0 {
		fmt.Fprintln(out, styleMuted.Render("Nothing to do; every plugin is up to date."))
		return
	}

	for _, p := range result.Installed {
		if p.OldVersion == "" {
			fmt.Fprintln(out, styleSuccess.Render(fmt.Sprintf("installed  %s %s", p.Name, p.NewVersion)))
		} else {
			fmt.Fprintln(out, styleSuccess.Render(fmt.Sprintf("updated    %s %s -> %s", p.Name, p.OldVersion, p.NewVersion)))
		}
	}
	for _, r := range result.Removed {
		fmt.Fprintln(out, styleWarning.Render(fmt.Sprintf("removed    %s (%s)", r.FileName, r.Version)))
	}
	for name, reason := range result.Failed {
		fmt.Fprintln(out, styleError.Render(fmt.Sprintf("failed     %s: %s", name, reason)))
	}

	fmt.Fprintf(out, "\n%s\n", styleHeading.Render(fmt.Sprintf(
		"%d installed, %d removed, %d failed",
		len(result.Installed), len(result.Removed), len(result.Failed))))
}
