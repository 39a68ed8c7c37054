package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newDepsCommand(get func() *Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Inspect installed-plugin dependencies",
	}
	cmd.AddCommand(newDepsCheckCommand(get))
	cmd.AddCommand(newDepsReverseCommand(get))
	return cmd
}

func newDepsCheckCommand(get func() *Container) *cobra.Command {
	return &cobra.Command{
		Use:   "check [plugin]",
		Short: "Report missing required dependencies",
		Long: `Check the named plugin, or every installed plugin, for required
dependencies that are not installed. Optional (soft) dependencies are never
reported as missing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			missing, err := get().Analyzer.CheckMissing(cmd.Context(), name)
			if err != nil {
				return err
			}
			if len(missing) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render("No missing required dependencies."))
				return nil
			}

			names := make([]string, 0, len(missing))
			for n := range missing {
				names = append(names, n)
			}
			sort.Strings(names)
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), styleError.Render(
					fmt.Sprintf("%s is missing: %s", n, strings.Join(missing[n], ", "))))
			}
			return fmt.Errorf("%d plugin(s) have missing dependencies", len(missing))
		},
	}
}

func newDepsReverseCommand(get func() *Container) *cobra.Command {
	return &cobra.Command{
		Use:   "reverse <plugin>",
		Short: "List installed plugins that depend on a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dependents, err := get().Analyzer.ReverseDependencies(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(dependents) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), styleMuted.Render("Nothing depends on "+args[0]+"."))
				return nil
			}
			for _, d := range dependents {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}
}
