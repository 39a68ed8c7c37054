package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCommand(get func() *Container) *cobra.Command {
	var withDependencies bool

	cmd := &cobra.Command{
		Use:   "add <plugin> [specifier]",
		Short: "Declare a plugin in the manifest",
		Long: `Add a plugin to the declared manifest. The specifier defaults to
"latest"; other forms are a fixed version, "tag:<name>", "pattern:<regex>" or
"sync:<plugin>". With --with-dependencies, the plugin's repository file
dependency list is declared too.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := ""
			if len(args) > 1 {
				spec = args[1]
			}
			if err := get().Manager.Add(cmd.Context(), args[0], spec, withDependencies); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Added "+args[0]+"; run 'plugmate install' to install it.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&withDependencies, "with-dependencies", false, "Also declare the plugin's dependencies")
	return cmd
}
