package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCommand(get func() *Container) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <plugin>",
		Short: "Print the concrete version the manifest pins a plugin to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := get().Resolver.ResolveVersion(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}
