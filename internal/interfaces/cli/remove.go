package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCommand(get func() *Container) *cobra.Command {
	var keepFile bool

	cmd := &cobra.Command{
		Use:   "remove <plugin>",
		Short: "Remove a plugin from management",
		Long: `Delete a plugin's metadata record and manifest entry. The binary is
deleted too unless --keep-file is set. Removal is refused while other
installed plugins depend on the plugin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().Manager.Remove(cmd.Context(), args[0], keepFile); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Removed "+args[0]+" from management.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepFile, "keep-file", false, "Keep the plugin binary on disk")
	return cmd
}
