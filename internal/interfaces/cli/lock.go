package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLockCommands(get func() *Container) []*cobra.Command {
	lock := &cobra.Command{
		Use:   "lock <plugin>",
		Short: "Pin a plugin so install runs leave it untouched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().Metadata.Lock(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Locked "+args[0])
			return nil
		},
	}

	unlock := &cobra.Command{
		Use:   "unlock <plugin>",
		Short: "Release a locked plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get().Metadata.Unlock(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Unlocked "+args[0])
			return nil
		},
	}

	return []*cobra.Command{lock, unlock}
}
