package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newListCommand(get func() *Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List managed plugins and their versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container := get()
			records, err := container.Metadata.All()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), styleMuted.Render("No managed plugins yet. Declare some and run 'plugmate install'."))
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Plugin", "Current", "Latest", "Locked", "Last checked"})
			for _, r := range records {
				locked := ""
				if r.Locked {
					locked = "yes"
				}
				t.AppendRow(table.Row{
					r.Name,
					r.Current.Raw,
					r.Latest.Raw,
					locked,
					r.LastCheckedAt.Format("2006-01-02 15:04"),
				})
			}
			t.Render()
			return nil
		},
	}
}
