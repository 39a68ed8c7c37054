package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newCatalogsCommand(get func() *Container) *cobra.Command {
	return &cobra.Command{
		Use:   "catalogs",
		Short: "List configured catalog sources and their availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container := get()

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"#", "Source", "Available"})
			for i, source := range container.Repository.Sources() {
				available := "no"
				if source.IsAvailable(cmd.Context()) {
					available = "yes"
				}
				t.AppendRow(table.Row{i + 1, source.Name(), available})
			}
			t.Render()
			return nil
		},
	}
}
