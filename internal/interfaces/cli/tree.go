package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plugmate/plugmate/internal/core/domain"
)

func newTreeCommand(get func() *Container) *cobra.Command {
	var includeOptional bool

	cmd := &cobra.Command{
		Use:   "tree <plugin>",
		Short: "Render an installed plugin's dependency tree",
		Long: `Build the dependency tree from the installed binaries' own packaged
descriptors. A dependency revisited on the same branch is shown once and not
expanded further, so a dependency cycle renders as a finite tree.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := get().Analyzer.BuildTree(cmd.Context(), args[0], includeOptional)
			if err != nil {
				return err
			}
			var b strings.Builder
			renderTree(&b, root, "", true)
			fmt.Fprint(cmd.OutOrStdout(), b.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeOptional, "optional", false, "Include optional (soft) dependencies")
	return cmd
}

func renderTree(b *strings.Builder, node *domain.DependencyNode, prefix string, isRoot bool) {
	label := node.Name
	if !node.Required {
		label += styleMuted.Render(" (optional)")
	}
	if !node.Installed {
		label += styleError.Render(" (missing)")
	}
	if isRoot {
		b.WriteString(styleHeading.Render(label) + "\n")
	} else {
		b.WriteString(label + "\n")
	}

	for i, child := range node.Children {
		last := i == len(node.Children)-1
		connector, childPrefix := "├── ", prefix+"│   "
		if last {
			connector, childPrefix = "└── ", prefix+"    "
		}
		b.WriteString(prefix + connector)
		renderTree(b, child, childPrefix, false)
	}
}
