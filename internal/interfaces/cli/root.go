package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plugmate/plugmate/internal/config"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// NewRootCommand builds the plugmate command tree. The container is
// constructed in PersistentPreRunE once the config flag is known.
func NewRootCommand() *cobra.Command {
	var (
		configPath string
		verbose    bool
		container  *Container
	)

	rootCmd := &cobra.Command{
		Use:   "plugmate",
		Short: "plugmate - declarative plugin manager for game servers",
		Long: `plugmate keeps a game server's plugins consistent with a declarative
manifest. It resolves version constraints (fixed, latest, tag, pattern or
sync-to-another-plugin), orders installs so sync targets go first, fetches
artifacts from the configured catalogs and tracks every install in a
per-plugin metadata record.`,
		Version:       fmt.Sprintf("%s (built: %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			container = NewContainer(cfg, verbose)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default plugmate.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	get := func() *Container { return container }
	rootCmd.AddCommand(newInstallCommand(get))
	rootCmd.AddCommand(newListCommand(get))
	rootCmd.AddCommand(newResolveCommand(get))
	rootCmd.AddCommand(newTreeCommand(get))
	rootCmd.AddCommand(newDepsCommand(get))
	rootCmd.AddCommand(newLockCommands(get)...)
	rootCmd.AddCommand(newAddCommand(get))
	rootCmd.AddCommand(newRemoveCommand(get))
	rootCmd.AddCommand(newCatalogsCommand(get))

	return rootCmd
}
