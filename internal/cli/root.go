package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the gitstate command tree.
func NewRootCmd(version string) *cobra.Command {
	g := &globals{version: version}

	cmd := &cobra.Command{
		Use:           "gitstate",
		Short:         "Inspect the Git state of a workspace",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.dir, "dir", ".", "Workspace directory")
	flags.StringVar(&g.home, "home", "", "Home directory used to find the global git configuration")
	flags.StringVar(&g.backend, "backend", "", "Repository backend: native or exec")
	flags.BoolVar(&g.json, "json", false, "Output as JSON")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "Log to stderr")

	cmd.AddCommand(
		newStatusCmd(g),
		newDirtyCmd(g),
		newIgnoredCmd(g),
		newBranchCmd(g),
		newRevisionCmd(g),
		newOriginCmd(g),
		newRepositoryCmd(g),
		newFlagCmd(g),
		newInfoCmd(g),
		newConfigCmd(g),
		newCacheCmd(g),
		newWatchCmd(g),
		newServeCmd(g),
	)

	return cmd
}
