package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/notesearch/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "notesearch %s (commit %s, built %s)\n",
			version.Version, version.Commit, version.Date)
	},
}
