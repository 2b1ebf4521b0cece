package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scanbill/scanbill/internal/version"
)

// versionCmd prints build information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd)
	},
}

func printVersion(cmd *cobra.Command) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "scanbill version %s\n", version.Version)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", version.GitCommit)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", version.BuildDate)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
