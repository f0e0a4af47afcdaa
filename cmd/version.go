package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brown-library/bdr-scripts/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display version, build time, and commit information for bdr-scripts.`,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Version:    %s\n", version.Version())
		fmt.Fprintf(out, "Commit:     %s\n", version.Commit())
		fmt.Fprintf(out, "Built:      %s\n", version.BuildTime())
		fmt.Fprintf(out, "Identifier: %s\n", version.Identifier())
	},
}
