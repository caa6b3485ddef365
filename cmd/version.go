package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schemakit/schemakit/internal/version"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the version number of schemakit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("schemakit v%s@%s %s %s\n", version.App(), version.GitCommit, version.Platform(), version.BuildDate)
	},
}
