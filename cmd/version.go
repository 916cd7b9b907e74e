package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "dev" // overridden at build time via -ldflags
	commit  = ""
	date    = ""
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Example: `  # Show version information
  vidchat version`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vidchat v%s (commit: %s, built %s)\n", version, commit, date)
		fmt.Printf("backend: %s (provider %s)\n", config.APIURL, config.Provider)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
