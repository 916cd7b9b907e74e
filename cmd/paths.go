package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/vidchat/internal"
)

// pathsCmd represents the paths command
var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show paths used by the application",
	Example: `  # Show all application paths
  vidchat paths`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Config directory: %s\n", config.ConfigDir)
		fmt.Printf("Data directory: %s\n", config.DataDir)
		fmt.Printf("Cache directory: %s\n", config.CacheDir)
		fmt.Printf("Token file: %s\n", internal.NewTokenStore(config.DataDir).Path())
		fmt.Printf("Chat index: %s\n", config.ChatsDB())
		fmt.Printf("Input history: %s\n", config.HistoryFile())
		fmt.Printf("MCP log: %s\n", config.MCPLogFile())
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}
