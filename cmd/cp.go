package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/rtzll/vidchat/internal"
)

// cpCmd copies a conversation to the system clipboard instead of printing to stdout.
var cpCmd = &cobra.Command{
	Use:   "cp [chat ID]",
	Short: "Copy a conversation to the clipboard",
	Example: `  # Copy a conversation as markdown
  vidchat cp 3f6c1a52-0d0e-4d55-9b8e-6d1e3f1b7a90

  # Copy as plain text
  vidchat cp 3f6c1a52-0d0e-4d55-9b8e-6d1e3f1b7a90 --format text`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatName, _ := cmd.Flags().GetString("format")
		format, err := internal.ParseExportFormat(formatName)
		if err != nil {
			return err
		}

		content, err := exportConversation(cmd, args[0], format)
		if err != nil {
			return err
		}

		if err := clipboard.WriteAll(content); err != nil {
			return fmt.Errorf("copying conversation to clipboard: %w", err)
		}

		if !config.Quiet {
			fmt.Println("Conversation copied to clipboard")
		}

		return nil
	},
}

func init() {
	cpCmd.Flags().StringP("format", "f", "md", "Format to copy (md, json, yaml, text)")
	rootCmd.AddCommand(cpCmd)
}
