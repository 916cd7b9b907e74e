package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/vidchat/internal"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [chat ID]",
	Short: "Print or export a conversation",
	Example: `  # Print a conversation as markdown
  vidchat history 3f6c1a52-0d0e-4d55-9b8e-6d1e3f1b7a90

  # Save it as JSON
  vidchat history 3f6c1a52-0d0e-4d55-9b8e-6d1e3f1b7a90 --format json -o chat.json`,
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

		output, _ := cmd.Flags().GetString("output")
		if output == "" || output == "-" {
			fmt.Print(content)
			return nil
		}

		if err := os.WriteFile(output, []byte(content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		if !config.Quiet {
			fmt.Fprintf(os.Stderr, "Conversation written to %s\n", output)
		}
		return nil
	},
}

// exportConversation fetches chatID from the backend and renders it
func exportConversation(cmd *cobra.Command, chatID string, format internal.ExportFormat) (string, error) {
	app := internal.NewApp(config)
	defer app.Close()

	conv, err := app.Conversation(cmd.Context(), chatID)
	if err != nil {
		return "", err
	}
	return conv.Export(format)
}

func init() {
	historyCmd.Flags().StringP("format", "f", "md", "Output format (md, json, yaml, text)")
	historyCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(historyCmd)
}
