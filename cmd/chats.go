package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/vidchat/internal"
)

// chatsCmd represents the chats command
var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "List conversations",
	Long: `List conversations started from this machine, most recent first.

With --remote the backend's list for your account is shown instead.`,
	Example: `  vidchat chats
  vidchat chats --limit 5
  vidchat chats --remote`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := internal.NewApp(config)
		defer app.Close()

		if remote, _ := cmd.Flags().GetBool("remote"); remote {
			chats, err := app.Client().Chats(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing chats: %w", err)
			}
			if len(chats) == 0 {
				app.UI().Println("No chats yet")
				return nil
			}
			fmt.Println(internal.ChatsTable(chats))
			return nil
		}

		index, err := app.Index()
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		records, err := index.Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			app.UI().Println("No chats yet - start one with 'vidchat <YouTube URL>'")
			return nil
		}
		fmt.Println(internal.ChatRecordsTable(records))
		return nil
	},
}

// chatsRmCmd represents the chats rm subcommand
var chatsRmCmd = &cobra.Command{
	Use:     "rm [chat ID]...",
	Aliases: []string{"delete"},
	Short:   "Delete conversations",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := internal.NewApp(config)
		defer app.Close()

		for _, chatID := range args {
			if err := app.DeleteChat(cmd.Context(), chatID); err != nil {
				return fmt.Errorf("%s: %w", chatID, err)
			}
			app.UI().Printf("Deleted chat %s\n", chatID)
		}
		return nil
	},
}

func init() {
	chatsCmd.Flags().Bool("remote", false, "List chats stored on the backend")
	chatsCmd.Flags().IntP("limit", "n", 20, "Maximum number of local chats to show")
	chatsCmd.AddCommand(chatsRmCmd)
	rootCmd.AddCommand(chatsCmd)
}
