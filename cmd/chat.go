package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/vidchat/internal"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [YouTube URL or ID]",
	Short: "Start or resume an interactive conversation",
	Example: `  # Chat about a video
  vidchat chat tAP1eZYEuKA

  # Continue an earlier conversation
  vidchat chat --resume 3f6c1a52-0d0e-4d55-9b8e-6d1e3f1b7a90

  # Pick up the most recent local conversation
  vidchat chat --last`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := ""
		if len(args) == 1 {
			arg = args[0]
		}

		resume, _ := cmd.Flags().GetString("resume")
		last, _ := cmd.Flags().GetBool("last")
		if arg != "" && (resume != "" || last) {
			return fmt.Errorf("a video cannot be given together with --resume or --last")
		}

		if last {
			chatID, err := lastChatID(cmd)
			if err != nil {
				return err
			}
			resume = chatID
		}

		return runChat(cmd, arg, resume)
	},
}

// runChat starts the interactive REPL on videoArg, or on an existing chat
// when resumeID is set
func runChat(cmd *cobra.Command, videoArg, resumeID string) error {
	if err := internal.HandleChatFlags(cmd, config); err != nil {
		return err
	}

	app := internal.NewApp(config, internal.WithInterrupter(interrupts))
	defer app.Close()

	ctrl := app.NewController()
	if resumeID != "" {
		if _, err := app.ResumeChat(cmd.Context(), ctrl, resumeID); err != nil {
			return err
		}
	}

	repl := app.NewChatREPL(ctrl)
	defer repl.Close()

	return repl.Run(cmd.Context(), videoArg)
}

// lastChatID returns the most recently active chat in the local index
func lastChatID(cmd *cobra.Command) (string, error) {
	app := internal.NewApp(config)
	defer app.Close()

	index, err := app.Index()
	if err != nil {
		return "", err
	}
	records, err := index.Recent(cmd.Context(), 1)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", fmt.Errorf("no local conversations yet")
	}
	return records[0].ChatID, nil
}

func init() {
	internal.AddChatFlags(chatCmd)
	chatCmd.Flags().String("resume", "", "Resume the chat with this ID")
	chatCmd.Flags().Bool("last", false, "Resume the most recently active local chat")
	rootCmd.AddCommand(chatCmd)
}
