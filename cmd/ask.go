package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/rtzll/vidchat/internal"
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [YouTube URL or ID] [question]",
	Short: "Ask a single question about a video",
	Long: `Load a video's transcript, ask one question and print the answer.

The conversation is kept and can be continued with 'vidchat chat --resume'.`,
	Example: `  vidchat ask tAP1eZYEuKA "What are the main arguments?"

  # Follow up in an existing chat instead of loading the video again
  vidchat ask --chat 3f6c1a52-0d0e-4d55-9b8e-6d1e3f1b7a90 "And the counterpoints?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := internal.HandleChatFlags(cmd, config); err != nil {
			return err
		}

		chatID, _ := cmd.Flags().GetString("chat")
		if chatID == "" && len(args) < 2 {
			return fmt.Errorf("requires a video and a question")
		}

		app := internal.NewApp(config)
		defer app.Close()
		ctrl := app.NewController()

		var question string
		if chatID != "" {
			if _, err := app.ResumeChat(cmd.Context(), ctrl, chatID); err != nil {
				return err
			}
			question = strings.Join(args, " ")
		} else {
			state, err := app.StartChat(cmd.Context(), ctrl, args[0])
			if err != nil {
				return err
			}
			if !state.ChatStarted() {
				return fmt.Errorf("%s", state.LastError)
			}
			question = strings.Join(args[1:], " ")
		}

		state, err := app.Ask(cmd.Context(), ctrl, question)
		if err != nil {
			return err
		}
		if state.LastError != "" {
			return fmt.Errorf("%s", state.LastError)
		}

		reply, _ := state.LastMessage()
		output := reply.Text
		if isatty.IsTerminal(os.Stdout.Fd()) {
			if rendered, err := internal.RenderMarkdown(reply.Text); err == nil {
				output = rendered
			}
		}
		fmt.Println(strings.TrimRight(output, "\n"))

		app.UI().Verbose("Chat ID: %s\n", state.ChatID)
		return nil
	},
}

func init() {
	internal.AddChatFlags(askCmd)
	askCmd.Flags().String("chat", "", "Ask within an existing chat instead of loading a video")
	rootCmd.AddCommand(askCmd)
}
