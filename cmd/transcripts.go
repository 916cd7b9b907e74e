package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/vidchat/internal"
)

// transcriptsCmd represents the transcripts command
var transcriptsCmd = &cobra.Command{
	Use:   "transcripts",
	Short: "List transcripts known to the backend",
	Example: `  vidchat transcripts
  vidchat transcripts show 9a1d6c8e-2b7f-4f0e-8f4e-1c2d3e4f5a6b
  vidchat transcripts rm 9a1d6c8e-2b7f-4f0e-8f4e-1c2d3e4f5a6b`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := internal.NewApp(config)

		transcripts, err := app.Client().Transcripts(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing transcripts: %w", err)
		}
		if len(transcripts) == 0 {
			app.UI().Println("No transcripts yet")
			return nil
		}
		fmt.Println(internal.TranscriptsTable(transcripts))
		return nil
	},
}

// transcriptsShowCmd prints a transcript's text
var transcriptsShowCmd = &cobra.Command{
	Use:   "show [transcript ID]",
	Short: "Print a transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := internal.NewApp(config)

		t, err := app.Client().Transcript(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("fetching transcript: %w", err)
		}

		app.UI().Verbose("Video: %s\nLanguage: %s\n", t.VideoURL, t.Language)
		fmt.Println(t.TranscriptText)
		return nil
	},
}

// transcriptsRmCmd deletes transcripts
var transcriptsRmCmd = &cobra.Command{
	Use:     "rm [transcript ID]...",
	Aliases: []string{"delete"},
	Short:   "Delete transcripts",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := internal.NewApp(config)

		for _, id := range args {
			if err := app.Client().DeleteTranscript(cmd.Context(), id); err != nil {
				return fmt.Errorf("deleting transcript %s: %w", id, err)
			}
			app.UI().Printf("Deleted transcript %s\n", id)
		}
		return nil
	},
}

func init() {
	transcriptsCmd.AddCommand(transcriptsShowCmd, transcriptsRmCmd)
	rootCmd.AddCommand(transcriptsCmd)
}
