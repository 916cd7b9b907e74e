package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rtzll/vidchat/internal"
)

var (
	config     *internal.Config
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vidchat [YouTube URL or ID]",
	Short: "Chat with YouTube videos",
	Long: `vidchat lets you ask questions about a YouTube video.

The backend transcribes the video once, then answers your questions
grounded in the transcript. Conversations are kept on the backend and can
be resumed, exported or copied later.

Run without arguments to be asked for a video URL.`,
	Example: `  # Start chatting about a video
  vidchat "https://www.youtube.com/watch?v=tAP1eZYEuKA"
  vidchat tAP1eZYEuKA

  # Ask the backend to answer with OpenAI instead of Claude
  vidchat tAP1eZYEuKA --provider openai

  # Answer locally with your own OpenAI key
  vidchat tAP1eZYEuKA --direct --model gpt-4o`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return internal.HandleVerboseFlag(cmd, config)
	},
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := ""
		if len(args) == 1 {
			arg = args[0]
		}

		if arg != "" && internal.IsLikelyCommand(arg) {
			var suggestions []string
			for _, c := range cmd.Commands() {
				name := c.Name()
				if strings.Contains(name, arg) || (len(arg) <= len(name) && strings.HasPrefix(name, arg[:1])) {
					suggestions = append(suggestions, name)
				}
			}

			if len(suggestions) > 0 {
				return fmt.Errorf("'%s' doesn't look like a YouTube URL or video ID. Did you mean: %s?", arg, strings.Join(suggestions, ", "))
			}
			return fmt.Errorf("'%s' doesn't look like a YouTube URL or video ID. Use --help to see available commands", arg)
		}

		return runChat(cmd, arg, "")
	},
}

// interrupts is shared with the interactive chat so a signal can cancel
// a single request
var interrupts = internal.NewInterrupter()

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// In the chat a signal cancels only the request in flight; a second one
	// before it returns exits. Elsewhere the first signal cancels everything.
	go func() {
		for range sigCh {
			cancelled, repeated := interrupts.Interrupt()
			if cancelled {
				fmt.Fprintln(os.Stderr, "\nRequest cancelled (press Ctrl+C again to exit)")
				continue
			}
			if repeated {
				os.Exit(130)
			}
			break
		}
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal. Shutting down...")
		cancel()
		<-sigCh
		os.Exit(130)
	}()

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	if err != nil && internal.IsUnauthorized(err) {
		fmt.Fprintln(os.Stderr, internal.ErrorBanner("Your session has expired - run 'vidchat login' again"))
	}
	return err
}

// initConfig loads configuration once flags are parsed, so --config applies
func initConfig() {
	config = internal.InitConfig(configFile)

	if err := internal.EnsureDirs(config.ConfigDir, config.DataDir, config.CacheDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating XDG directories: %v\n", err)
		os.Exit(1)
	}

	if err := internal.EnsureDefaultConfig(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default config: %v\n", err)
	}

	if err := internal.EnsureDefaultPrompt(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default prompt: %v\n", err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	internal.AddChatFlags(rootCmd)
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress spinners and status messages")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default is $XDG_CONFIG_HOME/vidchat/config.toml)")
}
