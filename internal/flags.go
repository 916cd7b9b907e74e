package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AddChatFlags adds flags controlling how chat messages are answered
func AddChatFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "LLM provider the backend answers with (claude or openai)")
	cmd.Flags().Bool("direct", false, "Answer with your own OpenAI key instead of the backend's LLM")
	cmd.Flags().StringP("model", "m", "", "OpenAI model for direct answers")
	cmd.Flags().StringP("prompt", "p", "", "Custom system prompt for direct answers (string or file path)")
}

// HandleChatFlags applies the chat flags to config
func HandleChatFlags(cmd *cobra.Command, config *Config) error {
	if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
		if err := ValidateProvider(provider); err != nil {
			return err
		}
		config.Provider = provider
	} else if err := ValidateProvider(config.Provider); err != nil {
		return fmt.Errorf("invalid provider in config: %w", err)
	}

	if cmd.Flags().Changed("direct") {
		direct, err := cmd.Flags().GetBool("direct")
		if err != nil {
			return fmt.Errorf("failed to get direct flag: %w", err)
		}
		config.Direct = direct
	}

	if prompt, _ := cmd.Flags().GetString("prompt"); prompt != "" {
		config.Prompt = prompt
		if config.Verbose {
			if IsLikelyFilePath(prompt) && FileExists(prompt) {
				fmt.Printf("Using custom prompt file: %s\n", prompt)
			} else {
				fmt.Printf("Using custom prompt string\n")
			}
		}
	}

	if config.Direct {
		return ValidateDirectRequirements(cmd, config)
	}
	return nil
}

// HandleVerboseFlag processes the --verbose and --quiet flags to update config
func HandleVerboseFlag(cmd *cobra.Command, config *Config) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return fmt.Errorf("failed to get verbose flag: %w", err)
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if verbose && quiet {
		return fmt.Errorf("--verbose and --quiet cannot be used together")
	}
	if cmd.Flags().Changed("verbose") {
		config.Verbose = verbose
	}
	if cmd.Flags().Changed("quiet") {
		config.Quiet = quiet
	}
	return nil
}

// ValidateDirectRequirements validates OpenAI API key and model from command flags and config
func ValidateDirectRequirements(cmd *cobra.Command, config *Config) error {
	if err := ValidateOpenAIAPIKey(config.OpenAIAPIKey); err != nil {
		return err
	}

	modelFlag, _ := cmd.Flags().GetString("model")
	if modelFlag != "" {
		if err := ValidateModel(modelFlag); err != nil {
			return err
		}
		config.DirectModel = modelFlag
	} else if err := ValidateModel(config.DirectModel); err != nil {
		return fmt.Errorf("invalid model in config: %w", err)
	}

	return nil
}
