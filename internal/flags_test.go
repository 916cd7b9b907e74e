package internal

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	AddChatFlags(cmd)
	cmd.Flags().BoolP("verbose", "v", false, "")
	cmd.Flags().BoolP("quiet", "q", false, "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestHandleChatFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		config  Config
		want    Config
		wantErr string
	}{
		{
			name:   "defaults untouched",
			config: Config{Provider: "claude", DirectModel: "gpt-4o-mini"},
			want:   Config{Provider: "claude", DirectModel: "gpt-4o-mini"},
		},
		{
			name:   "provider flag",
			args:   []string{"--provider", "openai"},
			config: Config{Provider: "claude"},
			want:   Config{Provider: "openai"},
		},
		{
			name:    "unknown provider flag",
			args:    []string{"--provider", "llama"},
			config:  Config{Provider: "claude"},
			wantErr: "unsupported provider",
		},
		{
			name:    "invalid provider in config",
			config:  Config{Provider: "llama"},
			wantErr: "invalid provider in config",
		},
		{
			name:    "direct without key",
			args:    []string{"--direct"},
			config:  Config{Provider: "claude", DirectModel: "gpt-4o-mini"},
			wantErr: "OpenAI API key is required",
		},
		{
			name:   "direct with model flag",
			args:   []string{"--direct", "-m", "gpt-4.1"},
			config: Config{Provider: "claude", OpenAIAPIKey: "sk-test", DirectModel: "gpt-4o-mini"},
			want:   Config{Provider: "claude", OpenAIAPIKey: "sk-test", DirectModel: "gpt-4.1", Direct: true},
		},
		{
			name:    "direct with unknown model",
			args:    []string{"--direct", "-m", "gpt-2"},
			config:  Config{Provider: "claude", OpenAIAPIKey: "sk-test"},
			wantErr: "unsupported model",
		},
		{
			name:   "direct disabled by flag",
			args:   []string{"--direct=false"},
			config: Config{Provider: "claude", Direct: true},
			want:   Config{Provider: "claude"},
		},
		{
			name:   "prompt string",
			args:   []string{"-p", "Answer like a pirate. {{.Transcript}}"},
			config: Config{Provider: "claude"},
			want:   Config{Provider: "claude", Prompt: "Answer like a pirate. {{.Transcript}}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := tt.config
			err := HandleChatFlags(newFlagCommand(t, tt.args...), &config)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, config)
		})
	}
}

func TestHandleVerboseFlag(t *testing.T) {
	config := Config{Quiet: true}
	require.NoError(t, HandleVerboseFlag(newFlagCommand(t, "-v"), &config))
	assert.True(t, config.Verbose)
	assert.True(t, config.Quiet, "unchanged flags keep configured values")

	config = Config{Verbose: true}
	require.NoError(t, HandleVerboseFlag(newFlagCommand(t, "--verbose=false"), &config))
	assert.False(t, config.Verbose)

	assert.Error(t, HandleVerboseFlag(newFlagCommand(t, "-v", "-q"), &Config{}))
}
