package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/rtzll/vidchat/internal"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server for chatting with videos",
	Long: `Run a Model Context Protocol (MCP) server that lets AI assistants chat
with YouTube videos through vidchat.

The MCP server provides three tools:
- load_video: Load a video's transcript and open a chat, returning a session id
- ask_video: Ask a question within a session
- get_conversation: Return a session's conversation as markdown, JSON, YAML or text

Transport options:
- stdio (default): Standard MCP transport via stdin/stdout
- http: HTTP transport on specified port (use --port to configure)`,
	Example: `  # Run MCP server with stdio transport (e.g. for Claude Desktop)
  vidchat mcp

  # Run MCP server with HTTP transport on port 8080
  vidchat mcp --transport=http --port=8080

  # Set up Claude Desktop integration
  vidchat mcp setup-claude`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol
		config.Verbose = false
		config.Quiet = true
		return internal.HandleChatFlags(cmd, config)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		closeLog := internal.InitMCPLogging(config)
		defer func() { _ = closeLog() }()

		app := internal.NewApp(config)
		defer app.Close()

		mcpServer := internal.NewMCPServer(app, version)

		if transport == "http" {
			fmt.Fprintf(os.Stderr, "Starting vidchat MCP server on HTTP port %d...\n", port)
		}

		return mcpServer.Start(cmd.Context(), transport, port)
	},
}

// setupClaudeCmd represents the setup-claude subcommand
var setupClaudeCmd = &cobra.Command{
	Use:   "setup-claude",
	Short: "Configure Claude Desktop to use the vidchat MCP server",
	Long: `Register vidchat as an MCP server in Claude Desktop's
claude_desktop_config.json. Other configured servers are kept and the
previous file is saved next to it with a .bak suffix.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("getting executable path: %w", err)
		}
		if execPath, err = filepath.EvalSymlinks(execPath); err != nil {
			return fmt.Errorf("resolving executable path: %w", err)
		}

		desktopConfig, err := claudeDesktopConfigPath()
		if err != nil {
			return fmt.Errorf("getting Claude Desktop config path: %w", err)
		}

		env := map[string]string{
			"XDG_DATA_HOME":   xdg.DataHome,
			"XDG_CONFIG_HOME": xdg.ConfigHome,
			"XDG_CACHE_HOME":  xdg.CacheHome,
		}
		if err := registerDesktopServer(desktopConfig, "vidchat", mcpServerEntry{
			Command: execPath,
			Args:    []string{"mcp"},
			Env:     env,
		}); err != nil {
			return err
		}

		fmt.Printf("Configured Claude Desktop MCP server in %s\n", desktopConfig)
		fmt.Printf("Restart Claude Desktop to use the vidchat MCP server\n")
		return nil
	},
}

// mcpServerEntry is one server in claude_desktop_config.json
type mcpServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

// registerDesktopServer adds or replaces the named server in the Claude
// Desktop config at path. Unknown top-level keys are preserved.
func registerDesktopServer(path, name string, entry mcpServerEntry) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("config for Claude Desktop not found at %s", path)
	}
	if err != nil {
		return fmt.Errorf("reading existing config: %w", err)
	}

	doc := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing existing config: %w", err)
		}
	}

	servers := map[string]json.RawMessage{}
	if raw, ok := doc["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &servers); err != nil {
			return fmt.Errorf("parsing mcpServers: %w", err)
		}
	}

	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding server entry: %w", err)
	}
	servers[name] = encoded

	if doc["mcpServers"], err = json.Marshal(servers); err != nil {
		return fmt.Errorf("encoding mcpServers: %w", err)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path+".bak", data, 0644); err != nil {
		return fmt.Errorf("backing up config: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// claudeDesktopConfigPath returns the platform-specific config path for Claude Desktop
func claudeDesktopConfigPath() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, "Library", "Application Support", "Claude", "claude_desktop_config.json"), nil

	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, "Claude", "claude_desktop_config.json"), nil

	case "linux":
		return filepath.Join(xdg.ConfigHome, "Claude", "claude_desktop_config.json"), nil

	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

func init() {
	internal.AddChatFlags(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol (stdio or http)")
	mcpCmd.Flags().Int("port", 8080, "Port for HTTP transport (only used with --transport=http)")
	mcpCmd.AddCommand(setupClaudeCmd)
	rootCmd.AddCommand(mcpCmd)
}
