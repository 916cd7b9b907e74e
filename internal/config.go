package internal

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Config holds application settings
type Config struct {
	// User configurable settings
	APIURL         string
	Provider       string
	RequestTimeout time.Duration
	Verbose        bool
	Quiet          bool
	Token          string
	OpenAIAPIKey   string
	Direct         bool
	DirectModel    string
	Prompt         string
	MCPLogEnabled  bool
	MCPLogDebug    bool

	// Fixed XDG paths (not configurable)
	ConfigDir string
	DataDir   string
	CacheDir  string
}

//go:embed config.toml prompt.txt
var defaultFS embed.FS

// ChatsDB is the path of the local chat index
func (c *Config) ChatsDB() string {
	return filepath.Join(c.DataDir, "chats.db")
}

// HistoryFile is the path of the interactive input history
func (c *Config) HistoryFile() string {
	return filepath.Join(c.DataDir, "repl_history")
}

// MCPLogFile is the path of the MCP server log
func (c *Config) MCPLogFile() string {
	return filepath.Join(c.CacheDir, "mcp.log")
}

// ensureDefaultFile checks if a file exists in the specified directory
// and creates it from the embedded default if it doesn't exist
func ensureDefaultFile(configDir, embedFilename, description string) error {
	filePath := filepath.Join(configDir, embedFilename)

	if FileExists(filePath) {
		return nil
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultContent, err := defaultFS.ReadFile(embedFilename)
	if err != nil {
		return fmt.Errorf("reading embedded default %s: %w", description, err)
	}

	if err := os.WriteFile(filePath, defaultContent, 0644); err != nil {
		return fmt.Errorf("writing default %s: %w", description, err)
	}

	fmt.Fprintf(os.Stderr, "Created default %s at %s\n", description, filePath)
	return nil
}

// EnsureDefaultConfig checks if a config file exists in the XDG config directory
// and creates it from the embedded default if it doesn't exist
func EnsureDefaultConfig(configDir string) error {
	return ensureDefaultFile(configDir, "config.toml", "configuration")
}

// EnsureDefaultPrompt checks if a prompt.txt file exists in the XDG config directory
// and creates it from the embedded default if it doesn't exist
func EnsureDefaultPrompt(configDir string) error {
	return ensureDefaultFile(configDir, "prompt.txt", "prompt template")
}

// newViper returns a viper instance with defaults, config search paths and
// environment bindings applied
func newViper(configDir string) *viper.Viper {
	v := viper.New()

	v.SetDefault("api_url", "http://localhost:8000")
	v.SetDefault("provider", DefaultProvider)
	v.SetDefault("request_timeout", 5*time.Minute)
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("token", "")
	v.SetDefault("direct", false)
	v.SetDefault("direct_model", "gpt-4o-mini")
	v.SetDefault("prompt", "") // if empty will use default prompt template
	v.SetDefault("mcp_log", false)
	v.SetDefault("mcp_log_debug", false)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	v.SetEnvPrefix("VIDCHAT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// OpenAI key is also picked up from the conventional variable
	_ = v.BindEnv("openai_api_key", "VIDCHAT_OPENAI_API_KEY", "OPENAI_API_KEY")

	return v
}

// configFromViper builds a Config from v and the fixed directories
func configFromViper(v *viper.Viper, configDir, dataDir, cacheDir string) *Config {
	return &Config{
		APIURL:         strings.TrimRight(v.GetString("api_url"), "/"),
		Provider:       v.GetString("provider"),
		RequestTimeout: v.GetDuration("request_timeout"),
		Verbose:        v.GetBool("verbose"),
		Quiet:          v.GetBool("quiet"),
		Token:          v.GetString("token"),
		OpenAIAPIKey:   v.GetString("openai_api_key"),
		Direct:         v.GetBool("direct"),
		DirectModel:    v.GetString("direct_model"),
		Prompt:         v.GetString("prompt"),
		MCPLogEnabled:  v.GetBool("mcp_log"),
		MCPLogDebug:    v.GetBool("mcp_log_debug"),

		ConfigDir: configDir,
		DataDir:   dataDir,
		CacheDir:  cacheDir,
	}
}

// InitConfig initializes Viper and loads configuration. configFile overrides
// the XDG search path when set.
func InitConfig(configFile string) *Config {
	configDir := filepath.Join(xdg.ConfigHome, "vidchat")
	dataDir := filepath.Join(xdg.DataHome, "vidchat")
	cacheDir := filepath.Join(xdg.CacheHome, "vidchat")

	v := newViper(configDir)
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	config := configFromViper(v, configDir, dataDir, cacheDir)

	if config.Verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}

	return config
}
