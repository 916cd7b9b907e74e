package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestConfig(t *testing.T, dir string) *Config {
	t.Helper()
	v := newViper(dir)
	_ = v.ReadInConfig()
	return configFromViper(v, dir, filepath.Join(dir, "data"), filepath.Join(dir, "cache"))
}

func TestConfig_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("VIDCHAT_API_URL", "")
	t.Chdir(t.TempDir())

	config := loadTestConfig(t, t.TempDir())

	assert.Equal(t, "http://localhost:8000", config.APIURL)
	assert.Equal(t, DefaultProvider, config.Provider)
	assert.Equal(t, 5*time.Minute, config.RequestTimeout)
	assert.False(t, config.Direct)
	assert.Equal(t, "gpt-4o-mini", config.DirectModel)
	assert.False(t, config.MCPLogEnabled)
}

func TestConfig_EmbeddedDefaultFileParses(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	require.NoError(t, EnsureDefaultConfig(dir))
	require.NoError(t, EnsureDefaultPrompt(dir))
	assert.FileExists(t, filepath.Join(dir, "prompt.txt"))

	v := newViper(dir)
	require.NoError(t, v.ReadInConfig())
	config := configFromViper(v, dir, dir, dir)
	assert.Equal(t, DefaultProvider, config.Provider)
	assert.Equal(t, 5*time.Minute, config.RequestTimeout)
}

func TestConfig_FileAndEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	content := `
api_url = "https://chat.example.com/"
provider = "openai"
request_timeout = "30s"
direct = true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("VIDCHAT_TOKEN", "env-token")

	v := newViper(dir)
	require.NoError(t, v.ReadInConfig())
	config := configFromViper(v, dir, filepath.Join(dir, "data"), filepath.Join(dir, "cache"))

	assert.Equal(t, "https://chat.example.com", config.APIURL)
	assert.Equal(t, "openai", config.Provider)
	assert.Equal(t, 30*time.Second, config.RequestTimeout)
	assert.True(t, config.Direct)
	assert.Equal(t, "sk-from-env", config.OpenAIAPIKey)
	assert.Equal(t, "env-token", config.Token)
}

func TestConfig_Paths(t *testing.T) {
	config := &Config{DataDir: "/data", CacheDir: "/cache"}
	assert.Equal(t, filepath.Join("/data", "chats.db"), config.ChatsDB())
	assert.Equal(t, filepath.Join("/data", "repl_history"), config.HistoryFile())
	assert.Equal(t, filepath.Join("/cache", "mcp.log"), config.MCPLogFile())
}
