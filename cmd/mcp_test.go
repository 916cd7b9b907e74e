package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDesktopServer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claude_desktop_config.json")
	original := `{"theme":"dark","mcpServers":{"other":{"command":"other-server","args":[]}}}`
	require.NoError(t, os.WriteFile(path, []byte(original), 0644))

	err := registerDesktopServer(path, "vidchat", mcpServerEntry{
		Command: "/usr/local/bin/vidchat",
		Args:    []string{"mcp"},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Theme      string                    `json:"theme"`
		MCPServers map[string]mcpServerEntry `json:"mcpServers"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "dark", doc.Theme)
	assert.Equal(t, "other-server", doc.MCPServers["other"].Command)
	assert.Equal(t, mcpServerEntry{Command: "/usr/local/bin/vidchat", Args: []string{"mcp"}}, doc.MCPServers["vidchat"])

	backup, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, original, string(backup))
}

func TestRegisterDesktopServer_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claude_desktop_config.json")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	entry := mcpServerEntry{Command: "vidchat", Args: []string{"mcp"}, Env: map[string]string{"VIDCHAT_PROVIDER": "openai"}}
	require.NoError(t, registerDesktopServer(path, "vidchat", entry))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		MCPServers map[string]mcpServerEntry `json:"mcpServers"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, entry, doc.MCPServers["vidchat"])
}

func TestRegisterDesktopServer_Errors(t *testing.T) {
	dir := t.TempDir()

	err := registerDesktopServer(filepath.Join(dir, "missing.json"), "vidchat", mcpServerEntry{Command: "vidchat"})
	assert.ErrorContains(t, err, "not found")

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0644))
	err = registerDesktopServer(broken, "vidchat", mcpServerEntry{Command: "vidchat"})
	assert.ErrorContains(t, err, "parsing existing config")

	_, statErr := os.Stat(broken + ".bak")
	assert.True(t, os.IsNotExist(statErr))
}
