package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTranscript() *Transcript {
	return &Transcript{
		TranscriptID:   "t1",
		VideoURL:       "https://youtu.be/abc",
		Language:       "en",
		TranscriptText: "  Go is a programming language.  ",
	}
}

func TestPromptManager_EmbeddedDefault(t *testing.T) {
	pm := NewPromptManager(t.TempDir(), "")

	prompt, err := pm.SystemPrompt(testTranscript())
	require.NoError(t, err)
	assert.Contains(t, prompt, "Go is a programming language.")
	assert.Contains(t, prompt, "https://youtu.be/abc")
}

func TestPromptManager_NilTranscript(t *testing.T) {
	pm := NewPromptManager(t.TempDir(), "")

	prompt, err := pm.SystemPrompt(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)
	assert.NotContains(t, prompt, "programming language")
}

func TestPromptManager_ConfigDirPrompt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt.txt"), []byte("Answer from: {{.Transcript}}"), 0644))

	prompt, err := NewPromptManager(dir, "").SystemPrompt(testTranscript())
	require.NoError(t, err)
	assert.Equal(t, "Answer from: Go is a programming language.", prompt)
}

func TestPromptManager_CustomString(t *testing.T) {
	pm := NewPromptManager(t.TempDir(), "You answer questions about {{.VideoURL}} in {{.Language}}.")

	prompt, err := pm.SystemPrompt(testTranscript())
	require.NoError(t, err)
	assert.Equal(t, "You answer questions about https://youtu.be/abc in en.", prompt)
}

func TestPromptManager_CustomFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "custom.tmpl")
	require.NoError(t, os.WriteFile(file, []byte("Custom {{.Language}}"), 0644))

	prompt, err := NewPromptManager(t.TempDir(), file).SystemPrompt(testTranscript())
	require.NoError(t, err)
	assert.Equal(t, "Custom en", prompt)
}

func TestPromptManager_BadTemplate(t *testing.T) {
	_, err := NewPromptManager(t.TempDir(), "broken {{.Transcript").SystemPrompt(testTranscript())
	assert.Error(t, err)
}

func TestIsLikelyFilePath(t *testing.T) {
	assert.True(t, IsLikelyFilePath("./prompt.txt"))
	assert.True(t, IsLikelyFilePath("prompts/qa.md"))
	assert.True(t, IsLikelyFilePath("prompt"))
	assert.False(t, IsLikelyFilePath("Answer briefly about the video"))
}
