package internal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArg(t *testing.T) {
	tests := []struct {
		in      string
		wantURL string
		wantID  string
	}{
		{"https://www.youtube.com/watch?v=tAP1eZYEuKA", "https://www.youtube.com/watch?v=tAP1eZYEuKA", "tAP1eZYEuKA"},
		{"https://youtu.be/tAP1eZYEuKA", "https://youtu.be/tAP1eZYEuKA", "tAP1eZYEuKA"},
		{"  tAP1eZYEuKA  ", "https://www.youtube.com/watch?v=tAP1eZYEuKA", "tAP1eZYEuKA"},
		{"https://vimeo.com/12345", "https://vimeo.com/12345", ""},
		{"https://www.youtube.com/playlist?list=PL123", "https://www.youtube.com/playlist?list=PL123", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		gotURL, gotID := ParseArg(tt.in)
		assert.Equal(t, tt.wantURL, gotURL, tt.in)
		assert.Equal(t, tt.wantID, gotID, tt.in)
	}
}

func TestIsLikelyCommand(t *testing.T) {
	assert.True(t, IsLikelyCommand("chta"))
	assert.False(t, IsLikelyCommand("tAP1eZYEuKA"))
	assert.False(t, IsLikelyCommand("https://youtu.be/tAP1eZYEuKA"))
	assert.False(t, IsLikelyCommand("youtu.be"))
}

func TestValidateProvider(t *testing.T) {
	assert.NoError(t, ValidateProvider("claude"))
	assert.NoError(t, ValidateProvider("openai"))
	assert.Error(t, ValidateProvider("gemini"))
	assert.Error(t, ValidateProvider(""))
}

func TestValidateModel(t *testing.T) {
	assert.NoError(t, ValidateModel("gpt-4o-mini"))
	assert.Error(t, ValidateModel("gpt-2"))
}

func TestValidateOpenAIAPIKey(t *testing.T) {
	assert.NoError(t, ValidateOpenAIAPIKey("sk-test"))
	assert.Error(t, ValidateOpenAIAPIKey(""))
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a", "b")
	c := filepath.Join(root, "c")

	require.NoError(t, EnsureDirs(a, c))
	assert.DirExists(t, a)
	assert.DirExists(t, c)
	require.NoError(t, EnsureDirs(a))
}
