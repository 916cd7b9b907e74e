package internal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// PromptData for template injection
type PromptData struct {
	VideoURL   string
	Language   string
	Transcript string
}

// PromptManager handles loading and processing the system prompt template
// used for direct answers
type PromptManager struct {
	promptFile   string
	promptString string
	configDir    string
}

// NewPromptManager creates a new prompt manager
func NewPromptManager(configDir, promptSetting string) *PromptManager {
	pm := &PromptManager{
		configDir: configDir,
	}

	if promptSetting != "" {
		if IsLikelyFilePath(promptSetting) && FileExists(promptSetting) {
			pm.promptFile = promptSetting
		} else {
			pm.promptString = promptSetting
		}
	}

	return pm
}

// SystemPrompt builds the system prompt for a chat grounded in transcript.
// A nil transcript yields the prompt without grounding text.
func (pm *PromptManager) SystemPrompt(transcript *Transcript) (string, error) {
	tmplContent, err := pm.template()
	if err != nil {
		return "", err
	}

	data := PromptData{}
	if transcript != nil {
		data.VideoURL = transcript.VideoURL
		data.Language = transcript.Language
		data.Transcript = strings.TrimSpace(transcript.TranscriptText)
	}

	return buildPromptFromTemplate(tmplContent, data)
}

// template returns the raw template text: the custom string, the custom
// file, the user's prompt.txt, or the embedded default, in that order
func (pm *PromptManager) template() (string, error) {
	if pm.promptString != "" {
		return pm.promptString, nil
	}

	promptFile := pm.promptFile
	if promptFile == "" {
		promptFile = filepath.Join(pm.configDir, "prompt.txt")
		if !FileExists(promptFile) {
			content, err := defaultFS.ReadFile("prompt.txt")
			if err != nil {
				return "", fmt.Errorf("reading embedded prompt template: %w", err)
			}
			return string(content), nil
		}
	}

	content, err := os.ReadFile(promptFile)
	if err != nil {
		return "", fmt.Errorf("reading prompt template: %w", err)
	}
	return string(content), nil
}

func buildPromptFromTemplate(templateContent string, data PromptData) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateContent)
	if err != nil {
		return "", fmt.Errorf("parsing prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing prompt template: %w", err)
	}

	return buf.String(), nil
}

// IsLikelyFilePath uses heuristics to determine if a string is likely a file path
func IsLikelyFilePath(s string) bool {
	if strings.Contains(s, "/") || strings.Contains(s, "\\") {
		return true
	}

	if strings.Contains(s, ".txt") || strings.Contains(s, ".md") ||
		strings.Contains(s, ".template") || strings.Contains(s, ".tmpl") {
		return true
	}

	// long strings are prompts, not paths
	if len(s) > 200 {
		return false
	}

	return !strings.Contains(s, " ") && !strings.Contains(s, "\n")
}
