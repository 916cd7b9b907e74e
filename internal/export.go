package internal

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExportFormat selects how a conversation is written out
type ExportFormat string

const (
	FormatMarkdown ExportFormat = "md"
	FormatJSON     ExportFormat = "json"
	FormatYAML     ExportFormat = "yaml"
	FormatText     ExportFormat = "text"
)

// ParseExportFormat accepts the format names and common aliases
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md", "markdown", "":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format %q (supported: md, json, yaml, text)", s)
	}
}

// Conversation is the exported form of a chat
type Conversation struct {
	ChatID       string    `json:"chat_id" yaml:"chat_id"`
	TranscriptID string    `json:"transcript_id,omitempty" yaml:"transcript_id,omitempty"`
	VideoURL     string    `json:"video_url,omitempty" yaml:"video_url,omitempty"`
	Messages     []Message `json:"messages" yaml:"messages"`
}

// ConversationFromSession captures a session for export
func ConversationFromSession(s Session) Conversation {
	return Conversation{
		ChatID:       s.ChatID,
		TranscriptID: s.TranscriptID,
		VideoURL:     s.VideoURL,
		Messages:     append([]Message(nil), s.Messages...),
	}
}

// MessagesFromChat converts backend messages to conversation messages
func MessagesFromChat(msgs []ChatMessage) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, Message{Sender: m.Sender, Text: m.MessageText})
	}
	return out
}

// Export renders the conversation in the requested format
func (c Conversation) Export(format ExportFormat) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding conversation: %w", err)
		}
		return string(data) + "\n", nil
	case FormatYAML:
		data, err := yaml.Marshal(c)
		if err != nil {
			return "", fmt.Errorf("encoding conversation: %w", err)
		}
		return string(data), nil
	case FormatText:
		var sb strings.Builder
		for i, m := range c.Messages {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "%s: %s\n", m.Sender, m.Text)
		}
		return sb.String(), nil
	default:
		return c.markdown(), nil
	}
}

func (c Conversation) markdown() string {
	var sb strings.Builder

	sb.WriteString("# Conversation\n\n")
	if c.VideoURL != "" {
		fmt.Fprintf(&sb, "Video: %s\n", c.VideoURL)
	}
	fmt.Fprintf(&sb, "Chat: `%s`\n", c.ChatID)

	for _, m := range c.Messages {
		switch m.Sender {
		case SenderUser:
			sb.WriteString("\n## You\n\n")
		case SenderSystem:
			sb.WriteString("\n## System\n\n")
		default:
			sb.WriteString("\n## Assistant\n\n")
		}
		sb.WriteString(strings.TrimSpace(m.Text))
		sb.WriteString("\n")
	}

	return sb.String()
}
