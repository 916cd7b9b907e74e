package internal

import (
	"context"
	"fmt"
)

// Gateway adapts the REST client to the session controller's collaborators
type Gateway struct {
	client *Client
}

// NewGateway wraps client
func NewGateway(client *Client) *Gateway {
	return &Gateway{client: client}
}

// ProvisionTranscript creates a transcript for videoURL
func (g *Gateway) ProvisionTranscript(ctx context.Context, videoURL string) (string, error) {
	t, err := g.client.CreateTranscript(ctx, videoURL)
	if err != nil {
		return "", &ProvisioningError{Op: "creating transcript", Message: detailOf(err), Err: err}
	}
	if t.TranscriptID == "" {
		return "", &ProvisioningError{Op: "creating transcript", Err: fmt.Errorf("response did not include a transcript id")}
	}
	return t.TranscriptID, nil
}

// ProvisionChat opens a chat on transcriptID
func (g *Gateway) ProvisionChat(ctx context.Context, transcriptID string) (string, error) {
	chat, err := g.client.CreateChat(ctx, transcriptID)
	if err != nil {
		return "", &ProvisioningError{Op: "creating chat", Message: detailOf(err), Err: err}
	}
	if chat.ChatID == "" {
		return "", &ProvisioningError{Op: "creating chat", Err: fmt.Errorf("response did not include a chat id")}
	}
	return chat.ChatID, nil
}

// ExchangeMessage asks the backend's LLM for a reply
func (g *Gateway) ExchangeMessage(ctx context.Context, chatID, text string) (string, error) {
	reply, err := g.client.SendMessage(ctx, chatID, text)
	if err != nil {
		return "", &ExchangeError{Message: detailOf(err), Err: err}
	}
	return reply, nil
}
