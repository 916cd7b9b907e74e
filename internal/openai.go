package internal

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// CompletionMessage is one turn sent to a chat completion model
type CompletionMessage struct {
	Role    string
	Content string
}

// ChatCompleter defines the chat completion operation used for direct answers
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, model string, messages []CompletionMessage) (string, error)
}

// OpenAIClient wraps the official OpenAI Go SDK
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(apiKey string) *OpenAIClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{client: &client}
}

// CreateChatCompletion implements the chat completion method
func (c *OpenAIClient) CreateChatCompletion(ctx context.Context, model string, messages []CompletionMessage) (string, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			params = append(params, openai.SystemMessage(m.Content))
		case "assistant":
			params = append(params, openai.AssistantMessage(m.Content))
		default:
			params = append(params, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: params,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// DirectExchanger answers chat messages with the user's own OpenAI key,
// grounded in the transcript the backend produced for the chat. Both sides
// of every exchange are mirrored into the backend's chat history.
type DirectExchanger struct {
	api        *Client
	completer  ChatCompleter
	prompts    *PromptManager
	model      string
	timeout    time.Duration
	apiKey     string
	ui         UIManager
	clientOnce sync.Once
	clientErr  error

	mu        sync.Mutex
	histories map[string][]CompletionMessage
}

// NewDirectExchanger creates an exchanger with lazy OpenAI client initialization
func NewDirectExchanger(api *Client, apiKey, model string, prompts *PromptManager, timeout time.Duration, ui UIManager) *DirectExchanger {
	return &DirectExchanger{
		api:       api,
		prompts:   prompts,
		model:     model,
		timeout:   timeout,
		apiKey:    apiKey,
		ui:        ui,
		histories: make(map[string][]CompletionMessage),
	}
}

// WithCompleter sets the completion backend, bypassing the OpenAI client
func (d *DirectExchanger) WithCompleter(completer ChatCompleter) *DirectExchanger {
	d.completer = completer
	return d
}

// ensureClient initializes the OpenAI client on first use. It is safe for
// concurrent callers; completer is only written inside clientOnce.
func (d *DirectExchanger) ensureClient() (ChatCompleter, error) {
	d.clientOnce.Do(func() {
		if d.completer != nil {
			return
		}
		if err := ValidateOpenAIAPIKey(d.apiKey); err != nil {
			d.clientErr = err
			return
		}
		d.completer = NewOpenAIClient(d.apiKey)
	})
	return d.completer, d.clientErr
}

// ExchangeMessage implements MessageExchanger
func (d *DirectExchanger) ExchangeMessage(ctx context.Context, chatID, text string) (string, error) {
	completer, err := d.ensureClient()
	if err != nil {
		return "", &ExchangeError{Message: err.Error(), Err: err}
	}

	history, err := d.history(ctx, chatID)
	if err != nil {
		return "", &ExchangeError{Message: detailOf(err), Err: err}
	}

	messages := append(slices.Clone(history), CompletionMessage{Role: "user", Content: text})

	callCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	reply, err := completer.CreateChatCompletion(callCtx, d.model, messages)
	if err != nil {
		return "", &ExchangeError{Err: fmt.Errorf("creating chat completion: %w", err)}
	}

	d.mu.Lock()
	d.histories[chatID] = append(messages, CompletionMessage{Role: "assistant", Content: reply})
	d.mu.Unlock()

	d.mirror(ctx, chatID, text, reply)
	return reply, nil
}

// history returns the cached completion history for chatID, seeding it from
// the backend's chat and transcript on first use
func (d *DirectExchanger) history(ctx context.Context, chatID string) ([]CompletionMessage, error) {
	d.mu.Lock()
	cached, ok := d.histories[chatID]
	d.mu.Unlock()
	if ok {
		return cached, nil
	}

	chat, err := d.api.Chat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("fetching chat: %w", err)
	}

	var transcript *Transcript
	if chat.TranscriptID != "" {
		transcript, err = d.api.Transcript(ctx, chat.TranscriptID)
		if err != nil {
			return nil, fmt.Errorf("fetching transcript: %w", err)
		}
	}

	system, err := d.prompts.SystemPrompt(transcript)
	if err != nil {
		return nil, err
	}

	seeded := []CompletionMessage{{Role: "system", Content: system}}
	for _, m := range chat.Messages {
		role := "user"
		switch m.Sender {
		case SenderBot:
			role = "assistant"
		case SenderSystem:
			role = "system"
		}
		seeded = append(seeded, CompletionMessage{Role: role, Content: m.MessageText})
	}

	d.mu.Lock()
	d.histories[chatID] = seeded
	d.mu.Unlock()
	return seeded, nil
}

func (d *DirectExchanger) mirror(ctx context.Context, chatID, text, reply string) {
	if _, err := d.api.AddMessage(ctx, chatID, "user", text); err != nil {
		d.warn("Warning: failed to store message in chat %s: %v\n", chatID, err)
		return
	}
	if _, err := d.api.AddMessage(ctx, chatID, "llm", reply); err != nil {
		d.warn("Warning: failed to store reply in chat %s: %v\n", chatID, err)
	}
}

func (d *DirectExchanger) warn(format string, args ...any) {
	if d.ui != nil {
		d.ui.Verbose(format, args...)
	}
}
