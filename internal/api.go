package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultProvider is the LLM backend used when none is configured
const DefaultProvider = "claude"

// maxResponseSize caps how much of a response body is read
const maxResponseSize = 10 << 20

// TokenSource supplies the bearer credential for backend calls. An empty
// token means the request is sent without an Authorization header.
type TokenSource interface {
	Token() (string, error)
}

// Transcript is a backend-generated transcript of a video
type Transcript struct {
	TranscriptID   string    `json:"transcript_id"`
	VideoURL       string    `json:"video_url"`
	TranscriptText string    `json:"transcript_text,omitempty"`
	Language       string    `json:"language,omitempty"`
	Duration       float64   `json:"duration,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChatMessage is a message as stored by the backend
type ChatMessage struct {
	MessageID   string    `json:"message_id,omitempty"`
	ChatID      string    `json:"chat_id,omitempty"`
	Sender      Sender    `json:"sender"`
	MessageText string    `json:"message_text"`
	CreatedAt   time.Time `json:"created_at"`
}

// Chat is a conversation scoped to one transcript
type Chat struct {
	ChatID       string        `json:"chat_id"`
	TranscriptID string        `json:"transcript_id,omitempty"`
	UserID       string        `json:"user_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	Messages     []ChatMessage `json:"messages,omitempty"`
}

// User is the authenticated account
type User struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       *int      `json:"age,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	IsAdmin   bool      `json:"is_admin,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResult is returned by the login endpoint
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user,omitempty"`
}

// ProfileUpdate holds the fields accepted by PUT /users/me
type ProfileUpdate struct {
	Name     string `json:"name,omitempty"`
	Password string `json:"password,omitempty"`
}

type llmRequest struct {
	UserMessage string `json:"user_message"`
	Provider    string `json:"provider,omitempty"`
}

type llmResponse struct {
	LLMMessage string `json:"llm_message"`
}

// Client is a thin wrapper around the backend's REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	provider   string
}

// ClientOption customizes Client creation
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds every request made by the client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithProvider sets the LLM provider sent with every message
func WithProvider(provider string) ClientOption {
	return func(c *Client) {
		if provider != "" {
			c.provider = provider
		}
	}
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string, tokens TokenSource, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		tokens:     tokens,
		provider:   DefaultProvider,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Provider returns the LLM provider the client asks for
func (c *Client) Provider() string {
	return c.provider
}

// CreateTranscript asks the backend to produce (or reuse) a transcript for videoURL
func (c *Client) CreateTranscript(ctx context.Context, videoURL string) (*Transcript, error) {
	var t Transcript
	if err := c.do(ctx, http.MethodPost, "/api/transcripts/", map[string]string{"video_url": videoURL}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Transcript fetches a transcript including its text
func (c *Client) Transcript(ctx context.Context, transcriptID string) (*Transcript, error) {
	var t Transcript
	if err := c.do(ctx, http.MethodGet, "/api/transcripts/"+url.PathEscape(transcriptID), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Transcripts lists all transcripts known to the backend
func (c *Client) Transcripts(ctx context.Context) ([]Transcript, error) {
	var ts []Transcript
	if err := c.do(ctx, http.MethodGet, "/api/transcripts/", nil, &ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// DeleteTranscript removes a transcript
func (c *Client) DeleteTranscript(ctx context.Context, transcriptID string) error {
	return c.do(ctx, http.MethodDelete, "/api/transcripts/"+url.PathEscape(transcriptID), nil, nil)
}

// CreateChat opens a chat on a transcript
func (c *Client) CreateChat(ctx context.Context, transcriptID string) (*Chat, error) {
	var chat Chat
	if err := c.do(ctx, http.MethodPost, "/api/chats/", map[string]string{"transcript_id": transcriptID}, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// Chat fetches a chat with its messages
func (c *Client) Chat(ctx context.Context, chatID string) (*Chat, error) {
	var chat Chat
	if err := c.do(ctx, http.MethodGet, "/api/chats/"+url.PathEscape(chatID), nil, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// Chats lists the current user's chats
func (c *Client) Chats(ctx context.Context) ([]Chat, error) {
	var chats []Chat
	if err := c.do(ctx, http.MethodGet, "/api/chats/", nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// DeleteChat removes a chat and its messages
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	return c.do(ctx, http.MethodDelete, "/api/chats/"+url.PathEscape(chatID), nil, nil)
}

// ChatMessages returns the stored messages of a chat in conversation order
func (c *Client) ChatMessages(ctx context.Context, chatID string) ([]ChatMessage, error) {
	var msgs []ChatMessage
	if err := c.do(ctx, http.MethodGet, "/api/chats/"+url.PathEscape(chatID)+"/messages", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// AddMessage stores a message in a chat without asking the LLM
func (c *Client) AddMessage(ctx context.Context, chatID string, sender, text string) (*ChatMessage, error) {
	body := map[string]string{"sender": sender, "message_text": text}
	var msg ChatMessage
	if err := c.do(ctx, http.MethodPost, "/api/chats/"+url.PathEscape(chatID)+"/messages", body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendMessage asks the chat's LLM and returns its reply
func (c *Client) SendMessage(ctx context.Context, chatID, userMessage string) (string, error) {
	req := llmRequest{UserMessage: userMessage, Provider: c.provider}
	var resp llmResponse
	if err := c.do(ctx, http.MethodPost, "/api/chats/"+url.PathEscape(chatID)+"/llm", req, &resp); err != nil {
		return "", err
	}
	return resp.LLMMessage, nil
}

// Register creates an account
func (c *Client) Register(ctx context.Context, email, password, name string) (*User, error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	var u User
	if err := c.do(ctx, http.MethodPost, "/api/users/register", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login exchanges credentials for an access token
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/users/login", form, &res); err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, fmt.Errorf("login response did not include an access token")
	}
	return &res, nil
}

// CurrentUser returns the account the stored token belongs to
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile changes the current user's name and/or password
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPut, "/api/users/me", update, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteAccount removes the current user
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/users/me", nil, nil)
}

// do sends a request and decodes the JSON response into out. A url.Values
// body is sent form-encoded, anything else as JSON. A 204 leaves out untouched.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case url.Values:
		reader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("reading access token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: parseDetail(data), Body: data}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// parseDetail pulls the "detail" field out of an error body. FastAPI sends
// either a string or a list of validation errors with "msg" fields.
func parseDetail(data []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		var msgs []string
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}
