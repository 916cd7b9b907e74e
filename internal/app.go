package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// App holds the application state and dependencies
type App struct {
	config    *Config
	client    *Client
	tokens    *TokenStore
	auth      *Auth
	gateway   *Gateway
	exchanger MessageExchanger
	ui        UIManager
	interrupt *Interrupter

	indexOnce sync.Once
	index     *ChatIndex
	indexErr  error
}

// NewApp initializes the application
func NewApp(config *Config, options ...AppOption) *App {
	app := &App{
		config:    config,
		tokens:    NewTokenStore(config.DataDir),
		ui:        NewUIManager(config.Verbose, config.Quiet),
		interrupt: NewInterrupter(),
	}

	for _, option := range options {
		option(app)
	}

	if app.client == nil {
		app.client = NewClient(config.APIURL, app.tokenSource(),
			WithProvider(config.Provider),
			WithTimeout(config.RequestTimeout),
		)
	}
	app.auth = NewAuth(app.client, app.tokens)
	app.gateway = NewGateway(app.client)

	if app.exchanger == nil {
		if config.Direct {
			prompts := NewPromptManager(config.ConfigDir, config.Prompt)
			app.exchanger = NewDirectExchanger(app.client, config.OpenAIAPIKey, config.DirectModel, prompts, config.RequestTimeout, app.ui)
		} else {
			app.exchanger = app.gateway
		}
	}

	return app
}

// AppOption customizes App creation
type AppOption func(*App)

// WithClient sets a custom backend client
func WithClient(client *Client) AppOption {
	return func(a *App) {
		a.client = client
	}
}

// WithUI sets a custom UI manager
func WithUI(ui UIManager) AppOption {
	return func(a *App) {
		a.ui = ui
	}
}

// WithMessageExchanger sets the collaborator answering chat messages
func WithMessageExchanger(exchanger MessageExchanger) AppOption {
	return func(a *App) {
		a.exchanger = exchanger
	}
}

// WithInterrupter shares an interrupter with a signal handler, so an
// interrupt cancels only the request StartChat or Ask has in flight
func WithInterrupter(interrupt *Interrupter) AppOption {
	return func(a *App) {
		a.interrupt = interrupt
	}
}

// WithChatIndex sets an already opened chat index
func WithChatIndex(index *ChatIndex) AppOption {
	return func(a *App) {
		a.indexOnce.Do(func() {
			a.index = index
		})
	}
}

func (app *App) tokenSource() TokenSource {
	if app.config.Token != "" {
		return StaticToken(app.config.Token)
	}
	return app.tokens
}

// Client returns the backend client
func (app *App) Client() *Client { return app.client }

// Auth returns the account operations
func (app *App) Auth() *Auth { return app.auth }

// UI returns the UI manager
func (app *App) UI() UIManager { return app.ui }

// Config returns the loaded configuration
func (app *App) Config() *Config { return app.config }

// Index opens the local chat index on first use
func (app *App) Index() (*ChatIndex, error) {
	app.indexOnce.Do(func() {
		app.index, app.indexErr = OpenChatIndex(app.config.ChatsDB())
	})
	return app.index, app.indexErr
}

// Close releases resources held by the app
func (app *App) Close() error {
	if app.index != nil {
		return app.index.Close()
	}
	return nil
}

// RequireLogin fails fast when no credential is available
func (app *App) RequireLogin() error {
	token, err := app.tokenSource().Token()
	if err != nil {
		return err
	}
	if token == "" {
		return ErrNotLoggedIn
	}
	return nil
}

// NewController creates a session controller talking to the backend. Settled
// chats are recorded in the local index when it is available.
func (app *App) NewController(options ...ControllerOption) *Controller {
	if index, err := app.Index(); err == nil {
		options = append([]ControllerOption{WithObserver(index.Recorder(app.ui))}, options...)
	} else {
		app.ui.Verbose("Warning: chat index unavailable: %v\n", err)
	}
	return NewController(app.gateway, app.gateway, app.exchanger, options...)
}

// StartChat submits videoURL to the controller with a status spinner
func (app *App) StartChat(ctx context.Context, ctrl *Controller, videoURL string) (Session, error) {
	videoURL, videoID := ParseArg(videoURL)
	if videoID != "" {
		app.ui.Verbose("Loading transcript for video %s\n", videoID)
	}

	ctx, done := app.interrupt.Begin(ctx)
	defer done()

	spinner := app.ui.NewSpinner("Loading video transcript...")
	state, err := ctrl.Submit(ctx, videoURL)
	spinner.Finish()

	if err == nil && state.ChatStarted() {
		app.ui.Verbose("Transcript %s, chat %s\n", state.TranscriptID, state.ChatID)
	}
	return state, err
}

// Ask sends text through the controller with a status spinner
func (app *App) Ask(ctx context.Context, ctrl *Controller, text string) (Session, error) {
	ctx, done := app.interrupt.Begin(ctx)
	defer done()

	spinner := app.ui.NewSpinner("Thinking...")
	state, err := ctrl.Send(ctx, text)
	spinner.Finish()
	return state, err
}

// ResumeChat loads an existing chat's history from the backend into ctrl
func (app *App) ResumeChat(ctx context.Context, ctrl *Controller, chatID string) (Session, error) {
	chat, err := app.client.Chat(ctx, chatID)
	if err != nil {
		return ctrl.State(), fmt.Errorf("fetching chat: %w", err)
	}

	msgs := chat.Messages
	if msgs == nil {
		msgs, err = app.client.ChatMessages(ctx, chatID)
		if err != nil {
			return ctrl.State(), fmt.Errorf("fetching messages: %w", err)
		}
	}

	videoURL := ""
	if index, err := app.Index(); err == nil {
		if rec, err := index.Get(ctx, chatID); err == nil {
			videoURL = rec.VideoURL
		}
	}

	return ctrl.Resume(chat.ChatID, chat.TranscriptID, videoURL, MessagesFromChat(msgs))
}

// Conversation fetches a chat's stored messages for export
func (app *App) Conversation(ctx context.Context, chatID string) (Conversation, error) {
	msgs, err := app.client.ChatMessages(ctx, chatID)
	if err != nil {
		return Conversation{}, fmt.Errorf("fetching messages: %w", err)
	}

	conv := Conversation{ChatID: chatID, Messages: MessagesFromChat(msgs)}
	if index, err := app.Index(); err == nil {
		rec, err := index.Get(ctx, chatID)
		switch {
		case err == nil:
			conv.TranscriptID = rec.TranscriptID
			conv.VideoURL = rec.VideoURL
		case !errors.Is(err, ErrChatNotFound):
			app.ui.Verbose("Warning: %v\n", err)
		}
	}
	return conv, nil
}

// DeleteChat removes a chat from the backend and the local index
func (app *App) DeleteChat(ctx context.Context, chatID string) error {
	if err := app.client.DeleteChat(ctx, chatID); err != nil {
		return fmt.Errorf("deleting chat: %w", err)
	}
	if index, err := app.Index(); err == nil {
		if err := index.Delete(ctx, chatID); err != nil {
			app.ui.Verbose("Warning: %v\n", err)
		}
	}
	return nil
}
