package internal

import (
	"context"
	"strings"
	"sync"
)

// Messages and fallbacks shown to the user
const (
	ReadyMessage           = "Transcript loaded successfully! You can now ask questions about the video content."
	ExchangeFallbackReply  = "Sorry, I encountered an error. Please try again."
	DefaultTranscriptError = "Failed to load video transcript"
	DefaultSendError       = "Failed to send message"
)

// TranscriptProvisioner turns a video URL into a transcript identifier
type TranscriptProvisioner interface {
	ProvisionTranscript(ctx context.Context, videoURL string) (string, error)
}

// ChatProvisioner opens a chat on a transcript
type ChatProvisioner interface {
	ProvisionChat(ctx context.Context, transcriptID string) (string, error)
}

// MessageExchanger sends a user message to a chat and returns the reply
type MessageExchanger interface {
	ExchangeMessage(ctx context.Context, chatID, text string) (string, error)
}

// SessionObserver is notified with the new state after every transition.
// It runs while the controller is locked and must not call back into it.
type SessionObserver func(Session)

// Controller owns the lifecycle of one conversation: load the transcript,
// open a chat, then exchange messages one at a time.
type Controller struct {
	mu         sync.Mutex
	state      Session
	transcript TranscriptProvisioner
	chat       ChatProvisioner
	exchanger  MessageExchanger
	observers  []SessionObserver
}

// ControllerOption customizes Controller creation
type ControllerOption func(*Controller)

// WithObserver registers a callback for state transitions
func WithObserver(observer SessionObserver) ControllerOption {
	return func(c *Controller) {
		c.observers = append(c.observers, observer)
	}
}

// WithExchanger replaces the message exchanger
func WithExchanger(exchanger MessageExchanger) ControllerOption {
	return func(c *Controller) {
		c.exchanger = exchanger
	}
}

// NewController creates an idle controller
func NewController(transcript TranscriptProvisioner, chat ChatProvisioner, exchanger MessageExchanger, options ...ControllerOption) *Controller {
	c := &Controller{
		transcript: transcript,
		chat:       chat,
		exchanger:  exchanger,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// State returns a snapshot of the current session
func (c *Controller) State() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// set installs the next state and notifies observers. Caller holds c.mu.
func (c *Controller) set(next Session) Session {
	c.state = next
	for _, observer := range c.observers {
		observer(next.clone())
	}
	return next.clone()
}

// transition applies fn to the current state under the lock
func (c *Controller) transition(fn func(Session) Session) Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set(fn(c.state))
}

// Submit starts a new conversation for videoURL, discarding any previous one.
// It blocks until the transcript and chat are provisioned or provisioning
// fails; failures are recorded in LastError rather than returned.
func (c *Controller) Submit(ctx context.Context, videoURL string) (Session, error) {
	if strings.TrimSpace(videoURL) == "" {
		return c.State(), ErrBlankInput
	}

	c.mu.Lock()
	if c.state.Phase.Busy() {
		c.mu.Unlock()
		return c.State(), ErrBusy
	}
	c.set(Session{Phase: PhaseLoadingTranscript, VideoURL: videoURL})
	c.mu.Unlock()

	transcriptID, err := c.transcript.ProvisionTranscript(ctx, videoURL)
	if err != nil {
		return c.failProvisioning(err), nil
	}

	c.transition(func(s Session) Session {
		next := s.clone()
		next.TranscriptID = transcriptID
		return next
	})

	chatID, err := c.chat.ProvisionChat(ctx, transcriptID)
	if err != nil {
		return c.failProvisioning(err), nil
	}

	return c.transition(func(s Session) Session {
		next := s.withMessage(Message{Sender: SenderBot, Text: ReadyMessage})
		next.Phase = PhaseChatActive
		next.ChatID = chatID
		return next
	}), nil
}

func (c *Controller) failProvisioning(err error) Session {
	return c.transition(func(s Session) Session {
		next := s.clone()
		next.Phase = PhaseIdle
		next.ChatID = ""
		next.LastError = userMessage(err, DefaultTranscriptError)
		return next
	})
}

// Send appends text as a user message and waits for the reply. On failure
// a fallback bot message is appended and LastError is set; the error is not
// returned.
func (c *Controller) Send(ctx context.Context, text string) (Session, error) {
	c.mu.Lock()
	switch {
	case strings.TrimSpace(text) == "":
		c.mu.Unlock()
		return c.State(), ErrBlankInput
	case c.state.ChatID == "":
		c.mu.Unlock()
		return c.State(), ErrNoChat
	case c.state.Phase.Busy():
		c.mu.Unlock()
		return c.State(), ErrBusy
	}

	next := c.state.withMessage(Message{Sender: SenderUser, Text: text})
	next.Phase = PhaseSending
	next.LastError = ""
	chatID := next.ChatID
	c.set(next)
	c.mu.Unlock()

	reply, err := c.exchanger.ExchangeMessage(ctx, chatID, text)
	if err != nil {
		return c.transition(func(s Session) Session {
			next := s.withMessage(Message{Sender: SenderBot, Text: ExchangeFallbackReply})
			next.Phase = PhaseChatActive
			next.LastError = userMessage(err, DefaultSendError)
			return next
		}), nil
	}

	return c.transition(func(s Session) Session {
		next := s.withMessage(Message{Sender: SenderBot, Text: reply})
		next.Phase = PhaseChatActive
		return next
	}), nil
}

// Resume attaches the controller to an existing chat with its prior history.
// It is rejected while a request is in flight.
func (c *Controller) Resume(chatID, transcriptID, videoURL string, history []Message) (Session, error) {
	if strings.TrimSpace(chatID) == "" {
		return c.State(), ErrBlankInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase.Busy() {
		return c.state.clone(), ErrBusy
	}
	return c.set(Session{
		Phase:        PhaseChatActive,
		VideoURL:     videoURL,
		TranscriptID: transcriptID,
		ChatID:       chatID,
		Messages:     append([]Message(nil), history...),
	}), nil
}
