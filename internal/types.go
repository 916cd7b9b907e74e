package internal

import (
	"fmt"
	"slices"
)

// Phase represents where a conversation is in its lifecycle
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoadingTranscript
	PhaseChatActive
	PhaseSending
)

// String returns a human-readable representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoadingTranscript:
		return "loading-transcript"
	case PhaseChatActive:
		return "chat-active"
	case PhaseSending:
		return "sending"
	default:
		return "unknown"
	}
}

// Busy reports whether a request is in flight
func (p Phase) Busy() bool {
	return p == PhaseLoadingTranscript || p == PhaseSending
}

// Sender identifies who wrote a message
type Sender int

const (
	SenderUser Sender = iota
	SenderBot
	SenderSystem
)

// String returns the wire name of the sender
func (s Sender) String() string {
	switch s {
	case SenderUser:
		return "user"
	case SenderSystem:
		return "system"
	default:
		return "bot"
	}
}

// MarshalText encodes the sender as its wire name
func (s Sender) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts both the local names and the backend's "llm"
func (s *Sender) UnmarshalText(text []byte) error {
	switch string(text) {
	case "user":
		*s = SenderUser
	case "bot", "llm", "assistant":
		*s = SenderBot
	case "system":
		*s = SenderSystem
	default:
		return fmt.Errorf("unknown sender: %q", text)
	}
	return nil
}

// Message is one entry of the rendered conversation
type Message struct {
	Sender Sender `json:"sender" yaml:"sender"`
	Text   string `json:"text" yaml:"text"`
}

// Session is the state of a single conversation. Values are never mutated
// after they leave the controller; every transition produces a new one.
type Session struct {
	Phase        Phase
	VideoURL     string
	TranscriptID string
	ChatID       string
	Messages     []Message
	LastError    string
}

// ChatStarted reports whether a chat has been provisioned for the session
func (s Session) ChatStarted() bool {
	return s.ChatID != ""
}

// LastMessage returns the most recent message, if any
func (s Session) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// clone copies the session so the returned value shares no backing array
func (s Session) clone() Session {
	s.Messages = slices.Clone(s.Messages)
	return s
}

// withMessage returns a copy of the session with msg appended
func (s Session) withMessage(msg Message) Session {
	next := s.clone()
	next.Messages = append(next.Messages, msg)
	return next
}
