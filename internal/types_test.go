package internal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSender_UnmarshalText(t *testing.T) {
	tests := map[string]Sender{
		"user":      SenderUser,
		"bot":       SenderBot,
		"llm":       SenderBot,
		"assistant": SenderBot,
		"system":    SenderSystem,
	}
	for in, want := range tests {
		var got Sender
		require.NoError(t, got.UnmarshalText([]byte(in)), in)
		assert.Equal(t, want, got, in)
	}

	var s Sender
	assert.Error(t, s.UnmarshalText([]byte("narrator")))
	assert.Equal(t, "system", SenderSystem.String())
}

func TestMessage_JSON(t *testing.T) {
	data, err := json.Marshal(Message{Sender: SenderBot, Text: "hello"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"sender":"bot","text":"hello"}`, string(data))
}

func TestPhase(t *testing.T) {
	assert.False(t, PhaseIdle.Busy())
	assert.True(t, PhaseLoadingTranscript.Busy())
	assert.False(t, PhaseChatActive.Busy())
	assert.True(t, PhaseSending.Busy())

	assert.Equal(t, "chat-active", PhaseChatActive.String())
	assert.Equal(t, "unknown", Phase(42).String())
}

func TestSession_LastMessage(t *testing.T) {
	_, ok := Session{}.LastMessage()
	assert.False(t, ok)

	s := Session{}.withMessage(Message{Sender: SenderUser, Text: "a"}).withMessage(Message{Sender: SenderBot, Text: "b"})
	last, ok := s.LastMessage()
	require.True(t, ok)
	assert.Equal(t, "b", last.Text)
}
