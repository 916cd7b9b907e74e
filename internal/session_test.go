package internal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend implements the three controller collaborators. When a gate
// channel is set the matching call signals on entered and waits for it.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	transcriptID  string
	transcriptErr error
	chatID        string
	chatErr       error
	reply         string
	exchangeErr   error

	transcriptGate chan struct{}
	exchangeGate   chan struct{}
	entered        chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		transcriptID: "t1",
		chatID:       "c1",
		reply:        "It is about Go.",
		entered:      make(chan struct{}, 4),
	}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) ProvisionTranscript(ctx context.Context, videoURL string) (string, error) {
	f.record("transcript:" + videoURL)
	if f.transcriptGate != nil {
		f.entered <- struct{}{}
		<-f.transcriptGate
	}
	if f.transcriptErr != nil {
		return "", f.transcriptErr
	}
	return f.transcriptID, nil
}

func (f *fakeBackend) ProvisionChat(ctx context.Context, transcriptID string) (string, error) {
	f.record("chat:" + transcriptID)
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.chatID, nil
}

func (f *fakeBackend) ExchangeMessage(ctx context.Context, chatID, text string) (string, error) {
	f.record("exchange:" + chatID + ":" + text)
	if f.exchangeGate != nil {
		f.entered <- struct{}{}
		<-f.exchangeGate
	}
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	return f.reply, nil
}

func newTestController(f *fakeBackend, options ...ControllerOption) *Controller {
	return NewController(f, f, f, options...)
}

func waitEntered(t *testing.T, f *fakeBackend) {
	t.Helper()
	select {
	case <-f.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("collaborator was not called")
	}
}

func TestSubmit_ProvisionsTranscriptAndChat(t *testing.T) {
	f := newFakeBackend()
	var phases []Phase
	ctrl := newTestController(f, WithObserver(func(s Session) {
		phases = append(phases, s.Phase)
	}))

	state, err := ctrl.Submit(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)

	assert.Equal(t, PhaseChatActive, state.Phase)
	assert.Equal(t, "t1", state.TranscriptID)
	assert.Equal(t, "c1", state.ChatID)
	assert.Equal(t, "https://youtu.be/abc", state.VideoURL)
	assert.Empty(t, state.LastError)
	assert.True(t, state.ChatStarted())
	assert.Equal(t, []Message{{Sender: SenderBot, Text: ReadyMessage}}, state.Messages)

	assert.Equal(t, []string{"transcript:https://youtu.be/abc", "chat:t1"}, f.Calls())
	assert.Equal(t, []Phase{PhaseLoadingTranscript, PhaseLoadingTranscript, PhaseChatActive}, phases)
}

func TestSubmit_BlankURLIsRejected(t *testing.T) {
	for _, url := range []string{"", "   ", "\t\n"} {
		f := newFakeBackend()
		ctrl := newTestController(f)

		state, err := ctrl.Submit(context.Background(), url)
		require.ErrorIs(t, err, ErrBlankInput)
		assert.Equal(t, PhaseIdle, state.Phase)
		assert.Empty(t, f.Calls())
	}
}

func TestSubmit_TranscriptFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "detail from backend",
			err:  &ProvisioningError{Op: "creating transcript", Message: "Invalid YouTube URL", Err: errors.New("400")},
			want: "Invalid YouTube URL",
		},
		{
			name: "no detail",
			err:  &ProvisioningError{Op: "creating transcript", Err: errors.New("connection refused")},
			want: DefaultTranscriptError,
		},
		{
			name: "untyped error",
			err:  errors.New("boom"),
			want: "boom",
		},
		{
			name: "empty untyped error",
			err:  errors.New(""),
			want: DefaultTranscriptError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeBackend()
			f.transcriptErr = tt.err
			ctrl := newTestController(f)

			state, err := ctrl.Submit(context.Background(), "https://youtu.be/abc")
			require.NoError(t, err)

			assert.Equal(t, PhaseIdle, state.Phase)
			assert.Equal(t, tt.want, state.LastError)
			assert.False(t, state.ChatStarted())
			assert.Empty(t, state.Messages)
			assert.Equal(t, []string{"transcript:https://youtu.be/abc"}, f.Calls())
		})
	}
}

func TestSubmit_ChatFailureReturnsToIdle(t *testing.T) {
	f := newFakeBackend()
	f.chatErr = &ProvisioningError{Op: "creating chat", Message: "Transcript not found"}
	ctrl := newTestController(f)

	state, err := ctrl.Submit(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)

	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Equal(t, "Transcript not found", state.LastError)
	assert.Empty(t, state.ChatID)
	assert.Empty(t, state.Messages)

	_, err = ctrl.Send(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoChat)
}

func TestSubmit_ClearsPreviousError(t *testing.T) {
	f := newFakeBackend()
	f.transcriptErr = errors.New("boom")
	ctrl := newTestController(f)

	state, _ := ctrl.Submit(context.Background(), "https://youtu.be/abc")
	require.Equal(t, "boom", state.LastError)

	f.transcriptErr = nil
	state, err := ctrl.Submit(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	assert.Empty(t, state.LastError)
	assert.Equal(t, PhaseChatActive, state.Phase)
}

func TestSubmit_ResetsHistory(t *testing.T) {
	f := newFakeBackend()
	ctrl := newTestController(f)
	ctx := context.Background()

	_, err := ctrl.Submit(ctx, "https://youtu.be/abc")
	require.NoError(t, err)
	state, err := ctrl.Send(ctx, "What is the video about?")
	require.NoError(t, err)
	require.Len(t, state.Messages, 3)

	f.chatID = "c2"
	state, err = ctrl.Submit(ctx, "https://youtu.be/abc")
	require.NoError(t, err)

	assert.Equal(t, "c2", state.ChatID)
	assert.Equal(t, []Message{{Sender: SenderBot, Text: ReadyMessage}}, state.Messages)
}

func TestSubmit_RejectedWhileLoading(t *testing.T) {
	f := newFakeBackend()
	f.transcriptGate = make(chan struct{})
	ctrl := newTestController(f)

	done := make(chan Session)
	go func() {
		state, _ := ctrl.Submit(context.Background(), "https://youtu.be/first")
		done <- state
	}()
	waitEntered(t, f)

	assert.Equal(t, PhaseLoadingTranscript, ctrl.State().Phase)

	_, err := ctrl.Submit(context.Background(), "https://youtu.be/second")
	assert.ErrorIs(t, err, ErrBusy)

	close(f.transcriptGate)
	state := <-done
	assert.Equal(t, "https://youtu.be/first", state.VideoURL)
	assert.Equal(t, []string{"transcript:https://youtu.be/first", "chat:t1"}, f.Calls())
}

func TestSend_AppendsUserMessageBeforeReply(t *testing.T) {
	f := newFakeBackend()
	ctrl := newTestController(f)
	ctx := context.Background()

	_, err := ctrl.Submit(ctx, "https://youtu.be/abc")
	require.NoError(t, err)

	f.exchangeGate = make(chan struct{})
	done := make(chan Session)
	go func() {
		state, _ := ctrl.Send(ctx, "What is the video about?")
		done <- state
	}()
	waitEntered(t, f)

	inFlight := ctrl.State()
	assert.Equal(t, PhaseSending, inFlight.Phase)
	last, ok := inFlight.LastMessage()
	require.True(t, ok)
	assert.Equal(t, Message{Sender: SenderUser, Text: "What is the video about?"}, last)

	close(f.exchangeGate)
	state := <-done

	assert.Equal(t, PhaseChatActive, state.Phase)
	assert.Equal(t, []Message{
		{Sender: SenderBot, Text: ReadyMessage},
		{Sender: SenderUser, Text: "What is the video about?"},
		{Sender: SenderBot, Text: "It is about Go."},
	}, state.Messages)
	assert.Contains(t, f.Calls(), "exchange:c1:What is the video about?")
}

func TestSend_KeepsTextVerbatim(t *testing.T) {
	f := newFakeBackend()
	ctrl := newTestController(f)
	ctx := context.Background()

	_, err := ctrl.Submit(ctx, "https://youtu.be/abc")
	require.NoError(t, err)

	state, err := ctrl.Send(ctx, "  spaced question?  ")
	require.NoError(t, err)
	assert.Equal(t, "  spaced question?  ", state.Messages[1].Text)
	assert.Contains(t, f.Calls(), "exchange:c1:  spaced question?  ")
}

func TestSend_Failure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "detail from backend", err: &ExchangeError{Message: "Chat not found"}, want: "Chat not found"},
		{name: "no detail", err: &ExchangeError{Err: errors.New("timeout")}, want: DefaultSendError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeBackend()
			ctrl := newTestController(f)
			ctx := context.Background()

			_, err := ctrl.Submit(ctx, "https://youtu.be/abc")
			require.NoError(t, err)

			f.exchangeErr = tt.err
			state, err := ctrl.Send(ctx, "What is the video about?")
			require.NoError(t, err)

			assert.Equal(t, PhaseChatActive, state.Phase)
			assert.Equal(t, tt.want, state.LastError)
			assert.Equal(t, []Message{
				{Sender: SenderBot, Text: ReadyMessage},
				{Sender: SenderUser, Text: "What is the video about?"},
				{Sender: SenderBot, Text: ExchangeFallbackReply},
			}, state.Messages)

			f.exchangeErr = nil
			state, err = ctrl.Send(ctx, "retry")
			require.NoError(t, err)
			assert.Empty(t, state.LastError)
			assert.Len(t, state.Messages, 5)
		})
	}
}

func TestSend_Guards(t *testing.T) {
	ctx := context.Background()

	t.Run("no chat", func(t *testing.T) {
		f := newFakeBackend()
		ctrl := newTestController(f)
		state, err := ctrl.Send(ctx, "hello")
		require.ErrorIs(t, err, ErrNoChat)
		assert.Equal(t, PhaseIdle, state.Phase)
		assert.Empty(t, f.Calls())
	})

	t.Run("blank text", func(t *testing.T) {
		f := newFakeBackend()
		ctrl := newTestController(f)
		_, err := ctrl.Submit(ctx, "https://youtu.be/abc")
		require.NoError(t, err)

		state, err := ctrl.Send(ctx, "   ")
		require.ErrorIs(t, err, ErrBlankInput)
		assert.Len(t, state.Messages, 1)
		assert.Equal(t, PhaseChatActive, state.Phase)
	})
}

func TestSend_WhileSendingIsNoop(t *testing.T) {
	f := newFakeBackend()
	ctrl := newTestController(f)
	ctx := context.Background()

	_, err := ctrl.Submit(ctx, "https://youtu.be/abc")
	require.NoError(t, err)

	f.exchangeGate = make(chan struct{})
	done := make(chan Session)
	go func() {
		state, _ := ctrl.Send(ctx, "first")
		done <- state
	}()
	waitEntered(t, f)

	state, err := ctrl.Send(ctx, "second")
	require.ErrorIs(t, err, ErrBusy)
	assert.Len(t, state.Messages, 2)

	_, err = ctrl.Submit(ctx, "https://youtu.be/other")
	require.ErrorIs(t, err, ErrBusy)

	close(f.exchangeGate)
	state = <-done
	assert.Len(t, state.Messages, 3)
	for _, m := range state.Messages {
		assert.NotEqual(t, "second", m.Text)
	}
}

func TestController_ChatIDOnlyWhileChatting(t *testing.T) {
	f := newFakeBackend()
	var states []Session
	ctrl := newTestController(f, WithObserver(func(s Session) {
		states = append(states, s)
	}))
	ctx := context.Background()

	_, _ = ctrl.Submit(ctx, "https://youtu.be/abc")
	_, _ = ctrl.Send(ctx, "one")
	f.exchangeErr = errors.New("down")
	_, _ = ctrl.Send(ctx, "two")
	f.transcriptErr = errors.New("gone")
	_, _ = ctrl.Submit(ctx, "https://youtu.be/def")

	require.NotEmpty(t, states)
	for _, s := range states {
		chatting := s.Phase == PhaseChatActive || s.Phase == PhaseSending
		assert.Equal(t, chatting, s.ChatID != "", "phase %s chat %q", s.Phase, s.ChatID)
	}
}

func TestController_StatesAreSnapshots(t *testing.T) {
	f := newFakeBackend()
	ctrl := newTestController(f)

	state, err := ctrl.Submit(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)

	state.Messages[0].Text = "tampered"
	assert.Equal(t, ReadyMessage, ctrl.State().Messages[0].Text)
}

func TestResume(t *testing.T) {
	f := newFakeBackend()
	ctrl := newTestController(f)

	history := []Message{
		{Sender: SenderUser, Text: "hi"},
		{Sender: SenderBot, Text: "hello"},
	}
	state, err := ctrl.Resume("c9", "t9", "https://youtu.be/abc", history)
	require.NoError(t, err)
	assert.Equal(t, PhaseChatActive, state.Phase)
	assert.Equal(t, "c9", state.ChatID)
	assert.Equal(t, history, state.Messages)

	state, err = ctrl.Send(context.Background(), "more?")
	require.NoError(t, err)
	assert.Len(t, state.Messages, 4)
	assert.Contains(t, f.Calls(), "exchange:c9:more?")

	_, err = ctrl.Resume(" ", "", "", nil)
	assert.ErrorIs(t, err, ErrBlankInput)
}
