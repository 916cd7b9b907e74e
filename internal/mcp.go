package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Session limits for the MCP server. Sessions idle longer than
// mcpSessionIdle are dropped, and the least recently used one is dropped
// when a new session would exceed mcpMaxSessions.
const (
	mcpSessionIdle = time.Hour
	mcpMaxSessions = 32
)

type mcpSession struct {
	ctrl     *Controller
	lastUsed time.Time
}

// MCPServer exposes video conversations as MCP tools. Each load_video call
// starts a session with its own controller, addressed by a generated id.
type MCPServer struct {
	app       *App
	mcpServer *server.MCPServer
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*mcpSession
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(app *App, version string) *MCPServer {
	mcpServer := server.NewMCPServer(
		"vidchat-server",
		version,
		server.WithToolCapabilities(true),
	)

	s := &MCPServer{
		app:       app,
		mcpServer: mcpServer,
		now:       time.Now,
		sessions:  make(map[string]*mcpSession),
	}

	s.registerTools()

	return s
}

// registerTools registers all available MCP tools
func (s *MCPServer) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("load_video",
		mcp.WithDescription(fmt.Sprintf("Load a YouTube video's transcript and open a chat about it. Returns a session_id to pass to ask_video and get_conversation. Sessions expire after %s without use and at most %d are kept. Loading can take a while for long videos.", mcpSessionIdle, mcpMaxSessions)),
		mcp.WithString("url",
			mcp.Description("YouTube video URL or ID"),
			mcp.Required(),
		),
	), s.handleLoadVideo)

	s.mcpServer.AddTool(mcp.NewTool("ask_video",
		mcp.WithDescription("Ask a question about a loaded video. Answers are grounded in the video's transcript and earlier questions in the same session."),
		mcp.WithString("session_id",
			mcp.Description("Session id returned by load_video"),
			mcp.Required(),
		),
		mcp.WithString("question",
			mcp.Description("Question about the video content"),
			mcp.Required(),
		),
	), s.handleAskVideo)

	s.mcpServer.AddTool(mcp.NewTool("get_conversation",
		mcp.WithDescription("Return the full conversation of a session."),
		mcp.WithString("session_id",
			mcp.Description("Session id returned by load_video"),
			mcp.Required(),
		),
		mcp.WithString("format",
			mcp.Description("Output format: md (default), json, yaml or text"),
		),
	), s.handleGetConversation)
}

func (s *MCPServer) session(id string) (*Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastUsed = s.now()
	return sess.ctrl, true
}

// addSession registers ctrl under id after evicting idle sessions and, at
// the limit, the least recently used one. Busy sessions are never evicted.
func (s *MCPServer) addSession(id string, ctrl *Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for sid, sess := range s.sessions {
		if now.Sub(sess.lastUsed) > mcpSessionIdle && !sess.ctrl.State().Phase.Busy() {
			delete(s.sessions, sid)
			MCPLogInfo("session %s: evicted after being idle", sid)
		}
	}

	for len(s.sessions) >= mcpMaxSessions {
		oldest := ""
		for sid, sess := range s.sessions {
			if sess.ctrl.State().Phase.Busy() {
				continue
			}
			if oldest == "" || sess.lastUsed.Before(s.sessions[oldest].lastUsed) {
				oldest = sid
			}
		}
		if oldest == "" {
			break
		}
		delete(s.sessions, oldest)
		MCPLogInfo("session %s: evicted to stay under %d sessions", oldest, mcpMaxSessions)
	}

	s.sessions[id] = &mcpSession{ctrl: ctrl, lastUsed: now}
}

// handleLoadVideo implements the load_video tool
func (s *MCPServer) handleLoadVideo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}

	videoURL, _ := ParseArg(url)
	id := uuid.New().String()
	ctrl := s.app.NewController()

	MCPLogInfo("session %s: loading %s", id, videoURL)
	state, err := ctrl.Submit(ctx, videoURL)
	if err != nil {
		MCPLogError("session %s: %v", id, err)
		return mcp.NewToolResultErrorFromErr("could not load video", err), nil
	}
	if !state.ChatStarted() {
		MCPLogError("session %s: %s", id, state.LastError)
		return mcp.NewToolResultError(state.LastError), nil
	}

	s.addSession(id, ctrl)
	MCPLogInfo("session %s: chat %s ready", id, state.ChatID)

	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("Session ID: %s\n", id))
	buf.WriteString(fmt.Sprintf("Chat ID: %s\n", state.ChatID))
	buf.WriteString(fmt.Sprintf("Transcript ID: %s\n", state.TranscriptID))
	if msg, ok := state.LastMessage(); ok {
		buf.WriteString(msg.Text + "\n")
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(buf.String())},
	}, nil
}

// handleAskVideo implements the ask_video tool
func (s *MCPServer) handleAskVideo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required and must be a string"), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question parameter is required and must be a string"), nil
	}

	ctrl, ok := s.session(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown or expired session %q - call load_video first", id)), nil
	}

	MCPLogDebug("session %s: asking %q", id, question)
	state, err := ctrl.Send(ctx, question)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("could not send question", err), nil
	}
	if state.LastError != "" {
		MCPLogError("session %s: %s", id, state.LastError)
		return mcp.NewToolResultError(state.LastError), nil
	}

	reply, _ := state.LastMessage()
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(reply.Text)},
	}, nil
}

// handleGetConversation implements the get_conversation tool
func (s *MCPServer) handleGetConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required and must be a string"), nil
	}

	format, err := ParseExportFormat(request.GetString("format", string(FormatMarkdown)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ctrl, ok := s.session(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown or expired session %q - call load_video first", id)), nil
	}

	content, err := ConversationFromSession(ctrl.State()).Export(format)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("export error", err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(content)},
	}, nil
}

// Start starts the MCP server using the specified transport. The HTTP
// transport shuts down gracefully when ctx is cancelled.
func (s *MCPServer) Start(ctx context.Context, transport string, port int) error {
	MCPLogInfo("starting server (transport=%s)", transport)

	if transport == "http" {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			return fmt.Errorf("listening on port %d: %w", port, err)
		}
		return s.serveHTTP(ctx, ln)
	}

	return server.ServeStdio(s.mcpServer)
}

// serveHTTP serves the streamable HTTP transport on ln until ctx is done
func (s *MCPServer) serveHTTP(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           server.NewStreamableHTTPServer(s.mcpServer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	MCPLogInfo("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// GetServer returns the underlying MCP server for advanced configuration
func (s *MCPServer) GetServer() *server.MCPServer {
	return s.mcpServer
}
