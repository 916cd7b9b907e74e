package internal

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// mcpLog is the MCP server's side channel; stdout carries the protocol.
var mcpLog struct {
	mu     sync.Mutex
	logger *log.Logger
	debug  bool
}

// setMCPLogOutput routes MCP logging to w, or switches it off when w is nil
func setMCPLogOutput(w io.Writer, debug bool) {
	mcpLog.mu.Lock()
	defer mcpLog.mu.Unlock()

	mcpLog.debug = debug
	if w == nil {
		mcpLog.logger = nil
		return
	}
	mcpLog.logger = log.New(w, "", log.LstdFlags|log.Lmicroseconds)
}

// InitMCPLogging opens the MCP log file when enabled in config. The returned
// func closes it. Logging stays off when the file cannot be opened.
func InitMCPLogging(config *Config) func() error {
	noop := func() error { return nil }
	if !config.MCPLogEnabled {
		setMCPLogOutput(nil, false)
		return noop
	}

	path := config.MCPLogFile()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return noop
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return noop
	}

	setMCPLogOutput(f, config.MCPLogDebug)
	return func() error {
		setMCPLogOutput(nil, false)
		return f.Close()
	}
}

func mcpLogf(level, format string, args ...any) {
	mcpLog.mu.Lock()
	defer mcpLog.mu.Unlock()

	if mcpLog.logger == nil || (level == "DEBUG" && !mcpLog.debug) {
		return
	}
	mcpLog.logger.Printf("[MCP] [%s] "+format, append([]any{level}, args...)...)
}

// MCPLogInfo logs an info message
func MCPLogInfo(format string, args ...any) {
	mcpLogf("INFO", format, args...)
}

// MCPLogError logs an error message
func MCPLogError(format string, args ...any) {
	mcpLogf("ERROR", format, args...)
}

// MCPLogDebug logs a debug message when mcp_log_debug is set
func MCPLogDebug(format string, args ...any) {
	mcpLogf("DEBUG", format, args...)
}
