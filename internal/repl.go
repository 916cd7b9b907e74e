package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
)

const replHelp = `Commands:
  /video <url>            start a new conversation about another video
  /copy                   copy the last reply to the clipboard
  /export <file> [format] write the conversation to a file (md, json, yaml, text)
  /history                print the conversation so far
  /quit                   leave the chat`

// ChatREPL drives one conversation on the terminal with line editing and
// persistent input history
type ChatREPL struct {
	app         *App
	ctrl        *Controller
	line        *liner.State
	historyFile string
	out         io.Writer
	render      bool
	shown       int
}

// NewChatREPL creates a REPL around ctrl. Close must be called to restore
// the terminal and save history.
func (app *App) NewChatREPL(ctrl *Controller) *ChatREPL {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &ChatREPL{
		app:         app,
		ctrl:        ctrl,
		line:        line,
		historyFile: app.config.HistoryFile(),
		out:         os.Stdout,
		render:      isatty.IsTerminal(os.Stdout.Fd()),
	}
	r.loadHistory()
	return r
}

func (r *ChatREPL) loadHistory() {
	if f, err := os.Open(r.historyFile); err == nil {
		_, _ = r.line.ReadHistory(f)
		f.Close()
	}
}

func (r *ChatREPL) saveHistory() {
	if err := EnsureDirs(filepath.Dir(r.historyFile)); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = r.line.WriteHistory(f)
}

// Close saves history and restores the terminal
func (r *ChatREPL) Close() error {
	r.saveHistory()
	return r.line.Close()
}

func (r *ChatREPL) readInput(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return strings.TrimSpace(input), nil
}

// Run loads videoURL (asking for one when empty and no chat is attached)
// and then reads questions until the user quits
func (r *ChatREPL) Run(ctx context.Context, videoURL string) error {
	state := r.ctrl.State()
	if state.ChatStarted() {
		r.printHeader(state)
		r.show(state, true)
	} else if ok, err := r.load(ctx, videoURL); err != nil || !ok {
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := r.readInput(promptStyle.Render("you> "))
		if err != nil {
			fmt.Fprintln(r.out)
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := r.command(ctx, input)
			if err != nil {
				fmt.Fprintln(os.Stderr, ErrorBanner(err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		state, err := r.app.Ask(ctx, r.ctrl, input)
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorBanner(err.Error()))
			continue
		}
		r.show(state, false)
	}
}

// load submits videoURL, prompting again after each failure. It returns
// false when the user gives up.
func (r *ChatREPL) load(ctx context.Context, videoURL string) (bool, error) {
	for {
		if strings.TrimSpace(videoURL) == "" {
			input, err := r.readInput(promptStyle.Render("video> "))
			if err != nil {
				fmt.Fprintln(r.out)
				if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
					return false, nil
				}
				return false, err
			}
			if input == "/quit" || input == "/exit" {
				return false, nil
			}
			videoURL = input
			if videoURL == "" {
				continue
			}
		}

		r.shown = 0
		state, err := r.app.StartChat(ctx, r.ctrl, videoURL)
		if err != nil {
			return false, err
		}
		if state.ChatStarted() {
			r.printHeader(state)
			r.show(state, false)
			return true, nil
		}

		fmt.Fprintln(os.Stderr, ErrorBanner(state.LastError))
		if ctx.Err() != nil {
			return false, nil
		}
		videoURL = ""
	}
}

func (r *ChatREPL) printHeader(state Session) {
	header := "Chat " + state.ChatID
	if state.VideoURL != "" {
		header += " on " + state.VideoURL
	}
	fmt.Fprintln(r.out, Dim(header+" (type /help for commands)"))
}

// show prints the messages added since the last call. The user's own
// messages are already on screen unless includeUser is set.
func (r *ChatREPL) show(state Session, includeUser bool) {
	if r.shown > len(state.Messages) {
		r.shown = 0
	}
	for _, m := range state.Messages[r.shown:] {
		if m.Sender == SenderUser && !includeUser {
			continue
		}
		fmt.Fprintln(r.out, FormatMessage(m, r.render))
	}
	r.shown = len(state.Messages)

	if state.LastError != "" {
		fmt.Fprintln(os.Stderr, ErrorBanner(state.LastError))
	}
}

// command runs a slash command and reports whether the REPL should exit
func (r *ChatREPL) command(ctx context.Context, input string) (bool, error) {
	fields := strings.Fields(input)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/quit", "/exit", "/q":
		return true, nil

	case "/help", "/?":
		fmt.Fprintln(r.out, replHelp)
		return false, nil

	case "/video":
		if len(args) == 0 {
			return false, fmt.Errorf("usage: /video <url>")
		}
		ok, err := r.load(ctx, args[0])
		return !ok, err

	case "/copy":
		state := r.ctrl.State()
		for i := len(state.Messages) - 1; i >= 0; i-- {
			if state.Messages[i].Sender == SenderBot {
				if err := clipboard.WriteAll(state.Messages[i].Text); err != nil {
					return false, fmt.Errorf("copying to clipboard: %w", err)
				}
				fmt.Fprintln(r.out, Dim("Reply copied to clipboard"))
				return false, nil
			}
		}
		return false, fmt.Errorf("nothing to copy yet")

	case "/export":
		if len(args) == 0 {
			return false, fmt.Errorf("usage: /export <file> [format]")
		}
		return false, r.export(args[0], args[1:])

	case "/history":
		r.shown = 0
		r.show(r.ctrl.State(), true)
		return false, nil

	default:
		return false, fmt.Errorf("unknown command %s (type /help)", name)
	}
}

func (r *ChatREPL) export(path string, args []string) error {
	formatName := strings.TrimPrefix(filepath.Ext(path), ".")
	if len(args) > 0 {
		formatName = args[0]
	}
	format, err := ParseExportFormat(formatName)
	if err != nil {
		return err
	}

	state := r.ctrl.State()
	if !state.ChatStarted() {
		return ErrNoChat
	}

	content, err := ConversationFromSession(state).Export(format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintln(r.out, Dim("Conversation written to "+path))
	return nil
}
