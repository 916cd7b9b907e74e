package internal

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var youtubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseArg normalizes a video argument into the URL sent to the backend and
// the YouTube video ID when one can be determined. Bare IDs are expanded to
// watch URLs; other inputs are passed through trimmed.
func ParseArg(arg string) (string, string) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", ""
	}

	if strings.HasPrefix(arg, "https://") || strings.HasPrefix(arg, "http://") {
		videoID, err := getVideoID(arg)
		if err != nil {
			return arg, ""
		}
		return arg, videoID
	}

	if IsValidYouTubeID(arg) {
		return "https://www.youtube.com/watch?v=" + arg, arg
	}

	return arg, ""
}

// getVideoID extracts the video ID from a YouTube URL
func getVideoID(youtubeURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(youtubeURL))
	if err != nil {
		return "", fmt.Errorf("parsing URL: %w", err)
	}

	switch u.Host {
	case "www.youtube.com", "youtube.com", "m.youtube.com", "youtu.be":
	default:
		return "", fmt.Errorf("not a YouTube URL: %s", youtubeURL)
	}

	if v := u.Query().Get("v"); v != "" {
		return v, nil
	}

	if strings.Contains(u.Path, "/playlist") {
		return "", fmt.Errorf("this is a playlist URL, not a video URL: %s", youtubeURL)
	}

	parts := strings.Split(u.Path, "/")
	if len(parts) > 0 && parts[len(parts)-1] != "" {
		return parts[len(parts)-1], nil
	}

	return "", fmt.Errorf("could not extract video ID from URL: %s", youtubeURL)
}

// IsValidYouTubeID checks if a string looks like a valid YouTube video ID
func IsValidYouTubeID(id string) bool {
	return youtubeIDPattern.MatchString(id)
}

// IsLikelyCommand checks if a string looks like it might be a mistyped command
func IsLikelyCommand(arg string) bool {
	if strings.Contains(arg, "://") || strings.Contains(arg, ".") {
		return false
	}
	return len(arg) <= 10 && !IsValidYouTubeID(arg)
}

// AskUser is a variable that holds the function for asking user confirmation
// This allows it to be replaced in tests
var AskUser = func(message string) bool {
	response, err := ReadLine(message + " (y/N): ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		return false
	}
	return strings.HasPrefix(strings.ToLower(response), "y")
}

// stdinReader is shared so buffered input survives across prompts
var stdinReader = bufio.NewReader(os.Stdin)

// ReadLine prompts for a single line on stdin
func ReadLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := stdinReader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadPassword prompts for a secret without echo when stdin is a terminal
func ReadPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ReadLine(prompt)
	}

	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(secret), nil
}

// getTerminalWidth gets terminal width with fallback
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}

	if width > 10 {
		return width - 4
	}

	return width
}

// RenderMarkdown renders markdown content with glamour
func RenderMarkdown(content string) (string, error) {
	width := getTerminalWidth()
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithColorProfile(termenv.EnvColorProfile()),
	)
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}

	renderedContent, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	return renderedContent, nil
}

// FileExists checks if a file exists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

// EnsureDirs creates directories if needed
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if !FileExists(dir) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateModel checks if the model is supported for direct answers
func ValidateModel(model string) error {
	supportedModels := []string{"gpt-4o", "gpt-4o-mini", "gpt-4.1", "gpt-4.1-mini", "gpt-4.1-nano", "o4-mini"}
	if slices.Contains(supportedModels, model) {
		return nil
	}
	return fmt.Errorf("unsupported model: %s (supported: %s)", model, strings.Join(supportedModels, ", "))
}

// ValidateProvider checks the backend LLM provider name
func ValidateProvider(provider string) error {
	supported := []string{"claude", "openai"}
	if slices.Contains(supported, provider) {
		return nil
	}
	return fmt.Errorf("unsupported provider: %s (supported: %s)", provider, strings.Join(supported, ", "))
}

// ValidateOpenAIAPIKey checks if the OpenAI API key is set and returns a standardized error if not
func ValidateOpenAIAPIKey(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("OpenAI API key is required for direct answers - set it in config.toml or OPENAI_API_KEY environment variable")
	}
	return nil
}
