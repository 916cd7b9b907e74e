package internal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var (
	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}).
			Bold(true)

	botLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}).
			Bold(true)

	errorBannerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}).
				Bold(true)

	dimStyle = lipgloss.NewStyle().Faint(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}).
			Bold(true)
)

// SenderLabel renders the label shown before a message
func SenderLabel(s Sender) string {
	switch s {
	case SenderUser:
		return userLabelStyle.Render("You")
	case SenderSystem:
		return dimStyle.Render("System")
	default:
		return botLabelStyle.Render("Bot")
	}
}

// ErrorBanner renders the session's error line
func ErrorBanner(msg string) string {
	return errorBannerStyle.Render("! " + msg)
}

// Dim renders secondary text
func Dim(s string) string {
	return dimStyle.Render(s)
}

// FormatMessage renders one message for the terminal. Bot replies are
// rendered as markdown when render is true.
func FormatMessage(m Message, render bool) string {
	body := m.Text
	if render && m.Sender == SenderBot {
		if rendered, err := RenderMarkdown(m.Text); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}
	return fmt.Sprintf("%s %s", SenderLabel(m.Sender), body)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// ChatRecordsTable renders locally indexed chats
func ChatRecordsTable(records []ChatRecord) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ChatID,
			r.VideoURL,
			fmt.Sprintf("%d", r.MessageCount),
			humanize.Time(r.UpdatedAt),
		})
	}
	return renderTable(
		[]string{"Chat", "Video", "Messages", "Last active"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}

// ChatsTable renders chats listed by the backend
func ChatsTable(chats []Chat) string {
	rows := make([][]string, 0, len(chats))
	for _, c := range chats {
		rows = append(rows, []string{c.ChatID, c.TranscriptID, humanize.Time(c.CreatedAt)})
	}
	return renderTable([]string{"Chat", "Transcript", "Created"}, rows, nil)
}

// TranscriptsTable renders transcripts listed by the backend
func TranscriptsTable(transcripts []Transcript) string {
	rows := make([][]string, 0, len(transcripts))
	for _, t := range transcripts {
		duration := ""
		if t.Duration > 0 {
			minutes := int(t.Duration / 60)
			seconds := int(t.Duration) % 60
			duration = fmt.Sprintf("%d:%02d", minutes, seconds)
		}
		rows = append(rows, []string{
			t.TranscriptID,
			t.VideoURL,
			t.Language,
			duration,
			humanize.Bytes(uint64(len(t.TranscriptText))),
		})
	}
	return renderTable(
		[]string{"Transcript", "Video", "Language", "Duration", "Size"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
}
