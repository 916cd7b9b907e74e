package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrChatNotFound is returned when a chat is not in the local index
var ErrChatNotFound = errors.New("chat not found in local index")

// ChatRecord is a chat started from this machine
type ChatRecord struct {
	ChatID       string
	TranscriptID string
	VideoURL     string
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ChatIndex is a small sqlite database of chats started locally, so they can
// be listed and resumed without asking the backend
type ChatIndex struct {
	db   *sql.DB
	path string
}

// timestampLayout is fixed width so stored times sort as strings
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const chatIndexSchema = `
CREATE TABLE IF NOT EXISTS chats (
    chat_id       TEXT PRIMARY KEY,
    transcript_id TEXT NOT NULL DEFAULT '',
    video_url     TEXT NOT NULL DEFAULT '',
    message_count INTEGER NOT NULL DEFAULT 0,
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chats_updated_at ON chats(updated_at);
`

// OpenChatIndex opens (creating if needed) the index at path
func OpenChatIndex(path string) (*ChatIndex, error) {
	if err := EnsureDirs(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(chatIndexSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &ChatIndex{db: db, path: path}, nil
}

// Close closes the underlying database connection
func (s *ChatIndex) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts or updates a chat
func (s *ChatIndex) Record(ctx context.Context, rec ChatRecord) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (chat_id, transcript_id, video_url, message_count, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(chat_id) DO UPDATE SET
             transcript_id = CASE WHEN excluded.transcript_id != '' THEN excluded.transcript_id ELSE chats.transcript_id END,
             video_url     = CASE WHEN excluded.video_url != '' THEN excluded.video_url ELSE chats.video_url END,
             message_count = excluded.message_count,
             updated_at    = excluded.updated_at`,
		rec.ChatID,
		rec.TranscriptID,
		rec.VideoURL,
		rec.MessageCount,
		rec.CreatedAt.UTC().Format(timestampLayout),
		now.Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("recording chat %s: %w", rec.ChatID, err)
	}
	return nil
}

// Get returns one chat
func (s *ChatIndex) Get(ctx context.Context, chatID string) (*ChatRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT chat_id, transcript_id, video_url, message_count, created_at, updated_at
         FROM chats WHERE chat_id = ?`, chatID)
	rec, err := scanChatRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Recent returns up to limit chats, most recently active first
func (s *ChatIndex) Recent(ctx context.Context, limit int) ([]ChatRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, transcript_id, video_url, message_count, created_at, updated_at
         FROM chats ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	defer rows.Close()

	var records []ChatRecord
	for rows.Next() {
		rec, err := scanChatRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Delete removes a chat from the index
func (s *ChatIndex) Delete(ctx context.Context, chatID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("deleting chat %s: %w", chatID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChatRecord(row rowScanner) (*ChatRecord, error) {
	var (
		rec                  ChatRecord
		createdAt, updatedAt string
	)
	if err := row.Scan(&rec.ChatID, &rec.TranscriptID, &rec.VideoURL, &rec.MessageCount, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if rec.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(timestampLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &rec, nil
}

// Recorder returns a SessionObserver recording every settled chat state
func (s *ChatIndex) Recorder(ui UIManager) SessionObserver {
	return func(state Session) {
		if state.ChatID == "" || state.Phase != PhaseChatActive {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := s.Record(ctx, ChatRecord{
			ChatID:       state.ChatID,
			TranscriptID: state.TranscriptID,
			VideoURL:     state.VideoURL,
			MessageCount: len(state.Messages),
		})
		if err != nil && ui != nil {
			ui.Verbose("Warning: %v\n", err)
		}
	}
}
