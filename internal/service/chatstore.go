package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ChatSessionSummary is the API-facing chat session shape. Messages are
// loaded only on single-session reads.
type ChatSessionSummary struct {
	SessionID string        `json:"id"`
	UserID    string        `json:"user_id"`
	Title     string        `json:"title"`
	CreatedAt string        `json:"created_at"`
	Messages  []ChatMessage `json:"messages,omitempty"`
}

type ChatMessage struct {
	MessageID string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ChatStoreService persists chat sessions and their transcripts in SQL.
type ChatStoreService struct {
	db *sql.DB
}

func NewChatStoreService(db *sql.DB) *ChatStoreService {
	return &ChatStoreService{db: db}
}

func (s *ChatStoreService) CreateSession(ctx context.Context, userID, title string) (*ChatSessionSummary, error) {
	if title == "" {
		title = "New Chat"
	}
	sessionID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, user_id, title, created_at)
		VALUES (?, ?, ?, ?)`, sessionID, userID, title, now)
	if err != nil {
		return nil, err
	}
	return &ChatSessionSummary{SessionID: sessionID, UserID: userID, Title: title, CreatedAt: now, Messages: []ChatMessage{}}, nil
}

// ListSessions returns a user's sessions, newest first, without transcripts.
func (s *ChatStoreService) ListSessions(ctx context.Context, userID string) ([]ChatSessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, created_at
		FROM chat_sessions WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ChatSessionSummary{}
	for rows.Next() {
		var c ChatSessionSummary
		if err := rows.Scan(&c.SessionID, &c.UserID, &c.Title, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetSession loads one session with its full ordered transcript.
func (s *ChatStoreService) GetSession(ctx context.Context, sessionID, userID string) (*ChatSessionSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, created_at
		FROM chat_sessions WHERE id = ? AND user_id = ?`, sessionID, userID)
	var c ChatSessionSummary
	err := row.Scan(&c.SessionID, &c.UserID, &c.Title, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, timestamp
		FROM chat_messages WHERE session_id = ? ORDER BY timestamp ASC, id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	c.Messages = []ChatMessage{}
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.MessageID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		c.Messages = append(c.Messages, m)
	}
	return &c, rows.Err()
}

// AddMessage appends one message to a session the user owns.
func (s *ChatStoreService) AddMessage(ctx context.Context, sessionID, userID, role, content string) (*ChatMessage, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM chat_sessions WHERE id = ? AND user_id = ?`,
		sessionID, userID).Scan(&count); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	m := &ChatMessage{
		MessageID: uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, session_id, role, content, timestamp)
		VALUES (?, ?, ?, ?, ?)`, m.MessageID, sessionID, m.Role, m.Content, m.Timestamp)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteSession removes a session and, via cascade, its messages.
func (s *ChatStoreService) DeleteSession(ctx context.Context, sessionID, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_sessions WHERE id = ? AND user_id = ?`, sessionID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
