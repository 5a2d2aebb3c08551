package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// History statuses follow the processing lifecycle of a workflow run.
const (
	HistoryStatusProcessing = "processing"
	HistoryStatusCompleted  = "completed"
	HistoryStatusFailed     = "failed"
)

// HistorySummary is the API-facing history entry shape.
type HistorySummary struct {
	HistoryID    string  `json:"id"`
	UserID       string  `json:"user_id"`
	WorkflowID   string  `json:"workflow_id"`
	Title        string  `json:"title"`
	WorkflowType string  `json:"workflow_type"`
	IconName     string  `json:"icon_name"`
	Status       string  `json:"status"`
	Content      *string `json:"content,omitempty"`
	IsFavorite   bool    `json:"is_favorite"`
	Timestamp    string  `json:"timestamp"`
}

type CreateHistoryInput struct {
	WorkflowID   string  `json:"workflow_id"`
	Title        string  `json:"title"`
	WorkflowType string  `json:"workflow_type"`
	IconName     string  `json:"icon_name"`
	Content      *string `json:"content"`
}

type UpdateHistoryInput struct {
	Title      *string `json:"title"`
	Status     *string `json:"status"`
	Content    *string `json:"content"`
	IsFavorite *bool   `json:"is_favorite"`
}

type HistoryService struct {
	db *sql.DB
}

func NewHistoryService(db *sql.DB) *HistoryService {
	return &HistoryService{db: db}
}

const historyColumns = `id, user_id, workflow_id, title, workflow_type, icon_name, status, content, is_favorite, timestamp`

// List returns a user's history entries, newest first, optionally filtered
// by workflow.
func (s *HistoryService) List(ctx context.Context, userID, workflowID string) ([]HistorySummary, error) {
	query := `SELECT ` + historyColumns + ` FROM history_items WHERE user_id = ? ORDER BY timestamp DESC`
	args := []any{userID}
	if workflowID != "" {
		query = `SELECT ` + historyColumns + ` FROM history_items WHERE user_id = ? AND workflow_id = ? ORDER BY timestamp DESC`
		args = append(args, workflowID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []HistorySummary{}
	for rows.Next() {
		var (
			h        HistorySummary
			favorite int
		)
		if err := rows.Scan(&h.HistoryID, &h.UserID, &h.WorkflowID, &h.Title, &h.WorkflowType,
			&h.IconName, &h.Status, &h.Content, &favorite, &h.Timestamp); err != nil {
			return nil, err
		}
		h.IsFavorite = favorite == 1
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *HistoryService) Get(ctx context.Context, historyID, userID string) (*HistorySummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+historyColumns+`
		FROM history_items WHERE id = ? AND user_id = ?`, historyID, userID)
	var (
		h        HistorySummary
		favorite int
	)
	err := row.Scan(&h.HistoryID, &h.UserID, &h.WorkflowID, &h.Title, &h.WorkflowType,
		&h.IconName, &h.Status, &h.Content, &favorite, &h.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	h.IsFavorite = favorite == 1
	return &h, nil
}

func (s *HistoryService) Create(ctx context.Context, userID string, in CreateHistoryInput) (*HistorySummary, error) {
	iconName := in.IconName
	if iconName == "" {
		iconName = "MessageSquare"
	}
	historyID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history_items (id, user_id, workflow_id, title, workflow_type, icon_name, status, content, is_favorite, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		historyID, userID, in.WorkflowID, in.Title, in.WorkflowType, iconName,
		HistoryStatusProcessing, in.Content, now)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, historyID, userID)
}

func (s *HistoryService) Update(ctx context.Context, historyID, userID string, in UpdateHistoryInput) (*HistorySummary, error) {
	existing, err := s.Get(ctx, historyID, userID)
	if err != nil || existing == nil {
		return existing, err
	}

	title := existing.Title
	if in.Title != nil {
		title = *in.Title
	}
	status := existing.Status
	if in.Status != nil {
		status = *in.Status
	}
	content := existing.Content
	if in.Content != nil {
		content = in.Content
	}
	favorite := 0
	if (in.IsFavorite != nil && *in.IsFavorite) || (in.IsFavorite == nil && existing.IsFavorite) {
		favorite = 1
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE history_items
		SET title = ?, status = ?, content = ?, is_favorite = ?
		WHERE id = ? AND user_id = ?`,
		title, status, content, favorite, historyID, userID)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, historyID, userID)
}

func (s *HistoryService) Delete(ctx context.Context, historyID, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM history_items WHERE id = ? AND user_id = ?`, historyID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
