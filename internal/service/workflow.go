package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// WorkflowSummary is the API-facing workflow shape.
type WorkflowSummary struct {
	WorkflowID     string  `json:"id"`
	UserID         string  `json:"user_id"`
	Title          string  `json:"title"`
	Description    *string `json:"description,omitempty"`
	IconName       string  `json:"icon_name"`
	Color          *string `json:"color,omitempty"`
	TranslationKey *string `json:"translation_key,omitempty"`
	IsFavorite     bool    `json:"is_favorite"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      *string `json:"updated_at,omitempty"`
}

type CreateWorkflowInput struct {
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	IconName       string  `json:"icon_name"`
	Color          *string `json:"color"`
	TranslationKey *string `json:"translation_key"`
}

type UpdateWorkflowInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IconName    *string `json:"icon_name"`
	Color       *string `json:"color"`
	IsFavorite  *bool   `json:"is_favorite"`
}

type WorkflowService struct {
	db *sql.DB
}

func NewWorkflowService(db *sql.DB) *WorkflowService {
	return &WorkflowService{db: db}
}

const workflowColumns = `id, user_id, title, description, icon_name, color, translation_key, is_favorite, created_at, updated_at`

func (s *WorkflowService) List(ctx context.Context, userID string) ([]WorkflowSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+workflowColumns+`
		FROM workflows WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkflows(rows)
}

func (s *WorkflowService) Get(ctx context.Context, workflowID, userID string) (*WorkflowSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+workflowColumns+`
		FROM workflows WHERE id = ? AND user_id = ?`, workflowID, userID)
	w, err := scanWorkflow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return w, err
}

func (s *WorkflowService) Create(ctx context.Context, userID string, in CreateWorkflowInput) (*WorkflowSummary, error) {
	iconName := in.IconName
	if iconName == "" {
		iconName = "MessageSquare"
	}
	workflowID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflows (id, user_id, title, description, icon_name, color, translation_key, is_favorite, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		workflowID, userID, in.Title, in.Description, iconName, in.Color, in.TranslationKey, now)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, workflowID, userID)
}

func (s *WorkflowService) Update(ctx context.Context, workflowID, userID string, in UpdateWorkflowInput) (*WorkflowSummary, error) {
	existing, err := s.Get(ctx, workflowID, userID)
	if err != nil || existing == nil {
		return existing, err
	}

	title := existing.Title
	if in.Title != nil {
		title = *in.Title
	}
	description := existing.Description
	if in.Description != nil {
		description = in.Description
	}
	iconName := existing.IconName
	if in.IconName != nil {
		iconName = *in.IconName
	}
	color := existing.Color
	if in.Color != nil {
		color = in.Color
	}
	favorite := 0
	if (in.IsFavorite != nil && *in.IsFavorite) || (in.IsFavorite == nil && existing.IsFavorite) {
		favorite = 1
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE workflows
		SET title = ?, description = ?, icon_name = ?, color = ?, is_favorite = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		title, description, iconName, color, favorite,
		time.Now().UTC().Format(time.RFC3339Nano), workflowID, userID)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, workflowID, userID)
}

func (s *WorkflowService) Delete(ctx context.Context, workflowID, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM workflows WHERE id = ? AND user_id = ?`, workflowID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SeedDefaults installs the stock workflows for a user with none.
func (s *WorkflowService) SeedDefaults(ctx context.Context, userID string) ([]WorkflowSummary, error) {
	existing, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}
	for _, w := range defaultWorkflowSeeds {
		in := w
		if _, err := s.Create(ctx, userID, in); err != nil {
			return nil, err
		}
	}
	return s.List(ctx, userID)
}

func strPtr(s string) *string { return &s }

var defaultWorkflowSeeds = []CreateWorkflowInput{
	{Title: "Chat", Description: strPtr("General purpose conversational assistant"), IconName: "MessageSquare", TranslationKey: strPtr("workflow.chat")},
	{Title: "Document Q&A", Description: strPtr("Ask questions about uploaded documents"), IconName: "FileText", TranslationKey: strPtr("workflow.document_qa")},
	{Title: "Web Research", Description: strPtr("Research topics using live web search"), IconName: "Globe", TranslationKey: strPtr("workflow.web_research")},
	{Title: "Summarize", Description: strPtr("Summarize long documents into key points"), IconName: "ListChecks", TranslationKey: strPtr("workflow.summarize")},
}

func scanWorkflow(row *sql.Row) (*WorkflowSummary, error) {
	var (
		w        WorkflowSummary
		favorite int
	)
	err := row.Scan(&w.WorkflowID, &w.UserID, &w.Title, &w.Description, &w.IconName,
		&w.Color, &w.TranslationKey, &favorite, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	w.IsFavorite = favorite == 1
	return &w, nil
}

func scanWorkflows(rows *sql.Rows) ([]WorkflowSummary, error) {
	out := []WorkflowSummary{}
	for rows.Next() {
		var (
			w        WorkflowSummary
			favorite int
		)
		if err := rows.Scan(&w.WorkflowID, &w.UserID, &w.Title, &w.Description, &w.IconName,
			&w.Color, &w.TranslationKey, &favorite, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		w.IsFavorite = favorite == 1
		out = append(out, w)
	}
	return out, rows.Err()
}
