package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a document id does not exist.
var ErrNotFound = errors.New("document not found")

// Message is one stored conversation entry inside a session document.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// SessionDoc is a chat session stored as one JSON document, partitioned by
// the owning user id.
type SessionDoc struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Title         string    `json:"title"`
	WorkflowID    string    `json:"workflowId,omitempty"`
	WorkflowTitle string    `json:"workflowTitle,omitempty"`
	Messages      []Message `json:"messages"`
	CreatedAt     string    `json:"createdAt"`
	UpdatedAt     string    `json:"updatedAt"`
}

// WorkflowDoc mirrors the relational workflow shape for deployments that
// run on the document store instead.
type WorkflowDoc struct {
	ID                   string   `json:"id"`
	ClientID             string   `json:"clientId"`
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Icon                 string   `json:"icon"`
	SystemPrompt         string   `json:"systemPrompt,omitempty"`
	ConversationStarters []string `json:"conversationStarters,omitempty"`
	IsDefault            bool     `json:"isDefault"`
	CreatedAt            string   `json:"createdAt"`
	UpdatedAt            string   `json:"updatedAt"`
}

// Store keeps session and workflow documents in Redis. Each document is one
// JSON value; per-user and per-client sorted sets index them by update time
// so listings come back newest first.
type Store struct {
	rdb *redis.Client
	now func() time.Time
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, now: time.Now}
}

func sessionKey(id string) string          { return "session:" + id }
func userSessionsKey(userID string) string { return "user_sessions:" + userID }
func workflowKey(id string) string         { return "workflow:" + id }
func clientWorkflowsKey(clientID string) string {
	return "client_workflows:" + clientID
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// CreateSession stores a new session document owned by userID, optionally
// bound to the workflow it was started from.
func (s *Store) CreateSession(ctx context.Context, userID, title, workflowID, workflowTitle string) (*SessionDoc, error) {
	now := s.timestamp()
	doc := &SessionDoc{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         title,
		WorkflowID:    workflowID,
		WorkflowTitle: workflowTitle,
		Messages:      []Message{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.putSession(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) putSession(ctx context.Context, doc *SessionDoc) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	updated, err := time.Parse(time.RFC3339Nano, doc.UpdatedAt)
	if err != nil {
		updated = s.now()
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(doc.ID), encoded, 0)
	pipe.ZAdd(ctx, userSessionsKey(doc.UserID), redis.Z{
		Score:  float64(updated.UnixNano()),
		Member: doc.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// GetSession loads one session document and verifies ownership.
func (s *Store) GetSession(ctx context.Context, id, userID string) (*SessionDoc, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var doc SessionDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if doc.UserID != userID {
		return nil, ErrNotFound
	}
	return &doc, nil
}

// AddMessage appends one message to the session transcript and bumps its
// update time, which moves the session to the top of the listing.
func (s *Store) AddMessage(ctx context.Context, id, userID, role, content string) (*SessionDoc, error) {
	doc, err := s.GetSession(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	now := s.timestamp()
	doc.Messages = append(doc.Messages, Message{Role: role, Content: content, Timestamp: now})
	doc.UpdatedAt = now
	if err := s.putSession(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListSessions returns the user's sessions ordered by most recent update.
func (s *Store) ListSessions(ctx context.Context, userID string, limit int) ([]SessionDoc, error) {
	if limit <= 0 {
		limit = 50
	}
	ids, err := s.rdb.ZRevRange(ctx, userSessionsKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]SessionDoc, 0, len(ids))
	for _, id := range ids {
		doc, err := s.GetSession(ctx, id, userID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, nil
}

// DeleteSession removes a session and its index entry.
func (s *Store) DeleteSession(ctx context.Context, id, userID string) error {
	if _, err := s.GetSession(ctx, id, userID); err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.ZRem(ctx, userSessionsKey(userID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SaveWorkflow upserts a workflow document for a client.
func (s *Store) SaveWorkflow(ctx context.Context, doc *WorkflowDoc) error {
	now := s.timestamp()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode workflow: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, workflowKey(doc.ID), encoded, 0)
	pipe.ZAdd(ctx, clientWorkflowsKey(doc.ClientID), redis.Z{
		Score:  float64(s.now().UnixNano()),
		Member: doc.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store workflow: %w", err)
	}
	return nil
}

// ListWorkflows returns a client's workflows, most recently updated first.
func (s *Store) ListWorkflows(ctx context.Context, clientID string) ([]WorkflowDoc, error) {
	ids, err := s.rdb.ZRevRange(ctx, clientWorkflowsKey(clientID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	out := make([]WorkflowDoc, 0, len(ids))
	for _, id := range ids {
		raw, err := s.rdb.Get(ctx, workflowKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load workflow: %w", err)
		}
		var doc WorkflowDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode workflow: %w", err)
		}
		out = append(out, doc)
	}
	return out, nil
}

// DeleteWorkflow removes a workflow document and its index entry. The
// document must belong to clientID.
func (s *Store) DeleteWorkflow(ctx context.Context, id, clientID string) error {
	raw, err := s.rdb.Get(ctx, workflowKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load workflow: %w", err)
	}
	var doc WorkflowDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode workflow: %w", err)
	}
	if doc.ClientID != clientID {
		return ErrNotFound
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, workflowKey(id))
	pipe.ZRem(ctx, clientWorkflowsKey(clientID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	return nil
}

// SeedDefaultWorkflows installs the stock workflow set for a client that has
// none yet. Returns the workflows present afterwards.
func (s *Store) SeedDefaultWorkflows(ctx context.Context, clientID string) ([]WorkflowDoc, error) {
	existing, err := s.ListWorkflows(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}
	for _, w := range defaultWorkflows {
		doc := w
		doc.ClientID = clientID
		if err := s.SaveWorkflow(ctx, &doc); err != nil {
			return nil, err
		}
	}
	return s.ListWorkflows(ctx, clientID)
}

var defaultWorkflows = []WorkflowDoc{
	{
		Title:                "Chat",
		Description:          "General purpose conversational assistant",
		Icon:                 "chat",
		SystemPrompt:         "You are a helpful assistant.",
		ConversationStarters: []string{"What can you help me with?"},
		IsDefault:            true,
	},
	{
		Title:                "Document Q&A",
		Description:          "Ask questions about uploaded documents",
		Icon:                 "description",
		SystemPrompt:         "Answer using the uploaded documents. Cite the files you used.",
		ConversationStarters: []string{"Summarize the uploaded document", "What does the contract say about termination?"},
		IsDefault:            true,
	},
	{
		Title:                "Web Research",
		Description:          "Research topics using live web search",
		Icon:                 "travel_explore",
		SystemPrompt:         "Research the question using web search and cite your sources.",
		ConversationStarters: []string{"What happened in tech news this week?"},
		IsDefault:            true,
	},
	{
		Title:                "Summarize",
		Description:          "Summarize long documents into key points",
		Icon:                 "summarize",
		SystemPrompt:         "Produce a concise bullet point summary.",
		ConversationStarters: []string{"Summarize this text for me"},
		IsDefault:            true,
	},
}
