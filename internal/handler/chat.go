package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rohannevrikar/panta-flows-v2/internal/chat"
	"github.com/rohannevrikar/panta-flows-v2/internal/llm"
	"github.com/rohannevrikar/panta-flows-v2/internal/middleware"
	"github.com/rohannevrikar/panta-flows-v2/internal/service"
)

// ChatHandler covers persisted chat sessions and the conversational message
// endpoint that runs the tool-augmented completion.
type ChatHandler struct {
	store        *service.ChatStoreService
	orchestrator *chat.Orchestrator
}

func NewChatHandler(store *service.ChatStoreService, orchestrator *chat.Orchestrator) *ChatHandler {
	return &ChatHandler{store: store, orchestrator: orchestrator}
}

// GET /api/chat/sessions
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	sessions, err := h.store.ListSessions(r.Context(), user.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// POST /api/chat/sessions
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	var in struct {
		Title string `json:"title"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	session, err := h.store.CreateSession(r.Context(), user.UserID, in.Title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session": session})
}

// GET /api/chat/sessions/{session_id}
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	session, err := h.store.GetSession(r.Context(), chi.URLParam(r, "session_id"), user.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

// DELETE /api/chat/sessions/{session_id}
func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	deleted, err := h.store.DeleteSession(r.Context(), chi.URLParam(r, "session_id"), user.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// POST /api/chat/message
// Runs one tool-augmented completion over the session transcript and
// persists both sides of the exchange.
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())

	var in struct {
		SessionID string   `json:"session_id"`
		Message   string   `json:"message"`
		FileIDs   []string `json:"file_ids"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	if in.Message == "" {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "message is required")
		return
	}

	var session *service.ChatSessionSummary
	var err error
	if in.SessionID == "" {
		title := in.Message
		if runes := []rune(title); len(runes) > 60 {
			title = string(runes[:60])
		}
		session, err = h.store.CreateSession(r.Context(), user.UserID, title)
	} else {
		session, err = h.store.GetSession(r.Context(), in.SessionID, user.UserID)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "session not found")
		return
	}

	transcript := make([]llm.ChatTurn, 0, len(session.Messages)+1)
	for _, m := range session.Messages {
		transcript = append(transcript, llm.ChatTurn{Role: m.Role, Content: m.Content})
	}
	transcript = append(transcript, llm.ChatTurn{Role: llm.RoleUser, Content: in.Message})

	result, err := h.orchestrator.Complete(r.Context(), chat.Request{
		Messages: transcript,
		FileIDs:  in.FileIDs,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, "E_UPSTREAM", err.Error())
		return
	}

	userMsg, err := h.store.AddMessage(r.Context(), session.SessionID, user.UserID, llm.RoleUser, in.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if userMsg == nil {
		// Session vanished between the completion and the write.
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "session not found")
		return
	}
	assistantMsg, err := h.store.AddMessage(r.Context(), session.SessionID, user.UserID, llm.RoleAssistant, result.Content)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if assistantMsg == nil {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "session not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": session.SessionID,
		"content":    result.Content,
		"tools_used": result.ToolsUsed,
		"usage":      result.Usage,
	})
}

// CompletionHandler exposes the raw two-phase completion without session
// persistence, for clients that manage their own transcripts.
type CompletionHandler struct {
	orchestrator *chat.Orchestrator
}

func NewCompletionHandler(orchestrator *chat.Orchestrator) *CompletionHandler {
	return &CompletionHandler{orchestrator: orchestrator}
}

// POST /api/chat/completions
func (h *CompletionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var in chat.Request
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	result, err := h.orchestrator.Complete(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusBadGateway, "E_UPSTREAM", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
