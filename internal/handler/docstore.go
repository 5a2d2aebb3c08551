package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rohannevrikar/panta-flows-v2/internal/docstore"
	"github.com/rohannevrikar/panta-flows-v2/internal/middleware"
)

// DocStoreHandler exposes the document-store variant of session and workflow
// storage for deployments without a SQL database.
type DocStoreHandler struct {
	store *docstore.Store
}

func NewDocStoreHandler(store *docstore.Store) *DocStoreHandler {
	return &DocStoreHandler{store: store}
}

// GET /api/docstore/sessions?limit=N
func (h *DocStoreHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sessions, err := h.store.ListSessions(r.Context(), user.UserID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// POST /api/docstore/sessions
func (h *DocStoreHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	var in struct {
		Title         string `json:"title"`
		WorkflowID    string `json:"workflow_id"`
		WorkflowTitle string `json:"workflow_title"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	session, err := h.store.CreateSession(r.Context(), user.UserID, in.Title, in.WorkflowID, in.WorkflowTitle)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session": session})
}

// GET /api/docstore/sessions/{session_id}
func (h *DocStoreHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	session, err := h.store.GetSession(r.Context(), chi.URLParam(r, "session_id"), user.UserID)
	if errors.Is(err, docstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

// POST /api/docstore/sessions/{session_id}/messages
func (h *DocStoreHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	var in struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	if in.Role == "" || in.Content == "" {
		writeError(w, http.StatusUnprocessableEntity, "E_VALIDATION", "role and content are required")
		return
	}
	session, err := h.store.AddMessage(r.Context(), chi.URLParam(r, "session_id"), user.UserID, in.Role, in.Content)
	if errors.Is(err, docstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

// DELETE /api/docstore/sessions/{session_id}
func (h *DocStoreHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	err := h.store.DeleteSession(r.Context(), chi.URLParam(r, "session_id"), user.UserID)
	if errors.Is(err, docstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// GET /api/docstore/workflows
func (h *DocStoreHandler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	workflows, err := h.store.SeedDefaultWorkflows(r.Context(), user.ClientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflows": workflows})
}

// POST /api/docstore/workflows
func (h *DocStoreHandler) SaveWorkflow(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	var in docstore.WorkflowDoc
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	if in.Title == "" {
		writeError(w, http.StatusUnprocessableEntity, "E_VALIDATION", "title is required")
		return
	}
	in.ClientID = user.ClientID
	if err := h.store.SaveWorkflow(r.Context(), &in); err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"workflow": in})
}

// DELETE /api/docstore/workflows/{workflow_id}
func (h *DocStoreHandler) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	err := h.store.DeleteWorkflow(r.Context(), chi.URLParam(r, "workflow_id"), user.ClientID)
	if errors.Is(err, docstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "workflow not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
