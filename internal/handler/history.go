package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rohannevrikar/panta-flows-v2/internal/middleware"
	"github.com/rohannevrikar/panta-flows-v2/internal/service"
)

type HistoryHandler struct {
	svc *service.HistoryService
}

func NewHistoryHandler(svc *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// GET /api/history?workflow_id=...
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	items, err := h.svc.List(r.Context(), user.UserID, r.URL.Query().Get("workflow_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": items})
}

// POST /api/history
func (h *HistoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	var in service.CreateHistoryInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	if in.WorkflowID == "" || in.Title == "" {
		writeError(w, http.StatusUnprocessableEntity, "E_VALIDATION", "workflow_id and title are required")
		return
	}
	item, err := h.svc.Create(r.Context(), user.UserID, in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"item": item})
}

// PATCH /api/history/{history_id}
func (h *HistoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	var in service.UpdateHistoryInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	item, err := h.svc.Update(r.Context(), chi.URLParam(r, "history_id"), user.UserID, in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "history item not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

// PUT /api/history/{history_id}/favorite
// Flips the favorite flag and returns the updated item.
func (h *HistoryHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	historyID := chi.URLParam(r, "history_id")
	existing, err := h.svc.Get(r.Context(), historyID, user.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "history item not found")
		return
	}
	favorite := !existing.IsFavorite
	item, err := h.svc.Update(r.Context(), historyID, user.UserID, service.UpdateHistoryInput{IsFavorite: &favorite})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

// DELETE /api/history/{history_id}
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	deleted, err := h.svc.Delete(r.Context(), chi.URLParam(r, "history_id"), user.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "history item not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
