package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rohannevrikar/panta-flows-v2/internal/middleware"
	"github.com/rohannevrikar/panta-flows-v2/internal/service"
)

type WorkflowHandler struct {
	svc *service.WorkflowService
}

func NewWorkflowHandler(svc *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{svc: svc}
}

// GET /api/workflows
// First call for a new user seeds the default workflow set.
func (h *WorkflowHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	workflows, err := h.svc.SeedDefaults(r.Context(), user.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflows": workflows})
}

// POST /api/workflows
func (h *WorkflowHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	var in service.CreateWorkflowInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	if in.Title == "" {
		writeError(w, http.StatusUnprocessableEntity, "E_VALIDATION", "title is required")
		return
	}
	workflow, err := h.svc.Create(r.Context(), user.UserID, in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"workflow": workflow})
}

// PATCH /api/workflows/{workflow_id}
func (h *WorkflowHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	var in service.UpdateWorkflowInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	workflow, err := h.svc.Update(r.Context(), chi.URLParam(r, "workflow_id"), user.UserID, in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if workflow == nil {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "workflow not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflow": workflow})
}

// PUT /api/workflows/{workflow_id}/favorite
// Flips the favorite flag and returns the updated workflow.
func (h *WorkflowHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	workflowID := chi.URLParam(r, "workflow_id")
	existing, err := h.svc.Get(r.Context(), workflowID, user.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "workflow not found")
		return
	}
	favorite := !existing.IsFavorite
	workflow, err := h.svc.Update(r.Context(), workflowID, user.UserID, service.UpdateWorkflowInput{IsFavorite: &favorite})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflow": workflow})
}

// DELETE /api/workflows/{workflow_id}
func (h *WorkflowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	deleted, err := h.svc.Delete(r.Context(), chi.URLParam(r, "workflow_id"), user.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "workflow not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
