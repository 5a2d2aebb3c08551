package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rohannevrikar/panta-flows-v2/internal/middleware"
	"github.com/rohannevrikar/panta-flows-v2/internal/service"
)

type ClientHandler struct {
	svc *service.ClientService
}

func NewClientHandler(svc *service.ClientService) *ClientHandler {
	return &ClientHandler{svc: svc}
}

// GET /api/clients  (super admin only, enforced by route middleware)
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

// GET /api/clients/{client_id}
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal := middleware.UserFromCtx(r.Context())
	clientID := chi.URLParam(r, "client_id")
	if !principal.IsSuperAdmin() && !principal.BelongsTo(clientID) {
		writeError(w, http.StatusForbidden, "E_FORBIDDEN", "insufficient permissions")
		return
	}
	client, err := h.svc.Get(r.Context(), clientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "client not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"client": client})
}

// GET /api/clients/by-code/{code}
// Public branding lookup used by the login page. API keys are stripped.
func (h *ClientHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	client, err := h.svc.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "client not found")
		return
	}
	client.APIKeys = map[string]string{}
	writeJSON(w, http.StatusOK, map[string]any{"client": client})
}

// POST /api/clients  (super admin only)
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateClientInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	client, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "E_VALIDATION", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"client": client})
}

// PATCH /api/clients/{client_id}
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal := middleware.UserFromCtx(r.Context())
	clientID := chi.URLParam(r, "client_id")
	if !principal.CanAdminClient(clientID) {
		writeError(w, http.StatusForbidden, "E_FORBIDDEN", "insufficient permissions")
		return
	}
	var in service.UpdateClientInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	client, err := h.svc.Update(r.Context(), clientID, in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "client not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"client": client})
}

// GET /api/clients/{client_id}/api-keys  (tenant admin or super admin)
func (h *ClientHandler) GetAPIKeys(w http.ResponseWriter, r *http.Request) {
	principal := middleware.UserFromCtx(r.Context())
	clientID := chi.URLParam(r, "client_id")
	if !principal.CanAdminClient(clientID) {
		writeError(w, http.StatusForbidden, "E_FORBIDDEN", "insufficient permissions")
		return
	}
	client, err := h.svc.Get(r.Context(), clientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "client not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"api_keys": client.APIKeys})
}

// PUT /api/clients/{client_id}/api-keys  (tenant admin or super admin)
// Replaces the whole key set.
func (h *ClientHandler) SetAPIKeys(w http.ResponseWriter, r *http.Request) {
	principal := middleware.UserFromCtx(r.Context())
	clientID := chi.URLParam(r, "client_id")
	if !principal.CanAdminClient(clientID) {
		writeError(w, http.StatusForbidden, "E_FORBIDDEN", "insufficient permissions")
		return
	}
	var in struct {
		APIKeys map[string]string `json:"api_keys"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	if in.APIKeys == nil {
		in.APIKeys = map[string]string{}
	}
	client, err := h.svc.Update(r.Context(), clientID, service.UpdateClientInput{APIKeys: in.APIKeys})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "client not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"api_keys": client.APIKeys})
}

// DELETE /api/clients/{client_id}  (super admin only)
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.svc.Delete(r.Context(), chi.URLParam(r, "client_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "client not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
