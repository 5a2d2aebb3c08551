package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rohannevrikar/panta-flows-v2/internal/middleware"
	"github.com/rohannevrikar/panta-flows-v2/internal/model"
	"github.com/rohannevrikar/panta-flows-v2/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	// Self-service signup never grants elevated roles.
	in.Role = model.RoleUser
	user, err := h.svc.Signup(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "E_VALIDATION", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}
	result, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "E_UNAUTHORIZED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.UserFromCtx(r.Context())
	user, err := h.svc.GetUser(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// UserAdminHandler covers admin-managed user accounts.
type UserAdminHandler struct {
	svc *service.AuthService
}

func NewUserAdminHandler(svc *service.AuthService) *UserAdminHandler {
	return &UserAdminHandler{svc: svc}
}

// GET /api/users
func (h *UserAdminHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := middleware.UserFromCtx(r.Context())

	// Client admins only ever see their own tenant.
	clientID := r.URL.Query().Get("client_id")
	if !principal.IsSuperAdmin() {
		clientID = principal.ClientID
	}

	users, err := h.svc.ListUsers(r.Context(), clientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// POST /api/users
func (h *UserAdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := middleware.UserFromCtx(r.Context())

	var in service.SignupInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "E_BAD_REQUEST", "invalid body")
		return
	}

	if !principal.IsSuperAdmin() {
		// Client admins create users inside their own tenant only, and may
		// not mint other admins above their station.
		in.ClientID = &principal.ClientID
		if in.Role == model.RoleSuperAdmin {
			writeError(w, http.StatusForbidden, "E_FORBIDDEN", "cannot grant super_admin")
			return
		}
	}

	user, err := h.svc.Signup(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "E_VALIDATION", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// DELETE /api/users/{user_id}
func (h *UserAdminHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	principal := middleware.UserFromCtx(r.Context())
	userID := chi.URLParam(r, "user_id")

	target, err := h.svc.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "E_NOT_FOUND", "user not found")
		return
	}
	targetClient := ""
	if target.ClientID != nil {
		targetClient = *target.ClientID
	}
	if !principal.CanAdminClient(targetClient) {
		writeError(w, http.StatusForbidden, "E_FORBIDDEN", "insufficient permissions")
		return
	}

	if err := h.svc.DeactivateUser(r.Context(), userID); err != nil {
		writeError(w, http.StatusInternalServerError, "E_INTERNAL", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
