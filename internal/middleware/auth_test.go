package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rohannevrikar/panta-flows-v2/internal/model"
)

func validateStub(token string) (*model.AuthUser, error) {
	if token == "good" {
		return model.NewAuthUser("u1", "u1@example.com", "U One", model.RoleUser, "client-1"), nil
	}
	return nil, errors.New("invalid token")
}

func TestAuthMiddlewareInjectsPrincipal(t *testing.T) {
	var seen *model.AuthUser
	h := AuthMiddleware(validateStub)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/anything", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if seen == nil || seen.UserID != "u1" || seen.ClientID != "client-1" {
		t.Fatalf("principal = %+v", seen)
	}
}

func TestAuthMiddlewareRejectsMissingAndBadTokens(t *testing.T) {
	h := AuthMiddleware(validateStub)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/anything", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/anything", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	guard := RequireRole(model.RoleClientAdmin)(next)

	serve := func(u *model.AuthUser) int {
		req := httptest.NewRequest(http.MethodGet, "/api/admin", nil)
		if u != nil {
			req = req.WithContext(WithUser(req.Context(), u))
		}
		rec := httptest.NewRecorder()
		guard.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := serve(nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", code)
	}
	if code := serve(model.NewAuthUser("u", "", "", model.RoleUser, "c")); code != http.StatusForbidden {
		t.Fatalf("plain user status = %d", code)
	}
	if code := serve(model.NewAuthUser("u", "", "", model.RoleClientAdmin, "c")); code != http.StatusNoContent {
		t.Fatalf("client admin status = %d", code)
	}
	if code := serve(model.NewAuthUser("u", "", "", model.RoleSuperAdmin, "")); code != http.StatusNoContent {
		t.Fatalf("super admin status = %d", code)
	}
}
