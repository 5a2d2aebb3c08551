package middleware

import (
	"net/http"

	"github.com/rohannevrikar/panta-flows-v2/internal/model"
)

// RequireRole returns a middleware that checks the authenticated user holds
// one of the given roles. Super admins always pass.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := map[string]bool{}
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromCtx(r.Context())
			if user == nil {
				http.Error(w, `{"error":{"code":"E_UNAUTHORIZED"}}`, http.StatusUnauthorized)
				return
			}
			if user.Role != model.RoleSuperAdmin && !allowed[user.Role] {
				http.Error(w, `{"error":{"code":"E_FORBIDDEN","message":"insufficient permissions"}}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
