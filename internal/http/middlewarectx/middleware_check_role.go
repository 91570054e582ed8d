package middlewarectx

import (
	"log/slog"
	"net/http"
)

// RequireRoleMiddleware пропускает запрос дальше, только если роль
// пользователя в контексте совпадает с требуемой.
func RequireRoleMiddleware(log *slog.Logger, required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(Role).(string)
			if !ok || role == "" {
				http.Error(w, "User identification missing", http.StatusUnauthorized)
				return
			}

			if role != required {
				log.Info("access denied", slog.String("role", role), slog.String("required", required))
				http.Error(w, "Access denied", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
