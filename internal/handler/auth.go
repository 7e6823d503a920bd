package handler

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/quizmode/internal/model"
)

const authRealm = `Basic realm="quizmode admin"`

// requireAuth is middleware that checks HTTP basic credentials against the
// users table.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			h.unauthorized(w, r)
			return
		}

		user, err := h.store.GetUserByUsername(r.Context(), username)
		if err != nil {
			slog.Error("failed to get user", "error", err)
			writeError(w, r, http.StatusInternalServerError, "InternalError")
			return
		}
		if user == nil || !user.Active {
			slog.Warn("login attempt for unknown or inactive user", "username", username)
			h.unauthorized(w, r)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			slog.Warn("wrong password", "username", username)
			h.unauthorized(w, r)
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole returns middleware that checks the user has one of the allowed roles.
func requireRole(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				writeError(w, r, http.StatusUnauthorized, "Unauthorized")
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, r, http.StatusForbidden, "Forbidden")
		})
	}
}

func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", authRealm)
	writeError(w, r, http.StatusUnauthorized, "Unauthorized")
}
