// internal/middleware/client_context.go
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"studiodesk/internal/auth"
	httpserver "studiodesk/internal/http"
	"studiodesk/internal/models"
	"studiodesk/internal/repo"
)

// ClientContext resolves the client account a request operates on and puts
// its ID in the context. Managers act on the account selected in their
// session; client users are pinned to their own affiliation.
func ClientContext(r repo.Repo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, ok := auth.SessionFromContext(req.Context())
			if !ok {
				httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			user, ok := auth.UserFromContext(req.Context())
			if !ok {
				httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			var clientID uuid.UUID
			switch user.AccessLevel {
			case models.LevelManager:
				clientID = sess.ActiveClient
			default:
				clientID = user.ClientID
			}
			if clientID == uuid.Nil {
				httpserver.Error(w, http.StatusForbidden, "no client account selected")
				return
			}
			if _, err := r.FindClientByID(req.Context(), clientID); err != nil {
				httpserver.Error(w, http.StatusForbidden, "forbidden")
				return
			}

			next.ServeHTTP(w, req.WithContext(auth.WithClient(req.Context(), clientID)))
		})
	}
}
