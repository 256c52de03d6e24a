package middleware

import (
	"net/http"

	"studiodesk/internal/auth"
	httpserver "studiodesk/internal/http"
	"studiodesk/internal/models"
	"studiodesk/internal/repo"
)

// RequireAuth authenticates using the session cookie, then loads the user by
// Session.UserID and injects both session and user into the context.
func RequireAuth(r repo.Repo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s := auth.ReadSession(req)
			if s == nil {
				httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			user, err := r.GetUserByID(req.Context(), s.UserID)
			if err != nil {
				httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := auth.WithSession(req.Context(), s)
			ctx = auth.WithUser(ctx, &user)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

// RequireLevel gates a route group on the caller's access level. Runs inside
// RequireAuth.
func RequireLevel(levels ...models.AccessLevel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			user, ok := auth.UserFromContext(req.Context())
			if !ok {
				httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			for _, l := range levels {
				if user.AccessLevel == l {
					next.ServeHTTP(w, req)
					return
				}
			}
			httpserver.Error(w, http.StatusForbidden, "forbidden")
		})
	}
}
