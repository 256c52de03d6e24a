// internal/handlers/routing/routing.go
package routing

import (
	"net/http"

	"studiodesk/internal/access"
	"studiodesk/internal/auth"
	httpserver "studiodesk/internal/http"
	"studiodesk/internal/invite"
	"studiodesk/internal/models"
	"studiodesk/internal/repo"
)

type Handler struct {
	repo repo.Repo
}

func New(r repo.Repo) *Handler {
	return &Handler{repo: r}
}

// Screen reports which top-level screen the caller should land on. The
// frontend calls it on every auth-state change; any invite parameters on the
// current URL are forwarded as-is so a pending invite can take priority.
// GET /route?token=... | ?invite=... | ?client_invite=...&variable=...
func (h *Handler) Screen(w http.ResponseWriter, req *http.Request) {
	_, pendingRef := invite.ParseRef(req.URL.Query())

	sess := auth.ReadSession(req)
	var profile *models.User
	if sess != nil {
		if u, err := h.repo.GetUserByID(req.Context(), sess.UserID); err == nil {
			profile = &u
		}
	}

	httpserver.JSON(w, http.StatusOK, map[string]any{
		"screen": access.Decide(sess, profile, pendingRef),
	})
}
