// internal/handlers/uploads/uploads.go
package uploads

import (
	"io"
	"log/slog"
	"net/http"

	"studiodesk/internal/auth"
	httpserver "studiodesk/internal/http"
	"studiodesk/internal/repo"
	"studiodesk/internal/storage"
)

const maxUploadBytes = 5 << 20

type Handler struct {
	repo  repo.Repo
	store storage.Store
}

func New(r repo.Repo, store storage.Store) *Handler {
	return &Handler{repo: r, store: store}
}

// Avatar replaces the caller's avatar image. A failed upload degrades to an
// inline data URL instead of blocking the profile update.
// PUT /me/avatar  (raw image bytes)
func (h *Handler) Avatar(w http.ResponseWriter, req *http.Request) {
	user, ok := auth.UserFromContext(req.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxUploadBytes))
	if err != nil || len(data) == 0 {
		httpserver.Error(w, http.StatusBadRequest, "empty or oversized upload")
		return
	}

	url, err := h.store.Upload(req.Context(), "avatars/"+user.ID.String(), data, true)
	if err != nil {
		slog.WarnContext(req.Context(), "avatar upload failed, using data URL", "user_id", user.ID.String(), "err", err)
		url = storage.FallbackDataURL(data)
	}

	if err := h.repo.UpdateUserProfile(req.Context(), user.ID, "", url); err != nil {
		httpserver.Error(w, http.StatusInternalServerError, "profile update failed")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"ok": true, "avatarUrl": url})
}
