// internal/handlers/clients/clients.go
package clients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studiodesk/internal/auth"
	httpserver "studiodesk/internal/http"
	"studiodesk/internal/models"
	"studiodesk/internal/repo"
)

type Handler struct {
	repo       repo.Repo
	sessionTTL time.Duration
}

func New(r repo.Repo, sessionTTL time.Duration) *Handler {
	return &Handler{repo: r, sessionTTL: sessionTTL}
}

// List returns every client account. Manager-only (enforced by the router).
func (h *Handler) List(w http.ResponseWriter, req *http.Request) {
	out, err := h.repo.ListClients(req.Context())
	if err != nil {
		httpserver.Error(w, http.StatusInternalServerError, "list clients failed")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"content": out})
}

// Create adds a client account.
// POST /clients { "slug": "acme", "name": "Acme Inc" }
func (h *Handler) Create(w http.ResponseWriter, req *http.Request) {
	type bodyT struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	}
	var b bodyT
	if err := json.NewDecoder(req.Body).Decode(&b); err != nil ||
		strings.TrimSpace(b.Slug) == "" || strings.TrimSpace(b.Name) == "" {
		httpserver.Error(w, http.StatusBadRequest, "slug and name are required")
		return
	}
	c, err := h.repo.CreateClient(req.Context(), strings.TrimSpace(b.Slug), strings.TrimSpace(b.Name))
	if err != nil {
		httpserver.Error(w, http.StatusInternalServerError, "create client failed")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"id": c.ID})
}

// Select switches the manager's session onto a client account. The main
// application is unreachable for managers until a selection is made.
// POST /clients/{clientID}/select
func (h *Handler) Select(w http.ResponseWriter, req *http.Request) {
	sess, ok := auth.SessionFromContext(req.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := uuid.Parse(chi.URLParam(req, "clientID"))
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid client id")
		return
	}
	if _, err := h.repo.FindClientByID(req.Context(), id); err != nil {
		if errors.Is(err, models.ErrClientNotFound) {
			httpserver.Error(w, http.StatusNotFound, "client account not found")
			return
		}
		httpserver.Error(w, http.StatusInternalServerError, "select client failed")
		return
	}
	auth.SetSessionCookie(w, models.Session{
		UserID:       sess.UserID,
		ActiveClient: id,
		Provider:     sess.Provider,
		Expiry:       time.Now().Add(h.sessionTTL),
	})
	httpserver.JSON(w, http.StatusOK, map[string]any{"ok": true, "activeClient": id})
}
