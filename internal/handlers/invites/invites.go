// internal/handlers/invites/invites.go
package invites

import (
	"encoding/json"
	"errors"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"studiodesk/internal/auth"
	httpserver "studiodesk/internal/http"
	"studiodesk/internal/invite"
	"studiodesk/internal/models"
	"studiodesk/internal/repo"
)

type Handler struct {
	repo       repo.Repo
	svc        *invite.Service
	ids        invite.Identities
	sessionTTL time.Duration
}

func New(r repo.Repo, svc *invite.Service, ids invite.Identities, sessionTTL time.Duration) *Handler {
	return &Handler{repo: r, svc: svc, ids: ids, sessionTTL: sessionTTL}
}

// Create issues a single-use invitation for the selected client account.
// POST /auth/invite { "clientId": "...", "level": "CLIENT" }
// Returns the accept URL embedding the plaintext token; the token is hashed at rest.
func (h *Handler) Create(w http.ResponseWriter, req *http.Request) {
	user, ok := auth.UserFromContext(req.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	type bodyT struct {
		ClientID string `json:"clientId"`
		Level    string `json:"level"`
	}
	var b bodyT
	if err := json.NewDecoder(req.Body).Decode(&b); err != nil {
		httpserver.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	clientID, err := uuid.Parse(b.ClientID)
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid client id")
		return
	}
	level := models.AccessLevel(strings.ToUpper(strings.TrimSpace(b.Level)))
	switch level {
	case "", models.LevelClient, models.LevelManager:
	default:
		httpserver.Error(w, http.StatusBadRequest, "invalid level")
		return
	}

	issued, err := h.svc.Issue(req.Context(), clientID, level, user.ID)
	if err != nil {
		if errors.Is(err, models.ErrClientNotFound) {
			httpserver.Error(w, http.StatusBadRequest, "unknown client account")
			return
		}
		httpserver.Error(w, http.StatusInternalServerError, "create invite failed")
		return
	}

	// Build an acceptance link; prefer same-origin convenience route.
	scheme := req.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
	}
	host := req.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = req.Host
	}
	acceptURL := scheme + "://" + host + "/register?token=" + neturl.QueryEscape(issued.Token)

	httpserver.JSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"accept_url": acceptURL,
		"exp":        issued.Invite.ExpiresAt,
		"level":      issued.Invite.Level,
	})
}

// Context validates whatever invite reference the URL carries and reports the
// flow state the registration screen should open in.
// GET /register/context?token=... | ?invite=... | ?client_invite=...&variable=...
func (h *Handler) Context(w http.ResponseWriter, req *http.Request) {
	ref, ok := invite.ParseRef(req.URL.Query())
	if !ok {
		httpserver.Error(w, http.StatusBadRequest, "no invite reference")
		return
	}
	flow := h.newFlow(req, ref)
	if flow.Begin(req.Context()) == invite.StateInvalid {
		httpserver.JSON(w, http.StatusOK, map[string]any{"state": invite.StateInvalid})
		return
	}
	v := flow.View()
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"state":        invite.StateWelcome,
		"clientName":   v.ClientName,
		"level":        v.Level,
		"projectId":    nilIfZero(v.ProjectID),
		"needPassword": flow.Anonymous(),
	})
}

// Register runs the full form → success transition.
// POST /register?token=... { "name": "...", "contact": "...", "password": "...", "confirmPassword": "..." }
func (h *Handler) Register(w http.ResponseWriter, req *http.Request) {
	ref, ok := invite.ParseRef(req.URL.Query())
	if !ok {
		httpserver.Error(w, http.StatusBadRequest, "no invite reference")
		return
	}
	type bodyT struct {
		Name            string `json:"name"`
		Contact         string `json:"contact"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	var b bodyT
	if err := json.NewDecoder(req.Body).Decode(&b); err != nil {
		httpserver.Error(w, http.StatusBadRequest, "bad json")
		return
	}

	flow := h.newFlow(req, ref)
	if flow.Begin(req.Context()) == invite.StateInvalid {
		httpserver.Error(w, http.StatusGone, "invite is no longer valid")
		return
	}
	if err := flow.StartForm(); err != nil {
		httpserver.Error(w, http.StatusConflict, err.Error())
		return
	}
	fieldErrs, err := flow.Submit(req.Context(), invite.Form{
		Name:            b.Name,
		Contact:         b.Contact,
		Password:        b.Password,
		ConfirmPassword: b.ConfirmPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrIdentityExists):
			httpserver.Error(w, http.StatusConflict, "an account with this email already exists, log in first and reopen the invite link")
		case errors.Is(err, models.ErrInviteInvalid):
			httpserver.Error(w, http.StatusGone, "invite is no longer valid")
		default:
			httpserver.Error(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}
	if len(fieldErrs) > 0 {
		httpserver.JSON(w, http.StatusUnprocessableEntity, map[string]any{
			"state":  invite.StateForm,
			"errors": fieldErrs,
		})
		return
	}

	u := flow.Result()
	auth.SetSessionCookie(w, models.Session{
		UserID:       u.ID,
		ActiveClient: u.ClientID,
		Provider:     "local",
		Expiry:       time.Now().Add(h.sessionTTL),
	})
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"state": invite.StateSuccess,
		"id":    u.ID,
	})
}

// newFlow selects the anonymous or linked registration variant based on
// whether the browser already holds a valid session.
func (h *Handler) newFlow(req *http.Request, ref invite.Ref) *invite.Flow {
	var existing *models.User
	if sess := auth.ReadSession(req); sess != nil {
		if u, err := h.repo.GetUserByID(req.Context(), sess.UserID); err == nil {
			existing = &u
		}
	}
	return invite.NewFlow(h.svc, h.ids, h.repo, ref, existing)
}

func nilIfZero(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
