// internal/handlers/codes/codes.go
package codes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpserver "studiodesk/internal/http"
	"studiodesk/internal/models"
	"studiodesk/internal/repo"
)

// Handler manages variable access codes: durable, multi-use invite strings
// scoped to a whole client account or one project.
type Handler struct {
	repo repo.Repo
}

func New(r repo.Repo) *Handler {
	return &Handler{repo: r}
}

// Create registers a new code under a client account.
// POST /clients/{clientID}/codes { "code": "...", "role": "Viewer", "projectId": "..."? }
func (h *Handler) Create(w http.ResponseWriter, req *http.Request) {
	clientID, err := uuid.Parse(chi.URLParam(req, "clientID"))
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid client id")
		return
	}
	type bodyT struct {
		Code      string `json:"code"`
		Role      string `json:"role"`
		ProjectID string `json:"projectId"`
	}
	var b bodyT
	if err := json.NewDecoder(req.Body).Decode(&b); err != nil || strings.TrimSpace(b.Code) == "" {
		httpserver.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	role := models.CodeRole(b.Role)
	switch role {
	case models.CodeRoleViewer, models.CodeRoleContributor, models.CodeRoleAdmin:
	default:
		httpserver.Error(w, http.StatusBadRequest, "invalid role")
		return
	}
	var projectID uuid.UUID
	if strings.TrimSpace(b.ProjectID) != "" {
		projectID, err = uuid.Parse(b.ProjectID)
		if err != nil {
			httpserver.Error(w, http.StatusBadRequest, "invalid project id")
			return
		}
	}

	code, err := h.repo.CreateAccessCode(req.Context(), models.AccessCode{
		ClientID:  clientID,
		ProjectID: projectID,
		Code:      strings.TrimSpace(b.Code),
		Role:      role,
	})
	if err != nil {
		httpserver.Error(w, http.StatusInternalServerError, "create access code failed")
		return
	}
	httpserver.JSON(w, http.StatusOK, codeJSON(code))
}

// List returns all codes under a client account.
func (h *Handler) List(w http.ResponseWriter, req *http.Request) {
	clientID, err := uuid.Parse(chi.URLParam(req, "clientID"))
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid client id")
		return
	}
	out, err := h.repo.ListAccessCodes(req.Context(), clientID)
	if err != nil {
		httpserver.Error(w, http.StatusInternalServerError, "list access codes failed")
		return
	}
	items := make([]map[string]any, 0, len(out))
	for _, c := range out {
		items = append(items, codeJSON(c))
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"content": items})
}

// Delete removes a code. Existing members keep their access; the link just
// stops working.
func (h *Handler) Delete(w http.ResponseWriter, req *http.Request) {
	clientID, err := uuid.Parse(chi.URLParam(req, "clientID"))
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid client id")
		return
	}
	codeID, err := uuid.Parse(chi.URLParam(req, "codeID"))
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid code id")
		return
	}
	if err := h.repo.DeleteAccessCode(req.Context(), clientID, codeID); err != nil {
		if errors.Is(err, models.ErrCodeNotFound) {
			httpserver.Error(w, http.StatusNotFound, "access code not found")
			return
		}
		httpserver.Error(w, http.StatusInternalServerError, "delete access code failed")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Resolve looks a code up without consuming it.
// GET /clients/{clientID}/codes/resolve?variable=...
func (h *Handler) Resolve(w http.ResponseWriter, req *http.Request) {
	clientID, err := uuid.Parse(chi.URLParam(req, "clientID"))
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid client id")
		return
	}
	variable := strings.TrimSpace(req.URL.Query().Get("variable"))
	if variable == "" {
		httpserver.Error(w, http.StatusBadRequest, "variable is required")
		return
	}
	code, err := h.repo.GetAccessCode(req.Context(), clientID, variable)
	if err != nil {
		if errors.Is(err, models.ErrCodeNotFound) {
			httpserver.Error(w, http.StatusNotFound, "access code not found")
			return
		}
		httpserver.Error(w, http.StatusInternalServerError, "resolve failed")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"role":      code.Role,
		"projectId": nilIfZero(code.ProjectID),
	})
}

func codeJSON(c models.AccessCode) map[string]any {
	return map[string]any{
		"id":        c.ID,
		"clientId":  c.ClientID,
		"projectId": nilIfZero(c.ProjectID),
		"code":      c.Code,
		"role":      c.Role,
		"createdAt": c.CreatedAt,
	}
}

func nilIfZero(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
