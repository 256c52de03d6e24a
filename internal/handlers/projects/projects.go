// internal/handlers/projects/projects.go
package projects

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studiodesk/internal/auth"
	"studiodesk/internal/board"
	httpserver "studiodesk/internal/http"
	"studiodesk/internal/models"
	"studiodesk/internal/realtime"
	"studiodesk/internal/repo"
)

type Handler struct {
	repo   repo.Repo
	board  *board.Board
	broker *realtime.Broker
}

func New(r repo.Repo, b *board.Board, broker *realtime.Broker) *Handler {
	return &Handler{repo: r, board: b, broker: broker}
}

// List returns the selected client's projects with overlay-aware statuses.
func (h *Handler) List(w http.ResponseWriter, req *http.Request) {
	clientID, ok := auth.ClientFromContext(req.Context())
	if !ok {
		httpserver.Error(w, http.StatusForbidden, "no client account selected")
		return
	}
	prs, err := h.repo.ListProjectsByClient(req.Context(), clientID)
	if err != nil {
		httpserver.Error(w, http.StatusInternalServerError, "list projects failed")
		return
	}
	out := make([]map[string]any, 0, len(prs))
	for _, p := range prs {
		status := p.Status
		if pending, ok := h.board.Overlay(p.ID); ok {
			status = pending
		}
		out = append(out, map[string]any{
			"id":       p.ID,
			"title":    p.Title,
			"status":   status,
			"progress": p.Progress,
		})
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"content": out})
}

// Create adds a project under the selected client account.
// POST /projects { "title": "..." }
func (h *Handler) Create(w http.ResponseWriter, req *http.Request) {
	clientID, ok := auth.ClientFromContext(req.Context())
	if !ok {
		httpserver.Error(w, http.StatusForbidden, "no client account selected")
		return
	}
	type bodyT struct {
		Title string `json:"title"`
	}
	var b bodyT
	if err := json.NewDecoder(req.Body).Decode(&b); err != nil || strings.TrimSpace(b.Title) == "" {
		httpserver.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	p, err := h.repo.CreateProject(req.Context(), models.Project{
		ClientID: clientID,
		Title:    strings.TrimSpace(b.Title),
		Status:   models.StatusInProgress,
	})
	if err != nil {
		httpserver.Error(w, http.StatusInternalServerError, "create project failed")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"id": p.ID})
}

// GetByID returns one project with its goals; status reads through the overlay.
func (h *Handler) GetByID(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(chi.URLParam(req, "projectID"))
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid project ID")
		return
	}
	p, err := h.repo.GetProject(req.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrProjectNotFound) {
			httpserver.Error(w, http.StatusNotFound, "project not found")
			return
		}
		httpserver.Error(w, http.StatusInternalServerError, "get project failed")
		return
	}
	status := p.Status
	if pending, ok := h.board.Overlay(p.ID); ok {
		status = pending
	}
	goals, err := h.repo.ListGoalsByProject(req.Context(), id)
	if err != nil {
		httpserver.Error(w, http.StatusInternalServerError, "list goals failed")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"id":       p.ID,
		"clientId": p.ClientID,
		"title":    p.Title,
		"status":   status,
		"progress": p.Progress,
		"goals":    goals,
	})
}

// ChangeStatus applies a drag-and-drop status transition optimistically.
// PATCH /projects/{projectID}/change-status { "status": "revision" }
func (h *Handler) ChangeStatus(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(chi.URLParam(req, "projectID"))
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid project ID")
		return
	}
	clientID, ok := auth.ClientFromContext(req.Context())
	if !ok {
		httpserver.Error(w, http.StatusForbidden, "no client account selected")
		return
	}
	user, ok := auth.UserFromContext(req.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	type bodyT struct {
		Status string `json:"status"`
	}
	var b bodyT
	if err := json.NewDecoder(req.Body).Decode(&b); err != nil || b.Status == "" {
		httpserver.Error(w, http.StatusBadRequest, "status field is required")
		return
	}

	newStatus := models.ProjectStatus(b.Status)
	if err := h.board.RequestStatusChange(req.Context(), user.ID, clientID, id, newStatus); err != nil {
		switch {
		case errors.Is(err, models.ErrGoalsIncomplete):
			httpserver.JSON(w, http.StatusConflict, map[string]any{
				"error":   "project cannot be completed while goals are open",
				"warning": true,
			})
		case errors.Is(err, models.ErrProjectNotFound):
			httpserver.Error(w, http.StatusNotFound, "project not found")
		default:
			httpserver.Error(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	if h.broker != nil {
		_ = h.broker.Publish(req.Context(), realtime.Event{
			Resource: "project:" + id.String(),
			Kind:     "status-change",
			Payload:  json.RawMessage(`{"status":"` + string(newStatus) + `"}`),
		})
	}

	httpserver.JSON(w, http.StatusOK, map[string]any{
		"message": "changed project status",
		"id":      id,
		"status":  newStatus,
	})
}

// ListGoals, CreateGoal and ToggleGoal manage the project's sub-deliverables.

func (h *Handler) ListGoals(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(chi.URLParam(req, "projectID"))
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid project ID")
		return
	}
	goals, err := h.repo.ListGoalsByProject(req.Context(), id)
	if err != nil {
		httpserver.Error(w, http.StatusInternalServerError, "list goals failed")
		return
	}
	httpserver.JSON(w, http.StatusOK, goals)
}

func (h *Handler) CreateGoal(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(chi.URLParam(req, "projectID"))
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid project ID")
		return
	}
	type bodyT struct {
		Title    string `json:"title"`
		Position int    `json:"position"`
	}
	var b bodyT
	if err := json.NewDecoder(req.Body).Decode(&b); err != nil || strings.TrimSpace(b.Title) == "" {
		httpserver.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	g, err := h.repo.CreateGoal(req.Context(), models.CreativeGoal{
		ProjectID: id,
		Title:     strings.TrimSpace(b.Title),
		Position:  b.Position,
	})
	if err != nil {
		httpserver.Error(w, http.StatusInternalServerError, "create goal failed")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"id": g.ID})
}

// ToggleGoal flips a goal's completion and refreshes the parent's progress.
// PATCH /projects/{projectID}/goals/{goalID} { "complete": true }
func (h *Handler) ToggleGoal(w http.ResponseWriter, req *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(req, "projectID"))
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid project ID")
		return
	}
	goalID, err := uuid.Parse(chi.URLParam(req, "goalID"))
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid goal ID")
		return
	}
	clientID, ok := auth.ClientFromContext(req.Context())
	if !ok {
		httpserver.Error(w, http.StatusForbidden, "no client account selected")
		return
	}
	type bodyT struct {
		Complete bool `json:"complete"`
	}
	var b bodyT
	if err := json.NewDecoder(req.Body).Decode(&b); err != nil {
		httpserver.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := h.repo.ToggleGoalComplete(req.Context(), projectID, goalID, b.Complete); err != nil {
		httpserver.Error(w, http.StatusInternalServerError, "toggle goal failed")
		return
	}

	// Derive progress from goal completion.
	goals, err := h.repo.ListGoalsByProject(req.Context(), projectID)
	if err == nil && len(goals) > 0 {
		done := 0
		for _, g := range goals {
			if g.Completed {
				done++
			}
		}
		_ = h.repo.SetProjectProgress(req.Context(), clientID, projectID, done*100/len(goals))
	}

	httpserver.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Activity returns the project's audit trail, newest first.
func (h *Handler) Activity(w http.ResponseWriter, req *http.Request) {
	id, err := uuid.Parse(chi.URLParam(req, "projectID"))
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid project ID")
		return
	}
	rows, err := h.repo.ListActivityByProject(req.Context(), id, 50)
	if err != nil {
		httpserver.Error(w, http.StatusInternalServerError, "list activity failed")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"content": rows})
}
