// internal/handlers/router.go
package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"

	"studiodesk/internal/assistant"
	"studiodesk/internal/board"
	"studiodesk/internal/handlers/assistantapi"
	"studiodesk/internal/handlers/clients"
	"studiodesk/internal/handlers/codes"
	"studiodesk/internal/handlers/events"
	"studiodesk/internal/handlers/invites"
	"studiodesk/internal/handlers/projects"
	"studiodesk/internal/handlers/routing"
	"studiodesk/internal/handlers/uploads"
	"studiodesk/internal/invite"
	"studiodesk/internal/middleware"
	"studiodesk/internal/models"
	"studiodesk/internal/ratelimit"
	"studiodesk/internal/realtime"
	"studiodesk/internal/repo"
	"studiodesk/internal/storage"
)

// Deps is the explicit dependency bundle constructed once at the application
// root and threaded through the router.
type Deps struct {
	Repo       repo.Repo
	Invites    *invite.Service
	Identities invite.Identities
	Board      *board.Board
	Broker     *realtime.Broker
	Assistant  *assistant.Client
	Store      storage.Store
	Limiter    *ratelimit.RateLimiter
	SessionTTL time.Duration
}

func RegisterRoutes(mux *chi.Mux, d Deps) {
	inviteH := invites.New(d.Repo, d.Invites, d.Identities, d.SessionTTL)
	codeH := codes.New(d.Repo)
	clientH := clients.New(d.Repo, d.SessionTTL)
	projectH := projects.New(d.Repo, d.Board, d.Broker)
	eventH := events.New(d.Broker)
	uploadH := uploads.New(d.Repo, d.Store)

	authLimit := middleware.RateLimit(d.Limiter, 20, time.Minute)

	// Registration surface: reachable anonymously, throttled.
	mux.Group(func(sr chi.Router) {
		sr.Use(authLimit)
		sr.Get("/route", routing.New(d.Repo).Screen)
		sr.Get("/register/context", inviteH.Context)
		sr.Post("/register", inviteH.Register)
	})

	// Invitation issuance: managers only.
	mux.Group(func(sr chi.Router) {
		sr.Use(middleware.RequireAuth(d.Repo))
		sr.Use(middleware.RequireLevel(models.LevelManager))
		sr.Use(authLimit)
		sr.Post("/auth/invite", inviteH.Create)
	})

	// Client accounts and access codes: managers only.
	mux.Route("/clients", func(sr chi.Router) {
		sr.Use(middleware.RequireAuth(d.Repo))
		sr.Use(middleware.RequireLevel(models.LevelManager))

		sr.Get("/", clientH.List)
		sr.Post("/", clientH.Create)
		sr.Post("/{clientID}/select", clientH.Select)

		sr.Post("/{clientID}/codes", codeH.Create)
		sr.Get("/{clientID}/codes", codeH.List)
		sr.Get("/{clientID}/codes/resolve", codeH.Resolve)
		sr.Delete("/{clientID}/codes/{codeID}", codeH.Delete)
	})

	// Projects and goals: scoped to the active client account.
	mux.Route("/projects", func(sr chi.Router) {
		sr.Use(middleware.RequireAuth(d.Repo))
		sr.Use(middleware.ClientContext(d.Repo))

		sr.Get("/", projectH.List)
		sr.Post("/", projectH.Create)
		sr.Get("/{projectID}", projectH.GetByID)
		sr.Patch("/{projectID}/change-status", projectH.ChangeStatus)
		sr.Get("/{projectID}/goals", projectH.ListGoals)
		sr.Post("/{projectID}/goals", projectH.CreateGoal)
		sr.Patch("/{projectID}/goals/{goalID}", projectH.ToggleGoal)
		sr.Get("/{projectID}/activity", projectH.Activity)
	})

	// Realtime feed, assistant and uploads.
	mux.Group(func(sr chi.Router) {
		sr.Use(middleware.RequireAuth(d.Repo))
		sr.Get("/events", eventH.Stream)
		sr.Put("/me/avatar", uploadH.Avatar)
		if d.Assistant != nil {
			assistantH := assistantapi.New(d.Assistant)
			sr.Post("/assistant/chat", assistantH.Chat)
		}
	})
}
