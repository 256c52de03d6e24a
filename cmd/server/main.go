// cmd/server/main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	mux_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"studiodesk/internal/assistant"
	"studiodesk/internal/auth"
	"studiodesk/internal/board"
	"studiodesk/internal/config"
	"studiodesk/internal/handlers"
	"studiodesk/internal/invite"
	"studiodesk/internal/middleware"
	"studiodesk/internal/ratelimit"
	"studiodesk/internal/realtime"
	"studiodesk/internal/repo"
	"studiodesk/internal/storage"
)

func main() {
	// --- Load config (config.yaml + env overrides) ---
	cfg := config.Load()

	// --- Connect to Postgres ---
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("db ping error: %v", err)
	}

	r := repo.New(pool)

	// --- Redis: realtime fan-out + rate limiting ---
	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("redis url error: %v", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis connect error: %v", err)
	}
	defer rdb.Close()

	broker := realtime.NewBrokerWithClient(rdb)
	limiter := ratelimit.New(rdb)

	// --- Blob storage ---
	store, err := storage.NewDisk(cfg.Storage.Dir, cfg.Storage.PublicBase)
	if err != nil {
		log.Fatalf("storage error: %v", err)
	}

	// --- Domain services ---
	inviteSvc := invite.NewService(r, cfg.Invite.TTL)
	identities := auth.NewIdentityService(r)
	statusBoard := board.New(r, r)

	var assistantClient *assistant.Client
	if cfg.Assistant.APIURL != "" {
		assistantClient = assistant.New(assistant.Config{
			APIURL: cfg.Assistant.APIURL,
			APIKey: cfg.Assistant.APIKey,
			Models: cfg.Assistant.Models,
		})
	} else {
		slog.Warn("assistant api url not configured, chat disabled")
	}

	// --- Router ---
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(mux_middleware.Logger)

	// --- CORS middleware ---
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Frontend.URL, "http://localhost:3000", "http://127.0.0.1:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by browsers
	}))

	// Local auth routes
	mux.Post("/auth/signup", auth.SignupHandler(r, cfg.Session.TTL))
	mux.Post("/auth/login", auth.LoginHandler(r, cfg.Session.TTL))
	mux.Post("/auth/logout", auth.LogoutHandler())
	mux.Get("/auth/me", auth.ProfileHandler(r))
	mux.Post("/auth/set-password", auth.SetPasswordHandler(r))
	mux.Post("/auth/onboard", auth.CompleteOnboardingHandler(r))

	// Invitations, clients, projects, realtime, assistant
	handlers.RegisterRoutes(mux, handlers.Deps{
		Repo:       r,
		Invites:    inviteSvc,
		Identities: identities,
		Board:      statusBoard,
		Broker:     broker,
		Assistant:  assistantClient,
		Store:      store,
		Limiter:    limiter,
		SessionTTL: cfg.Session.TTL,
	})

	// Serve uploaded blobs
	mux.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.Storage.Dir))))

	// Health root
	mux.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// --- Start server ---
	addr := "127.0.0.1:8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}
	log.Printf("listening on %s (BASE_URL=%s)", addr, cfg.BaseURL)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}
