// internal/auth/handlers.go
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	httpserver "studiodesk/internal/http"
	"studiodesk/internal/models"
	"studiodesk/internal/repo"
)

// profileFetchTimeout bounds the profile lookup so an unreachable backend
// degrades to "unauthenticated" instead of a stuck loading state.
const profileFetchTimeout = 6 * time.Second

// SignupHandler registers a direct (agency-side) account.
// POST /auth/signup { "email": "...", "password": "...", "name": "..." }
func SignupHandler(r repo.Repo, sessionTTL time.Duration) http.HandlerFunc {
	type bodyT struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	return func(w http.ResponseWriter, req *http.Request) {
		var b bodyT
		if err := json.NewDecoder(req.Body).Decode(&b); err != nil ||
			strings.TrimSpace(b.Email) == "" || len(b.Password) < 8 {
			httpserver.Error(w, http.StatusBadRequest, "bad json or weak password")
			return
		}
		phc, err := HashPassword(b.Password, defaultArgonParams())
		if err != nil {
			httpserver.Error(w, http.StatusInternalServerError, "hash error")
			return
		}
		u, err := r.CreateUser(req.Context(), models.User{
			Email:       b.Email,
			Name:        strings.TrimSpace(b.Name),
			AccessLevel: models.LevelManager,
			IsOnboarded: true,
		})
		if err != nil {
			if errors.Is(err, models.ErrIdentityExists) {
				httpserver.Error(w, http.StatusConflict, "an account with this email already exists, log in instead")
				return
			}
			httpserver.Error(w, http.StatusInternalServerError, "signup failed")
			return
		}
		if err := r.CreateLocalCredential(req.Context(), u.ID, u.Email, phc); err != nil {
			httpserver.Error(w, http.StatusInternalServerError, "signup failed")
			return
		}
		SetSessionCookie(w, models.Session{
			UserID:   u.ID,
			Provider: "local",
			Expiry:   time.Now().Add(sessionTTL),
		})
		httpserver.JSON(w, http.StatusOK, map[string]any{"ok": true, "id": u.ID})
	}
}

// LoginHandler authenticates a local credential and issues the session cookie.
// POST /auth/login { "email": "...", "password": "..." }
func LoginHandler(r repo.Repo, sessionTTL time.Duration) http.HandlerFunc {
	type bodyT struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	return func(w http.ResponseWriter, req *http.Request) {
		var b bodyT
		if err := json.NewDecoder(req.Body).Decode(&b); err != nil {
			httpserver.Error(w, http.StatusBadRequest, "bad json")
			return
		}
		cred, u, err := r.GetLocalCredentialByUsername(req.Context(), strings.TrimSpace(b.Email))
		if err != nil {
			httpserver.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		ok, err := VerifyPassword(b.Password, cred.PasswordHash)
		if err != nil || !ok {
			httpserver.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		SetSessionCookie(w, models.Session{
			UserID:       u.ID,
			ActiveClient: u.ClientID,
			Provider:     "local",
			Expiry:       time.Now().Add(sessionTTL),
		})
		httpserver.JSON(w, http.StatusOK, map[string]any{"ok": true, "id": u.ID})
	}
}

func LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ClearSessionCookie(w)
		httpserver.JSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// ProfileHandler returns the signed-in user's profile and derived access
// fields. The lookup is bounded; a timeout reads as logged-out.
func ProfileHandler(r repo.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		sess := ReadSession(req)
		if sess == nil {
			httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx, cancel := context.WithTimeout(req.Context(), profileFetchTimeout)
		defer cancel()
		u, err := r.GetUserByID(ctx, sess.UserID)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				slog.WarnContext(req.Context(), "profile fetch timed out", "user_id", sess.UserID.String())
			}
			httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		httpserver.JSON(w, http.StatusOK, map[string]any{
			"id":           u.ID,
			"email":        u.Email,
			"name":         u.Name,
			"accessLevel":  u.AccessLevel,
			"clientId":     nilIfZero(u.ClientID),
			"isOnboarded":  u.IsOnboarded,
			"avatarUrl":    u.AvatarURL,
			"activeClient": nilIfZero(sess.ActiveClient),
		})
	}
}

// SetPasswordHandler sets or rotates the local password for the current session.
// POST /auth/set-password { "password": "..." }
func SetPasswordHandler(r repo.Repo) http.HandlerFunc {
	type bodyT struct {
		Password string `json:"password"`
	}
	return func(w http.ResponseWriter, req *http.Request) {
		sess := ReadSession(req)
		if sess == nil {
			httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var b bodyT
		if err := json.NewDecoder(req.Body).Decode(&b); err != nil || len(b.Password) < 8 {
			httpserver.Error(w, http.StatusBadRequest, "bad json or weak password")
			return
		}
		phc, err := HashPassword(b.Password, defaultArgonParams())
		if err != nil {
			httpserver.Error(w, http.StatusInternalServerError, "hash error")
			return
		}
		if err := r.UpdateLocalPasswordHash(req.Context(), sess.UserID, phc); err != nil {
			// Credential may not exist yet for linked signups; create it.
			u, uerr := r.GetUserByID(req.Context(), sess.UserID)
			if uerr != nil || u.Email == "" {
				httpserver.Error(w, http.StatusInternalServerError, "cannot set credential")
				return
			}
			if cerr := r.CreateLocalCredential(req.Context(), sess.UserID, u.Email, phc); cerr != nil {
				httpserver.Error(w, http.StatusInternalServerError, "cannot set credential")
				return
			}
		}
		httpserver.JSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// CompleteOnboardingHandler flips isOnboarded and optionally rotates the
// password in the same request.
// POST /auth/onboard { "name": "...", "password": "..."? }
func CompleteOnboardingHandler(r repo.Repo) http.HandlerFunc {
	type bodyT struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	return func(w http.ResponseWriter, req *http.Request) {
		sess := ReadSession(req)
		if sess == nil {
			httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var b bodyT
		if err := json.NewDecoder(req.Body).Decode(&b); err != nil {
			httpserver.Error(w, http.StatusBadRequest, "bad json")
			return
		}
		if strings.TrimSpace(b.Name) != "" {
			if err := r.UpdateUserProfile(req.Context(), sess.UserID, strings.TrimSpace(b.Name), ""); err != nil {
				httpserver.Error(w, http.StatusInternalServerError, "profile update failed")
				return
			}
		}
		if b.Password != "" {
			if len(b.Password) < 8 {
				httpserver.Error(w, http.StatusBadRequest, "weak password")
				return
			}
			phc, err := HashPassword(b.Password, defaultArgonParams())
			if err != nil {
				httpserver.Error(w, http.StatusInternalServerError, "hash error")
				return
			}
			if err := r.UpdateLocalPasswordHash(req.Context(), sess.UserID, phc); err != nil {
				httpserver.Error(w, http.StatusInternalServerError, "password update failed")
				return
			}
		}
		if err := r.CompleteOnboarding(req.Context(), sess.UserID); err != nil {
			httpserver.Error(w, http.StatusInternalServerError, "onboarding failed")
			return
		}
		httpserver.JSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func nilIfZero(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
