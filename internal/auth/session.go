// internal/auth/session.go
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"studiodesk/internal/models"

	"github.com/google/uuid"
)

type ctxKeyUser struct{}
type ctxKeySession struct{}
type ctxKeyClient struct{}

func SetSessionCookie(w http.ResponseWriter, s models.Session) {
	b, _ := json.Marshal(s)
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    base64.RawStdEncoding.EncodeToString(b),
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.Expiry,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func ReadSession(r *http.Request) *models.Session {
	c, err := r.Cookie("session")
	if err != nil {
		return nil
	}
	b, err := base64.RawStdEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var s models.Session
	if json.Unmarshal(b, &s) != nil {
		return nil
	}
	if s.Expiry.Before(time.Now()) {
		return nil
	}
	return &s
}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser{}, u)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ctxKeyUser{}).(*models.User)
	return u, ok
}

func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession{}, s)
}

func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(ctxKeySession{}).(*models.Session)
	return s, ok
}

func WithClient(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKeyClient{}, id)
}

func ClientFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKeyClient{}).(uuid.UUID)
	return id, ok
}
