// internal/auth/identity.go
package auth

import (
	"context"
	"log/slog"
	"strings"

	"studiodesk/internal/models"
	"studiodesk/internal/repo"
)

// IdentityService creates sign-in identities for invite-driven registration.
// It satisfies invite.Identities.
type IdentityService struct {
	repo repo.Repo
}

func NewIdentityService(r repo.Repo) *IdentityService {
	return &IdentityService{repo: r}
}

// SignUp creates the profile row and its local credential. A duplicate email
// surfaces models.ErrIdentityExists from either step; the caller decides how
// to present it and must not retry.
func (s *IdentityService) SignUp(ctx context.Context, email, password string, profile models.User) (models.User, error) {
	phc, err := HashPassword(password, defaultArgonParams())
	if err != nil {
		return models.User{}, err
	}
	profile.Email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.CreateUser(ctx, profile)
	if err != nil {
		return models.User{}, err
	}
	if err := s.repo.CreateLocalCredential(ctx, u.ID, u.Email, phc); err != nil {
		slog.ErrorContext(ctx, "credential create failed after user create", "user_id", u.ID.String(), "err", err)
		return models.User{}, err
	}
	return u, nil
}
