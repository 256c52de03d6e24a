// internal/invite/service.go
package invite

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"studiodesk/internal/models"
)

// Store is the slice of persistence the invitation service needs.
type Store interface {
	CreateInvite(ctx context.Context, inv models.InviteToken) error
	GetInviteByTokenHash(ctx context.Context, hash string) (models.InviteToken, string, error)
	MarkInviteUsed(ctx context.Context, hash string, at time.Time) error
	GetAccessCode(ctx context.Context, clientID uuid.UUID, code string) (models.AccessCode, error)
	FindAccessCodeByCode(ctx context.Context, code string) (models.AccessCode, error)
	FindClientByID(ctx context.Context, id uuid.UUID) (models.ClientAccount, error)
}

// Service issues and validates invitations. Tokens travel in plaintext
// exactly once, inside the shareable link; only the hash is stored.
type Service struct {
	store    Store
	ttl      time.Duration
	clock    func() time.Time
	tokenGen func() (string, error)
}

func NewService(store Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{
		store:    store,
		ttl:      ttl,
		clock:    time.Now,
		tokenGen: generateToken,
	}
}

func generateToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Issued carries the plaintext token back to the caller for link building,
// together with the persisted record.
type Issued struct {
	Token  string
	Invite models.InviteToken
}

// Issue creates a single-use invitation scoping the recipient to
// {clientID, level}. Level defaults to CLIENT when empty.
func (s *Service) Issue(ctx context.Context, clientID uuid.UUID, level models.AccessLevel, invitedBy uuid.UUID) (Issued, error) {
	if level == "" {
		level = models.LevelClient
	}
	if _, err := s.store.FindClientByID(ctx, clientID); err != nil {
		return Issued{}, err
	}
	token, err := s.tokenGen()
	if err != nil {
		return Issued{}, err
	}
	now := s.clock()
	inv := models.InviteToken{
		TokenHash: hashToken(token),
		ClientID:  clientID,
		Level:     level,
		InvitedBy: invitedBy,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.CreateInvite(ctx, inv); err != nil {
		return Issued{}, err
	}
	slog.InfoContext(ctx, "invite issued", "client_id", clientID.String(), "level", string(level))
	return Issued{Token: token, Invite: inv}, nil
}

// View is what the registration screen may show before collecting data.
type View struct {
	ClientID   uuid.UUID
	ClientName string
	Level      models.AccessLevel
	ProjectID  uuid.UUID // only for project-scoped access codes
	CodeRole   models.CodeRole
	ExpiresAt  time.Time
}

// Validate checks a token for consumability. Expired, consumed and unknown
// all collapse into models.ErrInviteInvalid.
func (s *Service) Validate(ctx context.Context, token string) (View, error) {
	inv, clientName, err := s.store.GetInviteByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, models.ErrInviteInvalid) {
			return View{}, models.ErrInviteInvalid
		}
		return View{}, err
	}
	if !inv.Consumable(s.clock()) {
		return View{}, models.ErrInviteInvalid
	}
	return View{
		ClientID:   inv.ClientID,
		ClientName: clientName,
		Level:      inv.Level,
		ExpiresAt:  inv.ExpiresAt,
	}, nil
}

// consume marks the token used exactly once. A lost race against another
// consumer reports ErrInviteInvalid.
func (s *Service) consume(ctx context.Context, token string) error {
	return s.store.MarkInviteUsed(ctx, hashToken(token), s.clock())
}

// ResolveRef validates any invite reference shape and returns the scope it
// grants. Access codes are non-consuming and multi-use.
func (s *Service) ResolveRef(ctx context.Context, ref Ref) (View, error) {
	switch ref.Kind {
	case KindToken:
		return s.Validate(ctx, ref.Token)
	case KindProjectCode:
		code, err := s.store.FindAccessCodeByCode(ctx, ref.Code)
		if err != nil {
			return View{}, invalidIfNotFound(err)
		}
		return s.codeView(ctx, code)
	case KindClientCode:
		code, err := s.store.GetAccessCode(ctx, ref.ClientID, ref.Code)
		if err != nil {
			return View{}, invalidIfNotFound(err)
		}
		return s.codeView(ctx, code)
	default:
		return View{}, models.ErrInviteInvalid
	}
}

func (s *Service) codeView(ctx context.Context, code models.AccessCode) (View, error) {
	client, err := s.store.FindClientByID(ctx, code.ClientID)
	if err != nil {
		return View{}, err
	}
	return View{
		ClientID:   code.ClientID,
		ClientName: client.Name,
		Level:      models.LevelClient,
		ProjectID:  code.ProjectID,
		CodeRole:   code.Role,
	}, nil
}

func invalidIfNotFound(err error) error {
	if errors.Is(err, models.ErrCodeNotFound) {
		return models.ErrInviteInvalid
	}
	return err
}
