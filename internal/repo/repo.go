// internal/repo/repo.go
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"studiodesk/internal/models"
)

// Repo defines the methods the rest of the app uses.
type Repo interface {
	// Users & credentials
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	SetUserAccess(ctx context.Context, id uuid.UUID, level models.AccessLevel, clientID uuid.UUID, onboarded bool) error
	CompleteOnboarding(ctx context.Context, id uuid.UUID) error
	UpdateUserProfile(ctx context.Context, id uuid.UUID, name, avatarURL string) error

	CreateLocalCredential(ctx context.Context, uid uuid.UUID, username, phc string) error
	GetLocalCredentialByUsername(ctx context.Context, username string) (models.LocalCredential, models.User, error)
	UpdateLocalPasswordHash(ctx context.Context, uid uuid.UUID, phc string) error

	// Client accounts
	CreateClient(ctx context.Context, slug, name string) (models.ClientAccount, error)
	FindClientByID(ctx context.Context, id uuid.UUID) (models.ClientAccount, error)
	FindClientBySlug(ctx context.Context, slug string) (models.ClientAccount, error)
	ListClients(ctx context.Context) ([]models.ClientAccount, error)

	// Invitations
	CreateInvite(ctx context.Context, inv models.InviteToken) error
	GetInviteByTokenHash(ctx context.Context, hash string) (models.InviteToken, string, error)
	MarkInviteUsed(ctx context.Context, hash string, at time.Time) error

	// Access codes
	CreateAccessCode(ctx context.Context, code models.AccessCode) (models.AccessCode, error)
	GetAccessCode(ctx context.Context, clientID uuid.UUID, code string) (models.AccessCode, error)
	FindAccessCodeByCode(ctx context.Context, code string) (models.AccessCode, error)
	ListAccessCodes(ctx context.Context, clientID uuid.UUID) ([]models.AccessCode, error)
	DeleteAccessCode(ctx context.Context, clientID, id uuid.UUID) error

	// Projects & goals
	CreateProject(ctx context.Context, p models.Project) (models.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (models.Project, error)
	ListProjectsByClient(ctx context.Context, clientID uuid.UUID) ([]models.Project, error)
	ChangeProjectStatus(ctx context.Context, clientID, projectID uuid.UUID, status models.ProjectStatus) error
	SetProjectProgress(ctx context.Context, clientID, projectID uuid.UUID, progress int) error

	ListGoalsByProject(ctx context.Context, projectID uuid.UUID) ([]models.CreativeGoal, error)
	CreateGoal(ctx context.Context, g models.CreativeGoal) (models.CreativeGoal, error)
	ToggleGoalComplete(ctx context.Context, projectID, goalID uuid.UUID, complete bool) error
	CountIncompleteGoals(ctx context.Context, projectID uuid.UUID) (int, error)

	// Activity log
	AppendActivity(ctx context.Context, a models.Activity) error
	ListActivityByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]models.Activity, error)
}

// pgRepo runs queries against a pgx pool.
type pgRepo struct{ pool *pgxpool.Pool }

func New(pool *pgxpool.Pool) Repo { return &pgRepo{pool: pool} }

// ---------------- Helpers ----------------

func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// nullablePgUUID maps uuid.Nil to SQL NULL.
func nullablePgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: id != uuid.Nil}
}

func fromPgUUID(u pgtype.UUID) uuid.UUID {
	if !u.Valid {
		return uuid.Nil
	}
	return uuid.UUID(u.Bytes)
}

func toText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func fromText(t pgtype.Text) string {
	return t.String
}

func fromTimestamptz(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}
