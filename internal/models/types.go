// internal/models/types.go
package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type AccessLevel string

const (
	LevelManager AccessLevel = "MANAGER"
	LevelClient  AccessLevel = "CLIENT"
)

// CodeRole is the three-tier role carried by a shareable access code.
type CodeRole string

const (
	CodeRoleViewer      CodeRole = "Viewer"
	CodeRoleContributor CodeRole = "Contributor"
	CodeRoleAdmin       CodeRole = "Admin"
)

type ProjectStatus string

const (
	StatusInProgress ProjectStatus = "in-progress"
	StatusRevision   ProjectStatus = "revision"
	StatusCompleted  ProjectStatus = "completed"
)

func ValidStatus(s ProjectStatus) bool {
	switch s {
	case StatusInProgress, StatusRevision, StatusCompleted:
		return true
	}
	return false
}

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrClientNotFound  = errors.New("client account not found")
	ErrProjectNotFound = errors.New("project not found")

	// ErrInviteInvalid deliberately collapses expired, consumed and unknown
	// tokens into one signal so callers cannot probe which tokens ever existed.
	ErrInviteInvalid = errors.New("invite invalid")

	ErrCodeNotFound    = errors.New("access code not found")
	ErrIdentityExists  = errors.New("identity already exists")
	ErrGoalsIncomplete = errors.New("project has incomplete goals")
)

type User struct {
	ID          uuid.UUID
	Email       string
	Name        string
	AccessLevel AccessLevel
	ClientID    uuid.UUID // uuid.Nil for managers without an affiliation
	IsOnboarded bool
	AvatarURL   string
}

type ClientAccount struct {
	ID   uuid.UUID
	Slug string
	Name string
}

type LocalCredential struct {
	UserID       uuid.UUID
	Username     string
	PasswordHash string
}

type Session struct {
	UserID       uuid.UUID
	ActiveClient uuid.UUID
	Provider     string
	Expiry       time.Time
}

// InviteToken is a single-use invitation. Only the SHA-256 of the token is
// kept at rest; consumed rows are retained as an audit trail.
type InviteToken struct {
	ID        uuid.UUID
	TokenHash string
	ClientID  uuid.UUID
	Level     AccessLevel
	InvitedBy uuid.UUID
	UsedAt    time.Time // zero means unconsumed
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (t InviteToken) Consumable(now time.Time) bool {
	return t.UsedAt.IsZero() && now.Before(t.ExpiresAt)
}

// AccessCode is a durable, multi-use invite: a human-memorable code scoped to
// a whole client account (ProjectID == uuid.Nil) or to a single project.
type AccessCode struct {
	ID        uuid.UUID
	ClientID  uuid.UUID
	ProjectID uuid.UUID // uuid.Nil means the whole account
	Code      string
	Role      CodeRole
	CreatedAt time.Time
}

type Project struct {
	ID        uuid.UUID
	ClientID  uuid.UUID
	Title     string
	Status    ProjectStatus
	Progress  int // 0..100
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreativeGoal is a checklist child of a project; every goal must be
// completed before the parent can move to StatusCompleted.
type CreativeGoal struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Title     string
	Completed bool
	Position  int
}

type Activity struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	ActorID   uuid.UUID
	Kind      string
	Detail    string
	CreatedAt time.Time
}
