package repo

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"studiodesk/internal/models"
)

// ---------------- Users ----------------

func (p *pgRepo) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	slog.DebugContext(ctx, "CreateUser", "email", u.Email)
	row := p.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, access_level, client_id, is_onboarded, avatar_url)
		VALUES (lower($1), $2, $3, $4, $5, $6)
		RETURNING id`,
		u.Email, toText(u.Name), string(u.AccessLevel), nullablePgUUID(u.ClientID), u.IsOnboarded, toText(u.AvatarURL))
	var id pgtype.UUID
	if err := row.Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return models.User{}, models.ErrIdentityExists
		}
		slog.ErrorContext(ctx, "CreateUser failed", "err", err)
		return models.User{}, err
	}
	u.ID = fromPgUUID(id)
	u.Email = strings.ToLower(u.Email)
	return u, nil
}

func (p *pgRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	slog.DebugContext(ctx, "GetUserByID", "user_id", id.String())
	return p.scanUser(p.pool.QueryRow(ctx, `
		SELECT id, email, name, access_level, client_id, is_onboarded, avatar_url
		FROM users WHERE id = $1`, toPgUUID(id)))
}

func (p *pgRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx, `
		SELECT id, email, name, access_level, client_id, is_onboarded, avatar_url
		FROM users WHERE email = lower($1)`, email))
}

func (p *pgRepo) scanUser(row pgx.Row) (models.User, error) {
	var (
		id, clientID pgtype.UUID
		name, avatar pgtype.Text
		level        string
		u            models.User
	)
	if err := row.Scan(&id, &u.Email, &name, &level, &clientID, &u.IsOnboarded, &avatar); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, models.ErrUserNotFound
		}
		return models.User{}, err
	}
	u.ID = fromPgUUID(id)
	u.ClientID = fromPgUUID(clientID)
	u.Name = fromText(name)
	u.AvatarURL = fromText(avatar)
	u.AccessLevel = models.AccessLevel(level)
	return u, nil
}

func (p *pgRepo) SetUserAccess(ctx context.Context, id uuid.UUID, level models.AccessLevel, clientID uuid.UUID, onboarded bool) error {
	slog.DebugContext(ctx, "SetUserAccess", "user_id", id.String(), "level", string(level))
	_, err := p.pool.Exec(ctx, `
		UPDATE users SET access_level = $2, client_id = $3, is_onboarded = $4
		WHERE id = $1`,
		toPgUUID(id), string(level), nullablePgUUID(clientID), onboarded)
	return err
}

func (p *pgRepo) CompleteOnboarding(ctx context.Context, id uuid.UUID) error {
	slog.DebugContext(ctx, "CompleteOnboarding", "user_id", id.String())
	_, err := p.pool.Exec(ctx, `UPDATE users SET is_onboarded = true WHERE id = $1`, toPgUUID(id))
	return err
}

func (p *pgRepo) UpdateUserProfile(ctx context.Context, id uuid.UUID, name, avatarURL string) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE users SET name = COALESCE($2, name), avatar_url = COALESCE($3, avatar_url)
		WHERE id = $1`,
		toPgUUID(id), toText(name), toText(avatarURL))
	return err
}

// ---------------- Local credentials ----------------

func (p *pgRepo) CreateLocalCredential(ctx context.Context, uid uuid.UUID, username, phc string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO local_credentials (user_id, username, password_hash)
		VALUES ($1, lower($2), $3)`,
		toPgUUID(uid), username, phc)
	if isUniqueViolation(err) {
		return models.ErrIdentityExists
	}
	return err
}

func (p *pgRepo) GetLocalCredentialByUsername(ctx context.Context, username string) (models.LocalCredential, models.User, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT c.user_id, c.username, c.password_hash,
		       u.email, u.name, u.access_level, u.client_id, u.is_onboarded, u.avatar_url
		FROM local_credentials c JOIN users u ON u.id = c.user_id
		WHERE c.username = lower($1)`, username)
	var (
		uid, clientID pgtype.UUID
		name, avatar  pgtype.Text
		level         string
		lc            models.LocalCredential
		u             models.User
	)
	if err := row.Scan(&uid, &lc.Username, &lc.PasswordHash,
		&u.Email, &name, &level, &clientID, &u.IsOnboarded, &avatar); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.LocalCredential{}, models.User{}, models.ErrUserNotFound
		}
		return models.LocalCredential{}, models.User{}, err
	}
	lc.UserID = fromPgUUID(uid)
	u.ID = lc.UserID
	u.ClientID = fromPgUUID(clientID)
	u.Name = fromText(name)
	u.AvatarURL = fromText(avatar)
	u.AccessLevel = models.AccessLevel(level)
	return lc, u, nil
}

func (p *pgRepo) UpdateLocalPasswordHash(ctx context.Context, uid uuid.UUID, phc string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE local_credentials SET password_hash = $2 WHERE user_id = $1`,
		toPgUUID(uid), phc)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
