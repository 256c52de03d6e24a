package repo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"studiodesk/internal/models"
)

// ---------------- Invitations ----------------

func (p *pgRepo) CreateInvite(ctx context.Context, inv models.InviteToken) error {
	slog.DebugContext(ctx, "CreateInvite", "client_id", inv.ClientID.String(), "level", string(inv.Level))
	_, err := p.pool.Exec(ctx, `
		INSERT INTO invites (token_hash, client_id, access_level, invited_by, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		inv.TokenHash, toPgUUID(inv.ClientID), string(inv.Level), toPgUUID(inv.InvitedBy), inv.ExpiresAt)
	if err != nil {
		slog.ErrorContext(ctx, "CreateInvite failed", "err", err)
	}
	return err
}

// GetInviteByTokenHash returns the invite row joined with the client's
// display name. Callers decide consumability; unknown hashes come back as
// ErrInviteInvalid so the not-found shape matches expired/used tokens.
func (p *pgRepo) GetInviteByTokenHash(ctx context.Context, hash string) (models.InviteToken, string, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT i.id, i.token_hash, i.client_id, i.access_level, i.invited_by,
		       i.used_at, i.created_at, i.expires_at, c.name
		FROM invites i JOIN clients c ON c.id = i.client_id
		WHERE i.token_hash = $1`, hash)
	var (
		id, clientID, invitedBy pgtype.UUID
		usedAt                  pgtype.Timestamptz
		level                   string
		clientName              string
		inv                     models.InviteToken
	)
	if err := row.Scan(&id, &inv.TokenHash, &clientID, &level, &invitedBy,
		&usedAt, &inv.CreatedAt, &inv.ExpiresAt, &clientName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.InviteToken{}, "", models.ErrInviteInvalid
		}
		slog.ErrorContext(ctx, "GetInviteByTokenHash failed", "err", err)
		return models.InviteToken{}, "", err
	}
	inv.ID = fromPgUUID(id)
	inv.ClientID = fromPgUUID(clientID)
	inv.InvitedBy = fromPgUUID(invitedBy)
	inv.UsedAt = fromTimestamptz(usedAt)
	inv.Level = models.AccessLevel(level)
	return inv, clientName, nil
}

// MarkInviteUsed flips used_at exactly once; a second attempt hits zero rows
// and reports ErrInviteInvalid, which keeps token consumption replay-safe.
func (p *pgRepo) MarkInviteUsed(ctx context.Context, hash string, at time.Time) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE invites SET used_at = $2
		WHERE token_hash = $1 AND used_at IS NULL`, hash, at)
	if err != nil {
		slog.ErrorContext(ctx, "MarkInviteUsed failed", "err", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInviteInvalid
	}
	return nil
}

// ---------------- Access codes ----------------

func (p *pgRepo) CreateAccessCode(ctx context.Context, code models.AccessCode) (models.AccessCode, error) {
	slog.DebugContext(ctx, "CreateAccessCode", "client_id", code.ClientID.String(), "code", code.Code)
	row := p.pool.QueryRow(ctx, `
		INSERT INTO access_codes (client_id, project_id, code, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		toPgUUID(code.ClientID), nullablePgUUID(code.ProjectID), code.Code, string(code.Role))
	var id pgtype.UUID
	if err := row.Scan(&id, &code.CreatedAt); err != nil {
		slog.ErrorContext(ctx, "CreateAccessCode failed", "err", err)
		return models.AccessCode{}, err
	}
	code.ID = fromPgUUID(id)
	return code, nil
}

func (p *pgRepo) GetAccessCode(ctx context.Context, clientID uuid.UUID, code string) (models.AccessCode, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, client_id, project_id, code, role, created_at
		FROM access_codes WHERE client_id = $1 AND code = $2`,
		toPgUUID(clientID), code)
	return scanAccessCode(row)
}

// FindAccessCodeByCode looks a code up without a client scope; codes are
// unique system-wide.
func (p *pgRepo) FindAccessCodeByCode(ctx context.Context, code string) (models.AccessCode, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, client_id, project_id, code, role, created_at
		FROM access_codes WHERE code = $1`, code)
	return scanAccessCode(row)
}

func (p *pgRepo) ListAccessCodes(ctx context.Context, clientID uuid.UUID) ([]models.AccessCode, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, client_id, project_id, code, role, created_at
		FROM access_codes WHERE client_id = $1 ORDER BY created_at DESC`,
		toPgUUID(clientID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.AccessCode{}
	for rows.Next() {
		c, err := scanAccessCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *pgRepo) DeleteAccessCode(ctx context.Context, clientID, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `
		DELETE FROM access_codes WHERE client_id = $1 AND id = $2`,
		toPgUUID(clientID), toPgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrCodeNotFound
	}
	return nil
}

func scanAccessCode(row pgx.Row) (models.AccessCode, error) {
	var (
		id, clientID, projectID pgtype.UUID
		role                    string
		c                       models.AccessCode
	)
	if err := row.Scan(&id, &clientID, &projectID, &c.Code, &role, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AccessCode{}, models.ErrCodeNotFound
		}
		return models.AccessCode{}, err
	}
	c.ID = fromPgUUID(id)
	c.ClientID = fromPgUUID(clientID)
	c.ProjectID = fromPgUUID(projectID)
	c.Role = models.CodeRole(role)
	return c, nil
}
