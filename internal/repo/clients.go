package repo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"studiodesk/internal/models"
)

// ---------------- Client accounts ----------------

func (p *pgRepo) CreateClient(ctx context.Context, slug, name string) (models.ClientAccount, error) {
	slog.DebugContext(ctx, "CreateClient", "slug", slug)
	row := p.pool.QueryRow(ctx, `
		INSERT INTO clients (slug, name) VALUES ($1, $2) RETURNING id`, slug, name)
	var id pgtype.UUID
	if err := row.Scan(&id); err != nil {
		slog.ErrorContext(ctx, "CreateClient failed", "err", err)
		return models.ClientAccount{}, err
	}
	return models.ClientAccount{ID: fromPgUUID(id), Slug: slug, Name: name}, nil
}

func (p *pgRepo) FindClientByID(ctx context.Context, id uuid.UUID) (models.ClientAccount, error) {
	return p.scanClient(p.pool.QueryRow(ctx, `
		SELECT id, slug, name FROM clients WHERE id = $1`, toPgUUID(id)))
}

func (p *pgRepo) FindClientBySlug(ctx context.Context, slug string) (models.ClientAccount, error) {
	return p.scanClient(p.pool.QueryRow(ctx, `
		SELECT id, slug, name FROM clients WHERE slug = $1`, slug))
}

func (p *pgRepo) scanClient(row pgx.Row) (models.ClientAccount, error) {
	var (
		id pgtype.UUID
		c  models.ClientAccount
	)
	if err := row.Scan(&id, &c.Slug, &c.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ClientAccount{}, models.ErrClientNotFound
		}
		return models.ClientAccount{}, err
	}
	c.ID = fromPgUUID(id)
	return c, nil
}

func (p *pgRepo) ListClients(ctx context.Context) ([]models.ClientAccount, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, slug, name FROM clients ORDER BY name`)
	if err != nil {
		slog.ErrorContext(ctx, "ListClients failed", "err", err)
		return nil, err
	}
	defer rows.Close()

	out := []models.ClientAccount{}
	for rows.Next() {
		var (
			id pgtype.UUID
			c  models.ClientAccount
		)
		if err := rows.Scan(&id, &c.Slug, &c.Name); err != nil {
			return nil, err
		}
		c.ID = fromPgUUID(id)
		out = append(out, c)
	}
	return out, rows.Err()
}
