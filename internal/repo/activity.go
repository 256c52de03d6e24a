package repo

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"studiodesk/internal/models"
)

// ---------------- Activity log ----------------

func (p *pgRepo) AppendActivity(ctx context.Context, a models.Activity) error {
	slog.DebugContext(ctx, "AppendActivity", "project_id", a.ProjectID.String(), "kind", a.Kind)
	_, err := p.pool.Exec(ctx, `
		INSERT INTO activity (project_id, actor_id, kind, detail)
		VALUES ($1, $2, $3, $4)`,
		toPgUUID(a.ProjectID), nullablePgUUID(a.ActorID), a.Kind, a.Detail)
	if err != nil {
		slog.ErrorContext(ctx, "AppendActivity failed", "err", err)
	}
	return err
}

func (p *pgRepo) ListActivityByProject(ctx context.Context, projectID uuid.UUID, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id, project_id, actor_id, kind, detail, created_at
		FROM activity WHERE project_id = $1
		ORDER BY created_at DESC LIMIT $2`, toPgUUID(projectID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Activity{}
	for rows.Next() {
		var (
			id, pid, actor pgtype.UUID
			a              models.Activity
		)
		if err := rows.Scan(&id, &pid, &actor, &a.Kind, &a.Detail, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.ID = fromPgUUID(id)
		a.ProjectID = fromPgUUID(pid)
		a.ActorID = fromPgUUID(actor)
		out = append(out, a)
	}
	return out, rows.Err()
}
