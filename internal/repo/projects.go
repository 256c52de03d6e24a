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

// ---------------- Projects ----------------

func (p *pgRepo) CreateProject(ctx context.Context, pr models.Project) (models.Project, error) {
	slog.DebugContext(ctx, "CreateProject", "client_id", pr.ClientID.String(), "title", pr.Title)
	row := p.pool.QueryRow(ctx, `
		INSERT INTO projects (client_id, title, status, progress)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		toPgUUID(pr.ClientID), pr.Title, string(pr.Status), pr.Progress)
	var id pgtype.UUID
	if err := row.Scan(&id, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
		slog.ErrorContext(ctx, "CreateProject failed", "err", err)
		return models.Project{}, err
	}
	pr.ID = fromPgUUID(id)
	return pr, nil
}

func (p *pgRepo) GetProject(ctx context.Context, id uuid.UUID) (models.Project, error) {
	return scanProject(p.pool.QueryRow(ctx, `
		SELECT id, client_id, title, status, progress, created_at, updated_at
		FROM projects WHERE id = $1`, toPgUUID(id)))
}

func (p *pgRepo) ListProjectsByClient(ctx context.Context, clientID uuid.UUID) ([]models.Project, error) {
	slog.DebugContext(ctx, "ListProjectsByClient", "client_id", clientID.String())
	rows, err := p.pool.Query(ctx, `
		SELECT id, client_id, title, status, progress, created_at, updated_at
		FROM projects WHERE client_id = $1 ORDER BY created_at DESC`, toPgUUID(clientID))
	if err != nil {
		slog.ErrorContext(ctx, "ListProjectsByClient failed", "err", err)
		return nil, err
	}
	defer rows.Close()

	out := []models.Project{}
	for rows.Next() {
		pr, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

func (p *pgRepo) ChangeProjectStatus(ctx context.Context, clientID, projectID uuid.UUID, status models.ProjectStatus) error {
	slog.DebugContext(ctx, "ChangeProjectStatus", "client_id", clientID.String(), "project_id", projectID.String(), "status", string(status))
	tag, err := p.pool.Exec(ctx, `
		UPDATE projects SET status = $3, updated_at = now()
		WHERE client_id = $1 AND id = $2`,
		toPgUUID(clientID), toPgUUID(projectID), string(status))
	if err != nil {
		slog.ErrorContext(ctx, "ChangeProjectStatus failed", "err", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProjectNotFound
	}
	return nil
}

func (p *pgRepo) SetProjectProgress(ctx context.Context, clientID, projectID uuid.UUID, progress int) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE projects SET progress = $3, updated_at = now()
		WHERE client_id = $1 AND id = $2`,
		toPgUUID(clientID), toPgUUID(projectID), progress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProjectNotFound
	}
	return nil
}

func scanProject(row pgx.Row) (models.Project, error) {
	var (
		id, clientID pgtype.UUID
		status       string
		pr           models.Project
	)
	if err := row.Scan(&id, &clientID, &pr.Title, &status, &pr.Progress, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Project{}, models.ErrProjectNotFound
		}
		return models.Project{}, err
	}
	pr.ID = fromPgUUID(id)
	pr.ClientID = fromPgUUID(clientID)
	pr.Status = models.ProjectStatus(status)
	return pr, nil
}

// ---------------- Creative goals ----------------

func (p *pgRepo) ListGoalsByProject(ctx context.Context, projectID uuid.UUID) ([]models.CreativeGoal, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, project_id, title, completed, position
		FROM creative_goals WHERE project_id = $1 ORDER BY position`, toPgUUID(projectID))
	if err != nil {
		slog.ErrorContext(ctx, "ListGoalsByProject failed", "err", err)
		return nil, err
	}
	defer rows.Close()

	out := []models.CreativeGoal{}
	for rows.Next() {
		var (
			id, pid pgtype.UUID
			g       models.CreativeGoal
		)
		if err := rows.Scan(&id, &pid, &g.Title, &g.Completed, &g.Position); err != nil {
			return nil, err
		}
		g.ID = fromPgUUID(id)
		g.ProjectID = fromPgUUID(pid)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (p *pgRepo) CreateGoal(ctx context.Context, g models.CreativeGoal) (models.CreativeGoal, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO creative_goals (project_id, title, completed, position)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		toPgUUID(g.ProjectID), g.Title, g.Completed, g.Position)
	var id pgtype.UUID
	if err := row.Scan(&id); err != nil {
		slog.ErrorContext(ctx, "CreateGoal failed", "err", err)
		return models.CreativeGoal{}, err
	}
	g.ID = fromPgUUID(id)
	return g, nil
}

func (p *pgRepo) ToggleGoalComplete(ctx context.Context, projectID, goalID uuid.UUID, complete bool) error {
	slog.DebugContext(ctx, "ToggleGoalComplete", "project_id", projectID.String(), "goal_id", goalID.String(), "complete", complete)
	tag, err := p.pool.Exec(ctx, `
		UPDATE creative_goals SET completed = $3
		WHERE project_id = $1 AND id = $2`,
		toPgUUID(projectID), toPgUUID(goalID), complete)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProjectNotFound
	}
	return nil
}

func (p *pgRepo) CountIncompleteGoals(ctx context.Context, projectID uuid.UUID) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, `
		SELECT count(*) FROM creative_goals
		WHERE project_id = $1 AND NOT completed`, toPgUUID(projectID)).Scan(&n)
	return n, err
}
