package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corkboard/corkboard/internal/domain"
	"github.com/corkboard/corkboard/internal/domain/project"
	"github.com/corkboard/corkboard/internal/domain/user"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// inTx runs fn inside a transaction, committing on nil and rolling back
// otherwise. The positional mutators use it so sibling renumbering and the
// primary write land atomically.
func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// --- Projects ---

const projectCols = `id, owner_id, name, version, deleted_at, created_at, updated_at`

func scanProject(row scannable) (project.Project, error) {
	var p project.Project
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Version, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) ListProjects(ctx context.Context, userID string) ([]project.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectCols+` FROM projects
		 WHERE deleted_at IS NULL
		   AND id IN (SELECT project_id FROM project_members WHERE user_id = $1)
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return orEmpty(projects), rows.Err()
}

func (s *Store) GetProject(ctx context.Context, id string) (*project.Project, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+projectCols+` FROM projects WHERE id = $1 AND deleted_at IS NULL`, id)

	p, err := scanProject(row)
	if err != nil {
		return nil, notFoundWrap(err, "get project %s", id)
	}
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, ownerID string, req project.CreateRequest) (*project.Project, error) {
	var p project.Project
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO projects (owner_id, name) VALUES ($1, $2)
			 RETURNING `+projectCols, ownerID, req.Name)
		var err error
		if p, err = scanProject(row); err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)`, p.ID, ownerID)
		if err != nil {
			return fmt.Errorf("seed owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProject(ctx context.Context, p *project.Project) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET name = $2, version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $3 AND deleted_at IS NULL`,
		p.ID, p.Name, p.Version)
	if err != nil {
		return fmt.Errorf("update project %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update project %s: %w", p.ID, domain.ErrConflict)
	}
	p.Version++
	return nil
}

func (s *Store) SoftDeleteProject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET deleted_at = now(), updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	return execExpectOne(tag, err, "delete project %s", id)
}

func (s *Store) ProjectStats(ctx context.Context, id string) (*project.Stats, error) {
	if _, err := s.GetProject(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.name, count(t.id)
		 FROM columns c
		 LEFT JOIN tasks t ON t.column_id = c.id
		 WHERE c.project_id = $1
		 GROUP BY c.id, c.name, c.sort_order
		 ORDER BY c.sort_order`, id)
	if err != nil {
		return nil, fmt.Errorf("project stats %s: %w", id, err)
	}
	defer rows.Close()

	stats := &project.Stats{ProjectID: id, Columns: []project.ColumnStats{}}
	for rows.Next() {
		var cs project.ColumnStats
		if err := rows.Scan(&cs.ColumnID, &cs.Name, &cs.Tasks); err != nil {
			return nil, fmt.Errorf("scan column stats: %w", err)
		}
		stats.Columns = append(stats.Columns, cs)
		stats.Tasks += cs.Tasks
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.pool.QueryRow(ctx,
		`SELECT count(*) FROM comments WHERE project_id = $1`, id).Scan(&stats.Comments)
	if err != nil {
		return nil, fmt.Errorf("count comments %s: %w", id, err)
	}
	return stats, nil
}

func (s *Store) HasProjectAccess(ctx context.Context, projectID, userID string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM projects p
		   JOIN project_members m ON m.project_id = p.id
		   WHERE p.id = $1 AND p.deleted_at IS NULL AND m.user_id = $2
		 )`, projectID, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check project access %s: %w", projectID, err)
	}
	return ok, nil
}

// --- Members ---

func (s *Store) AddProjectMember(ctx context.Context, projectID, userID string) error {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, projectID, userID)
	if err != nil {
		return fmt.Errorf("add member %s to %s: %w", userID, projectID, err)
	}
	return nil
}

func (s *Store) RemoveProjectMember(ctx context.Context, projectID, userID string) error {
	var ownerID string
	err := s.pool.QueryRow(ctx,
		`SELECT owner_id FROM projects WHERE id = $1 AND deleted_at IS NULL`, projectID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("remove member from %s: %w", projectID, domain.ErrNotFound)
		}
		return fmt.Errorf("remove member from %s: %w", projectID, err)
	}
	if ownerID == userID {
		return fmt.Errorf("remove member: owner cannot leave their own project: %w", domain.ErrValidation)
	}

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	return execExpectOne(tag, err, "remove member %s from %s", userID, projectID)
}

func (s *Store) ListProjectMembers(ctx context.Context, projectID string) ([]user.Public, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.name, u.email
		 FROM project_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.project_id = $1
		 ORDER BY u.name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members %s: %w", projectID, err)
	}
	defer rows.Close()

	var members []user.Public
	for rows.Next() {
		var u user.Public
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, u)
	}
	return orEmpty(members), rows.Err()
}
