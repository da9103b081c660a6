package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"projhub/internal/model"
)

type projectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) GetByID(ctx context.Context, projectID int64) (*model.Project, error) {
	query := `
		SELECT id, owner_id, title, description, like_count, comment_count, created_at, updated_at
		FROM projects
		WHERE id = $1 AND deleted_at IS NULL
	`
	var project model.Project
	err := r.db.GetContext(ctx, &project, query, projectID)
	if err == sql.ErrNoRows {
		return nil, model.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &project, nil
}

func (r *projectRepository) Exists(ctx context.Context, projectID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1 AND deleted_at IS NULL)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, projectID)
	if err != nil {
		return false, fmt.Errorf("check project existence: %w", err)
	}
	return exists, nil
}

func (r *projectRepository) GetOwnerID(ctx context.Context, projectID int64) (int64, error) {
	query := `SELECT owner_id FROM projects WHERE id = $1 AND deleted_at IS NULL`
	var ownerID int64
	err := r.db.GetContext(ctx, &ownerID, query, projectID)
	if err == sql.ErrNoRows {
		return 0, model.ErrProjectNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get project owner: %w", err)
	}
	return ownerID, nil
}

// IncrementLikeCount applies an atomic delta and returns the updated value.
// Counters are never written as read-modify-write of a cached value.
func (r *projectRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, projectID int64, delta int) (int, error) {
	query := `UPDATE projects SET like_count = like_count + $1 WHERE id = $2 RETURNING like_count`
	var count int
	err := tx.GetContext(ctx, &count, query, delta, projectID)
	if err != nil {
		return 0, fmt.Errorf("increment project like count: %w", err)
	}
	return count, nil
}

func (r *projectRepository) IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, projectID int64, delta int) (int, error) {
	query := `UPDATE projects SET comment_count = comment_count + $1 WHERE id = $2 RETURNING comment_count`
	var count int
	err := tx.GetContext(ctx, &count, query, delta, projectID)
	if err != nil {
		return 0, fmt.Errorf("increment project comment count: %w", err)
	}
	return count, nil
}
