package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"projhub/internal/model"
)

type likeRepository struct {
	db *sqlx.DB
}

func NewLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Insert attempts to create the like tuple. ON CONFLICT DO NOTHING makes the
// check-then-act atomic at the storage layer: a duplicate insert affects zero
// rows instead of erroring, and the returned bool tells the toggle which
// branch it is on.
func (r *likeRepository) Insert(ctx context.Context, tx *sqlx.Tx, userID, targetID int64, targetType model.TargetType) (bool, error) {
	query := `
		INSERT INTO likes (user_id, target_id, target_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, target_id, target_type) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, userID, targetID, targetType)
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rows > 0, nil
}

// Delete removes the like tuple; returns false when no row existed.
func (r *likeRepository) Delete(ctx context.Context, tx *sqlx.Tx, userID, targetID int64, targetType model.TargetType) (bool, error) {
	query := `DELETE FROM likes WHERE user_id = $1 AND target_id = $2 AND target_type = $3`
	result, err := tx.ExecContext(ctx, query, userID, targetID, targetType)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *likeRepository) Exists(ctx context.Context, userID, targetID int64, targetType model.TargetType) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM likes WHERE user_id = $1 AND target_id = $2 AND target_type = $3)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, userID, targetID, targetType)
	if err != nil {
		return false, fmt.Errorf("check like existence: %w", err)
	}
	return exists, nil
}

// CheckLikes batch-checks which targets the user has liked using a single
// ANY($3) query, so read-side assembly never goes N+1.
func (r *likeRepository) CheckLikes(ctx context.Context, userID int64, targetType model.TargetType, targetIDs []int64) (map[int64]bool, error) {
	if len(targetIDs) == 0 {
		return make(map[int64]bool), nil
	}

	query := `SELECT target_id FROM likes WHERE user_id = $1 AND target_type = $2 AND target_id = ANY($3)`
	var likedIDs []int64
	err := r.db.SelectContext(ctx, &likedIDs, query, userID, targetType, pq.Array(targetIDs))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("check likes: %w", err)
	}

	result := make(map[int64]bool)
	for _, id := range targetIDs {
		result[id] = false
	}
	for _, id := range likedIDs {
		result[id] = true
	}

	return result, nil
}

// GetProjectLikers returns users who liked a project, newest first, with
// keyset pagination. Fetches limit+1 to probe for a next page; the cursor is
// the compound "id:timestamp" of the last returned row.
func (r *likeRepository) GetProjectLikers(ctx context.Context, projectID int64, cursor *string, limit int) ([]model.UserSummary, *string, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `
			SELECT u.id, u.username, u.display_name, u.avatar_url, l.id AS like_id, l.created_at
			FROM likes l
			JOIN users u ON u.id = l.user_id
			WHERE l.target_id = $1 AND l.target_type = 'project'
			ORDER BY l.created_at DESC, l.id DESC
			LIMIT $2
		`
		args = []interface{}{projectID, limit + 1}
	} else {
		ts, id, err := parseKeysetCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		query = `
			SELECT u.id, u.username, u.display_name, u.avatar_url, l.id AS like_id, l.created_at
			FROM likes l
			JOIN users u ON u.id = l.user_id
			WHERE l.target_id = $1 AND l.target_type = 'project' AND (l.created_at, l.id) < ($2, $3)
			ORDER BY l.created_at DESC, l.id DESC
			LIMIT $4
		`
		args = []interface{}{projectID, ts, id, limit + 1}
	}

	type likerRow struct {
		model.UserSummary
		LikeID    int64     `db:"like_id"`
		CreatedAt time.Time `db:"created_at"`
	}

	var rows []likerRow
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("get project likers: %w", err)
	}

	var nextCursor *string
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		c := formatKeysetCursor(last.CreatedAt, last.LikeID)
		nextCursor = &c
	}

	users := make([]model.UserSummary, len(rows))
	for i, row := range rows {
		users[i] = row.UserSummary
	}

	return users, nextCursor, nil
}
