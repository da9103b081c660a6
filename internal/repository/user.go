package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"projhub/internal/model"
)

// userRepository reads actor identity and maintains the follow counters. It
// doubles as the actor-directory adapter for read-side assembly.
type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, username, display_name, avatar_url,
		       follower_count, following_count, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &u, nil
}

func (r *userRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, id)
	if err != nil {
		return false, fmt.Errorf("check user existence: %w", err)
	}

	return exists, nil
}

// GetSummariesByIDs batch-resolves actor identities for read-side assembly.
func (r *userRepository) GetSummariesByIDs(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	if len(ids) == 0 {
		return make(map[int64]model.UserSummary), nil
	}

	query := `SELECT id, username, display_name, avatar_url FROM users WHERE id = ANY($1)`
	var summaries []model.UserSummary
	err := r.db.SelectContext(ctx, &summaries, query, pq.Array(ids))
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("get user summaries: %w", err)
	}

	result := make(map[int64]model.UserSummary, len(summaries))
	for _, s := range summaries {
		result[s.ID] = s
	}

	return result, nil
}

func (r *userRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) (int, error) {
	query := `UPDATE users SET follower_count = follower_count + $1 WHERE id = $2 RETURNING follower_count`
	var count int
	err := tx.GetContext(ctx, &count, query, delta, userID)
	if err != nil {
		return 0, fmt.Errorf("increment follower count: %w", err)
	}
	return count, nil
}

func (r *userRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) (int, error) {
	query := `UPDATE users SET following_count = following_count + $1 WHERE id = $2 RETURNING following_count`
	var count int
	err := tx.GetContext(ctx, &count, query, delta, userID)
	if err != nil {
		return 0, fmt.Errorf("increment following count: %w", err)
	}
	return count, nil
}
