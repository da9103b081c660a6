package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"projhub/internal/model"
)

// syncRepository implements the recompute-and-correct queries behind counter
// reconciliation. Stored counters are locked FOR UPDATE before the recount so
// a concurrent toggle cannot slip between the read and the correction.
type syncRepository struct {
	db *sqlx.DB
}

func NewSyncRepository(db *sqlx.DB) SyncRepository {
	return &syncRepository{db: db}
}

func (r *syncRepository) ProjectCountersForUpdate(ctx context.Context, tx *sqlx.Tx, projectID int64) (int, int, error) {
	query := `SELECT like_count, comment_count FROM projects WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	var row struct {
		LikeCount    int `db:"like_count"`
		CommentCount int `db:"comment_count"`
	}
	err := tx.GetContext(ctx, &row, query, projectID)
	if err == sql.ErrNoRows {
		return 0, 0, model.ErrProjectNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("lock project counters: %w", err)
	}
	return row.LikeCount, row.CommentCount, nil
}

func (r *syncRepository) CommentCountersForUpdate(ctx context.Context, tx *sqlx.Tx, commentID int64) (int, int, bool, error) {
	query := `SELECT like_count, reply_count, is_active FROM project_comments WHERE id = $1 FOR UPDATE`
	var row struct {
		LikeCount  int  `db:"like_count"`
		ReplyCount int  `db:"reply_count"`
		IsActive   bool `db:"is_active"`
	}
	err := tx.GetContext(ctx, &row, query, commentID)
	if err == sql.ErrNoRows {
		return 0, 0, false, model.ErrCommentNotFound
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("lock comment counters: %w", err)
	}
	return row.LikeCount, row.ReplyCount, row.IsActive, nil
}

func (r *syncRepository) UserCountersForUpdate(ctx context.Context, tx *sqlx.Tx, userID int64) (int, int, error) {
	query := `SELECT follower_count, following_count FROM users WHERE id = $1 FOR UPDATE`
	var row struct {
		FollowerCount  int `db:"follower_count"`
		FollowingCount int `db:"following_count"`
	}
	err := tx.GetContext(ctx, &row, query, userID)
	if err == sql.ErrNoRows {
		return 0, 0, model.ErrUserNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("lock user counters: %w", err)
	}
	return row.FollowerCount, row.FollowingCount, nil
}

func (r *syncRepository) CountLikes(ctx context.Context, tx *sqlx.Tx, targetID int64, targetType model.TargetType) (int, error) {
	query := `SELECT COUNT(*) FROM likes WHERE target_id = $1 AND target_type = $2`
	var count int
	err := tx.GetContext(ctx, &count, query, targetID, targetType)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

func (r *syncRepository) CountActiveComments(ctx context.Context, tx *sqlx.Tx, projectID int64) (int, error) {
	query := `SELECT COUNT(*) FROM project_comments WHERE project_id = $1 AND is_active`
	var count int
	err := tx.GetContext(ctx, &count, query, projectID)
	if err != nil {
		return 0, fmt.Errorf("count active comments: %w", err)
	}
	return count, nil
}

func (r *syncRepository) CountActiveReplies(ctx context.Context, tx *sqlx.Tx, commentID int64) (int, error) {
	query := `SELECT COUNT(*) FROM project_comments WHERE parent_comment_id = $1 AND is_active`
	var count int
	err := tx.GetContext(ctx, &count, query, commentID)
	if err != nil {
		return 0, fmt.Errorf("count active replies: %w", err)
	}
	return count, nil
}

func (r *syncRepository) CountFollowers(ctx context.Context, tx *sqlx.Tx, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM follows WHERE followee_id = $1`
	var count int
	err := tx.GetContext(ctx, &count, query, userID)
	if err != nil {
		return 0, fmt.Errorf("count followers: %w", err)
	}
	return count, nil
}

func (r *syncRepository) CountFollowing(ctx context.Context, tx *sqlx.Tx, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM follows WHERE follower_id = $1`
	var count int
	err := tx.GetContext(ctx, &count, query, userID)
	if err != nil {
		return 0, fmt.Errorf("count following: %w", err)
	}
	return count, nil
}

func (r *syncRepository) SetProjectCounters(ctx context.Context, tx *sqlx.Tx, projectID int64, likeCount, commentCount int) error {
	query := `UPDATE projects SET like_count = $1, comment_count = $2 WHERE id = $3`
	_, err := tx.ExecContext(ctx, query, likeCount, commentCount, projectID)
	if err != nil {
		return fmt.Errorf("set project counters: %w", err)
	}
	return nil
}

func (r *syncRepository) SetCommentCounters(ctx context.Context, tx *sqlx.Tx, commentID int64, likeCount, replyCount int) error {
	query := `UPDATE project_comments SET like_count = $1, reply_count = $2 WHERE id = $3`
	_, err := tx.ExecContext(ctx, query, likeCount, replyCount, commentID)
	if err != nil {
		return fmt.Errorf("set comment counters: %w", err)
	}
	return nil
}

func (r *syncRepository) SetUserCounters(ctx context.Context, tx *sqlx.Tx, userID int64, followerCount, followingCount int) error {
	query := `UPDATE users SET follower_count = $1, following_count = $2 WHERE id = $3`
	_, err := tx.ExecContext(ctx, query, followerCount, followingCount, userID)
	if err != nil {
		return fmt.Errorf("set user counters: %w", err)
	}
	return nil
}
