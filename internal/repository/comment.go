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

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

const commentColumns = `id, project_id, author_id, content, parent_comment_id, depth,
	like_count, reply_count, report_count, is_active, is_edited, created_at, updated_at`

// Insert creates a comment row. Depth is computed by the service from the
// locked parent; the row starts active with zeroed counters.
func (r *commentRepository) Insert(ctx context.Context, tx *sqlx.Tx, projectID, authorID int64, content string, parentID *int64, depth int) (*model.Comment, error) {
	query := `
		INSERT INTO project_comments (project_id, author_id, content, parent_comment_id, depth)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + commentColumns
	var comment model.Comment
	err := tx.GetContext(ctx, &comment, query, projectID, authorID, content, parentID, depth)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &comment, nil
}

func (r *commentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM project_comments WHERE id = $1`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

// GetByIDForUpdate loads a comment under a row lock. Creation locks the
// parent this way and the cascade's tombstone UPDATE takes the same lock, so
// a reply and a subtree delete racing on the same parent serialize; whichever
// commits second observes the other's effect.
func (r *commentRepository) GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, commentID int64) (*model.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM project_comments WHERE id = $1 FOR UPDATE`
	var comment model.Comment
	err := tx.GetContext(ctx, &comment, query, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment for update: %w", err)
	}
	return &comment, nil
}

func (r *commentRepository) ExistsActive(ctx context.Context, commentID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM project_comments WHERE id = $1 AND is_active)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, commentID)
	if err != nil {
		return false, fmt.Errorf("check comment existence: %w", err)
	}
	return exists, nil
}

// UpdateContent edits a comment's content. Only the author may edit; the
// WHERE clause enforces ownership and the no-rows fallback distinguishes
// "not yours" from "gone".
func (r *commentRepository) UpdateContent(ctx context.Context, commentID, authorID int64, content string) (*model.Comment, error) {
	query := `
		UPDATE project_comments
		SET content = $1, is_edited = TRUE, updated_at = NOW()
		WHERE id = $2 AND author_id = $3 AND is_active
		RETURNING ` + commentColumns
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, content, commentID, authorID)
	if err == sql.ErrNoRows {
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM project_comments WHERE id = $1 AND is_active)`, commentID)
		if exists {
			return nil, model.ErrNotCommentAuthor
		}
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return &comment, nil
}

// Tombstone deactivates one active comment and replaces its content with the
// tombstone marker. Returns false when the row was already inactive, which is
// how an interrupted cascade skips already-processed rows on retry.
func (r *commentRepository) Tombstone(ctx context.Context, tx *sqlx.Tx, commentID int64) (bool, error) {
	query := `
		UPDATE project_comments
		SET is_active = FALSE, content = $2, updated_at = NOW()
		WHERE id = $1 AND is_active
	`
	result, err := tx.ExecContext(ctx, query, commentID, model.TombstoneContent)
	if err != nil {
		return false, fmt.Errorf("tombstone comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rows > 0, nil
}

// TombstoneChildren deactivates all active direct children of the given
// parents and returns their ids. The cascade calls this level by level over
// the parent_comment_id index (breadth-first over flat rows, no recursion).
func (r *commentRepository) TombstoneChildren(ctx context.Context, tx *sqlx.Tx, parentIDs []int64) ([]int64, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	query := `
		UPDATE project_comments
		SET is_active = FALSE, content = $2, updated_at = NOW()
		WHERE parent_comment_id = ANY($1) AND is_active
		RETURNING id
	`
	var ids []int64
	err := tx.SelectContext(ctx, &ids, query, pq.Array(parentIDs), model.TombstoneContent)
	if err != nil {
		return nil, fmt.Errorf("tombstone children: %w", err)
	}
	return ids, nil
}

func (r *commentRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, commentID int64, delta int) (int, error) {
	query := `UPDATE project_comments SET like_count = like_count + $1 WHERE id = $2 RETURNING like_count`
	var count int
	err := tx.GetContext(ctx, &count, query, delta, commentID)
	if err != nil {
		return 0, fmt.Errorf("increment comment like count: %w", err)
	}
	return count, nil
}

func (r *commentRepository) IncrementReplyCount(ctx context.Context, tx *sqlx.Tx, commentID int64, delta int) (int, error) {
	query := `UPDATE project_comments SET reply_count = reply_count + $1 WHERE id = $2 RETURNING reply_count`
	var count int
	err := tx.GetContext(ctx, &count, query, delta, commentID)
	if err != nil {
		return 0, fmt.Errorf("increment reply count: %w", err)
	}
	return count, nil
}

// commentRow scans a comment joined with its author and the live count of
// active direct replies.
type commentRow struct {
	ID              int64     `db:"id"`
	ProjectID       int64     `db:"project_id"`
	AuthorID        int64     `db:"author_id"`
	Content         string    `db:"content"`
	ParentCommentID *int64    `db:"parent_comment_id"`
	Depth           int       `db:"depth"`
	LikeCount       int       `db:"like_count"`
	ReplyCount      int       `db:"reply_count"`
	IsActive        bool      `db:"is_active"`
	IsEdited        bool      `db:"is_edited"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
	AuthorUsername  string    `db:"author_username"`
	AuthorDisplay   *string   `db:"author_display_name"`
	AuthorAvatar    *string   `db:"author_avatar_url"`
}

func (row commentRow) toComment() model.Comment {
	return model.Comment{
		ID:              row.ID,
		ProjectID:       row.ProjectID,
		AuthorID:        row.AuthorID,
		Content:         row.Content,
		ParentCommentID: row.ParentCommentID,
		Depth:           row.Depth,
		LikeCount:       row.LikeCount,
		ReplyCount:      row.ReplyCount,
		IsActive:        row.IsActive,
		IsEdited:        row.IsEdited,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		Author: &model.UserSummary{
			ID:          row.AuthorID,
			Username:    row.AuthorUsername,
			DisplayName: row.AuthorDisplay,
			AvatarURL:   row.AuthorAvatar,
		},
	}
}

// joinedCommentSelect reports reply_count as a read-time aggregate of active
// direct children rather than the stored counter, masking any drift on the
// listing path (the stored counter stays the fast path for single reads).
const joinedCommentSelect = `
	SELECT c.id, c.project_id, c.author_id, c.content, c.parent_comment_id, c.depth,
	       c.like_count,
	       COALESCE(r.active_replies, 0) AS reply_count,
	       c.is_active, c.is_edited, c.created_at, c.updated_at,
	       u.username AS author_username,
	       u.display_name AS author_display_name,
	       u.avatar_url AS author_avatar_url
	FROM project_comments c
	JOIN users u ON u.id = c.author_id
	LEFT JOIN (
	    SELECT parent_comment_id, COUNT(*) AS active_replies
	    FROM project_comments
	    WHERE is_active AND parent_comment_id IS NOT NULL
	    GROUP BY parent_comment_id
	) r ON r.parent_comment_id = c.id
`

// ListTopLevel returns one page of active top-level comments for a project.
func (r *commentRepository) ListTopLevel(ctx context.Context, projectID int64, offset, limit int, sort model.CommentSort) ([]model.Comment, error) {
	orderBy := `c.created_at DESC, c.id DESC`
	if sort == model.SortMostLiked {
		orderBy = `c.like_count DESC, c.created_at DESC, c.id DESC`
	}

	query := joinedCommentSelect + `
		WHERE c.project_id = $1 AND c.parent_comment_id IS NULL AND c.is_active
		ORDER BY ` + orderBy + `
		LIMIT $2 OFFSET $3
	`

	var rows []commentRow
	err := r.db.SelectContext(ctx, &rows, query, projectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list top-level comments: %w", err)
	}

	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = row.toComment()
	}

	return comments, nil
}

// ListReplies returns all active direct children of a comment, oldest first.
func (r *commentRepository) ListReplies(ctx context.Context, commentID int64) ([]model.Comment, error) {
	query := joinedCommentSelect + `
		WHERE c.parent_comment_id = $1 AND c.is_active
		ORDER BY c.created_at ASC, c.id ASC
	`

	var rows []commentRow
	err := r.db.SelectContext(ctx, &rows, query, commentID)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}

	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = row.toComment()
	}

	return comments, nil
}
