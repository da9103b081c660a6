package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"projhub/internal/model"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	GetSummariesByIDs(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)
	// Counter mutations are atomic deltas executed inside the caller's
	// transaction; they return the updated value.
	IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) (int, error)
	IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) (int, error)
}

type ProjectRepository interface {
	GetByID(ctx context.Context, projectID int64) (*model.Project, error)
	Exists(ctx context.Context, projectID int64) (bool, error)
	GetOwnerID(ctx context.Context, projectID int64) (int64, error)
	IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, projectID int64, delta int) (int, error)
	IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, projectID int64, delta int) (int, error)
}

// LikeRepository is the relationship store for likes. Insert and Delete are
// atomic at the storage layer: Insert relies on the
// (user_id, target_id, target_type) uniqueness constraint and reports whether
// a row was actually created, never erroring on a duplicate.
type LikeRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, userID, targetID int64, targetType model.TargetType) (bool, error)
	Delete(ctx context.Context, tx *sqlx.Tx, userID, targetID int64, targetType model.TargetType) (bool, error)
	Exists(ctx context.Context, userID, targetID int64, targetType model.TargetType) (bool, error)
	// CheckLikes batch-checks which targets of one type the user has liked.
	CheckLikes(ctx context.Context, userID int64, targetType model.TargetType, targetIDs []int64) (map[int64]bool, error)
	GetProjectLikers(ctx context.Context, projectID int64, cursor *string, limit int) ([]model.UserSummary, *string, error)
}

// FollowRepository is the relationship store for follows; same atomicity
// contract as LikeRepository, keyed on the (follower_id, followee_id) pair.
type FollowRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
	GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
}

// CommentRepository stores the comment tree as flat rows keyed by id with
// parent_comment_id as a foreign key; subtrees are resolved by indexed query,
// never by in-memory pointer traversal.
type CommentRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, projectID, authorID int64, content string, parentID *int64, depth int) (*model.Comment, error)
	GetByID(ctx context.Context, commentID int64) (*model.Comment, error)
	// GetByIDForUpdate locks the row for the duration of the transaction.
	// Both comment creation and cascade deletion take this lock, which is
	// what keeps a concurrent reply from attaching to a subtree that is
	// being tombstoned.
	GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, commentID int64) (*model.Comment, error)
	ExistsActive(ctx context.Context, commentID int64) (bool, error)
	UpdateContent(ctx context.Context, commentID, authorID int64, content string) (*model.Comment, error)
	// Tombstone deactivates a single active comment. Returns false when the
	// comment was already inactive (idempotent retry skips it).
	Tombstone(ctx context.Context, tx *sqlx.Tx, commentID int64) (bool, error)
	// TombstoneChildren deactivates all active direct children of the given
	// parents and returns their ids, one BFS level per call.
	TombstoneChildren(ctx context.Context, tx *sqlx.Tx, parentIDs []int64) ([]int64, error)
	IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, commentID int64, delta int) (int, error)
	IncrementReplyCount(ctx context.Context, tx *sqlx.Tx, commentID int64, delta int) (int, error)
	ListTopLevel(ctx context.Context, projectID int64, offset, limit int, sort model.CommentSort) ([]model.Comment, error)
	ListReplies(ctx context.Context, commentID int64) ([]model.Comment, error)
}

// SyncRepository exposes the recompute-and-correct queries behind the
// CounterSync reconciliation contract. Stored counters are read FOR UPDATE so
// the correction does not race with concurrent toggles.
type SyncRepository interface {
	ProjectCountersForUpdate(ctx context.Context, tx *sqlx.Tx, projectID int64) (likeCount, commentCount int, err error)
	CommentCountersForUpdate(ctx context.Context, tx *sqlx.Tx, commentID int64) (likeCount, replyCount int, active bool, err error)
	UserCountersForUpdate(ctx context.Context, tx *sqlx.Tx, userID int64) (followerCount, followingCount int, err error)

	CountLikes(ctx context.Context, tx *sqlx.Tx, targetID int64, targetType model.TargetType) (int, error)
	CountActiveComments(ctx context.Context, tx *sqlx.Tx, projectID int64) (int, error)
	CountActiveReplies(ctx context.Context, tx *sqlx.Tx, commentID int64) (int, error)
	CountFollowers(ctx context.Context, tx *sqlx.Tx, userID int64) (int, error)
	CountFollowing(ctx context.Context, tx *sqlx.Tx, userID int64) (int, error)

	SetProjectCounters(ctx context.Context, tx *sqlx.Tx, projectID int64, likeCount, commentCount int) error
	SetCommentCounters(ctx context.Context, tx *sqlx.Tx, commentID int64, likeCount, replyCount int) error
	SetUserCounters(ctx context.Context, tx *sqlx.Tx, userID int64, followerCount, followingCount int) error
}
