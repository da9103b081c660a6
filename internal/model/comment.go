package model

import (
	"errors"
	"time"
)

// Comment is a node in a project's discussion thread. Comments form a tree
// through ParentCommentID; Depth is fixed at creation (0 for top-level,
// parent.Depth+1 otherwise) and never exceeds MaxThreadDepth.
//
// Comments are never physically removed: deletion tombstones the content and
// flips IsActive so that descendants' parent references stay resolvable.
type Comment struct {
	ID              int64     `db:"id" json:"id"`
	ProjectID       int64     `db:"project_id" json:"project_id"`
	AuthorID        int64     `db:"author_id" json:"-"`
	Content         string    `db:"content" json:"content"`
	ParentCommentID *int64    `db:"parent_comment_id" json:"parent_comment_id,omitempty"`
	Depth           int       `db:"depth" json:"depth"`
	LikeCount       int       `db:"like_count" json:"like_count"`
	ReplyCount      int       `db:"reply_count" json:"reply_count"`
	ReportCount     int       `db:"report_count" json:"-"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	IsEdited        bool      `db:"is_edited" json:"is_edited"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`

	Author *UserSummary `json:"author,omitempty"` // Joined field
}

// CommentSort selects the ordering of top-level comment listings.
type CommentSort string

const (
	SortRecent    CommentSort = "recent"
	SortMostLiked CommentSort = "most_liked"
)

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	Content         string `json:"content"`
	ParentCommentID *int64 `json:"parent_comment_id,omitempty"`
}

// UpdateCommentRequest is the request body for editing a comment.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// CommentListResponse is the paginated top-level comment list response.
// Each entry's ReplyCount is a live count of active direct children computed
// at read time, not the stored counter.
type CommentListResponse struct {
	Comments []Comment `json:"comments"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	HasMore  bool      `json:"has_more"`
}

// Comment constraints
const (
	// MaxThreadDepth bounds reply nesting. A reply whose computed depth would
	// exceed this is rejected, not flattened.
	MaxThreadDepth = 5

	MaxCommentLength = 2000

	// TombstoneContent replaces the content of soft-deleted comments.
	TombstoneContent = "[Comment deleted]"
)

// Comment errors
var (
	ErrCommentNotFound    = errors.New("comment not found")
	ErrNotCommentAuthor   = errors.New("not the author of this comment")
	ErrDeleteForbidden    = errors.New("not allowed to delete this comment")
	ErrContentRequired    = errors.New("comment content is required")
	ErrContentTooLong     = errors.New("comment content too long")
	ErrParentNotFound     = errors.New("parent comment not found")
	ErrParentWrongProject = errors.New("parent comment belongs to a different project")
	ErrThreadTooDeep      = errors.New("reply depth limit exceeded")
)
