package model

import (
	"errors"
	"time"
)

// Project is a shared project that users like and discuss. The engine owns
// the interaction counters; project CRUD itself happens elsewhere.
type Project struct {
	ID           int64      `db:"id" json:"id"`
	OwnerID      int64      `db:"owner_id" json:"owner_id"`
	Title        string     `db:"title" json:"title"`
	Description  *string    `db:"description" json:"description"`
	LikeCount    int        `db:"like_count" json:"like_count"`
	CommentCount int        `db:"comment_count" json:"comment_count"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`

	// Joined fields (not in the projects table)
	Owner   *UserSummary `json:"owner,omitempty"`
	IsLiked bool         `json:"is_liked"`
}

// ProjectStats is the denormalized counter pair cached for fast single-entity
// reads. Stored counters are the fast path, never the sole source of truth.
type ProjectStats struct {
	LikeCount    int `json:"like_count"`
	CommentCount int `json:"comment_count"`
}

// LikersListResponse is the paginated likers list response.
type LikersListResponse struct {
	Users      []UserSummary `json:"users"`
	NextCursor *string       `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

// Project errors
var (
	ErrProjectNotFound = errors.New("project not found")
)
