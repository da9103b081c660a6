package model

import (
	"errors"
	"time"
)

// Follow is a directed user-to-user relationship. At most one row exists per
// (follower_id, followee_id) ordered pair; self-follows are rejected before
// the store is touched.
type Follow struct {
	FollowerID int64     `db:"follower_id" json:"follower_id"`
	FolloweeID int64     `db:"followee_id" json:"followee_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ToggleFollowResult is the outcome of a follow toggle.
type ToggleFollowResult struct {
	Following     bool `json:"following"`
	FollowerCount int  `json:"follower_count"`
}

// FollowListResponse is the paginated followers/following list response.
type FollowListResponse struct {
	Users      []UserSummary `json:"users"`
	NextCursor *string       `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

var (
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
)
