package model

import (
	"errors"
	"time"
)

// TargetType tags what kind of entity an interaction points at.
type TargetType string

const (
	TargetProject TargetType = "project"
	TargetComment TargetType = "comment"
	TargetUser    TargetType = "user"
)

// Likeable reports whether the target type accepts likes.
func (t TargetType) Likeable() bool {
	return t == TargetProject || t == TargetComment
}

// Like is a single user-to-target like relationship. At most one row exists
// per (user_id, target_id, target_type) tuple; the storage layer enforces
// this with a uniqueness constraint, which is what makes the toggle
// algorithm race-safe.
type Like struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	TargetID   int64      `db:"target_id" json:"target_id"`
	TargetType TargetType `db:"target_type" json:"target_type"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// ToggleLikeResult is the outcome of a like toggle.
type ToggleLikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// Interaction errors
var (
	ErrInvalidTarget    = errors.New("invalid interaction target")
	ErrToggleContention = errors.New("toggle lost both insert and remove races")
)
