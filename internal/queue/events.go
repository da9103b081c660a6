package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"projhub/internal/model"
)

// Event types for the interaction stream
const (
	EventLikeToggled    = "like_toggled"
	EventFollowToggled  = "follow_toggled"
	EventCommentCreated = "comment_created"
	EventCommentDeleted = "comment_deleted"
)

// Stream names
const (
	StreamInteractions = "stream:interactions"
)

// Consumer group name for counter-sync workers
const (
	ConsumerGroupSync = "countersync_workers"
)

// InteractionEvent is published after every committed interaction mutation.
// The counter-sync worker consumes these and reconciles the touched targets,
// so stored counters self-heal shortly after any drift is introduced.
type InteractionEvent struct {
	EventID   string `json:"event_id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	ActorID int64 `json:"actor_id"`

	// Like events
	TargetID   int64            `json:"target_id,omitempty"`
	TargetType model.TargetType `json:"target_type,omitempty"`

	// Follow events
	FolloweeID int64 `json:"followee_id,omitempty"`

	// Comment events
	CommentID       int64  `json:"comment_id,omitempty"`
	ProjectID       int64  `json:"project_id,omitempty"`
	ParentCommentID *int64 `json:"parent_comment_id,omitempty"`
}

// NewLikeToggledEvent records a like or unlike of a project or comment.
func NewLikeToggledEvent(actorID, targetID int64, targetType model.TargetType) InteractionEvent {
	return InteractionEvent{
		EventID:    uuid.NewString(),
		Type:       EventLikeToggled,
		Timestamp:  time.Now().Unix(),
		ActorID:    actorID,
		TargetID:   targetID,
		TargetType: targetType,
	}
}

// NewFollowToggledEvent records a follow or unfollow. Both sides carry
// counters, so the worker reconciles actor and followee.
func NewFollowToggledEvent(actorID, followeeID int64) InteractionEvent {
	return InteractionEvent{
		EventID:    uuid.NewString(),
		Type:       EventFollowToggled,
		Timestamp:  time.Now().Unix(),
		ActorID:    actorID,
		FolloweeID: followeeID,
	}
}

// NewCommentCreatedEvent records a new comment; the parent id is set for
// replies so the parent's reply counter gets reconciled too.
func NewCommentCreatedEvent(actorID, commentID, projectID int64, parentID *int64) InteractionEvent {
	return InteractionEvent{
		EventID:         uuid.NewString(),
		Type:            EventCommentCreated,
		Timestamp:       time.Now().Unix(),
		ActorID:         actorID,
		CommentID:       commentID,
		ProjectID:       projectID,
		ParentCommentID: parentID,
	}
}

// NewCommentDeletedEvent records a cascading soft-delete.
func NewCommentDeletedEvent(actorID, commentID, projectID int64, parentID *int64) InteractionEvent {
	return InteractionEvent{
		EventID:         uuid.NewString(),
		Type:            EventCommentDeleted,
		Timestamp:       time.Now().Unix(),
		ActorID:         actorID,
		CommentID:       commentID,
		ProjectID:       projectID,
		ParentCommentID: parentID,
	}
}

// ToMap converts the event to a map for Redis XADD. Streams store field-value
// pairs, so the event is serialized to JSON in a "data" field.
func (e InteractionEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseInteractionEvent parses an InteractionEvent from stream message values.
func ParseInteractionEvent(values map[string]interface{}) (InteractionEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return InteractionEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event InteractionEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return InteractionEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
