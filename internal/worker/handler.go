package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"projhub/internal/model"
	"projhub/internal/queue"
)

// Reconciler defines the interface for counter reconciliation.
// This abstracts the sync service so workers don't depend on it directly.
type Reconciler interface {
	// Reconcile recomputes a target's counters and corrects drift.
	// Returns the corrections applied (empty when already in sync).
	Reconcile(ctx context.Context, targetID int64, targetType model.TargetType) ([]model.CounterDrift, error)
}

// Handler processes interaction events from the queue by reconciling every
// target whose counters the event may have touched. Reconciliation is
// idempotent, so reprocessing a redelivered message is harmless.
type Handler struct {
	reconciler Reconciler
}

// NewHandler creates a new event handler.
func NewHandler(reconciler Reconciler) *Handler {
	return &Handler{reconciler: reconciler}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.InteractionEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventLikeToggled:
		err = h.handleLikeToggled(ctx, event)
	case queue.EventFollowToggled:
		err = h.handleFollowToggled(ctx, event)
	case queue.EventCommentCreated, queue.EventCommentDeleted:
		err = h.handleCommentChanged(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handleLikeToggled reconciles the liked target's counters.
func (h *Handler) handleLikeToggled(ctx context.Context, event queue.InteractionEvent) error {
	log.Printf("[Worker] LikeToggled: actor=%d target=%d type=%s", event.ActorID, event.TargetID, event.TargetType)

	return h.reconcile(ctx, event.TargetID, event.TargetType)
}

// handleFollowToggled reconciles both sides of the follow edge.
func (h *Handler) handleFollowToggled(ctx context.Context, event queue.InteractionEvent) error {
	log.Printf("[Worker] FollowToggled: follower=%d followee=%d", event.ActorID, event.FolloweeID)

	if err := h.reconcile(ctx, event.FolloweeID, model.TargetUser); err != nil {
		return err
	}
	return h.reconcile(ctx, event.ActorID, model.TargetUser)
}

// handleCommentChanged reconciles the project's comment count and, for
// replies, the parent's reply count.
func (h *Handler) handleCommentChanged(ctx context.Context, event queue.InteractionEvent) error {
	log.Printf("[Worker] %s: comment=%d project=%d", event.Type, event.CommentID, event.ProjectID)

	if err := h.reconcile(ctx, event.ProjectID, model.TargetProject); err != nil {
		return err
	}
	if event.ParentCommentID != nil {
		return h.reconcile(ctx, *event.ParentCommentID, model.TargetComment)
	}
	return nil
}

// reconcile runs one reconciliation, logging drift when found. A vanished
// target is not an error: the event may arrive after its subject was deleted.
func (h *Handler) reconcile(ctx context.Context, targetID int64, targetType model.TargetType) error {
	drifts, err := h.reconciler.Reconcile(ctx, targetID, targetType)
	if err != nil {
		switch err {
		case model.ErrProjectNotFound, model.ErrCommentNotFound, model.ErrUserNotFound:
			log.Printf("[Worker] reconcile skipped, target gone: target=%d type=%s", targetID, targetType)
			return nil
		}
		return fmt.Errorf("reconcile %s %d: %w", targetType, targetID, err)
	}

	for _, d := range drifts {
		log.Printf("[Worker] drift corrected: target=%d type=%s counter=%s delta=%d",
			targetID, targetType, d.Counter, d.Delta)
	}

	return nil
}
