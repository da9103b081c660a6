package service

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"projhub/internal/model"
	"projhub/internal/repository"
)

// CounterSyncService recomputes denormalized counters from the relationship
// rows and corrects any drift. The stored counters are the fast path for
// single-entity reads; the aggregates are authoritative, and reconciliation
// converges the former to the latter.
type CounterSyncService struct {
	syncRepo repository.SyncRepository
	db       *sqlx.DB
}

func NewCounterSyncService(syncRepo repository.SyncRepository, db *sqlx.DB) *CounterSyncService {
	return &CounterSyncService{syncRepo: syncRepo, db: db}
}

// Reconcile recomputes the target's counters and writes corrections where the
// stored values drifted. The stored counters are locked before the recount so
// a toggle committing mid-reconcile cannot be overwritten with a stale value.
// Returns the drift report; an empty slice means everything was in sync.
func (s *CounterSyncService) Reconcile(ctx context.Context, targetID int64, targetType model.TargetType) ([]model.CounterDrift, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var drifts []model.CounterDrift

	switch targetType {
	case model.TargetProject:
		drifts, err = s.reconcileProject(ctx, tx, targetID)
	case model.TargetComment:
		drifts, err = s.reconcileComment(ctx, tx, targetID)
	case model.TargetUser:
		drifts, err = s.reconcileUser(ctx, tx, targetID)
	default:
		return nil, model.ErrInvalidTarget
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	for _, d := range drifts {
		log.Printf("[CounterSync] corrected drift: target=%d type=%s counter=%s stored=%d actual=%d",
			targetID, targetType, d.Counter, d.Stored, d.Actual)
	}

	return drifts, nil
}

func (s *CounterSyncService) reconcileProject(ctx context.Context, tx *sqlx.Tx, projectID int64) ([]model.CounterDrift, error) {
	storedLikes, storedComments, err := s.syncRepo.ProjectCountersForUpdate(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}

	actualLikes, err := s.syncRepo.CountLikes(ctx, tx, projectID, model.TargetProject)
	if err != nil {
		return nil, err
	}
	actualComments, err := s.syncRepo.CountActiveComments(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}

	drifts := collectDrifts(
		model.CounterDrift{Counter: "like_count", Stored: storedLikes, Actual: actualLikes},
		model.CounterDrift{Counter: "comment_count", Stored: storedComments, Actual: actualComments},
	)
	if len(drifts) == 0 {
		return nil, nil
	}

	if err := s.syncRepo.SetProjectCounters(ctx, tx, projectID, actualLikes, actualComments); err != nil {
		return nil, err
	}
	return drifts, nil
}

func (s *CounterSyncService) reconcileComment(ctx context.Context, tx *sqlx.Tx, commentID int64) ([]model.CounterDrift, error) {
	storedLikes, storedReplies, active, err := s.syncRepo.CommentCountersForUpdate(ctx, tx, commentID)
	if err != nil {
		return nil, err
	}

	// Tombstoned comments keep their counters as a historical record; the
	// reply_count contract only holds while the comment is active.
	if !active {
		return nil, nil
	}

	actualLikes, err := s.syncRepo.CountLikes(ctx, tx, commentID, model.TargetComment)
	if err != nil {
		return nil, err
	}
	actualReplies, err := s.syncRepo.CountActiveReplies(ctx, tx, commentID)
	if err != nil {
		return nil, err
	}

	drifts := collectDrifts(
		model.CounterDrift{Counter: "like_count", Stored: storedLikes, Actual: actualLikes},
		model.CounterDrift{Counter: "reply_count", Stored: storedReplies, Actual: actualReplies},
	)
	if len(drifts) == 0 {
		return nil, nil
	}

	if err := s.syncRepo.SetCommentCounters(ctx, tx, commentID, actualLikes, actualReplies); err != nil {
		return nil, err
	}
	return drifts, nil
}

func (s *CounterSyncService) reconcileUser(ctx context.Context, tx *sqlx.Tx, userID int64) ([]model.CounterDrift, error) {
	storedFollowers, storedFollowing, err := s.syncRepo.UserCountersForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	actualFollowers, err := s.syncRepo.CountFollowers(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	actualFollowing, err := s.syncRepo.CountFollowing(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	drifts := collectDrifts(
		model.CounterDrift{Counter: "follower_count", Stored: storedFollowers, Actual: actualFollowers},
		model.CounterDrift{Counter: "following_count", Stored: storedFollowing, Actual: actualFollowing},
	)
	if len(drifts) == 0 {
		return nil, nil
	}

	if err := s.syncRepo.SetUserCounters(ctx, tx, userID, actualFollowers, actualFollowing); err != nil {
		return nil, err
	}
	return drifts, nil
}

// collectDrifts keeps only the counters whose stored value differs from the
// recomputed aggregate, filling in the delta.
func collectDrifts(candidates ...model.CounterDrift) []model.CounterDrift {
	var drifts []model.CounterDrift
	for _, c := range candidates {
		if c.Stored != c.Actual {
			c.Delta = c.Actual - c.Stored
			drifts = append(drifts, c)
		}
	}
	return drifts
}
