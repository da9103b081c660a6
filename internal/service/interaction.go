package service

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"projhub/internal/cache"
	"projhub/internal/model"
	"projhub/internal/queue"
	"projhub/internal/repository"
)

// maxToggleAttempts bounds the insert-then-remove retry loop. Losing both
// races on the same attempt means another toggle for the same tuple landed in
// between; three rounds is plenty for double-click bursts.
const maxToggleAttempts = 3

// InteractionService implements the like and follow toggles. A toggle never
// reads current state first: it attempts the insert, falls back to the
// remove, and lets the storage uniqueness constraints arbitrate races.
type InteractionService struct {
	likeRepo    repository.LikeRepository
	followRepo  repository.FollowRepository
	projectRepo repository.ProjectRepository
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	db          *sqlx.DB
	publisher   queue.Publisher
	statsCache  cache.ProjectStatsCache
}

func NewInteractionService(
	likeRepo repository.LikeRepository,
	followRepo repository.FollowRepository,
	projectRepo repository.ProjectRepository,
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	db *sqlx.DB,
	publisher queue.Publisher,
	statsCache cache.ProjectStatsCache,
) *InteractionService {
	return &InteractionService{
		likeRepo:    likeRepo,
		followRepo:  followRepo,
		projectRepo: projectRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		db:          db,
		publisher:   publisher,
		statsCache:  statsCache,
	}
}

// ToggleLike flips the actor's like on a project or comment. The insert and
// the counter delta commit in one transaction, so the stored counter and the
// relationship rows cannot diverge on this path.
func (s *InteractionService) ToggleLike(ctx context.Context, actorID, targetID int64, targetType model.TargetType) (*model.ToggleLikeResult, error) {
	if !targetType.Likeable() {
		return nil, model.ErrInvalidTarget
	}

	switch targetType {
	case model.TargetProject:
		exists, err := s.projectRepo.Exists(ctx, targetID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, model.ErrProjectNotFound
		}
	case model.TargetComment:
		exists, err := s.commentRepo.ExistsActive(ctx, targetID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, model.ErrCommentNotFound
		}
	}

	var result *model.ToggleLikeResult
	for attempt := 1; attempt <= maxToggleAttempts; attempt++ {
		settled, r, err := s.attemptToggleLike(ctx, actorID, targetID, targetType)
		if err != nil {
			return nil, err
		}
		if settled {
			result = r
			break
		}
		log.Printf("[InteractionService] ToggleLike contended: actor=%d target=%d type=%s attempt=%d",
			actorID, targetID, targetType, attempt)
	}
	if result == nil {
		return nil, model.ErrToggleContention
	}

	// Invalidate after commit so the next read misses and repopulates.
	if targetType == model.TargetProject && s.statsCache != nil {
		if err := s.statsCache.Invalidate(ctx, targetID); err != nil {
			log.Printf("[InteractionService] stats invalidate failed: project=%d err=%v", targetID, err)
		}
	}

	if s.publisher != nil {
		event := queue.NewLikeToggledEvent(actorID, targetID, targetType)
		if _, err := s.publisher.Publish(ctx, queue.StreamInteractions, event); err != nil {
			log.Printf("[InteractionService] Failed to publish LikeToggled: actor=%d target=%d err=%v",
				actorID, targetID, err)
		}
	}

	return result, nil
}

// attemptToggleLike runs one insert-or-remove round. Returns settled=false
// when the insert conflicted and the remove found nothing, meaning a
// concurrent toggle flipped the state between the two statements.
func (s *InteractionService) attemptToggleLike(ctx context.Context, actorID, targetID int64, targetType model.TargetType) (bool, *model.ToggleLikeResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.likeRepo.Insert(ctx, tx, actorID, targetID, targetType)
	if err != nil {
		return false, nil, err
	}

	liked := inserted
	if !inserted {
		removed, err := s.likeRepo.Delete(ctx, tx, actorID, targetID, targetType)
		if err != nil {
			return false, nil, err
		}
		if !removed {
			// Lost both races; roll back and let the caller retry.
			return false, nil, nil
		}
	}

	delta := -1
	if liked {
		delta = 1
	}

	var count int
	switch targetType {
	case model.TargetProject:
		count, err = s.projectRepo.IncrementLikeCount(ctx, tx, targetID, delta)
	case model.TargetComment:
		count, err = s.commentRepo.IncrementLikeCount(ctx, tx, targetID, delta)
	}
	if err != nil {
		return false, nil, err
	}

	if err := tx.Commit(); err != nil {
		return false, nil, fmt.Errorf("commit transaction: %w", err)
	}

	return true, &model.ToggleLikeResult{Liked: liked, LikeCount: count}, nil
}

// ToggleFollow flips the actor's follow on another user. Both sides'
// counters move in the same transaction as the relationship row.
func (s *InteractionService) ToggleFollow(ctx context.Context, actorID, followeeID int64) (*model.ToggleFollowResult, error) {
	if actorID == followeeID {
		return nil, model.ErrCannotFollowSelf
	}

	exists, err := s.userRepo.Exists(ctx, followeeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrUserNotFound
	}

	var result *model.ToggleFollowResult
	for attempt := 1; attempt <= maxToggleAttempts; attempt++ {
		settled, r, err := s.attemptToggleFollow(ctx, actorID, followeeID)
		if err != nil {
			return nil, err
		}
		if settled {
			result = r
			break
		}
		log.Printf("[InteractionService] ToggleFollow contended: follower=%d followee=%d attempt=%d",
			actorID, followeeID, attempt)
	}
	if result == nil {
		return nil, model.ErrToggleContention
	}

	if s.publisher != nil {
		event := queue.NewFollowToggledEvent(actorID, followeeID)
		if _, err := s.publisher.Publish(ctx, queue.StreamInteractions, event); err != nil {
			log.Printf("[InteractionService] Failed to publish FollowToggled: follower=%d followee=%d err=%v",
				actorID, followeeID, err)
		}
	}

	return result, nil
}

func (s *InteractionService) attemptToggleFollow(ctx context.Context, actorID, followeeID int64) (bool, *model.ToggleFollowResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.followRepo.Insert(ctx, tx, actorID, followeeID)
	if err != nil {
		return false, nil, err
	}

	following := inserted
	if !inserted {
		removed, err := s.followRepo.Delete(ctx, tx, actorID, followeeID)
		if err != nil {
			return false, nil, err
		}
		if !removed {
			return false, nil, nil
		}
	}

	delta := -1
	if following {
		delta = 1
	}

	followerCount, err := s.userRepo.IncrementFollowerCount(ctx, tx, followeeID, delta)
	if err != nil {
		return false, nil, err
	}
	if _, err := s.userRepo.IncrementFollowingCount(ctx, tx, actorID, delta); err != nil {
		return false, nil, err
	}

	if err := tx.Commit(); err != nil {
		return false, nil, fmt.Errorf("commit transaction: %w", err)
	}

	return true, &model.ToggleFollowResult{Following: following, FollowerCount: followerCount}, nil
}
