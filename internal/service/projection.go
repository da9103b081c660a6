package service

import (
	"context"
	"log"
	"time"

	"projhub/internal/cache"
	"projhub/internal/model"
	"projhub/internal/repository"
)

// ProjectionService assembles read-side views: projects with owner and
// viewer-specific like state, likers lists, and follower/following lists with
// batched follow-status enrichment.
type ProjectionService struct {
	projectRepo repository.ProjectRepository
	likeRepo    repository.LikeRepository
	followRepo  repository.FollowRepository
	userRepo    repository.UserRepository
	statsCache  cache.ProjectStatsCache
}

func NewProjectionService(
	projectRepo repository.ProjectRepository,
	likeRepo repository.LikeRepository,
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	statsCache cache.ProjectStatsCache,
) *ProjectionService {
	return &ProjectionService{
		projectRepo: projectRepo,
		likeRepo:    likeRepo,
		followRepo:  followRepo,
		userRepo:    userRepo,
		statsCache:  statsCache,
	}
}

// GetProject returns a project with its owner summary and, when a viewer is
// known, whether the viewer has liked it. Counters come from the stats cache
// when warm; on a miss the stored counters are served and cached.
func (s *ProjectionService) GetProject(ctx context.Context, projectID int64, viewerID *int64) (*model.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if s.statsCache != nil {
		stats, found, err := s.statsCache.Get(ctx, projectID)
		if err != nil {
			log.Printf("[ProjectionService] stats cache read failed: project=%d err=%v", projectID, err)
		} else if found {
			project.LikeCount = stats.LikeCount
			project.CommentCount = stats.CommentCount
		} else {
			// Best effort; a failed write just means the next read misses too.
			if err := s.statsCache.Set(ctx, projectID, model.ProjectStats{
				LikeCount:    project.LikeCount,
				CommentCount: project.CommentCount,
			}); err != nil {
				log.Printf("[ProjectionService] stats cache write failed: project=%d err=%v", projectID, err)
			}
		}
	}

	if summaries, err := s.userRepo.GetSummariesByIDs(ctx, []int64{project.OwnerID}); err == nil {
		if owner, ok := summaries[project.OwnerID]; ok {
			project.Owner = &owner
		}
	}

	if viewerID != nil {
		liked, err := s.likeRepo.Exists(ctx, *viewerID, projectID, model.TargetProject)
		if err != nil {
			log.Printf("[ProjectionService] like check failed: viewer=%d project=%d err=%v", *viewerID, projectID, err)
		} else {
			project.IsLiked = liked
		}
	}

	return project, nil
}

// GetProjectLikers returns one page of users who liked a project, newest
// first, with follow status relative to the viewer.
func (s *ProjectionService) GetProjectLikers(ctx context.Context, projectID int64, cursor *string, limit int, viewerID *int64) (*model.LikersListResponse, error) {
	exists, err := s.projectRepo.Exists(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrProjectNotFound
	}

	users, nextCursor, err := s.likeRepo.GetProjectLikers(ctx, projectID, cursor, limit)
	if err != nil {
		return nil, err
	}

	if viewerID != nil {
		users = s.enrichWithFollowStatus(ctx, *viewerID, users)
	}

	return &model.LikersListResponse{
		Users:      users,
		NextCursor: nextCursor,
		HasMore:    nextCursor != nil,
	}, nil
}

// GetFollowers returns one page of a user's followers, newest first.
func (s *ProjectionService) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int, viewerID *int64) (*model.FollowListResponse, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	users, nextCursor, err := s.followRepo.GetFollowers(ctx, userID, cursor, limit)
	if err != nil {
		return nil, err
	}

	return s.buildFollowList(ctx, users, nextCursor, viewerID), nil
}

// GetFollowing returns one page of the users someone follows, newest first.
func (s *ProjectionService) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int, viewerID *int64) (*model.FollowListResponse, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	users, nextCursor, err := s.followRepo.GetFollowing(ctx, userID, cursor, limit)
	if err != nil {
		return nil, err
	}

	return s.buildFollowList(ctx, users, nextCursor, viewerID), nil
}

func (s *ProjectionService) requireUser(ctx context.Context, userID int64) error {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrUserNotFound
	}
	return nil
}

func (s *ProjectionService) buildFollowList(ctx context.Context, users []model.UserSummary, nextCursor *time.Time, viewerID *int64) *model.FollowListResponse {
	if viewerID != nil {
		users = s.enrichWithFollowStatus(ctx, *viewerID, users)
	}

	var nextCursorStr *string
	if nextCursor != nil {
		str := nextCursor.Format(time.RFC3339Nano)
		nextCursorStr = &str
	}

	return &model.FollowListResponse{
		Users:      users,
		NextCursor: nextCursorStr,
		HasMore:    nextCursor != nil,
	}
}

// enrichWithFollowStatus batch-checks which listed users the viewer follows
// with a single ANY($1) query. A failed check degrades to is_following=false
// rather than failing the listing.
func (s *ProjectionService) enrichWithFollowStatus(ctx context.Context, viewerID int64, users []model.UserSummary) []model.UserSummary {
	if len(users) == 0 {
		return users
	}

	userIDs := make([]int64, len(users))
	for i, user := range users {
		userIDs[i] = user.ID
	}

	followMap, err := s.followRepo.CheckFollows(ctx, viewerID, userIDs)
	if err != nil {
		return users
	}

	for i := range users {
		users[i].IsFollowing = followMap[users[i].ID]
	}

	return users
}
