package service

import (
	"context"
	"testing"
	"time"

	"projhub/internal/model"
)

func TestProjectionService_GetProject_CacheMissPopulates(t *testing.T) {
	projectRepo := &mockProjectRepository{
		getByIDFn: func(ctx context.Context, projectID int64) (*model.Project, error) {
			return &model.Project{ID: projectID, OwnerID: 1, LikeCount: 5, CommentCount: 2}, nil
		},
	}
	statsCache := newMockStatsCache()

	svc := NewProjectionService(projectRepo, &mockLikeRepository{}, &mockFollowRepository{}, &mockUserRepository{}, statsCache)

	project, err := svc.GetProject(context.Background(), 42, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if project.LikeCount != 5 || project.CommentCount != 2 {
		t.Errorf("counts = (%d, %d), want (5, 2)", project.LikeCount, project.CommentCount)
	}
	if project.Owner == nil || project.Owner.ID != 1 {
		t.Error("expected owner summary to be attached")
	}

	cached, ok := statsCache.stats[42]
	if !ok {
		t.Fatal("expected stats to be cached after miss")
	}
	if cached.LikeCount != 5 || cached.CommentCount != 2 {
		t.Errorf("cached stats = %+v, want (5, 2)", cached)
	}
}

func TestProjectionService_GetProject_CacheHitOverridesCounts(t *testing.T) {
	projectRepo := &mockProjectRepository{
		getByIDFn: func(ctx context.Context, projectID int64) (*model.Project, error) {
			return &model.Project{ID: projectID, OwnerID: 1, LikeCount: 5, CommentCount: 2}, nil
		},
	}
	statsCache := newMockStatsCache()
	statsCache.stats[42] = model.ProjectStats{LikeCount: 9, CommentCount: 4}

	svc := NewProjectionService(projectRepo, &mockLikeRepository{}, &mockFollowRepository{}, &mockUserRepository{}, statsCache)

	project, err := svc.GetProject(context.Background(), 42, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if project.LikeCount != 9 || project.CommentCount != 4 {
		t.Errorf("counts = (%d, %d), want cached (9, 4)", project.LikeCount, project.CommentCount)
	}
}

func TestProjectionService_GetProject_ViewerLikeState(t *testing.T) {
	projectRepo := &mockProjectRepository{
		getByIDFn: func(ctx context.Context, projectID int64) (*model.Project, error) {
			return &model.Project{ID: projectID, OwnerID: 1}, nil
		},
	}
	likeRepo := &mockLikeRepository{
		existsFn: func(ctx context.Context, userID, targetID int64, targetType model.TargetType) (bool, error) {
			return userID == 10 && targetID == 42 && targetType == model.TargetProject, nil
		},
	}

	svc := NewProjectionService(projectRepo, likeRepo, &mockFollowRepository{}, &mockUserRepository{}, nil)

	viewer := int64(10)
	project, err := svc.GetProject(context.Background(), 42, &viewer)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !project.IsLiked {
		t.Error("expected IsLiked = true for the liking viewer")
	}

	anonymous, err := svc.GetProject(context.Background(), 42, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if anonymous.IsLiked {
		t.Error("expected IsLiked = false without a viewer")
	}
}

func TestProjectionService_GetFollowers_EnrichesFollowStatus(t *testing.T) {
	next := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	followRepo := &mockFollowRepository{
		getFollowersFn: func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
			return []model.UserSummary{{ID: 2, Username: "a"}, {ID: 3, Username: "b"}}, &next, nil
		},
		checkFollowsFn: func(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
			return map[int64]bool{2: true}, nil
		},
	}

	svc := NewProjectionService(&mockProjectRepository{}, &mockLikeRepository{}, followRepo, &mockUserRepository{}, nil)

	viewer := int64(10)
	resp, err := svc.GetFollowers(context.Background(), 1, nil, 20, &viewer)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(resp.Users) != 2 {
		t.Fatalf("users = %d, want 2", len(resp.Users))
	}
	if !resp.Users[0].IsFollowing || resp.Users[1].IsFollowing {
		t.Errorf("follow status = (%t, %t), want (true, false)",
			resp.Users[0].IsFollowing, resp.Users[1].IsFollowing)
	}
	if !resp.HasMore || resp.NextCursor == nil {
		t.Error("expected next cursor when another page exists")
	}
}

func TestProjectionService_GetProjectLikers_ProjectMustExist(t *testing.T) {
	projectRepo := &mockProjectRepository{
		existsFn: func(ctx context.Context, projectID int64) (bool, error) { return false, nil },
	}

	svc := NewProjectionService(projectRepo, &mockLikeRepository{}, &mockFollowRepository{}, &mockUserRepository{}, nil)

	_, err := svc.GetProjectLikers(context.Background(), 404, nil, 20, nil)
	if err != model.ErrProjectNotFound {
		t.Fatalf("expected ErrProjectNotFound, got: %v", err)
	}
}
