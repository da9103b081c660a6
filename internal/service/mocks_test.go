package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"projhub/internal/model"
	"projhub/internal/queue"
)

// =============================================================================
// TEST DATABASE
// =============================================================================
//
// Services own the transaction boundary (BeginTxx/Commit), so the *sqlx.DB
// itself is faked with sqlmock while the repositories are fn-field mocks that
// ignore the tx handle. Tests assert the begin/commit/rollback sequence
// through sqlmock expectations.

func newTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// Because services depend on repository INTERFACES, each test swaps in a mock
// whose fn fields define the behavior for that scenario.

type mockLikeRepository struct {
	insertFn     func(ctx context.Context, tx *sqlx.Tx, userID, targetID int64, targetType model.TargetType) (bool, error)
	deleteFn     func(ctx context.Context, tx *sqlx.Tx, userID, targetID int64, targetType model.TargetType) (bool, error)
	existsFn     func(ctx context.Context, userID, targetID int64, targetType model.TargetType) (bool, error)
	checkLikesFn func(ctx context.Context, userID int64, targetType model.TargetType, targetIDs []int64) (map[int64]bool, error)
	getLikersFn  func(ctx context.Context, projectID int64, cursor *string, limit int) ([]model.UserSummary, *string, error)

	insertCalls int
	deleteCalls int
}

func (m *mockLikeRepository) Insert(ctx context.Context, tx *sqlx.Tx, userID, targetID int64, targetType model.TargetType) (bool, error) {
	m.insertCalls++
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, userID, targetID, targetType)
	}
	return true, nil
}

func (m *mockLikeRepository) Delete(ctx context.Context, tx *sqlx.Tx, userID, targetID int64, targetType model.TargetType) (bool, error) {
	m.deleteCalls++
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, userID, targetID, targetType)
	}
	return true, nil
}

func (m *mockLikeRepository) Exists(ctx context.Context, userID, targetID int64, targetType model.TargetType) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, userID, targetID, targetType)
	}
	return false, nil
}

func (m *mockLikeRepository) CheckLikes(ctx context.Context, userID int64, targetType model.TargetType, targetIDs []int64) (map[int64]bool, error) {
	if m.checkLikesFn != nil {
		return m.checkLikesFn(ctx, userID, targetType, targetIDs)
	}
	return map[int64]bool{}, nil
}

func (m *mockLikeRepository) GetProjectLikers(ctx context.Context, projectID int64, cursor *string, limit int) ([]model.UserSummary, *string, error) {
	if m.getLikersFn != nil {
		return m.getLikersFn(ctx, projectID, cursor, limit)
	}
	return nil, nil, nil
}

type mockFollowRepository struct {
	insertFn       func(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	deleteFn       func(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error)
	existsFn       func(ctx context.Context, followerID, followeeID int64) (bool, error)
	checkFollowsFn func(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error)
	getFollowersFn func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)
	getFollowingFn func(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error)

	insertCalls int
}

func (m *mockFollowRepository) Insert(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	m.insertCalls++
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, followerID, followeeID)
	}
	return true, nil
}

func (m *mockFollowRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, followerID, followeeID)
	}
	return true, nil
}

func (m *mockFollowRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, followerID, followeeID)
	}
	return false, nil
}

func (m *mockFollowRepository) CheckFollows(ctx context.Context, followerID int64, followeeIDs []int64) (map[int64]bool, error) {
	if m.checkFollowsFn != nil {
		return m.checkFollowsFn(ctx, followerID, followeeIDs)
	}
	return map[int64]bool{}, nil
}

func (m *mockFollowRepository) GetFollowers(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	if m.getFollowersFn != nil {
		return m.getFollowersFn(ctx, userID, cursor, limit)
	}
	return nil, nil, nil
}

func (m *mockFollowRepository) GetFollowing(ctx context.Context, userID int64, cursor *time.Time, limit int) ([]model.UserSummary, *time.Time, error) {
	if m.getFollowingFn != nil {
		return m.getFollowingFn(ctx, userID, cursor, limit)
	}
	return nil, nil, nil
}

type mockProjectRepository struct {
	getByIDFn      func(ctx context.Context, projectID int64) (*model.Project, error)
	existsFn       func(ctx context.Context, projectID int64) (bool, error)
	getOwnerIDFn   func(ctx context.Context, projectID int64) (int64, error)
	incLikeFn      func(ctx context.Context, tx *sqlx.Tx, projectID int64, delta int) (int, error)
	incCommentFn   func(ctx context.Context, tx *sqlx.Tx, projectID int64, delta int) (int, error)

	likeDeltas    []int
	commentDeltas []int
}

func (m *mockProjectRepository) GetByID(ctx context.Context, projectID int64) (*model.Project, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, projectID)
	}
	return nil, model.ErrProjectNotFound
}

func (m *mockProjectRepository) Exists(ctx context.Context, projectID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, projectID)
	}
	return true, nil
}

func (m *mockProjectRepository) GetOwnerID(ctx context.Context, projectID int64) (int64, error) {
	if m.getOwnerIDFn != nil {
		return m.getOwnerIDFn(ctx, projectID)
	}
	return 0, model.ErrProjectNotFound
}

func (m *mockProjectRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, projectID int64, delta int) (int, error) {
	m.likeDeltas = append(m.likeDeltas, delta)
	if m.incLikeFn != nil {
		return m.incLikeFn(ctx, tx, projectID, delta)
	}
	return delta, nil
}

func (m *mockProjectRepository) IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, projectID int64, delta int) (int, error) {
	m.commentDeltas = append(m.commentDeltas, delta)
	if m.incCommentFn != nil {
		return m.incCommentFn(ctx, tx, projectID, delta)
	}
	return delta, nil
}

type mockCommentRepository struct {
	insertFn            func(ctx context.Context, tx *sqlx.Tx, projectID, authorID int64, content string, parentID *int64, depth int) (*model.Comment, error)
	getByIDFn           func(ctx context.Context, commentID int64) (*model.Comment, error)
	getByIDForUpdateFn  func(ctx context.Context, tx *sqlx.Tx, commentID int64) (*model.Comment, error)
	existsActiveFn      func(ctx context.Context, commentID int64) (bool, error)
	updateContentFn     func(ctx context.Context, commentID, authorID int64, content string) (*model.Comment, error)
	tombstoneFn         func(ctx context.Context, tx *sqlx.Tx, commentID int64) (bool, error)
	tombstoneChildrenFn func(ctx context.Context, tx *sqlx.Tx, parentIDs []int64) ([]int64, error)
	incLikeFn           func(ctx context.Context, tx *sqlx.Tx, commentID int64, delta int) (int, error)
	incReplyFn          func(ctx context.Context, tx *sqlx.Tx, commentID int64, delta int) (int, error)
	listTopLevelFn      func(ctx context.Context, projectID int64, offset, limit int, sort model.CommentSort) ([]model.Comment, error)
	listRepliesFn       func(ctx context.Context, commentID int64) ([]model.Comment, error)

	replyDeltas           []int
	tombstoneChildrenArgs [][]int64
}

func (m *mockCommentRepository) Insert(ctx context.Context, tx *sqlx.Tx, projectID, authorID int64, content string, parentID *int64, depth int) (*model.Comment, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, tx, projectID, authorID, content, parentID, depth)
	}
	return &model.Comment{
		ID: 1, ProjectID: projectID, AuthorID: authorID, Content: content,
		ParentCommentID: parentID, Depth: depth, IsActive: true,
	}, nil
}

func (m *mockCommentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, commentID)
	}
	return nil, model.ErrCommentNotFound
}

func (m *mockCommentRepository) GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, commentID int64) (*model.Comment, error) {
	if m.getByIDForUpdateFn != nil {
		return m.getByIDForUpdateFn(ctx, tx, commentID)
	}
	return nil, model.ErrCommentNotFound
}

func (m *mockCommentRepository) ExistsActive(ctx context.Context, commentID int64) (bool, error) {
	if m.existsActiveFn != nil {
		return m.existsActiveFn(ctx, commentID)
	}
	return false, nil
}

func (m *mockCommentRepository) UpdateContent(ctx context.Context, commentID, authorID int64, content string) (*model.Comment, error) {
	if m.updateContentFn != nil {
		return m.updateContentFn(ctx, commentID, authorID, content)
	}
	return nil, model.ErrCommentNotFound
}

func (m *mockCommentRepository) Tombstone(ctx context.Context, tx *sqlx.Tx, commentID int64) (bool, error) {
	if m.tombstoneFn != nil {
		return m.tombstoneFn(ctx, tx, commentID)
	}
	return true, nil
}

func (m *mockCommentRepository) TombstoneChildren(ctx context.Context, tx *sqlx.Tx, parentIDs []int64) ([]int64, error) {
	m.tombstoneChildrenArgs = append(m.tombstoneChildrenArgs, parentIDs)
	if m.tombstoneChildrenFn != nil {
		return m.tombstoneChildrenFn(ctx, tx, parentIDs)
	}
	return nil, nil
}

func (m *mockCommentRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, commentID int64, delta int) (int, error) {
	if m.incLikeFn != nil {
		return m.incLikeFn(ctx, tx, commentID, delta)
	}
	return delta, nil
}

func (m *mockCommentRepository) IncrementReplyCount(ctx context.Context, tx *sqlx.Tx, commentID int64, delta int) (int, error) {
	m.replyDeltas = append(m.replyDeltas, delta)
	if m.incReplyFn != nil {
		return m.incReplyFn(ctx, tx, commentID, delta)
	}
	return delta, nil
}

func (m *mockCommentRepository) ListTopLevel(ctx context.Context, projectID int64, offset, limit int, sort model.CommentSort) ([]model.Comment, error) {
	if m.listTopLevelFn != nil {
		return m.listTopLevelFn(ctx, projectID, offset, limit, sort)
	}
	return nil, nil
}

func (m *mockCommentRepository) ListReplies(ctx context.Context, commentID int64) ([]model.Comment, error) {
	if m.listRepliesFn != nil {
		return m.listRepliesFn(ctx, commentID)
	}
	return nil, nil
}

type mockUserRepository struct {
	getByIDFn      func(ctx context.Context, id int64) (*model.User, error)
	existsFn       func(ctx context.Context, id int64) (bool, error)
	getSummariesFn func(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error)
	incFollowerFn  func(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) (int, error)
	incFollowingFn func(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) (int, error)

	followerDeltas  map[int64]int
	followingDeltas map[int64]int
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &model.User{ID: id, Username: "user"}, nil
}

func (m *mockUserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, id)
	}
	return true, nil
}

func (m *mockUserRepository) GetSummariesByIDs(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	if m.getSummariesFn != nil {
		return m.getSummariesFn(ctx, ids)
	}
	result := make(map[int64]model.UserSummary, len(ids))
	for _, id := range ids {
		result[id] = model.UserSummary{ID: id, Username: "user"}
	}
	return result, nil
}

func (m *mockUserRepository) IncrementFollowerCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) (int, error) {
	if m.followerDeltas == nil {
		m.followerDeltas = make(map[int64]int)
	}
	m.followerDeltas[userID] += delta
	if m.incFollowerFn != nil {
		return m.incFollowerFn(ctx, tx, userID, delta)
	}
	return m.followerDeltas[userID], nil
}

func (m *mockUserRepository) IncrementFollowingCount(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) (int, error) {
	if m.followingDeltas == nil {
		m.followingDeltas = make(map[int64]int)
	}
	m.followingDeltas[userID] += delta
	if m.incFollowingFn != nil {
		return m.incFollowingFn(ctx, tx, userID, delta)
	}
	return m.followingDeltas[userID], nil
}

type mockSyncRepository struct {
	projectCounters  func(ctx context.Context, tx *sqlx.Tx, projectID int64) (int, int, error)
	commentCounters  func(ctx context.Context, tx *sqlx.Tx, commentID int64) (int, int, bool, error)
	userCounters     func(ctx context.Context, tx *sqlx.Tx, userID int64) (int, int, error)
	countLikes       func(ctx context.Context, tx *sqlx.Tx, targetID int64, targetType model.TargetType) (int, error)
	countComments    func(ctx context.Context, tx *sqlx.Tx, projectID int64) (int, error)
	countReplies     func(ctx context.Context, tx *sqlx.Tx, commentID int64) (int, error)
	countFollowers   func(ctx context.Context, tx *sqlx.Tx, userID int64) (int, error)
	countFollowing   func(ctx context.Context, tx *sqlx.Tx, userID int64) (int, error)
	setProjectCalls  int
	setCommentCalls  int
	setUserCalls     int
	lastSetLikes     int
	lastSetSecondary int
}

func (m *mockSyncRepository) ProjectCountersForUpdate(ctx context.Context, tx *sqlx.Tx, projectID int64) (int, int, error) {
	if m.projectCounters != nil {
		return m.projectCounters(ctx, tx, projectID)
	}
	return 0, 0, nil
}

func (m *mockSyncRepository) CommentCountersForUpdate(ctx context.Context, tx *sqlx.Tx, commentID int64) (int, int, bool, error) {
	if m.commentCounters != nil {
		return m.commentCounters(ctx, tx, commentID)
	}
	return 0, 0, true, nil
}

func (m *mockSyncRepository) UserCountersForUpdate(ctx context.Context, tx *sqlx.Tx, userID int64) (int, int, error) {
	if m.userCounters != nil {
		return m.userCounters(ctx, tx, userID)
	}
	return 0, 0, nil
}

func (m *mockSyncRepository) CountLikes(ctx context.Context, tx *sqlx.Tx, targetID int64, targetType model.TargetType) (int, error) {
	if m.countLikes != nil {
		return m.countLikes(ctx, tx, targetID, targetType)
	}
	return 0, nil
}

func (m *mockSyncRepository) CountActiveComments(ctx context.Context, tx *sqlx.Tx, projectID int64) (int, error) {
	if m.countComments != nil {
		return m.countComments(ctx, tx, projectID)
	}
	return 0, nil
}

func (m *mockSyncRepository) CountActiveReplies(ctx context.Context, tx *sqlx.Tx, commentID int64) (int, error) {
	if m.countReplies != nil {
		return m.countReplies(ctx, tx, commentID)
	}
	return 0, nil
}

func (m *mockSyncRepository) CountFollowers(ctx context.Context, tx *sqlx.Tx, userID int64) (int, error) {
	if m.countFollowers != nil {
		return m.countFollowers(ctx, tx, userID)
	}
	return 0, nil
}

func (m *mockSyncRepository) CountFollowing(ctx context.Context, tx *sqlx.Tx, userID int64) (int, error) {
	if m.countFollowing != nil {
		return m.countFollowing(ctx, tx, userID)
	}
	return 0, nil
}

func (m *mockSyncRepository) SetProjectCounters(ctx context.Context, tx *sqlx.Tx, projectID int64, likeCount, commentCount int) error {
	m.setProjectCalls++
	m.lastSetLikes = likeCount
	m.lastSetSecondary = commentCount
	return nil
}

func (m *mockSyncRepository) SetCommentCounters(ctx context.Context, tx *sqlx.Tx, commentID int64, likeCount, replyCount int) error {
	m.setCommentCalls++
	m.lastSetLikes = likeCount
	m.lastSetSecondary = replyCount
	return nil
}

func (m *mockSyncRepository) SetUserCounters(ctx context.Context, tx *sqlx.Tx, userID int64, followerCount, followingCount int) error {
	m.setUserCalls++
	m.lastSetLikes = followerCount
	m.lastSetSecondary = followingCount
	return nil
}

// =============================================================================
// MOCK PUBLISHER AND CACHE
// =============================================================================

type mockPublisher struct {
	events []queue.InteractionEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.InteractionEvent) (string, error) {
	m.events = append(m.events, event)
	return "1-0", nil
}

type mockStatsCache struct {
	stats       map[int64]model.ProjectStats
	invalidated []int64
}

func newMockStatsCache() *mockStatsCache {
	return &mockStatsCache{stats: make(map[int64]model.ProjectStats)}
}

func (m *mockStatsCache) Get(ctx context.Context, projectID int64) (*model.ProjectStats, bool, error) {
	if s, ok := m.stats[projectID]; ok {
		return &s, true, nil
	}
	return nil, false, nil
}

func (m *mockStatsCache) Set(ctx context.Context, projectID int64, stats model.ProjectStats) error {
	m.stats[projectID] = stats
	return nil
}

func (m *mockStatsCache) Invalidate(ctx context.Context, projectID int64) error {
	m.invalidated = append(m.invalidated, projectID)
	delete(m.stats, projectID)
	return nil
}
