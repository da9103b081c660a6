package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"

	"projhub/internal/cache"
	"projhub/internal/model"
	"projhub/internal/queue"
	"projhub/internal/repository"
)

const (
	defaultCommentPageSize = 10
	maxCommentPageSize     = 50
)

// CommentService implements the threaded discussion engine: bounded-depth
// replies, author-only edits, and cascading soft-delete.
type CommentService struct {
	commentRepo repository.CommentRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	db          *sqlx.DB
	publisher   queue.Publisher
	statsCache  cache.ProjectStatsCache
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	db *sqlx.DB,
	publisher queue.Publisher,
	statsCache cache.ProjectStatsCache,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		db:          db,
		publisher:   publisher,
		statsCache:  statsCache,
	}
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", model.ErrContentRequired
	}
	if len(content) > model.MaxCommentLength {
		return "", model.ErrContentTooLong
	}
	return content, nil
}

// Create posts a comment or reply. Replies lock their parent row for the
// duration of the transaction, so a concurrent cascade delete of the parent's
// subtree cannot attach this reply to an already-tombstoned node: whichever
// transaction commits second sees the other's effect.
func (s *CommentService) Create(ctx context.Context, authorID, projectID int64, req model.CreateCommentRequest) (*model.Comment, error) {
	content, err := validateContent(req.Content)
	if err != nil {
		return nil, err
	}

	exists, err := s.projectRepo.Exists(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrProjectNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	depth := 0
	if req.ParentCommentID != nil {
		parent, err := s.commentRepo.GetByIDForUpdate(ctx, tx, *req.ParentCommentID)
		if err != nil {
			if err == model.ErrCommentNotFound {
				return nil, model.ErrParentNotFound
			}
			return nil, err
		}
		if !parent.IsActive {
			return nil, model.ErrParentNotFound
		}
		if parent.ProjectID != projectID {
			return nil, model.ErrParentWrongProject
		}

		depth = parent.Depth + 1
		if depth > model.MaxThreadDepth {
			return nil, model.ErrThreadTooDeep
		}
	}

	comment, err := s.commentRepo.Insert(ctx, tx, projectID, authorID, content, req.ParentCommentID, depth)
	if err != nil {
		return nil, err
	}

	if req.ParentCommentID != nil {
		if _, err := s.commentRepo.IncrementReplyCount(ctx, tx, *req.ParentCommentID, 1); err != nil {
			return nil, err
		}
	}
	if _, err := s.projectRepo.IncrementCommentCount(ctx, tx, projectID, 1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.invalidateStats(ctx, projectID)

	if author, err := s.userRepo.GetByID(ctx, authorID); err == nil {
		comment.Author = &model.UserSummary{
			ID:          author.ID,
			Username:    author.Username,
			DisplayName: author.DisplayName,
			AvatarURL:   author.AvatarURL,
		}
	}

	if s.publisher != nil {
		event := queue.NewCommentCreatedEvent(authorID, comment.ID, projectID, req.ParentCommentID)
		if _, err := s.publisher.Publish(ctx, queue.StreamInteractions, event); err != nil {
			log.Printf("[CommentService] Failed to publish CommentCreated: comment=%d err=%v", comment.ID, err)
		}
	}

	return comment, nil
}

// Edit updates a comment's content. Only the author may edit; the repository
// enforces ownership in the UPDATE itself.
func (s *CommentService) Edit(ctx context.Context, actorID, commentID int64, req model.UpdateCommentRequest) (*model.Comment, error) {
	content, err := validateContent(req.Content)
	if err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.UpdateContent(ctx, commentID, actorID, content)
	if err != nil {
		return nil, err
	}

	if author, err := s.userRepo.GetByID(ctx, actorID); err == nil {
		comment.Author = &model.UserSummary{
			ID:          author.ID,
			Username:    author.Username,
			DisplayName: author.DisplayName,
			AvatarURL:   author.AvatarURL,
		}
	}

	return comment, nil
}

// SoftDelete tombstones a comment and its entire reply subtree. The root's
// content becomes the tombstone marker, descendants are deactivated level by
// level, the direct parent loses exactly one reply, and the project's comment
// count drops by the number of rows actually tombstoned.
//
// Deleting an already-deleted comment succeeds without effect: the cascade
// only touches active rows, so a retried or raced delete finds nothing left
// to do.
func (s *CommentService) SoftDelete(ctx context.Context, actorID, commentID int64, canModerate bool) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	comment, err := s.commentRepo.GetByIDForUpdate(ctx, tx, commentID)
	if err != nil {
		return err
	}
	if !comment.IsActive {
		return nil
	}

	if comment.AuthorID != actorID && !canModerate {
		return model.ErrDeleteForbidden
	}

	tombstoned, err := s.commentRepo.Tombstone(ctx, tx, commentID)
	if err != nil {
		return err
	}
	total := 0
	if tombstoned {
		total = 1
	}

	// Walk the subtree breadth-first over the parent index. Each level's
	// tombstoned ids become the next level's parents; the loop ends when a
	// level deactivates nothing.
	frontier := []int64{commentID}
	for len(frontier) > 0 {
		children, err := s.commentRepo.TombstoneChildren(ctx, tx, frontier)
		if err != nil {
			return err
		}
		total += len(children)
		frontier = children
	}

	if comment.ParentCommentID != nil {
		if _, err := s.commentRepo.IncrementReplyCount(ctx, tx, *comment.ParentCommentID, -1); err != nil {
			return err
		}
	}
	if total > 0 {
		if _, err := s.projectRepo.IncrementCommentCount(ctx, tx, comment.ProjectID, -total); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	log.Printf("[CommentService] SoftDelete OK: comment=%d project=%d tombstoned=%d", commentID, comment.ProjectID, total)

	s.invalidateStats(ctx, comment.ProjectID)

	if s.publisher != nil {
		event := queue.NewCommentDeletedEvent(actorID, commentID, comment.ProjectID, comment.ParentCommentID)
		if _, err := s.publisher.Publish(ctx, queue.StreamInteractions, event); err != nil {
			log.Printf("[CommentService] Failed to publish CommentDeleted: comment=%d err=%v", commentID, err)
		}
	}

	return nil
}

// List returns one page of a project's active top-level comments. Reply
// counts on this path are live aggregates computed by the repository, not the
// stored counters.
func (s *CommentService) List(ctx context.Context, projectID int64, page, pageSize int, sort model.CommentSort) (*model.CommentListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultCommentPageSize
	}
	if pageSize > maxCommentPageSize {
		pageSize = maxCommentPageSize
	}
	if sort != model.SortMostLiked {
		sort = model.SortRecent
	}

	exists, err := s.projectRepo.Exists(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrProjectNotFound
	}

	offset := (page - 1) * pageSize

	// Fetch one extra row to learn whether another page exists.
	comments, err := s.commentRepo.ListTopLevel(ctx, projectID, offset, pageSize+1, sort)
	if err != nil {
		return nil, err
	}

	hasMore := len(comments) > pageSize
	if hasMore {
		comments = comments[:pageSize]
	}

	return &model.CommentListResponse{
		Comments: comments,
		Page:     page,
		PageSize: pageSize,
		HasMore:  hasMore,
	}, nil
}

// ListReplies returns all active direct replies of a comment, oldest first.
// The parent itself may be tombstoned; its surviving replies stay listable.
func (s *CommentService) ListReplies(ctx context.Context, commentID int64) ([]model.Comment, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return nil, err
	}

	return s.commentRepo.ListReplies(ctx, commentID)
}

func (s *CommentService) invalidateStats(ctx context.Context, projectID int64) {
	if s.statsCache == nil {
		return
	}
	if err := s.statsCache.Invalidate(ctx, projectID); err != nil {
		log.Printf("[CommentService] stats invalidate failed: project=%d err=%v", projectID, err)
	}
}
