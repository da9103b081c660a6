package service

import (
	"context"

	"projhub/internal/model"
	"projhub/internal/repository"
)

// AuthorizationGate decides whether an actor may moderate (delete) a comment
// they did not write.
type AuthorizationGate interface {
	CanModerate(ctx context.Context, actorID, commentID int64) (bool, error)
}

// OwnerGate grants moderation to the owner of the project the comment lives
// on. Authors always pass the service-level check before the gate is
// consulted, so the gate only answers the non-author case.
type OwnerGate struct {
	commentRepo repository.CommentRepository
	projectRepo repository.ProjectRepository
}

func NewOwnerGate(commentRepo repository.CommentRepository, projectRepo repository.ProjectRepository) *OwnerGate {
	return &OwnerGate{commentRepo: commentRepo, projectRepo: projectRepo}
}

func (g *OwnerGate) CanModerate(ctx context.Context, actorID, commentID int64) (bool, error) {
	comment, err := g.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if err == model.ErrCommentNotFound {
			return false, nil
		}
		return false, err
	}

	ownerID, err := g.projectRepo.GetOwnerID(ctx, comment.ProjectID)
	if err != nil {
		if err == model.ErrProjectNotFound {
			return false, nil
		}
		return false, err
	}

	return ownerID == actorID, nil
}
