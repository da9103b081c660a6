package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"projhub/internal/httputil"
	"projhub/internal/model"
	"projhub/internal/service"
	"projhub/internal/transport/http/middleware"
)

type InteractionHandler struct {
	interactionService *service.InteractionService
}

func NewInteractionHandler(interactionService *service.InteractionService) *InteractionHandler {
	return &InteractionHandler{
		interactionService: interactionService,
	}
}

// ToggleProjectLike handles POST /projects/:id/like
// Flips the authenticated user's like on a project.
func (h *InteractionHandler) ToggleProjectLike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, model.TargetProject, "Invalid project ID")
}

// ToggleCommentLike handles POST /comments/:id/like
// Flips the authenticated user's like on a comment.
func (h *InteractionHandler) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, model.TargetComment, "Invalid comment ID")
}

func (h *InteractionHandler) toggleLike(w http.ResponseWriter, r *http.Request, targetType model.TargetType, badIDMsg string) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetIDStr := chi.URLParam(r, "id")
	targetID, err := strconv.ParseInt(targetIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, badIDMsg)
		return
	}

	result, err := h.interactionService.ToggleLike(r.Context(), userID, targetID, targetType)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidTarget):
			httputil.WriteBadRequestWithCode(w, httputil.ErrCodeInvalidTarget, "Target cannot be liked")
		case errors.Is(err, model.ErrProjectNotFound):
			httputil.WriteNotFound(w, "Project not found")
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Comment not found")
		case errors.Is(err, model.ErrToggleContention):
			httputil.WriteConflict(w, "Toggle contended, please retry")
		default:
			log.Printf("[ERROR] Toggle like handler: user=%d target=%d type=%s err=%v", userID, targetID, targetType, err)
			httputil.WriteInternalError(w, "Failed to toggle like")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// ToggleFollow handles POST /users/:id/follow
// Flips the authenticated user's follow on another user.
func (h *InteractionHandler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	followeeIDStr := chi.URLParam(r, "id")
	followeeID, err := strconv.ParseInt(followeeIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	result, err := h.interactionService.ToggleFollow(r.Context(), userID, followeeID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCannotFollowSelf):
			httputil.WriteBadRequestWithCode(w, httputil.ErrCodeInvalidTarget, "Cannot follow yourself")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		case errors.Is(err, model.ErrToggleContention):
			httputil.WriteConflict(w, "Toggle contended, please retry")
		default:
			log.Printf("[ERROR] Toggle follow handler: user=%d followee=%d err=%v", userID, followeeID, err)
			httputil.WriteInternalError(w, "Failed to toggle follow")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
