package handler

import (
	"encoding/json"
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

type CommentHandler struct {
	commentService *service.CommentService
	gate           service.AuthorizationGate
}

func NewCommentHandler(commentService *service.CommentService, gate service.AuthorizationGate) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		gate:           gate,
	}
}

// Create handles POST /projects/:id/comments
// Creates a top-level comment or a reply for the authenticated user.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	projectIDStr := chi.URLParam(r, "id")
	projectID, err := strconv.ParseInt(projectIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid project ID")
		return
	}

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.Create(r.Context(), userID, projectID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrProjectNotFound):
			httputil.WriteNotFound(w, "Project not found")
		case errors.Is(err, model.ErrParentNotFound):
			httputil.WriteNotFound(w, "Parent comment not found")
		case errors.Is(err, model.ErrParentWrongProject):
			httputil.WriteBadRequest(w, "Parent comment belongs to a different project")
		case errors.Is(err, model.ErrThreadTooDeep):
			httputil.WriteBadRequestWithCode(w, httputil.ErrCodeDepthExceeded, "Reply depth limit exceeded")
		case errors.Is(err, model.ErrContentRequired):
			httputil.WriteBadRequest(w, "Comment content is required")
		case errors.Is(err, model.ErrContentTooLong):
			httputil.WriteBadRequest(w, "Comment content too long")
		default:
			log.Printf("[ERROR] Create comment handler: user=%d project=%d err=%v", userID, projectID, err)
			httputil.WriteInternalError(w, "Failed to create comment")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// Update handles PUT /comments/:id
// Updates a comment's content (only the author can update).
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentIDStr := chi.URLParam(r, "id")
	commentID, err := strconv.ParseInt(commentIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	var req model.UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.Edit(r.Context(), userID, commentID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Comment not found")
		case errors.Is(err, model.ErrNotCommentAuthor):
			httputil.WriteForbidden(w, "You can only edit your own comments")
		case errors.Is(err, model.ErrContentRequired):
			httputil.WriteBadRequest(w, "Comment content is required")
		case errors.Is(err, model.ErrContentTooLong):
			httputil.WriteBadRequest(w, "Comment content too long")
		default:
			log.Printf("[ERROR] Update comment handler: user=%d comment=%d err=%v", userID, commentID, err)
			httputil.WriteInternalError(w, "Failed to update comment")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, comment)
}

// Delete handles DELETE /comments/:id
// Soft-deletes a comment and its reply subtree. Authors can delete their own
// comments; project owners can delete any comment on their project.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentIDStr := chi.URLParam(r, "id")
	commentID, err := strconv.ParseInt(commentIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	canModerate, err := h.gate.CanModerate(r.Context(), userID, commentID)
	if err != nil {
		log.Printf("[ERROR] Delete comment gate: user=%d comment=%d err=%v", userID, commentID, err)
		httputil.WriteInternalError(w, "Failed to delete comment")
		return
	}

	err = h.commentService.SoftDelete(r.Context(), userID, commentID, canModerate)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Comment not found")
		case errors.Is(err, model.ErrDeleteForbidden):
			httputil.WriteForbidden(w, "Not allowed to delete this comment")
		default:
			log.Printf("[ERROR] Delete comment handler: user=%d comment=%d err=%v", userID, commentID, err)
			httputil.WriteInternalError(w, "Failed to delete comment")
		}
		return
	}

	httputil.WriteNoContent(w)
}

// List handles GET /projects/:id/comments
// Returns paginated top-level comments for a project.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	projectIDStr := chi.URLParam(r, "id")
	projectID, err := strconv.ParseInt(projectIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid project ID")
		return
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed <= 0 {
			httputil.WriteBadRequest(w, "Invalid page parameter")
			return
		}
		page = parsed
	}

	pageSize := 0
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		parsed, err := strconv.Atoi(ps)
		if err != nil || parsed <= 0 {
			httputil.WriteBadRequest(w, "Invalid page_size parameter")
			return
		}
		pageSize = parsed
	}

	sort := model.CommentSort(r.URL.Query().Get("sort"))

	response, err := h.commentService.List(r.Context(), projectID, page, pageSize, sort)
	if err != nil {
		if errors.Is(err, model.ErrProjectNotFound) {
			httputil.WriteNotFound(w, "Project not found")
			return
		}
		log.Printf("[ERROR] List comments handler: project=%d err=%v", projectID, err)
		httputil.WriteInternalError(w, "Failed to get comments")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, response)
}

// ListReplies handles GET /comments/:id/replies
// Returns all active direct replies of a comment, oldest first.
func (h *CommentHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	commentIDStr := chi.URLParam(r, "id")
	commentID, err := strconv.ParseInt(commentIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	replies, err := h.commentService.ListReplies(r.Context(), commentID)
	if err != nil {
		if errors.Is(err, model.ErrCommentNotFound) {
			httputil.WriteNotFound(w, "Comment not found")
			return
		}
		log.Printf("[ERROR] List replies handler: comment=%d err=%v", commentID, err)
		httputil.WriteInternalError(w, "Failed to get replies")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"replies": replies,
	})
}
