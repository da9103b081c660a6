package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"projhub/internal/httputil"
	"projhub/internal/model"
	"projhub/internal/service"
)

type UserHandler struct {
	projectionService *service.ProjectionService
}

func NewUserHandler(projectionService *service.ProjectionService) *UserHandler {
	return &UserHandler{
		projectionService: projectionService,
	}
}

// GetFollowers handles GET /users/:id/followers
// Returns paginated followers of a user, newest first.
func (h *UserHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	h.followList(w, r, h.projectionService.GetFollowers)
}

// GetFollowing handles GET /users/:id/following
// Returns paginated users that a user follows, newest first.
func (h *UserHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	h.followList(w, r, h.projectionService.GetFollowing)
}

func (h *UserHandler) followList(
	w http.ResponseWriter,
	r *http.Request,
	fetch func(ctx context.Context, userID int64, cursor *time.Time, limit int, viewerID *int64) (*model.FollowListResponse, error),
) {
	userIDStr := chi.URLParam(r, "id")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	var cursor *time.Time
	if c := r.URL.Query().Get("cursor"); c != "" {
		parsed, err := time.Parse(time.RFC3339Nano, c)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid cursor parameter")
			return
		}
		cursor = &parsed
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			httputil.WriteBadRequest(w, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	response, err := fetch(r.Context(), userID, cursor, limit, viewerID(r))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Follow list handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get users")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, response)
}
