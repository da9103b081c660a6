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

type ProjectHandler struct {
	projectionService *service.ProjectionService
}

func NewProjectHandler(projectionService *service.ProjectionService) *ProjectHandler {
	return &ProjectHandler{
		projectionService: projectionService,
	}
}

// viewerID returns the authenticated user's ID when present; nil for
// anonymous requests on optional-auth routes.
func viewerID(r *http.Request) *int64 {
	if userID, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		return &userID
	}
	return nil
}

// Get handles GET /projects/:id
// Returns the project with owner info and the viewer's like state.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectIDStr := chi.URLParam(r, "id")
	projectID, err := strconv.ParseInt(projectIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid project ID")
		return
	}

	project, err := h.projectionService.GetProject(r.Context(), projectID, viewerID(r))
	if err != nil {
		if errors.Is(err, model.ErrProjectNotFound) {
			httputil.WriteNotFound(w, "Project not found")
			return
		}
		log.Printf("[ERROR] Get project handler: project=%d err=%v", projectID, err)
		httputil.WriteInternalError(w, "Failed to get project")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, project)
}

// GetLikers handles GET /projects/:id/likers
// Returns paginated users who liked the project, newest first.
func (h *ProjectHandler) GetLikers(w http.ResponseWriter, r *http.Request) {
	projectIDStr := chi.URLParam(r, "id")
	projectID, err := strconv.ParseInt(projectIDStr, 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid project ID")
		return
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
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

	response, err := h.projectionService.GetProjectLikers(r.Context(), projectID, cursor, limit, viewerID(r))
	if err != nil {
		if errors.Is(err, model.ErrProjectNotFound) {
			httputil.WriteNotFound(w, "Project not found")
			return
		}
		log.Printf("[ERROR] Get likers handler: project=%d err=%v", projectID, err)
		httputil.WriteInternalError(w, "Failed to get likers")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, response)
}
