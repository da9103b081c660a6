package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"projhub/internal/httputil"
	"projhub/internal/model"
	"projhub/internal/service"
	"projhub/internal/transport/http/middleware"
)

type AdminHandler struct {
	syncService *service.CounterSyncService
}

func NewAdminHandler(syncService *service.CounterSyncService) *AdminHandler {
	return &AdminHandler{
		syncService: syncService,
	}
}

// Reconcile handles POST /admin/reconcile
// Recomputes a target's denormalized counters from the relationship rows and
// corrects any drift, returning the corrections applied.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	drifts, err := h.syncService.Reconcile(r.Context(), req.TargetID, req.TargetType)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidTarget):
			httputil.WriteBadRequestWithCode(w, httputil.ErrCodeInvalidTarget, "Unknown target type")
		case errors.Is(err, model.ErrProjectNotFound):
			httputil.WriteNotFound(w, "Project not found")
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Comment not found")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			log.Printf("[ERROR] Reconcile handler: user=%d target=%d type=%s err=%v", userID, req.TargetID, req.TargetType, err)
			httputil.WriteInternalError(w, "Failed to reconcile counters")
		}
		return
	}

	if drifts == nil {
		drifts = []model.CounterDrift{}
	}

	httputil.WriteJSON(w, http.StatusOK, model.ReconcileResponse{
		TargetID:   req.TargetID,
		TargetType: req.TargetType,
		Counters:   drifts,
	})
}
