package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"projhub/internal/handler"
	"projhub/internal/httputil"
	authmw "projhub/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	InteractionHandler *handler.InteractionHandler
	CommentHandler     *handler.CommentHandler
	ProjectHandler     *handler.ProjectHandler
	UserHandler        *handler.UserHandler
	AdminHandler       *handler.AdminHandler
	JWTSecret          string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	optionalAuth := authmw.OptionalAuthMiddleware(cfg.JWTSecret)

	// Public read endpoints with optional authentication. A logged-in viewer
	// gets personalized fields (is_liked, is_following).
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)

		r.Get("/projects/{id}", cfg.ProjectHandler.Get)
		r.Get("/projects/{id}/likers", cfg.ProjectHandler.GetLikers)
		r.Get("/projects/{id}/comments", cfg.CommentHandler.List)
		r.Get("/comments/{id}/replies", cfg.CommentHandler.ListReplies)
		r.Get("/users/{id}/followers", cfg.UserHandler.GetFollowers)
		r.Get("/users/{id}/following", cfg.UserHandler.GetFollowing)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Toggle endpoints
		r.Post("/projects/{id}/like", cfg.InteractionHandler.ToggleProjectLike)
		r.Post("/comments/{id}/like", cfg.InteractionHandler.ToggleCommentLike)
		r.Post("/users/{id}/follow", cfg.InteractionHandler.ToggleFollow)

		// Comment mutations
		r.Post("/projects/{id}/comments", cfg.CommentHandler.Create)
		r.Put("/comments/{id}", cfg.CommentHandler.Update)
		r.Delete("/comments/{id}", cfg.CommentHandler.Delete)

		// On-demand counter reconciliation
		r.Post("/admin/reconcile", cfg.AdminHandler.Reconcile)
	})

	return r
}
