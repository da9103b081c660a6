package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"projhub/internal/cache"
	"projhub/internal/config"
	"projhub/internal/database"
	"projhub/internal/handler"
	"projhub/internal/queue"
	"projhub/internal/redis"
	"projhub/internal/repository"
	"projhub/internal/service"
	"projhub/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Println("Connected to Redis successfully")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	followRepo := repository.NewFollowRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	syncRepo := repository.NewSyncRepository(db)

	// Queue and cache
	publisher := queue.NewPublisher(redisClient.Client)
	consumer := queue.NewConsumer(redisClient.Client)
	statsCache := cache.NewStatsCache(redisClient.Client)

	// Services
	interactionService := service.NewInteractionService(
		likeRepo, followRepo, projectRepo, commentRepo, userRepo, db, publisher, statsCache)
	commentService := service.NewCommentService(
		commentRepo, projectRepo, userRepo, db, publisher, statsCache)
	syncService := service.NewCounterSyncService(syncRepo, db)
	projectionService := service.NewProjectionService(
		projectRepo, likeRepo, followRepo, userRepo, statsCache)
	gate := service.NewOwnerGate(commentRepo, projectRepo)

	// Handlers
	interactionHandler := handler.NewInteractionHandler(interactionService)
	commentHandler := handler.NewCommentHandler(commentService, gate)
	projectHandler := handler.NewProjectHandler(projectionService)
	userHandler := handler.NewUserHandler(projectionService)
	adminHandler := handler.NewAdminHandler(syncService)

	router := NewRouter(RouterConfig{
		InteractionHandler: interactionHandler,
		CommentHandler:     commentHandler,
		ProjectHandler:     projectHandler,
		UserHandler:        userHandler,
		AdminHandler:       adminHandler,
		JWTSecret:          cfg.JWTSecret,
	})

	// Counter-sync workers consume interaction events and heal drift.
	workerCfg := worker.DefaultManagerConfig()
	workerCfg.WorkerCount = cfg.WorkerCount
	manager := worker.NewManager(consumer, worker.NewHandler(syncService), workerCfg)
	if err := manager.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}

	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		manager.Stop()
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		log.Printf("Received signal %v, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	manager.Stop()

	log.Println("Server stopped")
	return nil
}
