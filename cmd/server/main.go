package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/taskflow-api/internal/auth"
	"github.com/yukikurage/taskflow-api/internal/config"
	"github.com/yukikurage/taskflow-api/internal/database"
	"github.com/yukikurage/taskflow-api/internal/events"
	"github.com/yukikurage/taskflow-api/internal/handlers"
	"github.com/yukikurage/taskflow-api/internal/logger"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"github.com/yukikurage/taskflow-api/internal/router"
	"github.com/yukikurage/taskflow-api/internal/services"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	// Set Gin mode
	gin.SetMode(cfg.App.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("database connection failed", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	// Run migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)

	sinks := []services.ActivitySink{
		services.NewGormActivitySink(repository.NewActivityRepository(db)),
	}
	if cfg.Redis.URL != "" {
		rdb, err := newRedis(cfg.Redis.URL)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		sinks = append(sinks, services.NewRedisActivitySink(rdb, cfg.Redis.ActivityMaxEntries))
		zapLogger.Info("redis activity sink enabled")
	}
	activity := services.NewActivityRecorder(zapLogger, sinks...)

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.JWT.Secret,
		TTL:    cfg.JWT.ExpiresIn.Std(),
		Issuer: cfg.JWT.Issuer,
	})
	if err != nil {
		zapLogger.Fatal("token service init failed", zap.Error(err))
	}

	// Task mutations publish events; Counter Sync keeps assignee counters current.
	bus := events.NewBus()
	counters := services.NewCounterSync(userRepo, taskRepo, zapLogger)
	bus.Subscribe(counters.HandleTaskEvent)

	reconciler, err := services.NewCounterReconciler(userRepo, counters, zapLogger, cfg.Counters.ReconcileSchedule)
	if err != nil {
		zapLogger.Fatal("counter reconciler init failed", zap.Error(err))
	}
	reconciler.Start()

	authService := services.NewAuthService(userRepo, auth.NewPasswordHasher(cfg.Auth.BcryptCost), tokens, activity, zapLogger)
	taskService := services.NewTaskService(taskRepo, userRepo, projectRepo, bus, activity, zapLogger)
	projectService := services.NewProjectService(projectRepo, userRepo, activity, zapLogger)
	userService := services.NewUserService(userRepo, taskRepo, counters, bus, activity, zapLogger)

	r := router.New(router.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		Task:    handlers.NewTaskHandler(taskService),
		Project: handlers.NewProjectHandler(projectService),
		User:    handlers.NewUserHandler(userService),
		Health:  handlers.NewHealthHandler(db),
	}, router.Options{
		Logger:         zapLogger,
		Verifier:       authService,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout.Std(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Std(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Std(),
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", server.Addr), zap.String("env", cfg.App.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Std())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
	reconciler.Stop(ctx)
	zapLogger.Info("server stopped")
}

func newRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
