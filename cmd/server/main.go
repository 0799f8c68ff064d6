package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sqrly/planner/internal/api"
	"github.com/sqrly/planner/internal/config"
	"github.com/sqrly/planner/internal/goals"
	"github.com/sqrly/planner/internal/seed"
	"github.com/sqrly/planner/internal/store"
	"github.com/sqrly/planner/internal/subtasks"
	"github.com/sqrly/planner/internal/suggest"
	"github.com/sqrly/planner/internal/tasks"
	"github.com/sqrly/planner/internal/users"
)

func main() {
	// Logger
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// SQLite
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Stores
	userStore := store.NewUserStore(db)
	taskStore := store.NewTaskStore(db)
	subtaskStore := store.NewSubtaskStore(db)
	goalStore := store.NewGoalStore(db)
	milestoneStore := store.NewMilestoneStore(db)

	// AI assistance: real provider when a key is configured, heuristic
	// fallbacks otherwise.
	var ai suggest.Service
	aiEnabled := cfg.AnthropicAPIKey != ""
	if aiEnabled {
		ai = suggest.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AITimeout(), logger)
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set, AI assistance will use heuristic fallbacks")
		ai = suggest.FallbackService{}
	}

	// Services
	userSvc := users.NewService(userStore, logger)
	taskSvc := tasks.NewService(taskStore, subtaskStore, goalStore, userStore, ai, logger)
	subtaskSvc := subtasks.NewService(subtaskStore, taskStore, logger)
	goalSvc := goals.NewService(goalStore, taskStore, milestoneStore, userStore, logger)

	// Demo fixtures
	if cfg.SeedFile != "" {
		loader := seed.NewLoader(db, userSvc, taskSvc, goalSvc, logger)
		if err := loader.Run(context.Background(), cfg.SeedFile); err != nil {
			logger.Error("seed load failed", "error", err)
			os.Exit(1)
		}
	}

	// Router
	router := api.NewRouter(db, userSvc, taskSvc, subtaskSvc, goalSvc, aiEnabled, cfg.APIKey, logger)

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("planner server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
