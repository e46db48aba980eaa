package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/campusportal/admission/internal/infrastructure/cache"
	"github.com/campusportal/admission/internal/infrastructure/config"
	httpRouter "github.com/campusportal/admission/internal/interfaces/http"
	"github.com/campusportal/admission/internal/shared/goroutine"
	"github.com/campusportal/admission/internal/shared/logger"
)

var (
	env        string
	configPath string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the admission HTTP server",
		Long:  `Start the admission server: the forward-auth decision route, the rate limit admin API, health and metrics.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Directory containing config.yaml")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	ginMode := mapEnvToGinMode(env)

	var searchPaths []string
	if configPath != "" {
		searchPaths = append(searchPaths, configPath)
	}
	cfg, err := config.Load(env, searchPaths...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Server.Mode = ginMode

	if err := logger.Init(&cfg.Logger, ginMode == gin.DebugMode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	log.Infow("starting server",
		"environment", env,
		"policies", len(cfg.Policies),
	)

	gin.SetMode(cfg.Server.Mode)

	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {
	}

	// An unreachable Redis at startup is not fatal: checks run on the local
	// store until the breaker closes again.
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Warnw("redis unavailable at startup, starting in degraded mode", "error", err, "address", cfg.Redis.GetAddr())
	} else {
		log.Infow("redis connection established", "address", cfg.Redis.GetAddr())
	}
	defer redisClient.Close()

	router, err := httpRouter.NewRouter(cfg, redisClient, log)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}
	router.SetupRoutes()

	if err := router.Start(); err != nil {
		return fmt.Errorf("failed to start background jobs: %w", err)
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := goroutine.Go(log, "http-server", func() error {
		log.Infow("server starting",
			"address", cfg.Server.GetAddr(),
			"mode", cfg.Server.Mode)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		router.Shutdown(context.Background())
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Infow("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}
	router.Shutdown(ctx)

	log.Infow("server exited gracefully")
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod":
		return gin.ReleaseMode
	case "development", "dev":
		return gin.DebugMode
	case "test", "testing":
		return gin.TestMode
	case "debug":
		return gin.DebugMode
	case "release":
		return gin.ReleaseMode
	default:
		return gin.DebugMode
	}
}
