// @title           Task Manager API
// @version         1.0
// @description     Task CRUD API with search, filters and pagination.
// @host            localhost:8080
// @BasePath        /api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"taskmanager/internal/app"
	"taskmanager/internal/config"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment wins
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg.App, os.Stdout)
	slog.SetDefault(logger)
	logger.Info("config loaded", "env", cfg.App.Env, "store", cfg.Store.Driver, "redis", cfg.Redis.Enabled())

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("app init", "err", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTP.Port,
		Handler:      application.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
	}

	go func() {
		logger.Info("HTTP server listening", "addr", server.Addr, "base_path", cfg.HTTP.BasePath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "err", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.HTTP.ShutdownTimeout.Duration(),
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				logger.Info("shutting down HTTP server")
				return server.Shutdown(ctx)
			},
			"app": func(ctx context.Context) error {
				return application.Close(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Info("exited", "code", exitCode)
	os.Exit(exitCode)
}
