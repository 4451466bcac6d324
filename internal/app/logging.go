package app

import (
	"io"
	"log/slog"
	"strings"

	"taskmanager/internal/config"
)

// NewLogger builds the process logger from config: "json" or "text" output at
// the configured level (debug, info, warn, error).
func NewLogger(cfg config.AppConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("env", cfg.Env, "version", cfg.Version)
}
