package cli

import (
	"io"
	"log/slog"

	"github.com/roach88/pulse/internal/config"
)

// NewLogger builds the process logger: JSON in production, text otherwise,
// unless log.format says otherwise. --verbose forces debug level.
func NewLogger(cfg *config.Config, verbose bool, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat() == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
