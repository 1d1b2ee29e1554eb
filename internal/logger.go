package internal

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// newLogger builds the process logger: JSON lines by default, or
// human-readable text through charmbracelet/log.
func newLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	if cfg.LogFormat == LogFormatText {
		return slog.New(log.NewWithOptions(w, log.Options{
			Level:           log.Level(cfg.LogLevel),
			ReportTimestamp: true,
			Formatter:       log.TextFormatter,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}
