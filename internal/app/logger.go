package app

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances. When
// logFile is set the logger fans out to both the console writer and the
// file; the file side always captures debug records.
func newLogger(levelStr, formatStr, logFile string, outW io.Writer) (*slog.Logger, func() error) {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	newHandler := func(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
		if formatStr == "json" {
			return slog.NewJSONHandler(w, opts)
		}
		return slog.NewTextHandler(w, opts)
	}

	console := newHandler(outW, &slog.HandlerOptions{Level: level})
	closer := func() error { return nil }

	if logFile == "" {
		return slog.New(console), closer
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(console)
		logger.Warn("Failed to open log file, console only.", "path", logFile, "error", err)
		return logger, closer
	}

	fileHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(slogmulti.Fanout(console, fileHandler)), f.Close
}
