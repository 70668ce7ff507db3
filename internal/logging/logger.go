// Package logging configures slog for the comfort service.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
)

// Init sets up slog to write to both stdout and a log file under LOG_DIR.
// It returns the logger and the opened file so callers can Close() on
// shutdown. If the file cannot be opened the logger falls back to stdout
// only.
func Init() (*slog.Logger, *os.File) {
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "./logs"
	}
	_ = os.MkdirAll(logDir, 0o755)

	fp := filepath.Join(logDir, "comfortd.log")
	f, err := os.OpenFile(fp, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
		lg.Error("log file open failed; using stdout only", "error", err)
		return lg, os.Stdout
	}

	mw := io.MultiWriter(f, os.Stdout)
	lg := slog.New(slog.NewTextHandler(mw, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.SetOutput(mw) // align legacy stdlib log output too
	return lg, f
}
