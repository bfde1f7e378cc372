// Package applog provides general-purpose application logging.
//
// Logs are written to ~/.sqlagent/logs/app.log (or the configured file)
// through log/slog, optionally mirrored to a console writer. Setup
// installs the logger as the slog default so every package can simply
// call slog.Info / slog.Debug.
package applog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/DachengChen/sqlagent/config"
)

// ParseLevel converts a string log level to slog.Level.
// Valid levels: debug, info, warn, error. Anything else is info.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DefaultPath returns ~/.sqlagent/logs/app.log.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".sqlagent", "logs", "app.log"), nil
}

// Setup opens the log file and installs a text handler writing to it and,
// when console is non-nil, to console as well. The returned func closes
// the file. A log file that cannot be opened degrades to console-only.
func Setup(cfg config.Log, console io.Writer) (*slog.Logger, func()) {
	var writers []io.Writer
	closeFn := func() {}

	if f, err := openLogFile(cfg.File); err == nil {
		writers = append(writers, f)
		closeFn = func() { f.Close() }
	}
	if console != nil {
		writers = append(writers, console)
	}

	var w io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		w = writers[0]
	default:
		w = io.MultiWriter(writers...)
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}))
	slog.SetDefault(logger)
	return logger, closeFn
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}
