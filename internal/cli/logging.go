package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/ghostwipe/ghostwipe/internal/config"
)

// newLogger builds the logger for one invocation. Records go to stderr and,
// when cfg.DebugLog is set, are mirrored into that file. The returned close
// func releases the file and is never nil.
func newLogger(cfg config.Config, stderr io.Writer) (*slog.Logger, func() error, error) {
	level := slog.LevelWarn
	if cfg.Verbose || cfg.DebugLog != "" {
		level = slog.LevelDebug
	}

	w := stderr
	closeFn := func() error { return nil }
	if cfg.DebugLog != "" {
		f, err := os.OpenFile(cfg.DebugLog, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return nil, closeFn, err
		}
		w = io.MultiWriter(stderr, f)
		closeFn = f.Close
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler), closeFn, nil
}
