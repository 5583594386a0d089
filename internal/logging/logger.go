package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs a JSON slog logger on stdout and returns its handler so it can
// be fanned out with NewMultiHandler once the database is reachable.
func Setup(debug bool) slog.Handler {
	return setup(os.Stdout, debug)
}

func setup(w io.Writer, debug bool) slog.Handler {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return handler
}
