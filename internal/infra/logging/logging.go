// Package logging configures the process-wide slog logger.
package logging

import (
	"log/slog"
	"os"
)

// SetupJSON installs a JSON handler on slog's default logger. Everything
// in the service logs through slog's package-level functions, so this is
// the single switch for level and format.
func SetupJSON(level slog.Level) {
	slog.SetDefault(slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
	))
}
