package logging

import (
	"io"

	"golang.org/x/exp/slog"
)

// OrDiscard returns logger, or a logger that drops every record if logger is nil
func OrDiscard(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}

	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
