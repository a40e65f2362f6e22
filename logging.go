package eventcore

import (
	"log/slog"

	"github.com/joeycumines/logiface"
	islog "github.com/joeycumines/logiface-slog"
)

// Logger is the structured logging sink the loop and its event sources
// write to. It is borrowed, never owned: the loop never closes it, and a
// nil [Logger] passed to [New] is replaced with a disabled logger so call
// sites never need a nil check.
//
// Concretely this is a [*logiface.Logger] over the logiface-slog event
// type, letting any [log/slog.Handler] act as the sink (JSON, text,
// OpenTelemetry bridges, or a handler written for this project).
type Logger = *logiface.Logger[*islog.Event]

// discardLogger returns a Logger whose handler drops every record, used
// when the caller does not supply one.
func discardLogger() Logger {
	return islog.L.New(islog.L.WithSlogHandler(slog.DiscardHandler))
}

// NewSlogLogger builds a [Logger] backed by the given [log/slog.Handler].
// This is the usual way an application wires its own logging stack
// (zap, zerolog, stdlib slog with a JSON/text handler, ...) into the loop:
//
//	logger := eventcore.NewSlogLogger(slog.NewJSONHandler(os.Stderr, nil))
//	loop, err := eventcore.New(eventcore.WithLogger(logger))
func NewSlogLogger(handler slog.Handler) Logger {
	return islog.L.New(islog.L.WithSlogHandler(handler))
}
