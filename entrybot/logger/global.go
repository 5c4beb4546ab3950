package logger

import (
	"log/slog"
	"time"
)

// typed prepends the "type" attribute the handler renders as its tag column.
func typed(t string, attrs ...any) []any {
	return append([]any{slog.String("type", t)}, attrs...)
}

// LogStore records one whole-collection read or write. Successful round trips
// are debug level since every repository call makes at least one.
func LogStore(operation, collection string, took time.Duration, err error) {
	attrs := typed("db",
		slog.String("operation", operation),
		slog.String("collection", collection),
		slog.Duration("took", took),
	)
	if err != nil {
		slog.Error("Store "+operation+" failed", append(attrs, slog.Any("error", err))...)
		return
	}
	slog.Debug("Store "+operation, attrs...)
}

// LogStartup reports a long running component coming up.
func LogStartup(component string, attrs ...any) {
	slog.Info("Component started", typed("sys", append([]any{slog.String("component", component)}, attrs...)...)...)
}

// LogShutdown reports a component stopping, with the error that stopped it if any.
func LogShutdown(component string, err error) {
	attrs := typed("sys", slog.String("component", component))
	if err != nil {
		slog.Error("Component stopped", append(attrs, slog.Any("error", err))...)
		return
	}
	slog.Info("Component stopped", attrs...)
}
