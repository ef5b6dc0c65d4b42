package application

import (
	"context"
	"log/slog"
)

const ModuleName = "prize-lifecycle/prize-service"

// ResolveLogger guarantees a non-nil logger for application/worker code paths.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LogEvent writes one structured record with the module's standard keys.
func LogEvent(
	ctx context.Context,
	logger *slog.Logger,
	level slog.Level,
	msg string,
	event string,
	layer string,
	attrs ...any,
) {
	args := make([]any, 0, len(attrs)+6)
	args = append(args,
		"event", event,
		"module", ModuleName,
		"layer", layer,
	)
	args = append(args, attrs...)
	ResolveLogger(logger).Log(ctx, level, msg, args...)
}
