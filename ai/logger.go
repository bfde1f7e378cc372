// logger.go traces every call made to the AI provider.
//
// Successful calls are logged at debug level, failures at warn, through
// the process-wide slog logger set up by applog.
package ai

import (
	"context"
	"log/slog"
	"time"
)

func logCall(ctx context.Context, op string, status int, elapsed time.Duration, err error) {
	if err != nil {
		slog.WarnContext(ctx, "ai request failed",
			"op", op,
			"status", status,
			"duration", elapsed,
			"kind", KindOf(err),
			"error", err,
		)
		return
	}
	slog.DebugContext(ctx, "ai request",
		"op", op,
		"status", status,
		"duration", elapsed,
	)
}
