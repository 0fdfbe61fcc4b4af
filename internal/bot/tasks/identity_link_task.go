package tasks

import (
	"context"
	"fmt"
	"time"
)

// newIdentityLinkTask creates the scheduled task function for refreshing
// identity links from the configured remote sources.
func newIdentityLinkTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "identity_link")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled identity link task...")
		startTime := time.Now()

		result, err := deps.Linker.Link(ctx)

		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "Identity link task failed", "error", err, "duration", duration)
			return fmt.Errorf("identity link failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled identity link task completed",
			"pairs", len(result.Pairs),
			"rows_linked", result.RowsLinked,
			"sources_failed", result.SourcesFailed,
			"duration", duration)
		return nil
	}
}
