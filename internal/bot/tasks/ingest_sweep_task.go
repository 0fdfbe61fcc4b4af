package tasks

import (
	"context"
	"fmt"
	"time"
)

// newIngestSweepTask creates the scheduled task function for running the
// periodic ingestion sweep over the configured channels.
func newIngestSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "ingest_sweep")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled ingestion sweep...")
		startTime := time.Now()

		lookback := time.Duration(deps.Config.Ingest.LookbackDays) * 24 * time.Hour
		summary, err := deps.Engine.Sweep(ctx, deps.Config.Ingest.Channels, lookback, time.Now().UTC())

		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "Ingestion sweep task failed", "error", err, "duration", duration)
			return fmt.Errorf("ingest sweep failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled ingestion sweep completed",
			"channels_processed", summary.ChannelsProcessed,
			"channels_failed", summary.ChannelsFailed,
			"messages_inserted", summary.MessagesInserted,
			"duration", duration)
		return nil
	}
}
