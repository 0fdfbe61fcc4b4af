package tasks

import (
	"context"
	"fmt"
	"time"
)

// newScoreRecomputeTask creates the scheduled task function for recomputing
// the activity score of every known user and writing it back to the store.
func newScoreRecomputeTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "score_recompute")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled score recompute task...")
		startTime := time.Now()

		scored, failed, err := deps.Calculator.ScoreAll(ctx, time.Now().UTC())

		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "Score recompute task failed", "error", err, "duration", duration)
			return fmt.Errorf("score recompute failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled score recompute task completed",
			"scored", scored,
			"failed", failed,
			"duration", duration)
		return nil
	}
}
