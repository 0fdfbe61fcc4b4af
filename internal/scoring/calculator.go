package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CalcStore is the subset of store operations score calculation needs.
type CalcStore interface {
	FlagStore
	LastMessageTime(ctx context.Context, userID string) (*time.Time, error)
	ApplyFinalScore(ctx context.Context, userID string, score int) (int64, error)
	DistinctUserIDs(ctx context.Context) ([]string, error)
}

// ScoreResult is the transient output of one score computation. Only Score
// is persisted, denormalized into every message row of the user.
type ScoreResult struct {
	UserID               string
	Score                int
	Flags                Flags
	DaysSinceLastMessage int
	MessagesPastMonth    int
}

// Calculator computes and persists activity scores. It is the only writer of
// final_score.
type Calculator struct {
	store     CalcStore
	evaluator *Evaluator
	policy    Policy
	logger    *slog.Logger
}

// NewCalculator creates a score calculator with the given policy.
func NewCalculator(store CalcStore, evaluator *Evaluator, policy Policy, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{
		store:     store,
		evaluator: evaluator,
		policy:    policy,
		logger:    logger.With("component", "score", "policy", policy.Name()),
	}
}

// Score computes the user's score at the given instant and writes it back to
// every message row owned by the user. A user absent from the store gets the
// clamped default rather than an error. The flag-evaluate to score-write
// sequence is not atomic; a message ingested in between is picked up on the
// next run.
func (c *Calculator) Score(ctx context.Context, userID string, now time.Time) (ScoreResult, error) {
	flags, err := c.evaluator.Evaluate(ctx, userID, nil, now)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("evaluate flags for %s: %w", userID, err)
	}

	pastMonth, err := c.store.CountMessagesSince(ctx, userID, now.Add(-recentWindow))
	if err != nil {
		return ScoreResult{}, fmt.Errorf("count window messages for %s: %w", userID, err)
	}

	last, err := c.store.LastMessageTime(ctx, userID)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("last message time for %s: %w", userID, err)
	}
	days := noMessagesDays
	if last != nil {
		days = int(now.Sub(*last).Hours() / 24)
	}

	result := ScoreResult{
		UserID:               userID,
		Flags:                flags,
		DaysSinceLastMessage: days,
		MessagesPastMonth:    pastMonth,
	}
	result.Score = c.policy.Score(Inputs{
		MessagesPastMonth:    pastMonth,
		DaysSinceLastMessage: days,
		Flags:                flags,
	})

	if _, err := c.store.ApplyFinalScore(ctx, userID, result.Score); err != nil {
		return result, fmt.Errorf("persist score for %s: %w", userID, err)
	}

	c.logger.DebugContext(ctx, "Score computed",
		"user_id", userID, "score", result.Score,
		"messages_past_month", pastMonth, "days_since_last_message", days)
	return result, nil
}

// ScoreAll recomputes the score for every distinct user currently in the
// store. Per-user failures are logged and counted but do not stop the batch.
func (c *Calculator) ScoreAll(ctx context.Context, now time.Time) (scored, failed int, err error) {
	userIDs, err := c.store.DistinctUserIDs(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list users for rescore: %w", err)
	}

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return scored, failed, ctx.Err()
		}
		if _, err := c.Score(ctx, userID, now); err != nil {
			c.logger.ErrorContext(ctx, "Failed to score user", "user_id", userID, "error", err)
			failed++
			continue
		}
		scored++
	}

	c.logger.InfoContext(ctx, "Batch rescore finished", "scored", scored, "failed", failed)
	return scored, failed, nil
}
