// Package scoring derives per-user activity flags from the message store and
// combines them with volume and recency into a single persisted score.
package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Recognized activity flag names.
const (
	FlagSentMessagesAfterJoining   = "sent_messages_after_joining"
	FlagMessagedWithin30Days       = "messaged_within_30_days"
	FlagAbove100Messages           = "above_100_messages"
	FlagBelow10Messages            = "below_10_messages"
	FlagNeverMessaged              = "never_messaged"
	FlagNoRoleAssigned             = "no_role_assigned"
	FlagLowInteractionHighActivity = "low_interaction_high_activity"
)

const (
	highActivityThreshold   = 100
	lowInteractionThreshold = 10
	recentWindow            = 30 * 24 * time.Hour
)

// Flags maps flag name to value for one user at one evaluation instant.
// Flags are computed on demand from the store; repeated evaluations may
// observe different results while ingestion proceeds concurrently.
type Flags map[string]bool

// FlagStore is the subset of store queries flag evaluation needs.
type FlagStore interface {
	CountMessages(ctx context.Context, userID string) (int, error)
	CountMessagesSince(ctx context.Context, userID string, since time.Time) (int, error)
	CountDistinctChannels(ctx context.Context, userID string) (int, error)
	EarliestMessageTime(ctx context.Context, userID string) (*time.Time, error)
}

// Evaluator computes activity flags from stored message history.
type Evaluator struct {
	store FlagStore
	// correctedInteraction swaps the low_interaction_high_activity predicate
	// for total > 100 AND distinct channels < 10. The default predicate
	// (total > 100 AND total < 10) is carried as inherited and is never true.
	correctedInteraction bool
	logger               *slog.Logger
}

// NewEvaluator creates a flag evaluator over the given store.
func NewEvaluator(store FlagStore, correctedInteraction bool, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		store:                store,
		correctedInteraction: correctedInteraction,
		logger:               logger.With("component", "flags"),
	}
}

// Evaluate computes all flags for one user at the given instant. joinedAt is
// optional; when nil it defaults to the user's earliest stored message, or
// now if the user has none.
func (e *Evaluator) Evaluate(ctx context.Context, userID string, joinedAt *time.Time, now time.Time) (Flags, error) {
	total, err := e.store.CountMessages(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	if joinedAt == nil {
		earliest, err := e.store.EarliestMessageTime(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("earliest message time: %w", err)
		}
		if earliest == nil {
			earliest = &now
		}
		joinedAt = earliest
	}

	afterJoin, err := e.store.CountMessagesSince(ctx, userID, *joinedAt)
	if err != nil {
		return nil, fmt.Errorf("count messages after joining: %w", err)
	}

	within30, err := e.store.CountMessagesSince(ctx, userID, now.Add(-recentWindow))
	if err != nil {
		return nil, fmt.Errorf("count recent messages: %w", err)
	}

	lowHigh := total > highActivityThreshold && total < lowInteractionThreshold
	if e.correctedInteraction {
		channels, err := e.store.CountDistinctChannels(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("count distinct channels: %w", err)
		}
		lowHigh = total > highActivityThreshold && channels < lowInteractionThreshold
	}

	flags := Flags{
		FlagSentMessagesAfterJoining:   afterJoin > 0,
		FlagMessagedWithin30Days:       within30 > 0,
		FlagAbove100Messages:           total > highActivityThreshold,
		FlagBelow10Messages:            total < lowInteractionThreshold,
		FlagNeverMessaged:              total == 0,
		FlagNoRoleAssigned:             false, // role data source not modeled
		FlagLowInteractionHighActivity: lowHigh,
	}

	e.logger.DebugContext(ctx, "Evaluated activity flags", "user_id", userID, "flags", flags)
	return flags, nil
}
