// Package ingest implements windowed message ingestion: one fetch task per
// channel, buffered in memory, then one bulk insert per channel.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Mrmii321/activity-bot/internal/database"
	"github.com/Mrmii321/activity-bot/internal/platform"
)

// Summary reports the outcome of one sweep. A sweep with failed channels is
// a partial failure, not an error; the caller decides whether to retry.
type Summary struct {
	ChannelsProcessed int
	ChannelsFailed    int
	MessagesInserted  int
}

// Engine fetches channel history within a lookback window and appends it to
// the message store.
type Engine struct {
	store   database.Store
	history platform.HistoryFetcher
	logger  *slog.Logger
}

// NewEngine creates an ingestion engine bound to a store and a history source.
func NewEngine(store database.Store, history platform.HistoryFetcher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:   store,
		history: history,
		logger:  logger.With("component", "ingest"),
	}
}

// Sweep fetches every channel's messages created after now-lookback and bulk
// inserts them, one batch per channel. Channels are fetched concurrently and
// independently: a permission denial or fetch error on one channel never
// aborts the others. Rows are inserted with is_linked=false and
// final_score=0; empty-content messages are dropped. Overlapping sweeps
// insert duplicate rows for the same logical message (no de-duplication).
func (e *Engine) Sweep(ctx context.Context, channels []string, lookback time.Duration, now time.Time) (Summary, error) {
	after := now.Add(-lookback)
	e.logger.InfoContext(ctx, "Starting ingestion sweep",
		"channels", len(channels), "lookback", lookback, "after", after)
	sweepsRun.Inc()

	var (
		mu      sync.Mutex
		summary Summary
	)

	g, gCtx := errgroup.WithContext(ctx)
	for _, channelID := range channels {
		channelID := channelID
		g.Go(func() error {
			inserted, err := e.sweepChannel(gCtx, channelID, after)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.ChannelsFailed++
				channelsFailed.Inc()
				return nil // channel failures are contained, never group-fatal
			}
			summary.ChannelsProcessed++
			summary.MessagesInserted += inserted
			return nil
		})
	}

	// Tasks always return nil; Wait only propagates context cancellation.
	if err := g.Wait(); err != nil {
		return summary, err
	}
	if ctx.Err() != nil {
		return summary, ctx.Err()
	}

	messagesInserted.Add(float64(summary.MessagesInserted))
	e.logger.InfoContext(ctx, "Ingestion sweep finished",
		"channels_processed", summary.ChannelsProcessed,
		"channels_failed", summary.ChannelsFailed,
		"messages_inserted", summary.MessagesInserted)
	return summary, nil
}

// sweepChannel buffers one channel's fetched history and issues a single
// bulk insert after the fetch completes.
func (e *Engine) sweepChannel(ctx context.Context, channelID string, after time.Time) (int, error) {
	log := e.logger.With("channel_id", channelID)

	history, err := e.history.History(ctx, channelID, after)
	if err != nil {
		if errors.Is(err, platform.ErrPermissionDenied) {
			log.WarnContext(ctx, "History access refused, skipping channel")
		} else {
			log.ErrorContext(ctx, "Failed to fetch channel history", "error", err)
		}
		return 0, err
	}

	batch := make([]*database.Message, 0, len(history))
	for _, m := range history {
		if m.Content == "" {
			continue
		}
		batch = append(batch, &database.Message{
			UserID:     m.AuthorID,
			Username:   m.AuthorName,
			ChannelID:  channelID,
			Content:    m.Content,
			CreatedAt:  m.CreatedAt.UTC(),
			IsLinked:   false,
			FinalScore: 0,
		})
	}
	if len(batch) == 0 {
		log.DebugContext(ctx, "No messages in window for channel")
		return 0, nil
	}

	if err := e.store.InsertMessages(ctx, batch); err != nil {
		log.ErrorContext(ctx, "Failed to insert channel batch", "count", len(batch), "error", err)
		return 0, err
	}

	log.DebugContext(ctx, "Channel batch inserted", "count", len(batch))
	return len(batch), nil
}
