// Package platform declares the seam to the chat-platform client. The real
// client (command registration, gateway connection, history pagination) lives
// outside this module; the pipeline only depends on this interface.
package platform

import (
	"context"
	"errors"
	"time"
)

// ErrPermissionDenied reports that history access to a channel was refused.
// Ingestion treats it as non-fatal: log, skip the channel, continue.
var ErrPermissionDenied = errors.New("permission denied")

// Message is one chat message as delivered by the platform client.
type Message struct {
	AuthorID   string
	AuthorName string
	ChannelID  string
	Content    string
	CreatedAt  time.Time
}

// HistoryFetcher fetches all messages in a channel created after the given
// instant, in any order. Implementations may return ErrPermissionDenied
// (wrapped or not) when channel access is refused.
type HistoryFetcher interface {
	History(ctx context.Context, channelID string, after time.Time) ([]Message, error)
}

// NopFetcher is a HistoryFetcher that returns no messages. It stands in
// until a real platform client is wired up.
type NopFetcher struct{}

// History returns an empty slice for every channel.
func (NopFetcher) History(_ context.Context, _ string, _ time.Time) ([]Message, error) {
	return nil, nil
}
