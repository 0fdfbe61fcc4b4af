// Package leaderboard exposes the ranked read-model over stored scores.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mrmii321/activity-bot/internal/database"
)

// DefaultLimit caps leaderboard reads when the caller asks for nothing.
const DefaultLimit = 10

// Entry is one ranked leaderboard row.
type Entry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// ReadStore is the subset of store operations the reader needs.
type ReadStore interface {
	TopScores(ctx context.Context, limit int) ([]database.LeaderboardRow, error)
}

// Reader serves ranked, size-limited leaderboard views. Read-only.
type Reader struct {
	store  ReadStore
	logger *slog.Logger
}

// NewReader creates a leaderboard reader over the store.
func NewReader(store ReadStore, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		store:  store,
		logger: logger.With("component", "leaderboard"),
	}
}

// Top returns up to n entries ordered by best score per user, descending.
// The aggregate takes MAX(final_score) per user, which tolerates the brief
// window where a user's rows disagree mid score-update.
func (r *Reader) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = DefaultLimit
	}

	rows, err := r.store.TopScores(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("read top scores: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		name := row.Username
		if name == "" {
			name = row.UserID
		}
		entries = append(entries, Entry{Rank: i + 1, Name: name, Score: row.Score})
	}
	return entries, nil
}
