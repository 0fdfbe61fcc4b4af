package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for message store operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// InsertMessages appends a batch of messages in one transaction and
	// upserts the author directory (last-write-wins on username).
	InsertMessages(ctx context.Context, messages []*Message) error

	// CountMessages returns the total number of stored messages for a user.
	CountMessages(ctx context.Context, userID string) (int, error)

	// CountMessagesSince returns the number of messages for a user with
	// created_at >= since.
	CountMessagesSince(ctx context.Context, userID string, since time.Time) (int, error)

	// CountDistinctChannels returns the number of distinct channels the user
	// has messaged in.
	CountDistinctChannels(ctx context.Context, userID string) (int, error)

	// EarliestMessageTime returns the user's first message timestamp, or nil
	// if the user has no stored messages.
	EarliestMessageTime(ctx context.Context, userID string) (*time.Time, error)

	// LastMessageTime returns the user's most recent message timestamp, or
	// nil if the user has no stored messages.
	LastMessageTime(ctx context.Context, userID string) (*time.Time, error)

	// MarkLinked sets is_linked on every message row owned by userID and
	// returns the number of rows touched. Re-applying is a no-op in effect.
	MarkLinked(ctx context.Context, userID string) (int64, error)

	// ApplyFinalScore writes score to every message row owned by userID,
	// keyed on user_id rather than row id. Rows may briefly disagree if an
	// insert races the update; convergence is eventual, not transactional.
	ApplyFinalScore(ctx context.Context, userID string, score int) (int64, error)

	// DistinctUserIDs returns every user_id currently present in the store.
	DistinctUserIDs(ctx context.Context) ([]string, error)

	// TopScores returns the best final_score per user, ordered descending,
	// capped at limit. Ties break on user_id so a fixed store state yields a
	// deterministic order.
	TopScores(ctx context.Context, limit int) ([]LeaderboardRow, error)

	// CountDistinctUsers returns the number of distinct message authors.
	CountDistinctUsers(ctx context.Context) (int, error)

	// CountLinkedUsers returns the number of distinct authors with at least
	// one linked message row.
	CountLinkedUsers(ctx context.Context) (int, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) InsertMessages(ctx context.Context, messages []*Message) error {
	if len(messages) == 0 {
		return nil
	}
	for _, m := range messages {
		if m == nil {
			return fmt.Errorf("cannot insert nil message")
		}
		if m.UserID == "" {
			return fmt.Errorf("message must have a non-empty user_id")
		}
		if m.Content == "" {
			return fmt.Errorf("message must have non-empty content")
		}
		if m.CreatedAt.IsZero() {
			return fmt.Errorf("message must have a non-zero created_at")
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for message batch", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	insertQuery := `
        INSERT INTO messages (user_id, username, channel_id, content, created_at, is_linked, final_score)
        VALUES (:user_id, :username, :channel_id, :content, :created_at, :is_linked, :final_score);
    `
	userQuery := `
        INSERT INTO users (id, username) VALUES (?, ?)
        ON CONFLICT(id) DO UPDATE SET username = excluded.username;
    `

	seen := make(map[string]bool, len(messages))
	for _, m := range messages {
		result, err := tx.NamedExecContext(ctx, insertQuery, m)
		if err != nil {
			s.logger.ErrorContext(ctx, "Error inserting message", "user_id", m.UserID, "channel_id", m.ChannelID, "error", err)
			return fmt.Errorf("failed to insert message (user %s, channel %s): %w", m.UserID, m.ChannelID, err)
		}
		if id, err := result.LastInsertId(); err == nil {
			//nolint:gosec // integer overflow conversion is acceptable here
			m.ID = uint(id)
		} else {
			s.logger.WarnContext(ctx, "Could not read inserted message id", "user_id", m.UserID, "error", err)
		}

		if !seen[m.UserID] {
			if _, err := tx.ExecContext(ctx, userQuery, m.UserID, m.Username); err != nil {
				s.logger.ErrorContext(ctx, "Error upserting user directory entry", "user_id", m.UserID, "error", err)
				return fmt.Errorf("failed to upsert user %s: %w", m.UserID, err)
			}
			seen[m.UserID] = true
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit message batch", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Message batch inserted", "count", len(messages))
	return nil
}

func (s *sqlxStore) CountMessages(ctx context.Context, userID string) (int, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE user_id = ?`, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error counting messages", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to count messages for user %s: %w", userID, err)
	}
	return count, nil
}

func (s *sqlxStore) CountMessagesSince(ctx context.Context, userID string, since time.Time) (int, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages WHERE user_id = ? AND created_at >= ?`, userID, since)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error counting messages since", "user_id", userID, "since", since, "error", err)
		return 0, fmt.Errorf("failed to count messages for user %s since %s: %w", userID, since, err)
	}
	return count, nil
}

func (s *sqlxStore) CountDistinctChannels(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(DISTINCT channel_id) FROM messages WHERE user_id = ?`, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error counting distinct channels", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to count channels for user %s: %w", userID, err)
	}
	return count, nil
}

func (s *sqlxStore) EarliestMessageTime(ctx context.Context, userID string) (*time.Time, error) {
	return s.messageTimeBound(ctx, userID, "ASC")
}

func (s *sqlxStore) LastMessageTime(ctx context.Context, userID string) (*time.Time, error) {
	return s.messageTimeBound(ctx, userID, "DESC")
}

// messageTimeBound selects a plain column rather than MIN/MAX: SQLite drops
// the declared column type on aggregate expressions, and without it the
// driver returns a raw string that does not scan into time.Time.
func (s *sqlxStore) messageTimeBound(ctx context.Context, userID, dir string) (*time.Time, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var t time.Time
	query := fmt.Sprintf(`SELECT created_at FROM messages WHERE user_id = ? ORDER BY created_at %s LIMIT 1`, dir)
	err := s.db.GetContext(ctx, &t, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching message time bound", "user_id", userID, "dir", dir, "error", err)
		return nil, fmt.Errorf("failed to fetch created_at bound for user %s: %w", userID, err)
	}
	return &t, nil
}

func (s *sqlxStore) MarkLinked(ctx context.Context, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE messages SET is_linked = 1 WHERE user_id = ?`, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking messages linked", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to mark messages linked for user %s: %w", userID, err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

func (s *sqlxStore) ApplyFinalScore(ctx context.Context, userID string, score int) (int64, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE messages SET final_score = ? WHERE user_id = ?`, score, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error applying final score", "user_id", userID, "score", score, "error", err)
		return 0, fmt.Errorf("failed to apply score for user %s: %w", userID, err)
	}
	affected, _ := result.RowsAffected()
	s.logger.DebugContext(ctx, "Applied final score", "user_id", userID, "score", score, "rows", affected)
	return affected, nil
}

func (s *sqlxStore) DistinctUserIDs(ctx context.Context) ([]string, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var ids []string
	err := s.db.SelectContext(ctx, &ids, `SELECT DISTINCT user_id FROM messages ORDER BY user_id`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing distinct user IDs", "error", err)
		return nil, fmt.Errorf("failed to list distinct user IDs: %w", err)
	}
	return ids, nil
}

func (s *sqlxStore) TopScores(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 10
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var rows []LeaderboardRow
	query := `
        SELECT m.user_id AS user_id,
               COALESCE(u.username, m.user_id) AS username,
               MAX(m.final_score) AS score
        FROM messages m
        LEFT JOIN users u ON u.id = m.user_id
        GROUP BY m.user_id
        ORDER BY score DESC, m.user_id ASC
        LIMIT ?;
    `
	err := s.db.SelectContext(ctx, &rows, query, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching top scores", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to fetch top scores: %w", err)
	}
	return rows, nil
}

func (s *sqlxStore) CountDistinctUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(DISTINCT user_id) FROM messages`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error counting distinct users", "error", err)
		return 0, fmt.Errorf("failed to count distinct users: %w", err)
	}
	return count, nil
}

func (s *sqlxStore) CountLinkedUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(DISTINCT user_id) FROM messages WHERE is_linked = 1`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error counting linked users", "error", err)
		return 0, fmt.Errorf("failed to count linked users: %w", err)
	}
	return count, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
