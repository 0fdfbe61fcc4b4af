package database

import "time"

// Message is one ingested chat message. FinalScore is a denormalized copy of
// the author's most recently computed activity score, duplicated across every
// row belonging to that user so the leaderboard can aggregate without a join.
type Message struct {
	ID        uint      `db:"id"`
	UserID    string    `db:"user_id"`
	Username  string    `db:"username"`
	ChannelID string    `db:"channel_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`

	IsLinked   bool `db:"is_linked"`
	FinalScore int  `db:"final_score"`
}

// User is an append-only directory entry. Rows are created on first-seen
// insert and never deleted; Username is last-write-wins.
type User struct {
	ID       string `db:"id"`
	Username string `db:"username"`
}

// LeaderboardRow is one aggregated leaderboard entry: the best final_score
// observed across a user's message rows.
type LeaderboardRow struct {
	UserID   string `db:"user_id"`
	Username string `db:"username"`
	Score    int    `db:"score"`
}
