package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mrmii321/activity-bot/internal/database"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, nil)
}

func msg(userID, username, channelID, content string, createdAt time.Time) *database.Message {
	return &database.Message{
		UserID:    userID,
		Username:  username,
		ChannelID: channelID,
		Content:   content,
		CreatedAt: createdAt,
	}
}

func TestInsertMessagesAndCounts(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	batch := []*database.Message{
		msg("u1", "alice", "general", "hello", base),
		msg("u1", "alice", "general", "again", base.Add(time.Hour)),
		msg("u1", "alice", "random", "elsewhere", base.Add(2*time.Hour)),
		msg("u2", "bob", "general", "hi", base.Add(3*time.Hour)),
	}
	if err := store.InsertMessages(ctx, batch); err != nil {
		t.Fatalf("InsertMessages: %v", err)
	}

	for i, m := range batch {
		if m.ID == 0 {
			t.Errorf("batch[%d].ID not backfilled after insert", i)
		}
	}

	count, err := store.CountMessages(ctx, "u1")
	if err != nil {
		t.Fatalf("CountMessages: %v", err)
	}
	if count != 3 {
		t.Errorf("CountMessages(u1) = %d, want 3", count)
	}

	channels, err := store.CountDistinctChannels(ctx, "u1")
	if err != nil {
		t.Fatalf("CountDistinctChannels: %v", err)
	}
	if channels != 2 {
		t.Errorf("CountDistinctChannels(u1) = %d, want 2", channels)
	}

	users, err := store.CountDistinctUsers(ctx)
	if err != nil {
		t.Fatalf("CountDistinctUsers: %v", err)
	}
	if users != 2 {
		t.Errorf("CountDistinctUsers = %d, want 2", users)
	}

	ids, err := store.DistinctUserIDs(ctx)
	if err != nil {
		t.Fatalf("DistinctUserIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "u1" || ids[1] != "u2" {
		t.Errorf("DistinctUserIDs = %v, want [u1 u2]", ids)
	}

	// The since bound is inclusive.
	since, err := store.CountMessagesSince(ctx, "u1", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("CountMessagesSince: %v", err)
	}
	if since != 2 {
		t.Errorf("CountMessagesSince(u1, base+1h) = %d, want 2", since)
	}
}

func TestInsertMessagesValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	tests := []struct {
		name    string
		batch   []*database.Message
		wantErr bool
	}{
		{name: "Empty batch is a no-op", batch: nil, wantErr: false},
		{name: "Nil message", batch: []*database.Message{nil}, wantErr: true},
		{name: "Missing user_id", batch: []*database.Message{msg("", "x", "c", "hi", now)}, wantErr: true},
		{name: "Empty content", batch: []*database.Message{msg("u1", "x", "c", "", now)}, wantErr: true},
		{name: "Zero created_at", batch: []*database.Message{msg("u1", "x", "c", "hi", time.Time{})}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.InsertMessages(ctx, tt.batch)
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestMessageTimeBounds(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	earliest, err := store.EarliestMessageTime(ctx, "ghost")
	if err != nil {
		t.Fatalf("EarliestMessageTime: %v", err)
	}
	if earliest != nil {
		t.Errorf("EarliestMessageTime(ghost) = %v, want nil", earliest)
	}

	batch := []*database.Message{
		msg("u1", "alice", "general", "first", base),
		msg("u1", "alice", "general", "last", base.Add(48*time.Hour)),
	}
	if err := store.InsertMessages(ctx, batch); err != nil {
		t.Fatalf("InsertMessages: %v", err)
	}

	earliest, err = store.EarliestMessageTime(ctx, "u1")
	if err != nil {
		t.Fatalf("EarliestMessageTime: %v", err)
	}
	last, err := store.LastMessageTime(ctx, "u1")
	if err != nil {
		t.Fatalf("LastMessageTime: %v", err)
	}
	if earliest == nil || last == nil {
		t.Fatalf("time bounds = (%v, %v), want non-nil", earliest, last)
	}
	if earliest.Unix() != base.Unix() {
		t.Errorf("earliest = %v, want %v", earliest, base)
	}
	if last.Unix() != base.Add(48*time.Hour).Unix() {
		t.Errorf("last = %v, want %v", last, base.Add(48*time.Hour))
	}

	// Single message: both bounds resolve to the same instant.
	single := base.Add(time.Hour)
	if err := store.InsertMessages(ctx, []*database.Message{msg("u2", "bob", "general", "only", single)}); err != nil {
		t.Fatalf("InsertMessages: %v", err)
	}
	earliest, err = store.EarliestMessageTime(ctx, "u2")
	if err != nil {
		t.Fatalf("EarliestMessageTime(u2): %v", err)
	}
	last, err = store.LastMessageTime(ctx, "u2")
	if err != nil {
		t.Fatalf("LastMessageTime(u2): %v", err)
	}
	if earliest == nil || last == nil || earliest.Unix() != single.Unix() || last.Unix() != single.Unix() {
		t.Errorf("single-message bounds = (%v, %v), want both %v", earliest, last, single)
	}
}

func TestMarkLinked(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	batch := []*database.Message{
		msg("u1", "alice", "general", "one", base),
		msg("u1", "alice", "general", "two", base.Add(time.Hour)),
		msg("u2", "bob", "general", "three", base),
	}
	if err := store.InsertMessages(ctx, batch); err != nil {
		t.Fatalf("InsertMessages: %v", err)
	}

	rows, err := store.MarkLinked(ctx, "u1")
	if err != nil {
		t.Fatalf("MarkLinked: %v", err)
	}
	if rows != 2 {
		t.Errorf("MarkLinked(u1) rows = %d, want 2", rows)
	}

	// Re-applying only re-asserts true values.
	rows, err = store.MarkLinked(ctx, "u1")
	if err != nil {
		t.Fatalf("MarkLinked second run: %v", err)
	}
	if rows != 2 {
		t.Errorf("MarkLinked(u1) second run rows = %d, want 2", rows)
	}

	linked, err := store.CountLinkedUsers(ctx)
	if err != nil {
		t.Fatalf("CountLinkedUsers: %v", err)
	}
	if linked != 1 {
		t.Errorf("CountLinkedUsers = %d, want 1", linked)
	}

	rows, err = store.MarkLinked(ctx, "ghost")
	if err != nil {
		t.Fatalf("MarkLinked(ghost): %v", err)
	}
	if rows != 0 {
		t.Errorf("MarkLinked(ghost) rows = %d, want 0", rows)
	}
}

func TestApplyFinalScoreAndTopScores(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	batch := []*database.Message{
		msg("u1", "alice", "general", "one", base),
		msg("u1", "alice", "general", "two", base.Add(time.Hour)),
		msg("u2", "bob", "general", "three", base),
		msg("u3", "carol", "general", "four", base),
	}
	if err := store.InsertMessages(ctx, batch); err != nil {
		t.Fatalf("InsertMessages: %v", err)
	}

	for userID, score := range map[string]int{"u1": 50, "u2": 70, "u3": 50} {
		rows, err := store.ApplyFinalScore(ctx, userID, score)
		if err != nil {
			t.Fatalf("ApplyFinalScore(%s): %v", userID, err)
		}
		if rows == 0 {
			t.Errorf("ApplyFinalScore(%s) touched no rows", userID)
		}
	}

	rows, err := store.TopScores(ctx, 10)
	if err != nil {
		t.Fatalf("TopScores: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("TopScores returned %d rows, want 3", len(rows))
	}

	// Descending by score, ties broken by user_id ascending.
	want := []struct {
		userID   string
		username string
		score    int
	}{
		{"u2", "bob", 70},
		{"u1", "alice", 50},
		{"u3", "carol", 50},
	}
	for i, w := range want {
		if rows[i].UserID != w.userID || rows[i].Username != w.username || rows[i].Score != w.score {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], w)
		}
	}

	limited, err := store.TopScores(ctx, 2)
	if err != nil {
		t.Fatalf("TopScores limited: %v", err)
	}
	if len(limited) != 2 || limited[0].UserID != "u2" || limited[1].UserID != "u1" {
		t.Errorf("TopScores(2) = %+v, want [u2 u1]", limited)
	}
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.RunSQLMaintenance(context.Background()); err != nil {
		t.Fatalf("RunSQLMaintenance: %v", err)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
