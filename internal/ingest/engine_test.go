package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Mrmii321/activity-bot/internal/database"
	"github.com/Mrmii321/activity-bot/internal/ingest"
	"github.com/Mrmii321/activity-bot/internal/platform"
)

// historyStub serves canned history per channel.
type historyStub struct {
	messages map[string][]platform.Message
	errs     map[string]error
}

func (h *historyStub) History(_ context.Context, channelID string, _ time.Time) ([]platform.Message, error) {
	if err := h.errs[channelID]; err != nil {
		return nil, err
	}
	return h.messages[channelID], nil
}

// insertRecorder captures batches; the embedded interface panics on anything
// the engine should never call.
type insertRecorder struct {
	database.Store

	mu           sync.Mutex
	batches      map[string][]*database.Message
	failChannels map[string]bool
}

func newInsertRecorder() *insertRecorder {
	return &insertRecorder{
		batches:      make(map[string][]*database.Message),
		failChannels: make(map[string]bool),
	}
}

func (r *insertRecorder) InsertMessages(_ context.Context, messages []*database.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	channelID := messages[0].ChannelID
	if r.failChannels[channelID] {
		return errors.New("insert failed")
	}
	r.batches[channelID] = append(r.batches[channelID], messages...)
	return nil
}

func TestSweep(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	history := &historyStub{
		messages: map[string][]platform.Message{
			"general": {
				{AuthorID: "u1", AuthorName: "alice", Content: "hello", CreatedAt: now.Add(-time.Hour)},
				{AuthorID: "u2", AuthorName: "bob", Content: "", CreatedAt: now.Add(-time.Hour)},
				{AuthorID: "u2", AuthorName: "bob", Content: "hi", CreatedAt: now.Add(-2 * time.Hour)},
			},
			"quiet": {},
			"bad-store": {
				{AuthorID: "u3", AuthorName: "carol", Content: "lost", CreatedAt: now.Add(-time.Hour)},
			},
		},
		errs: map[string]error{
			"private": fmt.Errorf("channel private: %w", platform.ErrPermissionDenied),
			"flaky":   errors.New("gateway timeout"),
		},
	}
	store := newInsertRecorder()
	store.failChannels["bad-store"] = true

	engine := ingest.NewEngine(store, history, nil)
	channels := []string{"general", "quiet", "private", "flaky", "bad-store"}
	summary, err := engine.Sweep(context.Background(), channels, 24*time.Hour, now)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}

	if summary.ChannelsProcessed != 2 {
		t.Errorf("ChannelsProcessed = %d, want 2", summary.ChannelsProcessed)
	}
	if summary.ChannelsFailed != 3 {
		t.Errorf("ChannelsFailed = %d, want 3", summary.ChannelsFailed)
	}
	if summary.MessagesInserted != 2 {
		t.Errorf("MessagesInserted = %d, want 2", summary.MessagesInserted)
	}

	batch := store.batches["general"]
	if len(batch) != 2 {
		t.Fatalf("general batch has %d rows, want 2 (empty content filtered)", len(batch))
	}
	for _, m := range batch {
		if m.ChannelID != "general" {
			t.Errorf("row channel = %q, want general", m.ChannelID)
		}
		if m.IsLinked {
			t.Error("fresh row must not be linked")
		}
		if m.FinalScore != 0 {
			t.Errorf("fresh row final_score = %d, want 0", m.FinalScore)
		}
		if m.CreatedAt.Location() != time.UTC {
			t.Errorf("row created_at not UTC: %v", m.CreatedAt)
		}
	}

	if len(store.batches["quiet"]) != 0 {
		t.Errorf("quiet channel produced %d rows, want none", len(store.batches["quiet"]))
	}
}

func TestSweepNoChannels(t *testing.T) {
	t.Parallel()

	engine := ingest.NewEngine(newInsertRecorder(), &historyStub{}, nil)
	summary, err := engine.Sweep(context.Background(), nil, 24*time.Hour, time.Now().UTC())
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if summary != (ingest.Summary{}) {
		t.Errorf("summary = %+v, want zero value", summary)
	}
}

func TestSweepCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := ingest.NewEngine(newInsertRecorder(), &historyStub{
		errs: map[string]error{"general": context.Canceled},
	}, nil)
	_, err := engine.Sweep(ctx, []string{"general"}, 24*time.Hour, time.Now().UTC())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Sweep error = %v, want context.Canceled", err)
	}
}
