package linker_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Mrmii321/activity-bot/internal/database"
	"github.com/Mrmii321/activity-bot/internal/linker"
)

// linkRecorder records MarkLinked calls; the embedded interface panics on
// anything the linker should never call.
type linkRecorder struct {
	database.Store

	calls map[string]int
	rows  map[string]int64
}

func newLinkRecorder() *linkRecorder {
	return &linkRecorder{
		calls: make(map[string]int),
		rows:  make(map[string]int64),
	}
}

func (r *linkRecorder) MarkLinked(_ context.Context, userID string) (int64, error) {
	r.calls[userID]++
	return r.rows[userID], nil
}

func testConfig(creds ...linker.Credential) linker.Config {
	return linker.Config{
		Host:        "files.example.com",
		Port:        22,
		Path:        "/exports/links.txt",
		Credentials: creds,
	}
}

func staticFetch(doc string) linker.FetchFunc {
	return func(_ context.Context, _ string, _ int, _, _, _ string) ([]byte, error) {
		return []byte(doc), nil
	}
}

func TestLinkParsesAndApplies(t *testing.T) {
	t.Parallel()

	doc := "alice 111\n\nmalformed\nbob 222 extra tokens\n"
	store := newLinkRecorder()
	store.rows["alice"] = 3
	store.rows["bob"] = 1

	l := linker.NewWithFetch(store, testConfig(linker.Credential{Username: "svc", Password: "pw"}), staticFetch(doc), nil)
	result, err := l.Link(context.Background())
	if err != nil {
		t.Fatalf("Link returned error: %v", err)
	}

	if len(result.Pairs) != 2 {
		t.Fatalf("parsed %d pairs, want 2 (malformed and blank lines skipped)", len(result.Pairs))
	}
	if result.Pairs[0].ExternalAccountID != "alice" || result.Pairs[0].SecondaryID != "111" {
		t.Errorf("pair 0 = %+v, want alice/111", result.Pairs[0])
	}
	if result.Pairs[1].ExternalAccountID != "bob" || result.Pairs[1].SecondaryID != "222 extra tokens" {
		t.Errorf("pair 1 = %+v, want bob with joined secondary id", result.Pairs[1])
	}
	if result.RowsLinked != 4 {
		t.Errorf("RowsLinked = %d, want 4", result.RowsLinked)
	}
	if result.SourcesFailed != 0 {
		t.Errorf("SourcesFailed = %d, want 0", result.SourcesFailed)
	}
	if store.calls["alice"] != 1 || store.calls["bob"] != 1 {
		t.Errorf("MarkLinked calls = %v, want one per parsed id", store.calls)
	}
}

func TestLinkSkipsUnavailableSources(t *testing.T) {
	t.Parallel()

	store := newLinkRecorder()
	store.rows["alice"] = 2

	creds := []linker.Credential{
		{Username: "", Password: "pw"},       // incomplete, skipped
		{Username: "down", Password: "pw"},   // fetch fails
		{Username: "svc", Password: "pw"},    // healthy
	}
	fetch := func(_ context.Context, _ string, _ int, username, _, _ string) ([]byte, error) {
		if username == "down" {
			return nil, errors.New("connection refused")
		}
		return []byte("alice 111\n"), nil
	}

	l := linker.NewWithFetch(store, testConfig(creds...), fetch, nil)
	result, err := l.Link(context.Background())
	if err != nil {
		t.Fatalf("Link returned error: %v", err)
	}

	if result.SourcesFailed != 2 {
		t.Errorf("SourcesFailed = %d, want 2", result.SourcesFailed)
	}
	if len(result.Pairs) != 1 {
		t.Errorf("parsed %d pairs, want 1 from the healthy source", len(result.Pairs))
	}
	if result.RowsLinked != 2 {
		t.Errorf("RowsLinked = %d, want 2", result.RowsLinked)
	}
}

func TestLinkIdempotent(t *testing.T) {
	t.Parallel()

	store := newLinkRecorder()
	store.rows["alice"] = 3

	l := linker.NewWithFetch(store, testConfig(linker.Credential{Username: "svc", Password: "pw"}), staticFetch("alice 111\n"), nil)

	first, err := l.Link(context.Background())
	if err != nil {
		t.Fatalf("first Link: %v", err)
	}
	second, err := l.Link(context.Background())
	if err != nil {
		t.Fatalf("second Link: %v", err)
	}

	if first.RowsLinked != second.RowsLinked {
		t.Errorf("RowsLinked changed between runs: %d then %d", first.RowsLinked, second.RowsLinked)
	}
	if store.calls["alice"] != 2 {
		t.Errorf("MarkLinked calls = %d, want 2", store.calls["alice"])
	}
}

func TestResultTable(t *testing.T) {
	t.Parallel()

	result := linker.Result{
		Pairs: []linker.LinkRecord{
			{ExternalAccountID: "alice", SecondaryID: "111"},
			{ExternalAccountID: "bob", SecondaryID: "222"},
		},
	}

	table := result.Table()
	if !strings.Contains(table, "EXTERNAL_ACCOUNT_ID") {
		t.Errorf("table missing header:\n%s", table)
	}
	if !strings.Contains(table, "alice") || !strings.Contains(table, "222") {
		t.Errorf("table missing rows:\n%s", table)
	}
}
