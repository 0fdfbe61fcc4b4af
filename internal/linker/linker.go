// Package linker reconciles stored message authors against an external
// account-mapping source. It reads line-oriented documents over SFTP, parses
// `<external_account_id> <secondary_id>` pairs, and flips is_linked on
// matching message rows.
package linker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/Mrmii321/activity-bot/internal/database"
)

// ErrSourceUnavailable reports that a remote source could not be reached or
// its credential set was incomplete. Per-source failures are contained: the
// run continues with the remaining sources.
var ErrSourceUnavailable = errors.New("remote source unavailable")

// Credential is one username/password pair for the shared connection
// descriptor. A set missing either field is skipped, not fatal.
type Credential struct {
	Username string
	Password string
}

// Config holds one primary connection descriptor plus N credential sets.
type Config struct {
	Host        string
	Port        int
	Path        string
	Credentials []Credential
}

// LinkRecord is one parsed external-account pair. It is consumed during the
// run and not persisted.
type LinkRecord struct {
	ExternalAccountID string
	SecondaryID       string
}

// Result summarizes one linking run.
type Result struct {
	Pairs         []LinkRecord
	RowsLinked    int64
	SourcesFailed int
}

// Table renders the parsed pairs as a plain-text table for inspection.
func (r Result) Table() string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EXTERNAL_ACCOUNT_ID\tSECONDARY_ID")
	for _, p := range r.Pairs {
		fmt.Fprintf(w, "%s\t%s\n", p.ExternalAccountID, p.SecondaryID)
	}
	w.Flush()
	return buf.String()
}

// FetchFunc retrieves one remote document. The default implementation uses
// SFTP; tests substitute their own.
type FetchFunc func(ctx context.Context, host string, port int, username, password, path string) ([]byte, error)

// Linker applies external account links to the message store.
type Linker struct {
	store  database.Store
	cfg    Config
	fetch  FetchFunc
	logger *slog.Logger
}

// New creates a Linker with the SFTP fetch implementation.
func New(store database.Store, cfg Config, logger *slog.Logger) *Linker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Linker{
		store:  store,
		cfg:    cfg,
		fetch:  sftpFetch,
		logger: logger.With("component", "linker"),
	}
}

// NewWithFetch creates a Linker with a custom document fetcher.
func NewWithFetch(store database.Store, cfg Config, fetch FetchFunc, logger *slog.Logger) *Linker {
	l := New(store, cfg, logger)
	l.fetch = fetch
	return l
}

// Link reads every configured source, accumulates parsed pairs across all of
// them, and sets is_linked on matching message rows. Re-running with the
// same source data only re-asserts true values, so the operation is
// idempotent.
func (l *Linker) Link(ctx context.Context) (Result, error) {
	var result Result

	for i, cred := range l.cfg.Credentials {
		pairs, err := l.readSource(ctx, cred)
		if err != nil {
			l.logger.WarnContext(ctx, "Skipping link source", "source", i, "error", err)
			result.SourcesFailed++
			continue
		}
		result.Pairs = append(result.Pairs, pairs...)
	}

	for _, pair := range result.Pairs {
		rows, err := l.store.MarkLinked(ctx, pair.ExternalAccountID)
		if err != nil {
			return result, fmt.Errorf("failed to apply link for %s: %w", pair.ExternalAccountID, err)
		}
		result.RowsLinked += rows
	}

	l.logger.InfoContext(ctx, "Identity linking run finished",
		"pairs", len(result.Pairs), "rows_linked", result.RowsLinked, "sources_failed", result.SourcesFailed)
	return result, nil
}

func (l *Linker) readSource(ctx context.Context, cred Credential) ([]LinkRecord, error) {
	if l.cfg.Host == "" || l.cfg.Port == 0 || l.cfg.Path == "" || cred.Username == "" || cred.Password == "" {
		return nil, fmt.Errorf("%w: incomplete source configuration", ErrSourceUnavailable)
	}

	data, err := l.fetch(ctx, l.cfg.Host, l.cfg.Port, cred.Username, cred.Password, l.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	return l.parseDocument(ctx, data), nil
}

// parseDocument extracts whitespace-separated pairs, one per line. A line
// with fewer than two tokens is malformed; the documented policy is to skip
// it and keep the rest of the document, so one bad line never discards a
// source's valid pairs.
func (l *Linker) parseDocument(ctx context.Context, data []byte) []LinkRecord {
	var records []LinkRecord

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			l.logger.WarnContext(ctx, "Skipping malformed link record", "line", line)
			continue
		}
		records = append(records, LinkRecord{
			ExternalAccountID: fields[0],
			SecondaryID:       strings.Join(fields[1:], " "),
		})
	}
	return records
}
