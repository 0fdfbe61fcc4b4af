// Package httpapi serves the read-only web surface: the leaderboard in plain
// text and JSON, a health probe, and Prometheus metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mrmii321/activity-bot/internal/leaderboard"
)

const maxLeaderboardLimit = 100

// LeaderboardSource provides ranked entries for the HTTP handlers.
type LeaderboardSource interface {
	Top(ctx context.Context, n int) ([]leaderboard.Entry, error)
}

// Server wraps the HTTP listener for the read endpoints.
type Server struct {
	httpServer *http.Server
	source     LeaderboardSource
	logger     *slog.Logger
}

// New builds the router and server. The server is not started until Start.
func New(addr string, source LeaderboardSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		source: source,
		logger: logger.With("component", "httpapi"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/leaderboard", s.handleLeaderboardText)
	r.Get("/api/leaderboard", s.handleLeaderboardJSON)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start runs the listener until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", "error", err)
			return err
		}
		s.logger.Info("HTTP server stopped gracefully.")
		return nil
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) limitFromQuery(r *http.Request) int {
	limit := leaderboard.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
			if limit > maxLeaderboardLimit {
				limit = maxLeaderboardLimit
			}
		}
	}
	return limit
}

func (s *Server) handleLeaderboardText(w http.ResponseWriter, r *http.Request) {
	entries, err := s.source.Top(r.Context(), s.limitFromQuery(r))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to read leaderboard", "error", err)
		http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tSCORE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", e.Rank, e.Name, e.Score)
	}
	_ = tw.Flush()
}

func (s *Server) handleLeaderboardJSON(w http.ResponseWriter, r *http.Request) {
	entries, err := s.source.Top(r.Context(), s.limitFromQuery(r))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to read leaderboard", "error", err)
		http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to encode leaderboard", "error", err)
	}
}
