// Package handlers contains Telegram bot command handlers, along with their
// registration logic and middleware.
package handlers

import (
	"log/slog"

	"github.com/Mrmii321/activity-bot/internal/config"
	"github.com/Mrmii321/activity-bot/internal/database"
	"github.com/Mrmii321/activity-bot/internal/ingest"
	"github.com/Mrmii321/activity-bot/internal/leaderboard"
	"github.com/Mrmii321/activity-bot/internal/linker"
	"github.com/Mrmii321/activity-bot/internal/scoring"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Store      database.Store
	Engine     *ingest.Engine
	Linker     *linker.Linker
	Calculator *scoring.Calculator
	Reader     *leaderboard.Reader
}
