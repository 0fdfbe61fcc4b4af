// Package tasks implements scheduled tasks for the activity bot.
// It includes task definitions, dependencies, and registration mechanisms.
package tasks

import (
	"log/slog"

	"github.com/Mrmii321/activity-bot/internal/config"
	"github.com/Mrmii321/activity-bot/internal/database"
	"github.com/Mrmii321/activity-bot/internal/ingest"
	"github.com/Mrmii321/activity-bot/internal/linker"
	"github.com/Mrmii321/activity-bot/internal/scoring"
)

// TaskDeps contains all dependencies required by scheduled tasks.
// It provides access to logging, the store, the pipeline stages, and
// configuration.
type TaskDeps struct {
	Logger     *slog.Logger
	Store      database.Store
	Engine     *ingest.Engine
	Linker     *linker.Linker
	Calculator *scoring.Calculator
	Config     *config.Config
}
