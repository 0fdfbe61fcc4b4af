// Package main contains the entrypoint for the activity bot application.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/Mrmii321/activity-bot/internal/bot"
	"github.com/Mrmii321/activity-bot/internal/bot/handlers"
	"github.com/Mrmii321/activity-bot/internal/bot/tasks"
	"github.com/Mrmii321/activity-bot/internal/config"
	"github.com/Mrmii321/activity-bot/internal/database"
	"github.com/Mrmii321/activity-bot/internal/httpapi"
	"github.com/Mrmii321/activity-bot/internal/ingest"
	"github.com/Mrmii321/activity-bot/internal/leaderboard"
	"github.com/Mrmii321/activity-bot/internal/linker"
	"github.com/Mrmii321/activity-bot/internal/logger"
	"github.com/Mrmii321/activity-bot/internal/platform"
	"github.com/Mrmii321/activity-bot/internal/scoring"
	"github.com/Mrmii321/activity-bot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// pipeline stages, bot, scheduler, http server), handles graceful shutdown,
// and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	// The real chat-platform client is wired in separately; the pipeline only
	// depends on the HistoryFetcher seam.
	var history platform.HistoryFetcher = platform.NopFetcher{}

	engine := ingest.NewEngine(store, history, log)
	lnk := linker.New(store, linkerConfig(cfg.Linker), log)

	policy, err := scoring.PolicyFromName(cfg.Scoring.Policy)
	if err != nil {
		log.Error("Failed to select scoring policy", "policy", cfg.Scoring.Policy, "error", err)
		return 1
	}
	evaluator := scoring.NewEvaluator(store, cfg.Scoring.CorrectedInteractionFlag, log)
	calculator := scoring.NewCalculator(store, evaluator, policy, log)
	reader := leaderboard.NewReader(store, log)

	hDeps := handlers.HandlerDeps{
		Logger:     log,
		Config:     cfg,
		Store:      store,
		Engine:     engine,
		Linker:     lnk,
		Calculator: calculator,
		Reader:     reader,
	}
	tDeps := tasks.TaskDeps{
		Logger:     log,
		Store:      store,
		Engine:     engine,
		Linker:     lnk,
		Calculator: calculator,
		Config:     cfg,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	// Retrieve bot info and store it in the config for runtime use
	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	httpServer := httpapi.New(cfg.HTTP.Addr, reader, log)

	app := bot.NewBot(log, cfg, tg, sched, httpServer)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}

// linkerConfig maps the validated file configuration onto the linker's own
// config type.
func linkerConfig(cfg config.LinkerConfig) linker.Config {
	out := linker.Config{
		Host: cfg.Host,
		Port: cfg.Port,
		Path: cfg.Path,
	}
	for _, c := range cfg.Credentials {
		out.Credentials = append(out.Credentials, linker.Credential{
			Username: c.Username,
			Password: c.Password,
		})
	}
	return out
}
