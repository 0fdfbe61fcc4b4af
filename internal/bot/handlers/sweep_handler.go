package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewSweepHandler returns a handler for the admin-only /sweep command. It
// runs the full pipeline on demand: ingestion sweep, identity linking, and a
// batch rescore, then replies with the partial-failure summary.
func NewSweepHandler(deps HandlerDeps) bot.HandlerFunc {
	return sweepHandler{deps}.Handle
}

type sweepHandler struct {
	deps HandlerDeps
}

func (h sweepHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "sweep")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Sweep handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID
	now := time.Now().UTC()

	lookback := time.Duration(h.deps.Config.Ingest.LookbackDays) * 24 * time.Hour
	summary, err := h.deps.Engine.Sweep(ctx, h.deps.Config.Ingest.Channels, lookback, now)
	if err != nil {
		log.ErrorContext(ctx, "Ingestion sweep failed", "error", err)
		h.reply(ctx, b, chatID, "Ingestion sweep failed.")
		return
	}

	linkResult, err := h.deps.Linker.Link(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Identity linking failed", "error", err)
		h.reply(ctx, b, chatID, "Identity linking failed.")
		return
	}

	scored, failed, err := h.deps.Calculator.ScoreAll(ctx, now)
	if err != nil {
		log.ErrorContext(ctx, "Batch rescore failed", "error", err)
		h.reply(ctx, b, chatID, "Batch rescore failed.")
		return
	}

	h.reply(ctx, b, chatID, fmt.Sprintf(
		"Sweep complete.\nChannels: %d ok, %d failed\nMessages inserted: %d\nLink pairs: %d (rows linked: %d)\nUsers rescored: %d (%d failed)",
		summary.ChannelsProcessed, summary.ChannelsFailed, summary.MessagesInserted,
		len(linkResult.Pairs), linkResult.RowsLinked, scored, failed))
}

func (h sweepHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send sweep reply", "error", err, "chat_id", chatID)
	}
}
