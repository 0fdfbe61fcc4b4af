package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStatsHandler returns a handler for the /stats command. It reports the
// distinct-author count and how many of them are linked to an external
// account.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	if update.Message == nil {
		log.WarnContext(ctx, "Stats handler received update with nil message", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	active, err := h.deps.Store.CountDistinctUsers(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to count active users", "error", err)
		h.reply(ctx, b, chatID, "Failed to fetch stats.")
		return
	}
	linked, err := h.deps.Store.CountLinkedUsers(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to count linked users", "error", err)
		h.reply(ctx, b, chatID, "Failed to fetch stats.")
		return
	}

	h.reply(ctx, b, chatID, fmt.Sprintf("Active users: %d\nLinked users: %d", active, linked))
}

func (h statsHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send stats reply", "error", err, "chat_id", chatID)
	}
}
