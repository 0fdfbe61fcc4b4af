package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewScoreHandler returns a handler for the /score command. It recomputes
// and replies with the activity score for the given user ID.
func NewScoreHandler(deps HandlerDeps) bot.HandlerFunc {
	return scoreHandler{deps}.Handle
}

type scoreHandler struct {
	deps HandlerDeps
}

func (h scoreHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "score")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Score handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	args := strings.Fields(update.Message.Text)
	if len(args) < 2 {
		h.reply(ctx, b, chatID, "Usage: /score <user_id>")
		return
	}
	userID := args[1]

	result, err := h.deps.Calculator.Score(ctx, userID, time.Now().UTC())
	if err != nil {
		log.ErrorContext(ctx, "Failed to compute score", "user_id", userID, "error", err)
		h.reply(ctx, b, chatID, "Failed to compute score.")
		return
	}

	var active []string
	for name, set := range result.Flags {
		if set {
			active = append(active, name)
		}
	}
	flagsLine := "none"
	if len(active) > 0 {
		flagsLine = strings.Join(active, ", ")
	}

	h.reply(ctx, b, chatID, fmt.Sprintf(
		"Score for %s: %d\nMessages past month: %d\nDays since last message: %d\nFlags: %s",
		userID, result.Score, result.MessagesPastMonth, result.DaysSinceLastMessage, flagsLine))
}

func (h scoreHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send score reply", "error", err, "chat_id", chatID)
	}
}
