package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Mrmii321/activity-bot/internal/leaderboard"
)

// NewLeaderboardHandler returns a handler for the /leaderboard command.
func NewLeaderboardHandler(deps HandlerDeps) bot.HandlerFunc {
	return leaderboardHandler{deps}.Handle
}

type leaderboardHandler struct {
	deps HandlerDeps
}

func (h leaderboardHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "leaderboard")

	if update.Message == nil {
		log.WarnContext(ctx, "Leaderboard handler received update with nil message", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	entries, err := h.deps.Reader.Top(ctx, leaderboard.DefaultLimit)
	if err != nil {
		log.ErrorContext(ctx, "Failed to read leaderboard", "error", err)
		h.reply(ctx, b, chatID, "Could not fetch leaderboard data.")
		return
	}
	if len(entries) == 0 {
		h.reply(ctx, b, chatID, "Leaderboard is empty.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Leaderboard:\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "%d. %s: %d\n", e.Rank, e.Name, e.Score)
	}
	h.reply(ctx, b, chatID, sb.String())
}

func (h leaderboardHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send leaderboard reply", "error", err, "chat_id", chatID)
	}
}
