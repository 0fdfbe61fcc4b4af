package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly creates a middleware that checks if the message sender is the
// configured admin user. If not, it replies with a denial and stops
// processing.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				return
			}

			if update.Message.From.ID != deps.Config.Telegram.AdminID {
				deps.Logger.WarnContext(ctx, "Unauthorized admin command",
					"user_id", update.Message.From.ID, "chat_id", update.Message.Chat.ID)
				_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
					ChatID: update.Message.Chat.ID,
					Text:   "Not authorized.",
				})
				if err != nil {
					deps.Logger.ErrorContext(ctx, "Failed to send authorization denial", "error", err)
				}
				return
			}

			next(ctx, b, update)
		}
	}
}
