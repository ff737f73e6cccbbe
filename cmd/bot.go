package main

import (
	"context"
	"time"

	"kassaBack/internal/telegram"
)

const pollRetryDelay = 3 * time.Second

// runBot is the inbound dispatcher: it long-polls for updates and hands
// each one to its own goroutine, so handlers for distinct users run
// concurrently over the shared store.
func (app *application) runBot(ctx context.Context) {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := app.bot.GetUpdates(ctx, offset, app.cfg.Telegram.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			app.errorLog.Printf("bot: get updates: %v", err)
			time.Sleep(pollRetryDelay)
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			go app.handleUpdate(ctx, u)
		}
	}
}

func (app *application) handleUpdate(ctx context.Context, u telegram.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			app.errorLog.Printf("bot: panic handling update %d: %v", u.UpdateID, rec)
			if chatID, ok := updateChatID(u); ok {
				_ = app.bot.SendText(ctx, chatID, "Что-то пошло не так. Попробуйте ещё раз.")
			}
		}
	}()
	app.botHandler.HandleUpdate(ctx, u)
}

func updateChatID(u telegram.Update) (int64, bool) {
	if u.Message != nil && u.Message.From != nil {
		return u.Message.From.ID, true
	}
	if u.CallbackQuery != nil {
		return u.CallbackQuery.From.ID, true
	}
	return 0, false
}
