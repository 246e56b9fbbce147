package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID
	if _, err := r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		r.log.Debug("callback ack failed", "err", err)
	}

	switch cb.Data {
	case cbSummarize:
		r.onSummarize(cid, cb.Message.MessageID, cb.From)
	}
}

func (r *Router) onSummarize(chatID int64, msgID int, from *tgbotapi.User) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, msgID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := r.Bot.Request(edit); err != nil {
		r.log.Debug("remove keyboard failed", "err", err)
	}

	text, ok := r.state.takeLastText(chatID)
	if !ok {
		r.send(chatID, "Nothing to summarize: send a photo of a report first.")
		return
	}
	if r.Services.Summarizer == nil {
		r.send(chatID, "Summaries are not available.")
		return
	}

	fallback := ""
	if from != nil {
		fallback = from.LanguageCode
	}
	ctx, cancel := r.context()
	defer cancel()
	r.send(chatID, "📝 Summary\n\n"+r.Services.Summarizer.Summarize(ctx, text, r.state.lang(chatID, fallback)))
}
