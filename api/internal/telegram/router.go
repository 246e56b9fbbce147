// Package telegram is the chat front-end: photos are OCR'd into a report,
// voice notes are transcribed and plain text goes to the medical chatbot.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"medassist/api/internal/i18n"
	"medassist/api/internal/logging"
	"medassist/api/internal/util"
)

type Router struct {
	Bot      Bot
	Services Services

	// Timeout bounds the work done for one update.
	Timeout time.Duration
	// Debounce is how long an album waits for more pages.
	Debounce time.Duration

	httpc *http.Client
	state chatState
	log   *logging.Logger
}

func NewRouter(bot Bot, svc Services, timeout time.Duration, logger *logging.Logger) *Router {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &Router{
		Bot:      bot,
		Services: svc,
		Timeout:  timeout,
		Debounce: debounce,
		httpc:    &http.Client{Timeout: 60 * time.Second},
		log:      logging.OrNop(logger).With("component", "telegram"),
	}
}

func (r *Router) HandleCommand(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, "🏥 Doctor Assistant\n\n"+
			"• Send a photo of a medical report and I will extract its text.\n"+
			"• Send a voice note and I will transcribe it.\n"+
			"• Ask any medical question as text.\n\n"+
			"Commands: /health, /lang <code>")
	case "health":
		r.send(cid, "✅ OK")
	case "lang":
		r.handleLangCommand(cid, msg.CommandArguments(), senderLang(msg))
	default:
		r.send(cid, "Unknown command")
	}
}

// handleLangCommand shows or switches the chat language.
//
//	/lang
//	/lang es
func (r *Router) handleLangCommand(chatID int64, args, fallback string) {
	code := strings.ToLower(strings.TrimSpace(args))
	if code == "" {
		cur := r.state.lang(chatID, fallback)
		r.send(chatID, fmt.Sprintf("Current language: %s (%s)\nAvailable:\n%s", i18n.Name(cur), cur, languageList()))
		return
	}
	if !i18n.IsSupported(code) {
		r.send(chatID, "Unknown language. Available:\n"+languageList())
		return
	}
	r.state.setLang(chatID, code)
	r.send(chatID, fmt.Sprintf("✅ Language: %s (%s)", i18n.SelfName(code), code))
}

func languageList() string {
	codes := i18n.Codes()
	lines := make([]string, 0, len(codes))
	for _, c := range codes {
		lines = append(lines, fmt.Sprintf("%s: %s", c, i18n.Name(c)))
	}
	return strings.Join(lines, "\n")
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("update handler panic", "update_id", upd.UpdateID, "panic", rec)
		}
	}()

	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	msg := *upd.Message

	switch {
	case msg.IsCommand():
		r.HandleCommand(msg)
	case len(msg.Photo) > 0:
		r.acceptPhoto(msg)
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/"):
		r.acceptPhoto(msg)
	case msg.Voice != nil || msg.Audio != nil:
		r.handleAudio(msg)
	case strings.TrimSpace(msg.Text) != "":
		r.handleText(msg)
	}
}

func (r *Router) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.Timeout)
}

func (r *Router) send(chatID int64, text string) {
	r.sendMessage(tgbotapi.NewMessage(chatID, util.Truncate(text, maxMessage)))
}

func (r *Router) sendMessage(msg tgbotapi.MessageConfig) {
	if _, err := r.Bot.Send(msg); err != nil {
		r.log.Warn("send failed", "chat_id", msg.ChatID, "err", err)
	}
}

func (r *Router) SendError(chatID int64, err error) {
	r.log.Warn("chat error", "chat_id", chatID, "err", err)
	r.send(chatID, fmt.Sprintf("❌ Error: %v", err))
}

func senderLang(msg tgbotapi.Message) string {
	if msg.From != nil {
		return msg.From.LanguageCode
	}
	return ""
}
