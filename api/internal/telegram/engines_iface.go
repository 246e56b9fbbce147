package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"medassist/api/internal/assistant"
	"medassist/api/internal/ocr"
	"medassist/api/internal/speech"
)

// Bot is the subset of *tgbotapi.BotAPI the router talks to.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Extractor interface {
	Extract(ctx context.Context, src ocr.ImageSource) ocr.Result
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (speech.Transcript, error)
}

type Chatbot interface {
	Respond(ctx context.Context, message, lang string) assistant.ChatReply
}

type Summarizer interface {
	Summarize(ctx context.Context, text, lang string) string
}

// Services are the backends behind the chat commands. Nil entries disable the feature.
type Services struct {
	Extractor   Extractor
	Transcriber Transcriber
	Chatbot     Chatbot
	Summarizer  Summarizer
}
