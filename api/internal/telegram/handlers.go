package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"medassist/api/internal/i18n"
)

const maxDownload = 20 << 20

func (r *Router) handleText(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	if r.Services.Chatbot == nil {
		r.send(cid, "Chat is not available.")
		return
	}
	ctx, cancel := r.context()
	defer cancel()

	lang := r.state.lang(cid, senderLang(msg))
	reply := r.Services.Chatbot.Respond(ctx, msg.Text, lang)
	r.send(cid, chatText(reply.Reply, reply.Sources))
}

func chatText(reply string, sources []string) string {
	if len(sources) == 0 {
		return reply
	}
	var b strings.Builder
	b.WriteString(reply)
	b.WriteString("\n\n🔗 Sources:\n")
	for i, s := range sources {
		fmt.Fprintf(&b, "%d) %s\n", i+1, s)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Router) handleAudio(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	if r.Services.Transcriber == nil {
		r.send(cid, "Transcription is not available.")
		return
	}

	fileID, name := "", "voice.ogg"
	switch {
	case msg.Voice != nil:
		fileID = msg.Voice.FileID
	case msg.Audio != nil:
		fileID = msg.Audio.FileID
		if msg.Audio.FileName != "" {
			name = msg.Audio.FileName
		}
	}

	ctx, cancel := r.context()
	defer cancel()

	audio, err := r.fetch(ctx, fileID)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	tr, err := r.Services.Transcriber.Transcribe(ctx, audio, name)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	if tr.Failed() {
		r.send(cid, "🎤 "+tr.Text)
		return
	}

	out := tgbotapi.NewMessage(cid, transcriptText(tr.Text, tr.LanguageCode, tr.Confidence))
	out.ParseMode = tgbotapi.ModeMarkdown
	r.sendMessage(out)

	if r.Services.Chatbot != nil {
		lang := r.state.lang(cid, senderLang(msg))
		reply := r.Services.Chatbot.Respond(ctx, tr.Text, lang)
		r.send(cid, chatText(reply.Reply, reply.Sources))
	}
}

func transcriptText(text, langCode, confidence string) string {
	var b strings.Builder
	b.WriteString("🎤 *Transcription*")
	if langCode != "" && langCode != "unknown" {
		fmt.Fprintf(&b, " (%s, %s confidence)", esc(i18n.AnyName(langCode)), esc(confidence))
	}
	b.WriteString("\n\n")
	b.WriteString(esc(text))
	return b.String()
}

// fetch downloads a Telegram file by id.
func (r *Router) fetch(ctx context.Context, fileID string) ([]byte, error) {
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("download status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDownload))
}
