package telegram

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medassist/api/internal/assistant"
	"medassist/api/internal/logging"
	"medassist/api/internal/ocr"
	"medassist/api/internal/speech"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	baseURL  string
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, m)
	}
	return tgbotapi.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetFileDirectURL(fileID string) (string, error) {
	return b.baseURL + "/" + fileID, nil
}

func (b *fakeBot) messages() []tgbotapi.MessageConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), b.sent...)
}

func (b *fakeBot) last() tgbotapi.MessageConfig {
	m := b.messages()
	if len(m) == 0 {
		return tgbotapi.MessageConfig{}
	}
	return m[len(m)-1]
}

type fakeExtractor struct {
	mu  sync.Mutex
	got []ocr.ImageSource
	res ocr.Result
}

func (f *fakeExtractor) Extract(_ context.Context, src ocr.ImageSource) ocr.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, src)
	return f.res
}

func (f *fakeExtractor) calls() []ocr.ImageSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ocr.ImageSource(nil), f.got...)
}

type fakeTranscriber struct {
	name string
	tr   speech.Transcript
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, name string) (speech.Transcript, error) {
	f.name = name
	return f.tr, nil
}

type fakeChat struct{ msg, lang string }

func (f *fakeChat) Respond(_ context.Context, m, l string) assistant.ChatReply {
	f.msg, f.lang = m, l
	return assistant.ChatReply{Reply: "answer", Sources: []string{"https://a.example"}}
}

type fakeSummarizer struct{ text, lang string }

func (f *fakeSummarizer) Summarize(_ context.Context, text, lang string) string {
	f.text, f.lang = text, lang
	return "short"
}

type fixture struct {
	r    *Router
	bot  *fakeBot
	ex   *fakeExtractor
	tr   *fakeTranscriber
	chat *fakeChat
	sum  *fakeSummarizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch {
		case strings.HasPrefix(req.URL.Path, "/photo"):
			_, _ = w.Write(pngPage(t, 8, 6))
		case strings.HasPrefix(req.URL.Path, "/voice"):
			_, _ = w.Write([]byte("OggS\x00\x02"))
		default:
			http.NotFound(w, req)
		}
	}))
	t.Cleanup(files.Close)

	f := &fixture{
		bot:  &fakeBot{baseURL: files.URL},
		ex:   &fakeExtractor{res: ocr.Result{Text: "Glucose 5.4", Format: ocr.FormatPlain, Source: ocr.SourceTesseract, Confidence: 82}},
		tr:   &fakeTranscriber{tr: speech.Transcript{Text: "my_head hurts", LanguageCode: "en", Source: speech.SourceGemini, Confidence: "high"}},
		chat: &fakeChat{},
		sum:  &fakeSummarizer{},
	}
	f.r = NewRouter(f.bot, Services{Extractor: f.ex, Transcriber: f.tr, Chatbot: f.chat, Summarizer: f.sum}, time.Second, logging.NewTestLogger())
	f.r.Debounce = 10 * time.Millisecond
	return f
}

func pngPage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func command(chatID int64, text string) *tgbotapi.Message {
	cmd := strings.Fields(text)[0]
	return &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{LanguageCode: "fr"},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func TestStartAndHealth(t *testing.T) {
	f := newFixture(t)
	f.r.HandleUpdate(tgbotapi.Update{Message: command(1, "/start")})
	assert.Contains(t, f.bot.last().Text, "/lang")

	f.r.HandleUpdate(tgbotapi.Update{Message: command(1, "/health")})
	assert.Equal(t, "✅ OK", f.bot.last().Text)

	f.r.HandleUpdate(tgbotapi.Update{Message: command(1, "/nope")})
	assert.Equal(t, "Unknown command", f.bot.last().Text)
}

func TestLangCommand(t *testing.T) {
	f := newFixture(t)

	f.r.HandleUpdate(tgbotapi.Update{Message: command(7, "/lang")})
	assert.Contains(t, f.bot.last().Text, "Current language: French (fr)")
	assert.Contains(t, f.bot.last().Text, "hi: Hindi")

	f.r.HandleUpdate(tgbotapi.Update{Message: command(7, "/lang xx")})
	assert.True(t, strings.HasPrefix(f.bot.last().Text, "Unknown language"))

	f.r.HandleUpdate(tgbotapi.Update{Message: command(7, "/lang ES")})
	assert.Contains(t, f.bot.last().Text, "(es)")

	f.r.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 7}, Text: "fiebre?"}})
	assert.Equal(t, "es", f.chat.lang)
	assert.Equal(t, "fiebre?", f.chat.msg)
}

func TestTextGoesToChatbot(t *testing.T) {
	f := newFixture(t)
	f.r.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 3},
		From: &tgbotapi.User{LanguageCode: "pt-BR"},
		Text: "what is anemia",
	}})
	assert.Equal(t, "pt", f.chat.lang)
	assert.Equal(t, "answer\n\n🔗 Sources:\n1) https://a.example", f.bot.last().Text)
}

func TestVoiceIsTranscribedThenAnswered(t *testing.T) {
	f := newFixture(t)
	f.r.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:  &tgbotapi.Chat{ID: 4},
		Voice: &tgbotapi.Voice{FileID: "voice-1"},
	}})

	msgs := f.bot.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, tgbotapi.ModeMarkdown, msgs[0].ParseMode)
	assert.Contains(t, msgs[0].Text, "my\\_head hurts")
	assert.Contains(t, msgs[0].Text, "English")
	assert.Equal(t, "voice.ogg", f.tr.name)
	assert.Equal(t, "my_head hurts", f.chat.msg)
}

func TestPhotoAlbumIsMergedAndReported(t *testing.T) {
	f := newFixture(t)
	f.r.Debounce = 300 * time.Millisecond
	for _, id := range []string{"photo-a", "photo-b"} {
		f.r.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
			Chat:         &tgbotapi.Chat{ID: 9},
			MediaGroupID: "album-1",
			Photo:        []tgbotapi.PhotoSize{{FileID: "thumb"}, {FileID: id}},
		}})
	}

	require.Eventually(t, func() bool { return len(f.ex.calls()) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return strings.Contains(f.bot.last().Text, "Medical Report Analysis")
	}, 2*time.Second, 5*time.Millisecond)

	src := f.ex.calls()[0].(ocr.ByteStream)
	assert.Equal(t, "report-merged.jpg", src.Filename)
	img, err := imaging.Decode(bytes.NewReader(src.Data))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 12, img.Bounds().Dy())

	first := f.bot.messages()[0]
	assert.Contains(t, first.Text, "Image received")
	assert.NotNil(t, f.bot.last().ReplyMarkup)
}

func TestSummarizeCallback(t *testing.T) {
	f := newFixture(t)
	f.r.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:  &tgbotapi.Chat{ID: 5},
		Photo: []tgbotapi.PhotoSize{{FileID: "photo-1"}},
	}})
	require.Eventually(t, func() bool { return f.bot.last().ReplyMarkup != nil }, 2*time.Second, 5*time.Millisecond)

	cb := &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{LanguageCode: "de"},
		Message: &tgbotapi.Message{MessageID: 2, Chat: &tgbotapi.Chat{ID: 5}},
		Data:    cbSummarize,
	}
	f.r.HandleUpdate(tgbotapi.Update{CallbackQuery: cb})
	assert.Equal(t, "📝 Summary\n\nshort", f.bot.last().Text)
	assert.Equal(t, "Glucose 5.4", f.sum.text)
	assert.Equal(t, "de", f.sum.lang)

	f.r.HandleUpdate(tgbotapi.Update{CallbackQuery: cb})
	assert.Contains(t, f.bot.last().Text, "Nothing to summarize")
}

func TestFailedExtractionHasNoSummaryButton(t *testing.T) {
	f := newFixture(t)
	f.ex.res = ocr.TerminalFailure()
	f.r.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:  &tgbotapi.Chat{ID: 6},
		Photo: []tgbotapi.PhotoSize{{FileID: "photo-1"}},
	}})
	require.Eventually(t, func() bool {
		return strings.Contains(f.bot.last().Text, "OCR Failed")
	}, 2*time.Second, 5*time.Millisecond)
	assert.Nil(t, f.bot.last().ReplyMarkup)
}

type panickingExtractor struct{}

func (panickingExtractor) Extract(context.Context, ocr.ImageSource) ocr.Result {
	panic("decoder blew up")
}

func TestPhotoBatchPanicIsLogged(t *testing.T) {
	logger := logging.NewTestLogger()
	bot := &fakeBot{}
	r := NewRouter(bot, Services{Extractor: panickingExtractor{}}, time.Second, logger)
	r.state.batches.Store("chat:9", &photoBatch{ChatID: 9, Key: "chat:9", images: [][]byte{pngPage(t, 8, 6)}})

	require.NotPanics(t, func() { r.processBatch("chat:9") })
	assert.Contains(t, logger.GetOutput(), "photo batch panic")
	assert.Contains(t, logger.GetOutput(), "decoder blew up")
	_, pending := r.state.batches.Load("chat:9")
	assert.False(t, pending)
}

func TestCombineAsOneCentersNarrowPages(t *testing.T) {
	wide := pngPage(t, 32, 16)
	narrow := pngPage(t, 8, 16)
	out, err := combineAsOne([][]byte{wide, narrow})
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())
	r, g, b, _ := img.At(0, 28).RGBA()
	assert.Greater(t, r>>8, uint32(0xe0), "padding is white")
	assert.Greater(t, g>>8, uint32(0xe0))
	assert.Greater(t, b>>8, uint32(0xe0))

	_, err = combineAsOne([][]byte{[]byte("not an image")})
	assert.Error(t, err)
}

func TestChatStateLanguageFallback(t *testing.T) {
	var s chatState
	assert.Equal(t, "en", s.lang(1, ""))
	assert.Equal(t, "ja", s.lang(1, "ja-JP"))
	s.setLang(1, "ko")
	assert.Equal(t, "ko", s.lang(1, "ja"))
}

func TestEsc(t *testing.T) {
	assert.Equal(t, "a\\_b \\*c\\* \\[d] 'e'", esc("a_b *c* [d] `e`"))
}
