package telegram

import (
	"sync"
	"time"

	"medassist/api/internal/i18n"
)

const (
	debounce  = 1200 * time.Millisecond
	maxPixels = 18_000_000
)

// chatState holds per-chat settings. Zero value is ready to use.
type chatState struct {
	langs    sync.Map // chatID -> string
	lastText sync.Map // chatID -> string, last OCR text for the summary button
	batches  sync.Map // key -> *photoBatch
}

func (s *chatState) setLang(chatID int64, code string) { s.langs.Store(chatID, code) }

// lang returns the chat's chosen language, else the sender's Telegram locale.
func (s *chatState) lang(chatID int64, fallback string) string {
	if v, ok := s.langs.Load(chatID); ok {
		if code, _ := v.(string); code != "" {
			return code
		}
	}
	return i18n.Normalize(fallback)
}

func (s *chatState) setLastText(chatID int64, text string) { s.lastText.Store(chatID, text) }

func (s *chatState) takeLastText(chatID int64) (string, bool) {
	v, ok := s.lastText.LoadAndDelete(chatID)
	if !ok {
		return "", false
	}
	text, _ := v.(string)
	return text, text != ""
}

// photoBatch collects the pages of one album before they are stitched.
type photoBatch struct {
	ChatID       int64
	Key          string // "grp:<mediaGroupID>" | "chat:<chatID>"
	MediaGroupID string
	Lang         string

	mu     sync.Mutex
	images [][]byte
	timer  *time.Timer
}
