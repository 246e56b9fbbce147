package telegram

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/disintegration/imaging"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"medassist/api/internal/ocr"
)

func (r *Router) acceptPhoto(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	if r.Services.Extractor == nil {
		r.send(cid, "Text extraction is not available.")
		return
	}

	fileID := ""
	if len(msg.Photo) > 0 {
		fileID = msg.Photo[len(msg.Photo)-1].FileID
	} else if msg.Document != nil {
		fileID = msg.Document.FileID
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	imgBytes, err := r.fetch(ctx, fileID)
	cancel()
	if err != nil {
		r.SendError(cid, err)
		return
	}

	key := fmt.Sprintf("chat:%d", cid)
	if msg.MediaGroupID != "" {
		key = "grp:" + msg.MediaGroupID
	}

	bi, _ := r.state.batches.LoadOrStore(key, &photoBatch{
		ChatID: cid, Key: key, MediaGroupID: msg.MediaGroupID, Lang: senderLang(msg),
	})
	b := bi.(*photoBatch)

	b.mu.Lock()
	b.images = append(b.images, imgBytes)
	first := len(b.images) == 1
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(r.Debounce, func() { r.processBatch(key) })
	b.mu.Unlock()

	if first {
		r.send(cid, "📷 Image received. If the report has several pages, send them together and I will join them.")
	}
}

func (r *Router) processBatch(key string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("photo batch panic", "key", key, "panic", rec)
		}
	}()
	bi, ok := r.state.batches.LoadAndDelete(key)
	if !ok {
		return
	}
	b := bi.(*photoBatch)

	b.mu.Lock()
	images := append([][]byte(nil), b.images...)
	chatID := b.ChatID
	b.mu.Unlock()

	if len(images) == 0 {
		return
	}

	data := images[0]
	name := "report.jpg"
	if len(images) > 1 {
		merged, err := combineAsOne(images)
		if err != nil {
			r.SendError(chatID, fmt.Errorf("join pages: %w", err))
			return
		}
		data, name = merged, "report-merged.jpg"
	}

	ctx, cancel := r.context()
	defer cancel()

	res := r.Services.Extractor.Extract(ctx, ocr.ByteStream{Data: data, Filename: name})
	r.log.Info("photo processed", "chat_id", chatID, "pages", len(images), "source", res.Source, "confidence", res.Confidence)

	out := tgbotapi.NewMessage(chatID, ocr.FormatReport(res))
	if !res.Failed() && r.Services.Summarizer != nil {
		r.state.setLastText(chatID, res.Text)
		out.ReplyMarkup = makeSummaryKeyboard()
	}
	r.sendMessage(out)
}

// combineAsOne stacks pages vertically on white, centred, and downsizes the
// result to at most maxPixels.
func combineAsOne(images [][]byte) ([]byte, error) {
	decoded := make([]image.Image, 0, len(images))
	maxW, sumH := 0, 0
	for _, data := range images {
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, img)
		bounds := img.Bounds()
		if bounds.Dx() > maxW {
			maxW = bounds.Dx()
		}
		sumH += bounds.Dy()
	}
	if maxW == 0 || sumH == 0 {
		return nil, fmt.Errorf("empty images")
	}

	dst := imaging.New(maxW, sumH, color.White)
	y := 0
	for _, img := range decoded {
		w, h := img.Bounds().Dx(), img.Bounds().Dy()
		dst = imaging.Paste(dst, img, image.Pt((maxW-w)/2, y))
		y += h
	}

	final := dst
	if total := maxW * sumH; total > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(total))
		newW := max(1, int(float64(maxW)*scale))
		final = imaging.Resize(dst, newW, 0, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, final, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
