package app

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medassist/api/internal/assistant"
	"medassist/api/internal/config"
	"medassist/api/internal/logging"
	"medassist/api/internal/ocr"
)

type stubEngine struct{}

func (stubEngine) Version() (string, error) { return "stub 1.0", nil }

func (stubEngine) Recognize(context.Context, image.Image, ocr.Profile) (ocr.Page, error) {
	return ocr.Page{Text: "Cholesterol 190", Tokens: []ocr.Token{{Text: "Cholesterol", Confidence: 88}, {Text: "190", Confidence: 92}}}, nil
}

func (stubEngine) RecognizeDefault(context.Context, image.Image) (string, error) { return "", nil }

func pngImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestNewWiresOfflinePipeline(t *testing.T) {
	cfg := &config.Config{GeminiModel: "gemini-1.5-flash", NumSearch: 5, TesseractLang: "eng", FFmpegBin: "ffmpeg"}
	logger := logging.NewTestLogger()
	a := New(cfg, logger, stubEngine{})
	defer a.Close()

	assert.False(t, a.Gemini.Configured())
	assert.False(t, a.Search.Configured())
	assert.Contains(t, logger.GetOutput(), "services ready")

	res := a.Extractor.Extract(context.Background(), ocr.ByteStream{Data: pngImage(t), Filename: "x.png"})
	assert.Equal(t, "Cholesterol 190", res.Text)
	assert.Equal(t, ocr.SourceTesseract, res.Source)
	assert.InDelta(t, 90, res.Confidence, 0.001)

	reply := a.Chatbot.Respond(context.Background(), "hi", "en")
	assert.Equal(t, assistant.MsgNotConfigured, reply.Reply)
}
