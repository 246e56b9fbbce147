// Package speech transcribes recorded audio.
package speech

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dustin/go-humanize"

	"medassist/api/internal/i18n"
	"medassist/api/internal/llm/gemini"
	"medassist/api/internal/logging"
	"medassist/api/internal/util"
)

const (
	SourceGemini = "gemini"
	SourceFailed = "failed"
	SourceError  = "error"

	MsgNotConfigured = "Gemini API key not configured for transcription."
	MsgUnable        = "Unable to transcribe audio. Please check audio quality and format."
	MsgEmptyAudio    = "Audio file is empty"
)

var ErrEmptyAudio = errors.New("audio file is empty")

// Generator is the generative backend used for transcription.
type Generator interface {
	Configured() bool
	Generate(ctx context.Context, req gemini.Request) (string, error)
}

// Transcript mirrors the transcription JSON returned to clients.
type Transcript struct {
	Text         string `json:"transcription"`
	Language     string `json:"language"`
	LanguageCode string `json:"language_code"`
	Source       string `json:"source"`
	Confidence   string `json:"confidence"`
}

func (t Transcript) Failed() bool {
	return t.Source == SourceFailed || t.Source == SourceError || strings.TrimSpace(t.Text) == ""
}

type Transcriber struct {
	gen  Generator
	conv *Converter
	log  *logging.Logger
}

// NewTranscriber wires a generator and an optional converter. A nil converter
// sends audio as uploaded.
func NewTranscriber(gen Generator, conv *Converter, logger *logging.Logger) *Transcriber {
	return &Transcriber{gen: gen, conv: conv, log: logging.OrNop(logger).With("component", "transcriber")}
}

const instruction = `You are a medical transcription service. Transcribe the attached audio recording verbatim in its original language.
Return STRICT JSON: {"text": string, "language_code": string (ISO 639-1), "confidence": "high" | "medium" | "low"}.
If nothing intelligible is spoken, return an empty "text".`

type reply struct {
	Text         string `json:"text"`
	LanguageCode string `json:"language_code"`
	Confidence   string `json:"confidence"`
}

// Transcribe returns ErrEmptyAudio for empty input. Every other failure is
// reported inside the Transcript.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (Transcript, error) {
	if len(audio) == 0 {
		return Transcript{}, ErrEmptyAudio
	}
	if t.gen == nil || !t.gen.Configured() {
		return Transcript{Text: MsgNotConfigured, Language: "unknown", LanguageCode: "unknown", Source: SourceError, Confidence: "low"}, nil
	}
	t.log.Info("starting transcription", "file", filename, "size", humanize.Bytes(uint64(len(audio))))

	data, mime := audio, util.SniffMime(audio)
	if t.conv != nil {
		if wav, ok := t.conv.Convert(ctx, audio, filename); ok {
			data, mime = wav, "audio/wav"
		}
	}

	out, err := t.gen.Generate(ctx, gemini.Request{
		System:      instruction,
		Prompt:      "Transcribe this recording.",
		Temperature: gemini.Temperature(0),
		Blobs:       []gemini.Blob{{MIMEType: mime, Data: data}},
	})
	if err != nil {
		t.log.Error("transcription failed", "err", err)
		return failed(), nil
	}

	r := parseReply(out)
	if strings.TrimSpace(r.Text) == "" {
		t.log.Warn("transcription returned empty text")
		return failed(), nil
	}
	code := strings.ToLower(strings.TrimSpace(r.LanguageCode))
	res := Transcript{
		Text:         strings.TrimSpace(r.Text),
		Language:     i18n.AnyName(code),
		LanguageCode: code,
		Source:       SourceGemini,
		Confidence:   confidenceLevel(r.Confidence),
	}
	t.log.Info("transcription completed", "language", res.Language, "preview", util.Preview(res.Text, 100))
	return res, nil
}

func failed() Transcript {
	return Transcript{Text: MsgUnable, Language: "unknown", LanguageCode: "unknown", Source: SourceFailed, Confidence: "low"}
}

// parseReply accepts the JSON shape and falls back to treating the whole reply as text.
func parseReply(s string) reply {
	var r reply
	if err := json.Unmarshal([]byte(util.StripCodeFences(s)), &r); err != nil {
		return reply{Text: s}
	}
	return r
}

func confidenceLevel(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return "high"
	case "low":
		return "low"
	default:
		return "medium"
	}
}
