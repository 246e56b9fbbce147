package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medassist/api/internal/i18n"
	"medassist/api/internal/logging"
	"medassist/api/internal/ocr"
	"medassist/api/internal/speech"
)

// Workflow degradation messages.
const (
	MsgNoAudio        = "No audio file provided"
	MsgNoImage        = "No image file provided"
	MsgNoMedicalData  = "No medical data available for analysis. Please provide audio recording or medical documents."
	MsgNoSummaryInput = "Unable to create summary - insufficient medical data provided."
)

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (speech.Transcript, error)
}

type Extractor interface {
	Extract(ctx context.Context, src ocr.ImageSource) ocr.Result
}

// Input is one full-workflow request. Audio and Image are both optional.
type Input struct {
	Audio     []byte
	AudioName string
	Image     ocr.ImageSource
	Language  string
	RequestID string
}

type DebugInfo struct {
	ReceivedFile     bool    `json:"received_file"`
	ReceivedFilename string  `json:"received_filename,omitempty"`
	ReceivedImage    bool    `json:"received_image"`
	ReceivedLanguage string  `json:"received_language"`
	RequestID        string  `json:"request_id,omitempty"`
	OCRSource        string  `json:"ocr_source,omitempty"`
	OCRConfidence    float64 `json:"ocr_confidence,omitempty"`
	TranscriptSource string  `json:"transcript_source,omitempty"`
}

// Bundle is the full-workflow response.
type Bundle struct {
	Transcription   string    `json:"transcription"`
	ChatbotReply    string    `json:"chatbot_reply"`
	Sources         []string  `json:"sources"`
	SearchPerformed bool      `json:"search_performed"`
	ExtractedText   string    `json:"extracted_text"`
	Summary         string    `json:"summary"`
	Language        string    `json:"language"`
	FormattedReport string    `json:"formatted_report"`
	DebugInfo       DebugInfo `json:"debug_info"`
}

type Workflow struct {
	transcriber Transcriber
	extractor   Extractor
	chatbot     *Chatbot
	summarizer  *Summarizer
	log         *logging.Logger
}

func NewWorkflow(t Transcriber, e Extractor, c *Chatbot, s *Summarizer, logger *logging.Logger) *Workflow {
	return &Workflow{transcriber: t, extractor: e, chatbot: c, summarizer: s, log: logging.OrNop(logger).With("component", "workflow")}
}

// Run executes transcription, OCR, analysis and summary in order. Every step
// degrades to a message in the bundle; Run itself never fails.
func (w *Workflow) Run(ctx context.Context, in Input) Bundle {
	lang := i18n.Normalize(in.Language)
	log := w.log.With("request_id", in.RequestID)
	b := Bundle{
		Sources:  []string{},
		Language: in.Language,
		DebugInfo: DebugInfo{
			ReceivedFile:     in.AudioName != "" || len(in.Audio) > 0,
			ReceivedFilename: in.AudioName,
			ReceivedImage:    in.Image != nil,
			ReceivedLanguage: in.Language,
			RequestID:        in.RequestID,
		},
	}
	if b.Language == "" {
		b.Language = lang
	}

	transcript := w.transcribe(ctx, log, in, &b)
	extracted := w.extract(ctx, log, in, &b)

	var combined strings.Builder
	if transcript != "" {
		fmt.Fprintf(&combined, "PATIENT AUDIO TRANSCRIPTION:\n%s\n\n", transcript)
	}
	if extracted != "" {
		fmt.Fprintf(&combined, "MEDICAL DOCUMENT TEXT (OCR):\n%s\n\n", extracted)
	}
	data := combined.String()

	if strings.TrimSpace(data) == "" {
		b.ChatbotReply = MsgNoMedicalData
		b.Summary = MsgNoSummaryInput
		return b
	}

	prompt, err := w.chatbot.prompts.render(promptAnalysis, "user", analysisUser, promptData{Language: i18n.Name(lang), Context: data})
	if err != nil {
		b.ChatbotReply = "Medical analysis error: " + err.Error()
	} else {
		reply := w.chatbot.Respond(ctx, prompt, lang)
		b.ChatbotReply = reply.Reply
		b.Sources = reply.Sources
		b.SearchPerformed = reply.SearchPerformed
	}

	if b.ChatbotReply == "" {
		b.Summary = MsgNoSummaryInput
		return b
	}
	full := fmt.Sprintf("\nMEDICAL DATA:\n%s\n\nAI ANALYSIS:\n%s\n", data, b.ChatbotReply)
	b.Summary = w.summarizer.Summarize(ctx, full, lang)
	log.Info("workflow complete", "search", b.SearchPerformed, "sources", len(b.Sources))
	return b
}

// transcribe fills b.Transcription and returns the text usable for analysis.
func (w *Workflow) transcribe(ctx context.Context, log *logging.Logger, in Input, b *Bundle) string {
	if in.AudioName == "" && len(in.Audio) == 0 {
		b.Transcription = MsgNoAudio
		return ""
	}
	if w.transcriber == nil {
		b.Transcription = "Audio processing error: transcription unavailable"
		return ""
	}
	tr, err := w.transcriber.Transcribe(ctx, in.Audio, in.AudioName)
	if err != nil {
		log.Warn("transcription step failed", "err", err)
		if errors.Is(err, speech.ErrEmptyAudio) {
			b.Transcription = "Error: " + speech.MsgEmptyAudio
		} else {
			b.Transcription = "Audio processing error: " + err.Error()
		}
		return ""
	}
	b.Transcription = tr.Text
	b.DebugInfo.TranscriptSource = tr.Source
	if tr.Failed() {
		return ""
	}
	return tr.Text
}

// extract fills the OCR fields of b and returns the text usable for analysis.
func (w *Workflow) extract(ctx context.Context, log *logging.Logger, in Input, b *Bundle) string {
	if in.Image == nil {
		b.ExtractedText = MsgNoImage
		return ""
	}
	if w.extractor == nil {
		b.ExtractedText = "OCR processing error: extractor unavailable"
		return ""
	}
	res := w.extractor.Extract(ctx, in.Image)
	b.ExtractedText = strings.TrimSpace(res.Text)
	b.FormattedReport = ocr.FormatReport(res)
	b.DebugInfo.OCRSource = string(res.Source)
	b.DebugInfo.OCRConfidence = res.Confidence
	if res.Failed() {
		log.Warn("ocr step produced no text", "source", res.Source)
		return ""
	}
	return b.ExtractedText
}
