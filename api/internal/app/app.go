// Package app assembles the services shared by the HTTP server, the bot and the CLI.
package app

import (
	"github.com/spf13/afero"

	"medassist/api/internal/assistant"
	"medassist/api/internal/config"
	"medassist/api/internal/llm/gemini"
	"medassist/api/internal/logging"
	"medassist/api/internal/ocr"
	"medassist/api/internal/ocr/ocrspace"
	"medassist/api/internal/ocr/tesseract"
	"medassist/api/internal/search"
	"medassist/api/internal/speech"
	"medassist/api/internal/util"
)

type App struct {
	Config *config.Config
	Log    *logging.Logger

	Recognizer  *ocr.Recognizer
	Extractor   *ocr.Extractor
	Gemini      *gemini.Client
	Search      *search.Client
	Transcriber *speech.Transcriber
	Chatbot     *assistant.Chatbot
	Summarizer  *assistant.Summarizer
	Workflow    *assistant.Workflow
}

// New wires every component from cfg. The local OCR engine is used unless
// engine is non-nil.
func New(cfg *config.Config, logger *logging.Logger, engine ocr.Engine) *App {
	logger = logging.OrNop(logger)
	if engine == nil {
		engine = tesseract.New(cfg.TesseractLang)
	}

	recognizer := ocr.NewRecognizer(engine, logger)
	remote := ocrspace.New(cfg.OCRSpaceAPIKey, logger, ocrspace.WithURL(cfg.OCRSpaceURL))
	extractor := ocr.NewExtractor(recognizer, remote, logger)

	llm := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	searcher := search.New(cfg.GoogleAPIKey, cfg.SearchEngineID, cfg.NumSearch, logger)
	transcriber := speech.NewTranscriber(llm, speech.NewConverter(cfg.FFmpegBin, logger), logger)

	prompts := assistant.NewPrompts(util.NewPromptLoader(afero.NewOsFs(), cfg.PromptDir))
	chatbot := assistant.NewChatbot(llm, searcher, prompts, logger)
	summarizer := assistant.NewSummarizer(llm, prompts, logger)

	logger.Info("services ready",
		"gemini", llm.Configured(),
		"search", searcher.Configured(),
		"ocr_space", cfg.OCRSpaceAPIKey != "",
		"tesseract_lang", cfg.TesseractLang,
	)

	return &App{
		Config:      cfg,
		Log:         logger,
		Recognizer:  recognizer,
		Extractor:   extractor,
		Gemini:      llm,
		Search:      searcher,
		Transcriber: transcriber,
		Chatbot:     chatbot,
		Summarizer:  summarizer,
		Workflow:    assistant.NewWorkflow(transcriber, extractor, chatbot, summarizer, logger),
	}
}

func (a *App) Close() error {
	return a.Recognizer.Close()
}
