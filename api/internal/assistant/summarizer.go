package assistant

import (
	"context"

	"medassist/api/internal/i18n"
	"medassist/api/internal/llm/gemini"
	"medassist/api/internal/logging"
)

const MsgSummaryNotConfigured = "Gemini API key not configured for summarization."

type Summarizer struct {
	gen     Generator
	prompts *Prompts
	log     *logging.Logger
}

func NewSummarizer(gen Generator, prompts *Prompts, logger *logging.Logger) *Summarizer {
	return &Summarizer{gen: gen, prompts: prompts, log: logging.OrNop(logger).With("component", "summarizer")}
}

// Summarize returns a structured summary of text, or a message describing why
// none could be produced.
func (s *Summarizer) Summarize(ctx context.Context, text, lang string) string {
	if s.gen == nil || !s.gen.Configured() {
		return MsgSummaryNotConfigured
	}
	prompt, err := s.prompts.render(promptSummary, "user", summaryUser, promptData{Language: i18n.Name(lang), Query: text})
	if err != nil {
		return "Summarization error: " + err.Error()
	}
	out, err := s.gen.Generate(ctx, gemini.Request{Prompt: prompt})
	if err != nil {
		s.log.Error("summarization failed", "err", err)
		return "Summarization error: " + err.Error()
	}
	return out
}
