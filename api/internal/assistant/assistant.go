// Package assistant is the medical chatbot, the summarizer and the
// full audio + document workflow built on top of them.
package assistant

import (
	"context"

	"medassist/api/internal/llm/gemini"
	"medassist/api/internal/search"
)

// Generator is the LLM backend.
type Generator interface {
	Configured() bool
	Generate(ctx context.Context, req gemini.Request) (string, error)
}

// Searcher finds supporting web sources. It never fails; errors yield no sources.
type Searcher interface {
	Search(ctx context.Context, query, lang string) []search.Source
}

const (
	answerTokens  = 800
	directTokens  = 600
	defaultTemp   = 0.4
	noSearchReply = "ns"
)
