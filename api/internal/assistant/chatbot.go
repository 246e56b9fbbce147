package assistant

import (
	"context"
	"fmt"
	"strings"

	"medassist/api/internal/i18n"
	"medassist/api/internal/llm/gemini"
	"medassist/api/internal/logging"
	"medassist/api/internal/search"
	"medassist/api/internal/util"
)

const MsgNotConfigured = "Gemini API key not configured."

// ChatReply is the chatbot's answer plus what was searched to produce it.
type ChatReply struct {
	Reply           string          `json:"reply"`
	Sources         []string        `json:"sources"`
	SearchPerformed bool            `json:"search_performed"`
	SearchQuery     string          `json:"search_query"`
	Results         []search.Source `json:"-"`
}

type Chatbot struct {
	gen     Generator
	search  Searcher
	prompts *Prompts
	log     *logging.Logger
}

func NewChatbot(gen Generator, s Searcher, prompts *Prompts, logger *logging.Logger) *Chatbot {
	return &Chatbot{gen: gen, search: s, prompts: prompts, log: logging.OrNop(logger).With("component", "chatbot")}
}

// Respond answers message in lang. It never returns an error: failures are
// reported in the reply text.
func (c *Chatbot) Respond(ctx context.Context, message, lang string) ChatReply {
	lang = i18n.Normalize(lang)
	out := ChatReply{Sources: []string{}}
	if c.gen == nil || !c.gen.Configured() {
		out.Reply = MsgNotConfigured
		return out
	}

	query, needed := c.searchQuery(ctx, message, lang)
	if !needed {
		c.log.Debug("answering directly")
		reply, err := c.direct(ctx, message, lang)
		if err != nil {
			c.log.Error("direct answer failed", "err", err)
			out.Reply = "Error: " + err.Error()
			return out
		}
		out.Reply = reply
		return out
	}

	c.log.Info("searching", "query", query)
	var results []search.Source
	if c.search != nil {
		results = c.search.Search(ctx, query, lang)
	}
	out.SearchPerformed = true
	out.SearchQuery = query
	out.Results = results
	out.Sources = search.URLs(results)

	reply, err := c.answer(ctx, message, results, lang)
	if err != nil {
		c.log.Error("answer with sources failed", "err", err)
		out.Reply = "Error generating medical response: " + err.Error()
		return out
	}
	out.Reply = reply
	return out
}

// searchQuery asks the model whether a search is needed. Any failure falls back
// to searching for the message itself.
func (c *Chatbot) searchQuery(ctx context.Context, message, lang string) (string, bool) {
	data := promptData{Language: i18n.Name(lang), Query: message}
	system, err := c.prompts.render(promptSearchDecision, "system", searchDecisionSystem, data)
	if err != nil {
		return message, true
	}
	user, err := c.prompts.render(promptSearchDecision, "user", searchDecisionUser, data)
	if err != nil {
		return message, true
	}
	out, err := c.gen.Generate(ctx, gemini.Request{System: system, Prompt: user})
	if err != nil {
		c.log.Warn("search decision failed, searching anyway", "err", err)
		return message, true
	}
	q := strings.ToLower(strings.TrimSpace(out))
	if q == noSearchReply || q == "" {
		return "", false
	}
	return q, true
}

// ContextBlock numbers the snippets so the model can cite them as [n].
func ContextBlock(results []search.Source) string {
	if len(results) == 0 {
		return "No sources available."
	}
	parts := make([]string, 0, len(results))
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("[%d] %s", i+1, r.Snippet))
	}
	return strings.Join(parts, "\n\n")
}

func (c *Chatbot) answer(ctx context.Context, message string, results []search.Source, lang string) (string, error) {
	data := promptData{Language: i18n.Name(lang), Query: message, Context: ContextBlock(results)}
	system, err := c.prompts.render(promptAnswer, "system", answerSystem, data)
	if err != nil {
		return "", err
	}
	user, err := c.prompts.render(promptAnswer, "user", answerUser, data)
	if err != nil {
		return "", err
	}
	out, err := c.gen.Generate(ctx, gemini.Request{
		System:          system,
		Prompt:          user,
		Temperature:     gemini.Temperature(defaultTemp),
		MaxOutputTokens: answerTokens,
	})
	if err != nil {
		return "", err
	}
	return util.StripHTML(out) + i18n.Disclaimer(lang), nil
}

func (c *Chatbot) direct(ctx context.Context, message, lang string) (string, error) {
	user, err := c.prompts.render(promptDirect, "user", directUser, promptData{Language: i18n.Name(lang), Query: message})
	if err != nil {
		return "", err
	}
	out, err := c.gen.Generate(ctx, gemini.Request{
		Prompt:          user,
		Temperature:     gemini.Temperature(defaultTemp),
		MaxOutputTokens: directTokens,
	})
	if err != nil {
		return "", err
	}
	return util.StripHTML(out) + i18n.ShortDisclaimer(lang), nil
}
