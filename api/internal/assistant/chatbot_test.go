package assistant

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medassist/api/internal/i18n"
	"medassist/api/internal/logging"
	"medassist/api/internal/search"
	"medassist/api/internal/util"
)

func TestChatbotNotConfigured(t *testing.T) {
	r := NewChatbot(&fakeGen{}, nil, nil, nil).Respond(context.Background(), "hi", "en")
	assert.Equal(t, MsgNotConfigured, r.Reply)
	assert.False(t, r.SearchPerformed)
	assert.NotNil(t, r.Sources)
}

func TestChatbotDirectAnswer(t *testing.T) {
	gen := &fakeGen{configured: true, decision: "  NS \n", answer: "<p>Drink **water**</p>"}
	s := &fakeSearch{}

	r := NewChatbot(gen, s, nil, logging.NewTestLogger()).Respond(context.Background(), "what is thirst", "de")

	assert.False(t, r.SearchPerformed)
	assert.Empty(t, s.queries)
	assert.Equal(t, "Drink **water**"+i18n.ShortDisclaimer("de"), r.Reply)
	last := gen.last()
	assert.Contains(t, last.Prompt, "Respond ONLY in German")
	assert.EqualValues(t, 600, last.MaxOutputTokens)
	require.NotNil(t, last.Temperature)
	assert.InDelta(t, 0.4, *last.Temperature, 1e-6)
}

func TestChatbotSearchAnswer(t *testing.T) {
	gen := &fakeGen{configured: true, decision: "Migraine Causes", answer: "Migraines are [1] common [2]."}
	s := &fakeSearch{results: []search.Source{
		{URL: "https://a.example", Snippet: "first snippet"},
		{URL: "https://b.example", Snippet: "second snippet"},
	}}

	r := NewChatbot(gen, s, nil, nil).Respond(context.Background(), "why migraines?", "xx")

	assert.True(t, r.SearchPerformed)
	assert.Equal(t, "migraine causes", r.SearchQuery)
	assert.Equal(t, []string{"migraine causes"}, s.queries)
	assert.Equal(t, []string{"en"}, s.langs)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, r.Sources)
	assert.True(t, strings.HasSuffix(r.Reply, i18n.Disclaimer("en")))

	last := gen.last()
	assert.Contains(t, last.Prompt, "[1] first snippet\n\n[2] second snippet")
	assert.Contains(t, last.Prompt, "User Question: why migraines?")
	assert.Contains(t, last.System, "knowledgeable medical assistant")
	assert.EqualValues(t, 800, last.MaxOutputTokens)
}

func TestChatbotDecisionErrorSearchesOriginalMessage(t *testing.T) {
	gen := &fakeGen{configured: true, decisionErr: errQuota, answer: "ok"}
	s := &fakeSearch{}

	r := NewChatbot(gen, s, nil, nil).Respond(context.Background(), "Chest pain", "en")
	assert.True(t, r.SearchPerformed)
	assert.Equal(t, []string{"Chest pain"}, s.queries)
	assert.Contains(t, gen.last().Prompt, "No sources available.")
	assert.NotNil(t, r.Sources)
}

func TestChatbotAnswerErrorsDegrade(t *testing.T) {
	gen := &fakeGen{configured: true, decision: "query", answerErr: errQuota}
	r := NewChatbot(gen, &fakeSearch{}, nil, nil).Respond(context.Background(), "x", "en")
	assert.Equal(t, "Error generating medical response: quota exceeded", r.Reply)

	gen = &fakeGen{configured: true, decision: "ns", answerErr: errQuota}
	r = NewChatbot(gen, nil, nil, nil).Respond(context.Background(), "x", "en")
	assert.Equal(t, "Error: quota exceeded", r.Reply)
}

func TestChatbotPromptOverride(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/p/direct.user.txt", []byte("Answer briefly in {{.Language}}: {{.Query}}"), 0o644))
	gen := &fakeGen{configured: true, decision: "ns", answer: "short"}

	NewChatbot(gen, nil, NewPrompts(util.NewPromptLoader(fs, "/p")), nil).Respond(context.Background(), "cough?", "fr")
	assert.Equal(t, "Answer briefly in French: cough?", gen.last().Prompt)
}

func TestChatbotBrokenOverrideDegrades(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/p/direct.user.txt", []byte("{{.Nope"), 0o644))
	gen := &fakeGen{configured: true, decision: "ns", answer: "short"}

	r := NewChatbot(gen, nil, NewPrompts(util.NewPromptLoader(fs, "/p")), nil).Respond(context.Background(), "cough?", "en")
	assert.True(t, strings.HasPrefix(r.Reply, "Error: prompt direct.user"))
}

func TestContextBlock(t *testing.T) {
	assert.Equal(t, "No sources available.", ContextBlock(nil))
	assert.Equal(t, "[1] a", ContextBlock([]search.Source{{Snippet: "a"}}))
}

func TestSummarizer(t *testing.T) {
	assert.Equal(t, MsgSummaryNotConfigured, NewSummarizer(&fakeGen{}, nil, nil).Summarize(context.Background(), "t", "en"))

	gen := &fakeGen{configured: true, answer: "summary"}
	assert.Equal(t, "summary", NewSummarizer(gen, nil, nil).Summarize(context.Background(), "BP 120/80", "it"))
	assert.Contains(t, gen.last().Prompt, "**Medical Text:** BP 120/80")
	assert.Contains(t, gen.last().Prompt, "in Italian")

	gen = &fakeGen{configured: true, answerErr: errQuota}
	assert.Equal(t, "Summarization error: quota exceeded", NewSummarizer(gen, nil, nil).Summarize(context.Background(), "t", "en"))
}
