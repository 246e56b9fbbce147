package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"

	"medassist/api/internal/llm/gemini"
	"medassist/api/internal/ocr"
	"medassist/api/internal/search"
	"medassist/api/internal/speech"
)

// fakeGen answers the search-decision prompt with decision and everything
// else with answer.
type fakeGen struct {
	mu          sync.Mutex
	configured  bool
	decision    string
	decisionErr error
	answer      string
	answerErr   error
	reqs        []gemini.Request
}

func (f *fakeGen) Configured() bool { return f.configured }

func (f *fakeGen) Generate(_ context.Context, req gemini.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if strings.HasPrefix(req.System, "Decide if query needs web search") {
		return f.decision, f.decisionErr
	}
	return f.answer, f.answerErr
}

func (f *fakeGen) last() gemini.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

type fakeSearch struct {
	results []search.Source
	queries []string
	langs   []string
}

func (f *fakeSearch) Search(_ context.Context, q, lang string) []search.Source {
	f.queries = append(f.queries, q)
	f.langs = append(f.langs, lang)
	return f.results
}

type fakeTranscriber struct {
	tr  speech.Transcript
	err error
}

func (f *fakeTranscriber) Transcribe(context.Context, []byte, string) (speech.Transcript, error) {
	return f.tr, f.err
}

type fakeExtractor struct {
	res   ocr.Result
	calls int
}

func (f *fakeExtractor) Extract(context.Context, ocr.ImageSource) ocr.Result {
	f.calls++
	return f.res
}

var errQuota = errors.New("quota exceeded")
