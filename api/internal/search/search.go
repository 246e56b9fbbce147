// Package search finds supporting medical sources through Google
// Programmable Search.
package search

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"medassist/api/internal/i18n"
	"medassist/api/internal/logging"
	"medassist/api/internal/util"
)

const (
	DefaultNum = 5

	querySuffix = "medical health symptoms treatment causes prevention"
	snippetMax  = 400
	titleMax    = 150
)

var errNotConfigured = errors.New("search: GOOGLE_API_KEY or PROGRAMMABLE_SEARCH_ENGINE_ID is empty")

// Source is one search hit.
type Source struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type Client struct {
	apiKey   string
	engineID string
	num      int64
	opts     []option.ClientOption
	log      *logging.Logger
}

// New builds a client. Extra options are passed to the customsearch service
// (tests point it at a local endpoint).
func New(apiKey, engineID string, num int, logger *logging.Logger, opts ...option.ClientOption) *Client {
	if num <= 0 {
		num = DefaultNum
	}
	return &Client{
		apiKey:   strings.TrimSpace(apiKey),
		engineID: strings.TrimSpace(engineID),
		num:      int64(num),
		opts:     opts,
		log:      logging.OrNop(logger).With("component", "search"),
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != "" && c.engineID != ""
}

// Query builds the medical search string for lang.
func Query(query, lang string) string {
	q := strings.TrimSpace(query) + " " + querySuffix
	if code := i18n.Normalize(lang); code != i18n.Default {
		q += " " + i18n.Name(code)
	}
	return q
}

// Search returns up to num sources, deduplicated by URL. Failures are logged
// and yield an empty list.
func (c *Client) Search(ctx context.Context, query, lang string) []Source {
	out, err := c.search(ctx, query, lang)
	if err != nil {
		c.log.Warn("search failed", "err", err)
		return []Source{}
	}
	c.log.Info("medical sources found", "count", len(out))
	return out
}

func (c *Client) search(ctx context.Context, query, lang string) ([]Source, error) {
	if !c.Configured() {
		return nil, errNotConfigured
	}
	opts := append([]option.ClientOption{option.WithAPIKey(c.apiKey)}, c.opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	res, err := svc.Cse.List().Q(Query(query, lang)).Cx(c.engineID).Num(c.num).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	out := make([]Source, 0, len(res.Items))
	seen := make(map[string]bool, len(res.Items))
	for _, it := range res.Items {
		if it == nil || it.Link == "" || seen[it.Link] {
			continue
		}
		seen[it.Link] = true
		out = append(out, Source{
			URL:     it.Link,
			Title:   util.Truncate(it.Title, titleMax),
			Snippet: util.Truncate(it.Snippet, snippetMax),
		})
	}
	return out, nil
}

// URLs lists the source links in order.
func URLs(sources []Source) []string {
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		out = append(out, s.URL)
	}
	return out
}
