// Package gemini wraps the Gemini generative API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"medassist/api/internal/logging"
	"medassist/api/internal/util"
)

const (
	DefaultModel = "gemini-1.5-flash"

	maxAttempts = 3
	baseBackoff = 300 * time.Millisecond
)

var (
	ErrNotConfigured = errors.New("GEMINI_API_KEY is empty")
	ErrEmptyResponse = errors.New("gemini: empty response")
)

// Blob is inline binary content, e.g. an audio clip.
type Blob struct {
	MIMEType string
	Data     []byte
}

// Request is a single generateContent call.
type Request struct {
	System          string
	Prompt          string
	Temperature     *float32
	MaxOutputTokens int32
	Blobs           []Blob
}

type callFunc func(ctx context.Context, m *genai.GenerativeModel, parts ...genai.Part) (*genai.GenerateContentResponse, error)

type Client struct {
	APIKey string
	Model  string

	log   *logging.Logger
	call  callFunc
	sleep func(ctx context.Context, d time.Duration) error
}

func New(apiKey, model string, logger *logging.Logger) *Client {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		APIKey: strings.TrimSpace(apiKey),
		Model:  model,
		log:    logging.OrNop(logger).With("component", "gemini"),
		call: func(ctx context.Context, m *genai.GenerativeModel, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
			return m.GenerateContent(ctx, parts...)
		},
		sleep: sleepCtx,
	}
}

func (c *Client) Name() string { return "gemini" }

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c != nil && c.APIKey != "" }

// Generate returns the first text part of the reply with code fences stripped.
// Rate-limit and unavailable errors are retried with exponential backoff.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(c.APIKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(c.Model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{Temperature: req.Temperature}
	if req.MaxOutputTokens > 0 {
		m.GenerationConfig.MaxOutputTokens = &req.MaxOutputTokens
	}
	if s := strings.TrimSpace(req.System); s != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(s)}}
	}

	return c.generate(ctx, m, parts(req)...)
}

func parts(req Request) []genai.Part {
	ps := make([]genai.Part, 0, 1+len(req.Blobs))
	ps = append(ps, genai.Text(req.Prompt))
	for _, b := range req.Blobs {
		ps = append(ps, &genai.Blob{MIMEType: b.MIMEType, Data: b.Data})
	}
	return ps
}

func (c *Client) generate(ctx context.Context, m *genai.GenerativeModel, ps ...genai.Part) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.call(ctx, m, ps...)
		if err != nil {
			lastErr = err
			if !Retryable(err) || attempt == maxAttempts {
				break
			}
			delay := baseBackoff << (attempt - 1)
			c.log.Warn("gemini call failed, retrying", "attempt", attempt, "delay", delay, "err", err)
			if serr := c.sleep(ctx, delay); serr != nil {
				return "", serr
			}
			continue
		}
		txt := firstText(resp)
		if txt == "" {
			return "", ErrEmptyResponse
		}
		return util.StripCodeFences(txt), nil
	}
	return "", lastErr
}

// Retryable reports whether err is a rate-limit or temporary unavailability reply.
func Retryable(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code == http.StatusServiceUnavailable
	}
	return false
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func ptrFloat32(v float32) *float32 { return &v }

// Temperature is a helper for building requests.
func Temperature(v float32) *float32 { return ptrFloat32(v) }
