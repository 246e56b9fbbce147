// Package ocrspace is the hosted OCR.space fallback tier.
package ocrspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"medassist/api/internal/logging"
	"medassist/api/internal/ocr"
)

const (
	DefaultURL     = "https://api.ocr.space/parse/image"
	DefaultTimeout = 30 * time.Second
)

var errNoKey = errors.New("ocr.space api key not configured")

type Client struct {
	apiKey   string
	url      string
	language string
	httpc    *http.Client
	log      *logging.Logger
}

type Option func(*Client)

func WithURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.url = u
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

func WithLanguage(lang string) Option {
	return func(c *Client) {
		if lang != "" {
			c.language = lang
		}
	}
}

func New(apiKey string, logger *logging.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:   strings.TrimSpace(apiKey),
		url:      DefaultURL,
		language: "eng",
		httpc:    &http.Client{Timeout: DefaultTimeout},
		log:      logging.OrNop(logger).With("component", "ocrspace"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type response struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool        `json:"IsErroredOnProcessing"`
	ErrorMessage          interface{} `json:"ErrorMessage,omitempty"`
}

// Recognize makes a single attempt. ok is false for any failure or empty text.
func (c *Client) Recognize(ctx context.Context, src ocr.ImageSource) (ocr.Result, bool) {
	text, err := c.recognize(ctx, src)
	if err != nil {
		c.log.Warn("ocr.space unavailable", "err", err)
		return ocr.Result{}, false
	}
	if text == "" {
		c.log.Warn("ocr.space returned no text")
		return ocr.Result{}, false
	}
	c.log.Info("ocr.space succeeded", "chars", len(text))
	return ocr.Result{
		Text:       text,
		Format:     ocr.FormatPlain,
		Source:     ocr.SourceOCRSpace,
		Confidence: ocr.RemoteAPIConfidence,
	}, true
}

func (c *Client) recognize(ctx context.Context, src ocr.ImageSource) (string, error) {
	if c.apiKey == "" {
		return "", errNoKey
	}
	image, err := src.Bytes()
	if err != nil {
		return "", err
	}

	body, contentType, err := c.form(src.Name(), image)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return "", fmt.Errorf("ocr.space %d: %s", resp.StatusCode, string(x))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ocr.space response: %w", err)
	}
	if len(out.ParsedResults) == 0 {
		return "", nil
	}
	return strings.TrimSpace(out.ParsedResults[0].ParsedText), nil
}

func (c *Client) form(filename string, image []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"apikey", c.apiKey},
		{"language", c.language},
		{"OCREngine", "2"},
		{"detectOrientation", "true"},
		{"scale", "true"},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", mimetype.Detect(image).String())
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
