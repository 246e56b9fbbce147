// Package tesseract adapts gosseract to the ocr.Engine interface.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"medassist/api/internal/ocr"
)

// Engine runs Tesseract through gosseract. Clients are not goroutine-safe,
// so every pass gets its own.
type Engine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// New returns an engine for the given languages ("eng" when empty).
func New(languages ...string) *Engine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Engine{languages: languages, clientFactory: gosseract.NewClient}
}

func (e *Engine) Version() (string, error) {
	v := strings.TrimSpace(gosseract.Version())
	if v == "" {
		return "", fmt.Errorf("tesseract: empty version")
	}
	return v, nil
}

// Recognize runs one pass with p's page segmentation mode and collects word confidences.
func (e *Engine) Recognize(ctx context.Context, img image.Image, p ocr.Profile) (ocr.Page, error) {
	if p.EngineMode != ocr.OEMDefault {
		// gosseract fixes the engine mode at init time.
		return ocr.Page{}, fmt.Errorf("tesseract: unsupported engine mode %d", p.EngineMode)
	}
	c, err := e.client(ctx, img)
	if err != nil {
		return ocr.Page{}, err
	}
	defer c.Close()

	if err := c.SetPageSegMode(gosseract.PageSegMode(p.PageSegMode)); err != nil {
		return ocr.Page{}, fmt.Errorf("set page seg mode %d: %w", p.PageSegMode, err)
	}
	text, err := c.Text()
	if err != nil {
		return ocr.Page{}, fmt.Errorf("recognize text: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return ocr.Page{}, fmt.Errorf("word boxes: %w", err)
	}
	page := ocr.Page{Text: text, Tokens: make([]ocr.Token, 0, len(boxes))}
	for _, b := range boxes {
		page.Tokens = append(page.Tokens, ocr.Token{Text: b.Word, Confidence: b.Confidence, Box: b.Box})
	}
	return page, nil
}

// RecognizeDefault runs a pass with Tesseract's own defaults.
func (e *Engine) RecognizeDefault(ctx context.Context, img image.Image) (string, error) {
	c, err := e.client(ctx, img)
	if err != nil {
		return "", err
	}
	defer c.Close()

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}

func (e *Engine) client(ctx context.Context, img image.Image) (*gosseract.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	c := e.clientFactory()
	if err := c.SetLanguage(e.languages...); err != nil {
		c.Close()
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		c.Close()
		return nil, fmt.Errorf("set image: %w", err)
	}
	return c, nil
}

// Close is a no-op; clients are released after every pass.
func (e *Engine) Close() error { return nil }
