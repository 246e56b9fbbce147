// Package handle holds the HTTP handlers of the medical assistant API.
package handle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"medassist/api/internal/assistant"
	"medassist/api/internal/logging"
	"medassist/api/internal/ocr"
	"medassist/api/internal/speech"
)

const (
	Version = "2.0.0"

	// TimeoutHeader lets a client shorten (never extend) the request deadline, in seconds.
	TimeoutHeader = "X-Request-Timeout"

	maxUpload = 32 << 20
)

type Extractor interface {
	Extract(ctx context.Context, src ocr.ImageSource) ocr.Result
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (speech.Transcript, error)
}

type Chatbot interface {
	Respond(ctx context.Context, message, lang string) assistant.ChatReply
}

type Summarizer interface {
	Summarize(ctx context.Context, text, lang string) string
}

type Workflow interface {
	Run(ctx context.Context, in assistant.Input) assistant.Bundle
}

// Deps are the services the handlers delegate to.
type Deps struct {
	Extractor   Extractor
	Transcriber Transcriber
	Chatbot     Chatbot
	Summarizer  Summarizer
	Workflow    Workflow
}

type Handle struct {
	deps    Deps
	timeout time.Duration
	log     *logging.Logger
}

func New(deps Deps, timeout time.Duration, logger *logging.Logger) *Handle {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &Handle{deps: deps, timeout: timeout, log: logging.OrNop(logger).With("component", "http")}
}

// Register mounts every route on r.
func (h *Handle) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/healthz", h.Healthz)

	r.POST("/full-workflow", h.FullWorkflow)
	r.POST("/chatbot", h.Chatbot)
	r.POST("/transcribe", h.Transcribe)
	r.POST("/extract-text", h.ExtractText)
	r.POST("/summarize", h.Summarize)
}

// deadline derives the handler context from the request, honouring TimeoutHeader.
func (h *Handle) deadline(c *gin.Context) (context.Context, context.CancelFunc) {
	d := h.timeout
	if v := strings.TrimSpace(c.GetHeader(TimeoutHeader)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && time.Duration(n)*time.Second < d {
			d = time.Duration(n) * time.Second
		}
	}
	return context.WithTimeout(c.Request.Context(), d)
}

func writeJSON(c *gin.Context, code int, v any) {
	c.JSON(code, v)
}

// writeError reports failures in the {"detail": "..."} shape.
func writeError(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"detail": msg})
}

func requestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// readUpload reads a multipart file part. ok is false when the part is absent
// or has no filename.
func readUpload(c *gin.Context, field string) (data []byte, name string, ok bool, err error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", false, nil
		}
		return nil, "", false, err
	}
	if fh.Filename == "" {
		return nil, "", false, nil
	}
	return readFileHeader(fh)
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, string, bool, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, "", false, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	b, err := io.ReadAll(io.LimitReader(f, maxUpload+1))
	if err != nil {
		return nil, "", false, fmt.Errorf("read upload: %w", err)
	}
	if len(b) > maxUpload {
		return nil, "", false, fmt.Errorf("upload %q exceeds %d bytes", fh.Filename, maxUpload)
	}
	return b, fh.Filename, true, nil
}
