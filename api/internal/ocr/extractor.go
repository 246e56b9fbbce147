package ocr

import (
	"context"

	"github.com/dustin/go-humanize"

	"medassist/api/internal/logging"
)

// Extractor is the top-level entry: local recognizer first, remote API second.
type Extractor struct {
	local  *Recognizer
	remote Fallback
	log    *logging.Logger
}

// NewExtractor builds an Extractor. remote may be nil, in which case the
// remote tier is treated as unavailable.
func NewExtractor(local *Recognizer, remote Fallback, logger *logging.Logger) *Extractor {
	return &Extractor{
		local:  local,
		remote: remote,
		log:    logging.OrNop(logger).With("component", "extractor"),
	}
}

// Extract returns the first acceptable tier result, or TerminalFailure.
// It never panics and never returns an error.
func (e *Extractor) Extract(ctx context.Context, src ImageSource) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			e.log.Error("extract panicked", "panic", p)
			res = TerminalFailure()
		}
	}()

	switch s := src.(type) {
	case FilePath:
		if !s.Exists() {
			e.log.Warn("image file not found", "path", s.Path)
			return notFoundResult()
		}
		e.log.Info("starting ocr", "path", s.Path, "size", sizeLabel(s.Size()))
	case ByteStream:
		e.log.Info("starting ocr", "name", s.Name(), "size", sizeLabel(int64(len(s.Data))))
	}

	local := e.local.Recognize(ctx, src)
	if local.Text != "" && local.Source != SourceError && local.Confidence > acceptLocalThreshold {
		e.log.Info("local ocr accepted", "source", local.Source, "confidence", local.Confidence)
		return local
	}

	e.log.Warn("local ocr failed or low confidence, trying remote", "source", local.Source, "confidence", local.Confidence)
	if e.remote != nil {
		if r, ok := e.remote.Recognize(ctx, src); ok && r.Text != "" {
			e.log.Info("remote ocr accepted", "chars", len(r.Text))
			return r
		}
	}

	e.log.Error("all ocr tiers failed")
	return TerminalFailure()
}

// sizeLabel renders n bytes for logs; a negative size means the file could not be stat'ed.
func sizeLabel(n int64) string {
	if n < 0 {
		return "unknown"
	}
	return humanize.Bytes(uint64(n))
}
