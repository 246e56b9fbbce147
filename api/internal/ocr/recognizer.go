package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"medassist/api/internal/logging"
)

// Recognizer runs the local multi-profile scan over a single engine.
type Recognizer struct {
	engine   Engine
	profiles []Profile
	log      *logging.Logger
}

// NewRecognizer wires engine into a Recognizer and logs the engine version.
// A failing version probe is logged and otherwise ignored.
func NewRecognizer(engine Engine, logger *logging.Logger) *Recognizer {
	logger = logging.OrNop(logger).With("component", "recognizer")
	if v, err := engine.Version(); err != nil {
		logger.Warn("ocr engine version probe failed", "err", err)
	} else {
		logger.Info("ocr engine ready", "version", v)
	}
	return &Recognizer{engine: engine, profiles: Profiles(), log: logger}
}

// Close releases the engine if it holds resources.
func (r *Recognizer) Close() error {
	if c, ok := r.engine.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Recognize never fails: errors are folded into a Result with Source error.
func (r *Recognizer) Recognize(ctx context.Context, src ImageSource) Result {
	res, err := r.recognize(ctx, src)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFoundResult()
		}
		r.log.Error("local ocr failed", "src", src.Name(), "err", err)
		return errorResult(err)
	}
	return res
}

func (r *Recognizer) recognize(ctx context.Context, src ImageSource) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	data, err := src.Bytes()
	if err != nil {
		return Result{}, err
	}
	original, format, err := Decode(data)
	if err != nil {
		return Result{}, err
	}
	b := original.Bounds()
	r.log.Debug("image decoded", "format", format, "width", b.Dx(), "height", b.Dy())

	processed := Preprocess(ToRGB(original))

	bestText, bestConf := r.scan(ctx, processed)

	if bestText == "" || bestConf < recognizerFloor {
		r.log.Debug("scored scan below floor, running default pass", "confidence", bestConf)
		text, derr := r.recognizeDefault(ctx, original)
		if derr != nil {
			r.log.Warn("default pass failed", "err", derr)
		} else if text = strings.TrimSpace(text); text != "" {
			return newResult(text, SourceTesseractBasic, BasicPassConfidence), nil
		}
	}

	if bestText == "" {
		return newResult("", SourceFailed, 0), nil
	}
	r.log.Info("local ocr done", "chars", len(bestText), "confidence", fmt.Sprintf("%.1f", bestConf))
	return newResult(bestText, SourceTesseract, bestConf), nil
}

// scan tries every profile in order and keeps the strictly best mean confidence.
func (r *Recognizer) scan(ctx context.Context, img image.Image) (string, float64) {
	var (
		bestText string
		bestConf float64
	)
	for _, p := range r.profiles {
		page, err := r.recognizeProfile(ctx, img, p)
		if err != nil {
			r.log.Warn("profile failed", "profile", p.Name, "err", err)
			continue
		}
		mean, ok := page.MeanConfidence()
		if !ok {
			r.log.Debug("profile produced no confident tokens", "profile", p.Name)
			continue
		}
		text := strings.TrimSpace(page.Text)
		r.log.Debug("profile result", "profile", p.Name, "chars", len(text), "confidence", fmt.Sprintf("%.1f", mean))
		if mean > bestConf && text != "" {
			bestText, bestConf = text, mean
		}
	}
	return bestText, bestConf
}

// recognizeProfile runs one profile; an engine panic becomes that profile's error.
func (r *Recognizer) recognizeProfile(ctx context.Context, img image.Image, p Profile) (page Page, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return r.engine.Recognize(ctx, img, p)
}

func (r *Recognizer) recognizeDefault(ctx context.Context, img image.Image) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return r.engine.RecognizeDefault(ctx, img)
}
