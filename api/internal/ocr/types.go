package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// Source tags where a Result came from.
type Source string

const (
	SourceTesseract      Source = "tesseract"       // scored multi-profile scan
	SourceTesseractBasic Source = "tesseract_basic" // unscored default-settings pass
	SourceOCRSpace       Source = "ocr_space"       // remote hosted API
	SourceFailed         Source = "failed"
	SourceError          Source = "error"
)

const FormatPlain = "plain"

const (
	// MsgNotFound is the text of the result for a path that does not exist.
	MsgNotFound = "Image file not found"
	// MsgUnableToExtract is the terminal failure text once every tier is exhausted.
	MsgUnableToExtract = "Unable to extract text from image. Please ensure clear, readable text."

	errorPrefix = "OCR Error: "
)

// Confidence values assigned to tiers that do not report their own.
const (
	BasicPassConfidence  = 50.0
	RemoteAPIConfidence  = 80.0
	recognizerFloor      = 30.0 // below this the recognizer runs its default pass
	acceptLocalThreshold = 20.0 // the extractor accepts local results strictly above this
)

var (
	ErrNotFound = errors.New("image file not found")
	ErrDecode   = errors.New("decode image")
)

// Result is the outcome of one extraction. It is a value; nothing mutates it
// after construction.
type Result struct {
	Text       string  `json:"text"`
	Format     string  `json:"format"`
	Source     Source  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// Failed reports whether the result carries no usable text.
func (r Result) Failed() bool {
	return r.Text == "" || r.Source == SourceFailed || r.Source == SourceError
}

func newResult(text string, src Source, confidence float64) Result {
	return Result{Text: text, Format: FormatPlain, Source: src, Confidence: confidence}
}

func notFoundResult() Result { return newResult(MsgNotFound, SourceError, 0) }

func errorResult(err error) Result {
	return newResult(errorPrefix+err.Error(), SourceError, 0)
}

// TerminalFailure is returned when neither the local engine nor the remote API produced text.
func TerminalFailure() Result { return newResult(MsgUnableToExtract, SourceFailed, 0) }

// Profile is a fixed engine configuration: OCR engine mode plus page segmentation mode.
type Profile struct {
	Name        string
	EngineMode  int
	PageSegMode int
}

// String renders the profile the way the tesseract CLI takes it.
func (p Profile) String() string {
	return fmt.Sprintf("--oem %d --psm %d", p.EngineMode, p.PageSegMode)
}

// Page segmentation modes used by the scan.
const (
	PSMSingleBlock  = 6
	PSMSingleColumn = 4
	PSMSingleWord   = 8
	PSMSparseText   = 11

	OEMDefault = 3
)

var profiles = [...]Profile{
	{Name: "uniform-block", EngineMode: OEMDefault, PageSegMode: PSMSingleBlock},
	{Name: "single-column", EngineMode: OEMDefault, PageSegMode: PSMSingleColumn},
	{Name: "single-word", EngineMode: OEMDefault, PageSegMode: PSMSingleWord},
	{Name: "sparse-text", EngineMode: OEMDefault, PageSegMode: PSMSparseText},
}

// Profiles returns the ordered profile list the recognizer scans.
func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles[:])
	return out
}

// Token is one recognized word with the engine's confidence (0–100, negative for none).
type Token struct {
	Text       string
	Confidence float64
	Box        image.Rectangle
}

// Page is the output of a single scored engine pass.
type Page struct {
	Text   string
	Tokens []Token
}

// MeanConfidence averages the strictly positive token confidences.
// ok is false when no token has a positive confidence.
func (p Page) MeanConfidence() (mean float64, ok bool) {
	var sum float64
	n := 0
	for _, t := range p.Tokens {
		if t.Confidence > 0 {
			sum += t.Confidence
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Engine is a local text-recognition engine.
type Engine interface {
	Version() (string, error)
	// Recognize runs one scored pass under profile p.
	Recognize(ctx context.Context, img image.Image, p Profile) (Page, error)
	// RecognizeDefault runs an unscored pass with the engine's default settings.
	RecognizeDefault(ctx context.Context, img image.Image) (string, error)
}

// Fallback is the remote recognition tier. ok=false means "no result";
// callers do not retry.
type Fallback interface {
	Recognize(ctx context.Context, src ImageSource) (res Result, ok bool)
}
