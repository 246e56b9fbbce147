package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeEngine returns canned pages per page segmentation mode.
type fakeEngine struct {
	mu sync.Mutex

	pages        map[int]Page
	errs         map[int]error
	defaultText  string
	defaultErr   error
	versionErr   error
	panicOn      int
	panicDefault bool

	calls        []int
	defaultCalls int
	defaultImgs  []image.Image
	closed       bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{pages: map[int]Page{}, errs: map[int]error{}, panicOn: -1}
}

func (f *fakeEngine) Version() (string, error) {
	if f.versionErr != nil {
		return "", f.versionErr
	}
	return "5.3.0-fake", nil
}

func (f *fakeEngine) Recognize(_ context.Context, _ image.Image, p Profile) (Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p.PageSegMode)
	if p.PageSegMode == f.panicOn {
		panic("engine exploded")
	}
	if err := f.errs[p.PageSegMode]; err != nil {
		return Page{}, err
	}
	return f.pages[p.PageSegMode], nil
}

func (f *fakeEngine) RecognizeDefault(_ context.Context, img image.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaultCalls++
	f.defaultImgs = append(f.defaultImgs, img)
	if f.panicDefault {
		panic("default pass exploded")
	}
	return f.defaultText, f.defaultErr
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

func (f *fakeEngine) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls) + f.defaultCalls
}

// page builds a Page whose tokens carry the given confidences.
func page(text string, confs ...float64) Page {
	p := Page{Text: text}
	for i, c := range confs {
		p.Tokens = append(p.Tokens, Token{Text: "w", Confidence: c, Box: image.Rect(i, 0, i+1, 1)})
	}
	return p
}

type fakeRemote struct {
	res   Result
	ok    bool
	calls int
}

func (f *fakeRemote) Recognize(context.Context, ImageSource) (Result, bool) {
	f.calls++
	return f.res, f.ok
}

var errEngine = errors.New("engine failure")

// pngBytes encodes a small two-tone image, dark on the left and translucent light on the right.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	b := encodePNG()
	require.NotEmpty(t, b)
	return b
}

func encodePNG() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			if x < 8 {
				img.SetNRGBA(x, y, color.NRGBA{R: 20, G: 20, B: 20, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{R: 230, G: 230, B: 230, A: 128})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
