package ocr

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
)

// ImageSource is either a FilePath or a ByteStream. The set is closed.
type ImageSource interface {
	// Bytes returns the encoded image. A FilePath that does not exist yields ErrNotFound.
	Bytes() ([]byte, error)
	// Name is a display name used in logs and multipart uploads.
	Name() string

	isImageSource()
}

// FilePath is an image on a filesystem.
type FilePath struct {
	Fs   afero.Fs
	Path string
}

// NewFilePath builds a FilePath on fs, or on the OS filesystem when fs is nil.
func NewFilePath(fs afero.Fs, path string) FilePath {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return FilePath{Fs: fs, Path: path}
}

func (p FilePath) fs() afero.Fs {
	if p.Fs == nil {
		return afero.NewOsFs()
	}
	return p.Fs
}

// Exists reports whether the path is present on the filesystem.
func (p FilePath) Exists() bool {
	ok, err := afero.Exists(p.fs(), p.Path)
	return err == nil && ok
}

// Size returns the file size in bytes, or -1 when it cannot be stat'ed.
func (p FilePath) Size() int64 {
	fi, err := p.fs().Stat(p.Path)
	if err != nil {
		return -1
	}
	return fi.Size()
}

func (p FilePath) Bytes() ([]byte, error) {
	if !p.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p.Path)
	}
	return afero.ReadFile(p.fs(), p.Path)
}

func (p FilePath) Name() string { return filepath.Base(p.Path) }

func (FilePath) isImageSource() {}

// ByteStream is an image held in memory, e.g. an uploaded file.
type ByteStream struct {
	Data     []byte
	Filename string
}

// NewByteStream reads r in full. Seekable readers are rewound to offset 0 first.
func NewByteStream(r io.Reader, filename string) (ByteStream, error) {
	if s, ok := r.(io.Seeker); ok {
		if _, err := s.Seek(0, io.SeekStart); err != nil {
			return ByteStream{}, fmt.Errorf("rewind image stream: %w", err)
		}
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return ByteStream{}, fmt.Errorf("read image stream: %w", err)
	}
	return ByteStream{Data: b, Filename: filename}, nil
}

func (s ByteStream) Bytes() ([]byte, error) { return s.Data, nil }

// Reader returns a fresh reader positioned at offset 0.
func (s ByteStream) Reader() io.Reader { return bytes.NewReader(s.Data) }

func (s ByteStream) Name() string {
	if s.Filename == "" {
		return "image.jpg"
	}
	return s.Filename
}

func (ByteStream) isImageSource() {}
