package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// PromptLoader reads prompt overrides from <dir>/<name>.<kind>.txt.
// A missing directory or file falls back to the built-in text.
type PromptLoader struct {
	Fs  afero.Fs
	Dir string
}

// NewPromptLoader uses PROMPT_DIR when dir is empty.
func NewPromptLoader(fs afero.Fs, dir string) *PromptLoader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		dir = os.Getenv("PROMPT_DIR")
	}
	return &PromptLoader{Fs: fs, Dir: dir}
}

func (l *PromptLoader) path(name, kind string) string {
	return filepath.Join(l.Dir, fmt.Sprintf("%s.%s.txt", name, kind))
}

// Load returns the override for name/kind, or fallback.
func (l *PromptLoader) Load(name, kind, fallback string) string {
	if l == nil || l.Dir == "" {
		return fallback
	}
	b, err := afero.ReadFile(l.Fs, l.path(name, kind))
	if err != nil || len(b) == 0 {
		return fallback
	}
	if s := strings.TrimSpace(string(b)); s != "" {
		return s
	}
	return fallback
}
