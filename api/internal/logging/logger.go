package logging

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Logger wraps the charmbracelet logger. Buffer is set only for loggers
// created by NewTestLogger.
type Logger struct {
	*log.Logger
	Buffer *bytes.Buffer
}

// Options controls how New builds the logger.
type Options struct {
	Debug  bool
	JSON   bool
	Prefix string
	Output io.Writer
}

// New creates a logger writing to stderr unless opts.Output is set.
// Debug level (with caller and timestamp) is also enabled when DEBUG=1 or DEBUG=true.
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("DEBUG"))); v == "1" || v == "true" {
		opts.Debug = true
	}

	base := log.NewWithOptions(out, log.Options{
		ReportCaller:    opts.Debug,
		ReportTimestamp: true,
		Prefix:          opts.Prefix,
	})
	if opts.JSON {
		base.SetFormatter(log.JSONFormatter)
	}
	if opts.Debug {
		base.SetLevel(log.DebugLevel)
	} else {
		base.SetLevel(log.InfoLevel)
	}
	return &Logger{Logger: base}
}

// NewTestLogger returns a debug-level logger that writes into an in-memory buffer.
func NewTestLogger() *Logger {
	buf := new(bytes.Buffer)
	base := log.NewWithOptions(buf, log.Options{Level: log.DebugLevel})
	return &Logger{Logger: base, Buffer: buf}
}

// Nop discards everything. Used where a component is built without a logger.
func Nop() *Logger {
	return &Logger{Logger: log.New(io.Discard)}
}

// With returns a child logger carrying keyvals on every record.
// The test buffer, if any, is shared with the parent.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{Logger: l.Logger.With(keyvals...), Buffer: l.Buffer}
}

// GetOutput returns what a test logger has written so far.
func (l *Logger) GetOutput() string {
	if l.Buffer == nil {
		return ""
	}
	return l.Buffer.String()
}

// BaseLogger returns the underlying charmbracelet logger.
func (l *Logger) BaseLogger() *log.Logger {
	return l.Logger
}

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}
