package speech

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	execute "github.com/alexellis/go-execute/v2"
	"github.com/spf13/afero"

	"medassist/api/internal/logging"
)

const (
	SampleRate = 16000
	Channels   = 1
)

// runFunc executes a command and reports stdout, stderr and the exit code.
type runFunc func(ctx context.Context, command string, args []string) (string, string, int, error)

func execRun(ctx context.Context, command string, args []string) (string, string, int, error) {
	task := execute.ExecTask{
		Command:     command,
		Args:        args,
		StreamStdio: false,
	}
	res, err := task.Execute(ctx)
	if err != nil {
		return res.Stdout, res.Stderr, res.ExitCode, err
	}
	if res.ExitCode != 0 {
		return res.Stdout, res.Stderr, res.ExitCode, fmt.Errorf("non-zero exit code: %s", strings.TrimSpace(res.Stderr))
	}
	return res.Stdout, res.Stderr, res.ExitCode, nil
}

// Converter turns any audio container into 16 kHz mono WAV using ffmpeg.
type Converter struct {
	Bin string
	Fs  afero.Fs

	run runFunc
	log *logging.Logger
}

func NewConverter(bin string, logger *logging.Logger) *Converter {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Converter{
		Bin: bin,
		Fs:  afero.NewOsFs(),
		run: execRun,
		log: logging.OrNop(logger).With("component", "converter"),
	}
}

// Convert returns WAV bytes. ok is false when conversion failed and the
// original bytes were returned unchanged.
func (c *Converter) Convert(ctx context.Context, audio []byte, filename string) (out []byte, ok bool) {
	wav, err := c.convert(ctx, audio, filename)
	if err != nil {
		c.log.Warn("audio conversion failed, using original bytes", "file", filename, "err", err)
		return audio, false
	}
	return wav, true
}

func (c *Converter) convert(ctx context.Context, audio []byte, filename string) ([]byte, error) {
	dir, err := afero.TempDir(c.Fs, "", "medassist-audio-")
	if err != nil {
		return nil, err
	}
	defer func() { _ = c.Fs.RemoveAll(dir) }()

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".mp3"
	}
	in := filepath.Join(dir, "input"+ext)
	out := filepath.Join(dir, "output.wav")
	if err := afero.WriteFile(c.Fs, in, audio, 0o600); err != nil {
		return nil, err
	}

	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", in,
		"-ac", fmt.Sprint(Channels),
		"-ar", fmt.Sprint(SampleRate),
		"-f", "wav", out,
	}
	c.log.Debug("executing", "command", c.Bin, "args", args)
	if _, stderr, code, err := c.run(ctx, c.Bin, args); err != nil {
		return nil, fmt.Errorf("%s exit %d: %w (%s)", c.Bin, code, err, strings.TrimSpace(stderr))
	}

	wav, err := afero.ReadFile(c.Fs, out)
	if err != nil {
		return nil, err
	}
	if len(wav) == 0 {
		return nil, fmt.Errorf("%s produced empty output", c.Bin)
	}
	return wav, nil
}
