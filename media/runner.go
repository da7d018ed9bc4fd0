// Package media wraps external transcoding tools behind a small capability
// interface so the compositing and merging logic never depends on a specific
// binary and can be tested without one.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Command describes one bounded external tool invocation.
type Command struct {
	Name    string
	Args    []string
	Timeout time.Duration
}

// Runner executes external tool commands. Every call is blocking and bounded
// by the command's timeout; there is no mid-operation cancellation beyond it.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
	Output(ctx context.Context, cmd Command) (string, error)
}

// ErrTimeout marks an external call that ran past its deadline.
var ErrTimeout = errors.New("external command timed out")

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, cmd Command) error {
	_, err := run(ctx, cmd, false)
	return err
}

func (ExecRunner) Output(ctx context.Context, cmd Command) (string, error) {
	return run(ctx, cmd, true)
}

func run(ctx context.Context, cmd Command, capture bool) (string, error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)

	var stdout, stderr bytes.Buffer
	if capture {
		c.Stdout = &stdout
	}
	c.Stderr = &stderr

	err := c.Run()
	if err == nil {
		return stdout.String(), nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("%s: %w after %s", cmd.Name, ErrTimeout, cmd.Timeout)
	}
	return "", fmt.Errorf("%s: %w%s", cmd.Name, err, stderrTail(stderr.String()))
}

// stderrTail keeps the last few hundred bytes of tool output for diagnostics,
// the way the original pipeline surfaced ffmpeg failures.
func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	const max = 300
	if len(s) > max {
		s = s[len(s)-max:]
	}
	return ": " + s
}

// Duration returns a media file's duration in seconds via ffprobe. A file
// ffprobe cannot measure yields 0 and an error; callers fall back to defaults.
func Duration(ctx context.Context, r Runner, path string) (float64, error) {
	out, err := r.Output(ctx, Command{
		Name: "ffprobe",
		Args: []string{
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			path,
		},
		Timeout: 30 * time.Second,
	})
	if err != nil {
		return 0, err
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration for %s: %w", path, err)
	}
	return dur, nil
}
