package process

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProcessLaunchFailed reports a binary that could not be started.
	ErrProcessLaunchFailed = errors.New("process launch failed")
	// ErrProcessExitedNonZero matches *ExitError for one-shot runs.
	ErrProcessExitedNonZero = errors.New("process exited with non-zero status")
)

// Stream identifies which pipe a line came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// Line is one line of tool output without its trailing newline.
type Line struct {
	Stream Stream
	Text   string
}

// Sink receives output lines as they are produced. Calls never overlap and
// lines of one stream arrive in order; the two streams may interleave.
type Sink func(Line)

// RunOptions configures a subprocess.
type RunOptions struct {
	Dir  string
	Env  []string
	Sink Sink
}

// ExitError carries the exit status and stderr of a failed one-shot run.
type ExitError struct {
	Binary string
	Code   int
	Stderr []string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Binary, e.Code)
	if len(e.Stderr) > 0 {
		msg += ": " + strings.Join(e.Stderr, "; ")
	}
	return msg
}

func (e *ExitError) Is(target error) bool {
	return target == ErrProcessExitedNonZero
}

// Watch is a running background process owned by its caller.
type Watch interface {
	Close() error
	Done() <-chan struct{}
}

// Runner abstracts subprocess execution so callers can substitute fakes.
type Runner interface {
	Run(ctx context.Context, binary string, args []string, opts RunOptions) (int, error)
	StartWatch(ctx context.Context, binary string, args []string, opts RunOptions) (Watch, error)
}

// ExecRunner runs real processes.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, binary string, args []string, opts RunOptions) (int, error) {
	return Run(ctx, binary, args, opts)
}

func (ExecRunner) StartWatch(ctx context.Context, binary string, args []string, opts RunOptions) (Watch, error) {
	h, err := StartWatch(ctx, binary, args, opts)
	if err != nil {
		return nil, err
	}
	return h, nil
}

var _ Runner = ExecRunner{}

// Run executes binary to completion, streaming output to opts.Sink, and
// returns its exit code. A non-zero exit is not an error here. Cancelling ctx
// kills the process tree and returns ctx.Err().
func Run(ctx context.Context, binary string, args []string, opts RunOptions) (int, error) {
	h, err := launch(ctx, binary, args, opts, false)
	if err != nil {
		return -1, err
	}

	select {
	case <-h.done:
		return h.ExitCode(), nil
	case <-ctx.Done():
		_ = h.Close()
		return -1, fmt.Errorf("run %s: %w", h.name, ctx.Err())
	}
}

// StartWatch launches binary without waiting for it. ctx only governs the
// launch itself; once a Handle is returned, Close is the only way to stop it.
// The child's stdin is held open until Close.
func StartWatch(ctx context.Context, binary string, args []string, opts RunOptions) (*Handle, error) {
	return launch(ctx, binary, args, opts, true)
}

// Collect returns a Sink that appends every line to dst and forwards it to next.
// dst must not be read until the run completes.
func Collect(dst *[]Line, next Sink) Sink {
	return func(l Line) {
		*dst = append(*dst, l)
		if next != nil {
			next(l)
		}
	}
}

// StderrText extracts the stderr lines from a collected run.
func StderrText(lines []Line) []string {
	var out []string
	for _, l := range lines {
		if l.Stream == Stderr && strings.TrimSpace(l.Text) != "" {
			out = append(out, l.Text)
		}
	}
	return out
}
