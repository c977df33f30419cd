package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	maxLineBytes = 1 << 20
	lineBuffer   = 256
)

var (
	// stdinGrace is how long Close waits for a watch process to exit after
	// its stdin is closed.
	stdinGrace = time.Second
	// terminateGrace is how long Close waits after the polite signal.
	terminateGrace = 3 * time.Second
	// reapTimeout bounds the wait after the forced kill.
	reapTimeout = 5 * time.Second
)

// Handle owns one launched process. Close is idempotent and safe to call from
// any goroutine; it terminates the whole process tree and returns once the
// process is reaped and all buffered output has reached the sink.
type Handle struct {
	cmd  *exec.Cmd
	name string
	done chan struct{}
	// stdin stays open for watch processes; the Tailwind v4 CLI stops
	// watching when its stdin reaches EOF.
	stdin io.WriteCloser

	exitCode int
	waitErr  error

	closed   atomic.Bool
	closeMu  sync.Mutex
	closeErr error
}

func launch(ctx context.Context, binary string, args []string, opts RunOptions, holdStdin bool) (*Handle, error) {
	name := filepath.Base(binary)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProcessLaunchFailed, name, err)
	}

	cmd := exec.Command(binary, args...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(cmd.Environ(), opts.Env...)
	}
	configureProcessTree(cmd)

	var stdin io.WriteCloser
	if holdStdin {
		var err error
		stdin, err = cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: stdin pipe: %w", ErrProcessLaunchFailed, name, err)
		}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: stdout pipe: %w", ErrProcessLaunchFailed, name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: stderr pipe: %w", ErrProcessLaunchFailed, name, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProcessLaunchFailed, name, err)
	}

	h := &Handle{cmd: cmd, name: name, done: make(chan struct{}), stdin: stdin, exitCode: -1}
	go h.pump(stdout, stderr, opts.Sink)

	// A cancellation that raced the start must not leave the process behind.
	if err := ctx.Err(); err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrProcessLaunchFailed, name, err)
	}
	return h, nil
}

// pump fans both pipes into one channel drained by a single dispatcher, then
// reaps the process. Wait is only called after both pipes hit EOF.
func (h *Handle) pump(stdout, stderr io.Reader, sink Sink) {
	lines := make(chan Line, lineBuffer)

	var readers sync.WaitGroup
	readers.Add(2)
	go scanLines(stdout, Stdout, lines, &readers)
	go scanLines(stderr, Stderr, lines, &readers)

	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for line := range lines {
			if sink != nil {
				sink(line)
			}
		}
	}()

	readers.Wait()
	close(lines)
	<-dispatched

	err := h.cmd.Wait()
	if h.cmd.ProcessState != nil {
		h.exitCode = h.cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		h.waitErr = err
	}
	close(h.done)
}

func scanLines(r io.Reader, stream Stream, out chan<- Line, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		out <- Line{Stream: stream, Text: strings.TrimRight(scanner.Text(), "\r")}
	}
	if err := scanner.Err(); err != nil {
		out <- Line{Stream: stream, Text: fmt.Sprintf("[tailbreeze] %s output dropped: %v", stream, err)}
	}
	// Drain anything past an over-long line so the child never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, r)
}

// Pid returns the operating system process id.
func (h *Handle) Pid() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Done is closed once the process has exited and its output is delivered.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Exited reports whether the process has terminated.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// ExitCode is -1 until the process exits, and for signal terminations.
func (h *Handle) ExitCode() int {
	select {
	case <-h.done:
		return h.exitCode
	default:
		return -1
	}
}

// Wait blocks until the process exits or ctx is done.
func (h *Handle) Wait(ctx context.Context) (int, error) {
	select {
	case <-h.done:
		return h.exitCode, h.waitErr
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// Close terminates the process tree if it is still running, closing stdin
// first so a watch process can stop on its own. Repeated and
// concurrent calls block until the first one has finished, then return nil.
func (h *Handle) Close() error {
	h.closeMu.Lock()
	defer h.closeMu.Unlock()
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}

	if h.Exited() {
		return nil
	}

	if h.stdin != nil {
		_ = h.stdin.Close()
		select {
		case <-h.done:
			return nil
		case <-time.After(stdinGrace):
		}
	}

	pid := h.Pid()
	if err := terminateTree(pid); err != nil && !h.Exited() {
		h.closeErr = fmt.Errorf("terminate %s (pid %d): %w", h.name, pid, err)
	}

	select {
	case <-h.done:
		return nil
	case <-time.After(terminateGrace):
	}

	if err := killTree(pid); err != nil && !h.Exited() {
		h.closeErr = fmt.Errorf("kill %s (pid %d): %w", h.name, pid, err)
	}

	select {
	case <-h.done:
		return nil
	case <-time.After(reapTimeout):
		if h.closeErr != nil {
			return h.closeErr
		}
		return fmt.Errorf("%s (pid %d) did not exit after kill", h.name, pid)
	}
}
