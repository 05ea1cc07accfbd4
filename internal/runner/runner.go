// Package runner spawns external processes for the toolchain manager and the
// execution engine.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// DefaultWaitDelay is how long a child gets to exit after being interrupted
// before it is killed.
const DefaultWaitDelay = 10 * time.Second

// DefaultTailSize bounds how much of a streamed output is kept in Result.
const DefaultTailSize = 64 << 10

type Options struct {
	Dir string
	// Env is the complete child environment as KEY=VALUE pairs. Nothing from
	// the calling process is added. A nil Env yields an empty environment.
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Result holds the captured output. A stream with a writer in Options is
// only kept up to the runner's tail size; other streams are kept whole.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

type Runner interface {
	Run(ctx context.Context, command string, args []string, opts Options) (Result, error)
}

// ErrAborted marks a child killed through CmdRunner.Abort.
var ErrAborted = errors.New("aborted")

// ExitError reports a process that ran and exited with a non-zero status.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
}

// ExitCode returns the status carried by an *ExitError in err's chain, or 0.
func ExitCode(err error) int {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 0
}

type CmdRunner struct {
	// WaitDelay overrides DefaultWaitDelay when positive.
	WaitDelay time.Duration
	// TailSize overrides DefaultTailSize when positive.
	TailSize int
	// Abort kills the running child immediately once closed, without the
	// interrupt and grace period used for context cancellation.
	Abort <-chan struct{}
}

func (r CmdRunner) Run(ctx context.Context, command string, args []string, opts Options) (Result, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = opts.Dir
	cmd.Env = append([]string{}, opts.Env...)

	// Forward cancellation as an interrupt so the child can shut down its own
	// subprocesses; WaitDelay escalates to a kill.
	cmd.Cancel = func() error {
		if runtime.GOOS == "windows" {
			return cmd.Process.Kill()
		}
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = DefaultWaitDelay
	if r.WaitDelay > 0 {
		cmd.WaitDelay = r.WaitDelay
	}

	tail := DefaultTailSize
	if r.TailSize > 0 {
		tail = r.TailSize
	}
	stdoutBuf := capture(opts.Stdout, tail)
	stderrBuf := capture(opts.Stderr, tail)
	cmd.Stdout = stdoutBuf
	cmd.Stderr = stderrBuf

	aborted := false
	err := cmd.Start()
	if err == nil {
		stop := r.watchAbort(cmd)
		err = cmd.Wait()
		aborted = stop()
	}
	res := Result{Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s interrupted: %w", command, ctxErr)
	}
	if aborted {
		return res, fmt.Errorf("%s: %w", command, ErrAborted)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		res.ExitCode = exitErr.ExitCode()
		return res, &ExitError{Command: command, Code: res.ExitCode}
	}
	return res, err
}

// watchAbort kills cmd when r.Abort closes. The returned func stops watching
// and reports whether the kill happened.
func (r CmdRunner) watchAbort(cmd *exec.Cmd) func() bool {
	if r.Abort == nil {
		return func() bool { return false }
	}
	done := make(chan struct{})
	killed := make(chan bool, 1)
	go func() {
		select {
		case <-r.Abort:
			killed <- cmd.Process.Kill() == nil
		case <-done:
			killed <- false
		}
	}()
	return func() bool {
		close(done)
		return <-killed
	}
}

type captureWriter interface {
	io.Writer
	Bytes() []byte
}

// capture keeps everything when nothing is streamed, otherwise the last tail
// bytes alongside the stream.
func capture(stream io.Writer, tail int) captureWriter {
	if stream == nil {
		return &bytes.Buffer{}
	}
	return &teeTail{stream: stream, tail: tailBuffer{max: tail}}
}

type teeTail struct {
	stream io.Writer
	tail   tailBuffer
}

func (t *teeTail) Write(p []byte) (int, error) {
	t.tail.Write(p)
	return t.stream.Write(p)
}

func (t *teeTail) Bytes() []byte {
	return t.tail.Bytes()
}

// tailBuffer retains the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n >= t.max {
		t.buf = append(t.buf[:0], p[n-t.max:]...)
		return n, nil
	}
	if over := len(t.buf) + n - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	t.buf = append(t.buf, p...)
	return n, nil
}

func (t *tailBuffer) Bytes() []byte {
	return t.buf
}

var _ Runner = CmdRunner{}
