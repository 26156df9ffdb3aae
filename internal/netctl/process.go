// Package netctl implements minimal, concrete realizations of the external
// binary collaborators the host-control tasks and clone coordinator drive:
// ping, ssh, ether-wake, ip route get, udp-sender, udp-receiver.
package netctl

import (
	"bufio"
	"context"
	"io"
	"os/exec"

	"github.com/dazzlefleet/dazzle/internal/task"
)

// StreamingCmd runs an external command and exposes its stderr as a
// bounded channel of lines, for callers that need to watch a long-running
// process's progress output as it runs rather than waiting for exit.
type StreamingCmd struct {
	cmd    *exec.Cmd
	stdout *captureWriter
	lines  <-chan string
}

// Lines returns the channel of stderr lines, closed once the process's
// stderr is exhausted.
func (s *StreamingCmd) Lines() <-chan string { return s.lines }

// Start launches name with args, capturing stdout in full and streaming
// stderr line-by-line over Lines. The channel is closed once stderr is
// exhausted; callers must still call Wait.
func Start(ctx context.Context, name string, args ...string) (*StreamingCmd, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	out := &captureWriter{}
	cmd.Stdout = out

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stderrPipe)
		scanner.Buffer(make([]byte, 0, 4096), 1<<20)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	return &StreamingCmd{cmd: cmd, stdout: out, lines: lines}, nil
}

// Wait blocks until the process exits, draining Lines() first. On a
// non-zero exit it returns a *task.RemoteError carrying captured stdout
// (stderr, in this package's usage, is consumed incrementally by the
// caller via Lines(), so RemoteError.Stderr is left blank for Start-based
// commands; callers that need the stderr text should accumulate Lines()
// themselves).
func (s *StreamingCmd) Wait() error {
	for range s.lines {
		// drain in case the caller stopped consuming early
	}
	if err := s.cmd.Wait(); err != nil {
		return &task.RemoteError{Stdout: s.stdout.String(), Err: err}
	}
	return nil
}

type captureWriter struct {
	buf []byte
}

func (c *captureWriter) Write(p []byte) (int, error) {
	c.buf = append(c.buf, p...)
	return len(p), nil
}

func (c *captureWriter) String() string { return string(c.buf) }

// Run executes name with args to completion and returns its stdout. On
// failure the returned *task.RemoteError also carries the collected
// stderr. It is the alternative to Start for commands whose stderr doesn't
// need line-by-line processing (Shutdown, Execute).
func Run(ctx context.Context, name string, args ...string) (stdout string, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdoutBuf, stderrBuf captureWriter
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	runErr := cmd.Run()
	if runErr != nil {
		return stdoutBuf.String(), &task.RemoteError{
			Stderr: stderrBuf.String(),
			Stdout: stdoutBuf.String(),
			Err:    runErr,
		}
	}
	return stdoutBuf.String(), nil
}

var _ io.Writer = (*captureWriter)(nil)
