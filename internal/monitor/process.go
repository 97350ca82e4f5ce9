package monitor

import (
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Handle is a spawned child process. It carries the OS handle needed for
// metric queries and exposes a non-blocking exit check.
type Handle struct {
	cmd     *exec.Cmd
	started time.Time
	done    chan struct{}
	waitErr error // set before done is closed
}

// Spawn starts the program described by params with the caller's stdio (or
// the overrides in params) and begins reaping it in the background.
func Spawn(params Params) (*Handle, error) {
	cmd := exec.Command(params.Program, params.Args...)
	cmd.Stdin = params.Stdin
	cmd.Stdout = params.Stdout
	cmd.Stderr = params.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %q: %w", params.Program, err)
	}

	h := &Handle{
		cmd:     cmd,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	go func() {
		h.waitErr = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

func (h *Handle) Pid() int32 {
	return int32(h.cmd.Process.Pid)
}

func (h *Handle) Started() time.Time {
	return h.started
}

// Done is closed once the child has exited and been reaped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Exited reports whether the child has exited, without blocking.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the child exits. A non-zero exit status is not an error
// here; use ExitCode.
func (h *Handle) Wait() error {
	<-h.done
	if _, ok := h.waitErr.(*exec.ExitError); ok {
		return nil
	}
	return h.waitErr
}

// ExitCode returns the child's exit status once it has exited. Children
// killed by a signal report 1.
func (h *Handle) ExitCode() int {
	if !h.Exited() {
		return -1
	}
	code := h.cmd.ProcessState.ExitCode()
	if code < 0 {
		return 1
	}
	return code
}

// Kill terminates the child and waits for it to be reaped.
func (h *Handle) Kill() {
	if h.Exited() {
		return
	}
	_ = h.cmd.Process.Kill()
	<-h.done
}
