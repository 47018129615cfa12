package solver

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Handle wraps one solver process: its pid, captured output and the flag
// telling the waiter that the service itself decided to kill it.
type Handle struct {
	cmd       *exec.Cmd
	stdout    *limitedBuffer
	stderr    *limitedBuffer
	startedAt time.Time

	cancelled  atomic.Bool
	cancelCh   chan struct{}
	cancelOnce sync.Once
	killOnce   sync.Once

	exited    atomic.Bool
	done      chan struct{}
	waitErr   error
	stoppedAt time.Time
}

// PID returns the OS process id, 0 before start.
func (h *Handle) PID() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// StartedAt returns when the process was spawned.
func (h *Handle) StartedAt() time.Time { return h.startedAt }

// Done is closed once the process has been reaped.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Cancelled reports whether the service initiated a kill of this process.
// Timeout kills do not set it.
func (h *Handle) Cancelled() bool { return h.cancelled.Load() }

// CancelRequested is closed once the service has marked the process cancelled.
func (h *Handle) CancelRequested() <-chan struct{} { return h.cancelCh }

// Kill sends SIGKILL to the process group. It returns once the signal has
// been issued; reaping is left to the waiter. Only the first call signals,
// and a process that already exited is never signalled.
func (h *Handle) Kill() {
	h.killOnce.Do(func() {
		if h.exited.Load() || h.cmd.Process == nil {
			return
		}
		// Negative pid targets the whole group, so children of minizinc
		// (fzn-gecode and friends) die too.
		if err := syscall.Kill(-h.cmd.Process.Pid, syscall.SIGKILL); err != nil {
			_ = h.cmd.Process.Kill()
		}
	})
}

// preempt flags the handle as cancelled by the service and kills it. The
// flag is stored before the signal so the waiter can never observe the exit
// without it.
func (h *Handle) preempt() {
	h.markCancelled()
	h.Kill()
}

func (h *Handle) markCancelled() {
	h.cancelOnce.Do(func() {
		h.cancelled.Store(true)
		close(h.cancelCh)
	})
}

// ExitCode returns the process exit status once Done is closed. A process
// terminated by a signal reports 128+signal, as a shell would.
func (h *Handle) ExitCode() int {
	if h.waitErr == nil || errors.Is(h.waitErr, exec.ErrWaitDelay) {
		return h.cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(h.waitErr, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		return exitErr.ExitCode()
	}
	return -1
}

// Stdout returns captured standard output.
func (h *Handle) Stdout() string { return h.stdout.String() }

// Stderr returns captured standard error.
func (h *Handle) Stderr() string { return h.stderr.String() }

// Truncated reports whether either stream hit the capture limit.
func (h *Handle) Truncated() bool {
	return h.stdout.Truncated() || h.stderr.Truncated()
}

func (h *Handle) start() error {
	if err := h.cmd.Start(); err != nil {
		return err
	}
	h.startedAt = time.Now()
	go h.reap()
	return nil
}

func (h *Handle) reap() {
	err := h.cmd.Wait()
	// The pid may be reused from here on; Kill must stop signalling it.
	h.exited.Store(true)
	h.waitErr = err
	h.stoppedAt = time.Now()
	close(h.done)
}

// elapsed is the process wall time, or time so far if still running.
func (h *Handle) elapsed() time.Duration {
	select {
	case <-h.done:
		return h.stoppedAt.Sub(h.startedAt)
	default:
		return time.Since(h.startedAt)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}
