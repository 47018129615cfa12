package solver

import (
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/metrics"
)

// defaultWaitDelay bounds how long reaping may wait on pipes still held open
// by grandchildren after the solver itself exited or was killed.
const defaultWaitDelay = 2 * time.Second

// Command describes one solver invocation.
type Command struct {
	Path string
	Args []string
	Env  []string
}

// Launcher spawns solver processes without waiting on them.
type Launcher struct {
	solverPath string
	backend    string
	waitDelay  time.Duration
	logger     *zap.Logger
}

// NewLauncher creates a launcher for the given solver binary. backend, when
// not empty, is passed as --solver.
func NewLauncher(solverPath, backend string, waitDelay time.Duration, logger *zap.Logger) *Launcher {
	if waitDelay <= 0 {
		waitDelay = defaultWaitDelay
	}
	return &Launcher{
		solverPath: solverPath,
		backend:    backend,
		waitDelay:  waitDelay,
		logger:     logger,
	}
}

// CommandFor builds `solver [--solver backend] <model> <data>` with absolute paths.
func (l *Launcher) CommandFor(req domain.SolveRequest) Command {
	args := make([]string, 0, 4)
	if l.backend != "" {
		args = append(args, "--solver", l.backend)
	}
	args = append(args, absPath(req.ModelPath), absPath(req.DataPath))
	return Command{Path: l.solverPath, Args: args}
}

// Launch spawns the command and returns its handle. A binary that cannot be
// found or spawned yields a *domain.LaunchError.
func (l *Launcher) Launch(c Command) (*Handle, error) {
	h, err := l.prepare(c)
	if err != nil {
		return nil, err
	}
	if err := l.start(h, c); err != nil {
		return nil, err
	}
	return h, nil
}

// prepare resolves the binary and wires the output buffers; nothing runs yet.
// The process lifetime is owned by the handle, so no request context is bound
// to the command.
func (l *Launcher) prepare(c Command) (*Handle, error) {
	// exec.Command only resolves bare names; explicit paths are checked here.
	if _, err := exec.LookPath(c.Path); err != nil {
		return nil, l.launchError(c, err)
	}
	cmd := exec.Command(c.Path, c.Args...)
	if cmd.Err != nil {
		return nil, l.launchError(c, cmd.Err)
	}
	if len(c.Env) > 0 {
		cmd.Env = c.Env
	}

	// Set up process group for clean termination
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.WaitDelay = l.waitDelay

	h := &Handle{
		cmd:      cmd,
		stdout:   newLimitedBuffer(maxOutputBytes),
		stderr:   newLimitedBuffer(maxOutputBytes),
		cancelCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
	cmd.Stdout = h.stdout
	cmd.Stderr = h.stderr
	return h, nil
}

func (l *Launcher) start(h *Handle, c Command) error {
	if err := h.start(); err != nil {
		return l.launchError(c, err)
	}
	l.logger.Debug("Solver process started",
		zap.String("path", c.Path),
		zap.Strings("args", c.Args),
		zap.Int("pid", h.PID()),
	)
	return nil
}

func (l *Launcher) launchError(c Command, err error) error {
	metrics.LaunchFailures.Inc()
	l.logger.Error("Solver launch failed",
		zap.String("path", c.Path),
		zap.Bool("not_found", isNotFound(err)),
		zap.Error(err),
	)
	return &domain.LaunchError{Path: c.Path, Err: err}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
