package domain

import "time"

// OutcomeKind tags how a solver process ended.
type OutcomeKind string

const (
	OutcomeSuccess     OutcomeKind = "success"
	OutcomeSolverError OutcomeKind = "solver_error"
	OutcomeTimeout     OutcomeKind = "timeout"
	OutcomePreempted   OutcomeKind = "preempted"
)

// Status maps the outcome tag onto the job lifecycle status.
func (k OutcomeKind) Status() JobStatus {
	switch k {
	case OutcomeSuccess:
		return StatusSuccess
	case OutcomeSolverError:
		return StatusSolverError
	case OutcomeTimeout:
		return StatusTimeout
	case OutcomePreempted:
		return StatusPreempted
	}
	return StatusInternalError
}

// Outcome is the terminal classification of one solver process.
// Stdout is set for Success and SolverError, Stderr and ExitCode only for SolverError.
type Outcome struct {
	Kind     OutcomeKind
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	// Truncated is set when a stream exceeded the capture limit. Stdout and
	// Stderr then hold the captured prefix only.
	Truncated bool
}

// Success builds a Success outcome carrying the captured stdout.
func Success(stdout string, elapsed time.Duration) Outcome {
	return Outcome{Kind: OutcomeSuccess, Stdout: stdout, Duration: elapsed}
}

// SolverError builds a SolverError outcome carrying both streams verbatim.
func SolverError(stdout, stderr string, exitCode int, elapsed time.Duration) Outcome {
	return Outcome{
		Kind:     OutcomeSolverError,
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Duration: elapsed,
	}
}

// Timeout builds a Timeout outcome.
func Timeout(elapsed time.Duration) Outcome {
	return Outcome{Kind: OutcomeTimeout, ExitCode: -1, Duration: elapsed}
}

// Preempted builds a Preempted outcome.
func Preempted(elapsed time.Duration) Outcome {
	return Outcome{Kind: OutcomePreempted, ExitCode: -1, Duration: elapsed}
}
