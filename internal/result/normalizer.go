// Package result maps solver outcomes onto the user-facing response.
package result

import (
	"errors"
	"fmt"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/parser"
)

const (
	msgTimeout    = "solver exceeded the execution time limit"
	msgNoSolution = "solver finished without a solution"
)

// Normalizer turns an Outcome into a SolveResponse. It never interprets solver
// text itself; successful stdout goes to the parser unchanged.
type Normalizer struct {
	parser parser.Parser
	bound  int
}

// NewNormalizer creates a Normalizer. bound is the admission bound quoted in
// preemption messages.
func NewNormalizer(p parser.Parser, bound int) *Normalizer {
	return &Normalizer{parser: p, bound: bound}
}

// Normalize classifies o.
func (n *Normalizer) Normalize(o domain.Outcome) domain.SolveResponse {
	switch o.Kind {
	case domain.OutcomePreempted:
		return domain.SolveResponse{
			Status:  domain.StatusPreempted,
			Message: fmt.Sprintf("job superseded by a newer submission (concurrency limit %d)", n.bound),
		}

	case domain.OutcomeTimeout:
		return domain.SolveResponse{
			Status:  domain.StatusTimeout,
			Message: msgTimeout,
		}

	case domain.OutcomeSolverError:
		code := o.ExitCode
		return domain.SolveResponse{
			Status:   domain.StatusSolverError,
			Message:  fmt.Sprintf("solver exited with code %d", code),
			ExitCode: &code,
			Stdout:   o.Stdout,
			Stderr:   o.Stderr,

			OutputTruncated: o.Truncated,
		}

	case domain.OutcomeSuccess:
		sched, err := n.parser.Parse(o.Stdout)
		if err != nil {
			msg := err.Error()
			if errors.Is(err, domain.ErrNoSolution) {
				msg = msgNoSolution
			}
			return domain.SolveResponse{
				Status:  domain.StatusParseError,
				Message: msg,
				Stdout:  o.Stdout,

				OutputTruncated: o.Truncated,
			}
		}
		return domain.SolveResponse{Status: domain.StatusSuccess, Result: sched}
	}

	return domain.SolveResponse{
		Status:  domain.StatusInternalError,
		Message: fmt.Sprintf("unknown outcome %q", o.Kind),
	}
}
