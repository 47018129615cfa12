// Package parser turns the textual output of the telenovela models into a
// domain.Schedule.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
)

// ErrMalformedOutput is returned when a recognised line carries values that
// cannot be read.
var ErrMalformedOutput = errors.New("malformed solver output")

const unsatisfiable = "=====UNSATISFIABLE====="

var (
	sceneOrderRe = regexp.MustCompile(`Orden de escenas: \[(.*?)\]`)
	totalCostRe  = regexp.MustCompile(`Cost[eo] total: (\d+)`)
	sharedTimeRe = regexp.MustCompile(`Tiempo compartido actores a evitar: (\d+)`)
	actorRe      = regexp.MustCompile(`Actor(\w*): Escenas \[(\d+)\.\.(\d+)\] Coste = (\d+)(?:,?\s*Tiempo(?: en estudio)? = (\d+))?`)
)

// Parser reads solver stdout.
type Parser interface {
	Parse(stdout string) (*domain.Schedule, error)
}

// MiniZinc parses the output format shared by both telenovela models.
type MiniZinc struct{}

// NewMiniZinc creates a MiniZinc parser.
func NewMiniZinc() *MiniZinc { return &MiniZinc{} }

// Parse extracts the schedule. Output without a total cost, or reporting the
// instance unsatisfiable, yields domain.ErrNoSolution.
func (p *MiniZinc) Parse(stdout string) (*domain.Schedule, error) {
	if strings.Contains(stdout, unsatisfiable) {
		return nil, domain.ErrNoSolution
	}

	m := totalCostRe.FindStringSubmatch(stdout)
	if m == nil {
		return nil, domain.ErrNoSolution
	}
	total, err := atoi(m[1])
	if err != nil {
		return nil, err
	}

	sched := &domain.Schedule{
		SceneOrder:     []int{},
		TotalCost:      total,
		ActorBreakdown: []domain.ActorCost{},
	}

	if m := sceneOrderRe.FindStringSubmatch(stdout); m != nil {
		order, err := parseIntList(m[1])
		if err != nil {
			return nil, err
		}
		sched.SceneOrder = order
	}

	if m := sharedTimeRe.FindStringSubmatch(stdout); m != nil {
		v, err := atoi(m[1])
		if err != nil {
			return nil, err
		}
		sched.SharedAvoidTime = &v
	}

	for _, line := range strings.Split(stdout, "\n") {
		m := actorRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		actor, err := parseActor(m)
		if err != nil {
			return nil, err
		}
		sched.ActorBreakdown = append(sched.ActorBreakdown, actor)
	}

	return sched, nil
}

func parseActor(m []string) (domain.ActorCost, error) {
	var (
		a   = domain.ActorCost{Name: strings.TrimSpace(m[1])}
		err error
	)
	if a.FirstScene, err = atoi(m[2]); err != nil {
		return a, err
	}
	if a.LastScene, err = atoi(m[3]); err != nil {
		return a, err
	}
	if a.Cost, err = atoi(m[4]); err != nil {
		return a, err
	}
	if m[5] != "" {
		t, err := atoi(m[5])
		if err != nil {
			return a, err
		}
		a.StudioTime = &t
	}
	return a, nil
}

func parseIntList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func atoi(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrMalformedOutput, s)
	}
	return v, nil
}
