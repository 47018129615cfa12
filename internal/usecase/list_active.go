package usecase

import (
	"sort"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
)

// ActiveJobs is the read-only view of the job registry.
type ActiveJobs struct {
	Bound int          `json:"max_concurrent"`
	Jobs  []domain.Job `json:"jobs"`
}

// ListActiveUsecase reports registered jobs without touching them.
type ListActiveUsecase struct {
	runner JobRunner
}

// NewListActiveUsecase creates a new ListActiveUsecase.
func NewListActiveUsecase(runner JobRunner) *ListActiveUsecase {
	return &ListActiveUsecase{runner: runner}
}

// Execute returns the registered jobs, oldest first.
func (uc *ListActiveUsecase) Execute() ActiveJobs {
	jobs := uc.runner.Active()
	if jobs == nil {
		jobs = []domain.Job{}
	}
	return ActiveJobs{Bound: uc.runner.Bound(), Jobs: jobs}
}

// ListModelsUsecase reports the configured models.
type ListModelsUsecase struct {
	models map[domain.Model]string
}

// NewListModelsUsecase creates a new ListModelsUsecase.
func NewListModelsUsecase(models map[domain.Model]string) *ListModelsUsecase {
	return &ListModelsUsecase{models: models}
}

// Execute returns the models sorted by name.
func (uc *ListModelsUsecase) Execute() []domain.ModelInfo {
	out := make([]domain.ModelInfo, 0, len(uc.models))
	for name, path := range uc.models {
		out = append(out, domain.ModelInfo{Name: name, Path: path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
