package usecase

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/parser"
	mockpub "github.com/BrianGomezM/minizinc-novelas/internal/publisher/mock"
	mockrepo "github.com/BrianGomezM/minizinc-novelas/internal/repository/mock"
	"github.com/BrianGomezM/minizinc-novelas/internal/result"
)

const testData = "n_escenas = 2;\n"

// fakeRunner hands back a scripted outcome for each started job.
type fakeRunner struct {
	mu       sync.Mutex
	started  []domain.SolveRequest
	dataSeen []string

	StartErr error
	// Outcome is sent on the channel; when nil the channel is closed empty.
	Outcome *domain.Outcome
	// Hold, when set, delays the outcome until it is closed.
	Hold chan struct{}
}

func (f *fakeRunner) Start(req domain.SolveRequest) (domain.Job, <-chan domain.Outcome, error) {
	f.mu.Lock()
	f.started = append(f.started, req)
	if data, err := os.ReadFile(req.DataPath); err == nil {
		f.dataSeen = append(f.dataSeen, string(data))
	}
	f.mu.Unlock()

	if f.StartErr != nil {
		return domain.Job{}, nil, f.StartErr
	}

	ch := make(chan domain.Outcome, 1)
	go func() {
		defer close(ch)
		if f.Hold != nil {
			<-f.Hold
		}
		if f.Outcome != nil {
			ch <- *f.Outcome
		}
	}()
	return domain.Job{ID: uuid.Must(uuid.NewV7()), Model: req.Model, PID: 4242, CreatedAt: time.Now().UTC()}, ch, nil
}

func (f *fakeRunner) Active() []domain.Job { return nil }

func (f *fakeRunner) Bound() int { return 2 }

func (f *fakeRunner) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.started)
}

type fixture struct {
	runner *fakeRunner
	repo   *mockrepo.JobRepository
	cache  *mockrepo.ResultCache
	pub    *mockpub.Publisher
	uc     *SolveJobUsecase
}

func newFixture(t *testing.T, outcome *domain.Outcome) *fixture {
	t.Helper()

	f := &fixture{
		runner: &fakeRunner{Outcome: outcome},
		repo:   mockrepo.NewJobRepository(),
		cache:  mockrepo.NewResultCache(),
		pub:    mockpub.NewPublisher(),
	}
	models := map[domain.Model]string{
		domain.ModelParte1: "models/modeloDesenfreno.mzn",
		domain.ModelParte2: "models/modelo_telenovela_v2.mzn",
	}
	f.uc = NewSolveJobUsecase(
		f.runner,
		result.NewNormalizer(parser.NewMiniZinc(), 2),
		f.repo, f.cache, f.pub,
		models, 1<<10, zap.NewNop(),
	)
	f.uc.tmpDir = t.TempDir()
	return f
}

func outcomeOf(o domain.Outcome) *domain.Outcome { return &o }

func TestSolve_Success(t *testing.T) {
	f := newFixture(t, outcomeOf(domain.Success("Orden de escenas: [2, 1]\nCoste total: 10\n", 3*time.Second)))

	rec, err := f.uc.Solve(context.Background(), SolveInput{Model: domain.ModelParte1, Data: []byte(testData)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.uc.Wait()

	if rec.Status != domain.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", rec.Status)
	}
	if rec.Response.Result.TotalCost != 10 {
		t.Errorf("expected cost 10, got %d", rec.Response.Result.TotalCost)
	}
	if rec.DurationMs == nil || *rec.DurationMs != 3000 {
		t.Errorf("expected 3000ms, got %v", rec.DurationMs)
	}

	// Model and data handed to the runner
	if f.runner.started[0].ModelPath != "models/modeloDesenfreno.mzn" {
		t.Errorf("unexpected model path %q", f.runner.started[0].ModelPath)
	}
	if f.runner.dataSeen[0] != testData {
		t.Errorf("runner saw data %q", f.runner.dataSeen[0])
	}
	if _, err := os.Stat(f.runner.started[0].DataPath); !os.IsNotExist(err) {
		t.Errorf("expected data file removed, stat err = %v", err)
	}

	stored := f.repo.GetAll()
	if len(stored) != 1 || stored[0].Status != domain.StatusSuccess {
		t.Fatalf("expected one SUCCESS record, got %+v", stored)
	}
	if f.cache.Len() != 1 {
		t.Errorf("expected result cached, got %d entries", f.cache.Len())
	}
	events := f.pub.Published()
	if len(events) != 1 || events[0].Status != domain.StatusSuccess || events[0].JobID != rec.JobID {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestSolve_ResubmissionServedFromCache(t *testing.T) {
	f := newFixture(t, outcomeOf(domain.Success("Coste total: 10\n", time.Second)))
	in := SolveInput{Model: domain.ModelParte1, Data: []byte(testData)}

	first, err := f.uc.Solve(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.uc.Wait()

	second, err := f.uc.Solve(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.runner.startCount() != 1 {
		t.Errorf("expected solver started once, got %d", f.runner.startCount())
	}
	if !second.Cached || second.JobID == first.JobID {
		t.Errorf("expected a new cached record, got %+v", second)
	}
	if second.Response.Result.TotalCost != 10 {
		t.Errorf("expected cached cost 10, got %d", second.Response.Result.TotalCost)
	}

	// Same data for the other model is a different key
	if _, err := f.uc.Solve(context.Background(), SolveInput{Model: domain.ModelParte2, Data: in.Data}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.uc.Wait()
	if f.runner.startCount() != 2 {
		t.Errorf("expected solver started for parte_2, got %d starts", f.runner.startCount())
	}
}

func TestSolve_NonSuccessOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		outcome domain.Outcome
		want    domain.JobStatus
	}{
		{"preempted", domain.Preempted(time.Second), domain.StatusPreempted},
		{"timeout", domain.Timeout(900 * time.Second), domain.StatusTimeout},
		{"solver error", domain.SolverError("", "Error: type error", 1, time.Second), domain.StatusSolverError},
		{"unsatisfiable", domain.Success("=====UNSATISFIABLE=====\n", time.Second), domain.StatusParseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, outcomeOf(tt.outcome))

			rec, err := f.uc.Solve(context.Background(), SolveInput{Model: domain.ModelParte2, Data: []byte(testData)})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			f.uc.Wait()

			if rec.Status != tt.want {
				t.Errorf("expected %s, got %s", tt.want, rec.Status)
			}
			if f.cache.Len() != 0 {
				t.Error("only successful results may be cached")
			}
			if len(f.pub.Published()) != 1 {
				t.Errorf("expected one event, got %d", len(f.pub.Published()))
			}
		})
	}
}

func TestSolve_WaitAbortedIsInternalError(t *testing.T) {
	f := newFixture(t, nil)

	rec, err := f.uc.Solve(context.Background(), SolveInput{Model: domain.ModelParte1, Data: []byte(testData)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.uc.Wait()

	if rec.Status != domain.StatusInternalError {
		t.Errorf("expected INTERNAL_ERROR, got %s", rec.Status)
	}
}

func TestSolve_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   SolveInput
		want error
	}{
		{"unknown model", SolveInput{Model: "parte_3", Data: []byte(testData)}, domain.ErrUnknownModel},
		{"empty data", SolveInput{Model: domain.ModelParte1, Data: []byte("  \n")}, domain.ErrEmptyDataFile},
		{"too large", SolveInput{Model: domain.ModelParte1, Data: make([]byte, 1<<10+1)}, domain.ErrPayloadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, outcomeOf(domain.Success("Coste total: 1", 0)))

			_, err := f.uc.Solve(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if f.runner.startCount() != 0 {
				t.Error("solver must not start for an invalid request")
			}
		})
	}
}

func TestSolve_LaunchErrorLeavesNoTrace(t *testing.T) {
	f := newFixture(t, nil)
	f.runner.StartErr = &domain.LaunchError{Path: "minizinc", Err: os.ErrNotExist}

	_, err := f.uc.Solve(context.Background(), SolveInput{Model: domain.ModelParte1, Data: []byte(testData)})
	if !errors.Is(err, domain.ErrLaunch) {
		t.Fatalf("expected ErrLaunch, got %v", err)
	}
	if len(f.repo.GetAll()) != 0 {
		t.Error("no record expected for a job that never launched")
	}
	if _, err := os.Stat(f.runner.started[0].DataPath); !os.IsNotExist(err) {
		t.Errorf("expected data file removed, stat err = %v", err)
	}
}

func TestSolve_ContextDoneKeepsJobRunning(t *testing.T) {
	f := newFixture(t, outcomeOf(domain.Success("Coste total: 5\n", time.Second)))
	f.runner.Hold = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.uc.Solve(ctx, SolveInput{Model: domain.ModelParte1, Data: []byte(testData)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(f.runner.Hold)
	f.uc.Wait()

	stored := f.repo.GetAll()
	if len(stored) != 1 || stored[0].Status != domain.StatusSuccess {
		t.Errorf("expected job finalized after client left, got %+v", stored)
	}
}

func TestSolve_StoreFailureDoesNotChangeOutcome(t *testing.T) {
	f := newFixture(t, outcomeOf(domain.Success("Coste total: 5\n", time.Second)))
	f.repo.SetResultFn = func(ctx context.Context, id uuid.UUID, resp *domain.SolveResponse, durationMs int64) error {
		return errors.New("connection refused")
	}
	f.pub.PublishFn = func(ctx context.Context, event *domain.OutcomeEvent) error {
		return errors.New("channel closed")
	}

	rec, err := f.uc.Solve(context.Background(), SolveInput{Model: domain.ModelParte1, Data: []byte(testData)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.uc.Wait()

	if rec.Status != domain.StatusSuccess {
		t.Errorf("expected SUCCESS, got %s", rec.Status)
	}
	if f.repo.SetResultCalls != 1 {
		t.Errorf("expected one SetResult call, got %d", f.repo.SetResultCalls)
	}
}

func TestSubmit_ThenGetJob(t *testing.T) {
	f := newFixture(t, outcomeOf(domain.Timeout(900 * time.Second)))
	f.runner.Hold = make(chan struct{})

	resp, err := f.uc.Submit(context.Background(), SolveInput{Model: domain.ModelParte1, Data: []byte(testData)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != domain.StatusRunning {
		t.Errorf("expected RUNNING, got %s", resp.Status)
	}

	get := NewGetJobUsecase(f.repo, zap.NewNop())
	rec, err := get.Execute(context.Background(), resp.JobID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != domain.StatusRunning {
		t.Errorf("expected RUNNING before the outcome, got %s", rec.Status)
	}

	close(f.runner.Hold)
	f.uc.Wait()

	rec, err = get.Execute(context.Background(), resp.JobID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != domain.StatusTimeout {
		t.Errorf("expected TIMEOUT, got %s", rec.Status)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	get := NewGetJobUsecase(mockrepo.NewJobRepository(), zap.NewNop())

	_, err := get.Execute(context.Background(), uuid.Must(uuid.NewV7()))
	if !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestListActive_NeverNil(t *testing.T) {
	got := NewListActiveUsecase(&fakeRunner{}).Execute()
	if got.Jobs == nil {
		t.Error("expected empty, non-nil job list")
	}
	if got.Bound != 2 {
		t.Errorf("expected bound 2, got %d", got.Bound)
	}
}

func TestListModels_Sorted(t *testing.T) {
	got := NewListModelsUsecase(map[domain.Model]string{
		domain.ModelParte2: "b.mzn",
		domain.ModelParte1: "a.mzn",
	}).Execute()

	if len(got) != 2 || got[0].Name != domain.ModelParte1 || got[1].Path != "b.mzn" {
		t.Errorf("unexpected models %+v", got)
	}
}
