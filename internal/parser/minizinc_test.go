package parser

import (
	"errors"
	"testing"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
)

const parte1Output = `Orden de escenas: [3, 1, 4, 2, 5]
Coste total: 150
Actor1: Escenas [1..4] Coste = 80
Actor2: Escenas [2..5] Coste = 70
----------
==========
`

func TestParse_Parte1(t *testing.T) {
	s, err := NewMiniZinc().Parse(parte1Output)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{3, 1, 4, 2, 5}
	if len(s.SceneOrder) != len(want) {
		t.Fatalf("expected %d scenes, got %v", len(want), s.SceneOrder)
	}
	for i := range want {
		if s.SceneOrder[i] != want[i] {
			t.Errorf("scene %d: expected %d, got %d", i, want[i], s.SceneOrder[i])
		}
	}
	if s.TotalCost != 150 {
		t.Errorf("expected total cost 150, got %d", s.TotalCost)
	}
	if s.SharedAvoidTime != nil {
		t.Errorf("expected no shared time, got %d", *s.SharedAvoidTime)
	}
	if len(s.ActorBreakdown) != 2 {
		t.Fatalf("expected 2 actors, got %d", len(s.ActorBreakdown))
	}
	a := s.ActorBreakdown[0]
	if a.Name != "1" || a.FirstScene != 1 || a.LastScene != 4 || a.Cost != 80 {
		t.Errorf("unexpected first actor: %+v", a)
	}
	if a.StudioTime != nil {
		t.Errorf("expected no studio time, got %d", *a.StudioTime)
	}
}

func TestParse_Parte2WithSharedTimeAndStudioTime(t *testing.T) {
	out := "Orden de escenas: [2,1]\n" +
		"Coste total: 95\n" +
		"Tiempo compartido actores a evitar: 3\n" +
		"ActorAna: Escenas [1..2] Coste = 60, Tiempo = 6\n" +
		"ActorLuis: Escenas [2..2] Coste = 35\n"

	s, err := NewMiniZinc().Parse(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.SharedAvoidTime == nil || *s.SharedAvoidTime != 3 {
		t.Errorf("expected shared time 3, got %v", s.SharedAvoidTime)
	}
	if s.ActorBreakdown[0].Name != "Ana" {
		t.Errorf("expected actor Ana, got %q", s.ActorBreakdown[0].Name)
	}
	if st := s.ActorBreakdown[0].StudioTime; st == nil || *st != 6 {
		t.Errorf("expected studio time 6, got %v", st)
	}
	if s.ActorBreakdown[1].StudioTime != nil {
		t.Errorf("expected no studio time for Luis")
	}
}

func TestParse_CostoSpelling(t *testing.T) {
	s, err := NewMiniZinc().Parse("Costo total: 42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TotalCost != 42 {
		t.Errorf("expected 42, got %d", s.TotalCost)
	}
	if s.SceneOrder == nil || s.ActorBreakdown == nil {
		t.Error("expected empty, non-nil slices")
	}
}

func TestParse_NoSolution(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
	}{
		{"empty", ""},
		{"unsatisfiable", "=====UNSATISFIABLE=====\n"},
		{"no cost line", "Orden de escenas: [1, 2]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMiniZinc().Parse(tt.stdout)
			if !errors.Is(err, domain.ErrNoSolution) {
				t.Errorf("expected ErrNoSolution, got %v", err)
			}
		})
	}
}

func TestParse_MalformedSceneOrder(t *testing.T) {
	_, err := NewMiniZinc().Parse("Orden de escenas: [1, x]\nCoste total: 5\n")
	if !errors.Is(err, ErrMalformedOutput) {
		t.Errorf("expected ErrMalformedOutput, got %v", err)
	}
}
