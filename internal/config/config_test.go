package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Solver.MaxConcurrent != 2 {
		t.Errorf("expected bound 2, got %d", cfg.Solver.MaxConcurrent)
	}
	if cfg.Solver.Timeout != 900*time.Second {
		t.Errorf("expected 900s timeout, got %s", cfg.Solver.Timeout)
	}
	if cfg.Server.MaxUploadBytes != 1<<20 {
		t.Errorf("expected 1 MiB upload limit, got %d", cfg.Server.MaxUploadBytes)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*" {
		t.Errorf("expected origins [*], got %v", cfg.Server.AllowedOrigins)
	}

	models := cfg.Models()
	if got := models[domain.ModelParte1]; got != filepath.Join("models", "modeloDesenfreno.mzn") {
		t.Errorf("unexpected parte_1 path %q", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SOLVER_MAX_CONCURRENT", "4")
	t.Setenv("SOLVER_TIMEOUT", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://novelas.example")
	t.Setenv("SOLVER_MODEL_PARTE_2", "/opt/models/v2.mzn")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Solver.MaxConcurrent != 4 {
		t.Errorf("expected bound 4, got %d", cfg.Solver.MaxConcurrent)
	}
	if cfg.Solver.Timeout != 30*time.Second {
		t.Errorf("expected 30s, got %s", cfg.Solver.Timeout)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://novelas.example" {
		t.Errorf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
	if got := cfg.Models()[domain.ModelParte2]; got != "/opt/models/v2.mzn" {
		t.Errorf("absolute model path should be kept, got %q", got)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "novelas.env")
	if err := os.WriteFile(path, []byte("API_PORT=9001\nSOLVER_BACKEND=gecode\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("expected port 9001, got %d", cfg.Server.Port)
	}
	if cfg.Solver.Backend != "gecode" {
		t.Errorf("expected backend gecode, got %q", cfg.Solver.Backend)
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.env"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	base, err := Load(viper.New(), "")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero bound", func(c *Config) { c.Solver.MaxConcurrent = 0 }},
		{"no timeout", func(c *Config) { c.Solver.Timeout = 0 }},
		{"no solver", func(c *Config) { c.Solver.Path = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"write timeout too short", func(c *Config) { c.Server.WriteTimeout = time.Minute }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}
