package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
)

// Config holds all configuration for the solver service.
type Config struct {
	Server   ServerConfig
	Solver   SolverConfig
	Metrics  MetricsConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Port           int           `mapstructure:"API_PORT"`
	ReadTimeout    time.Duration `mapstructure:"API_READ_TIMEOUT"`
	WriteTimeout   time.Duration `mapstructure:"API_WRITE_TIMEOUT"`
	RateLimit      int           `mapstructure:"API_RATE_LIMIT"`
	MaxUploadBytes int64         `mapstructure:"API_MAX_UPLOAD_BYTES"`
	GinMode        string        `mapstructure:"GIN_MODE"`
	AllowedOrigins []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

type SolverConfig struct {
	Path          string        `mapstructure:"SOLVER_PATH"`
	Backend       string        `mapstructure:"SOLVER_BACKEND"`
	ModelDir      string        `mapstructure:"SOLVER_MODEL_DIR"`
	ModelParte1   string        `mapstructure:"SOLVER_MODEL_PARTE_1"`
	ModelParte2   string        `mapstructure:"SOLVER_MODEL_PARTE_2"`
	MaxConcurrent int           `mapstructure:"SOLVER_MAX_CONCURRENT"`
	Timeout       time.Duration `mapstructure:"SOLVER_TIMEOUT"`
	KillGrace     time.Duration `mapstructure:"SOLVER_KILL_GRACE"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"METRICS_ENABLED"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"DATABASE_URL"`
}

type RabbitMQConfig struct {
	URL string `mapstructure:"RABBITMQ_URL"`
}

type RedisConfig struct {
	URL       string        `mapstructure:"REDIS_URL"`
	ResultTTL time.Duration `mapstructure:"RESULT_CACHE_TTL"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("API_PORT", 8000)
	v.SetDefault("API_READ_TIMEOUT", "10s")
	// Blocking solve endpoints must outlive the solver timeout.
	v.SetDefault("API_WRITE_TIMEOUT", "16m")
	v.SetDefault("API_RATE_LIMIT", 60)
	v.SetDefault("API_MAX_UPLOAD_BYTES", 1<<20)
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("SOLVER_PATH", "minizinc")
	v.SetDefault("SOLVER_BACKEND", "")
	v.SetDefault("SOLVER_MODEL_DIR", "./models")
	v.SetDefault("SOLVER_MODEL_PARTE_1", "modeloDesenfreno.mzn")
	v.SetDefault("SOLVER_MODEL_PARTE_2", "modelo_telenovela_v2.mzn")
	v.SetDefault("SOLVER_MAX_CONCURRENT", 2)
	v.SetDefault("SOLVER_TIMEOUT", "900s")
	v.SetDefault("SOLVER_KILL_GRACE", "2s")

	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("RESULT_CACHE_TTL", "24h")
	v.SetDefault("RABBITMQ_URL", "")
}

// Load reads configuration from environment variables and an optional config
// file. When configFile is empty a .env in the working directory is tried.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile == "" {
		configFile = ".env"
	}
	v.SetConfigFile(configFile)
	v.AutomaticEnv()
	SetDefaults(v)

	// Attempt to read the config file (non-fatal if missing)
	if err := v.ReadInConfig(); err != nil && configFile != ".env" {
		return nil, fmt.Errorf("read config %s: %w", configFile, err)
	}

	cfg := &Config{}
	cfg.Server.Port = v.GetInt("API_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("API_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("API_WRITE_TIMEOUT")
	cfg.Server.RateLimit = v.GetInt("API_RATE_LIMIT")
	cfg.Server.MaxUploadBytes = v.GetInt64("API_MAX_UPLOAD_BYTES")
	cfg.Server.GinMode = v.GetString("GIN_MODE")
	cfg.Server.AllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	cfg.Solver.Path = v.GetString("SOLVER_PATH")
	cfg.Solver.Backend = v.GetString("SOLVER_BACKEND")
	cfg.Solver.ModelDir = v.GetString("SOLVER_MODEL_DIR")
	cfg.Solver.ModelParte1 = v.GetString("SOLVER_MODEL_PARTE_1")
	cfg.Solver.ModelParte2 = v.GetString("SOLVER_MODEL_PARTE_2")
	cfg.Solver.MaxConcurrent = v.GetInt("SOLVER_MAX_CONCURRENT")
	cfg.Solver.Timeout = v.GetDuration("SOLVER_TIMEOUT")
	cfg.Solver.KillGrace = v.GetDuration("SOLVER_KILL_GRACE")

	cfg.Metrics.Enabled = v.GetBool("METRICS_ENABLED")
	cfg.Database.URL = v.GetString("DATABASE_URL")
	cfg.Redis.URL = v.GetString("REDIS_URL")
	cfg.Redis.ResultTTL = v.GetDuration("RESULT_CACHE_TTL")
	cfg.RabbitMQ.URL = v.GetString("RABBITMQ_URL")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("API_PORT out of range: %d", c.Server.Port))
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, errors.New("API_RATE_LIMIT must be positive"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("API_MAX_UPLOAD_BYTES must be positive"))
	}
	if c.Solver.Path == "" {
		errs = append(errs, errors.New("SOLVER_PATH is required"))
	}
	if c.Solver.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("SOLVER_MAX_CONCURRENT must be at least 1, got %d", c.Solver.MaxConcurrent))
	}
	if c.Solver.Timeout <= 0 {
		errs = append(errs, errors.New("SOLVER_TIMEOUT must be positive"))
	}
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Solver.Timeout {
		errs = append(errs, fmt.Errorf("API_WRITE_TIMEOUT (%s) must exceed SOLVER_TIMEOUT (%s)",
			c.Server.WriteTimeout, c.Solver.Timeout))
	}
	return errors.Join(errs...)
}

// Models returns the configured model files keyed by model name.
func (c *Config) Models() map[domain.Model]string {
	return map[domain.Model]string{
		domain.ModelParte1: c.modelPath(c.Solver.ModelParte1),
		domain.ModelParte2: c.modelPath(c.Solver.ModelParte2),
	}
}

func (c *Config) modelPath(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.Solver.ModelDir, file)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
