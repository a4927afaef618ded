// Package config loads cgrad settings.
//
// Values are layered: built-in defaults, then an optional YAML (or JSON)
// file, then CGRAD_* environment variables. The merged result is validated
// before it is returned.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"cgrad/autograd"
	"cgrad/internal/neuron"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CGRAD_"

var validate = validator.New()

// Config is the top-level configuration.
type Config struct {
	Training  TrainingConfig  `json:"training" yaml:"training"`
	Server    ServerConfig    `json:"server" yaml:"server"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

// TrainingConfig holds defaults for neuron training runs.
type TrainingConfig struct {
	Gate         string  `json:"gate" yaml:"gate" validate:"required,oneof=or and xor nand nor"`
	Epochs       int     `json:"epochs" yaml:"epochs" validate:"gte=0,lte=1000000"`
	LearningRate float32 `json:"learning_rate" yaml:"learning_rate" validate:"gt=0"`
	Optimizer    string  `json:"optimizer" yaml:"optimizer" validate:"oneof=sgd adam"`
	Seed         int64   `json:"seed" yaml:"seed"`
	LogEvery     int     `json:"log_every" yaml:"log_every" validate:"gte=0"`
	Parallelism  int     `json:"parallelism" yaml:"parallelism" validate:"gte=0"`
}

// ServerConfig configures `cgrad serve`.
type ServerConfig struct {
	Addr        string        `json:"addr" yaml:"addr" validate:"required"`
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string `json:"service_name" yaml:"service_name" validate:"required"`
	MetricExporter string `json:"metric_exporter" yaml:"metric_exporter" validate:"oneof=prometheus stdout none"`
	TraceExporter  string `json:"trace_exporter" yaml:"trace_exporter" validate:"oneof=stdout otlp none"`
	OTLPEndpoint   string `json:"otlp_endpoint" yaml:"otlp_endpoint" validate:"required_if=TraceExporter otlp"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" validate:"oneof=text json"`
}

// Default returns the built-in configuration.
func Default() Config {
	opts := neuron.DefaultOptions()
	return Config{
		Training: TrainingConfig{
			Gate:         neuron.OR.Name,
			Epochs:       opts.Epochs,
			LearningRate: opts.LearningRate,
			Optimizer:    opts.Optimizer,
			Seed:         autograd.DefaultSeed,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			ReadTimeout: 10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "cgrad",
			MetricExporter: "prometheus",
			TraceExporter:  "none",
			OTLPEndpoint:   "localhost:4317",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load merges defaults, the file at path (if any) and the environment.
// An empty path or a missing file leaves the defaults in place.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("load config env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

// loadEnv applies CGRAD_* overrides. Unlike the file, a malformed number in
// the environment is an error rather than being silently skipped.
func loadEnv(cfg *Config) error {
	strs := map[string]*string{
		"GATE":            &cfg.Training.Gate,
		"OPTIMIZER":       &cfg.Training.Optimizer,
		"ADDR":            &cfg.Server.Addr,
		"SERVICE_NAME":    &cfg.Telemetry.ServiceName,
		"METRIC_EXPORTER": &cfg.Telemetry.MetricExporter,
		"TRACE_EXPORTER":  &cfg.Telemetry.TraceExporter,
		"OTLP_ENDPOINT":   &cfg.Telemetry.OTLPEndpoint,
		"LOG_LEVEL":       &cfg.Log.Level,
		"LOG_FORMAT":      &cfg.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"EPOCHS":      &cfg.Training.Epochs,
		"LOG_EVERY":   &cfg.Training.LogEvery,
		"PARALLELISM": &cfg.Training.Parallelism,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			i, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = i
		}
	}

	if v, ok := lookup("LEARNING_RATE"); ok {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("%sLEARNING_RATE: %w", EnvPrefix, err)
		}
		cfg.Training.LearningRate = float32(f)
	}
	if v, ok := lookup("SEED"); ok {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", EnvPrefix, err)
		}
		cfg.Training.Seed = i
	}
	if v, ok := lookup("READ_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sREAD_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.Server.ReadTimeout = d
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Validate checks every section against its struct tags.
func (c Config) Validate() error {
	return validate.Struct(c)
}

// Options converts the training section into trainer options.
func (t TrainingConfig) Options() neuron.Options {
	return neuron.Options{
		Epochs:       t.Epochs,
		LearningRate: t.LearningRate,
		Optimizer:    t.Optimizer,
		Seed:         t.Seed,
		LogEvery:     t.LogEvery,
		Parallelism:  t.Parallelism,
	}
}
