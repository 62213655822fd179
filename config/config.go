// Package config carries the YAML-backed configuration for the
// simulator, QVM and evaluation layers.
package config

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	defaultEvaluationShots  = 1000
	defaultBaseShots        = 100
	defaultShotMultiplier   = 10
	defaultCompileCacheSize = 32
)

// QVMConfig configures the shot-based quantum virtual machine.
type QVMConfig struct {
	// Seed for the sampling source. Zero selects a time-derived seed.
	Seed int64 `yaml:"seed"`
	// Shots per program execution when the caller does not override it.
	BaseShots int `yaml:"baseShots"`
	// Number of compiled programs kept in the LRU cache.
	CompileCacheSize int `yaml:"compileCacheSize"`
	// Probability of flipping each measured bit, in [0, 1].
	ReadoutError float64 `yaml:"readoutError"`
}

// WithDefaults returns a copy of the QVMConfig with any missing fields
// set to their default values.
func (c QVMConfig) WithDefaults() QVMConfig {
	cpy := c
	if cpy.BaseShots == 0 {
		cpy.BaseShots = defaultBaseShots
	}
	if cpy.CompileCacheSize == 0 {
		cpy.CompileCacheSize = defaultCompileCacheSize
	}
	return cpy
}

// EvaluationConfig configures how cost functions report energies.
type EvaluationConfig struct {
	// Shots assumed by the wavefunction deviation and noise model.
	Shots int `yaml:"shots"`
	// Number of QVM batches per evaluation.
	ShotMultiplier int `yaml:"shotMultiplier"`
	// ReturnDeviation reports the statistical deviation beside the energy.
	ReturnDeviation bool `yaml:"returnDeviation"`
	// Noisy perturbs exact expectation values with sampling noise.
	Noisy bool `yaml:"noisy"`
	// Seed for the sampling-noise source. Zero selects a time-derived seed.
	Seed int64 `yaml:"seed"`
}

// WithDefaults returns a copy of the EvaluationConfig with any missing
// fields set to their default values.
func (c EvaluationConfig) WithDefaults() EvaluationConfig {
	cpy := c
	if cpy.Shots == 0 {
		cpy.Shots = defaultEvaluationShots
	}
	if cpy.ShotMultiplier == 0 {
		cpy.ShotMultiplier = defaultShotMultiplier
	}
	return cpy
}

// TraceConfig configures the persistent evaluation-trace store.
type TraceConfig struct {
	// Path of the pebble database directory. Empty disables persistence.
	Path string `yaml:"path"`
}

// WithDefaults returns a copy of the TraceConfig with any missing
// fields set to their default values.
func (c TraceConfig) WithDefaults() TraceConfig {
	return c
}

// SweepConfig configures concurrent landscape scans.
type SweepConfig struct {
	// Number of concurrent evaluation streams. Zero selects GOMAXPROCS.
	Parallelism int `yaml:"parallelism"`
}

// WithDefaults returns a copy of the SweepConfig with any missing
// fields set to their default values.
func (c SweepConfig) WithDefaults() SweepConfig {
	cpy := c
	if cpy.Parallelism == 0 {
		cpy.Parallelism = runtime.GOMAXPROCS(0)
	}
	return cpy
}

// Config is the root configuration document.
type Config struct {
	QVM        QVMConfig        `yaml:"qvm"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Trace      TraceConfig      `yaml:"trace"`
	Sweep      SweepConfig      `yaml:"sweep"`
	// Debug switches the created logger to development mode.
	Debug bool `yaml:"debug"`
}

// WithDefaults returns a copy of the Config with any missing fields set
// to their default values.
func (c Config) WithDefaults() Config {
	cpy := c
	cpy.QVM = cpy.QVM.WithDefaults()
	cpy.Evaluation = cpy.Evaluation.WithDefaults()
	cpy.Trace = cpy.Trace.WithDefaults()
	cpy.Sweep = cpy.Sweep.WithDefaults()
	return cpy
}

// Load reads a YAML config file and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg = cfg.WithDefaults()
	return &cfg, nil
}
