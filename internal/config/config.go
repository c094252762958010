// Package config handles configuration loading and management for
// covfuzz, using a yaml-tagged struct with an explicit default and
// validation pass.
package config

import (
	"fmt"
	"os"

	"github.com/covfuzz/covfuzz/internal/engine"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration a covfuzz run is driven by.
type Config struct {
	Target TargetConfig `yaml:"target"`
	Engine EngineConfig `yaml:"engine"`
	Output OutputConfig `yaml:"output"`
}

// TargetConfig names the binary under test and how input reaches it.
type TargetConfig struct {
	Command  []string `yaml:"command"`   // e.g. ["./target", "@@"]
	CFGFile  string   `yaml:"cfg_file"`  // path to the CFG JSON
	InputDir string   `yaml:"input_dir"` // seed corpus directory
}

// EngineConfig carries the knobs the fuzzing loop and coverage metrics
// need.
type EngineConfig struct {
	LoopBoundK  int      `yaml:"loop_bound_k"`  // K, the per-loop unroll bound
	ShmSize     int      `yaml:"shm_size"`      // trace buffer size in bytes
	UseCov      []string `yaml:"use_cov"`       // metric subset the driver projects onto
	MutationsPerTestCase int `yaml:"mutations_per_test_case"`
}

// OutputConfig controls where results land and whether the optional
// live dashboard runs.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	EnableTUI bool   `yaml:"enable_tui"`
	Verbose   bool   `yaml:"verbose"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			LoopBoundK:           2,
			ShmSize:              512 * 1024 * 1024,
			UseCov:               []string{"block", "edge", "perfunction"},
			MutationsPerTestCase: 1,
		},
		Output: OutputConfig{
			Dir:       "output",
			EnableTUI: false,
		},
	}
}

// Load reads a YAML config file at path, starting from DefaultConfig
// so unset fields keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate refuses to start with an empty use_cov after parsing.
func (c *Config) Validate() error {
	if len(c.Engine.UseCov) == 0 {
		return fmt.Errorf("config: %w", engine.ErrEmptyUseCov)
	}
	return nil
}
