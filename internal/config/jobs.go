package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Job describes a batch fetch: which bodies, over which window, at what
// resolution. Jobs live in their own YAML files, separate from the
// application configuration.
type Job struct {
	// Bodies are Horizons designations: small-body record numbers ("1"),
	// provisional designations ("2024 YR4"), or comet designations
	// ("C/2023 A3").
	Bodies []string `yaml:"bodies"`

	Start time.Time     `yaml:"start"`
	Stop  time.Time     `yaml:"stop"`
	Step  time.Duration `yaml:"step"`

	// RefineDepth is how many levels of finer-step re-fetching to run
	// around element discontinuities. Zero disables refinement.
	RefineDepth int `yaml:"refine_depth"`
}

// LoadJob reads and validates a job file.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("job file %s: %w", path, err)
	}
	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("job file %s: %w", path, err)
	}
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("job file %s: %w", path, err)
	}
	return &job, nil
}

// Validate checks the job for the mistakes a hand-edited file invites.
func (j *Job) Validate() error {
	if len(j.Bodies) == 0 {
		return fmt.Errorf("no bodies listed")
	}
	if j.Start.IsZero() || j.Stop.IsZero() {
		return fmt.Errorf("start and stop are required")
	}
	if !j.Stop.After(j.Start) {
		return fmt.Errorf("stop %s is not after start %s", j.Stop.Format(time.RFC3339), j.Start.Format(time.RFC3339))
	}
	if j.Step <= 0 {
		return fmt.Errorf("step must be positive")
	}
	if j.RefineDepth < 0 {
		return fmt.Errorf("refine_depth cannot be negative")
	}
	return nil
}
