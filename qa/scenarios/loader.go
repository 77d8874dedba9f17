// Package scenarios runs YAML-described scheduling scenarios end to end
// through the engine and checks the outcome against declared expectations.
// Scenario files live in testdata and double as executable documentation
// of tricky datasets.
package scenarios

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/acadterm/timetabler/core/calendar"
	"github.com/acadterm/timetabler/core/constraint"
	"github.com/acadterm/timetabler/core/normalize"
)

// Expected declares the outcome a scenario must produce.
type Expected struct {
	// Status is "complete" or "partial".
	Status string `yaml:"status"`
	// Placed is the exact number of placed occurrences, -1 to skip.
	Placed int `yaml:"placed"`
	// MaxUnplaced bounds the unplaced occurrences for partial outcomes.
	MaxUnplaced int `yaml:"max_unplaced"`
	// MaxSoftScore bounds the winner's soft score, 0 to skip.
	MaxSoftScore float64 `yaml:"max_soft_score"`
	// DataErrors is the number of entities normalization must reject.
	DataErrors int `yaml:"data_errors"`
}

// Scenario bundles a dataset, the policies and the expected outcome.
type Scenario struct {
	Name         string                `yaml:"name"`
	Description  string                `yaml:"description,omitempty"`
	Seed         int64                 `yaml:"seed"`
	Runs         int                   `yaml:"runs"`
	WorkingHours calendar.WorkingHours `yaml:"working_hours"`
	Rules        constraint.Rules      `yaml:"rules"`
	Dataset      normalize.Snapshot    `yaml:"dataset"`
	Expected     Expected              `yaml:"expected"`
}

// Load reads one scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := Scenario{Expected: Expected{Placed: -1}}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = filepath.Base(path)
	}
	if sc.Runs == 0 {
		sc.Runs = 1
	}
	return &sc, nil
}

// LoadDir reads every scenario file in dir, sorted by name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	var out []*Scenario
	for _, p := range paths {
		sc, err := Load(p)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}
