// Package config loads the engine configuration and the dataset snapshot
// from JSON or YAML files, with environment variable overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/acadterm/timetabler/core/calendar"
	"github.com/acadterm/timetabler/core/constraint"
	"github.com/acadterm/timetabler/core/engine"
	"github.com/acadterm/timetabler/core/metrics"
	"github.com/acadterm/timetabler/core/normalize"
)

// Config is the root configuration document. Dataset points at the
// snapshot file exported by the surrounding CRUD layer.
type Config struct {
	Dataset      string                `json:"dataset"`
	WorkingHours calendar.WorkingHours `json:"working_hours"`
	Rules        constraint.Rules      `json:"rules"`
	Engine       engine.Config         `json:"engine"`
	Metrics      metrics.Config        `json:"metrics"`
}

// Load reads the configuration at path. Environment variables prefixed
// with TT_ override file values, with __ separating nested keys
// (TT_ENGINE__RUNS=8 overrides engine.runs).
func Load(path string) (*Config, error) {
	k, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("TT_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "tt_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.WorkingHours.SetDefaults()
	cfg.Rules.SetDefaults()
	cfg.Engine.SetDefaults()
	if cfg.Dataset == "" {
		return nil, fmt.Errorf("config %s: dataset path missing", path)
	}
	if !filepath.IsAbs(cfg.Dataset) {
		cfg.Dataset = filepath.Join(filepath.Dir(path), cfg.Dataset)
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSnapshot reads the dataset snapshot at path.
func LoadSnapshot(path string) (normalize.Snapshot, error) {
	var snap normalize.Snapshot
	k, err := loadFile(path)
	if err != nil {
		return snap, err
	}
	if err := k.UnmarshalWithConf("", &snap, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return snap, err
	}
	if len(snap.Courses) == 0 {
		return snap, fmt.Errorf("snapshot %s: no courses", path)
	}
	return snap, nil
}

func loadFile(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	return k, nil
}
