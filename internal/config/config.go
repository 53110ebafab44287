// Package config loads credentials from the environment and experiment definitions from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/reallyasi9/film-margin/internal/film"
	"github.com/reallyasi9/film-margin/internal/schedule"
	"gopkg.in/yaml.v2"
)

// Env holds the connection settings shared by every command.
type Env struct {
	SupabaseURL   string        `envconfig:"SUPABASE_URL" required:"true"`
	SupabaseKey   string        `envconfig:"SUPABASE_KEY" required:"true"`
	SupabaseTable string        `envconfig:"SUPABASE_TABLE" required:"true"`
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisTTL      time.Duration `envconfig:"REDIS_TTL" default:"6h"`
	GCPProject    string        `envconfig:"GCP_PROJECT"`
	ScheduleURL   string        `envconfig:"SCHEDULE_URL"`
}

// LoadEnv reads Env from environment variables.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if env.ScheduleURL == "" {
		env.ScheduleURL = schedule.DefaultURL
	}
	return &env, nil
}

// Experiment is the YAML definition of an ablation experiment and of the production models.
type Experiment struct {
	Features          []string `yaml:"features"`
	WindowFields      []string `yaml:"window_fields"`
	Dependents        []string `yaml:"dependents"`
	Rounds            int      `yaml:"rounds"`
	Seed              int64    `yaml:"seed"`
	Workers           int      `yaml:"workers"`
	DescriptiveFields []string `yaml:"descriptive_fields"`
	PredictiveFields  []string `yaml:"predictive_fields"`
}

// DefaultExperiment is the experiment used to pick the production features.
func DefaultExperiment() Experiment {
	return Experiment{
		Features: []string{
			"overall_grade",
			"offense_grade", "pass_grade", "pass_block_grade", "pass_route_grade", "run_grade", "run_block_grade",
			"defense_grade", "coverage_defense_grade", "pass_rush_defense_grade", "run_defense_grade",
			"opponent_overall_grade", "opponent_offense_grade", "opponent_pass_grade", "opponent_coverage_defense_grade",
		},
		WindowFields:      []string{"season", "team"},
		Dependents:        append([]string(nil), film.DefaultDependents...),
		Rounds:            1000,
		Seed:              1,
		DescriptiveFields: append([]string(nil), film.DescriptiveFields...),
		PredictiveFields:  append([]string(nil), film.PredictiveFields...),
	}
}

// LoadExperiment reads an experiment file. Keys missing from the file keep their DefaultExperiment values.
func LoadExperiment(path string) (Experiment, error) {
	exp := DefaultExperiment()
	data, err := os.ReadFile(path)
	if err != nil {
		return exp, err
	}
	if err := yaml.UnmarshalStrict(data, &exp); err != nil {
		return exp, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := exp.Validate(); err != nil {
		return exp, fmt.Errorf("%s: %w", path, err)
	}
	return exp, nil
}

// Validate checks that every named field exists on a team-game record and that no model field is repeated.
func (e Experiment) Validate() error {
	if e.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive, got %d", e.Rounds)
	}
	if len(e.Features) == 0 {
		return fmt.Errorf("no features")
	}
	var blank film.TeamGameRecord
	numeric := [][]string{e.Features, e.Dependents, e.DescriptiveFields, e.PredictiveFields}
	for _, fields := range numeric {
		for _, f := range fields {
			if _, err := blank.Numeric(f); err != nil {
				return err
			}
		}
	}
	for name, fields := range map[string][]string{"descriptive_fields": e.DescriptiveFields, "predictive_fields": e.PredictiveFields} {
		if len(film.DedupeFields(fields)) != len(fields) {
			return fmt.Errorf("%s repeats a field", name)
		}
	}
	for _, f := range e.WindowFields {
		if _, err := blank.Key(f); err != nil {
			return err
		}
	}
	return nil
}

// Config converts the experiment to the form run by film.RunExperiment.
func (e Experiment) Config() film.ExperimentConfig {
	return film.ExperimentConfig{
		Features:     e.Features,
		WindowFields: e.WindowFields,
		Dependents:   e.Dependents,
		Rounds:       e.Rounds,
		Seed:         e.Seed,
		Workers:      e.Workers,
	}
}
