package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reallyasi9/film-margin/internal/film"
	"github.com/reallyasi9/film-margin/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "anon")
	t.Setenv("SUPABASE_TABLE", "team_grades")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_TTL", "")
	os.Unsetenv("REDIS_TTL")
	t.Setenv("GCP_PROJECT", "")
	t.Setenv("SCHEDULE_URL", "")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://example.supabase.co", env.SupabaseURL)
	assert.Equal(t, "team_grades", env.SupabaseTable)
	assert.Equal(t, "localhost:6379", env.RedisAddr)
	assert.Equal(t, 6*time.Hour, env.RedisTTL)
	assert.Equal(t, schedule.DefaultURL, env.ScheduleURL)

	t.Setenv("REDIS_TTL", "15m")
	env, err = LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, env.RedisTTL)
}

func TestLoadEnv_Required(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "anon")
	t.Setenv("SUPABASE_TABLE", "")
	os.Unsetenv("SUPABASE_TABLE")

	_, err := LoadEnv()
	assert.ErrorContains(t, err, "SUPABASE_TABLE")
}

func TestDefaultExperiment(t *testing.T) {
	exp := DefaultExperiment()
	require.NoError(t, exp.Validate())
	assert.Len(t, exp.Features, 15)
	assert.Equal(t, exp.Features, film.DedupeFields(exp.Features))
	assert.Equal(t, 1000, exp.Rounds)

	cfg := exp.Config()
	assert.Equal(t, []string{"season", "team"}, cfg.WindowFields)
	assert.Equal(t, exp.Features, cfg.Features)

	// Callers may modify the defaults without touching package state.
	exp.Dependents[0] = "pf"
	assert.Equal(t, "margin", film.DefaultDependents[0])
}

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadExperiment(t *testing.T) {
	path := writeFile(t, `
features: [overall_grade, pass_grade, opponent_overall_grade]
window_fields: [season]
rounds: 25
seed: 99
workers: 2
`)
	exp, err := LoadExperiment(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"overall_grade", "pass_grade", "opponent_overall_grade"}, exp.Features)
	assert.Equal(t, []string{"season"}, exp.WindowFields)
	assert.Equal(t, 25, exp.Rounds)
	assert.Equal(t, int64(99), exp.Seed)
	assert.Equal(t, 2, exp.Workers)
	assert.Equal(t, film.DefaultDependents, exp.Dependents, "unset keys keep defaults")
	assert.Equal(t, film.PredictiveFields, exp.PredictiveFields)
}

func TestLoadExperiment_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "round: 4\n", "round"},
		{"zero rounds", "rounds: 0\n", "rounds must be positive"},
		{"unknown feature", "features: [overall_grade, vibes_grade]\n", "vibes_grade"},
		{"unknown window", "window_fields: [division]\n", "division"},
		{"unknown dependent", "dependents: [spread]\n", "spread"},
		{"repeated model field", "predictive_fields: [overall_grade, pass_grade, overall_grade]\n", "predictive_fields repeats"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadExperiment(writeFile(t, tt.content))
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := LoadExperiment(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
