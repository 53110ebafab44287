package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/reallyasi9/film-margin/internal/film"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParameters() *film.ModelParameters {
	return &film.ModelParameters{
		Descriptive: film.CoefficientSet{
			Coefficients: map[string]float64{"overall_grade": 1.25, "opponent_overall_grade": -1.25},
			Intercept:    0.5,
		},
		Predictive: film.CoefficientSet{
			Coefficients: map[string]float64{"overall_grade": 0.5, "opponent_overall_grade": -0.4, "pass_grade": 0.1, "run_defense_grade": 0.05},
			Intercept:    -12,
		},
		UpdatedThrough: film.SeasonWeek{Season: 2023, Week: 22},
	}
}

func TestFileStore(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"json", "config.json"},
		{"yaml", "params.yaml"},
		{"yml", "nested/dir/params.yml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := NewFileStore(filepath.Join(t.TempDir(), tt.file))

			_, err := s.Read(ctx)
			require.ErrorIs(t, err, ErrNoParameters)

			require.NoError(t, s.Write(ctx, testParameters()))
			got, err := s.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, testParameters(), got)
		})
	}
}

func TestFileStore_JSONLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, NewFileStore(path).Write(context.Background(), testParameters()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "\n    \"descriptive\": {")
	assert.Contains(t, string(b), "\"intercept\": -12")
	assert.Contains(t, string(b), "\"updated_through\": {")
}

func TestFileStore_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"descriptive": {"overall_grade": 1}}`), 0o644))

	_, err := NewFileStore(path).Read(context.Background())
	assert.ErrorContains(t, err, "intercept")
	assert.NotErrorIs(t, err, ErrNoParameters)
}
