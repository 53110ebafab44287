package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/reallyasi9/film-margin/internal/film"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMargins(t *testing.T) {
	margins := []film.FilmMargin{
		{GameID: "2022_01_BUF_LA", Season: 2022, Week: 1, Team: "BUF", Opponent: "LA", PF: 31, PA: 10, Margin: 21,
			FilmMargin: 14.25, FilmMarginPredictive: 6.5, FilmMarginOldModel: 12.1, WinProbability: 0.85},
		{GameID: "2022_01_BUF_LA", Season: 2022, Week: 1, Team: "LA", Opponent: "BUF", PF: 10, PA: 31, Margin: -21,
			FilmMargin: math.NaN(), FilmMarginPredictive: math.NaN(), FilmMarginOldModel: math.NaN(), WinProbability: math.NaN()},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteMargins(&buf, margins))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, MarginColumns, records[0])
	assert.Equal(t, []string{"2022_01_BUF_LA", "2022", "1", "BUF", "LA", "31", "10", "21", "14.25", "6.5", "12.1", "0.85"}, records[1])
	assert.Equal(t, []string{"2022_01_BUF_LA", "2022", "1", "LA", "BUF", "10", "31", "-21", "", "", "", ""}, records[2])
}

func testReport() *film.AggregateReport {
	return &film.AggregateReport{
		Rounds: 50,
		Rows: []film.ReportRow{
			{FieldLeftOut: "overall_grade", Dependent: "margin", TrainR2: 0.31, TestR2: 0.29, TrainLift: -0.12, TestLift: -0.11},
			{FieldLeftOut: "tackle_grade", Dependent: "margin", TrainR2: 0.43, TestR2: 0.41, TrainLift: 0.0001, TestLift: 0.002},
		},
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, testReport().Rows))
	want := "field_left_out,dependent,train_rsq,test_rsq,train_lift,test_lift\n" +
		"overall_grade,margin,0.31,0.29,-0.12,-0.11\n" +
		"tackle_grade,margin,0.43,0.41,0.0001,0.002\n"
	assert.Equal(t, want, buf.String())
}

func TestArchive(t *testing.T) {
	ctx := context.Background()
	a, err := OpenArchive(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer a.Close()
	stamp := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return stamp }

	cfg := film.ExperimentConfig{
		Features:     []string{"overall_grade", "tackle_grade", "overall_grade"},
		WindowFields: []string{"season", "team"},
		Rounds:       50,
		Seed:         7,
	}
	first, err := a.SaveRun(ctx, cfg, 1200, testReport())
	require.NoError(t, err)
	cfg.Seed = 8
	cfg.Dependents = []string{"margin"}
	second, err := a.SaveRun(ctx, cfg, 1300, testReport())
	require.NoError(t, err)
	assert.Greater(t, second, first)

	runs, err := a.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, Run{
		ID:           first,
		CreatedAt:    stamp,
		Rounds:       50,
		Seed:         7,
		Features:     []string{"overall_grade", "tackle_grade"},
		WindowFields: []string{"season", "team"},
		Dependents:   []string{"margin", "seasonal_margin"},
		Records:      1200,
	}, runs[1])
	assert.Equal(t, []string{"margin"}, runs[0].Dependents)
	assert.Equal(t, "run 1  2024-09-01T12:00:00Z  rounds=50 seed=7 records=1200 features=overall_grade,tackle_grade window=season,team dependents=margin,seasonal_margin", runs[1].String())

	rows, err := a.Report(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, testReport().Rows, rows)

	_, err = a.Report(ctx, 999)
	assert.ErrorContains(t, err, "no report rows")
}

func TestArchive_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")
	a, err := OpenArchive(path)
	require.NoError(t, err)
	id, err := a.SaveRun(ctx, film.ExperimentConfig{Features: []string{"overall_grade"}, Rounds: 1}, 10, &film.AggregateReport{Rounds: 1, Rows: testReport().Rows[:1]})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	a, err = OpenArchive(path)
	require.NoError(t, err)
	defer a.Close()
	runs, err := a.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Empty(t, runs[0].WindowFields)
}
