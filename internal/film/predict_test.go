package film

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func predicted(actual, pred []float64) []PredictedRecord {
	out := make([]PredictedRecord, len(actual))
	for i := range actual {
		out[i] = PredictedRecord{TeamGameRecord: TeamGameRecord{Margin: actual[i]}, Prediction: pred[i]}
	}
	return out
}

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		actual []float64
		pred   []float64
		want   float64
	}{
		{"perfect", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"mean prediction", []float64{1, 2, 3}, []float64{2, 2, 2}, 0},
		{"half", []float64{-1, 1}, []float64{-1 + math.Sqrt(0.5), 1 - math.Sqrt(0.5)}, 0.5},
		{"wildly wrong is floored", []float64{1, 2, 3}, []float64{300, -200, 1000}, 0},
		{"missing actual ignored", []float64{1, math.NaN(), 3}, []float64{1, 2, 3}, 1},
		{"missing prediction kept in TSS", []float64{0, 10, 20}, []float64{1, 9, math.NaN()}, 0.99},
		{"missing both", []float64{1, math.NaN(), 3, 5}, []float64{1, 2, math.NaN(), 5}, 1},
		{"zero variance exact", []float64{4}, []float64{4}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Score(predicted(tt.actual, tt.pred), "margin")
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, 0.)
		})
	}
}

func TestScore_Degenerate(t *testing.T) {
	var dse *DegenerateScoreError

	_, err := Score(predicted([]float64{4, 4}, []float64{4, 5}), "margin")
	require.ErrorAs(t, err, &dse)
	assert.Equal(t, 2, dse.Rows)
	assert.Equal(t, 1., dse.RSS)

	_, err = Score(nil, "margin")
	require.ErrorAs(t, err, &dse)
	assert.Equal(t, 0, dse.Rows)

	_, err = Score(predicted([]float64{1, 2}, []float64{math.NaN(), math.NaN()}), "margin")
	require.ErrorAs(t, err, &dse)
	assert.Equal(t, 0, dse.Rows)

	_, err = Score(predicted([]float64{1}, []float64{1}), "point_diff")
	var sme *SchemaMismatchError
	assert.ErrorAs(t, err, &sme)
}

func TestPredict(t *testing.T) {
	m := &RegressionModel{
		Fields:       []string{"overall_grade", "opponent_overall_grade"},
		Coefficients: []float64{1.5, -1},
		Intercept:    -20,
	}
	var r TeamGameRecord
	r.Grades[Overall] = 70
	r.OpponentGrades[Overall] = 60
	var missing TeamGameRecord
	missing.Grades[Overall] = math.NaN()

	out, err := Predict(m, []TeamGameRecord{r, missing})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 25, out[0].Prediction, 1e-12)
	assert.Equal(t, 70., out[0].Grades[Overall])
	assert.True(t, math.IsNaN(out[1].Prediction))

	bad := &RegressionModel{Fields: []string{"vibes_grade"}, Coefficients: []float64{1}}
	_, err = Predict(bad, []TeamGameRecord{r})
	var sme *SchemaMismatchError
	assert.ErrorAs(t, err, &sme)
}
