package film

import "math"

// PredictedRecord is a record with the model's prediction attached.
type PredictedRecord struct {
	TeamGameRecord
	Prediction float64
}

// Predict applies the model to every row. Rows with a missing feature get a NaN prediction.
func Predict(m *RegressionModel, rows []TeamGameRecord) ([]PredictedRecord, error) {
	out := make([]PredictedRecord, len(rows))
	for i := range rows {
		pred := m.Intercept
		for j, f := range m.Fields {
			v, err := rows[i].Numeric(f)
			if err != nil {
				return nil, err
			}
			pred += m.Coefficients[j] * v
		}
		out[i] = PredictedRecord{TeamGameRecord: rows[i], Prediction: pred}
	}
	return out, nil
}

// Score returns the bounded coefficient of determination, 1 - min(1, RSS/TSS), of the predictions
// against the dependent field. The mean and TSS run over every row with an actual value; RSS skips rows
// whose prediction is NaN. A poor fit floors at zero rather than going negative.
func Score(rows []PredictedRecord, dependent string) (float64, error) {
	actual := make([]float64, 0, len(rows))
	pred := make([]float64, 0, len(rows))
	for i := range rows {
		a, err := rows[i].Numeric(dependent)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(a) {
			continue
		}
		actual = append(actual, a)
		pred = append(pred, rows[i].Prediction)
	}

	var mean float64
	for _, a := range actual {
		mean += a
	}
	mean /= float64(len(actual))

	var rss, tss float64
	scored := 0
	for i, a := range actual {
		d := a - mean
		tss += d * d
		if math.IsNaN(pred[i]) {
			continue
		}
		r := a - pred[i]
		rss += r * r
		scored++
	}
	if scored == 0 {
		return 0, &DegenerateScoreError{}
	}

	if tss == 0 {
		if rss == 0 {
			return 1, nil
		}
		return 0, &DegenerateScoreError{Rows: len(actual), RSS: rss}
	}
	return 1 - math.Min(1, rss/tss), nil
}
