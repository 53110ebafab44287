package film

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// RegressionModel is a fitted linear model: one coefficient per field, in field order, plus an intercept.
type RegressionModel struct {
	Fields       []string
	Coefficients []float64
	Intercept    float64
	Dependent    string

	// N is the number of rows the model was fit on.
	N int
	// Warning is set when training rows were dropped for missing feature values.
	Warning *MissingFeatureWarning
}

// Coefficient returns the coefficient for the named field.
func (m *RegressionModel) Coefficient(field string) (float64, bool) {
	for i, f := range m.Fields {
		if f == field {
			return m.Coefficients[i], true
		}
	}
	return 0, false
}

func (m RegressionModel) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s ~ %+.4f", m.Dependent, m.Intercept))
	for i, f := range m.Fields {
		b.WriteString(fmt.Sprintf(" %+.4f*%s", m.Coefficients[i], f))
	}
	b.WriteString(fmt.Sprintf(" (n=%d)", m.N))
	return b.String()
}

// rankTolerance is the smallest allowed ratio of a diagonal element of R to the largest one.
const rankTolerance = 1e-10

// rankDeficient reports the first column whose diagonal element of R is negligible relative to the largest.
func rankDeficient(qr *mat.QR, p int) (int, bool) {
	var r mat.Dense
	qr.RTo(&r)
	var largest float64
	for j := 0; j < p; j++ {
		largest = math.Max(largest, math.Abs(r.At(j, j)))
	}
	for j := 0; j < p; j++ {
		if math.Abs(r.At(j, j)) <= rankTolerance*largest {
			return j, true
		}
	}
	return 0, false
}

// Fit regresses the dependent field on the feature fields plus an intercept by ordinary least squares.
// Rows missing any feature are dropped before fitting and reported on the returned model.
// Missing dependent values are not checked.
func Fit(train []TeamGameRecord, features []string, dependent string) (*RegressionModel, error) {
	fields := make([]string, len(features))
	copy(fields, features)

	var blank TeamGameRecord
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if _, err := blank.Numeric(f); err != nil {
			return nil, err
		}
		if seen[f] {
			return nil, &DegenerateModelError{Rows: len(train), Features: len(fields), Cause: fmt.Errorf("feature %s repeated", f)}
		}
		seen[f] = true
	}
	if _, err := blank.Numeric(dependent); err != nil {
		return nil, err
	}

	x := make([]float64, 0, len(train)*(len(fields)+1))
	y := make([]float64, 0, len(train))
	row := make([]float64, len(fields))

	removed := 0
	for i := range train {
		complete := true
		for j, f := range fields {
			v, err := train[i].Numeric(f)
			if err != nil {
				return nil, err
			}
			if math.IsNaN(v) {
				complete = false
				break
			}
			row[j] = v
		}
		if !complete {
			removed++
			continue
		}
		dep, err := train[i].Numeric(dependent)
		if err != nil {
			return nil, err
		}
		x = append(x, row...)
		x = append(x, 1)
		y = append(y, dep)
	}

	model := &RegressionModel{Fields: fields, Dependent: dependent, N: len(y)}
	if removed > 0 {
		model.Warning = &MissingFeatureWarning{Removed: removed, Fields: fields}
		slog.Warn("dropped training rows with missing features", "removed", removed, "fields", strings.Join(fields, ", "))
	}

	p := len(fields) + 1
	if len(y) < p {
		return nil, &DegenerateModelError{Rows: len(y), Features: len(fields)}
	}

	design := mat.NewDense(len(y), p, x)
	target := mat.NewVecDense(len(y), y)

	var qr mat.QR
	qr.Factorize(design)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, target); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, &DegenerateModelError{Rows: len(y), Features: len(fields), Cause: err}
		}
		return nil, fmt.Errorf("least squares solve: %w", err)
	}

	if j, ok := rankDeficient(&qr, p); ok {
		return nil, &DegenerateModelError{Rows: len(y), Features: len(fields), Cause: fmt.Errorf("design column %d is collinear with earlier columns", j)}
	}

	for j := 0; j < p; j++ {
		if v := beta.AtVec(j); math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &DegenerateModelError{Rows: len(y), Features: len(fields), Cause: fmt.Errorf("non-finite coefficient %d", j)}
		}
	}

	model.Coefficients = make([]float64, len(fields))
	for j := range fields {
		model.Coefficients[j] = beta.AtVec(j)
	}
	model.Intercept = beta.AtVec(len(fields))
	return model, nil
}
