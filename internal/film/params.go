package film

import (
	"encoding/json"
	"fmt"
	"sort"

	yaml "gopkg.in/yaml.v2"
)

// InterceptKey is the key under which a coefficient set stores its intercept.
const InterceptKey = "intercept"

// DescriptiveFields are the default features of the descriptive (same-game margin) model.
var DescriptiveFields = []string{"overall_grade", "opponent_overall_grade"}

// PredictiveFields are the default features of the predictive (seasonal margin) model.
var PredictiveFields = []string{"overall_grade", "opponent_overall_grade", "pass_grade", "run_defense_grade"}

// CoefficientSet is a named-field linear model as persisted: {field: coef, ..., intercept: value}.
type CoefficientSet struct {
	Coefficients map[string]float64
	Intercept    float64
}

// NewCoefficientSet builds a coefficient set from a fitted model.
func NewCoefficientSet(m *RegressionModel) CoefficientSet {
	cs := CoefficientSet{Coefficients: make(map[string]float64, len(m.Fields)), Intercept: m.Intercept}
	for i, f := range m.Fields {
		cs.Coefficients[f] = m.Coefficients[i]
	}
	return cs
}

// Fields returns the coefficient field names in sorted order.
func (cs CoefficientSet) Fields() []string {
	fields := make([]string, 0, len(cs.Coefficients))
	for f := range cs.Coefficients {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Apply evaluates the linear model on a record.
func (cs CoefficientSet) Apply(r *TeamGameRecord) (float64, error) {
	v := cs.Intercept
	for _, f := range cs.Fields() {
		x, err := r.Numeric(f)
		if err != nil {
			return 0, err
		}
		v += cs.Coefficients[f] * x
	}
	return v, nil
}

// Map flattens the set into its persisted form.
func (cs CoefficientSet) Map() map[string]float64 {
	out := make(map[string]float64, len(cs.Coefficients)+1)
	for f, c := range cs.Coefficients {
		out[f] = c
	}
	out[InterceptKey] = cs.Intercept
	return out
}

// CoefficientSetFromMap is the inverse of Map. A missing intercept is an error.
func CoefficientSetFromMap(m map[string]float64) (CoefficientSet, error) {
	icpt, ok := m[InterceptKey]
	if !ok {
		return CoefficientSet{}, fmt.Errorf("coefficient set has no %s", InterceptKey)
	}
	cs := CoefficientSet{Coefficients: make(map[string]float64, len(m)-1), Intercept: icpt}
	for f, c := range m {
		if f != InterceptKey {
			cs.Coefficients[f] = c
		}
	}
	return cs, nil
}

// MarshalJSON implements json.Marshaler.
func (cs CoefficientSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(cs.Map())
}

// UnmarshalJSON implements json.Unmarshaler.
func (cs *CoefficientSet) UnmarshalJSON(b []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	parsed, err := CoefficientSetFromMap(m)
	if err != nil {
		return err
	}
	*cs = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler, writing fields in sorted order followed by the intercept.
func (cs CoefficientSet) MarshalYAML() (interface{}, error) {
	out := make(yaml.MapSlice, 0, len(cs.Coefficients)+1)
	for _, f := range cs.Fields() {
		out = append(out, yaml.MapItem{Key: f, Value: cs.Coefficients[f]})
	}
	out = append(out, yaml.MapItem{Key: InterceptKey, Value: cs.Intercept})
	return out, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (cs *CoefficientSet) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var m map[string]float64
	if err := unmarshal(&m); err != nil {
		return err
	}
	parsed, err := CoefficientSetFromMap(m)
	if err != nil {
		return err
	}
	*cs = parsed
	return nil
}

// SeasonWeek identifies the last week of data a model was trained on.
type SeasonWeek struct {
	Season int `json:"season" yaml:"season" firestore:"season"`
	Week   int `json:"week" yaml:"week" firestore:"week"`
}

// ModelParameters are the persisted descriptive and predictive models.
type ModelParameters struct {
	Descriptive    CoefficientSet `json:"descriptive" yaml:"descriptive"`
	Predictive     CoefficientSet `json:"predictive" yaml:"predictive"`
	UpdatedThrough SeasonWeek     `json:"updated_through" yaml:"updated_through"`
}

// TrainParameters fits the descriptive model (on margin) and the predictive model (on seasonal margin)
// using every row, with no train/test split.
func TrainParameters(rows []TeamGameRecord, descriptiveFields, predictiveFields []string) (*ModelParameters, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows to train on")
	}

	desc, err := Fit(rows, descriptiveFields, "margin")
	if err != nil {
		return nil, fmt.Errorf("descriptive model: %w", err)
	}
	pred, err := Fit(rows, predictiveFields, "seasonal_margin")
	if err != nil {
		return nil, fmt.Errorf("predictive model: %w", err)
	}

	return &ModelParameters{
		Descriptive:    NewCoefficientSet(desc),
		Predictive:     NewCoefficientSet(pred),
		UpdatedThrough: LatestWeek(rows),
	}, nil
}

// LatestWeek returns the most recent season in the rows and the last week played in it.
func LatestWeek(rows []TeamGameRecord) SeasonWeek {
	var sw SeasonWeek
	for i, r := range rows {
		if i == 0 || r.Season > sw.Season {
			sw = SeasonWeek{Season: r.Season, Week: r.Week}
			continue
		}
		if r.Season == sw.Season && r.Week > sw.Week {
			sw.Week = r.Week
		}
	}
	return sw
}
