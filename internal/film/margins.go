package film

import (
	"fmt"

	"github.com/atgjack/prob"
)

const (
	// legacyIntercept and legacyOverall define the single-grade model used before coefficient sets were trained.
	legacyIntercept = -87.728
	legacyOverall   = 1.263

	// DefaultMarginStdDev is the assumed standard deviation of game margins around the film margin.
	DefaultMarginStdDev = 13.5
)

// FilmMargin is a team's game margin alongside the margins implied by its grades.
type FilmMargin struct {
	GameID               string
	Season               int
	Week                 int
	Team                 string
	Opponent             string
	PF                   float64
	PA                   float64
	Margin               float64
	FilmMargin           float64
	FilmMarginPredictive float64
	FilmMarginOldModel   float64
	// WinProbability is the probability of a positive margin given the film margin.
	WinProbability float64
}

// MarginOptions tunes CalculateMargins.
type MarginOptions struct {
	// StdDev is the spread of actual margins around the film margin. Defaults to DefaultMarginStdDev.
	StdDev float64
}

// CalculateMargins applies the stored models to every record.
// Missing grades produce NaN margins rather than errors.
func CalculateMargins(rows []TeamGameRecord, params *ModelParameters, opts MarginOptions) ([]FilmMargin, error) {
	sigma := opts.StdDev
	if sigma <= 0 {
		sigma = DefaultMarginStdDev
	}
	dist := prob.Normal{Mu: 0, Sigma: sigma}

	out := make([]FilmMargin, len(rows))
	for i := range rows {
		r := &rows[i]
		desc, err := params.Descriptive.Apply(r)
		if err != nil {
			return nil, fmt.Errorf("descriptive model: %w", err)
		}
		pred, err := params.Predictive.Apply(r)
		if err != nil {
			return nil, fmt.Errorf("predictive model: %w", err)
		}
		out[i] = FilmMargin{
			GameID:               r.GameID,
			Season:               r.Season,
			Week:                 r.Week,
			Team:                 r.Team,
			Opponent:             r.Opponent,
			PF:                   r.PF,
			PA:                   r.PA,
			Margin:               r.PF - r.PA,
			FilmMargin:           desc,
			FilmMarginPredictive: pred,
			FilmMarginOldModel:   legacyIntercept + legacyOverall*r.Grades[Overall],
			WinProbability:       dist.Cdf(desc),
		}
	}
	return out, nil
}
