// Package export writes margins and experiment results to CSV files and a SQLite archive.
package export

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/reallyasi9/film-margin/internal/film"
)

// MarginColumns is the header of the margins file.
var MarginColumns = []string{
	"game_id", "season", "week", "team", "opponent", "pf", "pa", "margin",
	"film_margin", "film_margin_predictive", "film_margin_old_model", "win_probability",
}

// ReportColumns is the header of the report file.
var ReportColumns = []string{"field_left_out", "dependent", "train_rsq", "test_rsq", "train_lift", "test_lift"}

// formatFloat writes missing values as empty cells.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteMargins writes one line per team-game.
func WriteMargins(w io.Writer, margins []film.FilmMargin) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MarginColumns); err != nil {
		return err
	}
	for _, m := range margins {
		record := []string{
			m.GameID,
			strconv.Itoa(m.Season),
			strconv.Itoa(m.Week),
			m.Team,
			m.Opponent,
			formatFloat(m.PF),
			formatFloat(m.PA),
			formatFloat(m.Margin),
			formatFloat(m.FilmMargin),
			formatFloat(m.FilmMarginPredictive),
			formatFloat(m.FilmMarginOldModel),
			formatFloat(m.WinProbability),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReport writes the aggregated report rows in their report order.
func WriteReport(w io.Writer, rows []film.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportColumns); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.FieldLeftOut,
			r.Dependent,
			formatFloat(r.TrainR2),
			formatFloat(r.TestR2),
			formatFloat(r.TrainLift),
			formatFloat(r.TestLift),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
