package supabase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/reallyasi9/film-margin/internal/film"
)

// GradeRow is one game of the grades table: both teams' scores and their grades.
// A nil grade is a null in the table.
type GradeRow struct {
	GameID    string
	Season    int
	Week      int
	HomeTeam  string
	AwayTeam  string
	HomeScore float64
	AwayScore float64
	Home      [film.NumGradeKinds]*float64
	Away      [film.NumGradeKinds]*float64
}

// Game converts the row to a film.GameRecord, with null grades as NaN.
func (r GradeRow) Game() film.GameRecord {
	g := film.GameRecord{
		GameID:    r.GameID,
		Season:    r.Season,
		Week:      r.Week,
		HomeTeam:  r.HomeTeam,
		AwayTeam:  r.AwayTeam,
		HomeScore: r.HomeScore,
		AwayScore: r.AwayScore,
	}
	for k := 0; k < film.NumGradeKinds; k++ {
		g.Home[k] = deref(r.Home[k])
		g.Away[k] = deref(r.Away[k])
	}
	return g
}

func deref(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func column(side string, k film.GradeKind) string {
	return side + "_" + k.Field()
}

// MarshalJSON writes the row with the table's column names.
func (r GradeRow) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{
		"game_id":    r.GameID,
		"season":     r.Season,
		"week":       r.Week,
		"home_team":  r.HomeTeam,
		"away_team":  r.AwayTeam,
		"home_score": r.HomeScore,
		"away_score": r.AwayScore,
	}
	for k := film.GradeKind(0); int(k) < film.NumGradeKinds; k++ {
		m[column("home", k)] = r.Home[k]
		m[column("away", k)] = r.Away[k]
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads a row from the table's column names. Columns it does not know are ignored.
func (r *GradeRow) UnmarshalJSON(b []byte) error {
	var m map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return err
	}

	var row GradeRow
	var err error
	if row.GameID, err = text(m, "game_id"); err != nil {
		return err
	}
	if row.HomeTeam, err = text(m, "home_team"); err != nil {
		return err
	}
	if row.AwayTeam, err = text(m, "away_team"); err != nil {
		return err
	}
	ints := []struct {
		col string
		dst *int
	}{{"season", &row.Season}, {"week", &row.Week}}
	for _, c := range ints {
		v, err := number(m, c.col)
		if err != nil {
			return err
		}
		if v == nil {
			return fmt.Errorf("column %s is null", c.col)
		}
		*c.dst = int(*v)
	}
	scores := []struct {
		col string
		dst *float64
	}{{"home_score", &row.HomeScore}, {"away_score", &row.AwayScore}}
	for _, c := range scores {
		v, err := number(m, c.col)
		if err != nil {
			return err
		}
		*c.dst = deref(v)
	}
	for k := film.GradeKind(0); int(k) < film.NumGradeKinds; k++ {
		if row.Home[k], err = number(m, column("home", k)); err != nil {
			return err
		}
		if row.Away[k], err = number(m, column("away", k)); err != nil {
			return err
		}
	}
	*r = row
	return nil
}

func text(m map[string]interface{}, col string) (string, error) {
	switch v := m[col].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	default:
		return "", fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}

func number(m map[string]interface{}, col string) (*float64, error) {
	switch v := m[col].(type) {
	case nil:
		return nil, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}
