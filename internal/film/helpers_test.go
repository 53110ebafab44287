package film

import (
	"fmt"
	"math/rand"
)

// linearRows builds one row per (team, season) whose margin is an exact linear function of two grades.
// Other grades are uniform noise.
func linearRows(src rand.Source, teams, seasons int, intercept, bOverall, bOppOverall float64) []TeamGameRecord {
	rng := rand.New(src)
	rows := make([]TeamGameRecord, 0, teams*seasons)
	for s := 0; s < seasons; s++ {
		for t := 0; t < teams; t++ {
			var own, opp Grades
			for k := range own {
				own[k] = 40 + 50*rng.Float64()
				opp[k] = 40 + 50*rng.Float64()
			}
			margin := intercept + bOverall*own[Overall] + bOppOverall*opp[Overall]
			rows = append(rows, TeamGameRecord{
				GameID:         fmt.Sprintf("%d_%02d_T%02d", 2010+s, 1, t),
				Season:         2010 + s,
				Week:           1,
				Team:           fmt.Sprintf("T%02d", t),
				Opponent:       fmt.Sprintf("O%02d", t),
				Grades:         own,
				OpponentGrades: opp,
				Margin:         margin,
				SeasonalMargin: margin,
			})
		}
	}
	return rows
}

func rowID(r TeamGameRecord) string {
	return r.GameID + "/" + r.Team
}
