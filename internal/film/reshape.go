package film

import "sort"

// Reshape turns each game into two team-perspective records, home side first.
// Margins and seasonal margins are filled in; grades pass through untouched, missing or not.
func Reshape(games []GameRecord) []TeamGameRecord {
	out := make([]TeamGameRecord, 0, 2*len(games))
	for _, g := range games {
		out = append(out,
			TeamGameRecord{
				GameID:         g.GameID,
				Season:         g.Season,
				Week:           g.Week,
				Team:           g.HomeTeam,
				Opponent:       g.AwayTeam,
				PF:             g.HomeScore,
				PA:             g.AwayScore,
				Grades:         g.Home,
				OpponentGrades: g.Away,
			},
			TeamGameRecord{
				GameID:         g.GameID,
				Season:         g.Season,
				Week:           g.Week,
				Team:           g.AwayTeam,
				Opponent:       g.HomeTeam,
				PF:             g.AwayScore,
				PA:             g.HomeScore,
				Grades:         g.Away,
				OpponentGrades: g.Home,
			},
		)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Team != out[j].Team {
			return out[i].Team < out[j].Team
		}
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].Week < out[j].Week
	})

	addSeasonalMargin(out)
	return out
}

type teamSeason struct {
	team   string
	season int
}

func addSeasonalMargin(rows []TeamGameRecord) {
	type acc struct {
		sum float64
		n   int
	}
	totals := make(map[teamSeason]*acc)
	for i := range rows {
		rows[i].Margin = rows[i].PF - rows[i].PA
		k := teamSeason{rows[i].Team, rows[i].Season}
		a, ok := totals[k]
		if !ok {
			a = &acc{}
			totals[k] = a
		}
		a.sum += rows[i].Margin
		a.n++
	}
	for i := range rows {
		a := totals[teamSeason{rows[i].Team, rows[i].Season}]
		rows[i].SeasonalMargin = a.sum / float64(a.n)
	}
}
