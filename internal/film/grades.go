package film

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// GradeKind identifies one dimension of a team's per-game performance grade.
type GradeKind int

const (
	Overall GradeKind = iota
	Offense
	Pass
	PassBlock
	PassRoute
	Run
	RunBlock
	Defense
	CoverageDefense
	PassRushDefense
	RunDefense
	Tackle
	MiscST

	// NumGradeKinds is the number of grade dimensions carried by every record.
	NumGradeKinds = iota
)

var gradeNames = [NumGradeKinds]string{
	"overall",
	"offense",
	"pass",
	"pass_block",
	"pass_route",
	"run",
	"run_block",
	"defense",
	"coverage_defense",
	"pass_rush_defense",
	"run_defense",
	"tackle",
	"misc_st",
}

// OpponentPrefix marks grade fields that refer to the opponent's side of a game.
const OpponentPrefix = "opponent_"

// Field returns the unprefixed field name for the grade kind, e.g. "pass_block_grade".
func (k GradeKind) Field() string {
	return gradeNames[k] + "_grade"
}

func (k GradeKind) String() string {
	if k < 0 || int(k) >= NumGradeKinds {
		return "GradeKind(" + strconv.Itoa(int(k)) + ")"
	}
	return gradeNames[k]
}

// ParseGradeField resolves a grade field name into its kind and whether it refers to the opponent.
func ParseGradeField(field string) (kind GradeKind, opponent bool, ok bool) {
	name := field
	if strings.HasPrefix(name, OpponentPrefix) {
		opponent = true
		name = name[len(OpponentPrefix):]
	}
	name, found := strings.CutSuffix(name, "_grade")
	if !found {
		return 0, false, false
	}
	for i, n := range gradeNames {
		if n == name {
			return GradeKind(i), opponent, true
		}
	}
	return 0, false, false
}

// Grades holds one side's grades for a game. Missing grades are NaN.
type Grades [NumGradeKinds]float64

// MissingGrades returns a Grades value with every grade missing.
func MissingGrades() Grades {
	var g Grades
	for i := range g {
		g[i] = math.NaN()
	}
	return g
}

// GameRecord is one played game in home/away form.
type GameRecord struct {
	GameID    string
	Season    int
	Week      int
	HomeTeam  string
	AwayTeam  string
	HomeScore float64
	AwayScore float64
	Home      Grades
	Away      Grades
}

// TeamGameRecord is one game seen from one team's side.
type TeamGameRecord struct {
	GameID         string
	Season         int
	Week           int
	Team           string
	Opponent       string
	PF             float64
	PA             float64
	Grades         Grades
	OpponentGrades Grades
	Margin         float64
	SeasonalMargin float64
}

// Numeric returns the named numeric field of the record.
func (r *TeamGameRecord) Numeric(field string) (float64, error) {
	switch field {
	case "pf":
		return r.PF, nil
	case "pa":
		return r.PA, nil
	case "margin":
		return r.Margin, nil
	case "seasonal_margin":
		return r.SeasonalMargin, nil
	case "season":
		return float64(r.Season), nil
	case "week":
		return float64(r.Week), nil
	}
	kind, opp, ok := ParseGradeField(field)
	if !ok {
		return math.NaN(), &SchemaMismatchError{Field: field}
	}
	if opp {
		return r.OpponentGrades[kind], nil
	}
	return r.Grades[kind], nil
}

// Key returns a string form of the named field, suitable for grouping records.
func (r *TeamGameRecord) Key(field string) (string, error) {
	switch field {
	case "game_id":
		return r.GameID, nil
	case "team":
		return r.Team, nil
	case "opponent":
		return r.Opponent, nil
	case "season":
		return strconv.Itoa(r.Season), nil
	case "week":
		return strconv.Itoa(r.Week), nil
	}
	v, err := r.Numeric(field)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(v, 'g', -1, 64), nil
}

func (r TeamGameRecord) String() string {
	return fmt.Sprintf("%s %d/%d %s vs %s %.0f-%.0f", r.GameID, r.Season, r.Week, r.Team, r.Opponent, r.PF, r.PA)
}
