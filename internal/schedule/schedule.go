// Package schedule reads the nflverse game schedule and attaches its canonical game ids to graded games.
package schedule

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/reallyasi9/film-margin/internal/film"
)

// DefaultURL is the nflverse games file.
const DefaultURL = "https://raw.githubusercontent.com/nflverse/nfldata/master/data/games.csv"

// Game is one played game of the schedule.
type Game struct {
	GameID    string
	Season    int
	Week      int
	HomeTeam  string
	AwayTeam  string
	HomeScore float64
	AwayScore float64
	// Result is the home margin.
	Result float64
}

var required = []string{"game_id", "season", "week", "home_team", "away_team", "result"}

// Fetch downloads and parses the schedule at url.
func Fetch(ctx context.Context, client *http.Client, url string) ([]Game, error) {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("schedule status %d: %s", resp.StatusCode, string(body))
	}
	return Read(resp.Body)
}

// Read parses a games CSV. Columns are found by header name. Games without a result have not been played and are skipped.
func Read(r io.Reader) ([]Game, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	// first line contains the header information
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("schedule has no %s column", name)
		}
	}

	var games []Game
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if record[col["result"]] == "" {
			continue
		}

		g := Game{
			GameID:    record[col["game_id"]],
			HomeTeam:  record[col["home_team"]],
			AwayTeam:  record[col["away_team"]],
			HomeScore: math.NaN(),
			AwayScore: math.NaN(),
		}
		if g.Season, err = strconv.Atoi(record[col["season"]]); err != nil {
			return nil, fmt.Errorf("line %d: season: %w", line, err)
		}
		if g.Week, err = strconv.Atoi(record[col["week"]]); err != nil {
			return nil, fmt.Errorf("line %d: week: %w", line, err)
		}
		if g.Result, err = strconv.ParseFloat(record[col["result"]], 64); err != nil {
			return nil, fmt.Errorf("line %d: result: %w", line, err)
		}
		if i, ok := col["home_score"]; ok {
			g.HomeScore = parseOrNaN(record[i])
		}
		if i, ok := col["away_score"]; ok {
			g.AwayScore = parseOrNaN(record[i])
		}
		games = append(games, g)
	}
	return games, nil
}

func parseOrNaN(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN() // Not an error, just missing data
	}
	return v
}

type matchup struct {
	season int
	week   int
	home   string
	away   string
}

// Join replaces the game ids of graded games with the schedule's. Graded games with no
// played schedule entry are dropped; their number is returned.
func Join(graded []film.GameRecord, games []Game) ([]film.GameRecord, int) {
	ids := make(map[matchup]string, len(games))
	for _, g := range games {
		ids[matchup{g.Season, g.Week, g.HomeTeam, g.AwayTeam}] = g.GameID
	}

	out := make([]film.GameRecord, 0, len(graded))
	dropped := 0
	for _, g := range graded {
		id, ok := ids[matchup{g.Season, g.Week, g.HomeTeam, g.AwayTeam}]
		if !ok {
			dropped++
			continue
		}
		g.GameID = id
		out = append(out, g)
	}
	return out, dropped
}
