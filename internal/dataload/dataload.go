// Package dataload assembles team-game records from the grades table and the game schedule.
package dataload

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/reallyasi9/film-margin/internal/film"
	"github.com/reallyasi9/film-margin/internal/schedule"
	"github.com/reallyasi9/film-margin/internal/supabase"
	"golang.org/x/sync/errgroup"
)

// Sources names where the grades and the schedule come from.
type Sources struct {
	Grades      supabase.Source
	ScheduleURL string
	// HTTPClient fetches the schedule. Nil uses a default client.
	HTTPClient *http.Client
}

// Load downloads grades and schedule concurrently, joins them on matchup and reshapes to one row per team-game.
func Load(ctx context.Context, src Sources) ([]film.TeamGameRecord, error) {
	var rows []supabase.GradeRow
	var games []schedule.Game

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = src.Grades.Grades(ctx)
		if err != nil {
			return fmt.Errorf("grades: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		games, err = schedule.Fetch(ctx, src.HTTPClient, src.ScheduleURL)
		if err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	graded := make([]film.GameRecord, len(rows))
	for i, r := range rows {
		graded[i] = r.Game()
	}
	joined, dropped := schedule.Join(graded, games)
	if dropped > 0 {
		slog.Warn("graded games missing from schedule", "dropped", dropped, "kept", len(joined))
	}

	records := film.Reshape(joined)
	slog.Info("loaded team games", "graded_games", len(rows), "scheduled_games", len(games), "team_games", len(records))
	return records, nil
}
