package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/reallyasi9/film-margin/internal/film"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TEXT NOT NULL,
    rounds INTEGER NOT NULL,
    seed INTEGER NOT NULL,
    features TEXT NOT NULL,
    window_fields TEXT NOT NULL,
    dependents TEXT NOT NULL,
    records INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS report_rows (
    run_id INTEGER NOT NULL REFERENCES runs(id),
    position INTEGER NOT NULL,
    field_left_out TEXT NOT NULL,
    dependent TEXT NOT NULL,
    train_rsq REAL NOT NULL,
    test_rsq REAL NOT NULL,
    train_lift REAL NOT NULL,
    test_lift REAL NOT NULL,
    PRIMARY KEY (run_id, position)
);
`

// Run is one archived experiment.
type Run struct {
	ID           int64
	CreatedAt    time.Time
	Rounds       int
	Seed         int64
	Features     []string
	WindowFields []string
	Dependents   []string
	// Records is the number of team-game rows the experiment ran on.
	Records int
}

func (r Run) String() string {
	return fmt.Sprintf("run %d  %s  rounds=%d seed=%d records=%d features=%s window=%s dependents=%s",
		r.ID, r.CreatedAt.Format(time.RFC3339), r.Rounds, r.Seed, r.Records,
		joinFields(r.Features), joinFields(r.WindowFields), joinFields(r.Dependents))
}

// Archive is a SQLite database of experiment runs and their reports.
type Archive struct {
	db  *sql.DB
	now func() time.Time
}

// OpenArchive opens or creates the archive at path.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Archive{db: db, now: time.Now}, nil
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

func joinFields(fields []string) string {
	return strings.Join(fields, ",")
}

func splitFields(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// SaveRun stores the experiment configuration and its report rows, returning the new run id.
func (a *Archive) SaveRun(ctx context.Context, cfg film.ExperimentConfig, records int, report *film.AggregateReport) (int64, error) {
	dependents := cfg.Dependents
	if len(dependents) == 0 {
		dependents = film.DefaultDependents
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (created_at, rounds, seed, features, window_fields, dependents, records) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.now().UTC().Format(time.RFC3339Nano), report.Rounds, cfg.Seed,
		joinFields(film.DedupeFields(cfg.Features)), joinFields(cfg.WindowFields), joinFields(dependents), records)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO report_rows (run_id, position, field_left_out, dependent, train_rsq, test_rsq, train_lift, test_lift) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for i, r := range report.Rows {
		if _, err := stmt.ExecContext(ctx, id, i, r.FieldLeftOut, r.Dependent, r.TrainR2, r.TestR2, r.TrainLift, r.TestLift); err != nil {
			return 0, fmt.Errorf("insert report row %d: %w", i, err)
		}
	}
	return id, tx.Commit()
}

// Runs lists archived runs, newest first.
func (a *Archive) Runs(ctx context.Context) ([]Run, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, created_at, rounds, seed, features, window_fields, dependents, records FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created, features, window, dependents string
		if err := rows.Scan(&r.ID, &created, &r.Rounds, &r.Seed, &features, &window, &dependents, &r.Records); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("run %d created_at: %w", r.ID, err)
		}
		r.Features = splitFields(features)
		r.WindowFields = splitFields(window)
		r.Dependents = splitFields(dependents)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Report returns the report rows of a run in their original order.
func (a *Archive) Report(ctx context.Context, runID int64) ([]film.ReportRow, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT field_left_out, dependent, train_rsq, test_rsq, train_lift, test_lift FROM report_rows WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []film.ReportRow
	for rows.Next() {
		var r film.ReportRow
		if err := rows.Scan(&r.FieldLeftOut, &r.Dependent, &r.TrainR2, &r.TestR2, &r.TrainLift, &r.TestLift); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("run %d has no report rows", runID)
	}
	return out, nil
}
