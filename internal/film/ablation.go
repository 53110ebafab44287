package film

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultDependents are the dependent fields every ablation round is run against.
var DefaultDependents = []string{"margin", "seasonal_margin"}

// ExperimentConfig describes a feature-ablation experiment.
type ExperimentConfig struct {
	// Features are the candidate features. Each sub-trial drops exactly one of them.
	Features []string
	// WindowFields are the grouping fields for the per-round train/test split.
	WindowFields []string
	// Dependents defaults to DefaultDependents when empty.
	Dependents []string
	// Rounds is the number of independent random splits.
	Rounds int
	// Seed seeds the per-round random streams.
	Seed int64
	// Workers bounds the number of rounds run at once. Zero means GOMAXPROCS.
	Workers int
}

// AblationResult is the fit quality of one model fit with one feature held out.
type AblationResult struct {
	Round        int
	Dependent    string
	FieldLeftOut string
	TrainR2      float64
	TestR2       float64
	TrainLift    float64
	TestLift     float64
}

// ReportRow summarizes one (held-out field, dependent) pair across all rounds.
type ReportRow struct {
	FieldLeftOut string
	Dependent    string
	TrainR2      float64
	TestR2       float64
	// TrainLift is the mean deviation of train R² from its round's mean when this field is excluded.
	// The most negative lift marks the field whose removal hurts the fit the most.
	TrainLift float64
	TestLift  float64
}

// AggregateReport is the outcome of an experiment.
type AggregateReport struct {
	Rounds int
	Trials []AblationResult
	Rows   []ReportRow
}

func (r AggregateReport) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-36s %-16s %9s %9s %10s %10s\n", "field_left_out", "dependent", "train_rsq", "test_rsq", "train_lift", "test_lift"))
	for _, row := range r.Rows {
		b.WriteString(fmt.Sprintf("%-36s %-16s %9.5f %9.5f %+10.6f %+10.6f\n",
			row.FieldLeftOut, row.Dependent, row.TrainR2, row.TestR2, row.TrainLift, row.TestLift))
	}
	return b.String()
}

// DedupeFields returns the fields with repeated names removed, keeping first occurrences.
func DedupeFields(fields []string) []string {
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// RunExperiment runs config.Rounds randomized splits over the rows. Within a round every sub-trial shares
// the same split and drops one feature before refitting. The first fitting or scoring error aborts the run.
func RunExperiment(ctx context.Context, rows []TeamGameRecord, config ExperimentConfig) (*AggregateReport, error) {
	if config.Rounds <= 0 {
		return nil, fmt.Errorf("number of rounds must be positive, got %d", config.Rounds)
	}
	features := DedupeFields(config.Features)
	if len(features) != len(config.Features) {
		slog.Warn("duplicate features removed", "given", len(config.Features), "kept", len(features))
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("experiment needs at least one feature")
	}
	dependents := config.Dependents
	if len(dependents) == 0 {
		dependents = DefaultDependents
	}
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Seeds are drawn in round order so results do not depend on scheduling.
	master := rand.New(rand.NewSource(config.Seed))
	seeds := make([]int64, config.Rounds)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	perRound := make([][]AblationResult, config.Rounds)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range seeds {
		round := i + 1
		seed := seeds[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results, err := runRound(round, rows, features, dependents, config.WindowFields, rand.NewSource(seed))
			if err != nil {
				return err
			}
			perRound[round-1] = results
			if round%50 == 0 {
				slog.Info("ablation progress", "round", round, "of", config.Rounds)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	trials := make([]AblationResult, 0, config.Rounds*len(dependents)*len(features))
	for _, results := range perRound {
		trials = append(trials, results...)
	}
	addLift(trials)
	return &AggregateReport{Rounds: config.Rounds, Trials: trials, Rows: summarize(trials)}, nil
}

func runRound(round int, rows []TeamGameRecord, features, dependents, windowFields []string, src rand.Source) ([]AblationResult, error) {
	train, test, err := Split(rows, windowFields, src)
	if err != nil {
		return nil, fmt.Errorf("round %d: split: %w", round, err)
	}

	results := make([]AblationResult, 0, len(dependents)*len(features))
	for _, dep := range dependents {
		for i, left := range features {
			fields := make([]string, 0, len(features)-1)
			fields = append(fields, features[:i]...)
			fields = append(fields, features[i+1:]...)

			trainR2, testR2, err := fitAndScore(train, test, fields, dep)
			if err != nil {
				return nil, fmt.Errorf("round %d, dependent %s, without %s: %w", round, dep, left, err)
			}
			results = append(results, AblationResult{
				Round:        round,
				Dependent:    dep,
				FieldLeftOut: left,
				TrainR2:      trainR2,
				TestR2:       testR2,
			})
		}
	}
	return results, nil
}

func fitAndScore(train, test []TeamGameRecord, fields []string, dependent string) (trainR2, testR2 float64, err error) {
	model, err := Fit(train, fields, dependent)
	if err != nil {
		return 0, 0, err
	}
	trainPred, err := Predict(model, train)
	if err != nil {
		return 0, 0, err
	}
	testPred, err := Predict(model, test)
	if err != nil {
		return 0, 0, err
	}
	if trainR2, err = Score(trainPred, dependent); err != nil {
		return 0, 0, fmt.Errorf("train: %w", err)
	}
	if testR2, err = Score(testPred, dependent); err != nil {
		return 0, 0, fmt.Errorf("test: %w", err)
	}
	return trainR2, testR2, nil
}

type roundDependent struct {
	round     int
	dependent string
}

// addLift sets each trial's lift relative to the mean of its (round, dependent) group.
func addLift(trials []AblationResult) {
	type acc struct {
		train, test float64
		n           int
	}
	groups := make(map[roundDependent]*acc)
	for _, t := range trials {
		k := roundDependent{t.Round, t.Dependent}
		a, ok := groups[k]
		if !ok {
			a = &acc{}
			groups[k] = a
		}
		a.train += t.TrainR2
		a.test += t.TestR2
		a.n++
	}
	for i := range trials {
		a := groups[roundDependent{trials[i].Round, trials[i].Dependent}]
		trials[i].TrainLift = trials[i].TrainR2 - a.train/float64(a.n)
		trials[i].TestLift = trials[i].TestR2 - a.test/float64(a.n)
	}
}

type fieldDependent struct {
	field     string
	dependent string
}

// summarize averages trials by (held-out field, dependent) and sorts by ascending train lift.
func summarize(trials []AblationResult) []ReportRow {
	type acc struct {
		row ReportRow
		n   int
	}
	groups := make(map[fieldDependent]*acc)
	var order []fieldDependent
	for _, t := range trials {
		k := fieldDependent{t.FieldLeftOut, t.Dependent}
		a, ok := groups[k]
		if !ok {
			a = &acc{row: ReportRow{FieldLeftOut: t.FieldLeftOut, Dependent: t.Dependent}}
			groups[k] = a
			order = append(order, k)
		}
		a.row.TrainR2 += t.TrainR2
		a.row.TestR2 += t.TestR2
		a.row.TrainLift += t.TrainLift
		a.row.TestLift += t.TestLift
		a.n++
	}

	rows := make([]ReportRow, len(order))
	for i, k := range order {
		a := groups[k]
		n := float64(a.n)
		rows[i] = ReportRow{
			FieldLeftOut: a.row.FieldLeftOut,
			Dependent:    a.row.Dependent,
			TrainR2:      a.row.TrainR2 / n,
			TestR2:       a.row.TestR2 / n,
			TrainLift:    a.row.TrainLift / n,
			TestLift:     a.row.TestLift / n,
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TrainLift != rows[j].TrainLift {
			return rows[i].TrainLift < rows[j].TrainLift
		}
		if rows[i].FieldLeftOut != rows[j].FieldLeftOut {
			return rows[i].FieldLeftOut < rows[j].FieldLeftOut
		}
		return rows[i].Dependent < rows[j].Dependent
	})
	return rows
}
