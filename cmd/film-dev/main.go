package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/reallyasi9/film-margin/internal/config"
	"github.com/reallyasi9/film-margin/internal/dataload"
	"github.com/reallyasi9/film-margin/internal/export"
	"github.com/reallyasi9/film-margin/internal/film"
)

var configFile = flag.String("config", "", "experiment YAML `file` (defaults to the built-in experiment)")
var rounds = flag.Int("rounds", 0, "`number` of rounds, overriding the experiment file")
var seed = flag.Int64("seed", 0, "random `seed`, overriding the experiment file")
var workers = flag.Int("workers", 0, "`number` of rounds run in parallel (0 means one per CPU)")
var csvOut = flag.String("csv", "", "write the report to this CSV `file`")
var archivePath = flag.String("archive", "", "append the run to this SQLite `database`")
var listRuns = flag.Bool("list-runs", false, "list the runs stored in -archive and exit")
var showRun = flag.Int64("run", 0, "print the report of archived run `id` from -archive and exit")
var refresh = flag.Bool("refresh", false, "drop cached grades and download them again")
var verbose = flag.Bool("v", false, "log debug messages")

var startTime = time.Now()

func check(err error) {
	if err != nil {
		log.Fatalln(err)
	}
}

func main() {
	flag.Parse()
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *listRuns || *showRun != 0 {
		readArchive(context.Background())
		return
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("loading .env: %v", err)
	}
	env, err := config.LoadEnv()
	check(err)

	exp := config.DefaultExperiment()
	if *configFile != "" {
		exp, err = config.LoadExperiment(*configFile)
		check(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rounds":
			exp.Rounds = *rounds
		case "seed":
			exp.Seed = *seed
		case "workers":
			exp.Workers = *workers
		}
	})
	check(exp.Validate())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sources, done, err := dataload.FromEnv(ctx, env)
	check(err)
	defer done()
	if *refresh {
		check(dataload.Refresh(ctx, sources))
	}
	records, err := dataload.Load(ctx, sources)
	check(err)

	slog.Info("running ablation", "rounds", exp.Rounds, "features", len(exp.Features), "records", len(records))
	cfg := exp.Config()
	report, err := film.RunExperiment(ctx, records, cfg)
	check(err)
	fmt.Print(report)

	if *csvOut != "" {
		f, err := os.Create(*csvOut)
		check(err)
		check(export.WriteReport(f, report.Rows))
		check(f.Close())
		slog.Info("wrote report", "file", *csvOut)
	}

	if *archivePath != "" {
		archive, err := export.OpenArchive(*archivePath)
		check(err)
		id, err := archive.SaveRun(ctx, cfg, len(records), report)
		check(err)
		check(archive.Close())
		slog.Info("archived run", "database", *archivePath, "run", id)
	}

	log.Printf("done in %s", time.Since(startTime))
}

// readArchive prints archived runs or one run's report.
func readArchive(ctx context.Context) {
	if *archivePath == "" {
		log.Fatalln("-list-runs and -run need -archive")
	}
	archive, err := export.OpenArchive(*archivePath)
	check(err)
	defer archive.Close()

	if *listRuns {
		runs, err := archive.Runs(ctx)
		check(err)
		for _, r := range runs {
			fmt.Println(r)
		}
	}
	if *showRun != 0 {
		rows, err := archive.Report(ctx, *showRun)
		check(err)
		fmt.Print(film.AggregateReport{Rows: rows})
	}
}
