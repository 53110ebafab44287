package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/reallyasi9/film-margin/internal/config"
	"github.com/reallyasi9/film-margin/internal/dataload"
	"github.com/reallyasi9/film-margin/internal/export"
	"github.com/reallyasi9/film-margin/internal/film"
	"github.com/reallyasi9/film-margin/internal/store"
)

var paramsFile = flag.String("params", "config.json", "parameter `file` to read")
var useFirestore = flag.Bool("firestore", false, "read the newest parameters from Firestore instead of -params")
var projectID = flag.String("project", "", "Google Cloud `project` to use (defaults to GCP_PROJECT)")
var outFile = flag.String("out", "film_margins.csv", "margins CSV `file` to write")
var sigma = flag.Float64("sigma", film.DefaultMarginStdDev, "standard `deviation` of margins around the film margin")

func check(err error) {
	if err != nil {
		log.Fatalln(err)
	}
}

func main() {
	flag.Parse()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("loading .env: %v", err)
	}
	env, err := config.LoadEnv()
	check(err)
	ctx := context.Background()

	var src store.ParameterStore = store.NewFileStore(*paramsFile)
	if *useFirestore {
		project := *projectID
		if project == "" {
			project = env.GCPProject
		}
		fs, client, err := store.OpenFirestore(ctx, project)
		check(err)
		defer client.Close()
		src = fs
	}
	params, err := src.Read(ctx)
	check(err)
	log.Printf("using models trained through season %d week %d", params.UpdatedThrough.Season, params.UpdatedThrough.Week)

	sources, done, err := dataload.FromEnv(ctx, env)
	check(err)
	defer done()
	records, err := dataload.Load(ctx, sources)
	check(err)

	margins, err := film.CalculateMargins(records, params, film.MarginOptions{StdDev: *sigma})
	check(err)

	f, err := os.Create(*outFile)
	check(err)
	check(export.WriteMargins(f, margins))
	check(f.Close())
	log.Printf("wrote %d margins to %s", len(margins), *outFile)
}
