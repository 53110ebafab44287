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
	"github.com/reallyasi9/film-margin/internal/film"
	"github.com/reallyasi9/film-margin/internal/store"
)

var outFile = flag.String("out", "config.json", "parameter `file` to write (.json, .yaml or .yml); empty to skip")
var useFirestore = flag.Bool("firestore", false, "also append the parameters to Firestore")
var projectID = flag.String("project", "", "Google Cloud `project` to use (defaults to GCP_PROJECT)")
var configFile = flag.String("config", "", "experiment YAML `file` naming the model fields")

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

	exp := config.DefaultExperiment()
	if *configFile != "" {
		exp, err = config.LoadExperiment(*configFile)
		check(err)
	}

	ctx := context.Background()
	sources, done, err := dataload.FromEnv(ctx, env)
	check(err)
	defer done()
	records, err := dataload.Load(ctx, sources)
	check(err)

	params, err := film.TrainParameters(records, exp.DescriptiveFields, exp.PredictiveFields)
	check(err)
	log.Printf("trained through season %d week %d", params.UpdatedThrough.Season, params.UpdatedThrough.Week)
	log.Printf("descriptive: %v", params.Descriptive.Map())
	log.Printf("predictive: %v", params.Predictive.Map())

	var stores []store.ParameterStore
	if *outFile != "" {
		stores = append(stores, store.NewFileStore(*outFile))
	}
	if *useFirestore {
		project := *projectID
		if project == "" {
			project = env.GCPProject
		}
		fs, client, err := store.OpenFirestore(ctx, project)
		check(err)
		defer client.Close()
		stores = append(stores, fs)
	}
	if len(stores) == 0 {
		log.Print("no output requested")
	}
	for _, s := range stores {
		check(s.Write(ctx, params))
	}
}
