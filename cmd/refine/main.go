// Command refine runs a document session from the terminal: draft,
// audit, repair until the critic signs off or the round budget runs out.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"refinery/internal/artifact"
	"refinery/internal/config"
	"refinery/internal/jsonutil"
	"refinery/internal/refine"
	"refinery/internal/runner"
	"refinery/internal/runstore"
	"refinery/internal/setup"
)

func main() {
	task := flag.String("task", "", "what to write and refine")
	rounds := flag.Int("rounds", 0, "max refinement rounds (defaults to DOC_MAX_ROUNDS)")
	outDir := flag.String("out", "", "output directory (defaults to OUT_DIR)")
	model := flag.String("model", "", "primary model id")
	fastModel := flag.String("fast-model", "", "fast model id")
	doctor := flag.Bool("doctor", false, "verify the environment and exit")
	flag.Parse()

	cfg := config.Load()
	if *rounds > 0 {
		cfg.DocumentRounds = *rounds
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}
	if *model != "" {
		cfg.PrimaryModel = *model
	}
	if *fastModel != "" {
		cfg.FastModel = *fastModel
	}

	runs := runstore.NewFromEnv(cfg.RunStorePath)
	defer runs.Close()

	if *doctor {
		if !setup.Report(os.Stdout, setup.Doctor(context.Background(), setup.Options{Cfg: cfg, Store: runs})) {
			os.Exit(1)
		}
		return
	}

	if *task == "" {
		log.Fatal("-task is required")
	}
	if cfg.APIKey() == "" {
		log.Fatalf("%s API key is not set", cfg.Provider)
	}

	store, err := artifact.FromConfig(cfg.ArtifactBackend, cfg.ArtifactDir, artifact.S3Config(cfg.S3))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	runID := fmt.Sprintf("doc-%d", time.Now().UnixNano())
	r := runner.New(cfg, store, runs, log.Default())

	res, err := r.RunDocument(ctx, runID, *task)
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		log.Fatal(err)
	}
	finalPath := filepath.Join(cfg.OutDir, "final.md")
	if err := os.WriteFile(finalPath, []byte(res.Document), 0o644); err != nil {
		log.Fatal(err)
	}
	if err := jsonutil.WriteFile(filepath.Join(cfg.OutDir, "report.json"), res); err != nil {
		log.Fatal(err)
	}

	log.Printf("run %s: %s after %d rounds, final document at %s", runID, res.Status, len(res.Rounds), finalPath)
	if res.Status != refine.StatusSuccess {
		os.Exit(1)
	}
}
