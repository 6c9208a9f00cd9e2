// Command analyze runs a data-analysis session from the terminal: plan,
// script, execute, judge until the verifier is satisfied or the round
// budget runs out.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"refinery/internal/analysis"
	"refinery/internal/artifact"
	"refinery/internal/config"
	"refinery/internal/jsonutil"
	"refinery/internal/runner"
	"refinery/internal/runstore"
	"refinery/internal/setup"
)

func main() {
	goals := flag.String("goals", "", "what the analysis must answer")
	dataDir := flag.String("data", "", "directory with the input data files (defaults to WORKDIR)")
	rounds := flag.Int("rounds", 0, "max analysis rounds (defaults to ANALYSIS_MAX_ROUNDS)")
	outDir := flag.String("out", "", "output directory (defaults to OUT_DIR)")
	model := flag.String("model", "", "primary model id")
	fastModel := flag.String("fast-model", "", "fast model id")
	sandboxImage := flag.String("sandbox-image", "", "docker image for script execution (empty runs locally)")
	doctor := flag.Bool("doctor", false, "verify the environment and exit")
	flag.Parse()

	cfg := config.Load()
	if *dataDir != "" {
		cfg.WorkDir = *dataDir
	}
	if *rounds > 0 {
		cfg.AnalysisRounds = *rounds
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
	if *sandboxImage != "" {
		cfg.SandboxImage = *sandboxImage
	}

	runs := runstore.NewFromEnv(cfg.RunStorePath)
	defer runs.Close()

	if *doctor {
		if !setup.Report(os.Stdout, setup.Doctor(context.Background(), setup.Options{Cfg: cfg, Store: runs})) {
			os.Exit(1)
		}
		return
	}

	if *goals == "" {
		log.Fatal("-goals is required")
	}
	if cfg.APIKey() == "" {
		log.Fatalf("%s API key is not set", cfg.Provider)
	}

	store, err := artifact.FromConfig(cfg.ArtifactBackend, cfg.ArtifactDir, artifact.S3Config(cfg.S3))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	runID := fmt.Sprintf("analysis-%d", time.Now().UnixNano())
	r := runner.New(cfg, store, runs, log.Default())

	res, err := r.RunAnalysis(ctx, runID, *goals)
	if err != nil {
		log.Fatal(err)
	}

	if err := jsonutil.WriteFile(filepath.Join(cfg.OutDir, "report.json"), res); err != nil {
		log.Fatal(err)
	}

	log.Printf("run %s: %s after %d rounds", runID, res.Status, len(res.Rounds))
	if res.FinalPath != "" {
		log.Printf("final script: %s", res.FinalPath)
	}
	if res.Status != analysis.StatusSuccess {
		os.Exit(1)
	}
}
