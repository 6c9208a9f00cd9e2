// Command api serves refinement sessions over HTTP: start and inspect
// runs, download artifacts, watch round events over websocket.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"refinery/internal/artifact"
	"refinery/internal/config"
	"refinery/internal/gateway"
	"refinery/internal/runner"
	"refinery/internal/runstore"
	"refinery/internal/setup"
)

func main() {
	addr := flag.String("addr", "", "listen address (defaults to PORT or :8081)")
	doctor := flag.Bool("doctor", false, "verify the environment and exit")
	flag.Parse()

	cfg := config.Load()
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	runs := runstore.NewFromEnv(cfg.RunStorePath)
	defer runs.Close()

	if *doctor {
		if !setup.Report(os.Stdout, setup.Doctor(context.Background(), setup.Options{Cfg: cfg, Store: runs})) {
			os.Exit(1)
		}
		return
	}

	if cfg.APIKey() == "" {
		log.Fatalf("%s API key is not set", cfg.Provider)
	}

	store, err := artifact.FromConfig(cfg.ArtifactBackend, cfg.ArtifactDir, artifact.S3Config(cfg.S3))
	if err != nil {
		log.Fatal(err)
	}

	r := runner.New(cfg, store, runs, log.Default())
	svc := gateway.NewService(r)
	srv := gateway.NewServer(cfg.ListenAddr, gateway.NewMux(svc))

	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
