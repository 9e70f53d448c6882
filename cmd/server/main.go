package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	server "grab-and-go/server"
	"grab-and-go/server/logging"
	loggingsinks "grab-and-go/server/logging/sinks"
)

type processConfig struct {
	Addr            string `env:"ADDR" envDefault:":8080"`
	Seed            string `env:"SEED"`
	ToyCount        int    `env:"TOY_COUNT" envDefault:"0"`
	StartingCredits int    `env:"STARTING_CREDITS" envDefault:"-1"`
	FreeClawHeight  bool   `env:"FREE_CLAW_HEIGHT" envDefault:"false"`
	GrabPolicy      string `env:"GRAB_POLICY"`
	ReleasePolicy   string `env:"RELEASE_POLICY"`
	ClientDir       string `env:"CLIENT_DIR" envDefault:"../client"`
	LogJSONPath     string `env:"LOG_JSON_PATH"`
	LogDebug        bool   `env:"LOG_DEBUG" envDefault:"false"`
}

func main() {
	var cfg processConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse environment: %v", err)
	}

	logConfig := logging.DefaultConfig()
	if cfg.LogDebug {
		logConfig.MinimumSeverity = logging.SeverityDebug
	}
	sinks := []logging.NamedSink{
		{Name: "console", Sink: loggingsinks.NewConsoleSink(os.Stdout, logConfig.Console)},
	}
	if cfg.LogJSONPath != "" {
		file, err := os.OpenFile(cfg.LogJSONPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("failed to open log file %s: %v", cfg.LogJSONPath, err)
		}
		defer file.Close()
		sinks = append(sinks, logging.NamedSink{Name: "json", Sink: loggingsinks.NewJSON(file, logConfig.JSON.FlushInterval)})
	}

	router, err := logging.NewRouter(nil, logConfig, sinks)
	if err != nil {
		log.Fatalf("failed to construct logging router: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := router.Close(ctx); cerr != nil {
			log.Printf("failed to close logging router: %v", cerr)
		}
	}()

	cabinetCfg := server.DefaultCabinetConfig()
	cabinetCfg.Seed = cfg.Seed
	cabinetCfg.ToyCount = cfg.ToyCount
	cabinetCfg.StartingCredits = cfg.StartingCredits
	cabinetCfg.FreeClawHeight = cfg.FreeClawHeight
	cabinetCfg.GrabPolicy = cfg.GrabPolicy
	cabinetCfg.ReleasePolicy = cfg.ReleasePolicy

	hub := server.NewHub(cabinetCfg, router)
	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	clientDir := ""
	if cfg.ClientDir != "" {
		clientDir = filepath.Clean(cfg.ClientDir)
	}
	mux := server.NewMux(hub, clientDir)

	log.Printf("server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
