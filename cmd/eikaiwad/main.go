package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/reo-kambayashi/eikaiwa/internal/api"
	"github.com/reo-kambayashi/eikaiwa/internal/cache"
	"github.com/reo-kambayashi/eikaiwa/internal/gemini"
	"github.com/reo-kambayashi/eikaiwa/internal/problems"
	"github.com/reo-kambayashi/eikaiwa/internal/trivia"
	"github.com/reo-kambayashi/eikaiwa/internal/types"
)

func main() {
	// Load environment variables
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Info("The .env file not found.")
	}

	cfg, err := types.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set; AI endpoints will serve fallback responses")
	}

	c := cache.NewTTL[any](cfg.SuccessTTL(), cfg.ErrorTTL())
	runner := cache.NewRunner(c, cfg.WorkerPoolSize, cfg.UpstreamTimeout())

	reaper := cache.NewReaper(c, cfg.SweepInterval())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reaper.Run(ctx)

	gen := gemini.NewClient(cfg.GeminiEndpoint, cfg.GeminiAPIKey,
		cfg.GeminiModel, cfg.GeminiTTSModel, cfg.UpstreamTimeout())
	triviaClient := trivia.NewClient(cfg.TriviaEndpoint, cfg.TriviaMinInterval(), cfg.UpstreamTimeout())

	lib, err := problems.Load()
	if err != nil {
		log.Fatalf("Failed to load problem bank: %v", err)
	}

	h := api.NewHandler(cfg, runner, gen, gen, triviaClient, lib)
	api.RunServer(cfg.Port, h)
}
