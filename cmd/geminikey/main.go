package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"genstudio/internal/adapter/repo"
	"genstudio/internal/infra"
	"genstudio/internal/infra/credentials"
)

func main() {
	_ = godotenv.Load()

	var keyFlag string
	flag.StringVar(&keyFlag, "key", "", "Gemini API key (falls back to GEMINI_API_KEY)")
	flag.Parse()

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if key == "" {
		fmt.Fprintln(os.Stderr, "GEMINI API key is required via -key or environment")
		os.Exit(1)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	backend, err := repo.OpenBackend(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s store: %v\n", cfg.HistoryDriver, err)
		os.Exit(1)
	}
	defer backend.Close()

	// No env override, so the key is written through to the store.
	store := credentials.NewStore(backend.Tokens, "")
	if err := store.SetAPIKey(ctx, key); err != nil {
		fmt.Fprintf(os.Stderr, "store key: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("stored %s API key in %s store\n", credentials.ProviderGemini, cfg.HistoryDriver)
}
