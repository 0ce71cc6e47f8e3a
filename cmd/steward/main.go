// Command steward runs the automated builder against a kingdomsim API.
// It observes the kingdom, picks a build by rule, and acts via the admin
// build endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/talgya/kingdom-sim/internal/steward"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, nil)
	if isatty.IsTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))

	// Configuration from environment.
	apiURL := envOrDefault("KINGDOM_API_URL", "http://localhost:8080")
	adminKey := os.Getenv("KINGDOM_ADMIN_KEY")
	memoryPath := envOrDefault("STEWARD_MEMORY", "steward_memory.json")
	interval, err := time.ParseDuration(envOrDefault("STEWARD_INTERVAL", "30s"))
	if err != nil || interval <= 0 {
		slog.Error("STEWARD_INTERVAL must be a positive duration", "value", os.Getenv("STEWARD_INTERVAL"))
		os.Exit(1)
	}
	if adminKey == "" {
		slog.Error("KINGDOM_ADMIN_KEY is required")
		os.Exit(1)
	}

	slog.Info("steward starting", "api_url", apiURL, "interval", interval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	err = steward.WaitForAPI(waitCtx, apiURL)
	cancel()
	if err != nil {
		slog.Error("giving up", "error", err)
		os.Exit(1)
	}

	steward.New(apiURL, adminKey, steward.LoadMemory(memoryPath)).Run(ctx, interval)
	fmt.Println("Steward stopped.")
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
