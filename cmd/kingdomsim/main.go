// Command kingdomsim runs the village kingdom simulation, either paced in
// real time behind the HTTP API or headless for a fixed number of ticks.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/talgya/kingdom-sim/internal/api"
	"github.com/talgya/kingdom-sim/internal/engine"
	"github.com/talgya/kingdom-sim/internal/entropy"
	"github.com/talgya/kingdom-sim/internal/journal"
	"github.com/talgya/kingdom-sim/internal/persistence"
	"github.com/talgya/kingdom-sim/internal/scenario"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	configPath := flag.String("config", "", "scenario YAML (default: built-in five villages)")
	seed := flag.Int64("seed", 42, "random seed, 0 picks one")
	villages := flag.Int("villages", 0, "generate a procedural scenario with this many villages")
	ticks := flag.Uint64("ticks", 0, "run headless for this many ticks, print the digest and exit")
	port := flag.Int("port", 8080, "HTTP API port")
	dbPath := flag.String("db", envOrDefault("KINGDOM_DB", "data/kingdom.db"), "ledger DSN (SQLite path or postgres:// URL), empty disables")
	journalDir := flag.String("journal", "", "directory for the compressed tick journal, empty disables")
	interval := flag.Duration("interval", time.Second, "real-time tick interval")
	reportEvery := flag.Uint64("report", 20, "ticks between report logs")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	setupLogging(*verbose)

	if *seed == 0 {
		*seed = entropy.RandomSeed()
	}
	cfg, err := loadScenario(*configPath, *villages, *seed)
	if err != nil {
		slog.Error("scenario rejected", "error", err)
		os.Exit(1)
	}

	sim, err := engine.NewSimulation(cfg, *seed)
	if err != nil {
		slog.Error("failed to build kingdom", "error", err)
		os.Exit(1)
	}
	slog.Info("kingdom ready",
		"name", cfg.Name,
		"seed", *seed,
		"settlements", len(cfg.Settlements),
		"population", humanize.Comma(int64(sim.Stats.TotalPopulation)),
	)

	// ── Ledger ────────────────────────────────────────────────────────
	var db *persistence.DB
	if *dbPath != "" {
		if err := prepareLedgerDir(*dbPath); err != nil {
			slog.Error("failed to create ledger directory", "dsn", *dbPath, "error", err)
			os.Exit(1)
		}
		db, err = persistence.Open(*dbPath)
		if err != nil {
			slog.Error("failed to open ledger", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if _, err := db.BeginRun(*seed, cfg.Name); err != nil {
			slog.Error("failed to register run", "error", err)
			os.Exit(1)
		}
		persistence.NewRecorder(db, sim, *reportEvery)
	}

	// ── Journal ───────────────────────────────────────────────────────
	if *journalDir != "" {
		run := ""
		if db != nil {
			run = db.Run()
		}
		jw := journal.NewWriter(*journalDir, run, cfg)
		jw.Attach(sim)
		defer func() {
			if err := jw.Close(); err != nil {
				slog.Error("journal close failed", "error", err)
			}
		}()
	}

	if *ticks > 0 {
		runHeadless(sim, *ticks, *reportEvery)
		return
	}

	// ── Pacer and API ─────────────────────────────────────────────────
	eng := engine.NewEngine(sim.Update)
	eng.Interval = *interval
	eng.ReportEvery = *reportEvery
	eng.OnReport = func(uint64) { logReport(sim) }

	adminKey := os.Getenv("KINGDOM_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("KINGDOM_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		Hub:      api.NewHub(sim),
		Port:     *port,
		AdminKey: adminKey,
	}
	srv := apiServer.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n%s is alive: %s souls across %d villages.\n",
		cfg.Name, humanize.Comma(int64(sim.Snapshot().Stats.TotalPopulation)), len(cfg.Settlements))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", *port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	logReport(sim)
	fmt.Printf("Simulation stopped at tick %d. Digest %s\n", sim.CurrentTick(), sim.Digest())
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func loadScenario(path string, villages int, seed int64) (scenario.Config, error) {
	switch {
	case path != "":
		slog.Info("loading scenario", "path", path)
		return scenario.Load(path)
	case villages > 0:
		slog.Info("generating procedural scenario", "villages", villages, "seed", seed)
		return scenario.Procedural(seed, villages)
	default:
		return scenario.Default(), nil
	}
}

func runHeadless(sim *engine.Simulation, ticks, reportEvery uint64) {
	start := time.Now()
	for i := uint64(0); i < ticks; i++ {
		r := sim.AdvanceTick()
		if reportEvery > 0 && r.Tick%reportEvery == 0 {
			logReport(sim)
		}
	}
	slog.Info("headless run complete", "ticks", ticks, "elapsed", time.Since(start).Round(time.Millisecond))
	fmt.Println(sim.Digest())
}

func logReport(sim *engine.Simulation) {
	snap := sim.Snapshot()
	st := snap.Stats
	slog.Info("kingdom report",
		"tick", st.Tick,
		"date", snap.Calendar,
		"population", humanize.Comma(int64(st.TotalPopulation)),
		"resources", humanize.Commaf(float64(int64(st.TotalResources))),
		"happiness", fmt.Sprintf("%.1f", st.AvgHappiness),
		"sustainability", fmt.Sprintf("%.1f", st.AvgSustainability),
		"prosperity", st.Prosperity,
		"trades", humanize.Comma(int64(st.TradeCount)),
		"treasury", humanize.Commaf(float64(int64(st.Treasury))),
		"carts", st.CartsInFlight,
	)
}

// prepareLedgerDir creates the parent directory of a SQLite ledger path.
func prepareLedgerDir(dsn string) error {
	if isPostgres(dsn) {
		return nil
	}
	return os.MkdirAll(filepath.Dir(dsn), 0o755)
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
