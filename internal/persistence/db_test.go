package persistence

import (
	"path/filepath"
	"testing"

	"github.com/talgya/kingdom-sim/internal/engine"
	"github.com/talgya/kingdom-sim/internal/scenario"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenMigratesTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	for i := 0; i < 2; i++ {
		db, err := Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		if db.Dialect() != "sqlite" {
			t.Fatalf("dialect = %q", db.Dialect())
		}
		db.Close()
	}
}

func TestStatsAndEventsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	run, err := db.BeginRun(42, "Essex County")
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}
	if run == "" || db.Run() != run {
		t.Fatalf("run id not recorded")
	}

	for tick := uint64(1); tick <= 5; tick++ {
		st := engine.Stats{Tick: tick, Phase: "Spring", TotalPopulation: int(100 * tick), Prosperity: int(tick)}
		if err := db.RecordStats(st); err != nil {
			t.Fatalf("record stats: %v", err)
		}
	}
	// duplicate sample is ignored
	if err := db.RecordStats(engine.Stats{Tick: 5, Phase: "Spring"}); err != nil {
		t.Fatalf("duplicate stats: %v", err)
	}

	hist, err := db.StatsHistory(3)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 3 || hist[0].Tick != 3 || hist[2].Tick != 5 || hist[2].TotalPopulation != 500 {
		t.Fatalf("history = %+v", hist)
	}

	err = db.RecordEvents([]engine.Event{
		{Tick: 1, Category: engine.CategoryEvent, Settlement: "Oakvale", Description: "Drought strikes Oakvale"},
		{Tick: 2, Category: engine.CategoryTrade, Description: "grain cart"},
	})
	if err != nil {
		t.Fatalf("record events: %v", err)
	}
	recent, err := db.RecentEvents(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Tick != 2 || recent[1].Settlement != "Oakvale" {
		t.Fatalf("recent = %+v", recent)
	}
}

func TestRunsAreIsolated(t *testing.T) {
	db := openTestDB(t)
	db.BeginRun(1, "first")
	db.RecordStats(engine.Stats{Tick: 1, Phase: "Spring"})
	db.BeginRun(2, "second")

	hist, err := db.StatsHistory(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 0 {
		t.Fatalf("second run sees %d samples from the first", len(hist))
	}
	if n, _ := db.Runs(); n != 2 {
		t.Fatalf("runs = %d, want 2", n)
	}
}

func TestRecorderFollowsSimulation(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.BeginRun(7, "default"); err != nil {
		t.Fatal(err)
	}
	sim, err := engine.NewSimulation(scenario.Default(), 7)
	if err != nil {
		t.Fatal(err)
	}
	NewRecorder(db, sim, 5)
	for i := 0; i < 20; i++ {
		sim.AdvanceTick()
	}

	hist, err := db.StatsHistory(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 4 || hist[3].Tick != 20 {
		t.Fatalf("history = %+v, want samples at 5, 10, 15, 20", hist)
	}
	recent, err := db.RecentEvents(2000)
	if err != nil {
		t.Fatal(err)
	}
	if want := len(sim.RecentEvents(0)); len(recent) != want {
		t.Fatalf("ledger has %d events, simulation %d", len(recent), want)
	}
}

func TestRecorderStartsNewRunOnReset(t *testing.T) {
	db := openTestDB(t)
	first, err := db.BeginRun(7, "default")
	if err != nil {
		t.Fatal(err)
	}
	sim, err := engine.NewSimulation(scenario.Default(), 7)
	if err != nil {
		t.Fatal(err)
	}
	NewRecorder(db, sim, 5)
	for i := 0; i < 10; i++ {
		sim.AdvanceTick()
	}

	sim.Reset()
	if err := sim.TryBuild("Leamington", "camp"); err != nil {
		t.Fatalf("build: %v", err)
	}
	for i := 0; i < 10; i++ {
		sim.AdvanceTick()
	}

	if db.Run() == first {
		t.Fatal("reset kept recording into the first run")
	}
	if n, _ := db.Runs(); n != 2 {
		t.Fatalf("runs = %d, want 2", n)
	}
	hist, err := db.StatsHistory(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 || hist[1].Tick != 10 {
		t.Fatalf("history = %+v, want samples at 5 and 10", hist)
	}
	if got, want := hist[1].TotalResources, sim.Snapshot().Stats.TotalResources; got != want {
		t.Fatalf("ledger tick 10 resources = %v, live = %v", got, want)
	}

	recent, err := db.RecentEvents(2000)
	if err != nil {
		t.Fatal(err)
	}
	live := sim.RecentEvents(0)
	if len(recent) != len(live) {
		t.Fatalf("ledger has %d events after reset, simulation %d", len(recent), len(live))
	}
	if oldest := recent[len(recent)-1]; oldest.Category != engine.CategoryBuild {
		t.Fatalf("oldest event of the new run = %+v, want the build", oldest)
	}
}
