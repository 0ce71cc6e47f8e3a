package persistence

import (
	"log/slog"
	"sync"

	"github.com/talgya/kingdom-sim/internal/engine"
)

// Recorder copies stats and new events into the ledger every Every ticks.
// Each simulation generation is recorded as its own run.
type Recorder struct {
	db    *DB
	sim   *engine.Simulation
	Every uint64

	mu     sync.Mutex
	cursor uint64
	gen    uint64
}

// NewRecorder creates a recorder and subscribes it to sim.
func NewRecorder(db *DB, sim *engine.Simulation, every uint64) *Recorder {
	if every == 0 {
		every = 1
	}
	r := &Recorder{db: db, sim: sim, Every: every, gen: sim.Generation()}
	sim.Subscribe(r.observe)
	sim.OnReset(r.onReset)
	return r
}

func (r *Recorder) onReset(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.rolloverLocked(gen); err != nil {
		slog.Error("ledger run rollover failed", "generation", gen, "error", err)
	}
}

// rolloverLocked starts a new run when gen is newer than the one being
// recorded. Caller holds r.mu.
func (r *Recorder) rolloverLocked(gen uint64) error {
	if gen <= r.gen {
		return nil
	}
	if _, err := r.db.BeginRun(r.sim.Seed(), r.sim.Config().Name); err != nil {
		return err
	}
	r.gen = gen
	r.cursor = 0
	return nil
}

func (r *Recorder) observe(rep engine.TickReport) {
	if rep.Tick%r.Every != 0 {
		return
	}
	if err := r.flush(rep.Generation, rep.Stats); err != nil {
		slog.Error("ledger write failed", "tick", rep.Tick, "error", err)
	}
}

// Flush writes st and any events emitted since the previous flush.
func (r *Recorder) Flush(st engine.Stats) error {
	return r.flush(r.sim.Generation(), st)
}

func (r *Recorder) flush(gen uint64, st engine.Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A tick can land before the reset hook runs.
	if err := r.rolloverLocked(gen); err != nil {
		return err
	}
	if err := r.db.RecordStats(st); err != nil {
		return err
	}
	events, cursor := r.sim.EventsAfter(r.cursor)
	if err := r.db.RecordEvents(events); err != nil {
		return err
	}
	r.cursor = cursor
	return nil
}
