package steward

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Steward runs observe → decide → act cycles.
type Steward struct {
	Observer *Observer
	Actor    *Actor
	Memory   *CycleMemory
}

// New creates a steward for the API at baseURL.
func New(baseURL, adminKey string, mem *CycleMemory) *Steward {
	if mem == nil {
		mem = LoadMemory("")
	}
	return &Steward{
		Observer: NewObserver(baseURL),
		Actor:    NewActor(baseURL, adminKey),
		Memory:   mem,
	}
}

// RunCycle executes one cycle and records it in memory.
func (s *Steward) RunCycle() (CycleRecord, error) {
	obs, err := s.Observer.Observe()
	if err != nil {
		return CycleRecord{}, fmt.Errorf("observe: %w", err)
	}
	health := Triage(obs.Snapshot)
	slog.Info("observation complete",
		"tick", obs.Snapshot.Tick,
		"population", obs.Snapshot.Stats.TotalPopulation,
		"crisis", health.CrisisLevel,
		"starving", health.Starving,
	)

	d := Decide(obs, health, s.Memory)
	rec := CycleRecord{
		Tick:        obs.Snapshot.Tick,
		Action:      d.Action,
		Settlement:  d.Settlement,
		Building:    string(d.Building),
		CrisisLevel: health.CrisisLevel,
		Rationale:   d.Rationale,
	}
	slog.Info("decision made", "action", d.Action, "rationale", d.Rationale)

	if d.Action == "build" {
		res, err := s.Actor.Build(d)
		if err != nil {
			return rec, fmt.Errorf("act: %w", err)
		}
		rec.Success = res.Success
		slog.Info("build executed",
			"settlement", d.Settlement,
			"building", d.Building,
			"success", res.Success,
			"reason", res.Reason,
		)
	}

	s.Memory.Record(rec)
	s.Memory.Save()
	return rec, nil
}

// Run cycles every interval until ctx is done. The first cycle runs
// immediately.
func (s *Steward) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.RunCycle(); err != nil {
			slog.Error("steward cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// WaitForAPI polls the status endpoint with exponential backoff until it
// responds or ctx ends.
func WaitForAPI(ctx context.Context, apiURL string) error {
	backoff := 2 * time.Second
	maxBackoff := 30 * time.Second

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/api/v1/status", nil)
		if err != nil {
			return err
		}
		if resp, err := http.DefaultClient.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				slog.Info("kingdom API is ready")
				return nil
			}
		}
		slog.Info("kingdom API not ready, retrying", "backoff", backoff)
		select {
		case <-ctx.Done():
			return fmt.Errorf("kingdom API not ready: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
