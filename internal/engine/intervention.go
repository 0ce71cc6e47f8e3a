package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/kingdom-sim/internal/economy"
)

// TryBuild constructs kind in the named settlement. Unknown settlements,
// unknown buildings, duplicates and unaffordable builds return an error and
// change nothing.
func (s *Simulation) TryBuild(name string, kind economy.BuildingKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sett := s.SettlementIndex[name]
	if sett == nil {
		return fmt.Errorf("settlement %q: %w", name, ErrUnknownSettlement)
	}
	def, ok := s.cfg.Building(kind)
	if !ok {
		return fmt.Errorf("building %q: %w", kind, ErrUnknownBuilding)
	}
	if err := sett.CanBuild(def); err != nil {
		return fmt.Errorf("%s in %s: %w", def.Name, name, err)
	}
	sett.AttemptBuild(def)
	s.updateStats()

	desc := fmt.Sprintf("%s builds a %s", name, def.Name)
	s.EmitEvent(Event{
		Tick:        s.LastTick,
		Description: desc,
		Category:    CategoryBuild,
		Settlement:  name,
		Meta:        map[string]any{"building": string(kind)},
	})
	slog.Info("build", "tick", s.LastTick, "settlement", name, "building", kind)
	return nil
}

// RequestBuild is TryBuild reduced to success or failure.
func (s *Simulation) RequestBuild(name string, kind economy.BuildingKind) bool {
	return s.TryBuild(name, kind) == nil
}

// SetPaused stops or resumes paced updates. AdvanceTick ignores it.
func (s *Simulation) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Paused != paused {
		slog.Info("pause", "tick", s.LastTick, "paused", paused)
	}
	s.Paused = paused
}

// IsPaused reports the paused flag.
func (s *Simulation) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Paused
}

// Reset rebuilds the kingdom from its scenario and seed and starts a new
// generation. The paused flag and subscribers survive.
func (s *Simulation) Reset() {
	s.mu.Lock()
	slog.Info("reset", "tick", s.LastTick, "seed", s.rng.Seed(), "generation", s.generation+1)
	s.init()
	s.generation++
	gen := s.generation
	resetters := s.resetters
	s.mu.Unlock()

	for _, fn := range resetters {
		fn(gen)
	}
}
