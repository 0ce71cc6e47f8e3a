// Seasonal phases and the kingdom calendar.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/kingdom-sim/internal/scenario"
)

// processPhase derives the phase for tick and announces transitions.
func (s *Simulation) processPhase(tick uint64) scenario.Phase {
	idx, phase := s.cfg.PhaseAt(tick)
	if idx == s.PhaseIndex {
		return phase
	}
	s.PhaseIndex = idx

	slog.Info("season change",
		"tick", tick,
		"time", s.calendar(tick),
		"season", phase.Name,
		"population", s.Stats.TotalPopulation,
	)
	s.EmitEvent(Event{
		Tick:        tick,
		Description: fmt.Sprintf("%s begins", phase.Name),
		Category:    CategorySeason,
		Meta: map[string]any{
			"phase": phase.Name,
			"index": idx,
		},
	})
	return phase
}

// Calendar returns a human-readable date for the current tick.
func (s *Simulation) Calendar() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calendar(s.LastTick)
}

func (s *Simulation) calendar(tick uint64) string {
	_, phase := s.cfg.PhaseAt(tick)
	length := uint64(s.cfg.PhaseLength)
	if length == 0 {
		length = 1
	}
	return fmt.Sprintf("%s Day %d, Year %d", phase.Name, tick%length+1, YearOf(tick, s.cfg)+1)
}

// YearOf returns the zero-based year tick falls in: one year is one full
// cycle through the phase list.
func YearOf(tick uint64, cfg scenario.Config) uint64 {
	year := uint64(cfg.PhaseLength) * uint64(len(cfg.Phases))
	if year == 0 {
		return 0
	}
	return tick / year
}
