// Population dynamics: food consumption, growth, decline and wellbeing.
package engine

import (
	"log/slog"

	"github.com/talgya/kingdom-sim/internal/scenario"
	"github.com/talgya/kingdom-sim/internal/social"
)

// consumeAndGrow feeds every settlement and applies growth or decline.
func (s *Simulation) consumeAndGrow(phase scenario.Phase) {
	for _, sett := range s.Settlements {
		delta := sett.ConsumeAndGrow(phase.Population, s.cfg.Rules)
		if sett.Starving {
			slog.Debug("settlement starving",
				"tick", s.LastTick,
				"settlement", sett.Name,
				"population", sett.Population,
				"change", delta,
			)
		}
	}
}

// recomputeWellbeing refreshes happiness and sustainability, then taxes
// at the new happiness.
func (s *Simulation) recomputeWellbeing(rules social.Rules) {
	for _, sett := range s.Settlements {
		sett.RecomputeHappiness(rules)
		sett.RecomputeSustainability(rules)
	}
	s.collectTaxes()
}
