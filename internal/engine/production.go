// Settlement production and taxation.
package engine

import (
	"github.com/talgya/kingdom-sim/internal/scenario"
)

// produce runs every settlement's production under the current phase.
func (s *Simulation) produce(phase scenario.Phase) {
	for _, sett := range s.Settlements {
		sett.Produce(phase.Modifiers, s.cfg.Rules)
	}
}

// collectTaxes moves each settlement's tax into the kingdom treasury.
func (s *Simulation) collectTaxes() float64 {
	collected := 0.0
	for _, sett := range s.Settlements {
		collected += sett.CollectTax()
	}
	s.Treasury += collected
	return collected
}
