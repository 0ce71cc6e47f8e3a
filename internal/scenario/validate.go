package scenario

import (
	"errors"
	"fmt"

	"github.com/talgya/kingdom-sim/internal/economy"
	"github.com/talgya/kingdom-sim/internal/events"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid scenario")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks the invariants the simulation relies on.
func (c *Config) Validate() error {
	if len(c.Settlements) == 0 {
		return invalid("no settlements")
	}
	names := make(map[string]bool, len(c.Settlements))
	for _, s := range c.Settlements {
		if s.Name == "" {
			return invalid("settlement with empty name")
		}
		if names[s.Name] {
			return invalid("duplicate settlement %q", s.Name)
		}
		names[s.Name] = true
		if s.Population < 0 {
			return invalid("settlement %q: negative population", s.Name)
		}
		if err := checkStock(s.Resources); err != nil {
			return invalid("settlement %q resources: %v", s.Name, err)
		}
		if err := checkStock(s.Production); err != nil {
			return invalid("settlement %q production: %v", s.Name, err)
		}
		for r, m := range s.Specialization {
			if !r.Valid() || m <= 1 {
				return invalid("settlement %q: specialization %s=%v must be a known resource above 1", s.Name, r, m)
			}
		}
		if s.TaxRate < 0 || s.TaxRate > 1 {
			return invalid("settlement %q: tax rate %v outside [0,1]", s.Name, s.TaxRate)
		}
	}

	kinds := make(map[economy.BuildingKind]bool, len(c.Buildings))
	for _, b := range c.Buildings {
		if b.Kind == "" || kinds[b.Kind] {
			return invalid("missing or duplicate building kind %q", b.Kind)
		}
		kinds[b.Kind] = true
		if !economy.ValidEffect(b.Effect) {
			return invalid("building %q: unknown effect %q", b.Kind, b.Effect)
		}
		if b.Bonus <= 0 {
			return invalid("building %q: bonus must be positive", b.Kind)
		}
		if err := checkStock(b.Cost); err != nil {
			return invalid("building %q cost: %v", b.Kind, err)
		}
	}

	if c.Events.Chance < 0 || c.Events.Chance > 1 {
		return invalid("event chance %v outside [0,1]", c.Events.Chance)
	}
	seen := make(map[events.Kind]bool, len(c.Events.Catalog))
	for _, d := range c.Events.Catalog {
		if d.Kind == "" || seen[d.Kind] {
			return invalid("missing or duplicate event kind %q", d.Kind)
		}
		seen[d.Kind] = true
		if d.Duration < 1 {
			return invalid("event %q: duration must be at least 1", d.Kind)
		}
		if err := checkEffect(d.Effect); err != nil {
			return invalid("event %q: %v", d.Kind, err)
		}
		if d.Recurring != nil {
			if err := checkEffect(*d.Recurring); err != nil {
				return invalid("event %q recurring: %v", d.Kind, err)
			}
		}
		for _, r := range d.Suppresses {
			if !r.Valid() {
				return invalid("event %q: unknown resource %q", d.Kind, r)
			}
		}
		for k, f := range d.MitigatedBy {
			if !kinds[k] {
				return invalid("event %q: mitigated by unknown building %q", d.Kind, k)
			}
			if f < 0 || f > 1 {
				return invalid("event %q: mitigation %v outside [0,1]", d.Kind, f)
			}
		}
	}

	if len(c.Phases) == 0 {
		return invalid("no phases")
	}
	if c.PhaseLength < 1 {
		return invalid("phase length must be at least 1")
	}
	for _, p := range c.Phases {
		for r, m := range p.Modifiers {
			if !r.Valid() || m < 0 {
				return invalid("phase %q: bad modifier %s=%v", p.Name, r, m)
			}
		}
		if p.Population < 0 {
			return invalid("phase %q: negative population modifier", p.Name)
		}
	}

	ids := make(map[string]bool, len(c.Achievements))
	for _, a := range c.Achievements {
		if a.ID == "" || ids[a.ID] {
			return invalid("missing or duplicate achievement id %q", a.ID)
		}
		ids[a.ID] = true
		if !KnownMetric(a.Metric) {
			return invalid("achievement %q: unknown metric %q", a.ID, a.Metric)
		}
	}

	r := c.Rules
	if r.DeclineFoodPerCapita >= r.GrowthFoodPerCapita {
		return invalid("decline threshold %v must be below growth threshold %v",
			r.DeclineFoodPerCapita, r.GrowthFoodPerCapita)
	}
	if r.GrowthRate < 0 || r.DeclineRate < 0 || r.ConsumptionPerCapita < 0 {
		return invalid("negative growth, decline or consumption rate")
	}
	if r.SurvivalBase > r.GrowthBase {
		return invalid("survival base above growth base")
	}

	if c.Trade.SurplusMultiplier < 1 {
		return invalid("surplus multiplier %v below 1", c.Trade.SurplusMultiplier)
	}
	if c.Trade.ShareCap <= 0 || c.Trade.ShareCap > 1 {
		return invalid("share cap %v outside (0,1]", c.Trade.ShareCap)
	}
	if c.Trade.MinTransfer < 0 {
		return invalid("negative minimum transfer")
	}
	if c.Transport.Efficiency <= 0 || c.Transport.Efficiency > 1 {
		return invalid("transport efficiency %v outside (0,1]", c.Transport.Efficiency)
	}
	if c.Transport.CartSpeed <= 0 {
		return invalid("cart speed must be positive")
	}
	if c.Transport.MinCartTicks < 1 {
		return invalid("carts must take at least one tick")
	}
	if c.Prosperity.Divisor <= 0 {
		return invalid("prosperity divisor must be positive")
	}
	if c.TaxRate < 0 || c.TaxRate > 1 {
		return invalid("tax rate %v outside [0,1]", c.TaxRate)
	}
	return nil
}

func checkStock(s economy.Stock) error {
	for r, q := range s {
		if !r.Valid() {
			return fmt.Errorf("unknown resource %q", r)
		}
		if q < 0 {
			return fmt.Errorf("negative %s", r)
		}
	}
	return nil
}

func checkEffect(e events.Effect) error {
	switch e.Class {
	case "", events.ClassPopulation, events.ClassHappiness:
	case events.ClassDrain, events.ClassBoost:
		if !e.AllTracked && len(e.Resources) == 0 {
			return fmt.Errorf("%s effect names no resources", e.Class)
		}
		for _, r := range e.Resources {
			if !r.Valid() {
				return fmt.Errorf("unknown resource %q", r)
			}
		}
		if e.Fraction < 0 || e.Fraction > 1 {
			return fmt.Errorf("fraction %v outside [0,1]", e.Fraction)
		}
	case events.ClassComposite:
		if len(e.Steps) == 0 {
			return fmt.Errorf("composite effect has no steps")
		}
		for _, s := range e.Steps {
			if err := checkEffect(s); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown effect class %q", e.Class)
	}
	return nil
}
