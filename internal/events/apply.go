package events

import (
	"math"
	"sort"

	"github.com/talgya/kingdom-sim/internal/economy"
)

// Target is what an effect mutates. Settlements implement it.
type Target interface {
	Stock() economy.Stock
	PopulationCount() int
	AdjustPopulation(delta int)
	AdjustHappiness(delta int)
	HasBuilding(kind economy.BuildingKind) bool
	DefenseBonus() float64
}

// Scale returns the magnitude multiplier for def on t: each built mitigating
// building removes its fraction, and defense bonuses divide adverse events.
func Scale(t Target, def Def) float64 {
	scale := 1.0

	// Sorted so the float product is identical across runs.
	kinds := make([]string, 0, len(def.MitigatedBy))
	for k := range def.MitigatedBy {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		if t.HasBuilding(economy.BuildingKind(k)) {
			scale *= 1 - clampUnit(def.MitigatedBy[economy.BuildingKind(k)])
		}
	}

	if def.Adverse {
		if d := t.DefenseBonus(); d > 1 {
			scale /= d
		}
	}
	return scale
}

// Apply interprets e against t with the given magnitude scale.
func Apply(t Target, e Effect, scale float64) {
	switch e.Class {
	case ClassDrain:
		stock := t.Stock()
		for _, r := range targets(stock, e) {
			qty := (e.Amount + stock.Get(r)*e.Fraction) * scale
			stock.Debit(r, qty)
		}
	case ClassBoost:
		stock := t.Stock()
		for _, r := range targets(stock, e) {
			qty := (e.Amount + stock.Get(r)*e.Fraction) * scale
			stock.Add(r, qty)
		}
	case ClassPopulation:
		delta := (e.Amount + float64(t.PopulationCount())*e.Fraction) * scale
		t.AdjustPopulation(int(math.Round(delta)))
	case ClassHappiness:
		t.AdjustHappiness(int(math.Round(e.Amount * scale)))
	case ClassComposite:
		for _, step := range e.Steps {
			Apply(t, step, scale)
		}
	}
}

// targets resolves the resource list of a drain/boost. Drains only touch
// tracked resources; boosts may start tracking a named one.
func targets(stock economy.Stock, e Effect) []economy.Resource {
	if e.AllTracked {
		return stock.Tracked()
	}
	if e.Class == ClassBoost {
		return e.Resources
	}
	out := make([]economy.Resource, 0, len(e.Resources))
	for _, r := range e.Resources {
		if stock.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
