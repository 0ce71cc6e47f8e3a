package steward

import (
	"fmt"
	"sort"

	"github.com/talgya/kingdom-sim/internal/economy"
	"github.com/talgya/kingdom-sim/internal/engine"
)

// Decision is the outcome of one decide step.
type Decision struct {
	Action     string // "build" or "none"
	Settlement string
	Building   economy.BuildingKind
	Rationale  string
}

// preferences orders building effects by what a settlement needs most.
func preferences(s engine.SettlementView) []economy.EffectCategory {
	switch {
	case s.Starving:
		return []economy.EffectCategory{economy.EffectFood, economy.EffectStorage, economy.EffectProduction, economy.EffectTrade}
	case len(s.ActiveEvents) > 0:
		return []economy.EffectCategory{economy.EffectDefense, economy.EffectStorage, economy.EffectFood, economy.EffectProduction}
	default:
		return []economy.EffectCategory{economy.EffectProduction, economy.EffectFood, economy.EffectTrade, economy.EffectStorage, economy.EffectDefense, economy.EffectPrestige}
	}
}

// Decide picks one build. Settlements are visited starving first, then by
// lowest happiness; each gets its first affordable, unbuilt building in
// preference order, skipping builds that recently failed.
func Decide(obs *Observation, health *KingdomHealth, mem *CycleMemory) *Decision {
	setts := make([]engine.SettlementView, len(obs.Snapshot.Settlements))
	copy(setts, obs.Snapshot.Settlements)
	sort.SliceStable(setts, func(i, j int) bool {
		if setts[i].Starving != setts[j].Starving {
			return setts[i].Starving
		}
		return setts[i].Happiness < setts[j].Happiness
	})

	for _, s := range setts {
		if def, ok := pick(s, obs.Catalog, mem); ok {
			return &Decision{
				Action:     "build",
				Settlement: s.Name,
				Building:   def.Kind,
				Rationale: fmt.Sprintf("%s (happiness %d, crisis %s) can afford a %s",
					s.Name, s.Happiness, health.CrisisLevel, def.Name),
			}
		}
	}
	return &Decision{Action: "none", Rationale: "no settlement can afford an unbuilt building"}
}

func pick(s engine.SettlementView, catalog []economy.BuildingDef, mem *CycleMemory) (economy.BuildingDef, bool) {
	built := make(map[economy.BuildingKind]bool, len(s.Buildings))
	for _, k := range s.Buildings {
		built[k] = true
	}
	usable := func(def economy.BuildingDef) bool {
		return !built[def.Kind] && s.Resources.Covers(def.Cost) &&
			(mem == nil || !mem.RecentlyFailed(s.Name, string(def.Kind)))
	}

	for _, effect := range preferences(s) {
		for _, def := range catalog {
			if def.Effect == effect && usable(def) {
				return def, true
			}
		}
	}
	for _, def := range catalog {
		if usable(def) {
			return def, true
		}
	}
	return economy.BuildingDef{}, false
}
