package scenario

import (
	"github.com/talgya/kingdom-sim/internal/economy"
	"github.com/talgya/kingdom-sim/internal/events"
	"github.com/talgya/kingdom-sim/internal/social"
	"github.com/talgya/kingdom-sim/internal/world"
)

// Default returns the built-in five-village kingdom.
func Default() Config {
	return Config{
		Name:         "Essex County",
		Settlements:  DefaultSettlements(),
		Buildings:    DefaultBuildings(),
		Events:       EventConfig{Chance: 0.08, Catalog: DefaultEvents()},
		Phases:       DefaultPhases(),
		PhaseLength:  20,
		Achievements: DefaultAchievements(),
		Rules:        social.DefaultRules(),
		Trade: TradeConfig{
			SurplusMultiplier: 1.5,
			CriticalUrgency:   1000,
			ShareCap:          0.6,
			MinTransfer:       5,
		},
		Transport: TransportConfig{
			Efficiency:   0.98,
			CartSpeed:    200,
			MinCartTicks: 1,
		},
		Prosperity: ProsperityConfig{
			Population:     0.2,
			Resources:      0.05,
			Sustainability: 3,
			Happiness:      2,
			Divisor:        10,
		},
		TaxRate: 0.1,
	}
}

// DefaultSettlements returns the five starting villages.
func DefaultSettlements() []SettlementSpec {
	return []SettlementSpec{
		{
			Name: "Leamington", Position: world.Point{X: 150, Y: 150}, Population: 500,
			Resources:      economy.Stock{economy.Wood: 50, economy.Stone: 30, economy.Grain: 40},
			Production:     economy.Stock{economy.Wood: 3, economy.Stone: 2, economy.Grain: 1},
			Specialization: map[economy.Resource]float64{economy.Wood: 1.5, economy.Stone: 1.2},
		},
		{
			Name: "Lasalle", Position: world.Point{X: 1150, Y: 150}, Population: 300,
			Resources:      economy.Stock{economy.Water: 40, economy.Fish: 20, economy.Stone: 15},
			Production:     economy.Stock{economy.Water: 2, economy.Fish: 3, economy.Stone: 1},
			Specialization: map[economy.Resource]float64{economy.Fish: 1.5, economy.Water: 1.3},
		},
		{
			Name: "Lakeshore", Position: world.Point{X: 650, Y: 300}, Population: 450,
			Resources:      economy.Stock{economy.Crops: 60, economy.Livestock: 30, economy.Wood: 25},
			Production:     economy.Stock{economy.Crops: 3, economy.Livestock: 2, economy.Wood: 1},
			Specialization: map[economy.Resource]float64{economy.Crops: 1.5, economy.Livestock: 1.3},
		},
		{
			Name: "Amherstburg", Position: world.Point{X: 300, Y: 700}, Population: 350,
			Resources:      economy.Stock{economy.Grain: 40, economy.Iron: 20, economy.Stone: 20},
			Production:     economy.Stock{economy.Grain: 3, economy.Iron: 2, economy.Stone: 1},
			Specialization: map[economy.Resource]float64{economy.Grain: 1.5, economy.Iron: 1.2},
		},
		{
			Name: "Windsor", Position: world.Point{X: 1050, Y: 650}, Population: 400,
			Resources:      economy.Stock{economy.Stone: 30, economy.Gold: 10, economy.Iron: 15},
			Production:     economy.Stock{economy.Stone: 2, economy.Gold: 2, economy.Iron: 1},
			Specialization: map[economy.Resource]float64{economy.Gold: 1.5, economy.Stone: 1.2},
		},
	}
}

// DefaultBuildings returns the building catalog.
func DefaultBuildings() []economy.BuildingDef {
	return []economy.BuildingDef{
		{Kind: "granary", Name: "Granary", Cost: economy.Stock{economy.Wood: 20, economy.Stone: 15}, Effect: economy.EffectStorage, Bonus: 1.2},
		{Kind: "market", Name: "Market", Cost: economy.Stock{economy.Wood: 25, economy.Gold: 10}, Effect: economy.EffectTrade, Bonus: 1.3},
		{Kind: "mine", Name: "Mine", Cost: economy.Stock{economy.Wood: 30, economy.Stone: 20}, Effect: economy.EffectProduction, Bonus: 1.4},
		{Kind: "farm", Name: "Farm", Cost: economy.Stock{economy.Wood: 15, economy.Stone: 10}, Effect: economy.EffectFood, Bonus: 1.3},
		{Kind: "barracks", Name: "Barracks", Cost: economy.Stock{economy.Wood: 40, economy.Stone: 30, economy.Iron: 15}, Effect: economy.EffectDefense, Bonus: 1.5},
		{Kind: "wall", Name: "Wall", Cost: economy.Stock{economy.Stone: 40, economy.Wood: 20}, Effect: economy.EffectDefense, Bonus: 1.1},
		{Kind: "camp", Name: "Work Camp", Cost: economy.Stock{economy.Wood: 10}, Effect: economy.EffectProduction, Bonus: 1.05},
		{Kind: "monument", Name: "Monument", Cost: economy.Stock{economy.Stone: 60, economy.Gold: 30}, Effect: economy.EffectPrestige, Bonus: 1},
	}
}

func drain(amount float64, rs ...economy.Resource) events.Effect {
	return events.Effect{Class: events.ClassDrain, Resources: rs, Amount: amount}
}

func boost(amount float64, rs ...economy.Resource) events.Effect {
	return events.Effect{Class: events.ClassBoost, Resources: rs, Amount: amount}
}

// DefaultEvents returns the disruptive event catalog.
func DefaultEvents() []events.Def {
	return []events.Def{
		{
			Kind: "drought", Name: "Drought", Adverse: true, Duration: 3,
			Effect:      drain(15, economy.Grain, economy.Crops),
			Suppresses:  []economy.Resource{economy.Grain, economy.Crops, economy.Livestock},
			MitigatedBy: map[economy.BuildingKind]float64{"granary": 0.5},
		},
		{
			Kind: "plague", Name: "Plague", Adverse: true, Duration: 4,
			Effect:          events.Effect{Class: events.ClassPopulation, Amount: -30},
			BlocksReceiving: true,
			BlocksSending:   true,
			MitigatedBy:     map[economy.BuildingKind]float64{"wall": 0.3},
		},
		{
			Kind: "population_boom", Name: "Population Boom", Duration: 1,
			Effect: events.Effect{Class: events.ClassPopulation, Amount: 25},
		},
		{
			Kind: "bandits", Name: "Bandits", Adverse: true, Duration: 1,
			Effect:      events.Effect{Class: events.ClassDrain, AllTracked: true, Amount: 8},
			MitigatedBy: map[economy.BuildingKind]float64{"wall": 0.5},
		},
		{
			Kind: "rich_harvest", Name: "Rich Harvest", Duration: 1,
			Effect: boost(20, economy.Grain, economy.Crops),
		},
		{
			Kind: "trade_caravan", Name: "Trade Caravan", Duration: 1,
			Effect: boost(15, economy.Gold),
		},
		{
			Kind: "famine", Name: "Famine", Adverse: true, Duration: 2,
			Effect: events.Effect{Class: events.ClassComposite, Steps: []events.Effect{
				drain(25, economy.Grain, economy.Crops, economy.Fish),
				{Class: events.ClassPopulation, Amount: -20},
			}},
			MitigatedBy: map[economy.BuildingKind]float64{"granary": 0.5},
		},
		{
			Kind: "festival", Name: "Festival", Duration: 1,
			Effect: events.Effect{Class: events.ClassHappiness, Amount: 15},
		},
		{
			Kind: "winter_storm", Name: "Winter Storm", Adverse: true, Duration: 2,
			Effect: events.Effect{Class: events.ClassComposite, Steps: []events.Effect{
				drain(10, economy.Wood),
				{Class: events.ClassHappiness, Amount: -10},
			}},
		},
		{
			Kind: "pirate_raid", Name: "Pirate Raid", Adverse: true, Duration: 1,
			Effect:      events.Effect{Class: events.ClassDrain, AllTracked: true, Fraction: 0.5},
			MitigatedBy: map[economy.BuildingKind]float64{"wall": 0.3},
		},
		{
			Kind: "lightning_storm", Name: "Lightning Storm", Adverse: true, Duration: 2,
			Effect:          events.Effect{Class: events.ClassHappiness, Amount: -5},
			BlocksReceiving: true,
			BlocksSending:   true,
		},
		{
			Kind: "labor_strike", Name: "Labor Strike", Adverse: true, Duration: 3,
			Suppresses: []economy.Resource{economy.Wood, economy.Iron, economy.Stone},
		},
	}
}

// DefaultPhases returns the four seasons.
func DefaultPhases() []Phase {
	return []Phase{
		{Name: "Spring", Population: 1.1, Modifiers: map[economy.Resource]float64{economy.Crops: 1.2, economy.Grain: 1.2}},
		{Name: "Summer", Population: 1.2, Modifiers: map[economy.Resource]float64{economy.Crops: 1.5, economy.Fish: 1.3}},
		{Name: "Fall", Population: 1.0, Modifiers: map[economy.Resource]float64{economy.Grain: 1.3, economy.Crops: 1.1, economy.Wood: 1.2}},
		{Name: "Winter", Population: 0.8, Modifiers: map[economy.Resource]float64{economy.Crops: 0.5, economy.Fish: 0.7, economy.Wood: 1.3}},
	}
}

// DefaultAchievements returns the achievement list.
func DefaultAchievements() []Achievement {
	return []Achievement{
		{ID: "pop_1000", Name: "Growing Kingdom", Description: "Reach 1000 total population", Metric: MetricTotalPopulation, Threshold: 1000},
		{ID: "sustain_90", Name: "Eco Warrior", Description: "All villages above 90% sustainability", Metric: MetricMinSustainability, Threshold: 90},
		{ID: "prosper_500", Name: "Prosperous Realm", Description: "Reach 500 prosperity score", Metric: MetricProsperity, Threshold: 500},
		{ID: "trade_100", Name: "Master Trader", Description: "Complete 100 trades", Metric: MetricTradeCount, Threshold: 100},
		{ID: "survive_50", Name: "Survivor", Description: "Survive 50 ticks", Metric: MetricTick, Threshold: 50},
	}
}
