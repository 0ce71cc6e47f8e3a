// Package scenario holds the static configuration a kingdom is built from:
// settlements, building and event catalogs, phases, achievements and every
// tunable constant. A Config is never mutated by the simulation.
package scenario

import (
	"github.com/talgya/kingdom-sim/internal/economy"
	"github.com/talgya/kingdom-sim/internal/events"
	"github.com/talgya/kingdom-sim/internal/social"
	"github.com/talgya/kingdom-sim/internal/world"
)

// Config is a complete scenario.
type Config struct {
	Name string `yaml:"name" json:"name"`

	Settlements  []SettlementSpec      `yaml:"settlements" json:"settlements"`
	Buildings    []economy.BuildingDef `yaml:"buildings" json:"buildings"`
	Events       EventConfig           `yaml:"events" json:"events"`
	Phases       []Phase               `yaml:"phases" json:"phases"`
	PhaseLength  int                   `yaml:"phase_length" json:"phase_length"` // ticks per phase
	Achievements []Achievement         `yaml:"achievements" json:"achievements"`

	Rules      social.Rules     `yaml:"rules" json:"rules"`
	Trade      TradeConfig      `yaml:"trade" json:"trade"`
	Transport  TransportConfig  `yaml:"transport" json:"transport"`
	Prosperity ProsperityConfig `yaml:"prosperity" json:"prosperity"`

	TaxRate float64 `yaml:"tax_rate" json:"tax_rate"`
	Strict  bool    `yaml:"strict" json:"strict"` // panic on consistency faults
}

// SettlementSpec is the initial state of one settlement.
type SettlementSpec struct {
	Name           string                       `yaml:"name" json:"name"`
	Position       world.Point                  `yaml:"position" json:"position"`
	Population     int                          `yaml:"population" json:"population"`
	Resources      economy.Stock                `yaml:"resources" json:"resources"`
	Production     economy.Stock                `yaml:"production" json:"production"`
	Specialization map[economy.Resource]float64 `yaml:"specialization,omitempty" json:"specialization,omitempty"`
	TaxRate        float64                      `yaml:"tax_rate,omitempty" json:"tax_rate,omitempty"` // 0 = scenario rate
}

// EventConfig is the event catalog and trigger policy.
type EventConfig struct {
	Chance        float64      `yaml:"chance" json:"chance"`
	AllowStacking bool         `yaml:"allow_stacking" json:"allow_stacking"`
	Catalog       []events.Def `yaml:"catalog" json:"catalog"`
}

// Phase is one segment of the cyclic season list.
type Phase struct {
	Name       string                       `yaml:"name" json:"name"`
	Modifiers  map[economy.Resource]float64 `yaml:"modifiers" json:"modifiers"`
	Population float64                      `yaml:"population" json:"population"` // growth multiplier
}

// Modifier returns the phase multiplier for r, 1 when unlisted.
func (p Phase) Modifier(r economy.Resource) float64 {
	if m, ok := p.Modifiers[r]; ok {
		return m
	}
	return 1
}

// Metric names a kingdom-wide quantity an achievement can test.
type Metric string

const (
	MetricTotalPopulation   Metric = "total_population"
	MetricMinSustainability Metric = "min_sustainability"
	MetricProsperity        Metric = "prosperity"
	MetricTradeCount        Metric = "trade_count"
	MetricTick              Metric = "tick"
	MetricTreasury          Metric = "treasury"
	MetricBuildings         Metric = "buildings"
)

// KnownMetric reports whether m is a supported metric.
func KnownMetric(m Metric) bool {
	switch m {
	case MetricTotalPopulation, MetricMinSustainability, MetricProsperity,
		MetricTradeCount, MetricTick, MetricTreasury, MetricBuildings:
		return true
	}
	return false
}

// Achievement unlocks once Metric reaches Threshold.
type Achievement struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Metric      Metric  `yaml:"metric" json:"metric"`
	Threshold   float64 `yaml:"threshold" json:"threshold"`
}

// TradeConfig tunes the allocation planner.
type TradeConfig struct {
	SurplusMultiplier float64 `yaml:"surplus_multiplier" json:"surplus_multiplier"` // surplus above growth × this
	CriticalUrgency   float64 `yaml:"critical_urgency" json:"critical_urgency"`     // urgency below survival
	ShareCap          float64 `yaml:"share_cap" json:"share_cap"`                   // max share of a source's surplus per tick
	MinTransfer       float64 `yaml:"min_transfer" json:"min_transfer"`
}

// TransportConfig tunes carts.
type TransportConfig struct {
	Efficiency   float64 `yaml:"efficiency" json:"efficiency"` // delivered fraction, (0,1]
	CartSpeed    float64 `yaml:"cart_speed" json:"cart_speed"` // distance units per tick
	MinCartTicks float64 `yaml:"min_cart_ticks" json:"min_cart_ticks"`
}

// ProsperityConfig weights the prosperity score.
type ProsperityConfig struct {
	Population     float64 `yaml:"population" json:"population"`
	Resources      float64 `yaml:"resources" json:"resources"`
	Sustainability float64 `yaml:"sustainability" json:"sustainability"`
	Happiness      float64 `yaml:"happiness" json:"happiness"`
	Divisor        float64 `yaml:"divisor" json:"divisor"`
}

// Building returns the catalog entry for kind.
func (c *Config) Building(kind economy.BuildingKind) (economy.BuildingDef, bool) {
	for _, b := range c.Buildings {
		if b.Kind == kind {
			return b, true
		}
	}
	return economy.BuildingDef{}, false
}

// PhaseAt returns the phase index and phase for tick.
func (c *Config) PhaseAt(tick uint64) (int, Phase) {
	if len(c.Phases) == 0 {
		return 0, Phase{Name: "Eternal", Population: 1}
	}
	length := uint64(c.PhaseLength)
	if length == 0 {
		length = 1
	}
	i := int((tick / length) % uint64(len(c.Phases)))
	return i, c.Phases[i]
}

// SettlementTaxRate resolves a settlement's tax rate.
func (c *Config) SettlementTaxRate(s SettlementSpec) float64 {
	if s.TaxRate > 0 {
		return s.TaxRate
	}
	return c.TaxRate
}
