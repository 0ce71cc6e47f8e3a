// Package social provides the settlement model: stocks, population,
// happiness, buildings and the events acting on a settlement.
package social

import (
	"errors"
	"math"

	"github.com/talgya/kingdom-sim/internal/economy"
	"github.com/talgya/kingdom-sim/internal/events"
	"github.com/talgya/kingdom-sim/internal/world"
)

var (
	ErrAlreadyBuilt          = errors.New("building already constructed")
	ErrInsufficientResources = errors.New("insufficient resources")
)

// SettlementID is a unique identifier for a settlement.
type SettlementID = uint64

// HistoryEntry is one past event on a settlement.
type HistoryEntry struct {
	Tick    uint64      `json:"tick"`
	Kind    events.Kind `json:"kind"`
	Name    string      `json:"name"`
	Adverse bool        `json:"adverse"`
}

// ActiveEvent is an event still in effect, counting down to removal.
type ActiveEvent struct {
	Kind      events.Kind `json:"kind"`
	Name      string      `json:"name"`
	Remaining int         `json:"remaining"`

	def events.Def
}

// Settlement represents a village of the kingdom.
type Settlement struct {
	ID       SettlementID `json:"id"`
	Name     string       `json:"name"`
	Position world.Point  `json:"position"`

	// Demographics
	Population int `json:"population"`
	LaborLimit int `json:"labor_limit"` // floor(population/10)

	// Economy
	Resources      economy.Stock                `json:"resources"`
	Production     economy.Stock                `json:"production"` // base yield per tick
	Specialization map[economy.Resource]float64 `json:"specialization,omitempty"`
	TaxRate        float64                      `json:"tax_rate"`

	// Wellbeing, both 0–100
	Happiness      int  `json:"happiness"`
	Sustainability int  `json:"sustainability"`
	Starving       bool `json:"starving"`

	History   []HistoryEntry        `json:"history"`
	Active    []ActiveEvent         `json:"active_events"`
	Buildings []economy.BuildingDef `json:"-"`
}

// NewSettlement creates a settlement at full happiness. Stocks are copied.
func NewSettlement(id SettlementID, name string, pos world.Point, population int,
	resources, production economy.Stock, specialization map[economy.Resource]float64, taxRate float64) *Settlement {
	spec := make(map[economy.Resource]float64, len(specialization))
	for r, m := range specialization {
		spec[r] = m
	}
	s := &Settlement{
		ID:             id,
		Name:           name,
		Position:       pos,
		Resources:      resources.Clone(),
		Production:     production.Clone(),
		Specialization: spec,
		TaxRate:        taxRate,
		Happiness:      100,
		Sustainability: 100,
	}
	s.setPopulation(population)
	return s
}

func (s *Settlement) setPopulation(n int) {
	if n < 0 {
		n = 0
	}
	s.Population = n
	s.LaborLimit = n / 10
}

// Key implements events.Subject.
func (s *Settlement) Key() string { return s.Name }

// Stock implements events.Target.
func (s *Settlement) Stock() economy.Stock { return s.Resources }

// PopulationCount implements events.Target.
func (s *Settlement) PopulationCount() int { return s.Population }

// AdjustPopulation implements events.Target. Floors at zero.
func (s *Settlement) AdjustPopulation(delta int) { s.setPopulation(s.Population + delta) }

// AdjustHappiness implements events.Target. Clamps to [0,100].
func (s *Settlement) AdjustHappiness(delta int) { s.Happiness = clamp(s.Happiness+delta, 0, 100) }

// Tracks reports whether r is one of the settlement's resources.
func (s *Settlement) Tracks(r economy.Resource) bool {
	return s.Resources.Has(r) || s.Production.Has(r)
}

// TrackedResources returns the tracked resources in canonical order.
func (s *Settlement) TrackedResources() []economy.Resource {
	var out []economy.Resource
	for _, r := range economy.AllResources {
		if s.Tracks(r) {
			out = append(out, r)
		}
	}
	return out
}

// --- Buildings ---

// HasBuilding implements events.Target.
func (s *Settlement) HasBuilding(kind economy.BuildingKind) bool {
	for _, b := range s.Buildings {
		if b.Kind == kind {
			return true
		}
	}
	return false
}

// BuildingKinds lists constructed buildings in construction order.
func (s *Settlement) BuildingKinds() []economy.BuildingKind {
	out := make([]economy.BuildingKind, len(s.Buildings))
	for i, b := range s.Buildings {
		out[i] = b.Kind
	}
	return out
}

func (s *Settlement) bonus(effect economy.EffectCategory) float64 {
	m := 1.0
	for _, b := range s.Buildings {
		if b.Effect == effect {
			m *= b.Bonus
		}
	}
	return m
}

// DefenseBonus implements events.Target.
func (s *Settlement) DefenseBonus() float64 { return s.bonus(economy.EffectDefense) }

// TradeBonus multiplies how much surplus may leave in one tick.
func (s *Settlement) TradeBonus() float64 { return s.bonus(economy.EffectTrade) }

// StorageBonus raises the hoarding cap.
func (s *Settlement) StorageBonus() float64 { return s.bonus(economy.EffectStorage) }

// CanBuild reports why def cannot be constructed, or nil.
func (s *Settlement) CanBuild(def economy.BuildingDef) error {
	if s.HasBuilding(def.Kind) {
		return ErrAlreadyBuilt
	}
	if !s.Resources.Covers(def.Cost) {
		return ErrInsufficientResources
	}
	return nil
}

// AttemptBuild debits the exact cost and records the building. It returns
// false without touching stock when the building exists or is unaffordable.
func (s *Settlement) AttemptBuild(def economy.BuildingDef) bool {
	if s.CanBuild(def) != nil {
		return false
	}
	for _, r := range economy.AllResources {
		if c := def.Cost.Get(r); c > 0 {
			s.Resources.Debit(r, c)
		}
	}
	s.Buildings = append(s.Buildings, def)
	return true
}

// --- Per-tick rules ---

// Produce adds one tick of output for every resource with a base yield.
// mods holds the current phase's multipliers; missing keys mean 1.
func (s *Settlement) Produce(mods map[economy.Resource]float64, rules Rules) {
	if s.Population <= 0 {
		return
	}
	laborEff := 1.0
	if rules.LaborSaturation > 0 {
		laborEff = math.Min(1, float64(s.LaborLimit)/rules.LaborSaturation)
	}
	happy := float64(s.Happiness) / 100

	for _, r := range economy.AllResources {
		base := s.Production.Get(r)
		if base <= 0 {
			continue
		}
		out := base * laborEff * happy * s.buildingBonus(r) * s.specialization(r) *
			modifier(mods, r) * s.suppression(r)
		s.Resources.Add(r, out)
	}
}

func (s *Settlement) buildingBonus(r economy.Resource) float64 {
	m := 1.0
	for _, b := range s.Buildings {
		if b.Applies(r) {
			m *= b.Bonus
		}
	}
	return m
}

func (s *Settlement) specialization(r economy.Resource) float64 {
	if m, ok := s.Specialization[r]; ok && m > 0 {
		return m
	}
	return 1
}

func modifier(mods map[economy.Resource]float64, r economy.Resource) float64 {
	if m, ok := mods[r]; ok {
		return m
	}
	return 1
}

// suppression is the production factor left by active events halting r.
// Mitigating buildings let part of the output through.
func (s *Settlement) suppression(r economy.Resource) float64 {
	f := 1.0
	for _, a := range s.Active {
		if a.def.SuppressesResource(r) {
			f *= 1 - events.Scale(s, a.def)
		}
	}
	return f
}

// ConsumeAndGrow eats food and moves population. It returns the population
// change.
func (s *Settlement) ConsumeAndGrow(popModifier float64, rules Rules) int {
	pop := s.Population
	need := float64(pop) * rules.ConsumptionPerCapita
	for _, r := range economy.FoodResources {
		if need <= 0 {
			break
		}
		need -= s.Resources.Debit(r, need)
	}

	food := s.Resources.Food()
	s.Starving = false

	switch {
	case food > float64(pop)*rules.GrowthFoodPerCapita:
		happy := float64(s.Happiness) / 100
		growth := int(math.Round(float64(pop) * rules.GrowthRate * happy * popModifier))
		s.setPopulation(pop + growth)
	case food < float64(pop)*rules.DeclineFoodPerCapita:
		decline := int(math.Round(float64(pop) * rules.DeclineRate))
		s.setPopulation(pop - decline)
		s.AdjustHappiness(-rules.ShortagePenalty)
		s.Starving = true
	}
	return s.Population - pop
}

// RecomputeHappiness rebuilds happiness from scarcity, crowding, recent
// adverse events and starvation.
func (s *Settlement) RecomputeHappiness(rules Rules) {
	h := 100
	for _, r := range s.TrackedResources() {
		if s.Resources.Get(r) < rules.ScarcityThreshold {
			h -= rules.ScarcityPenalty
		}
	}
	if s.Population > rules.OvercrowdingPopulation {
		h -= rules.OvercrowdingPenalty
	}
	start := len(s.History) - rules.HistoryWindow
	if start < 0 {
		start = 0
	}
	for _, e := range s.History[start:] {
		if e.Adverse {
			h -= rules.AdverseEventPenalty
		}
	}
	if s.Starving {
		h -= rules.ShortagePenalty
	}
	s.Happiness = clamp(h, 0, 100)
}

// RecomputeSustainability scores how balanced the settlement's stocks are.
func (s *Settlement) RecomputeSustainability(rules Rules) {
	score := 100
	hoard := rules.HoardCap * s.StorageBonus()
	for _, r := range s.TrackedResources() {
		amt := s.Resources.Get(r)
		switch {
		case amt < rules.ScarcityThreshold:
			score -= rules.UnsustainableScarcityPenalty
		case amt > hoard:
			score -= rules.HoardPenalty
		}
	}
	if s.Population < rules.ViabilityFloor {
		score -= rules.ViabilityPenalty
	}
	s.Sustainability = clamp(score, 0, 100)
}

// CollectTax removes gold × rate × happiness/100 and returns it.
func (s *Settlement) CollectTax() float64 {
	due := s.Resources.Get(economy.Gold) * s.TaxRate * float64(s.Happiness) / 100
	if due <= 0 {
		return 0
	}
	return s.Resources.Debit(economy.Gold, due)
}

// Thresholds returns the survival and growth stock levels used by trade.
func (s *Settlement) Thresholds(rules Rules) (survival, growth float64) {
	pop := float64(s.Population)
	return rules.SurvivalBase + pop*rules.SurvivalPerCapita,
		rules.GrowthBase + pop*rules.GrowthPerCapita
}

// --- Events ---

// ApplyEvent implements events.Subject: the start effect runs now, the
// event is recorded and its timer is started or refreshed.
func (s *Settlement) ApplyEvent(def events.Def, tick uint64) {
	events.Apply(s, def.Effect, events.Scale(s, def))

	s.History = append(s.History, HistoryEntry{Tick: tick, Kind: def.Kind, Name: def.Name, Adverse: def.Adverse})
	if len(s.History) > HistoryRetention {
		s.History = s.History[len(s.History)-HistoryRetention:]
	}

	d := def.Duration
	if d < 1 {
		d = 1
	}
	for i := range s.Active {
		if s.Active[i].Kind == def.Kind {
			s.Active[i].Remaining = d
			s.Active[i].def = def
			return
		}
	}
	s.Active = append(s.Active, ActiveEvent{Kind: def.Kind, Name: def.Name, Remaining: d, def: def})
}

// AgeEvents implements events.Subject. Each event loses one tick; those
// still active apply their recurring effect.
func (s *Settlement) AgeEvents() {
	kept := s.Active[:0]
	for _, a := range s.Active {
		a.Remaining--
		if a.Remaining <= 0 {
			continue
		}
		if a.def.Recurring != nil {
			events.Apply(s, *a.def.Recurring, events.Scale(s, a.def))
		}
		kept = append(kept, a)
	}
	s.Active = kept
}

// HasActiveEvent reports whether kind is currently in effect.
func (s *Settlement) HasActiveEvent(kind events.Kind) bool {
	for _, a := range s.Active {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// HasAnyActiveEvent implements events.Subject.
func (s *Settlement) HasAnyActiveEvent() bool { return len(s.Active) > 0 }

// BlocksReceiving reports whether an active event closes inbound trade.
func (s *Settlement) BlocksReceiving() bool {
	for _, a := range s.Active {
		if a.def.BlocksReceiving {
			return true
		}
	}
	return false
}

// BlocksSending reports whether an active event closes outbound trade.
func (s *Settlement) BlocksSending() bool {
	for _, a := range s.Active {
		if a.def.BlocksSending {
			return true
		}
	}
	return false
}
