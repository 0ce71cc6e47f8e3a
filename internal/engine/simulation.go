// Simulation ties together all kingdom systems and runs them each tick.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/talgya/kingdom-sim/internal/entropy"
	"github.com/talgya/kingdom-sim/internal/events"
	"github.com/talgya/kingdom-sim/internal/scenario"
	"github.com/talgya/kingdom-sim/internal/social"
)

// MaxEvents is how many world events the log keeps.
const MaxEvents = 1000

// Event categories.
const (
	CategoryEvent       = "event"
	CategoryTrade       = "trade"
	CategorySeason      = "season"
	CategoryBuild       = "build"
	CategoryAchievement = "achievement"
	CategoryFault       = "fault"
)

var (
	ErrUnknownSettlement = errors.New("unknown settlement")
	ErrUnknownBuilding   = errors.New("unknown building")
)

// Event is a notable occurrence in the kingdom.
type Event struct {
	Tick        uint64         `json:"tick"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Settlement  string         `json:"settlement,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// Stats tracks aggregate kingdom statistics.
type Stats struct {
	Tick              uint64  `json:"tick"`
	Phase             string  `json:"phase"`
	TotalPopulation   int     `json:"total_population"`
	TotalResources    float64 `json:"total_resources"`
	AvgHappiness      float64 `json:"avg_happiness"`
	AvgSustainability float64 `json:"avg_sustainability"`
	MinSustainability int     `json:"min_sustainability"`
	Prosperity        int     `json:"prosperity"`
	TradeCount        int     `json:"trade_count"`
	Treasury          float64 `json:"treasury"`
	LostInTransit     float64 `json:"lost_in_transit"`
	CartsInFlight     int     `json:"carts_in_flight"`
	Buildings         int     `json:"buildings"`
}

// TickReport summarizes what one tick did.
type TickReport struct {
	Tick        uint64              `json:"tick"`
	Generation  uint64              `json:"generation,omitempty"`
	Phase       string              `json:"phase"`
	Stats       Stats               `json:"stats"`
	Occurrences []events.Occurrence `json:"occurrences,omitempty"`
	Transfers   []Transfer          `json:"transfers,omitempty"`
	Deliveries  []Delivery          `json:"deliveries,omitempty"`
	Unlocked    []string            `json:"unlocked,omitempty"`
}

// Simulation holds the complete kingdom state. Every exported method takes
// the same lock, so ticks, commands and reads never interleave.
type Simulation struct {
	mu sync.Mutex

	cfg     scenario.Config
	catalog *events.Catalog
	trigger *events.Engine
	rng     *entropy.Source

	Settlements     []*social.Settlement
	SettlementIndex map[string]*social.Settlement
	Transport       *Transport
	Events          []Event
	Achievements    []AchievementState

	LastTick   uint64
	PhaseIndex int
	Paused     bool
	Treasury   float64
	TradeCount int
	Stats      Stats

	emitted    uint64 // events emitted since init
	generation uint64 // number of resets

	observers []func(TickReport)
	resetters []func(generation uint64)
}

// NewSimulation builds a kingdom from cfg. The seed fixes every random draw.
func NewSimulation(cfg scenario.Config, seed int64) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	catalog := events.NewCatalog(cfg.Events.Catalog)
	s := &Simulation{
		cfg:     cfg,
		catalog: catalog,
		trigger: &events.Engine{
			Catalog:       catalog,
			Chance:        cfg.Events.Chance,
			AllowStacking: cfg.Events.AllowStacking,
		},
		rng: entropy.New(seed),
	}
	s.init()
	return s, nil
}

// init (re)creates all mutable state from the immutable config.
func (s *Simulation) init() {
	s.rng.Reset()
	s.Settlements = make([]*social.Settlement, 0, len(s.cfg.Settlements))
	s.SettlementIndex = make(map[string]*social.Settlement, len(s.cfg.Settlements))
	for i, spec := range s.cfg.Settlements {
		sett := social.NewSettlement(uint64(i+1), spec.Name, spec.Position, spec.Population,
			spec.Resources, spec.Production, spec.Specialization, s.cfg.SettlementTaxRate(spec))
		s.Settlements = append(s.Settlements, sett)
		s.SettlementIndex[sett.Name] = sett
	}
	s.Transport = NewTransport(s.cfg.Transport)
	s.Events = nil
	s.emitted = 0
	s.Achievements = newAchievements(s.cfg.Achievements)
	s.LastTick = 0
	s.PhaseIndex, _ = s.cfg.PhaseAt(0)
	s.Treasury = 0
	s.TradeCount = 0
	s.updateStats()
}

// Seed returns the random seed the kingdom was created with.
func (s *Simulation) Seed() int64 { return s.rng.Seed() }

// Config returns the scenario the kingdom was built from.
func (s *Simulation) Config() scenario.Config { return s.cfg }

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastTick
}

// Subscribe registers fn to run after every tick, outside the lock.
func (s *Simulation) Subscribe(fn func(TickReport)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// OnReset registers fn to run after every Reset, outside the lock, with the
// new generation number.
func (s *Simulation) OnReset(fn func(generation uint64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetters = append(s.resetters, fn)
}

// Generation counts resets since the kingdom was created. Ticks restart
// from zero in every generation.
func (s *Simulation) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// AdvanceTick runs one full tick regardless of the paused flag.
func (s *Simulation) AdvanceTick() TickReport {
	s.mu.Lock()
	report := s.step()
	observers := s.observers
	s.mu.Unlock()

	for _, fn := range observers {
		fn(report)
	}
	return report
}

// Update is the paced entry point: it advances one tick unless paused and
// returns the current tick and whether it advanced.
func (s *Simulation) Update() (uint64, bool) {
	s.mu.Lock()
	paused := s.Paused
	tick := s.LastTick
	s.mu.Unlock()
	if paused {
		return tick, false
	}
	r := s.AdvanceTick()
	return r.Tick, true
}

// step executes the fixed sub-phase order. Caller holds the lock.
func (s *Simulation) step() TickReport {
	s.LastTick++
	tick := s.LastTick
	phase := s.processPhase(tick)
	rules := s.cfg.Rules

	s.produce(phase)
	s.consumeAndGrow(phase)
	s.recomputeWellbeing(rules)

	occ := s.trigger.Step(tick, s.subjects(), s.rng)
	s.recordOccurrences(occ)

	deliveries, err := s.Transport.Advance(1, s.lookup)
	if err != nil {
		s.fault(tick, err)
	}

	transfers := s.dispatchTrades(tick)

	s.checkConsistency(tick)
	s.updateStats()
	unlocked := s.checkAchievements(tick)

	return TickReport{
		Tick:        tick,
		Generation:  s.generation,
		Phase:       phase.Name,
		Stats:       s.Stats,
		Occurrences: occ,
		Transfers:   transfers,
		Deliveries:  deliveries,
		Unlocked:    unlocked,
	}
}

func (s *Simulation) subjects() []events.Subject {
	out := make([]events.Subject, len(s.Settlements))
	for i, sett := range s.Settlements {
		out[i] = sett
	}
	return out
}

func (s *Simulation) lookup(name string) *social.Settlement {
	return s.SettlementIndex[name]
}

func (s *Simulation) recordOccurrences(occ []events.Occurrence) {
	for _, o := range occ {
		s.EmitEvent(Event{
			Tick:        o.Tick,
			Description: fmt.Sprintf("%s strikes %s", o.Name, o.Settlement),
			Category:    CategoryEvent,
			Settlement:  o.Settlement,
			Meta: map[string]any{
				"kind":    string(o.Kind),
				"adverse": o.Adverse,
			},
		})
	}
}

// dispatchTrades plans this tick's transfers and loads them onto carts.
func (s *Simulation) dispatchTrades(tick uint64) []Transfer {
	planned := PlanTrades(s.Settlements, s.cfg.Rules, s.cfg.Trade)
	sent := planned[:0]
	for _, tr := range planned {
		from, to := s.lookup(tr.From), s.lookup(tr.To)
		if from == nil || to == nil {
			s.fault(tick, fmt.Errorf("transfer %s→%s: %w", tr.From, tr.To, ErrUnknownSettlement))
			continue
		}
		cart := s.Transport.Dispatch(tr, from, to, tick)
		if cart == nil {
			continue
		}
		tr.Amount = cart.Gross
		sent = append(sent, tr)
		s.TradeCount++
		s.EmitEvent(Event{
			Tick:        tick,
			Description: fmt.Sprintf("%s sends %.1f %s to %s", tr.From, cart.Gross, tr.Resource, tr.To),
			Category:    CategoryTrade,
			Settlement:  tr.From,
			Meta: map[string]any{
				"to":       tr.To,
				"resource": string(tr.Resource),
				"amount":   cart.Gross,
				"cart_id":  cart.ID,
			},
		})
	}
	return sent
}

// checkConsistency clamps any stock a bug drove negative or non-finite.
func (s *Simulation) checkConsistency(tick uint64) {
	for _, sett := range s.Settlements {
		for _, r := range sett.Resources.Tracked() {
			v := sett.Resources[r]
			if v >= 0 && !math.IsInf(v, 0) {
				continue
			}
			s.fault(tick, fmt.Errorf("%s %s stock is %v", sett.Name, r, v))
			sett.Resources[r] = 0
		}
	}
}

// fault handles a consistency violation: panic in strict mode, otherwise
// log it and keep a record.
func (s *Simulation) fault(tick uint64, err error) {
	if s.cfg.Strict {
		panic(fmt.Sprintf("consistency fault at tick %d: %v", tick, err))
	}
	slog.Error("consistency fault", "tick", tick, "error", err)
	s.EmitEvent(Event{
		Tick:        tick,
		Description: err.Error(),
		Category:    CategoryFault,
	})
}

// EmitEvent appends to the world event log, keeping the last MaxEvents.
func (s *Simulation) EmitEvent(e Event) {
	s.emitted++
	s.Events = append(s.Events, e)
	if len(s.Events) > MaxEvents {
		s.Events = s.Events[len(s.Events)-MaxEvents:]
	}
}

// RecentEvents returns up to n of the newest events, oldest first.
func (s *Simulation) RecentEvents(n int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.Events) {
		n = len(s.Events)
	}
	out := make([]Event, n)
	copy(out, s.Events[len(s.Events)-n:])
	return out
}

// EventsAfter returns the events emitted after cursor along with the new
// cursor. Events that already fell out of the log are skipped, and a cursor
// from before a Reset starts over from the beginning.
func (s *Simulation) EventsAfter(cursor uint64) ([]Event, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cursor > s.emitted {
		cursor = 0
	}
	first := s.emitted - uint64(len(s.Events))
	start := 0
	if cursor > first {
		start = int(cursor - first)
	}
	out := make([]Event, len(s.Events)-start)
	copy(out, s.Events[start:])
	return out, s.emitted
}

func (s *Simulation) updateStats() {
	st := Stats{
		Tick:              s.LastTick,
		TradeCount:        s.TradeCount,
		Treasury:          s.Treasury,
		LostInTransit:     s.Transport.Lost,
		CartsInFlight:     s.Transport.InFlight(),
		MinSustainability: 100,
	}
	if len(s.cfg.Phases) > 0 {
		st.Phase = s.cfg.Phases[s.PhaseIndex].Name
	}

	totalHappy, totalSust := 0, 0
	for _, sett := range s.Settlements {
		st.TotalPopulation += sett.Population
		st.TotalResources += sett.Resources.Total()
		st.Buildings += len(sett.Buildings)
		totalHappy += sett.Happiness
		totalSust += sett.Sustainability
		if sett.Sustainability < st.MinSustainability {
			st.MinSustainability = sett.Sustainability
		}
	}
	if n := len(s.Settlements); n > 0 {
		st.AvgHappiness = float64(totalHappy) / float64(n)
		st.AvgSustainability = float64(totalSust) / float64(n)
	}
	st.Prosperity = prosperity(st, s.cfg.Prosperity)
	s.Stats = st
}

// prosperity is the weighted kingdom score.
func prosperity(st Stats, w scenario.ProsperityConfig) int {
	score := float64(st.TotalPopulation)*w.Population +
		st.TotalResources*w.Resources +
		st.AvgSustainability*w.Sustainability +
		st.AvgHappiness*w.Happiness
	return int(score / w.Divisor)
}
