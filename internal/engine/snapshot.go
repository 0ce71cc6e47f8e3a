package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/talgya/kingdom-sim/internal/economy"
	"github.com/talgya/kingdom-sim/internal/social"
	"github.com/talgya/kingdom-sim/internal/world"
)

// SettlementView is a read-only copy of one settlement.
type SettlementView struct {
	ID             uint64                       `json:"id"`
	Name           string                       `json:"name"`
	Position       world.Point                  `json:"position"`
	Population     int                          `json:"population"`
	LaborLimit     int                          `json:"labor_limit"`
	Resources      economy.Stock                `json:"resources"`
	Production     economy.Stock                `json:"production"`
	Specialization map[economy.Resource]float64 `json:"specialization,omitempty"`
	Happiness      int                          `json:"happiness"`
	Sustainability int                          `json:"sustainability"`
	Starving       bool                         `json:"starving"`
	ActiveEvents   []social.ActiveEvent         `json:"active_events"`
	History        []social.HistoryEntry        `json:"history"`
	Buildings      []economy.BuildingKind       `json:"buildings"`
}

// CartView is a read-only copy of a cart in flight.
type CartView struct {
	ID       uint64           `json:"id"`
	From     string           `json:"from"`
	To       string           `json:"to"`
	Resource economy.Resource `json:"resource"`
	Amount   float64          `json:"amount"`
	Progress float64          `json:"progress"`
	Position world.Point      `json:"position"`
}

// Snapshot is a consistent post-tick view of the kingdom.
type Snapshot struct {
	Tick         uint64             `json:"tick"`
	Phase        string             `json:"phase"`
	PhaseIndex   int                `json:"phase_index"`
	Calendar     string             `json:"calendar"`
	Paused       bool               `json:"paused"`
	Stats        Stats              `json:"stats"`
	Settlements  []SettlementView   `json:"settlements"`
	Carts        []CartView         `json:"carts"`
	Achievements []AchievementState `json:"achievements"`
}

// Snapshot copies the current state. The result shares nothing with the
// live simulation.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Simulation) snapshot() Snapshot {
	snap := Snapshot{
		Tick:         s.LastTick,
		Phase:        s.Stats.Phase,
		PhaseIndex:   s.PhaseIndex,
		Calendar:     s.calendar(s.LastTick),
		Paused:       s.Paused,
		Stats:        s.Stats,
		Settlements:  make([]SettlementView, 0, len(s.Settlements)),
		Carts:        make([]CartView, 0, s.Transport.InFlight()),
		Achievements: append([]AchievementState(nil), s.Achievements...),
	}
	for _, sett := range s.Settlements {
		snap.Settlements = append(snap.Settlements, viewOf(sett))
	}
	for _, c := range s.Transport.Carts() {
		snap.Carts = append(snap.Carts, CartView{
			ID:       c.ID,
			From:     c.From,
			To:       c.To,
			Resource: c.Resource,
			Amount:   c.Cargo,
			Progress: c.Progress,
			Position: c.Position,
		})
	}
	return snap
}

func viewOf(sett *social.Settlement) SettlementView {
	spec := make(map[economy.Resource]float64, len(sett.Specialization))
	for r, m := range sett.Specialization {
		spec[r] = m
	}
	return SettlementView{
		ID:             sett.ID,
		Name:           sett.Name,
		Position:       sett.Position,
		Population:     sett.Population,
		LaborLimit:     sett.LaborLimit,
		Resources:      sett.Resources.Clone(),
		Production:     sett.Production.Clone(),
		Specialization: spec,
		Happiness:      sett.Happiness,
		Sustainability: sett.Sustainability,
		Starving:       sett.Starving,
		ActiveEvents:   append([]social.ActiveEvent{}, sett.Active...),
		History:        append([]social.HistoryEntry{}, sett.History...),
		Buildings:      sett.BuildingKinds(),
	}
}

// Settlement returns a view of the named settlement.
func (s *Simulation) Settlement(name string) (SettlementView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sett, ok := s.SettlementIndex[name]
	if !ok {
		return SettlementView{}, false
	}
	return viewOf(sett), true
}

// Digest hashes the canonical JSON of the snapshot. Two runs with the same
// seed and scenario have equal digests after the same number of ticks.
// The paused flag is excluded since it is not simulation state.
func (s *Simulation) Digest() string {
	snap := s.Snapshot()
	snap.Paused = false
	raw, err := json.Marshal(snap)
	if err != nil {
		// Snapshot holds only plain data.
		panic(err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
