package events

// Subject is a settlement as seen by the event engine.
type Subject interface {
	Key() string
	HasAnyActiveEvent() bool
	AgeEvents()
	ApplyEvent(def Def, tick uint64)
}

// Rand is the random source the engine draws from.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Occurrence records an event that started this tick.
type Occurrence struct {
	Tick       uint64 `json:"tick"`
	Settlement string `json:"settlement"`
	Kind       Kind   `json:"kind"`
	Name       string `json:"name"`
	Adverse    bool   `json:"adverse"`
}

// Engine decides each tick whether an event starts on each settlement.
type Engine struct {
	Catalog       *Catalog
	Chance        float64 // per-settlement, per-tick start probability
	AllowStacking bool    // permit a new event while another is active
}

// Step ages every subject's active events, then samples new ones.
// Exactly one Float64 is drawn per subject per tick whether or not it is
// eligible, so the random stream depends only on the settlement count.
func (e *Engine) Step(tick uint64, subjects []Subject, rng Rand) []Occurrence {
	var out []Occurrence
	for _, s := range subjects {
		s.AgeEvents()

		roll := rng.Float64()
		if e.Catalog.Len() == 0 || roll >= e.Chance {
			continue
		}
		if !e.AllowStacking && s.HasAnyActiveEvent() {
			continue
		}

		def := e.Catalog.Defs[rng.Intn(e.Catalog.Len())]
		s.ApplyEvent(def, tick)
		out = append(out, Occurrence{
			Tick:       tick,
			Settlement: s.Key(),
			Kind:       def.Kind,
			Name:       def.Name,
			Adverse:    def.Adverse,
		})
	}
	return out
}
