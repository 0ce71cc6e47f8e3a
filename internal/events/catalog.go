// Package events provides the disruptive-event catalog, the generic effect
// applier, and the per-tick event engine that starts and ages events on
// settlements.
package events

import (
	"github.com/talgya/kingdom-sim/internal/economy"
)

// Kind identifies an event in the catalog.
type Kind string

// EffectClass tags the variant held by an Effect.
type EffectClass string

const (
	ClassDrain      EffectClass = "drain"      // subtract from resources, floor at zero
	ClassBoost      EffectClass = "boost"      // add to resources
	ClassPopulation EffectClass = "population" // add/subtract people, floor at zero
	ClassHappiness  EffectClass = "happiness"  // add/subtract happiness, clamp [0,100]
	ClassComposite  EffectClass = "composite"  // ordered sequence of Steps
)

// Effect is a structured, data-driven event effect. Which fields matter
// depends on Class.
type Effect struct {
	Class EffectClass `yaml:"class" json:"class"`

	// Drain/boost targets. AllTracked applies to every tracked resource.
	Resources  []economy.Resource `yaml:"resources,omitempty" json:"resources,omitempty"`
	AllTracked bool               `yaml:"all_tracked,omitempty" json:"all_tracked,omitempty"`

	// Magnitude: an absolute amount and/or a fraction of the current value.
	// Population and happiness deltas use the sign of Amount/Fraction.
	Amount   float64 `yaml:"amount,omitempty" json:"amount,omitempty"`
	Fraction float64 `yaml:"fraction,omitempty" json:"fraction,omitempty"`

	Steps []Effect `yaml:"steps,omitempty" json:"steps,omitempty"`
}

// Def is one catalog entry.
type Def struct {
	Kind     Kind   `yaml:"kind" json:"kind"`
	Name     string `yaml:"name" json:"name"`
	Adverse  bool   `yaml:"adverse" json:"adverse"`
	Duration int    `yaml:"duration" json:"duration"` // ticks active, >= 1

	Effect    Effect  `yaml:"effect" json:"effect"`                           // applied once on start
	Recurring *Effect `yaml:"recurring,omitempty" json:"recurring,omitempty"` // applied each tick while active

	// Persistent modifiers consulted while the event is active.
	Suppresses      []economy.Resource `yaml:"suppresses,omitempty" json:"suppresses,omitempty"`
	BlocksReceiving bool               `yaml:"blocks_receiving,omitempty" json:"blocks_receiving,omitempty"`
	BlocksSending   bool               `yaml:"blocks_sending,omitempty" json:"blocks_sending,omitempty"`

	// Building kind → fraction by which that building reduces magnitude.
	MitigatedBy map[economy.BuildingKind]float64 `yaml:"mitigated_by,omitempty" json:"mitigated_by,omitempty"`
}

// SuppressesResource reports whether the event halts production of r.
func (d Def) SuppressesResource(r economy.Resource) bool {
	for _, s := range d.Suppresses {
		if s == r {
			return true
		}
	}
	return false
}

// Catalog is the ordered event list with a kind index.
type Catalog struct {
	Defs  []Def
	index map[Kind]int
}

// NewCatalog indexes defs by kind. Later duplicates shadow earlier ones.
func NewCatalog(defs []Def) *Catalog {
	c := &Catalog{Defs: defs, index: make(map[Kind]int, len(defs))}
	for i, d := range defs {
		c.index[d.Kind] = i
	}
	return c
}

// Lookup returns the definition for kind.
func (c *Catalog) Lookup(kind Kind) (Def, bool) {
	if c == nil {
		return Def{}, false
	}
	i, ok := c.index[kind]
	if !ok {
		return Def{}, false
	}
	return c.Defs[i], true
}

// IsAdverse reports whether kind names an adverse event.
func (c *Catalog) IsAdverse(kind Kind) bool {
	d, ok := c.Lookup(kind)
	return ok && d.Adverse
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Defs)
}
