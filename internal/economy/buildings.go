package economy

// BuildingKind names a constructible structure.
type BuildingKind string

// EffectCategory is the named effect a building's bonus multiplies.
type EffectCategory string

const (
	EffectProduction EffectCategory = "production" // all production
	EffectFood       EffectCategory = "food"       // food production only
	EffectTrade      EffectCategory = "trade"      // outgoing share cap
	EffectStorage    EffectCategory = "storage"    // hoarding cap
	EffectDefense    EffectCategory = "defense"    // adverse event magnitude divisor
	EffectPrestige   EffectCategory = "prestige"   // no mechanical effect
)

// ValidEffect reports whether c is a known category.
func ValidEffect(c EffectCategory) bool {
	switch c {
	case EffectProduction, EffectFood, EffectTrade, EffectStorage, EffectDefense, EffectPrestige:
		return true
	}
	return false
}

// BuildingDef describes one catalog entry.
type BuildingDef struct {
	Kind   BuildingKind   `yaml:"kind" json:"kind"`
	Name   string         `yaml:"name" json:"name"`
	Cost   Stock          `yaml:"cost" json:"cost"`
	Effect EffectCategory `yaml:"effect" json:"effect"`
	Bonus  float64        `yaml:"bonus" json:"bonus"` // multiplicative, >= 1
}

// Applies reports whether the building's bonus applies to production of r.
func (b BuildingDef) Applies(r Resource) bool {
	switch b.Effect {
	case EffectProduction:
		return true
	case EffectFood:
		return r.IsFood()
	}
	return false
}
