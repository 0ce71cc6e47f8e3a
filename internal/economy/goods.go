// Package economy provides resource kinds, stock bookkeeping, and the
// building catalog types shared by settlements and the trade engine.
package economy

// Resource is a tradeable commodity kind.
type Resource string

const (
	Wood      Resource = "wood"
	Stone     Resource = "stone"
	Grain     Resource = "grain"
	Gold      Resource = "gold"
	Iron      Resource = "iron"
	Fish      Resource = "fish"
	Crops     Resource = "crops"
	Water     Resource = "water"
	Livestock Resource = "livestock"
)

// AllResources is the canonical iteration order. Anything that mutates state
// or produces output walks resources in this order, never in map order.
var AllResources = []Resource{Wood, Stone, Grain, Gold, Iron, Fish, Crops, Water, Livestock}

// FoodResources are consumed by population, in consumption order.
var FoodResources = []Resource{Grain, Crops, Fish}

// Valid reports whether r is one of the enumerated kinds.
func (r Resource) Valid() bool {
	for _, k := range AllResources {
		if k == r {
			return true
		}
	}
	return false
}

// IsFood reports whether r counts toward food supply.
func (r Resource) IsFood() bool {
	for _, k := range FoodResources {
		if k == r {
			return true
		}
	}
	return false
}

// Stock maps resource kind to quantity. Missing keys read as zero.
type Stock map[Resource]float64

// Get returns the quantity held, zero when untracked.
func (s Stock) Get(r Resource) float64 {
	return s[r]
}

// Has reports whether r is tracked in this stock.
func (s Stock) Has(r Resource) bool {
	_, ok := s[r]
	return ok
}

// Add credits qty (which must be non-negative) to r.
func (s Stock) Add(r Resource, qty float64) {
	if qty <= 0 {
		if _, ok := s[r]; !ok {
			s[r] = 0
		}
		return
	}
	s[r] += qty
}

// Debit removes up to qty of r, flooring at zero. Returns the amount removed.
func (s Stock) Debit(r Resource, qty float64) float64 {
	have := s[r]
	if qty <= 0 || have <= 0 {
		return 0
	}
	if qty > have {
		qty = have
	}
	s[r] = have - qty
	return qty
}

// Covers reports whether s holds at least every quantity in cost.
func (s Stock) Covers(cost Stock) bool {
	for _, r := range AllResources {
		need, ok := cost[r]
		if !ok {
			continue
		}
		if s[r] < need {
			return false
		}
	}
	return true
}

// Total sums every tracked quantity.
func (s Stock) Total() float64 {
	total := 0.0
	for _, r := range AllResources {
		total += s[r]
	}
	return total
}

// Food sums the food-category quantities.
func (s Stock) Food() float64 {
	total := 0.0
	for _, r := range FoodResources {
		total += s[r]
	}
	return total
}

// Tracked returns the tracked kinds in canonical order.
func (s Stock) Tracked() []Resource {
	out := make([]Resource, 0, len(s))
	for _, r := range AllResources {
		if _, ok := s[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns an independent copy.
func (s Stock) Clone() Stock {
	out := make(Stock, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
