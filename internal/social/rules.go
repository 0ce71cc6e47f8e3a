package social

import "golang.org/x/exp/constraints"

// HistoryRetention is how many past events a settlement keeps for display.
const HistoryRetention = 20

// Rules holds the tunable constants of the settlement model.
type Rules struct {
	LaborSaturation float64 `yaml:"labor_saturation" json:"labor_saturation"` // labor limit at which efficiency reaches 1

	ConsumptionPerCapita float64 `yaml:"consumption_per_capita" json:"consumption_per_capita"`
	GrowthFoodPerCapita  float64 `yaml:"growth_food_per_capita" json:"growth_food_per_capita"`   // food above pop×this grows
	DeclineFoodPerCapita float64 `yaml:"decline_food_per_capita" json:"decline_food_per_capita"` // food below pop×this shrinks
	GrowthRate           float64 `yaml:"growth_rate" json:"growth_rate"`
	DeclineRate          float64 `yaml:"decline_rate" json:"decline_rate"`
	ShortagePenalty      int     `yaml:"shortage_penalty" json:"shortage_penalty"`

	ScarcityThreshold      float64 `yaml:"scarcity_threshold" json:"scarcity_threshold"`
	ScarcityPenalty        int     `yaml:"scarcity_penalty" json:"scarcity_penalty"`
	OvercrowdingPopulation int     `yaml:"overcrowding_population" json:"overcrowding_population"`
	OvercrowdingPenalty    int     `yaml:"overcrowding_penalty" json:"overcrowding_penalty"`
	HistoryWindow          int     `yaml:"history_window" json:"history_window"`
	AdverseEventPenalty    int     `yaml:"adverse_event_penalty" json:"adverse_event_penalty"`

	UnsustainableScarcityPenalty int     `yaml:"unsustainable_scarcity_penalty" json:"unsustainable_scarcity_penalty"`
	HoardCap                     float64 `yaml:"hoard_cap" json:"hoard_cap"`
	HoardPenalty                 int     `yaml:"hoard_penalty" json:"hoard_penalty"`
	ViabilityFloor               int     `yaml:"viability_floor" json:"viability_floor"`
	ViabilityPenalty             int     `yaml:"viability_penalty" json:"viability_penalty"`

	SurvivalBase      float64 `yaml:"survival_base" json:"survival_base"`
	SurvivalPerCapita float64 `yaml:"survival_per_capita" json:"survival_per_capita"`
	GrowthBase        float64 `yaml:"growth_base" json:"growth_base"`
	GrowthPerCapita   float64 `yaml:"growth_per_capita" json:"growth_per_capita"`
}

// DefaultRules returns the kingdom's standard settlement tuning.
func DefaultRules() Rules {
	return Rules{
		LaborSaturation: 50,

		ConsumptionPerCapita: 0.010,
		GrowthFoodPerCapita:  0.10,
		DeclineFoodPerCapita: 0.05,
		GrowthRate:           0.02,
		DeclineRate:          0.01,
		ShortagePenalty:      5,

		ScarcityThreshold:      10,
		ScarcityPenalty:        5,
		OvercrowdingPopulation: 1000,
		OvercrowdingPenalty:    10,
		HistoryWindow:          5,
		AdverseEventPenalty:    5,

		UnsustainableScarcityPenalty: 10,
		HoardCap:                     200,
		HoardPenalty:                 5,
		ViabilityFloor:               100,
		ViabilityPenalty:             20,

		SurvivalBase:      8,
		SurvivalPerCapita: 0.004,
		GrowthBase:        50,
		GrowthPerCapita:   0.020,
	}
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
