package steward

import "github.com/talgya/kingdom-sim/internal/engine"

// Crisis levels, most severe first.
const (
	Critical = "CRITICAL"
	Warning  = "WARNING"
	Watch    = "WATCH"
	Healthy  = "HEALTHY"
)

// KingdomHealth holds diagnostic signals derived from a snapshot.
type KingdomHealth struct {
	Starving          int // settlements that could not feed themselves
	Unhappy           int // happiness below 40
	Threatened        int // settlements with an active event
	MinSustainability int
	AvgHappiness      float64
	CrisisLevel       string
}

// Triage computes a KingdomHealth from the snapshot.
func Triage(snap engine.Snapshot) *KingdomHealth {
	h := &KingdomHealth{
		MinSustainability: snap.Stats.MinSustainability,
		AvgHappiness:      snap.Stats.AvgHappiness,
	}
	for _, s := range snap.Settlements {
		if s.Starving {
			h.Starving++
		}
		if s.Happiness < 40 {
			h.Unhappy++
		}
		if len(s.ActiveEvents) > 0 {
			h.Threatened++
		}
	}

	n := len(snap.Settlements)
	switch {
	case n > 0 && h.Starving*2 >= n:
		h.CrisisLevel = Critical
	case h.MinSustainability < 20:
		h.CrisisLevel = Critical
	case h.Starving > 0 || h.Unhappy > 0:
		h.CrisisLevel = Warning
	case h.Threatened > 0:
		h.CrisisLevel = Watch
	default:
		h.CrisisLevel = Healthy
	}
	return h
}
