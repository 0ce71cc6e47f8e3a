package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/kingdom-sim/internal/scenario"
)

// AchievementState is an achievement and whether it has been earned.
// Once unlocked it never locks again.
type AchievementState struct {
	scenario.Achievement
	Unlocked   bool   `json:"unlocked"`
	UnlockedAt uint64 `json:"unlocked_at,omitempty"`
}

func newAchievements(defs []scenario.Achievement) []AchievementState {
	out := make([]AchievementState, len(defs))
	for i, d := range defs {
		out[i] = AchievementState{Achievement: d}
	}
	return out
}

// metricValue reads m from the current stats.
func metricValue(st Stats, m scenario.Metric) float64 {
	switch m {
	case scenario.MetricTotalPopulation:
		return float64(st.TotalPopulation)
	case scenario.MetricMinSustainability:
		return float64(st.MinSustainability)
	case scenario.MetricProsperity:
		return float64(st.Prosperity)
	case scenario.MetricTradeCount:
		return float64(st.TradeCount)
	case scenario.MetricTick:
		return float64(st.Tick)
	case scenario.MetricTreasury:
		return st.Treasury
	case scenario.MetricBuildings:
		return float64(st.Buildings)
	}
	return 0
}

// checkAchievements unlocks newly satisfied achievements and returns their IDs.
func (s *Simulation) checkAchievements(tick uint64) []string {
	var unlocked []string
	for i := range s.Achievements {
		a := &s.Achievements[i]
		if a.Unlocked || metricValue(s.Stats, a.Metric) < a.Threshold {
			continue
		}
		a.Unlocked = true
		a.UnlockedAt = tick
		unlocked = append(unlocked, a.ID)

		slog.Info("achievement unlocked", "tick", tick, "id", a.ID, "name", a.Name)
		s.EmitEvent(Event{
			Tick:        tick,
			Description: fmt.Sprintf("Achievement: %s", a.Name),
			Category:    CategoryAchievement,
			Meta:        map[string]any{"id": a.ID},
		})
	}
	return unlocked
}
