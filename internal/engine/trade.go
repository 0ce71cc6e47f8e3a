// Inter-settlement trade: surplus/deficit allocation per resource.
package engine

import (
	"math"
	"sort"

	"github.com/talgya/kingdom-sim/internal/economy"
	"github.com/talgya/kingdom-sim/internal/scenario"
	"github.com/talgya/kingdom-sim/internal/social"
	"github.com/talgya/kingdom-sim/internal/world"
)

// Transfer is one planned shipment from a surplus settlement to a deficit one.
type Transfer struct {
	From     string           `json:"from"`
	To       string           `json:"to"`
	Resource economy.Resource `json:"resource"`
	Amount   float64          `json:"amount"` // debited from the source
}

type tradeSource struct {
	sett    *social.Settlement
	surplus float64 // remaining this tick
	share   float64 // fraction of remaining surplus one allocation may take
}

type tradeDeficit struct {
	sett    *social.Settlement
	need    float64
	urgency float64
}

// PlanTrades computes this tick's transfers. Settlements are not mutated;
// surplus is tracked locally so no source is promised twice.
func PlanTrades(setts []*social.Settlement, rules social.Rules, cfg scenario.TradeConfig) []Transfer {
	var out []Transfer
	for _, r := range economy.AllResources {
		out = append(out, planResource(r, setts, rules, cfg)...)
	}
	return out
}

func planResource(r economy.Resource, setts []*social.Settlement, rules social.Rules, cfg scenario.TradeConfig) []Transfer {
	var sources []*tradeSource
	var deficits []*tradeDeficit

	for _, s := range setts {
		survival, growth := s.Thresholds(rules)
		stock := s.Resources.Get(r)

		if stock > growth*cfg.SurplusMultiplier {
			if s.BlocksSending() {
				continue
			}
			sources = append(sources, &tradeSource{
				sett:    s,
				surplus: stock - growth,
				share:   math.Min(1, cfg.ShareCap*s.TradeBonus()),
			})
			continue
		}

		if stock < growth && s.Tracks(r) && !s.BlocksReceiving() {
			d := &tradeDeficit{sett: s, need: growth - stock}
			if stock < survival || growth <= 0 {
				d.urgency = cfg.CriticalUrgency
			} else {
				d.urgency = d.need / growth
			}
			deficits = append(deficits, d)
		}
	}
	if len(sources) == 0 || len(deficits) == 0 {
		return nil
	}

	sort.SliceStable(deficits, func(i, j int) bool {
		return deficits[i].urgency > deficits[j].urgency
	})

	var out []Transfer
	for _, d := range deficits {
		nearest := make([]*tradeSource, len(sources))
		copy(nearest, sources)
		sort.SliceStable(nearest, func(i, j int) bool {
			return world.Distance(d.sett.Position, nearest[i].sett.Position) <
				world.Distance(d.sett.Position, nearest[j].sett.Position)
		})

		for _, src := range nearest {
			if d.need <= 0 {
				break
			}
			send := math.Min(d.need, math.Min(src.surplus, src.share*src.surplus))
			if send < cfg.MinTransfer || send <= 0 {
				continue
			}
			src.surplus -= send
			d.need -= send
			out = append(out, Transfer{
				From:     src.sett.Name,
				To:       d.sett.Name,
				Resource: r,
				Amount:   send,
			})
		}
	}
	return out
}
