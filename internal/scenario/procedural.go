package scenario

import (
	"fmt"
	"log/slog"

	"github.com/talgya/kingdom-sim/internal/world"
)

// Procedural builds a scenario with n generated settlements and the
// default catalogs. The same seed always yields the same map.
func Procedural(seed int64, n int) (Config, error) {
	if n < 1 {
		return Config{}, invalid("procedural scenario needs at least one settlement, got %d", n)
	}
	gen := world.DefaultGenConfig()
	gen.Count = n
	gen.Seed = seed
	// Widen the map so larger kingdoms still fit at the default spacing.
	for float64(n)*gen.MinSpacing*gen.MinSpacing*2 > gen.Width*gen.Height {
		gen.Width *= 1.25
		gen.Height *= 1.25
	}

	sites := world.Generate(gen)

	cfg := Default()
	cfg.Name = fmt.Sprintf("Procedural %d", seed)
	cfg.Settlements = make([]SettlementSpec, 0, len(sites))
	for _, site := range sites {
		slog.Debug("site generated", "name", site.Name, "terrain", world.TerrainName(site.Terrain), "population", site.Population)
		cfg.Settlements = append(cfg.Settlements, SettlementSpec{
			Name:       site.Name,
			Position:   site.Position,
			Population: site.Population,
			Resources:  site.Resources,
			Production: site.Production,
		})
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
