// Procedural site generation using layered simplex noise.
// Elevation, rainfall and temperature fields decide each site's terrain,
// and terrain decides what the settlement there produces.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/kingdom-sim/internal/economy"
)

// GenConfig holds procedural generation parameters.
type GenConfig struct {
	Count      int     // Number of settlements to place
	Seed       int64   // Noise and placement seed (0 = random)
	Width      float64 // Map extent on X
	Height     float64 // Map extent on Y
	MinSpacing float64 // Minimum distance between two sites
	SeaLevel   float64 // Elevation below which a site is coastal
}

// DefaultGenConfig matches the extent of the built-in kingdom map.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Count:      8,
		Seed:       0,
		Width:      1400,
		Height:     900,
		MinSpacing: 160,
		SeaLevel:   0.30,
	}
}

// Terrain is the dominant land type around a site.
type Terrain uint8

const (
	TerrainPlains   Terrain = iota // Grain and livestock
	TerrainForest                  // Wood
	TerrainMountain                // Stone, iron, some gold
	TerrainCoast                   // Fish and water
	TerrainHills                   // Crops and stone
	TerrainTundra                  // Livestock and wood, sparse
)

// TerrainName returns a human-readable terrain name.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainPlains:
		return "Plains"
	case TerrainForest:
		return "Forest"
	case TerrainMountain:
		return "Mountain"
	case TerrainCoast:
		return "Coast"
	case TerrainHills:
		return "Hills"
	case TerrainTundra:
		return "Tundra"
	default:
		return "Unknown"
	}
}

// Site is a generated settlement location with its starting economy.
type Site struct {
	Name       string
	Position   Point
	Terrain    Terrain
	Population int
	Resources  economy.Stock
	Production economy.Stock
}

// Generate places cfg.Count sites and derives their economies from noise.
func Generate(cfg GenConfig) []Site {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	// Three noise generators for independent layers.
	elevNoise := opensimplex.NewNormalized(seed)
	rainNoise := opensimplex.NewNormalized(seed + 1)
	tempNoise := opensimplex.NewNormalized(seed + 2)

	rng := rand.New(rand.NewSource(seed + 200))
	points := placePoints(rng, cfg)
	names := generateNames(rng, len(points))

	sites := make([]Site, 0, len(points))
	for i, p := range points {
		elev := octaveNoise(elevNoise, p.X, p.Y, 4, 0.004, 0.5)
		rain := octaveNoise(rainNoise, p.X, p.Y, 3, 0.003, 0.5)
		temp := octaveNoise(tempNoise, p.X, p.Y, 3, 0.0025, 0.5)

		// Colder toward the top of the map and at altitude.
		temp = temp*0.6 + (p.Y/cfg.Height)*0.3 + (1.0-elev)*0.1

		terrain := deriveTerrain(elev, rain, temp, cfg)
		pop := 200 + rng.Intn(400)
		resources, production := makeEconomy(terrain, elev, rain)

		sites = append(sites, Site{
			Name:       names[i],
			Position:   p,
			Terrain:    terrain,
			Population: pop,
			Resources:  resources,
			Production: production,
		})
	}
	return sites
}

// placePoints scatters positions, enforcing a minimum spacing. Gives up on a
// slot after a bounded number of attempts so tight configs still terminate.
func placePoints(rng *rand.Rand, cfg GenConfig) []Point {
	margin := cfg.MinSpacing / 2
	var points []Point
	for len(points) < cfg.Count {
		placed := false
		for attempt := 0; attempt < 200; attempt++ {
			p := Point{
				X: margin + rng.Float64()*(cfg.Width-2*margin),
				Y: margin + rng.Float64()*(cfg.Height-2*margin),
			}
			if !tooClose(p, points, cfg.MinSpacing) {
				points = append(points, p)
				placed = true
				break
			}
		}
		if !placed {
			break
		}
	}
	return points
}

// deriveTerrain determines terrain type from environmental parameters.
func deriveTerrain(elev, rain, temp float64, cfg GenConfig) Terrain {
	if elev < cfg.SeaLevel {
		return TerrainCoast
	}
	if elev > 0.72 {
		return TerrainMountain
	}
	if temp < 0.25 {
		return TerrainTundra
	}
	if rain > 0.45 && elev > 0.45 {
		return TerrainForest
	}
	if elev > 0.55 {
		return TerrainHills
	}
	return TerrainPlains
}

// makeEconomy returns starting stocks and base per-tick yields for a terrain.
func makeEconomy(terrain Terrain, elev, rain float64) (economy.Stock, economy.Stock) {
	res := economy.Stock{}
	prod := economy.Stock{}

	switch terrain {
	case TerrainPlains:
		res[economy.Grain], prod[economy.Grain] = 40, math.Round(2+rain*2)
		res[economy.Livestock], prod[economy.Livestock] = 25, 1
		res[economy.Wood] = 15
	case TerrainForest:
		res[economy.Wood], prod[economy.Wood] = 50, 3
		res[economy.Stone], prod[economy.Stone] = 20, 1
		res[economy.Grain] = 25
	case TerrainMountain:
		res[economy.Stone], prod[economy.Stone] = 35, 2
		res[economy.Iron], prod[economy.Iron] = 20, math.Round(1+elev*2)
		res[economy.Gold], prod[economy.Gold] = 10, 1
	case TerrainCoast:
		res[economy.Fish], prod[economy.Fish] = 30, 3
		res[economy.Water], prod[economy.Water] = 40, 2
		res[economy.Stone] = 15
	case TerrainHills:
		res[economy.Crops], prod[economy.Crops] = 50, 3
		res[economy.Stone], prod[economy.Stone] = 20, 1
		res[economy.Wood] = 20
	case TerrainTundra:
		res[economy.Livestock], prod[economy.Livestock] = 30, 2
		res[economy.Wood], prod[economy.Wood] = 20, 1
		res[economy.Fish] = 20
	}
	return res, prod
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
