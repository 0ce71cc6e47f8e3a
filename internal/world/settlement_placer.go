// Settlement placement helpers: spacing checks and procedural names.
package world

import (
	"fmt"
	"math/rand"
)

func tooClose(p Point, existing []Point, minDist float64) bool {
	for _, e := range existing {
		if Distance(p, e) < minDist {
			return true
		}
	}
	return false
}

// nameRetries bounds redraws of a taken name before it gets a numeral.
const nameRetries = 8

// generateNames produces count unique settlement names by combining
// syllables. Once draws keep colliding, a name is disambiguated with a
// numeral ("Oakford 2"), so any count terminates.
func generateNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
		"Silver", "Red", "White", "Dark", "Bright", "High", "Low",
		"Old", "New", "Far", "Deep", "Long", "Broad", "Gold", "Frost",
		"Storm", "Thorn", "Elm", "Oak", "Pine", "Copper", "River",
	}
	suffixes := []string{
		"haven", "ford", "hollow", "wick", "bridge", "gate", "keep",
		"stead", "wood", "field", "dale", "crest", "vale", "port",
		"town", "bury", "marsh", "well", "brook", "cliff", "moor",
		"ridge", "watch", "fall", "rest", "point", "reach", "helm",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)

	for len(names) < count {
		var name string
		for try := 0; try <= nameRetries; try++ {
			name = prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))]
			if !used[name] {
				break
			}
		}
		for n, base := 2, name; used[name]; n++ {
			name = fmt.Sprintf("%s %d", base, n)
		}
		used[name] = true
		names = append(names, name)
	}

	return names
}
