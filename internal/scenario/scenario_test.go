package scenario

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/talgya/kingdom-sim/internal/economy"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default scenario invalid: %v", err)
	}
	if len(cfg.Settlements) != 5 || cfg.Settlements[0].Name != "Leamington" {
		t.Fatalf("unexpected default settlements: %+v", cfg.Settlements)
	}
	for _, s := range cfg.Settlements {
		if len(s.Specialization) == 0 {
			t.Fatalf("%s has no specialization", s.Name)
		}
	}
}

func TestDefaultRoundTripsThroughYAML(t *testing.T) {
	raw, err := Marshal(Default())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse marshaled default: %v", err)
	}
	if len(cfg.Events.Catalog) != len(DefaultEvents()) || len(cfg.Buildings) != len(DefaultBuildings()) {
		t.Fatalf("catalogs lost in round trip")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "twin_villages.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "Twin Villages" || len(cfg.Settlements) != 2 {
		t.Fatalf("settlements not replaced: %+v", cfg.Settlements)
	}
	if cfg.PhaseLength != 10 || cfg.TaxRate != 0.05 {
		t.Fatalf("scalars not applied: phase %d tax %v", cfg.PhaseLength, cfg.TaxRate)
	}
	if cfg.Trade.MinTransfer != 2 || cfg.Trade.ShareCap != 0.6 {
		t.Fatalf("trade overlay = %+v", cfg.Trade)
	}
	if cfg.Rules.GrowthBase != 30 || cfg.Rules.LaborSaturation != 50 {
		t.Fatalf("rules overlay = %+v", cfg.Rules)
	}
	if len(cfg.Events.Catalog) == 0 || cfg.Events.Chance != 0 {
		t.Fatalf("events overlay: chance %v catalog %d", cfg.Events.Chance, len(cfg.Events.Catalog))
	}
	if got := cfg.Settlements[1].Specialization[economy.Grain]; got != 1.4 {
		t.Fatalf("specialization = %v", got)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown top-level key", "colour: blue\n"},
		{"negative population", "settlements:\n  - {name: A, position: {x: 0, y: 0}, population: -1}\n"},
		{"unknown resource", "settlements:\n  - {name: A, position: {x: 0, y: 0}, population: 1, resources: {mana: 3}}\n"},
		{"specialization not above one", "settlements:\n  - {name: A, position: {x: 0, y: 0}, population: 1, specialization: {grain: 1}}\n"},
		{"efficiency above one", "transport: {efficiency: 1.5}\n"},
		{"overlapping thresholds", "rules: {growth_food_per_capita: 0.05, decline_food_per_capita: 0.05}\n"},
		{"duplicate settlement", "settlements:\n  - {name: A, position: {x: 0, y: 0}, population: 1}\n  - {name: A, position: {x: 1, y: 0}, population: 1}\n"},
		{"mitigation by unknown building", "events:\n  catalog:\n    - {kind: flood, duration: 1, mitigated_by: {dam: 0.5}}\n"},
		{"not yaml", "settlements: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Parse error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestPhaseAt(t *testing.T) {
	cfg := Default()
	tests := []struct {
		tick uint64
		want string
	}{
		{0, "Spring"}, {19, "Spring"}, {20, "Summer"}, {60, "Winter"}, {80, "Spring"},
	}
	for _, tt := range tests {
		if _, p := cfg.PhaseAt(tt.tick); p.Name != tt.want {
			t.Fatalf("PhaseAt(%d) = %s, want %s", tt.tick, p.Name, tt.want)
		}
	}
	_, winter := cfg.PhaseAt(60)
	if winter.Modifier(economy.Crops) != 0.5 || winter.Modifier(economy.Gold) != 1 {
		t.Fatalf("winter modifiers wrong")
	}
}

func TestProceduralDeterministic(t *testing.T) {
	a, err := Procedural(99, 6)
	if err != nil {
		t.Fatalf("procedural: %v", err)
	}
	b, err := Procedural(99, 6)
	if err != nil {
		t.Fatalf("procedural: %v", err)
	}
	if len(a.Settlements) != len(b.Settlements) || len(a.Settlements) == 0 {
		t.Fatalf("settlement counts differ: %d vs %d", len(a.Settlements), len(b.Settlements))
	}
	for i := range a.Settlements {
		if a.Settlements[i].Name != b.Settlements[i].Name || a.Settlements[i].Position != b.Settlements[i].Position {
			t.Fatalf("settlement %d differs between runs", i)
		}
	}
	if _, err := Procedural(1, 0); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("zero settlements should be rejected, got %v", err)
	}
}

func TestProceduralBeyondNameCombinations(t *testing.T) {
	if testing.Short() {
		t.Skip("places hundreds of sites")
	}
	done := make(chan error, 1)
	go func() {
		_, err := Procedural(3, 900)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("procedural: %v", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("Procedural(3, 900) did not return")
	}
}
