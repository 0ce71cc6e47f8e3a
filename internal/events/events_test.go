package events

import (
	"testing"

	"github.com/talgya/kingdom-sim/internal/economy"
)

type fakeTarget struct {
	stock     economy.Stock
	pop       int
	happiness int
	buildings map[economy.BuildingKind]bool
	defense   float64
}

func (f *fakeTarget) Stock() economy.Stock { return f.stock }
func (f *fakeTarget) PopulationCount() int { return f.pop }
func (f *fakeTarget) AdjustPopulation(d int) {
	f.pop += d
	if f.pop < 0 {
		f.pop = 0
	}
}
func (f *fakeTarget) AdjustHappiness(d int) {
	f.happiness += d
	if f.happiness < 0 {
		f.happiness = 0
	}
	if f.happiness > 100 {
		f.happiness = 100
	}
}
func (f *fakeTarget) HasBuilding(k economy.BuildingKind) bool { return f.buildings[k] }
func (f *fakeTarget) DefenseBonus() float64                   { return f.defense }

func newTarget() *fakeTarget {
	return &fakeTarget{
		stock:     economy.Stock{economy.Grain: 10, economy.Wood: 40, economy.Gold: 5},
		pop:       100,
		happiness: 90,
		buildings: map[economy.BuildingKind]bool{},
		defense:   1,
	}
}

func TestApplyEffectClasses(t *testing.T) {
	tests := []struct {
		name  string
		eff   Effect
		check func(t *testing.T, f *fakeTarget)
	}{
		{
			name: "drain floors at zero and skips untracked",
			eff:  Effect{Class: ClassDrain, Resources: []economy.Resource{economy.Grain, economy.Crops}, Amount: 15},
			check: func(t *testing.T, f *fakeTarget) {
				if f.stock[economy.Grain] != 0 {
					t.Fatalf("grain = %v, want 0", f.stock[economy.Grain])
				}
				if f.stock.Has(economy.Crops) {
					t.Fatalf("drain must not start tracking crops")
				}
			},
		},
		{
			name: "fractional drain of all tracked",
			eff:  Effect{Class: ClassDrain, AllTracked: true, Fraction: 0.5},
			check: func(t *testing.T, f *fakeTarget) {
				if f.stock[economy.Wood] != 20 || f.stock[economy.Grain] != 5 {
					t.Fatalf("stock after half drain = %v", f.stock)
				}
			},
		},
		{
			name: "boost starts tracking",
			eff:  Effect{Class: ClassBoost, Resources: []economy.Resource{economy.Crops}, Amount: 20},
			check: func(t *testing.T, f *fakeTarget) {
				if f.stock[economy.Crops] != 20 {
					t.Fatalf("crops = %v, want 20", f.stock[economy.Crops])
				}
			},
		},
		{
			name: "population loss floors at zero",
			eff:  Effect{Class: ClassPopulation, Amount: -500},
			check: func(t *testing.T, f *fakeTarget) {
				if f.pop != 0 {
					t.Fatalf("pop = %d, want 0", f.pop)
				}
			},
		},
		{
			name: "composite runs steps in order",
			eff: Effect{Class: ClassComposite, Steps: []Effect{
				{Class: ClassDrain, Resources: []economy.Resource{economy.Wood}, Amount: 10},
				{Class: ClassHappiness, Amount: 25},
			}},
			check: func(t *testing.T, f *fakeTarget) {
				if f.stock[economy.Wood] != 30 {
					t.Fatalf("wood = %v, want 30", f.stock[economy.Wood])
				}
				if f.happiness != 100 {
					t.Fatalf("happiness = %d, want clamp at 100", f.happiness)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTarget()
			Apply(f, tt.eff, 1)
			tt.check(t, f)
		})
	}
}

func TestScaleMitigationAndDefense(t *testing.T) {
	plague := Def{
		Kind:        "plague",
		Adverse:     true,
		MitigatedBy: map[economy.BuildingKind]float64{"wall": 0.3},
	}
	f := newTarget()
	if got := Scale(f, plague); got != 1 {
		t.Fatalf("unmitigated scale = %v, want 1", got)
	}
	f.buildings["wall"] = true
	if got := Scale(f, plague); got < 0.6999 || got > 0.7001 {
		t.Fatalf("wall scale = %v, want 0.7", got)
	}
	f.defense = 1.5
	want := 0.7 / 1.5
	if got := Scale(f, plague); got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("wall+defense scale = %v, want %v", got, want)
	}

	festival := Def{Kind: "festival", Adverse: false}
	if got := Scale(f, festival); got != 1 {
		t.Fatalf("defense must not weaken beneficial events, got %v", got)
	}
}

type seqRand struct {
	floats []float64
	ints   []int
}

func (r *seqRand) Float64() float64 {
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *seqRand) Intn(n int) int {
	v := r.ints[0] % n
	r.ints = r.ints[1:]
	return v
}

type fakeSubject struct {
	name    string
	active  int
	aged    int
	applied []Kind
}

func (s *fakeSubject) Key() string             { return s.name }
func (s *fakeSubject) HasAnyActiveEvent() bool { return s.active > 0 }
func (s *fakeSubject) AgeEvents() {
	s.aged++
	if s.active > 0 {
		s.active--
	}
}
func (s *fakeSubject) ApplyEvent(def Def, tick uint64) {
	s.applied = append(s.applied, def.Kind)
	s.active = def.Duration
}

func TestEngineStepNonStacking(t *testing.T) {
	cat := NewCatalog([]Def{
		{Kind: "drought", Duration: 3},
		{Kind: "festival", Duration: 1},
	})
	eng := &Engine{Catalog: cat, Chance: 0.5}

	busy := &fakeSubject{name: "busy", active: 3}
	idle := &fakeSubject{name: "idle"}
	calm := &fakeSubject{name: "calm"}
	rng := &seqRand{floats: []float64{0.1, 0.2, 0.9}, ints: []int{1}}

	occ := eng.Step(5, []Subject{busy, idle, calm}, rng)

	if len(occ) != 1 || occ[0].Settlement != "idle" || occ[0].Kind != "festival" || occ[0].Tick != 5 {
		t.Fatalf("occurrences = %+v", occ)
	}
	if len(busy.applied) != 0 {
		t.Fatalf("busy settlement should not stack a second event")
	}
	if len(calm.applied) != 0 {
		t.Fatalf("roll above chance must not trigger")
	}
	for _, s := range []*fakeSubject{busy, idle, calm} {
		if s.aged != 1 {
			t.Fatalf("%s aged %d times, want 1", s.name, s.aged)
		}
	}
	if len(rng.floats) != 0 {
		t.Fatalf("expected one roll per subject, %d left", len(rng.floats))
	}
}

func TestEngineStepStackingAllowed(t *testing.T) {
	cat := NewCatalog([]Def{{Kind: "bandits", Duration: 1}})
	eng := &Engine{Catalog: cat, Chance: 1, AllowStacking: true}
	busy := &fakeSubject{name: "busy", active: 5}
	occ := eng.Step(1, []Subject{busy}, &seqRand{floats: []float64{0.3}, ints: []int{0}})
	if len(occ) != 1 {
		t.Fatalf("stacking enabled should trigger, got %+v", occ)
	}
}

func TestCatalogLookup(t *testing.T) {
	cat := NewCatalog([]Def{{Kind: "plague", Adverse: true}, {Kind: "festival"}})
	if !cat.IsAdverse("plague") || cat.IsAdverse("festival") || cat.IsAdverse("unknown") {
		t.Fatalf("IsAdverse mismatch")
	}
	if _, ok := cat.Lookup("unknown"); ok {
		t.Fatalf("unknown kind should not resolve")
	}
}
