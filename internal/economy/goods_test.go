package economy

import "testing"

func TestStockDebitClampsAtZero(t *testing.T) {
	s := Stock{Grain: 10}
	if got := s.Debit(Grain, 25); got != 10 {
		t.Fatalf("Debit returned %v, want 10", got)
	}
	if s[Grain] != 0 {
		t.Fatalf("grain = %v, want 0", s[Grain])
	}
	if got := s.Debit(Wood, 5); got != 0 {
		t.Fatalf("debit of untracked returned %v, want 0", got)
	}
	if s.Has(Wood) {
		t.Fatalf("debit should not start tracking wood")
	}
}

func TestStockCoversAndTotals(t *testing.T) {
	s := Stock{Wood: 30, Stone: 15, Grain: 4, Fish: 6}
	if !s.Covers(Stock{Wood: 20, Stone: 15}) {
		t.Fatalf("expected cost to be covered")
	}
	if s.Covers(Stock{Wood: 20, Iron: 1}) {
		t.Fatalf("untracked iron must not cover a cost of 1")
	}
	if got := s.Food(); got != 10 {
		t.Fatalf("Food = %v, want 10", got)
	}
	if got := s.Total(); got != 55 {
		t.Fatalf("Total = %v, want 55", got)
	}
}

func TestTrackedFollowsCanonicalOrder(t *testing.T) {
	s := Stock{Livestock: 1, Wood: 1, Fish: 1}
	got := s.Tracked()
	want := []Resource{Wood, Fish, Livestock}
	if len(got) != len(want) {
		t.Fatalf("Tracked = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tracked[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestBuildingApplies(t *testing.T) {
	farm := BuildingDef{Kind: "farm", Effect: EffectFood, Bonus: 1.3}
	mine := BuildingDef{Kind: "mine", Effect: EffectProduction, Bonus: 1.4}
	if !farm.Applies(Grain) || farm.Applies(Wood) {
		t.Fatalf("farm should apply to food only")
	}
	if !mine.Applies(Wood) || !mine.Applies(Fish) {
		t.Fatalf("mine should apply to everything")
	}
}
