package intake

import (
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestApplyConfirmedConflictDetection(t *testing.T) {
	r := NewRecord("conflict-1")
	r.SetClock(fixedClock())

	conflicts := r.Apply([]Update{{Key: KeyBudget, Value: Int(500000), Status: StatusConfirmed}})
	if len(conflicts) != 0 {
		t.Fatalf("initial apply: unexpected conflicts %v", conflicts)
	}

	conflicts = r.Apply([]Update{{Key: KeyBudget, Value: Int(700000), Status: StatusConfirmed}})
	if len(conflicts) != 1 || conflicts[0].Key != KeyBudget {
		t.Fatalf("expected budget conflict, got %v", conflicts)
	}
	if got := conflicts[0].Previous.Num(); got != 500000 {
		t.Errorf("conflict previous = %d, want 500000", got)
	}
	if got := conflicts[0].New.Num(); got != 700000 {
		t.Errorf("conflict new = %d, want 700000", got)
	}
	if got := r.Value(KeyBudget).Num(); got != 500000 {
		t.Errorf("confirmed budget was overwritten to %d", got)
	}
}

func TestApplyInferredUpgrade(t *testing.T) {
	r := NewRecord("upgrade-1")
	r.SetClock(fixedClock())

	r.Apply([]Update{{Key: KeyCity, Value: String("Recife"), Status: StatusInferred}})
	if got := r.Status(KeyCity); got != StatusInferred {
		t.Fatalf("city status = %q, want inferred", got)
	}

	conflicts := r.Apply([]Update{{Key: KeyCity, Value: String("Recife"), Status: StatusConfirmed}})
	if len(conflicts) != 0 {
		t.Fatalf("upgrade produced conflicts: %v", conflicts)
	}
	if got := r.Status(KeyCity); got != StatusConfirmed {
		t.Errorf("city status = %q, want confirmed", got)
	}
}

func TestApplyInferredOverwrite(t *testing.T) {
	r := NewRecord("overwrite-1")
	r.SetClock(fixedClock())

	r.Apply([]Update{{Key: KeyNeighborhood, Value: String("manaira"), Status: StatusInferred}})
	conflicts := r.Apply([]Update{{Key: KeyNeighborhood, Value: String("tambau"), Status: StatusConfirmed}})
	if len(conflicts) != 0 {
		t.Fatalf("inferred overwrite produced conflicts: %v", conflicts)
	}
	if got := r.Value(KeyNeighborhood).Str(); got != "tambau" {
		t.Errorf("neighborhood = %q, want tambau", got)
	}
}

func TestApplySameValueNoConflict(t *testing.T) {
	r := NewRecord("same-1")
	r.SetClock(fixedClock())

	r.Apply([]Update{{Key: KeyBedrooms, Value: Int(3), Status: StatusConfirmed}})
	conflicts := r.Apply([]Update{{Key: KeyBedrooms, Value: Int(3), Status: StatusConfirmed}})
	if len(conflicts) != 0 {
		t.Fatalf("re-confirmation produced conflicts: %v", conflicts)
	}
}

func TestApplyIntentConflictOnlyForOperations(t *testing.T) {
	r := NewRecord("intent-1")
	r.SetClock(fixedClock())

	r.Apply([]Update{{Key: KeyIntent, Value: String("comprar"), Status: StatusConfirmed}})
	conflicts := r.Apply([]Update{{Key: KeyIntent, Value: String("alugar"), Status: StatusConfirmed}})
	if len(conflicts) != 1 || conflicts[0].Key != KeyIntent {
		t.Fatalf("expected intent conflict, got %v", conflicts)
	}
	if got := r.Value(KeyIntent).Str(); got != "comprar" {
		t.Errorf("intent = %q, want comprar", got)
	}

	// A browsing intent may still settle on an operation.
	r2 := NewRecord("intent-2")
	r2.SetClock(fixedClock())
	r2.Apply([]Update{{Key: KeyIntent, Value: String("pesquisar"), Status: StatusConfirmed}})
	conflicts = r2.Apply([]Update{{Key: KeyIntent, Value: String("comprar"), Status: StatusConfirmed}})
	if len(conflicts) != 0 {
		t.Fatalf("browsing intent change produced conflicts: %v", conflicts)
	}
	if got := r2.Value(KeyIntent).Str(); got != "comprar" {
		t.Errorf("intent = %q, want comprar", got)
	}
}

func TestApplyMixedBatch(t *testing.T) {
	r := NewRecord("mixed-1")
	r.SetClock(fixedClock())

	r.Apply([]Update{
		{Key: KeyCity, Value: String("Joao Pessoa"), Status: StatusConfirmed},
		{Key: KeyBudget, Value: Int(200000), Status: StatusInferred},
	})

	conflicts := r.Apply([]Update{
		{Key: KeyCity, Value: String("Recife"), Status: StatusConfirmed},
		{Key: KeyBudget, Value: Int(200000), Status: StatusConfirmed},
		{Key: KeyBedrooms, Value: Int(2), Status: StatusConfirmed},
	})

	if len(conflicts) != 1 || conflicts[0].Key != KeyCity {
		t.Fatalf("expected single city conflict, got %v", conflicts)
	}
	if got := r.Value(KeyCity).Str(); got != "Joao Pessoa" {
		t.Errorf("city = %q, want Joao Pessoa", got)
	}
	if got := r.Status(KeyBudget); got != StatusConfirmed {
		t.Errorf("budget status = %q, want confirmed", got)
	}
	if got := r.Value(KeyBedrooms).Num(); got != 2 {
		t.Errorf("bedrooms = %d, want 2", got)
	}
}

func TestApplyBudgetRangeNoConflict(t *testing.T) {
	r := NewRecord("range-1")
	r.SetClock(fixedClock())

	conflicts := r.Apply([]Update{
		{Key: KeyBudget, Value: Int(1200000), Status: StatusConfirmed},
		{Key: KeyBudgetMin, Value: Int(800000), Status: StatusConfirmed},
	})
	if len(conflicts) != 0 {
		t.Fatalf("valid range produced conflicts: %v", conflicts)
	}
	if got := r.Value(KeyBudget).Num(); got != 1200000 {
		t.Errorf("budget = %d, want 1200000", got)
	}
	if got := r.Value(KeyBudgetMin).Num(); got != 800000 {
		t.Errorf("budget_min = %d, want 800000", got)
	}
}

func TestApplyRangeOverPriorValueInsideRange(t *testing.T) {
	r := NewRecord("range-2")
	r.SetClock(fixedClock())

	r.Apply([]Update{{Key: KeyBudget, Value: Int(900000), Status: StatusConfirmed}})

	conflicts := r.Apply([]Update{
		{Key: KeyBudgetMin, Value: Int(800000), Status: StatusConfirmed},
		{Key: KeyBudget, Value: Int(1200000), Status: StatusConfirmed},
	})
	if len(conflicts) != 0 {
		t.Fatalf("range covering prior value produced conflicts: %v", conflicts)
	}
	if got := r.Value(KeyBudget).Num(); got != 1200000 {
		t.Errorf("budget = %d, want 1200000", got)
	}
}

func TestApplyRangeOutsidePriorConfirmedValue(t *testing.T) {
	r := NewRecord("range-3")
	r.SetClock(fixedClock())

	r.Apply([]Update{{Key: KeyBudget, Value: Int(2000000), Status: StatusConfirmed}})

	conflicts := r.Apply([]Update{
		{Key: KeyBudgetMin, Value: Int(800000), Status: StatusConfirmed},
		{Key: KeyBudget, Value: Int(1200000), Status: StatusConfirmed},
	})
	if len(conflicts) != 1 || conflicts[0].Key != KeyBudget {
		t.Fatalf("expected budget conflict, got %v", conflicts)
	}
	if got := r.Value(KeyBudget).Num(); got != 2000000 {
		t.Errorf("confirmed budget was overwritten to %d", got)
	}
}

func TestApplyNewMaxBelowConfirmedMin(t *testing.T) {
	r := NewRecord("range-4")
	r.SetClock(fixedClock())

	r.Apply([]Update{
		{Key: KeyBudgetMin, Value: Int(800000), Status: StatusConfirmed},
		{Key: KeyBudget, Value: Int(1200000), Status: StatusConfirmed},
	})

	conflicts := r.Apply([]Update{{Key: KeyBudget, Value: Int(600000), Status: StatusConfirmed}})
	if len(conflicts) != 1 || conflicts[0].Key != KeyBudget {
		t.Fatalf("expected budget conflict, got %v", conflicts)
	}
	if got := r.Value(KeyBudget).Num(); got != 1200000 {
		t.Errorf("budget = %d, want 1200000", got)
	}
}

func TestApplyNewMaxWithinKnownMin(t *testing.T) {
	r := NewRecord("range-5")
	r.SetClock(fixedClock())

	r.Apply([]Update{{Key: KeyBudgetMin, Value: Int(800000), Status: StatusConfirmed}})

	conflicts := r.Apply([]Update{{Key: KeyBudget, Value: Int(1000000), Status: StatusConfirmed}})
	if len(conflicts) != 0 {
		t.Fatalf("max above known min produced conflicts: %v", conflicts)
	}
	if got := r.Value(KeyBudget).Num(); got != 1000000 {
		t.Errorf("budget = %d, want 1000000", got)
	}

	conflicts = r.Apply([]Update{{Key: KeyBudgetMin, Value: Int(1500000), Status: StatusConfirmed}})
	if len(conflicts) != 1 || conflicts[0].Key != KeyBudgetMin {
		t.Fatalf("expected budget_min conflict, got %v", conflicts)
	}
}

func TestApplyDropsMistypedUpdates(t *testing.T) {
	r := NewRecord("typed-1")
	r.SetClock(fixedClock())

	conflicts := r.Apply([]Update{
		{Key: KeyBedrooms, Value: String("three"), Status: StatusConfirmed},
		{Key: KeyCity, Value: String("Natal"), Status: StatusConfirmed},
		{Key: "favorite_color", Value: String("blue"), Status: StatusConfirmed},
	})
	if len(conflicts) != 0 {
		t.Fatalf("mistyped updates produced conflicts: %v", conflicts)
	}
	if r.Has(KeyBedrooms) {
		t.Error("mistyped bedrooms update was stored")
	}
	if !r.Has(KeyCity) {
		t.Error("valid city update was dropped with the mistyped one")
	}
	if r.Revision != 1 {
		t.Errorf("revision = %d, want 1", r.Revision)
	}
}

func TestApplyBumpsRevisionPerAcceptedUpdate(t *testing.T) {
	r := NewRecord("rev-1")
	r.SetClock(fixedClock())

	r.Apply([]Update{
		{Key: KeyCity, Value: String("Natal"), Status: StatusConfirmed},
		{Key: KeyBudget, Value: Int(500000), Status: StatusInferred},
	})
	if r.Revision != 2 {
		t.Fatalf("revision = %d, want 2", r.Revision)
	}

	// Rejected update leaves the revision untouched.
	r.Apply([]Update{{Key: KeyCity, Value: String("Recife"), Status: StatusConfirmed}})
	if r.Revision != 2 {
		t.Errorf("revision after conflict = %d, want 2", r.Revision)
	}
}
