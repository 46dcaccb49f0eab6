package quality

import (
	"testing"

	"leadtriage_backend/internal/intake"
)

func recordWith(t *testing.T, updates ...intake.Update) *intake.Record {
	t.Helper()
	r := intake.NewRecord("quality-test")
	if conflicts := r.Apply(updates); len(conflicts) != 0 {
		t.Fatalf("setup conflicts: %v", conflicts)
	}
	return r
}

func fullRecord(t *testing.T) *intake.Record {
	t.Helper()
	return recordWith(t,
		intake.Update{Key: intake.KeyIntent, Value: intake.String("alugar"), Status: intake.StatusConfirmed},
		intake.Update{Key: intake.KeyCity, Value: intake.String("Joao Pessoa"), Status: intake.StatusConfirmed},
		intake.Update{Key: intake.KeyNeighborhood, Value: intake.String("manaira"), Status: intake.StatusConfirmed},
		intake.Update{Key: intake.KeyPropertyType, Value: intake.String("apartamento"), Status: intake.StatusConfirmed},
		intake.Update{Key: intake.KeyBedrooms, Value: intake.Int(3), Status: intake.StatusConfirmed},
		intake.Update{Key: intake.KeyParking, Value: intake.Int(2), Status: intake.StatusConfirmed},
		intake.Update{Key: intake.KeyBudget, Value: intake.Int(400000), Status: intake.StatusConfirmed},
		intake.Update{Key: intake.KeyTimeline, Value: intake.String("30d"), Status: intake.StatusConfirmed},
	)
}

func TestComputeFullConfirmedRecord(t *testing.T) {
	got := Compute(fullRecord(t), nil, nil, 0)

	if got.Completeness != 1.0 {
		t.Errorf("completeness = %v, want 1.0", got.Completeness)
	}
	if got.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", got.Confidence)
	}
	if got.Score != 100 {
		t.Errorf("score = %d, want 100", got.Score)
	}
	if got.Grade != GradeA {
		t.Errorf("grade = %q, want A", got.Grade)
	}
	if len(got.Gaps) != 0 {
		t.Errorf("gaps = %v, want none", got.Gaps)
	}
}

func TestComputeEmptyRecord(t *testing.T) {
	got := Compute(intake.NewRecord("empty"), nil, nil, 0)

	if got.Score != 0 {
		t.Errorf("score = %d, want 0", got.Score)
	}
	if got.Grade != GradeD {
		t.Errorf("grade = %q, want D", got.Grade)
	}
	if len(got.Gaps) != len(CriticalOrder) {
		t.Fatalf("gaps = %d, want %d", len(got.Gaps), len(CriticalOrder))
	}
	for i, key := range CriticalOrder {
		if got.Gaps[i].Key != key || got.Gaps[i].Severity != SeverityCriticalMissing {
			t.Errorf("gap[%d] = %+v, want missing %s", i, got.Gaps[i], key)
		}
	}
}

func TestComputeDealbreakers(t *testing.T) {
	cases := []struct {
		name    string
		updates []intake.Update
		wantKey intake.Key
	}{
		{
			name: "buy intent without payment type",
			updates: []intake.Update{
				{Key: intake.KeyIntent, Value: intake.String("comprar"), Status: intake.StatusConfirmed},
			},
			wantKey: intake.KeyPaymentType,
		},
		{
			name: "high budget without condo ceiling",
			updates: []intake.Update{
				{Key: intake.KeyBudget, Value: intake.Int(800000), Status: intake.StatusConfirmed},
			},
			wantKey: intake.KeyCondoMax,
		},
		{
			name: "ambiguous beachfront",
			updates: []intake.Update{
				{Key: intake.KeyMicroLocation, Value: intake.String("orla"), Status: intake.StatusConfirmed},
			},
			wantKey: intake.KeyMicroLocation,
		},
		{
			name: "inferred micro location",
			updates: []intake.Update{
				{Key: intake.KeyMicroLocation, Value: intake.String("beira_mar"), Status: intake.StatusInferred},
			},
			wantKey: intake.KeyMicroLocation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(recordWith(t, tc.updates...), nil, nil, 0)
			if got.Dealbreakers != 1 {
				t.Fatalf("dealbreakers = %d, want 1", got.Dealbreakers)
			}
			if len(got.Gaps) == 0 || got.Gaps[0].Key != tc.wantKey || got.Gaps[0].Severity != SeverityDealbreaker {
				t.Errorf("top gap = %+v, want dealbreaker %s", got.Gaps, tc.wantKey)
			}
		})
	}
}

func TestComputeDealbreakersIndependent(t *testing.T) {
	r := recordWith(t,
		intake.Update{Key: intake.KeyIntent, Value: intake.String("comprar"), Status: intake.StatusConfirmed},
		intake.Update{Key: intake.KeyBudget, Value: intake.Int(900000), Status: intake.StatusConfirmed},
		intake.Update{Key: intake.KeyMicroLocation, Value: intake.String("orla"), Status: intake.StatusConfirmed},
	)

	got := Compute(r, nil, nil, 0)
	if got.Dealbreakers != 3 {
		t.Fatalf("dealbreakers = %d, want 3", got.Dealbreakers)
	}
	want := []intake.Key{intake.KeyPaymentType, intake.KeyCondoMax, intake.KeyMicroLocation}
	for i, key := range want {
		if got.Gaps[i].Key != key || got.Gaps[i].Severity != SeverityDealbreaker {
			t.Errorf("gap[%d] = %+v, want dealbreaker %s", i, got.Gaps[i], key)
		}
	}
}

func TestComputeHighValueThresholdRespected(t *testing.T) {
	r := recordWith(t,
		intake.Update{Key: intake.KeyBudget, Value: intake.Int(600000), Status: intake.StatusConfirmed},
	)

	if got := Compute(r, nil, nil, 700000); got.Dealbreakers != 0 {
		t.Errorf("dealbreakers below threshold = %d, want 0", got.Dealbreakers)
	}
	if got := Compute(r, nil, nil, 500000); got.Dealbreakers != 1 {
		t.Errorf("dealbreakers above threshold = %d, want 1", got.Dealbreakers)
	}
}

func TestComputeGapRanking(t *testing.T) {
	r := recordWith(t,
		intake.Update{Key: intake.KeyIntent, Value: intake.String("comprar"), Status: intake.StatusConfirmed},
		intake.Update{Key: intake.KeyCity, Value: intake.String("Natal"), Status: intake.StatusInferred},
		intake.Update{Key: intake.KeyBudget, Value: intake.Int(300000), Status: intake.StatusConfirmed},
	)
	conflicts := []intake.Conflict{{Key: intake.KeyBedrooms}}

	got := Compute(r, nil, conflicts, 0)

	want := []Gap{
		{Key: intake.KeyPaymentType, Severity: SeverityDealbreaker},
		{Key: intake.KeyNeighborhood, Severity: SeverityCriticalMissing},
		{Key: intake.KeyPropertyType, Severity: SeverityCriticalMissing},
		{Key: intake.KeyBedrooms, Severity: SeverityCriticalMissing},
		{Key: intake.KeyParking, Severity: SeverityCriticalMissing},
		{Key: intake.KeyTimeline, Severity: SeverityCriticalMissing},
		{Key: intake.KeyCity, Severity: SeverityLowConfidence},
	}
	if len(got.Gaps) != len(want) {
		t.Fatalf("gaps = %v, want %v", got.Gaps, want)
	}
	for i := range want {
		if got.Gaps[i] != want[i] {
			t.Errorf("gap[%d] = %+v, want %+v", i, got.Gaps[i], want[i])
		}
	}
}

func TestComputeConflictGap(t *testing.T) {
	conflicts := []intake.Conflict{{Key: intake.KeyBudget}}
	got := Compute(fullRecord(t), nil, conflicts, 0)

	if len(got.Gaps) != 1 {
		t.Fatalf("gaps = %v, want a single conflict gap", got.Gaps)
	}
	if got.Gaps[0].Key != intake.KeyBudget || got.Gaps[0].Severity != SeverityConflict {
		t.Errorf("gap = %+v, want budget conflict", got.Gaps[0])
	}
}

func TestComputeMonotonicInCompleteness(t *testing.T) {
	partial := recordWith(t,
		intake.Update{Key: intake.KeyIntent, Value: intake.String("alugar"), Status: intake.StatusConfirmed},
		intake.Update{Key: intake.KeyCity, Value: intake.String("Natal"), Status: intake.StatusConfirmed},
	)
	before := Compute(partial, nil, nil, 0).Score

	partial.Apply([]intake.Update{
		{Key: intake.KeyBedrooms, Value: intake.Int(2), Status: intake.StatusConfirmed},
	})
	after := Compute(partial, nil, nil, 0).Score

	if after < before {
		t.Errorf("score decreased after filling a critical field: %d -> %d", before, after)
	}
}

func TestGradeAcceptable(t *testing.T) {
	cases := []struct {
		grade Grade
		want  bool
	}{
		{GradeA, true},
		{GradeB, true},
		{GradeC, false},
		{GradeD, false},
	}
	for _, tc := range cases {
		if got := tc.grade.Acceptable(); got != tc.want {
			t.Errorf("%s.Acceptable() = %v, want %v", tc.grade, got, tc.want)
		}
	}
}
