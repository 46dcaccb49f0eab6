package scoring

import (
	"reflect"
	"testing"

	"leadtriage_backend/internal/intake"
)

func recordWith(t *testing.T, updates ...intake.Update) *intake.Record {
	t.Helper()
	r := intake.NewRecord("scoring-test")
	if conflicts := r.Apply(updates); len(conflicts) != 0 {
		t.Fatalf("setup conflicts: %v", conflicts)
	}
	return r
}

func TestComputeHotLead(t *testing.T) {
	r := recordWith(t,
		intake.Update{Key: intake.KeyBudget, Value: intake.Int(1200000), Status: intake.StatusConfirmed},
		intake.Update{Key: intake.KeyNeighborhood, Value: intake.String("manaira"), Status: intake.StatusConfirmed},
		intake.Update{Key: intake.KeyBedrooms, Value: intake.Int(3), Status: intake.StatusConfirmed},
		intake.Update{Key: intake.KeyTimeline, Value: intake.String("30d"), Status: intake.StatusConfirmed},
		intake.Update{Key: intake.KeyIntent, Value: intake.String("comprar"), Status: intake.StatusConfirmed},
	)

	got := Compute(r)
	if got.Score < 70 {
		t.Errorf("score = %d, want >= 70", got.Score)
	}
	if got.Temperature != TemperatureHot {
		t.Errorf("temperature = %q, want hot", got.Temperature)
	}
}

func TestComputeWeights(t *testing.T) {
	cases := []struct {
		name    string
		updates []intake.Update
		want    int
		reasons []string
	}{
		{
			name: "budget only",
			updates: []intake.Update{
				{Key: intake.KeyBudget, Value: intake.Int(500000), Status: intake.StatusConfirmed},
			},
			want:    20,
			reasons: []string{"budget_defined"},
		},
		{
			name: "city and neighborhood",
			updates: []intake.Update{
				{Key: intake.KeyCity, Value: intake.String("Joao Pessoa"), Status: intake.StatusConfirmed},
				{Key: intake.KeyNeighborhood, Value: intake.String("tambau"), Status: intake.StatusConfirmed},
			},
			want:    25,
			reasons: []string{"city_defined", "neighborhood_defined"},
		},
		{
			name: "ambiguous micro location earns nothing",
			updates: []intake.Update{
				{Key: intake.KeyMicroLocation, Value: intake.String("orla"), Status: intake.StatusConfirmed},
			},
			want:    0,
			reasons: []string{},
		},
		{
			name: "specific micro location",
			updates: []intake.Update{
				{Key: intake.KeyMicroLocation, Value: intake.String("beira_mar"), Status: intake.StatusConfirmed},
			},
			want:    10,
			reasons: []string{"micro_location_defined"},
		},
		{
			name: "two bedrooms below threshold",
			updates: []intake.Update{
				{Key: intake.KeyBedrooms, Value: intake.Int(2), Status: intake.StatusConfirmed},
			},
			want:    0,
			reasons: []string{},
		},
		{
			name: "parking and rent intent",
			updates: []intake.Update{
				{Key: intake.KeyParking, Value: intake.Int(2), Status: intake.StatusConfirmed},
				{Key: intake.KeyIntent, Value: intake.String("alugar"), Status: intake.StatusConfirmed},
			},
			want:    10,
			reasons: []string{"2_plus_parking", "intent_confirmed"},
		},
		{
			name: "browsing intent earns nothing",
			updates: []intake.Update{
				{Key: intake.KeyIntent, Value: intake.String("pesquisar"), Status: intake.StatusConfirmed},
			},
			want:    0,
			reasons: []string{},
		},
		{
			name: "flexible timeline",
			updates: []intake.Update{
				{Key: intake.KeyTimeline, Value: intake.String("flexivel"), Status: intake.StatusConfirmed},
			},
			want:    5,
			reasons: []string{"timeline_flexible"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(recordWith(t, tc.updates...))
			if got.Score != tc.want {
				t.Errorf("score = %d, want %d", got.Score, tc.want)
			}
			if !reflect.DeepEqual(got.Reasons, tc.reasons) {
				t.Errorf("reasons = %v, want %v", got.Reasons, tc.reasons)
			}
		})
	}
}

func TestComputeIdempotent(t *testing.T) {
	r := recordWith(t,
		intake.Update{Key: intake.KeyBudget, Value: intake.Int(800000), Status: intake.StatusConfirmed},
		intake.Update{Key: intake.KeyCity, Value: intake.String("Natal"), Status: intake.StatusInferred},
		intake.Update{Key: intake.KeyTimeline, Value: intake.String("3m"), Status: intake.StatusConfirmed},
	)

	first := Compute(r)
	second := Compute(r)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated compute differs: %+v vs %+v", first, second)
	}
}

func TestComputeMonotonicity(t *testing.T) {
	base := recordWith(t,
		intake.Update{Key: intake.KeyBudget, Value: intake.Int(800000), Status: intake.StatusConfirmed},
	)
	before := Compute(base).Score

	base.Apply([]intake.Update{
		{Key: intake.KeyNeighborhood, Value: intake.String("cabo_branco"), Status: intake.StatusConfirmed},
	})
	after := Compute(base).Score

	if after < before {
		t.Errorf("score decreased after adding a field: %d -> %d", before, after)
	}
}

func TestTemperatureBands(t *testing.T) {
	cases := []struct {
		score int
		want  Temperature
	}{
		{0, TemperatureCold},
		{39, TemperatureCold},
		{40, TemperatureWarm},
		{69, TemperatureWarm},
		{70, TemperatureHot},
		{100, TemperatureHot},
	}

	for _, tc := range cases {
		if got := temperatureFor(tc.score); got != tc.want {
			t.Errorf("temperatureFor(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
