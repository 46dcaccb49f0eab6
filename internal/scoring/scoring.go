// Package scoring computes the deterministic lead score and temperature
// from a field store snapshot. The computation is a pure projection:
// it is recomputed from scratch on every record mutation and carries no
// state of its own.
package scoring

import (
	"leadtriage_backend/internal/intake"
)

const (
	// scoreVersion tracks the scoring model for debugging and analysis.
	scoreVersion = "2026-v1"

	weightBudget        = 20
	weightCity          = 10
	weightNeighborhood  = 15
	weightMicroLocation = 10
	weightBedrooms      = 10
	weightParking       = 5
	weightIntent        = 5
	weightTimeline30d   = 25
	weightTimeline3m    = 20
	weightTimeline6m    = 10
	weightTimeline12m   = 5

	hotThreshold  = 70
	warmThreshold = 40
)

// ambiguousMicroLocation is the placeholder value the extractor emits
// when the lead names a vague beachfront area. It earns no points and
// feeds a quality dealbreaker downstream.
const ambiguousMicroLocation = "orla"

// Temperature is the coarse urgency bucket derived from the score.
type Temperature string

const (
	TemperatureHot  Temperature = "hot"
	TemperatureWarm Temperature = "warm"
	TemperatureCold Temperature = "cold"
)

// Result holds the scoring output.
type Result struct {
	Score       int         `json:"score"`
	Temperature Temperature `json:"temperature"`
	Reasons     []string    `json:"reasons"`
	Version     string      `json:"version"`
}

// Compute derives the lead score from a record snapshot. Weights are
// additive per criterion and the total is capped at 100.
func Compute(record *intake.Record) Result {
	score := 0
	reasons := make([]string, 0, 8)

	add := func(points int, reason string) {
		score += points
		reasons = append(reasons, reason)
	}

	if record.Has(intake.KeyBudget) {
		add(weightBudget, "budget_defined")
	}
	if record.Has(intake.KeyCity) {
		add(weightCity, "city_defined")
	}
	if record.Has(intake.KeyNeighborhood) {
		add(weightNeighborhood, "neighborhood_defined")
	}
	if micro := record.Value(intake.KeyMicroLocation); !micro.IsZero() && micro.Str() != ambiguousMicroLocation {
		add(weightMicroLocation, "micro_location_defined")
	}
	if record.Value(intake.KeyBedrooms).Num() >= 3 {
		add(weightBedrooms, "3_plus_bedrooms")
	}
	if record.Value(intake.KeyParking).Num() >= 2 {
		add(weightParking, "2_plus_parking")
	}
	if intake.BuyRentIntents[record.Value(intake.KeyIntent).Str()] {
		add(weightIntent, "intent_confirmed")
	}

	switch record.Value(intake.KeyTimeline).Str() {
	case "30d":
		add(weightTimeline30d, "timeline_30d")
	case "3m":
		add(weightTimeline3m, "timeline_3m")
	case "6m":
		add(weightTimeline6m, "timeline_6m")
	case "12m":
		add(weightTimeline12m, "timeline_12m")
	case "flexivel":
		add(weightTimeline12m, "timeline_flexible")
	}

	score = clampScore(score)

	return Result{
		Score:       score,
		Temperature: temperatureFor(score),
		Reasons:     reasons,
		Version:     scoreVersion,
	}
}

func temperatureFor(score int) Temperature {
	switch {
	case score >= hotThreshold:
		return TemperatureHot
	case score >= warmThreshold:
		return TemperatureWarm
	default:
		return TemperatureCold
	}
}

func clampScore(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
