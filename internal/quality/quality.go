// Package quality assesses how ready a lead record is for handoff.
// It projects the field store into a completeness/confidence composite,
// a letter grade, and a ranked list of information gaps that the gate
// package turns into follow-up questions.
package quality

import (
	"math"

	"leadtriage_backend/internal/intake"
)

// CriticalOrder is the canonical ordering of fields the business treats
// as required before handoff. Gap ranking and completeness both follow
// this order; callers may pass a configured override to Compute.
var CriticalOrder = []intake.Key{
	intake.KeyIntent,
	intake.KeyCity,
	intake.KeyNeighborhood,
	intake.KeyPropertyType,
	intake.KeyBedrooms,
	intake.KeyParking,
	intake.KeyBudget,
	intake.KeyTimeline,
}

// DefaultHighValueThreshold is the budget above which a missing condo
// fee ceiling becomes a dealbreaker.
const DefaultHighValueThreshold int64 = 500000

const (
	dealbreakerPenalty = 15

	gradeAThreshold = 85
	gradeBThreshold = 70
	gradeCThreshold = 50
)

// ambiguousMicroLocation mirrors the extractor placeholder for a vague
// beachfront answer.
const ambiguousMicroLocation = "orla"

// Grade is the letter bucket of the composite quality score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// Acceptable reports whether the grade clears the handoff bar on its own.
func (g Grade) Acceptable() bool {
	return g == GradeA || g == GradeB
}

// Severity orders gap kinds from most to least urgent.
type Severity string

const (
	SeverityDealbreaker     Severity = "dealbreaker"
	SeverityCriticalMissing Severity = "critical_missing"
	SeverityAmbiguous       Severity = "ambiguous"
	SeverityLowConfidence   Severity = "low_confidence"
	SeverityConflict        Severity = "conflict"
)

// Gap is one addressable information hole in a lead record.
type Gap struct {
	Key      intake.Key `json:"key"`
	Severity Severity   `json:"severity"`
}

// Assessment is the full quality projection of a lead record.
type Assessment struct {
	Grade        Grade   `json:"grade"`
	Score        int     `json:"score"`
	Completeness float64 `json:"completeness"`
	Confidence   float64 `json:"confidence"`
	Dealbreakers int     `json:"dealbreakers"`
	Gaps         []Gap   `json:"gaps"`
}

// Compute derives the quality assessment from a record snapshot and the
// conflicts raised by the latest update batch. criticalOrder defaults to
/// CriticalOrder when nil. The returned gap list is ranked: dealbreakers
// in detection order, missing critical fields in canonical order,
// ambiguous fields, low-confidence fields, then unresolved conflicts.
// The gate relies on this ordering.
func Compute(record *intake.Record, criticalOrder []intake.Key, conflicts []intake.Conflict, highValueThreshold int64) Assessment {
	if criticalOrder == nil {
		criticalOrder = CriticalOrder
	}
	if highValueThreshold <= 0 {
		highValueThreshold = DefaultHighValueThreshold
	}

	var filled, confirmed int
	for _, key := range criticalOrder {
		if !record.Has(key) {
			continue
		}
		filled++
		if record.Status(key) == intake.StatusConfirmed {
			confirmed++
		}
	}

	completeness := 0.0
	if len(criticalOrder) > 0 {
		completeness = float64(filled) / float64(len(criticalOrder))
	}
	confidence := 0.0
	if filled > 0 {
		confidence = float64(confirmed) / float64(filled)
	}

	gaps := make([]Gap, 0, len(criticalOrder))
	seen := make(map[intake.Key]bool)
	add := func(key intake.Key, severity Severity) {
		if seen[key] {
			return
		}
		seen[key] = true
		gaps = append(gaps, Gap{Key: key, Severity: severity})
	}

	// Dealbreakers, in fixed detection order.
	dealbreakers := 0
	if record.Value(intake.KeyIntent).Str() == "comprar" && !record.Has(intake.KeyPaymentType) {
		dealbreakers++
		add(intake.KeyPaymentType, SeverityDealbreaker)
	}
	if record.Value(intake.KeyBudget).Num() > highValueThreshold && !record.Has(intake.KeyCondoMax) {
		dealbreakers++
		add(intake.KeyCondoMax, SeverityDealbreaker)
	}
	if micro, ok := record.Get(intake.KeyMicroLocation); ok && !micro.Value.IsZero() {
		if micro.Value.Str() == ambiguousMicroLocation || micro.Status == intake.StatusInferred {
			dealbreakers++
			add(intake.KeyMicroLocation, SeverityDealbreaker)
		}
	}

	for _, key := range criticalOrder {
		if !record.Has(key) {
			add(key, SeverityCriticalMissing)
		}
	}

	if record.Value(intake.KeyMicroLocation).Str() == ambiguousMicroLocation {
		add(intake.KeyMicroLocation, SeverityAmbiguous)
	}

	for _, key := range criticalOrder {
		if record.Has(key) && record.Status(key) == intake.StatusInferred {
			add(key, SeverityLowConfidence)
		}
	}

	for _, c := range conflicts {
		add(c.Key, SeverityConflict)
	}

	score := clampScore(int(math.Round(100*completeness*0.5+100*confidence*0.5)) - dealbreakerPenalty*dealbreakers)

	return Assessment{
		Grade:        gradeFor(score),
		Score:        score,
		Completeness: completeness,
		Confidence:   confidence,
		Dealbreakers: dealbreakers,
		Gaps:         gaps,
	}
}

func gradeFor(score int) Grade {
	switch {
	case score >= gradeAThreshold:
		return GradeA
	case score >= gradeBThreshold:
		return GradeB
	case score >= gradeCThreshold:
		return GradeC
	default:
		return GradeD
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
