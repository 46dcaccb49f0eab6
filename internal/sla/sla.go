// Package sla maps a final lead score and quality grade to a handling
// class and response-time commitment. It runs once per lead, after the
// gate decides to proceed.
package sla

import (
	"leadtriage_backend/internal/quality"
)

// Default thresholds on the 0-100 lead score.
const (
	DefaultHotThreshold  = 80
	DefaultWarmThreshold = 50
)

// Class is the handling bucket of a qualified lead.
type Class string

const (
	ClassHot  Class = "HOT"
	ClassWarm Class = "WARM"
	ClassCold Class = "COLD"
)

// Level is the response-time commitment attached to a class.
type Level string

const (
	LevelImmediate Level = "immediate"
	LevelNormal    Level = "normal"
	// LevelNurture marks a lead that goes into the follow-up drip
	// instead of an agent queue.
	LevelNurture Level = "nurture"
)

// Classification is the SLA outcome for one lead.
type Classification struct {
	Class Class `json:"class"`
	SLA   Level `json:"sla"`
	// PriorityOverride softens the capacity penalty during assignment so
	// a hot lead can still land on a senior agent at the margin.
	PriorityOverride bool `json:"priorityOverride"`
}

// Classify buckets a lead by score, with the quality grade breaking the
// cold tier into normal handoff versus nurture. Thresholds fall back to
// the defaults when zero or negative.
func Classify(score int, grade quality.Grade, hotThreshold, warmThreshold int) Classification {
	if hotThreshold <= 0 {
		hotThreshold = DefaultHotThreshold
	}
	if warmThreshold <= 0 {
		warmThreshold = DefaultWarmThreshold
	}

	switch {
	case score >= hotThreshold:
		return Classification{Class: ClassHot, SLA: LevelImmediate, PriorityOverride: true}
	case score >= warmThreshold:
		return Classification{Class: ClassWarm, SLA: LevelNormal}
	case grade.Acceptable():
		return Classification{Class: ClassCold, SLA: LevelNormal}
	default:
		return Classification{Class: ClassCold, SLA: LevelNurture}
	}
}
