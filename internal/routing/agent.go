// Package routing matches a qualified lead to exactly one human agent
// under capacity and specialization constraints. Scoring is additive per
// agent; ties break on load, recency, then roster order so identical
// inputs always produce the same pick.
package routing

import (
	"time"

	"leadtriage_backend/internal/intake"
	"leadtriage_backend/internal/scoring"
)

// Operation is the transaction side an agent can work.
type Operation string

const (
	OperationBuy  Operation = "buy"
	OperationRent Operation = "rent"
)

// intentOperations maps the Portuguese intent vocabulary onto the
// operations the roster declares. Investment leads route to the buy side.
var intentOperations = map[string]Operation{
	"comprar":  OperationBuy,
	"compra":   OperationBuy,
	"investir": OperationBuy,
	"alugar":   OperationRent,
	"aluguel":  OperationRent,
}

// OperationForIntent resolves a stored intent value to an operation.
// Browsing intents resolve to the empty operation.
func OperationForIntent(intent string) Operation {
	return intentOperations[intent]
}

// Tier is the seniority band of an agent.
type Tier string

const (
	TierSenior   Tier = "senior"
	TierStandard Tier = "standard"
	TierJunior   Tier = "junior"
)

// Specialty tags recognized by the matcher.
const (
	SpecialtyHighEnd     = "alto_padrao"
	SpecialtyFamily      = "familia"
	SpecialtyPetFriendly = "pet_friendly"
	SpecialtyGeneralist  = "generalista"
)

// Agent is one roster entry. It is immutable during a routing pass.
type Agent struct {
	ID                string      `yaml:"id" json:"id"`
	Name              string      `yaml:"name" json:"name"`
	Email             string      `yaml:"email" json:"email,omitempty"`
	WhatsApp          string      `yaml:"whatsapp" json:"whatsapp,omitempty"`
	Active            bool        `yaml:"active" json:"active"`
	Operations        []Operation `yaml:"operations" json:"operations"`
	CoverageAreas     []string    `yaml:"coverage_areas" json:"coverageAreas"`
	MicroLocationTags []string    `yaml:"micro_location_tags" json:"microLocationTags"`
	PriceMin          int64       `yaml:"price_min" json:"priceMin"`
	PriceMax          int64       `yaml:"price_max" json:"priceMax"`
	Specialties       []string    `yaml:"specialties" json:"specialties"`
	// DailyCapacity caps assignments per day. Zero means unlimited.
	DailyCapacity     int         `yaml:"daily_capacity" json:"dailyCapacity"`
	Tier              Tier        `yaml:"tier" json:"tier"`
}

// Supports reports whether the agent works the given operation.
func (a Agent) Supports(op Operation) bool {
	for _, o := range a.Operations {
		if o == op {
			return true
		}
	}
	return false
}

// HasSpecialty reports whether the agent carries a specialty tag.
func (a Agent) HasSpecialty(tag string) bool {
	return contains(a.Specialties, tag)
}

// Generalist reports whether the agent has no coverage restriction or
// carries the explicit generalist tag.
func (a Agent) Generalist() bool {
	return len(a.CoverageAreas) == 0 || a.HasSpecialty(SpecialtyGeneralist)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Lead is the routing view of a qualified lead record.
type Lead struct {
	SessionID     string
	Operation     Operation
	Neighborhood  string
	MicroLocation string
	Budget        int64
	Bedrooms      int64
	Pet           bool
	Temperature   scoring.Temperature
}

// LeadFromRecord projects the routing-relevant fields out of a record.
func LeadFromRecord(record *intake.Record, temperature scoring.Temperature) Lead {
	return Lead{
		SessionID:     record.SessionID,
		Operation:     OperationForIntent(record.Value(intake.KeyIntent).Str()),
		Neighborhood:  record.Value(intake.KeyNeighborhood).Str(),
		MicroLocation: record.Value(intake.KeyMicroLocation).Str(),
		Budget:        record.Value(intake.KeyBudget).Num(),
		Bedrooms:      record.Value(intake.KeyBedrooms).Num(),
		Pet:           record.Value(intake.KeyPet).Flag(),
		Temperature:   temperature,
	}
}

// Strategy records which tier of the assignment cascade produced the
// result.
type Strategy string

const (
	StrategyScoreBased         Strategy = "score_based"
	StrategyGeneralistFallback Strategy = "generalist_fallback"
	StrategyAnyActiveFallback  Strategy = "any_active_fallback"
	StrategyNone               Strategy = "none"
)

// Result is the outcome of one assignment pass. AgentID is empty when no
// active agent was available.
type Result struct {
	AgentID        string    `json:"agentId,omitempty"`
	AgentName      string    `json:"agentName,omitempty"`
	Score          int       `json:"score"`
	Reasons        []string  `json:"reasons,omitempty"`
	Strategy       Strategy  `json:"strategy"`
	EvaluatedCount int       `json:"evaluatedCount"`
	AssignedAt     time.Time `json:"assignedAt"`
}
