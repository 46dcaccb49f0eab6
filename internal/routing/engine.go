package routing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"leadtriage_backend/internal/scoring"
)

// DefaultHighEndThreshold is the budget at which the high-end specialty
// bonus applies.
const DefaultHighEndThreshold int64 = 900000

const (
	eliminatedScore = -1000

	bonusNeighborhood    = 30
	bonusBudgetInRange   = 20
	bonusMicroLocation   = 15
	bonusHotSenior       = 10
	bonusHighEnd         = 10
	bonusFamily          = 10
	bonusWarmStandard    = 5
	bonusColdJunior      = 5
	bonusPetFriendly     = 5
	bonusGeneralistMatch = 5

	penaltyCoverageMismatch = -10
	penaltyBudgetOutOfRange = -15
	penaltyAtCapacity       = -100
	penaltyOverCapacityHot  = -5
)

// Engine runs the capacity-aware assignment. The mutex guards the whole
// snapshot-rank-commit cycle so two concurrent leads cannot both read a
// pre-increment counter and land on the same at-capacity agent.
type Engine struct {
	usage            UsageTable
	highEndThreshold int64

	mu  sync.Mutex
	now func() time.Time
}

// NewEngine builds an assignment engine on a usage table.
// highEndThreshold falls back to DefaultHighEndThreshold when zero or
// negative.
func NewEngine(usage UsageTable, highEndThreshold int64) *Engine {
	if highEndThreshold <= 0 {
		highEndThreshold = DefaultHighEndThreshold
	}
	return &Engine{
		usage:            usage,
		highEndThreshold: highEndThreshold,
		now:              time.Now,
	}
}

// SetClock overrides the engine clock. Used by tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

type candidate struct {
	agent   Agent
	usage   Usage
	score   int
	reasons []string
	pos     int
}

// Assign picks one agent for the lead and commits a usage increment for
// the winner. An empty or fully-inactive roster yields StrategyNone with
// no agent, which is a valid outcome rather than an error.
func (e *Engine) Assign(ctx context.Context, lead Lead, priorityOverride bool, roster []Agent) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	result := Result{Strategy: StrategyNone, EvaluatedCount: len(roster), AssignedAt: now}
	if len(roster) == 0 {
		return result, nil
	}

	ids := make([]string, len(roster))
	for i, a := range roster {
		ids[i] = a.ID
	}
	usages, err := e.usage.Snapshot(ctx, ids, now)
	if err != nil {
		return result, fmt.Errorf("usage snapshot: %w", err)
	}

	candidates := make([]candidate, 0, len(roster))
	for i, agent := range roster {
		score, reasons := e.scoreAgent(lead, agent, usages[agent.ID], priorityOverride)
		if score == eliminatedScore {
			continue
		}
		candidates = append(candidates, candidate{
			agent:   agent,
			usage:   usages[agent.ID],
			score:   score,
			reasons: reasons,
			pos:     i,
		})
	}

	sortCandidates(candidates)

	var chosen *candidate
	switch {
	case len(candidates) > 0 && candidates[0].score > 0:
		chosen = &candidates[0]
		result.Strategy = StrategyScoreBased
	default:
		if c := pickGeneralist(roster, usages); c != nil {
			chosen = c
			result.Strategy = StrategyGeneralistFallback
		} else if c := pickLeastLoaded(roster, usages); c != nil {
			chosen = c
			result.Strategy = StrategyAnyActiveFallback
		}
	}

	if chosen == nil {
		return result, nil
	}

	if err := e.usage.Commit(ctx, chosen.agent.ID, now); err != nil {
		return Result{Strategy: StrategyNone, EvaluatedCount: len(roster), AssignedAt: now}, fmt.Errorf("commit usage: %w", err)
	}

	result.AgentID = chosen.agent.ID
	result.AgentName = chosen.agent.Name
	result.Score = chosen.score
	result.Reasons = chosen.reasons
	return result, nil
}

// scoreAgent computes the additive match score for one agent. The
// eliminatedScore sentinel marks agents excluded from ranking.
func (e *Engine) scoreAgent(lead Lead, agent Agent, usage Usage, priorityOverride bool) (int, []string) {
	if !agent.Active {
		return eliminatedScore, []string{"inactive"}
	}
	if lead.Operation != "" && !agent.Supports(lead.Operation) {
		return eliminatedScore, []string{"operation_unsupported"}
	}

	score := 0
	reasons := make([]string, 0, 8)
	add := func(points int, reason string) {
		score += points
		reasons = append(reasons, reason)
	}

	if lead.Neighborhood != "" {
		switch {
		case contains(agent.CoverageAreas, lead.Neighborhood):
			add(bonusNeighborhood, "neighborhood_match")
		case len(agent.CoverageAreas) > 0:
			add(penaltyCoverageMismatch, "coverage_mismatch")
		}
	}
	if lead.MicroLocation != "" && contains(agent.MicroLocationTags, lead.MicroLocation) {
		add(bonusMicroLocation, "micro_location_match")
	}
	if lead.Budget > 0 {
		if budgetInRange(lead.Budget, agent) {
			add(bonusBudgetInRange, "budget_in_range")
		} else {
			add(penaltyBudgetOutOfRange, "budget_out_of_range")
		}
	}

	switch {
	case lead.Temperature == scoring.TemperatureHot && agent.Tier == TierSenior:
		add(bonusHotSenior, "hot_senior")
	case lead.Temperature == scoring.TemperatureWarm && agent.Tier == TierStandard:
		add(bonusWarmStandard, "warm_standard")
	case lead.Temperature == scoring.TemperatureCold && agent.Tier == TierJunior:
		add(bonusColdJunior, "cold_junior")
	}

	if lead.Budget >= e.highEndThreshold && agent.HasSpecialty(SpecialtyHighEnd) {
		add(bonusHighEnd, "high_end_specialty")
	}
	if lead.Bedrooms >= 3 && agent.HasSpecialty(SpecialtyFamily) {
		add(bonusFamily, "family_specialty")
	}
	if lead.Pet && agent.HasSpecialty(SpecialtyPetFriendly) {
		add(bonusPetFriendly, "pet_friendly_specialty")
	}
	if lead.Neighborhood == "" && len(agent.CoverageAreas) == 0 {
		add(bonusGeneralistMatch, "generalist_open_location")
	}

	if agent.DailyCapacity > 0 && usage.AssignedToday >= agent.DailyCapacity {
		if priorityOverride {
			add(penaltyOverCapacityHot, "over_capacity_priority")
		} else {
			add(penaltyAtCapacity, "at_capacity")
		}
	}

	return score, reasons
}

func budgetInRange(budget int64, agent Agent) bool {
	if budget < agent.PriceMin {
		return false
	}
	if agent.PriceMax > 0 && budget > agent.PriceMax {
		return false
	}
	return true
}

// sortCandidates orders by score descending, then load ascending, then
// oldest (or never) assigned first, then roster position.
func sortCandidates(candidates []candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.usage.AssignedToday != b.usage.AssignedToday {
			return a.usage.AssignedToday < b.usage.AssignedToday
		}
		if !a.usage.LastAssignedAt.Equal(b.usage.LastAssignedAt) {
			if a.usage.LastAssignedAt.IsZero() {
				return true
			}
			if b.usage.LastAssignedAt.IsZero() {
				return false
			}
			return a.usage.LastAssignedAt.Before(b.usage.LastAssignedAt)
		}
		return a.pos < b.pos
	})
}

// pickGeneralist ranks active generalists by load regardless of the
// lead's operation; a lead nobody supports still deserves a human.
func pickGeneralist(roster []Agent, usages map[string]Usage) *candidate {
	var pool []candidate
	for i, agent := range roster {
		if agent.Active && agent.Generalist() {
			pool = append(pool, candidate{agent: agent, usage: usages[agent.ID], pos: i})
		}
	}
	if len(pool) == 0 {
		return nil
	}
	sortCandidates(pool)
	pool[0].reasons = []string{"generalist_fallback"}
	return &pool[0]
}

// pickLeastLoaded ranks every active agent by load, ignoring
// specialization entirely.
func pickLeastLoaded(roster []Agent, usages map[string]Usage) *candidate {
	var pool []candidate
	for i, agent := range roster {
		if agent.Active {
			pool = append(pool, candidate{agent: agent, usage: usages[agent.ID], pos: i})
		}
	}
	if len(pool) == 0 {
		return nil
	}
	sortCandidates(pool)
	pool[0].reasons = []string{"any_active_fallback"}
	return &pool[0]
}
