// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadtriage_backend/internal/quality"
	"leadtriage_backend/internal/routing"
	"leadtriage_backend/internal/sla"
	"leadtriage_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Triage Domain Events
// =============================================================================

// LeadQualified is published when the gate releases a lead for handoff.
type LeadQualified struct {
	BaseEvent
	LeadID    uuid.UUID     `json:"leadId"`
	SessionID string        `json:"sessionId"`
	Score     int           `json:"score"`
	Grade     quality.Grade `json:"grade"`
	Class     sla.Class     `json:"class"`
	SLA       sla.Level     `json:"sla"`
}

func (e LeadQualified) EventName() string { return "triage.lead.qualified" }

// HotLeadDetected is published at most once per session, the first time
// the SLA classifier yields the hot class.
type HotLeadDetected struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	SessionID string    `json:"sessionId"`
	Score     int       `json:"score"`
	LeadName  string    `json:"leadName,omitempty"`
	LeadPhone string    `json:"leadPhone,omitempty"`
	AgentID   string    `json:"agentId,omitempty"`
}

func (e HotLeadDetected) EventName() string { return "triage.lead.hot" }

// LeadAssigned is published when the assignment engine picks an agent.
type LeadAssigned struct {
	BaseEvent
	LeadID     uuid.UUID        `json:"leadId"`
	SessionID  string           `json:"sessionId"`
	AgentID    string           `json:"agentId"`
	AgentName  string           `json:"agentName,omitempty"`
	AgentEmail string           `json:"agentEmail,omitempty"`
	MatchScore int              `json:"matchScore"`
	Strategy   routing.Strategy `json:"strategy"`
	Class      sla.Class        `json:"class"`
}

func (e LeadAssigned) EventName() string { return "triage.lead.assigned" }

// NurtureScheduled is published when a cold low-quality lead is queued
// for a delayed follow-up instead of an agent handoff.
type NurtureScheduled struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	SessionID string    `json:"sessionId"`
	LeadName  string    `json:"leadName,omitempty"`
	LeadEmail string    `json:"leadEmail,omitempty"`
}

func (e NurtureScheduled) EventName() string { return "triage.lead.nurture_scheduled" }

// NurtureFollowUpDue is published by the scheduler worker when a queued
// follow-up comes due and the lead still has not been assigned.
type NurtureFollowUpDue struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	SessionID string    `json:"sessionId"`
	LeadName  string    `json:"leadName,omitempty"`
	LeadEmail string    `json:"leadEmail,omitempty"`
}

func (e NurtureFollowUpDue) EventName() string { return "triage.nurture.due" }
