package transport

import (
	"time"

	"leadtriage_backend/internal/quality"
	"leadtriage_backend/internal/routing"
	"leadtriage_backend/internal/scoring"
	"leadtriage_backend/internal/sla"
)

// FieldUpdate is one extracted field proposal inside a turn.
type FieldUpdate struct {
	Key    string `json:"key" validate:"required,min=1,max=64"`
	Value  any    `json:"value" validate:"required"`
	Status string `json:"status,omitempty" validate:"omitempty,oneof=confirmed inferred"`
	Source string `json:"source,omitempty" validate:"omitempty,max=128"`
}

// TurnRequest carries one conversational turn from the upstream extractor.
type TurnRequest struct {
	SessionID string        `json:"sessionId" validate:"required,min=1,max=128"`
	Message   string        `json:"message,omitempty" validate:"omitempty,max=4000"`
	Updates   []FieldUpdate `json:"updates,omitempty" validate:"omitempty,max=32,dive"`
}

// ConflictView reports an update that was rejected to protect confirmed data.
type ConflictView struct {
	Key      string `json:"key"`
	Previous any    `json:"previous,omitempty"`
	Proposed any    `json:"proposed,omitempty"`
}

// GateView is the qualification gate outcome for the turn.
type GateView struct {
	Proceed        bool   `json:"proceed"`
	Ask            string `json:"ask,omitempty"`
	Reason         string `json:"reason"`
	QuestionsAsked int    `json:"questionsAsked"`
}

// TurnResponse is the full triage outcome for one turn. Classification
// and Assignment are only present on the turn that completes the session.
type TurnResponse struct {
	SessionID  string              `json:"sessionId"`
	Revision   int                 `json:"revision"`
	Conflicts  []ConflictView      `json:"conflicts,omitempty"`
	Score      scoring.Result      `json:"score"`
	Quality    quality.Assessment  `json:"quality"`
	Gate       GateView            `json:"gate"`
	SLA        *sla.Classification `json:"sla,omitempty"`
	Assignment *routing.Result     `json:"assignment,omitempty"`
	LeadID     string              `json:"leadId,omitempty"`
	Completed  bool                `json:"completed"`
}

// FieldView is one stored field in a session snapshot.
type FieldView struct {
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	Status    string    `json:"status"`
	Source    string    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionResponse is a read-only snapshot of a live session.
type SessionResponse struct {
	SessionID      string      `json:"sessionId"`
	Revision       int         `json:"revision"`
	Fields         []FieldView `json:"fields"`
	QuestionsAsked int         `json:"questionsAsked"`
	Completed      bool        `json:"completed"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// UpsertAgentRequest creates or replaces one roster entry.
type UpsertAgentRequest struct {
	ID                string   `json:"id" validate:"required,min=1,max=64"`
	Name              string   `json:"name" validate:"required,min=1,max=128"`
	Email             string   `json:"email,omitempty" validate:"omitempty,email"`
	WhatsApp          string   `json:"whatsapp,omitempty" validate:"omitempty,max=32"`
	Active            bool     `json:"active"`
	Operations        []string `json:"operations" validate:"omitempty,dive,oneof=buy rent"`
	CoverageAreas     []string `json:"coverageAreas,omitempty" validate:"omitempty,dive,min=1"`
	MicroLocationTags []string `json:"microLocationTags,omitempty" validate:"omitempty,dive,min=1"`
	PriceMin          int64    `json:"priceMin,omitempty" validate:"omitempty,min=0"`
	PriceMax          int64    `json:"priceMax,omitempty" validate:"omitempty,min=0"`
	Specialties       []string `json:"specialties,omitempty" validate:"omitempty,dive,min=1"`
	DailyCapacity     int      `json:"dailyCapacity,omitempty" validate:"omitempty,min=0"`
	Tier              string   `json:"tier" validate:"required,oneof=senior standard junior"`
}

// AgentListResponse wraps the stored roster.
type AgentListResponse struct {
	Items []routing.Agent `json:"items"`
	Total int             `json:"total"`
}
