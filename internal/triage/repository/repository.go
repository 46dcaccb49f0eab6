// Package repository persists qualified leads, routing decisions, and
// the agent roster in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadtriage_backend/internal/routing"
	"leadtriage_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	leadNotFoundMessage  = "lead not found"
	agentNotFoundMessage = "agent not found"
)

// Lead lifecycle states as stored in the leads table.
const (
	StatusAssigned   = "assigned"
	StatusUnassigned = "unassigned"
	StatusNurture    = "nurture"
)

// Repository implements lead and roster persistence with PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new triage repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Compile-time check that the repository can serve as a roster source.
var _ routing.RosterSource = (*Repository)(nil)

// SaveLeadParams is the flattened lead row written on handoff.
type SaveLeadParams struct {
	ID           uuid.UUID
	SessionID    string
	Name         string
	Phone        string
	Email        string
	Intent       string
	City         string
	Neighborhood string
	Budget       int64
	Score        int
	Temperature  string
	Grade        string
	QualityScore int
	Class        string
	SLA          string
	Status       string
	ArchiveKey   string
	Fields       []byte
}

// SaveLead inserts the qualified lead. Conflicting session rows are
// replaced so a re-qualified session keeps a single current lead.
func (r *Repository) SaveLead(ctx context.Context, p SaveLeadParams) error {
	query := `
		INSERT INTO leads (
			id, session_id, name, phone, email, intent, city, neighborhood,
			budget, score, temperature, grade, quality_score, class, sla,
			status, archive_key, fields, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, now(), now())
		ON CONFLICT (session_id) DO UPDATE SET
			id = EXCLUDED.id,
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			intent = EXCLUDED.intent,
			city = EXCLUDED.city,
			neighborhood = EXCLUDED.neighborhood,
			budget = EXCLUDED.budget,
			score = EXCLUDED.score,
			temperature = EXCLUDED.temperature,
			grade = EXCLUDED.grade,
			quality_score = EXCLUDED.quality_score,
			class = EXCLUDED.class,
			sla = EXCLUDED.sla,
			status = EXCLUDED.status,
			archive_key = EXCLUDED.archive_key,
			fields = EXCLUDED.fields,
			updated_at = now()`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.SessionID, p.Name, p.Phone, p.Email, p.Intent, p.City, p.Neighborhood,
		p.Budget, p.Score, p.Temperature, p.Grade, p.QualityScore, p.Class, p.SLA,
		p.Status, p.ArchiveKey, p.Fields,
	)
	if err != nil {
		return fmt.Errorf("save lead: %w", err)
	}
	return nil
}

// GetLeadStatus returns the lifecycle state of a lead.
func (r *Repository) GetLeadStatus(ctx context.Context, leadID uuid.UUID) (string, error) {
	var status string
	err := r.pool.QueryRow(ctx, `SELECT status FROM leads WHERE id = $1`, leadID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound(leadNotFoundMessage)
		}
		return "", fmt.Errorf("get lead status: %w", err)
	}
	return status, nil
}

// RoutingLogParams is one appended assignment decision.
type RoutingLogParams struct {
	LeadID         uuid.UUID
	SessionID      string
	AgentID        string
	Strategy       string
	MatchScore     int
	EvaluatedCount int
	Reasons        []string
	AssignedAt     time.Time
}

// AppendRoutingLog records an assignment decision for audit.
func (r *Repository) AppendRoutingLog(ctx context.Context, p RoutingLogParams) error {
	query := `
		INSERT INTO routing_log (
			lead_id, session_id, agent_id, strategy, match_score,
			evaluated_count, reasons, assigned_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var agentID *string
	if p.AgentID != "" {
		agentID = &p.AgentID
	}

	_, err := r.pool.Exec(ctx, query,
		p.LeadID, p.SessionID, agentID, p.Strategy, p.MatchScore,
		p.EvaluatedCount, p.Reasons, p.AssignedAt,
	)
	if err != nil {
		return fmt.Errorf("append routing log: %w", err)
	}
	return nil
}

// UpsertAgent creates or replaces a roster entry.
func (r *Repository) UpsertAgent(ctx context.Context, a routing.Agent) error {
	query := `
		INSERT INTO agents (
			id, name, email, whatsapp, active, operations, coverage_areas,
			micro_location_tags, price_min, price_max, specialties,
			daily_capacity, tier, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			whatsapp = EXCLUDED.whatsapp,
			active = EXCLUDED.active,
			operations = EXCLUDED.operations,
			coverage_areas = EXCLUDED.coverage_areas,
			micro_location_tags = EXCLUDED.micro_location_tags,
			price_min = EXCLUDED.price_min,
			price_max = EXCLUDED.price_max,
			specialties = EXCLUDED.specialties,
			daily_capacity = EXCLUDED.daily_capacity,
			tier = EXCLUDED.tier,
			updated_at = now()`

	ops := make([]string, len(a.Operations))
	for i, op := range a.Operations {
		ops[i] = string(op)
	}

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.Name, a.Email, a.WhatsApp, a.Active, ops, a.CoverageAreas,
		a.MicroLocationTags, a.PriceMin, a.PriceMax, a.Specialties,
		a.DailyCapacity, string(a.Tier),
	)
	if err != nil {
		return fmt.Errorf("upsert agent: %w", err)
	}
	return nil
}

// DeleteAgent removes a roster entry.
func (r *Repository) DeleteAgent(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(agentNotFoundMessage)
	}
	return nil
}

// ListAgents returns the full roster in stable order.
func (r *Repository) ListAgents(ctx context.Context) ([]routing.Agent, error) {
	query := `
		SELECT id, name, email, whatsapp, active, operations, coverage_areas,
		       micro_location_tags, price_min, price_max, specialties,
		       daily_capacity, tier
		FROM agents
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []routing.Agent
	for rows.Next() {
		var a routing.Agent
		var ops []string
		var tier string
		err := rows.Scan(
			&a.ID, &a.Name, &a.Email, &a.WhatsApp, &a.Active, &ops, &a.CoverageAreas,
			&a.MicroLocationTags, &a.PriceMin, &a.PriceMax, &a.Specialties,
			&a.DailyCapacity, &tier,
		)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		a.Operations = make([]routing.Operation, len(ops))
		for i, op := range ops {
			a.Operations[i] = routing.Operation(op)
		}
		a.Tier = routing.Tier(tier)
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}
	return agents, nil
}

// Roster satisfies routing.RosterSource so the assignment engine can
// read candidates straight from the database.
func (r *Repository) Roster(ctx context.Context) ([]routing.Agent, error) {
	return r.ListAgents(ctx)
}
