// Package service orchestrates one conversational turn end to end:
// field updates, scoring, quality, the gate, SLA classification, agent
// assignment, persistence, and the domain events that fan out from a
// completed handoff.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"leadtriage_backend/internal/events"
	"leadtriage_backend/internal/gate"
	"leadtriage_backend/internal/intake"
	"leadtriage_backend/internal/quality"
	"leadtriage_backend/internal/routing"
	"leadtriage_backend/internal/scoring"
	"leadtriage_backend/internal/session"
	"leadtriage_backend/internal/sla"
	"leadtriage_backend/internal/triage/repository"
	"leadtriage_backend/internal/triage/transport"
	"leadtriage_backend/platform/apperr"
	"leadtriage_backend/platform/config"
	"leadtriage_backend/platform/logger"
	"leadtriage_backend/platform/phone"

	"github.com/google/uuid"
)

// reasonSessionCompleted is returned on turns after a session has been
// handed off; the record still absorbs updates but nothing re-fires.
const reasonSessionCompleted = "session_completed"

// Repository is the persistence surface the service needs.
type Repository interface {
	SaveLead(ctx context.Context, p repository.SaveLeadParams) error
	AppendRoutingLog(ctx context.Context, p repository.RoutingLogParams) error
	UpsertAgent(ctx context.Context, a routing.Agent) error
	DeleteAgent(ctx context.Context, id string) error
	ListAgents(ctx context.Context) ([]routing.Agent, error)
}

// PacketStore archives the full lead packet on handoff.
type PacketStore interface {
	StorePacket(ctx context.Context, sessionID, leadID string, packet any) (string, error)
}

// Service provides the triage business logic.
type Service struct {
	sessions *session.Store
	engine   *routing.Engine
	roster   routing.RosterSource
	repo     Repository
	packets  PacketStore
	bus      events.Bus
	cfg      config.TriageConfig
	log      *logger.Logger
}

// New creates a new triage service. packets may be nil when archiving
// is disabled.
func New(
	sessions *session.Store,
	engine *routing.Engine,
	roster routing.RosterSource,
	repo Repository,
	packets PacketStore,
	bus events.Bus,
	cfg config.TriageConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		sessions: sessions,
		engine:   engine,
		roster:   roster,
		repo:     repo,
		packets:  packets,
		bus:      bus,
		cfg:      cfg,
		log:      log,
	}
}

// ProcessTurn runs one turn through the full pipeline. All mutation
// happens under the session lock so concurrent turns on one session
// serialize.
func (s *Service) ProcessTurn(ctx context.Context, req transport.TurnRequest) (transport.TurnResponse, error) {
	var resp transport.TurnResponse

	err := s.sessions.With(req.SessionID, func(sess *session.Session) error {
		// A refusal answers the previous question, so it is detected
		// before the gate runs again.
		if sess.Gate.LastQuestion != "" && gate.DetectRefusal(req.Message) {
			sess.Gate.MarkRefusal(sess.Gate.LastQuestion)
		}

		conflicts := sess.Record.Apply(toUpdates(req.Updates))
		score := scoring.Compute(sess.Record)
		assessment := quality.Compute(sess.Record, nil, conflicts, s.cfg.GetHighValueBudget())

		resp = transport.TurnResponse{
			SessionID: sess.ID,
			Revision:  sess.Record.Revision,
			Conflicts: toConflictViews(conflicts),
			Score:     score,
			Quality:   assessment,
		}

		if sess.Completed {
			resp.Gate = transport.GateView{
				Proceed:        true,
				Reason:         reasonSessionCompleted,
				QuestionsAsked: sess.Gate.QuestionsAsked,
			}
			resp.Completed = true
			return nil
		}

		decision := gate.Decide(sess.Gate, assessment, s.cfg.GetMaxGateTurns())
		resp.Gate = transport.GateView{
			Proceed:        decision.Proceed,
			Ask:            string(decision.Ask),
			Reason:         decision.Reason,
			QuestionsAsked: sess.Gate.QuestionsAsked,
		}

		s.log.TurnProcessed(sess.ID, sess.Record.Revision, score.Score, string(assessment.Grade), decision.Proceed)

		if !decision.Proceed {
			return nil
		}
		return s.finalize(ctx, sess, score, assessment, &resp)
	})
	if err != nil {
		return transport.TurnResponse{}, err
	}
	return resp, nil
}

// finalize classifies the released lead, assigns an agent unless the
// lead goes to nurture, persists and archives the packet, and publishes
// the handoff events. Runs under the session lock.
func (s *Service) finalize(
	ctx context.Context,
	sess *session.Session,
	score scoring.Result,
	assessment quality.Assessment,
	resp *transport.TurnResponse,
) error {
	classification := sla.Classify(score.Score, assessment.Grade, s.cfg.GetHotScoreThreshold(), s.cfg.GetWarmScoreThreshold())
	leadID := uuid.New()

	leadName := sess.Record.Value(intake.KeyName).Str()
	leadPhone := phone.NormalizeE164(sess.Record.Value(intake.KeyPhone).Str())
	leadEmail := sess.Record.Value(intake.KeyEmail).Str()

	var assignment *routing.Result
	var assignedAgent routing.Agent
	status := repository.StatusNurture

	if classification.SLA != sla.LevelNurture {
		roster, err := s.roster.Roster(ctx)
		if err != nil {
			return fmt.Errorf("load roster: %w", err)
		}

		result, err := s.engine.Assign(ctx, routing.LeadFromRecord(sess.Record, score.Temperature), classification.PriorityOverride, roster)
		if err != nil {
			return fmt.Errorf("assign lead: %w", err)
		}
		assignment = &result

		if result.AgentID != "" {
			status = repository.StatusAssigned
			for _, agent := range roster {
				if agent.ID == result.AgentID {
					assignedAgent = agent
					break
				}
			}
		} else {
			status = repository.StatusUnassigned
		}
	}

	packet := buildPacket(sess.Record, score, assessment, classification, assignment)
	archiveKey := ""
	if s.packets != nil {
		key, err := s.packets.StorePacket(ctx, sess.ID, leadID.String(), packet)
		if err != nil {
			s.log.Error("failed to archive lead packet", "sessionId", sess.ID, "leadId", leadID, "error", err)
		} else {
			archiveKey = key
		}
	}

	if s.repo != nil {
		fields, err := json.Marshal(packet["fields"])
		if err != nil {
			return fmt.Errorf("serialize lead fields: %w", err)
		}

		err = s.repo.SaveLead(ctx, repository.SaveLeadParams{
			ID:           leadID,
			SessionID:    sess.ID,
			Name:         leadName,
			Phone:        leadPhone,
			Email:        leadEmail,
			Intent:       sess.Record.Value(intake.KeyIntent).Str(),
			City:         sess.Record.Value(intake.KeyCity).Str(),
			Neighborhood: sess.Record.Value(intake.KeyNeighborhood).Str(),
			Budget:       sess.Record.Value(intake.KeyBudget).Num(),
			Score:        score.Score,
			Temperature:  string(score.Temperature),
			Grade:        string(assessment.Grade),
			QualityScore: assessment.Score,
			Class:        string(classification.Class),
			SLA:          string(classification.SLA),
			Status:       status,
			ArchiveKey:   archiveKey,
			Fields:       fields,
		})
		if err != nil {
			return err
		}

		if assignment != nil {
			err := s.repo.AppendRoutingLog(ctx, repository.RoutingLogParams{
				LeadID:         leadID,
				SessionID:      sess.ID,
				AgentID:        assignment.AgentID,
				Strategy:       string(assignment.Strategy),
				MatchScore:     assignment.Score,
				EvaluatedCount: assignment.EvaluatedCount,
				Reasons:        assignment.Reasons,
				AssignedAt:     assignment.AssignedAt,
			})
			if err != nil {
				s.log.Error("failed to append routing log", "sessionId", sess.ID, "leadId", leadID, "error", err)
			}
		}
	}

	s.bus.Publish(ctx, events.LeadQualified{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		SessionID: sess.ID,
		Score:     score.Score,
		Grade:     assessment.Grade,
		Class:     classification.Class,
		SLA:       classification.SLA,
	})

	if classification.Class == sla.ClassHot && !sess.HotEmitted {
		sess.HotEmitted = true
		s.log.HotLead(sess.ID, score.Score)
		s.bus.Publish(ctx, events.HotLeadDetected{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    leadID,
			SessionID: sess.ID,
			Score:     score.Score,
			LeadName:  leadName,
			LeadPhone: leadPhone,
			AgentID:   resultAgentID(assignment),
		})
	}

	if assignment != nil && assignment.AgentID != "" {
		s.log.LeadAssigned(sess.ID, assignment.AgentID, string(assignment.Strategy), assignment.Score, assignment.EvaluatedCount)
		s.bus.Publish(ctx, events.LeadAssigned{
			BaseEvent:  events.NewBaseEvent(),
			LeadID:     leadID,
			SessionID:  sess.ID,
			AgentID:    assignment.AgentID,
			AgentName:  assignment.AgentName,
			AgentEmail: assignedAgent.Email,
			MatchScore: assignment.Score,
			Strategy:   assignment.Strategy,
			Class:      classification.Class,
		})
	}

	if classification.SLA == sla.LevelNurture {
		s.bus.Publish(ctx, events.NurtureScheduled{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    leadID,
			SessionID: sess.ID,
			LeadName:  leadName,
			LeadEmail: leadEmail,
		})
	}

	sess.Completed = true
	resp.SLA = &classification
	resp.Assignment = assignment
	resp.LeadID = leadID.String()
	resp.Completed = true
	return nil
}

// GetSession returns a read-only snapshot of a live session.
func (s *Service) GetSession(id string) (transport.SessionResponse, error) {
	sess, ok := s.sessions.Snapshot(id)
	if !ok {
		return transport.SessionResponse{}, apperr.NotFound("session not found")
	}

	fields := sess.Record.Fields()
	views := make([]transport.FieldView, 0, len(fields))
	for _, f := range fields {
		views = append(views, transport.FieldView{
			Key:       string(f.Key),
			Value:     f.Value.Interface(),
			Status:    string(f.Status),
			Source:    f.Source,
			UpdatedAt: f.UpdatedAt,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Key < views[j].Key })

	return transport.SessionResponse{
		SessionID:      sess.ID,
		Revision:       sess.Record.Revision,
		Fields:         views,
		QuestionsAsked: sess.Gate.QuestionsAsked,
		Completed:      sess.Completed,
		CreatedAt:      sess.CreatedAt,
		UpdatedAt:      sess.UpdatedAt,
	}, nil
}

// ResetSession discards a session so the next turn starts from scratch.
func (s *Service) ResetSession(id string) {
	s.sessions.Reset(id)
	s.log.Info("session reset", "sessionId", id)
}

// ListAgents returns the stored roster.
func (s *Service) ListAgents(ctx context.Context) (transport.AgentListResponse, error) {
	agents, err := s.repo.ListAgents(ctx)
	if err != nil {
		return transport.AgentListResponse{}, err
	}
	return transport.AgentListResponse{Items: agents, Total: len(agents)}, nil
}

// UpsertAgent creates or replaces a roster entry.
func (s *Service) UpsertAgent(ctx context.Context, req transport.UpsertAgentRequest) (routing.Agent, error) {
	ops := make([]routing.Operation, len(req.Operations))
	for i, op := range req.Operations {
		ops[i] = routing.Operation(op)
	}

	agent := routing.Agent{
		ID:                req.ID,
		Name:              req.Name,
		Email:             req.Email,
		WhatsApp:          req.WhatsApp,
		Active:            req.Active,
		Operations:        ops,
		CoverageAreas:     req.CoverageAreas,
		MicroLocationTags: req.MicroLocationTags,
		PriceMin:          req.PriceMin,
		PriceMax:          req.PriceMax,
		Specialties:       req.Specialties,
		DailyCapacity:     req.DailyCapacity,
		Tier:              routing.Tier(req.Tier),
	}

	if err := s.repo.UpsertAgent(ctx, agent); err != nil {
		return routing.Agent{}, err
	}
	s.log.Info("agent upserted", "agentId", agent.ID, "active", agent.Active)
	return agent, nil
}

// DeleteAgent removes a roster entry.
func (s *Service) DeleteAgent(ctx context.Context, id string) error {
	if err := s.repo.DeleteAgent(ctx, id); err != nil {
		return err
	}
	s.log.Info("agent deleted", "agentId", id)
	return nil
}

// toUpdates converts wire updates to intake updates, dropping entries
// whose JSON type cannot satisfy the field's declared kind. Phone values
// are normalized to E.164 on the way in.
func toUpdates(wire []transport.FieldUpdate) []intake.Update {
	updates := make([]intake.Update, 0, len(wire))
	for _, fu := range wire {
		key := intake.Key(fu.Key)
		kind, known := intake.KindOf(key)
		if !known {
			continue
		}

		value, ok := toValue(kind, fu.Value)
		if !ok {
			continue
		}
		if key == intake.KeyPhone {
			value = intake.String(phone.NormalizeE164(value.Str()))
		}

		updates = append(updates, intake.Update{
			Key:    key,
			Value:  value,
			Status: intake.Status(fu.Status),
			Source: fu.Source,
		})
	}
	return updates
}

func toValue(kind intake.Kind, raw any) (intake.Value, bool) {
	switch kind {
	case intake.KindString:
		v, ok := raw.(string)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			return intake.Value{}, false
		}
		return intake.String(v), true
	case intake.KindInt:
		switch v := raw.(type) {
		case float64:
			return intake.Int(int64(v)), true
		case int:
			return intake.Int(int64(v)), true
		case int64:
			return intake.Int(v), true
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return intake.Value{}, false
			}
			return intake.Int(n), true
		}
		return intake.Value{}, false
	case intake.KindBool:
		v, ok := raw.(bool)
		if !ok {
			return intake.Value{}, false
		}
		return intake.Bool(v), true
	case intake.KindStringList:
		switch v := raw.(type) {
		case []string:
			return intake.StringList(v), true
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				text, ok := item.(string)
				if !ok {
					return intake.Value{}, false
				}
				out = append(out, text)
			}
			return intake.StringList(out), true
		}
		return intake.Value{}, false
	}
	return intake.Value{}, false
}

func toConflictViews(conflicts []intake.Conflict) []transport.ConflictView {
	if len(conflicts) == 0 {
		return nil
	}
	views := make([]transport.ConflictView, len(conflicts))
	for i, c := range conflicts {
		views[i] = transport.ConflictView{
			Key:      string(c.Key),
			Previous: c.Previous.Interface(),
			Proposed: c.New.Interface(),
		}
	}
	return views
}

// buildPacket assembles the archived handoff snapshot.
func buildPacket(
	record *intake.Record,
	score scoring.Result,
	assessment quality.Assessment,
	classification sla.Classification,
	assignment *routing.Result,
) map[string]any {
	fields := make(map[string]any)
	for key, f := range record.Fields() {
		fields[string(key)] = map[string]any{
			"value":     f.Value.Interface(),
			"status":    string(f.Status),
			"source":    f.Source,
			"updatedAt": f.UpdatedAt,
		}
	}

	packet := map[string]any{
		"sessionId": record.SessionID,
		"revision":  record.Revision,
		"fields":    fields,
		"score":     score,
		"quality":   assessment,
		"sla":       classification,
	}
	if assignment != nil {
		packet["assignment"] = assignment
	}
	return packet
}

func resultAgentID(assignment *routing.Result) string {
	if assignment == nil {
		return ""
	}
	return assignment.AgentID
}
