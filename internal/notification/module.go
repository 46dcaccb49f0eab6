// Package notification provides event handlers for sending notifications
// in response to domain events. The module subscribes to the event bus and
// inverts the dependency: domain modules never talk to email providers or
// the task queue directly.
package notification

import (
	"context"
	"time"

	"leadtriage_backend/internal/email"
	"leadtriage_backend/internal/events"
	"leadtriage_backend/internal/scheduler"
	"leadtriage_backend/platform/config"
	"leadtriage_backend/platform/logger"
)

// Module handles all notification-related event subscriptions.
type Module struct {
	sender  email.Sender
	nurture scheduler.NurtureScheduler
	cfg     config.NotificationConfig
	log     *logger.Logger
	now     func() time.Time
}

// New creates a new notification module.
func New(sender email.Sender, nurture scheduler.NurtureScheduler, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{
		sender:  sender,
		nurture: nurture,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.HotLeadDetected{}.EventName(), m)
	bus.Subscribe(events.LeadAssigned{}.EventName(), m)
	bus.Subscribe(events.NurtureScheduled{}.EventName(), m)
	bus.Subscribe(events.NurtureFollowUpDue{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.HotLeadDetected:
		return m.handleHotLeadDetected(ctx, e)
	case events.LeadAssigned:
		return m.handleLeadAssigned(ctx, e)
	case events.NurtureScheduled:
		return m.handleNurtureScheduled(ctx, e)
	case events.NurtureFollowUpDue:
		return m.handleNurtureFollowUpDue(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleHotLeadDetected(ctx context.Context, e events.HotLeadDetected) error {
	inbox := m.cfg.GetTeamInbox()
	if inbox == "" {
		m.log.Warn("team inbox not configured, hot lead alert skipped", "sessionId", e.SessionID)
		return nil
	}

	if err := m.sender.SendHotLeadAlertEmail(ctx, inbox, e.LeadName, e.LeadPhone, e.SessionID, e.Score); err != nil {
		m.log.Error("failed to send hot lead alert email",
			"sessionId", e.SessionID,
			"leadId", e.LeadID,
			"error", err,
		)
		return err
	}
	m.log.Info("hot lead alert email sent", "sessionId", e.SessionID, "leadId", e.LeadID, "score", e.Score)
	return nil
}

func (m *Module) handleLeadAssigned(ctx context.Context, e events.LeadAssigned) error {
	if e.AgentEmail == "" {
		m.log.Warn("assigned agent has no email, notification skipped", "sessionId", e.SessionID, "agentId", e.AgentID)
		return nil
	}

	// The lead's own contact details travel on the hot-lead event, not this
	// one; the agent looks them up in the packet.
	if err := m.sender.SendLeadAssignedEmail(ctx, e.AgentEmail, e.AgentName, "", "", e.SessionID, e.MatchScore, string(e.Class)); err != nil {
		m.log.Error("failed to send assignment email",
			"sessionId", e.SessionID,
			"agentId", e.AgentID,
			"error", err,
		)
		return err
	}
	m.log.Info("assignment email sent", "sessionId", e.SessionID, "agentId", e.AgentID)
	return nil
}

func (m *Module) handleNurtureScheduled(ctx context.Context, e events.NurtureScheduled) error {
	if m.nurture == nil {
		m.log.Warn("nurture scheduler not configured, follow-up skipped", "sessionId", e.SessionID)
		return nil
	}

	runAt := m.now().UTC().Add(m.cfg.GetNurtureDelay())
	err := m.nurture.ScheduleNurtureFollowUp(ctx, scheduler.NurtureFollowUpPayload{
		LeadID:    e.LeadID.String(),
		SessionID: e.SessionID,
		LeadName:  e.LeadName,
		LeadEmail: e.LeadEmail,
	}, runAt)
	if err != nil {
		m.log.Error("failed to schedule nurture follow-up",
			"sessionId", e.SessionID,
			"leadId", e.LeadID,
			"error", err,
		)
		return err
	}
	m.log.Info("nurture follow-up scheduled", "sessionId", e.SessionID, "leadId", e.LeadID, "runAt", runAt)
	return nil
}

func (m *Module) handleNurtureFollowUpDue(ctx context.Context, e events.NurtureFollowUpDue) error {
	if e.LeadEmail == "" {
		m.log.Info("nurture lead has no email, follow-up dropped", "sessionId", e.SessionID, "leadId", e.LeadID)
		return nil
	}

	if err := m.sender.SendNurtureFollowUpEmail(ctx, e.LeadEmail, e.LeadName); err != nil {
		m.log.Error("failed to send nurture follow-up email",
			"sessionId", e.SessionID,
			"leadId", e.LeadID,
			"error", err,
		)
		return err
	}
	m.log.Info("nurture follow-up email sent", "sessionId", e.SessionID, "leadId", e.LeadID)
	return nil
}
