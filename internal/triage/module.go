// Package triage provides the lead qualification bounded context: turn
// ingestion, session inspection, and roster administration.
package triage

import (
	"leadtriage_backend/internal/events"
	apphttp "leadtriage_backend/internal/http"
	"leadtriage_backend/internal/routing"
	"leadtriage_backend/internal/session"
	"leadtriage_backend/internal/triage/handler"
	"leadtriage_backend/internal/triage/repository"
	"leadtriage_backend/internal/triage/service"
	"leadtriage_backend/platform/config"
	"leadtriage_backend/platform/logger"
	"leadtriage_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the triage bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule wires the triage module. roster decides where agent
// candidates come from; nil falls back to the agents table. packets may
// be nil when archiving is disabled.
func NewModule(
	pool *pgxpool.Pool,
	sessions *session.Store,
	engine *routing.Engine,
	roster routing.RosterSource,
	packets service.PacketStore,
	bus events.Bus,
	cfg config.TriageConfig,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	if roster == nil {
		roster = repo
	}
	svc := service.New(sessions, engine, roster, repo, packets, bus, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "triage"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts triage routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public turn ingestion, throttled to conversational speed.
	ctx.V1.POST("/triage/turns", ctx.TurnRateLimiter.RateLimit(), m.handler.ProcessTurn)

	// Protected session inspection
	ctx.Protected.GET("/triage/sessions/:id", m.handler.GetSession)
	ctx.Protected.POST("/triage/sessions/:id/reset", m.handler.ResetSession)

	// Admin-only roster management
	adminGroup := ctx.Admin.Group("/agents")
	adminGroup.GET("", m.handler.ListAgents)
	adminGroup.PUT("/:id", m.handler.UpsertAgent)
	adminGroup.DELETE("/:id", m.handler.DeleteAgent)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
